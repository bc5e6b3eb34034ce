// SPDX-License-Identifier: Unlicense OR MIT

//go:build glxhook_dlsym_internal && !glxhook_helper

package main

import "glxhook.org/internal/symbol"

func bootstrapper() symbol.Bootstrapper {
	return symbol.DLSymInternal{}
}
