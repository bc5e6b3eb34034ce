// SPDX-License-Identifier: Unlicense OR MIT

//go:build glxhook_helper

package main

import "glxhook.org/internal/symbol"

// The dlsymwrapper library publishes the address of the real dlsym in
// the environment when it is loaded.
func bootstrapper() symbol.Bootstrapper {
	return symbol.Helper{Env: symbol.CEnv, Self: hookAddress("dlsym")}
}
