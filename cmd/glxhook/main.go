// SPDX-License-Identifier: Unlicense OR MIT

// Command glxhook is a shared library preloaded into OpenGL
// applications to adjust swap intervals, pace and time buffer swaps,
// limit GPU latency and override context creation.
//
// Build it with
//
//	go build -buildmode=c-shared -o glxhook.so ./cmd/glxhook
//
// and run an application with LD_PRELOAD=./glxhook.so. The real dlsym
// is found through dlvsym by default; the glxhook_dlsym_internal and
// glxhook_helper build tags select the glibc internal _dl_sym or an
// address published in GH_DLSYM_PTR instead.
package main

import (
	"glxhook.org/hook"
	"glxhook.org/intercept"
	"glxhook.org/internal/env"
	"glxhook.org/internal/log"
	"glxhook.org/internal/symbol"
)

var (
	logger   *log.Logger
	shim     *hook.Shim
	resolver *symbol.Resolver
	table    *intercept.Table
)

func init() {
	logger = log.FromEnv(env.OS)
	glx := newRealGLX(logger)
	shim = hook.New(glx, env.OS, logger)
	cfg := shim.Config()
	resolver = symbol.NewResolver(bootstrapper(), symbol.Native{}, cfg.LibGL, logger)
	addrs := make(map[string]uintptr, len(intercept.Symbols))
	for _, s := range intercept.Symbols {
		addrs[s.Name] = hookAddress(s.Name)
	}
	table = intercept.New(addrs, shim.Intercepted, resolver.NextOrLibrary, logger)
	glx.init(table, resolver)
	logger.Debugf("loaded, %d entry points", len(addrs))
	for _, name := range []string{"dlsym", "dlvsym", "glXSwapBuffers"} {
		if !table.Active(name) {
			logger.Debugf("%s not intercepted", name)
		}
	}
}

func main() {}
