// SPDX-License-Identifier: Unlicense OR MIT

// Command dlsymwrapper is a shared library that publishes the address of
// the real dlsym in GH_DLSYM_PTR when it is loaded. A glxhook built with
// the glxhook_helper tag bootstraps from that address.
//
// Build it with
//
//	go build -buildmode=c-shared -o dlsymwrapper.so ./cmd/dlsymwrapper
//
// The address is bound when the library is relocated, so glxhook must
// not be in the global scope yet: preload dlsymwrapper.so on its own and
// load glxhook.so later, for example with dlopen from the application.
// If both are preloaded together the wrapper sees the interposed dlsym,
// which glxhook recognizes and refuses.
//
// An existing GH_DLSYM_PTR is left alone.
package main

/*
#cgo LDFLAGS: -ldl

void gh_publish_dlsym(void);
*/
import "C"

// publish sets GH_DLSYM_PTR unless it is already set. The library
// constructor does the same on load.
func publish() {
	C.gh_publish_dlsym()
}

func main() {}
