// SPDX-License-Identifier: Unlicense OR MIT

package symbol

/*
#cgo LDFLAGS: -ldl

#define _GNU_SOURCE
#include <dlfcn.h>
#include <pthread.h>
#include <stdint.h>
#include <stdlib.h>

typedef void *(*gh_dlsym_fn)(void *, const char *);

// glibc internal, exported up to 2.33. Weak so that newer versions
// still load the shim.
extern void *_dl_sym(void *, const char *, void *) __attribute__((weak));

static pthread_mutex_t gh_dl_sym_mutex = PTHREAD_MUTEX_INITIALIZER;

__attribute__ ((visibility ("hidden"))) uintptr_t gh_call_dlsym(uintptr_t fn, uintptr_t handle, const char *name) {
	return (uintptr_t)((gh_dlsym_fn)fn)((void *)handle, name);
}

__attribute__ ((visibility ("hidden"))) uintptr_t gh_bootstrap_dl_sym(void) {
	void *p;
	if (_dl_sym == NULL) {
		return 0;
	}
	// _dl_sym bypasses the locking dlsym does.
	pthread_mutex_lock(&gh_dl_sym_mutex);
	p = _dl_sym(RTLD_NEXT, "dlsym", (void *)gh_bootstrap_dl_sym);
	pthread_mutex_unlock(&gh_dl_sym_mutex);
	return (uintptr_t)p;
}

__attribute__ ((visibility ("hidden"))) uintptr_t gh_bootstrap_dlvsym(const char *version) {
	return (uintptr_t)dlvsym(RTLD_NEXT, "dlsym", version);
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
)

// CEnv reads the C environment, which unlike os.Getenv sees variables
// set by other libraries after the process started.
func CEnv(name string) string {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	v := C.getenv(cname)
	if v == nil {
		return ""
	}
	return C.GoString(v)
}

// Native calls the platform dynamic loader.
type Native struct{}

func (Native) Sym(fn, handle uintptr, name string) uintptr {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return uintptr(C.gh_call_dlsym(C.uintptr_t(fn), C.uintptr_t(handle), cname))
}

func (Native) Open(name string) (uintptr, error) {
	return purego.Dlopen(name, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
}

// DLSymInternal calls glibc's internal _dl_sym directly.
type DLSymInternal struct{}

func (DLSymInternal) Bootstrap() (uintptr, error) {
	p := uintptr(C.gh_bootstrap_dl_sym())
	if p == 0 {
		return 0, fmt.Errorf("%w: _dl_sym unavailable", ErrBootstrap)
	}
	return p, nil
}

// DLVSym asks dlvsym for a versioned dlsym. The shim must not
// interpose dlvsym itself when this strategy is used.
type DLVSym struct {
	// Versions defaults to the glibc versions dlsym was published with.
	Versions []string
}

var dlsymVersions = []string{"GLIBC_2.34", "GLIBC_2.2.5", "GLIBC_2.17", "GLIBC_2.0"}

func (d DLVSym) Bootstrap() (uintptr, error) {
	versions := d.Versions
	if len(versions) == 0 {
		versions = dlsymVersions
	}
	for _, v := range versions {
		cv := C.CString(v)
		p := uintptr(C.gh_bootstrap_dlvsym(cv))
		C.free(unsafe.Pointer(cv))
		if p != 0 {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: no dlsym in versions %v", ErrBootstrap, versions)
}
