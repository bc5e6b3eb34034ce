// SPDX-License-Identifier: Unlicense OR MIT

// Package symbol resolves the next, non-intercepted definition of a
// symbol. The real dlsym is bootstrapped once without going through the
// interposed one and is then used for every lookup.
package symbol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"glxhook.org/internal/env"
	"glxhook.org/internal/log"
)

// Pseudo handles understood by dlsym (glibc values).
const (
	RTLD_DEFAULT uintptr = 0
	RTLD_NEXT    uintptr = ^uintptr(0)
)

// ErrBootstrap is returned when no strategy could obtain the real dlsym.
var ErrBootstrap = errors.New("symbol: cannot bootstrap the real dlsym")

// Bootstrapper obtains the address of the real dlsym.
type Bootstrapper interface {
	Bootstrap() (uintptr, error)
}

// Loader performs the native calls of the resolver.
type Loader interface {
	// Sym calls the dlsym at fn with handle and name.
	Sym(fn, handle uintptr, name string) uintptr
	// Open loads a shared library by file name.
	Open(name string) (uintptr, error)
}

// Entry caches the real address behind one intercepted symbol. It
// transitions once from unresolved to resolved; afterwards Load never
// takes the lock.
type Entry struct {
	Name string

	mu  sync.Mutex
	ptr atomic.Uintptr
}

func NewEntry(name string) *Entry {
	return &Entry{Name: name}
}

func (e *Entry) Load() uintptr {
	return e.ptr.Load()
}

// Resolve returns the cached address, calling query to obtain it if the
// entry is unresolved. It reports whether this call resolved the entry.
// A zero result from query leaves the entry unresolved.
func (e *Entry) Resolve(query func(name string) uintptr) (uintptr, bool) {
	if p := e.ptr.Load(); p != 0 {
		return p, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if p := e.ptr.Load(); p != 0 {
		return p, false
	}
	if query == nil {
		return 0, false
	}
	p := query(e.Name)
	if p == 0 {
		return 0, false
	}
	e.ptr.Store(p)
	return p, true
}

// Resolver implements lookups of the next symbol definition.
type Resolver struct {
	boot   Bootstrapper
	loader Loader
	log    *log.Logger

	// Fallback library for NextOrLibrary.
	libName string

	bootOnce sync.Once
	dlsym    uintptr
	bootErr  error

	libOnce sync.Once
	lib     uintptr
}

func NewResolver(boot Bootstrapper, loader Loader, libName string, l *log.Logger) *Resolver {
	return &Resolver{
		boot:    boot,
		loader:  loader,
		libName: libName,
		log:     l,
	}
}

// Dlsym returns the real dlsym, bootstrapping it on first use. It
// returns 0 if bootstrapping failed.
func (r *Resolver) Dlsym() uintptr {
	r.bootOnce.Do(func() {
		p, err := r.boot.Bootstrap()
		if err == nil && p == 0 {
			err = ErrBootstrap
		}
		if err != nil {
			r.bootErr = err
			r.log.Errorf("failed to bootstrap dlsym: %v", err)
			return
		}
		r.dlsym = p
		r.log.Debugf("bootstrapped real dlsym: %#x", p)
	})
	return r.dlsym
}

// Sym calls the real dlsym with an explicit handle.
func (r *Resolver) Sym(handle uintptr, name string) uintptr {
	fn := r.Dlsym()
	if fn == 0 {
		return 0
	}
	return r.loader.Sym(fn, handle, name)
}

// Next resolves name in the objects loaded after the shim.
func (r *Resolver) Next(name string) uintptr {
	return r.Sym(RTLD_NEXT, name)
}

// NextOrLibrary is like Next but falls back to explicitly loading the
// configured GL library for applications which only pull it in through
// a plugin or a later dlopen.
func (r *Resolver) NextOrLibrary(name string) uintptr {
	if p := r.Next(name); p != 0 {
		return p
	}
	r.libOnce.Do(func() {
		if r.libName == "" || r.Dlsym() == 0 {
			return
		}
		h, err := r.loader.Open(r.libName)
		if err != nil {
			r.log.Warnf("failed to load %s: %v", r.libName, err)
			return
		}
		r.lib = h
		r.log.Debugf("loaded %s: %#x", r.libName, h)
	})
	if r.lib == 0 {
		return 0
	}
	return r.loader.Sym(r.Dlsym(), r.lib, name)
}

// Helper reads the address of the real dlsym published by a helper
// library preloaded before the shim.
type Helper struct {
	// Env defaults to CEnv. The helper sets the variable after the Go
	// runtime copied the environment.
	Env env.Source
	// Var defaults to GH_DLSYM_PTR.
	Var string
	// Self is the shim's own dlsym. A helper that bound to it instead
	// of the real one publishes Self.
	Self uintptr
}

func (h Helper) Bootstrap() (uintptr, error) {
	name := h.Var
	if name == "" {
		name = "GH_DLSYM_PTR"
	}
	src := h.Env
	if src == nil {
		src = CEnv
	}
	v := strings.TrimSpace(src(name))
	if v == "" {
		return 0, fmt.Errorf("%w: %s not set", ErrBootstrap, name)
	}
	p, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(v, "0x"), "0X"), 16, 64)
	if err != nil || p == 0 {
		return 0, fmt.Errorf("%w: %s=%q is not an address", ErrBootstrap, name, v)
	}
	if h.Self != 0 && uintptr(p) == h.Self {
		return 0, fmt.Errorf("%w: %s points to the interposed dlsym", ErrBootstrap, name)
	}
	return uintptr(p), nil
}
