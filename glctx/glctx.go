// SPDX-License-Identifier: Unlicense OR MIT

// Package glctx tracks the live GLX contexts of the process and the
// context current on every thread.
package glctx

import (
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"glxhook.org/frametime"
	"glxhook.org/internal/gl"
	"glxhook.org/latency"
	"glxhook.org/omission"
)

var (
	ErrUnknownContext = errors.New("glctx: unknown context")
	ErrNilContext     = errors.New("glctx: nil context")
)

// Flag is a lifecycle or feature bit of a Context.
type Flag uint32

const (
	NeverBound Flag = 1 << iota
	Bound
	DebugIntercepted
	DebugInjected
)

// Context is the state kept for one native context. Besides the flags
// its fields are only touched by the thread the context is current on.
type Context struct {
	Handle  gl.Context
	Display gl.Display
	// ID numbers contexts in creation order.
	ID uint

	Draw, Read gl.Drawable

	Timer    *frametime.Timer
	Limiter  *latency.Limiter
	Omission *omission.Controller

	// SwapInterval is the interval injected at first bind, or -1.
	SwapInterval int

	// debug is read by the logger, possibly from a driver thread.
	debug atomic.Pointer[DebugCallback]
	flags atomic.Uint32
}

// DebugCallback is an application debug message callback and its user
// parameter.
type DebugCallback struct {
	Func, UserParam uintptr
}

// InterceptDebug records the application callback the logger chains to.
func (c *Context) InterceptDebug(cb DebugCallback) {
	c.debug.Store(&cb)
	c.Set(DebugIntercepted)
}

// Debug returns the intercepted application callback.
func (c *Context) Debug() (DebugCallback, bool) {
	cb := c.debug.Load()
	if cb == nil {
		return DebugCallback{}, false
	}
	return *cb, true
}

func (c *Context) Has(f Flag) bool {
	return Flag(c.flags.Load())&f == f
}

func (c *Context) Set(f Flag) {
	for {
		old := c.flags.Load()
		if c.flags.CompareAndSwap(old, old|uint32(f)) {
			return
		}
	}
}

// Clear clears f and reports whether any of its bits were set.
func (c *Context) Clear(f Flag) bool {
	for {
		old := c.flags.Load()
		if old&uint32(f) == 0 {
			return false
		}
		if c.flags.CompareAndSwap(old, old&^uint32(f)) {
			return true
		}
	}
}

// Release flushes and closes the frame timer output. GL objects are
// deleted only if current is set, meaning the context is current on
// the calling thread.
func (c *Context) Release(current bool) error {
	if current {
		c.Timer.Release()
		c.Limiter.Release()
		c.Omission.Release()
	}
	err := c.Timer.Close()
	c.Timer, c.Limiter, c.Omission = nil, nil, nil
	return err
}

// Registry owns every Context.
type Registry struct {
	// ThreadID identifies the calling thread. It defaults to gettid.
	ThreadID func() int

	mu       sync.Mutex
	contexts map[gl.Context]*Context
	// current maps threads to the handle bound on them. Handles are
	// looked up on use so that a destroyed context is never returned.
	current map[int]gl.Context
	nextID  uint
}

func NewRegistry() *Registry {
	return &Registry{
		ThreadID: unix.Gettid,
		contexts: make(map[gl.Context]*Context),
		current:  make(map[int]gl.Context),
	}
}

// Create registers a new context. If the handle is already registered
// the existing record is returned and created is false.
func (r *Registry) Create(dpy gl.Display, h gl.Context) (c *Context, created bool, err error) {
	if h == 0 {
		return nil, false, ErrNilContext
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := r.contexts[h]; c != nil {
		return c, false, nil
	}
	c = &Context{
		Handle:       h,
		Display:      dpy,
		ID:           r.nextID,
		SwapInterval: -1,
	}
	c.flags.Store(uint32(NeverBound))
	r.nextID++
	r.contexts[h] = c
	return c, true, nil
}

// Destroy removes a context and returns its record for release. current
// reports whether the context is bound on the calling thread, in which
// case the thread becomes unbound.
func (r *Registry) Destroy(h gl.Context) (c *Context, current bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c = r.contexts[h]
	if c == nil {
		return nil, false, ErrUnknownContext
	}
	delete(r.contexts, h)
	tid := r.ThreadID()
	if r.current[tid] == h {
		delete(r.current, tid)
		current = true
	}
	c.Clear(Bound)
	return c, current, nil
}

// Bind makes h current on the calling thread with the given surfaces.
// A zero handle unbinds the thread. For an unknown handle the thread is
// left unbound and ErrUnknownContext is returned. first is true for
// exactly one successful bind of every context.
func (r *Registry) Bind(h gl.Context, draw, read gl.Drawable) (c *Context, first bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tid := r.ThreadID()
	if prev := r.current[tid]; prev != 0 && prev != h {
		if pc := r.contexts[prev]; pc != nil {
			pc.Clear(Bound)
		}
	}
	if h == 0 {
		delete(r.current, tid)
		return nil, false, nil
	}
	c = r.contexts[h]
	if c == nil {
		delete(r.current, tid)
		return nil, false, ErrUnknownContext
	}
	r.current[tid] = h
	c.Draw, c.Read = draw, read
	c.Set(Bound)
	first = c.Clear(NeverBound)
	return c, first, nil
}

// Current returns the context bound on the calling thread, or nil.
func (r *Registry) Current() *Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.current[r.ThreadID()]
	if h == 0 {
		return nil
	}
	return r.contexts[h]
}

func (r *Registry) Lookup(h gl.Context) *Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.contexts[h]
}

// Len returns the number of live contexts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.contexts)
}
