// SPDX-License-Identifier: Unlicense OR MIT

// Package intercept maps the names of the intercepted entry points to
// the shim's own definitions and caches the real definitions behind
// them.
package intercept

import (
	"sync"

	"golang.org/x/exp/slices"

	"glxhook.org/internal/log"
	"glxhook.org/internal/symbol"
)

type Kind uint8

const (
	Resolver Kind = iota
	Create
	Destroy
	Bind
	SwapInterval
	Swap
	Debug
	Texture
)

type Symbol struct {
	Name string
	Kind Kind
}

// Symbols is the fixed set of intercepted entry points.
var Symbols = []Symbol{
	{"dlsym", Resolver},
	{"dlvsym", Resolver},
	{"glXGetProcAddress", Resolver},
	{"glXGetProcAddressARB", Resolver},

	{"glXCreateContext", Create},
	{"glXCreateNewContext", Create},
	{"glXCreateContextAttribsARB", Create},
	{"glXImportContextEXT", Create},
	{"glXCreateContextWithConfigSGIX", Create},

	{"glXDestroyContext", Destroy},
	{"glXFreeContextEXT", Destroy},

	{"glXMakeCurrent", Bind},
	{"glXMakeContextCurrent", Bind},
	{"glXMakeCurrentReadSGI", Bind},

	{"glXSwapIntervalEXT", SwapInterval},
	{"glXSwapIntervalSGI", SwapInterval},
	{"glXSwapIntervalMESA", SwapInterval},

	{"glXSwapBuffers", Swap},

	{"glDebugMessageCallback", Debug},
	{"glDebugMessageCallbackARB", Debug},
	{"glDebugMessageCallbackKHR", Debug},
	{"glDebugMessageCallbackAMD", Debug},

	{"glTexParameteri", Texture},
	{"glTexParameterf", Texture},
}

// Lookup returns the Symbol for name.
func Lookup(name string) (Symbol, bool) {
	i := slices.IndexFunc(Symbols, func(s Symbol) bool { return s.Name == name })
	if i < 0 {
		return Symbol{}, false
	}
	return Symbols[i], true
}

// Table dispatches lookups of intercepted names.
type Table struct {
	log     *log.Logger
	next    func(name string) uintptr
	entries map[string]*entry
}

type entry struct {
	sym  Symbol
	addr uintptr
	real *symbol.Entry

	gate     func(name string) bool
	gateOnce sync.Once
	enabled  bool
}

// New builds the table. addrs holds the address of the shim's definition
// of every symbol; symbols without an address are never dispatched.
// gate decides, once per name, whether interception is active; a nil
// gate enables everything. next resolves real definitions on demand.
func New(addrs map[string]uintptr, gate func(name string) bool, next func(name string) uintptr, l *log.Logger) *Table {
	t := &Table{
		log:     l,
		next:    next,
		entries: make(map[string]*entry, len(Symbols)),
	}
	for _, s := range Symbols {
		t.entries[s.Name] = &entry{
			sym:  s,
			addr: addrs[s.Name],
			real: symbol.NewEntry(s.Name),
			gate: gate,
		}
	}
	return t
}

func (e *entry) active() bool {
	e.gateOnce.Do(func() {
		e.enabled = e.addr != 0 && (e.gate == nil || e.gate(e.sym.Name))
	})
	return e.enabled
}

// Dispatch returns the shim's definition of name, or 0 if name is not
// intercepted. On the first dispatch of a name the real definition is
// resolved through query, the resolver the application itself called,
// identified by via for logging.
func (t *Table) Dispatch(name string, query func(name string) uintptr, via string) uintptr {
	e := t.entries[name]
	if e == nil || !e.active() {
		return 0
	}
	if p, first := e.real.Resolve(query); first {
		t.log.Debugf("queried internal %s via %s: %#x", name, via, p)
	}
	return e.addr
}

// Real returns the real definition behind an intercepted name,
// resolving it through the table's resolver if no earlier dispatch did.
// It returns 0 if the real definition is unavailable.
func (t *Table) Real(name string) uintptr {
	e := t.entries[name]
	if e == nil {
		return 0
	}
	p, first := e.real.Resolve(t.next)
	if first {
		t.log.Debugf("queried internal %s via dlsym: %#x", name, p)
	}
	return p
}

// Active reports whether name is currently intercepted.
func (t *Table) Active(name string) bool {
	e := t.entries[name]
	return e != nil && e.active()
}
