// SPDX-License-Identifier: Unlicense OR MIT

package symbol

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	"glxhook.org/internal/env"
)

type fakeBoot struct {
	calls atomic.Int32
	ptr   uintptr
	err   error
}

func (b *fakeBoot) Bootstrap() (uintptr, error) {
	b.calls.Add(1)
	return b.ptr, b.err
}

type fakeLoader struct {
	mu    sync.Mutex
	syms  map[uintptr]map[string]uintptr
	libs  map[string]uintptr
	opens int
}

func (l *fakeLoader) Sym(fn, handle uintptr, name string) uintptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if fn != 0xd1 {
		panic("called through the wrong dlsym")
	}
	return l.syms[handle][name]
}

func (l *fakeLoader) Open(name string) (uintptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opens++
	if h, ok := l.libs[name]; ok {
		return h, nil
	}
	return 0, errors.New("not found")
}

func newFake() (*fakeBoot, *fakeLoader) {
	return &fakeBoot{ptr: 0xd1}, &fakeLoader{
		syms: map[uintptr]map[string]uintptr{
			RTLD_NEXT: {"glXSwapBuffers": 0x100},
			0x77:      {"glXSwapIntervalEXT": 0x200},
		},
		libs: map[string]uintptr{"libGL.so.1": 0x77},
	}
}

func TestBootstrapOnce(t *testing.T) {
	boot, loader := newFake()
	r := NewResolver(boot, loader, "", nil)
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			if p := r.Next("glXSwapBuffers"); p != 0x100 {
				return errors.New("wrong address")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if n := boot.calls.Load(); n != 1 {
		t.Errorf("bootstrapped %d times", n)
	}
}

func TestBootstrapFailure(t *testing.T) {
	boot := &fakeBoot{err: ErrBootstrap}
	_, loader := newFake()
	r := NewResolver(boot, loader, "libGL.so.1", nil)
	if p := r.Next("glXSwapBuffers"); p != 0 {
		t.Errorf("Next after failed bootstrap = %#x", p)
	}
	if p := r.NextOrLibrary("glXSwapIntervalEXT"); p != 0 {
		t.Errorf("NextOrLibrary after failed bootstrap = %#x", p)
	}
	if !errors.Is(r.bootErr, ErrBootstrap) {
		t.Errorf("bootstrap error %v", r.bootErr)
	}
	if loader.opens != 0 {
		t.Error("library opened without a dlsym")
	}
	if n := boot.calls.Load(); n != 1 {
		t.Errorf("bootstrap retried %d times", n)
	}
}

func TestNextOrLibrary(t *testing.T) {
	boot, loader := newFake()
	r := NewResolver(boot, loader, "libGL.so.1", nil)
	if p := r.NextOrLibrary("glXSwapBuffers"); p != 0x100 {
		t.Errorf("default search = %#x", p)
	}
	if loader.opens != 0 {
		t.Error("library opened although the default search succeeded")
	}
	for i := 0; i < 3; i++ {
		if p := r.NextOrLibrary("glXSwapIntervalEXT"); p != 0x200 {
			t.Errorf("fallback search = %#x", p)
		}
	}
	if loader.opens != 1 {
		t.Errorf("library opened %d times", loader.opens)
	}
}

func TestEntryConcurrentResolve(t *testing.T) {
	e := NewEntry("glXSwapIntervalSGI")
	var queries, transitions atomic.Int32
	query := func(name string) uintptr {
		queries.Add(1)
		return 0x300
	}
	const n = 32
	results := make([]uintptr, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			p, first := e.Resolve(query)
			if first {
				transitions.Add(1)
			}
			results[i] = p
			return nil
		})
	}
	g.Wait()
	for i, p := range results {
		if p != 0x300 {
			t.Errorf("goroutine %d got %#x", i, p)
		}
	}
	if got := transitions.Load(); got != 1 {
		t.Errorf("%d transitions want 1", got)
	}
	if got := queries.Load(); got != 1 {
		t.Errorf("%d queries want 1", got)
	}
	if e.Load() != 0x300 {
		t.Errorf("Load = %#x", e.Load())
	}
}

func TestEntryStaysUnresolved(t *testing.T) {
	e := NewEntry("missing")
	if p, first := e.Resolve(func(string) uintptr { return 0 }); p != 0 || first {
		t.Errorf("Resolve = %#x, %v", p, first)
	}
	if p, first := e.Resolve(func(string) uintptr { return 0x10 }); p != 0x10 || !first {
		t.Errorf("second Resolve = %#x, %v", p, first)
	}
}

func TestHelper(t *testing.T) {
	tests := []struct {
		val  string
		want uintptr
		err  bool
	}{
		{"0x7f0012345678", 0x7f0012345678, false},
		{"7f00aa", 0x7f00aa, false},
		{"", 0, true},
		{"nil", 0, true},
		{"0x0", 0, true},
		// The helper resolved the shim's own dlsym.
		{"0x5e1f", 0, true},
	}
	for _, tt := range tests {
		h := Helper{Env: env.Map(map[string]string{"GH_DLSYM_PTR": tt.val}), Self: 0x5e1f}
		p, err := h.Bootstrap()
		if (err != nil) != tt.err || p != tt.want {
			t.Errorf("Bootstrap(%q) = %#x, %v", tt.val, p, err)
		}
		if err != nil && !errors.Is(err, ErrBootstrap) {
			t.Errorf("error %v does not wrap ErrBootstrap", err)
		}
	}
}

func TestCEnv(t *testing.T) {
	t.Setenv("GH_SYMBOL_TEST", "0x1234")
	if v := CEnv("GH_SYMBOL_TEST"); v != "0x1234" {
		t.Errorf("CEnv = %q", v)
	}
	if v := CEnv("GH_SYMBOL_TEST_UNSET"); v != "" {
		t.Errorf("CEnv of unset variable = %q", v)
	}
}
