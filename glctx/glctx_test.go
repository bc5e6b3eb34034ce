// SPDX-License-Identifier: Unlicense OR MIT

package glctx

import (
	"errors"
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"

	"glxhook.org/internal/gl"
)

// thread simulates the calling thread.
type thread struct{ id int }

func newRegistry(th *thread) *Registry {
	r := NewRegistry()
	r.ThreadID = func() int { return th.id }
	return r
}

func TestCreateDestroy(t *testing.T) {
	r := newRegistry(&thread{1})
	const n = 8
	var g errgroup.Group
	for i := 1; i <= n; i++ {
		h := gl.Context(i)
		g.Go(func() error {
			_, created, err := r.Create(1, h)
			if err != nil || !created {
				return fmt.Errorf("create %d: %v, %v", h, created, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if r.Len() != n {
		t.Fatalf("%d contexts want %d", r.Len(), n)
	}
	ids := make(map[uint]bool)
	for i := 1; i <= n; i++ {
		c := r.Lookup(gl.Context(i))
		if c == nil || ids[c.ID] {
			t.Fatalf("context %d missing or duplicate id", i)
		}
		ids[c.ID] = true
	}
	if _, created, _ := r.Create(1, 3); created {
		t.Error("duplicate handle registered twice")
	}
	if _, _, err := r.Destroy(3); err != nil {
		t.Fatal(err)
	}
	if r.Len() != n-1 || r.Lookup(3) != nil {
		t.Error("destroyed context still registered")
	}
	if _, _, err := r.Destroy(3); !errors.Is(err, ErrUnknownContext) {
		t.Errorf("second destroy: %v", err)
	}
	if _, _, err := r.Create(1, 0); !errors.Is(err, ErrNilContext) {
		t.Errorf("nil create: %v", err)
	}
}

func TestFirstBind(t *testing.T) {
	th := &thread{1}
	r := newRegistry(th)
	r.Create(1, 10)
	c, first, err := r.Bind(10, 100, 101)
	if err != nil || !first {
		t.Fatalf("first bind: %v, %v", first, err)
	}
	if c.Draw != 100 || c.Read != 101 || !c.Has(Bound) || c.Has(NeverBound) {
		t.Errorf("bound context state: %+v", c)
	}
	r.Bind(0, 0, 0)
	if c.Has(Bound) || r.Current() != nil {
		t.Error("unbind left the context bound")
	}
	if _, first, _ := r.Bind(10, 100, 100); first {
		t.Error("second bind reported as first")
	}
}

func TestBindUnknown(t *testing.T) {
	th := &thread{1}
	r := newRegistry(th)
	r.Create(1, 10)
	r.Bind(10, 1, 1)
	c, first, err := r.Bind(99, 1, 1)
	if !errors.Is(err, ErrUnknownContext) || c != nil || first {
		t.Fatalf("bind unknown: %v, %v, %v", c, first, err)
	}
	if r.Current() != nil {
		t.Error("thread still bound after binding an unknown handle")
	}
	if r.Lookup(10).Has(Bound) {
		t.Error("previous context still flagged bound")
	}
}

func TestThreads(t *testing.T) {
	th := &thread{1}
	r := newRegistry(th)
	r.Create(1, 10)
	r.Create(1, 20)
	r.Bind(10, 1, 1)
	th.id = 2
	r.Bind(20, 2, 2)
	if c := r.Current(); c == nil || c.Handle != 20 {
		t.Fatalf("thread 2 current %v", c)
	}
	th.id = 1
	if c := r.Current(); c == nil || c.Handle != 10 {
		t.Fatalf("thread 1 current %v", c)
	}
	// Destroying a context bound elsewhere leaves that thread's slot
	// dangling, which resolves to nothing.
	if _, current, _ := r.Destroy(20); current {
		t.Error("context on thread 2 reported current on thread 1")
	}
	th.id = 2
	if c := r.Current(); c != nil {
		t.Errorf("destroyed context still current: %v", c)
	}
	th.id = 1
	if _, current, _ := r.Destroy(10); !current {
		t.Error("context on thread 1 not reported current")
	}
	if r.Current() != nil {
		t.Error("thread 1 still bound after destroy")
	}
}

func TestRelease(t *testing.T) {
	r := newRegistry(&thread{1})
	c, _, _ := r.Create(1, 10)
	if err := c.Release(false); err != nil {
		t.Fatal(err)
	}
	if c.SwapInterval != -1 {
		t.Errorf("swap interval %d want -1", c.SwapInterval)
	}
}

func TestDebugCallback(t *testing.T) {
	r := newRegistry(&thread{1})
	c, _, _ := r.Create(1, 10)
	if _, ok := c.Debug(); ok {
		t.Fatal("debug callback before interception")
	}
	// Readers on other threads must never see a torn pair.
	const n = 1000
	var g errgroup.Group
	g.Go(func() error {
		for i := uintptr(1); i <= n; i++ {
			c.InterceptDebug(DebugCallback{Func: i, UserParam: i << 8})
		}
		return nil
	})
	for j := 0; j < 4; j++ {
		g.Go(func() error {
			for i := 0; i < n; i++ {
				cb, ok := c.Debug()
				if ok && cb.UserParam != cb.Func<<8 {
					return fmt.Errorf("torn debug callback %+v", cb)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if cb, ok := c.Debug(); !ok || cb.Func != n || !c.Has(DebugIntercepted) {
		t.Errorf("final debug callback %+v, %v", cb, ok)
	}
}
