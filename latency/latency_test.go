// SPDX-License-Identifier: Unlicense OR MIT

package latency

import (
	"testing"
	"time"

	"glxhook.org/internal/gl"
)

type fakeFences struct {
	noSync   bool
	next     uintptr
	live     map[uintptr]int // fence -> polls until signaled
	waits    []uintptr
	timeouts []uint64
	finishes int
	deleted  int
}

func newFakeFences() *fakeFences {
	return &fakeFences{live: make(map[uintptr]int)}
}

func (f *fakeFences) HasSync() bool { return !f.noSync }

func (f *fakeFences) FenceSync() gl.Sync {
	f.next++
	f.live[f.next] = 2
	return gl.Sync{V: f.next}
}

func (f *fakeFences) DeleteSync(s gl.Sync) {
	if _, ok := f.live[s.V]; !ok {
		panic("deleting unknown fence")
	}
	delete(f.live, s.V)
	f.deleted++
}

func (f *fakeFences) ClientWaitSync(s gl.Sync, flags gl.Bitfield, timeout uint64) gl.Enum {
	f.waits = append(f.waits, s.V)
	f.timeouts = append(f.timeouts, timeout)
	if timeout > 0 {
		f.live[s.V] = 0
		return gl.CONDITION_SATISFIED
	}
	if f.live[s.V] > 0 {
		f.live[s.V]--
		return gl.TIMEOUT_EXPIRED
	}
	return gl.ALREADY_SIGNALED
}

func (f *fakeFences) Finish() { f.finishes++ }

func swap(l *Limiter) {
	l.BeforeSwap()
	l.AfterSwap()
}

func TestDisabled(t *testing.T) {
	if l := New(Config{Mode: Disabled}, newFakeFences()); l != nil {
		t.Fatal("disabled limiter created")
	}
	var l *Limiter
	swap(l)
	l.Release()
	if l.Mode() != Disabled {
		t.Error("nil limiter not disabled")
	}
}

func TestFinishModes(t *testing.T) {
	for _, mode := range []int{FinishBefore, FinishAfter} {
		f := newFakeFences()
		l := New(Config{Mode: mode}, f)
		for i := 0; i < 3; i++ {
			swap(l)
		}
		if f.finishes != 3 || len(f.waits) != 0 {
			t.Errorf("mode %d: %d finishes, %d waits", mode, f.finishes, len(f.waits))
		}
	}
}

func TestFenceRing(t *testing.T) {
	f := newFakeFences()
	l := New(Config{Mode: 2, Timeout: time.Millisecond}, f)
	swap(l)
	swap(l)
	if len(f.waits) != 0 {
		t.Fatalf("waited before the ring filled: %v", f.waits)
	}
	swap(l)
	// The third swap waits on the fence of the first.
	if len(f.waits) != 1 || f.waits[0] != 1 {
		t.Fatalf("waits %v want [1]", f.waits)
	}
	if f.timeouts[0] != uint64(time.Millisecond) {
		t.Errorf("timeout %d", f.timeouts[0])
	}
	if f.deleted != 1 || len(f.live) != 2 {
		t.Errorf("%d deleted, %d live fences", f.deleted, len(f.live))
	}
	l.Release()
	if len(f.live) != 0 {
		t.Errorf("%d fences leaked", len(f.live))
	}
}

func TestManualWait(t *testing.T) {
	f := newFakeFences()
	l := New(Config{Mode: 1, ManualWait: true, Timeout: time.Hour, PollSleep: time.Microsecond}, f)
	var sleeps int
	l.sleep = func(time.Duration) { sleeps++ }
	swap(l)
	swap(l)
	// Two unsignaled polls, then signaled.
	if len(f.waits) != 3 || sleeps != 2 {
		t.Errorf("%d polls, %d sleeps", len(f.waits), sleeps)
	}
}

func TestManualWaitTimeout(t *testing.T) {
	f := newFakeFences()
	l := New(Config{Mode: 1, ManualWait: true, Timeout: time.Second}, f)
	now := time.Unix(0, 0)
	l.now = func() time.Time {
		now = now.Add(600 * time.Millisecond)
		return now
	}
	swap(l)
	f.live[1] = 1000
	swap(l)
	// Deadline passes after the second poll; the swap proceeds.
	if len(f.waits) != 2 {
		t.Errorf("%d polls want 2", len(f.waits))
	}
}

func TestFallbackWithoutSync(t *testing.T) {
	f := newFakeFences()
	f.noSync = true
	l := New(Config{Mode: 3}, f)
	if l.Mode() != FinishBefore {
		t.Fatalf("mode %d want FinishBefore", l.Mode())
	}
	swap(l)
	if f.finishes != 1 || f.next != 0 {
		t.Errorf("%d finishes, %d fences", f.finishes, f.next)
	}
}
