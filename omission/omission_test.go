// SPDX-License-Identifier: Unlicense OR MIT

package omission

import (
	"testing"
	"time"

	"glxhook.org/internal/gl"
)

type step struct{ t, d int64 }

func (s *step) now() int64 {
	s.t += s.d
	return s.t
}

func TestFixedInterval(t *testing.T) {
	c := New(Config{Interval: 3}, nil, nil)
	var got []bool
	for i := 0; i < 9; i++ {
		got = append(got, c.Candidate())
	}
	for i, submit := range got {
		if want := i%3 == 2; submit != want {
			t.Errorf("candidate %d: submit %v want %v", i, submit, want)
		}
	}
}

func TestDisabled(t *testing.T) {
	if (Config{Interval: 1}).Enabled() {
		t.Error("interval 1 enabled")
	}
	var c *Controller
	if !c.Candidate() || c.Interval() != 1 {
		t.Error("nil controller omits swaps")
	}
}

type counter struct{ flushes, finishes int }

func (c *counter) Flush()  { c.flushes++ }
func (c *counter) Finish() { c.finishes++ }

func TestOmit(t *testing.T) {
	for _, tc := range []struct {
		skip     Skip
		flushes  int
		finishes int
	}{
		{SkipNone, 0, 0},
		{SkipFlush, 1, 0},
		{SkipFinish, 0, 1},
	} {
		var f counter
		New(Config{Interval: 2, Skip: tc.skip}, nil, nil).Omit(&f)
		if f.flushes != tc.flushes || f.finishes != tc.finishes {
			t.Errorf("skip %d: %+v", tc.skip, f)
		}
	}
	if ParseSkip("") != SkipFlush || ParseSkip("finish") != SkipFinish || ParseSkip("none") != SkipNone {
		t.Error("ParseSkip")
	}
}

func TestAdaptive(t *testing.T) {
	for _, tc := range []struct {
		cost time.Duration
		want int
	}{
		{time.Millisecond, 5},
		{10 * time.Millisecond, 1},
		{100 * time.Microsecond, 16},
	} {
		clk := &step{d: int64(tc.cost)}
		c := New(Config{MinPeriod: 5 * time.Millisecond, Min: 1, Max: 16, Window: 4}, nil, clk.now)
		for i := 0; i < 20; i++ {
			c.Candidate()
		}
		if got := c.Interval(); got != tc.want {
			t.Errorf("cost %v: interval %d want %d", tc.cost, got, tc.want)
		}
	}
}

func TestAdaptiveSubmitsAfterPeriod(t *testing.T) {
	clk := &step{d: int64(time.Millisecond)}
	c := New(Config{MinPeriod: 4 * time.Millisecond, Min: 1, Max: 16, Window: 2}, nil, clk.now)
	// Let the interval settle.
	for i := 0; i < 10; i++ {
		c.Candidate()
	}
	last := int64(-1)
	for i := 0; i < 20; i++ {
		if !c.Candidate() {
			continue
		}
		if last >= 0 && clk.t-last < int64(4*time.Millisecond) {
			t.Fatalf("submitted %v after the previous swap", time.Duration(clk.t-last))
		}
		last = clk.t
	}
}

type fakeGPU struct {
	timer   bool
	next    uint
	stamps  map[uint]uint64
	clock   uint64
	deleted int
}

func (g *fakeGPU) HasTimerQuery() bool { return g.timer }

func (g *fakeGPU) GenQuery() gl.Query {
	g.next++
	return gl.Query{V: g.next}
}

func (g *fakeGPU) DeleteQuery(gl.Query) { g.deleted++ }

func (g *fakeGPU) QueryCounter(q gl.Query) {
	// Every frame costs the GPU 2ms.
	g.clock += uint64(2 * time.Millisecond)
	g.stamps[q.V] = g.clock
}

func (g *fakeGPU) QueryResultAvailable(q gl.Query) bool {
	_, ok := g.stamps[q.V]
	return ok
}

func (g *fakeGPU) QueryResult(q gl.Query) uint64 { return g.stamps[q.V] }

func TestGPUMetric(t *testing.T) {
	clk := &step{d: int64(time.Millisecond)}
	gpu := &fakeGPU{timer: true, stamps: make(map[uint]uint64)}
	c := New(Config{MinPeriod: 8 * time.Millisecond, Min: 1, Max: 16, Window: 4, Metric: MetricMax}, nil, clk.now)
	c.Probe(gpu)
	for i := 0; i < 20; i++ {
		c.Candidate()
	}
	// The GPU cost dominates the CPU cost.
	if got := c.Interval(); got != 4 {
		t.Errorf("interval %d want 4", got)
	}
	if gpu.next != 2 {
		t.Errorf("generated %d queries want 2", gpu.next)
	}
	c.Release()
	if gpu.deleted != 2 {
		t.Errorf("deleted %d queries want 2", gpu.deleted)
	}
}

func TestProbeWithoutTimerQuery(t *testing.T) {
	clk := &step{d: int64(time.Millisecond)}
	gpu := &fakeGPU{stamps: make(map[uint]uint64)}
	c := New(Config{MinPeriod: 3 * time.Millisecond, Max: 16, Metric: MetricGPU}, nil, clk.now)
	c.Probe(gpu)
	for i := 0; i < 10; i++ {
		c.Candidate()
	}
	if gpu.next != 0 {
		t.Error("queries generated without timer query support")
	}
	if got := c.Interval(); got != 3 {
		t.Errorf("interval %d want 3", got)
	}
}
