// SPDX-License-Identifier: Unlicense OR MIT

// Package frametime records CPU and GPU timestamps around every buffer
// swap of a context and writes per frame deltas as tab separated rows.
package frametime

import (
	"bufio"
	"fmt"
	"io"

	"glxhook.org/internal/gl"
)

type Mode uint8

const (
	None Mode = iota
	CPU
	// GPU records CPU timestamps plus GPU timer queries.
	GPU
)

func (m Mode) String() string {
	switch m {
	case None:
		return "none"
	case CPU:
		return "cpu"
	case GPU:
		return "cpu+gpu"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Queries is the GL timer query interface used in GPU mode.
type Queries interface {
	HasTimerQuery() bool
	GenQuery() gl.Query
	DeleteQuery(q gl.Query)
	QueryCounter(q gl.Query)
	QueryResult(q gl.Query) uint64
	Timestamp() int64
}

type Config struct {
	Mode Mode
	// Delay is the number of frames between issuing a query and
	// collecting its result. Results of the first Delay frames are not
	// written.
	Delay int
	// Frames is the number of results buffered before writing.
	Frames int
}

// Point is one timestamp: CPU nanoseconds, the GPU timer query result
// and the GPU clock read by the client when the query was issued.
type Point struct {
	CPU, GPU, Clock int64
}

// Result holds the timestamps before and after one swap.
type Result struct {
	Frame         uint64
	Before, After Point
}

type stamp struct {
	cpu   int64
	clock int64
	query gl.Query
}

type slot struct {
	frame         uint64
	valid         bool
	before, after stamp
}

// Timer is the per context frame timer. It must only be used while its
// context is current.
type Timer struct {
	mode    Mode
	delay   uint64
	batch   int
	gpu     Queries
	now     func() int64
	ring    []slot
	pos     int
	frame   uint64
	results []Result
	w       *bufio.Writer
	c       io.Closer
	written uint64
}

// New creates a Timer writing to w. The mode degrades to CPU if gpu is
// nil or lacks timer queries. If w is also an io.Closer it is closed by
// Close.
func New(cfg Config, gpu Queries, now func() int64, w io.Writer) *Timer {
	if cfg.Mode == GPU && (gpu == nil || !gpu.HasTimerQuery()) {
		cfg.Mode = CPU
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	// One result is always kept as the baseline for the next batch.
	if cfg.Frames < 2 {
		cfg.Frames = 2
	}
	t := &Timer{
		mode:    cfg.Mode,
		delay:   uint64(cfg.Delay),
		batch:   cfg.Frames,
		gpu:     gpu,
		now:     now,
		ring:    make([]slot, cfg.Delay+1),
		results: make([]Result, 0, cfg.Frames),
		w:       bufio.NewWriter(w),
	}
	if c, ok := w.(io.Closer); ok {
		t.c = c
	}
	return t
}

func (t *Timer) Mode() Mode {
	if t == nil {
		return None
	}
	return t.mode
}

// Written returns the number of rows written so far.
func (t *Timer) Written() uint64 {
	if t == nil {
		return 0
	}
	return t.written
}

// BeforeSwap collects the result of the frame that previously occupied
// the current ring slot and records the before-swap timestamp.
func (t *Timer) BeforeSwap() {
	if t == nil || t.mode == None {
		return
	}
	s := &t.ring[t.pos]
	if s.valid {
		t.collect(s)
		s.valid = false
	}
	t.record(&s.before)
}

// AfterSwap records the after-swap timestamp and advances the ring.
func (t *Timer) AfterSwap() {
	if t == nil || t.mode == None {
		return
	}
	s := &t.ring[t.pos]
	t.record(&s.after)
	s.frame = t.frame
	s.valid = true
	t.frame++
	t.pos = (t.pos + 1) % len(t.ring)
}

func (t *Timer) record(st *stamp) {
	st.cpu = t.now()
	if t.mode != GPU {
		return
	}
	if !st.query.Valid() {
		st.query = t.gpu.GenQuery()
	}
	st.clock = t.gpu.Timestamp()
	t.gpu.QueryCounter(st.query)
}

func (t *Timer) point(st *stamp) Point {
	p := Point{CPU: st.cpu}
	if t.mode == GPU {
		// The query had a full ring cycle to complete.
		p.GPU = int64(t.gpu.QueryResult(st.query))
		p.Clock = st.clock
	}
	return p
}

func (t *Timer) collect(s *slot) {
	t.results = append(t.results, Result{
		Frame:  s.frame,
		Before: t.point(&s.before),
		After:  t.point(&s.after),
	})
	if len(t.results) >= t.batch {
		t.flush()
	}
}

// flush writes every buffered result after the first, which serves as
// the baseline, and keeps the last result as the next baseline.
func (t *Timer) flush() {
	if len(t.results) < 2 {
		return
	}
	for i := 1; i < len(t.results); i++ {
		r, prev := &t.results[i], &t.results[i-1]
		if r.Frame < t.delay {
			continue
		}
		fmt.Fprintf(t.w, "%d\t%d\t%d\t%d\t%d\t%d\t%d\n", r.Frame,
			r.Before.CPU-prev.After.CPU, r.Before.GPU-prev.After.GPU, r.Before.GPU-r.Before.Clock,
			r.After.CPU-prev.After.CPU, r.After.GPU-prev.After.GPU, r.After.GPU-r.After.Clock)
		t.written++
	}
	last := t.results[len(t.results)-1]
	t.results = append(t.results[:0], last)
	t.w.Flush()
}

// Close writes the buffered results and closes the output.
func (t *Timer) Close() error {
	if t == nil {
		return nil
	}
	t.flush()
	err := t.w.Flush()
	if t.c != nil {
		if cerr := t.c.Close(); err == nil {
			err = cerr
		}
		t.c = nil
	}
	return err
}

// Release deletes the timer queries. The context must be current.
func (t *Timer) Release() {
	if t == nil || t.mode != GPU {
		return
	}
	for i := range t.ring {
		for _, st := range []*stamp{&t.ring[i].before, &t.ring[i].after} {
			if st.query.Valid() {
				t.gpu.DeleteQuery(st.query)
				st.query = gl.Query{}
			}
		}
	}
}
