// SPDX-License-Identifier: Unlicense OR MIT

// Package omission paces buffer swaps by submitting only every Nth swap
// the application requests. In adaptive mode N follows the measured
// frame cost so that submitted swaps are at least a minimum period apart.
package omission

import (
	"fmt"
	"time"

	"glxhook.org/internal/gl"
)

// HistorySize is the capacity of the sample history.
const HistorySize = 16

type Metric uint8

const (
	MetricCPU Metric = iota
	MetricGPU
	MetricMax
)

func ParseMetric(s string) Metric {
	switch s {
	case "gpu":
		return MetricGPU
	case "max":
		return MetricMax
	default:
		return MetricCPU
	}
}

// Skip is the action taken in place of an omitted swap.
type Skip uint8

const (
	SkipNone Skip = iota
	SkipFlush
	SkipFinish
)

func ParseSkip(s string) Skip {
	switch s {
	case "none":
		return SkipNone
	case "finish":
		return SkipFinish
	default:
		return SkipFlush
	}
}

type Config struct {
	// Interval submits every Interval-th swap in fixed mode.
	Interval int
	// MinPeriod enables adaptive mode.
	MinPeriod time.Duration
	// Min and Max bound the adaptive interval.
	Min, Max int
	// Window is the number of samples averaged, at most HistorySize.
	Window int
	Metric Metric
	Skip   Skip
}

func (c Config) Enabled() bool {
	return c.Interval > 1 || c.MinPeriod > 0
}

func (c Config) Adaptive() bool {
	return c.MinPeriod > 0
}

func (c Config) String() string {
	if c.Adaptive() {
		return fmt.Sprintf("adaptive, min period %v, interval [%d,%d], window %d", c.MinPeriod, c.Min, c.Max, c.Window)
	}
	return fmt.Sprintf("every %d swaps", c.Interval)
}

// GPU measures the GPU cost of frames with timestamp queries.
type GPU interface {
	HasTimerQuery() bool
	GenQuery() gl.Query
	DeleteQuery(q gl.Query)
	QueryCounter(q gl.Query)
	QueryResultAvailable(q gl.Query) bool
	QueryResult(q gl.Query) uint64
}

// Flusher receives the replacement for an omitted swap.
type Flusher interface {
	Flush()
	Finish()
}

type sample struct {
	cpu, gpu int64
	interval int
}

// Controller is the per context omission controller. It must only be
// used while its context is current.
type Controller struct {
	cfg      Config
	gpu      GPU
	now      func() int64
	calls    int
	interval int

	history [HistorySize]sample
	count   int
	head    int

	lastCPU int64
	started bool
	// GPU timestamps are read one candidate late.
	queries  [2]gl.Query
	qpos     int
	lastGPU  int64
	gpuValid bool
}

// New creates a Controller. A nil gpu defers the timer query probe to
// Probe.
func New(cfg Config, gpu GPU, now func() int64) *Controller {
	if cfg.Interval < 1 {
		cfg.Interval = 1
	}
	if cfg.Min < 1 {
		cfg.Min = 1
	}
	if cfg.Max < cfg.Min {
		cfg.Max = cfg.Min
	}
	if cfg.Window < 1 {
		cfg.Window = 1
	}
	if cfg.Window > HistorySize {
		cfg.Window = HistorySize
	}
	c := &Controller{
		cfg:      cfg,
		now:      now,
		interval: cfg.Interval,
	}
	if cfg.Adaptive() {
		c.interval = cfg.Min
	}
	if gpu != nil {
		c.Probe(gpu)
	}
	return c
}

// Probe looks for timer queries on the current context. Without them
// the GPU metric falls back to CPU.
func (c *Controller) Probe(gpu GPU) {
	if c == nil {
		return
	}
	if gpu == nil || !gpu.HasTimerQuery() {
		c.gpu = nil
		c.cfg.Metric = MetricCPU
		return
	}
	c.gpu = gpu
}

// Interval returns the current submit interval.
func (c *Controller) Interval() int {
	if c == nil {
		return 1
	}
	return c.interval
}

// Candidate is called for every swap the application requests and
// reports whether the swap is to be submitted.
func (c *Controller) Candidate() bool {
	if c == nil {
		return true
	}
	if c.cfg.Adaptive() {
		c.adapt()
	}
	c.calls++
	if c.calls >= c.interval {
		c.calls = 0
		return true
	}
	return false
}

// Omit performs the configured replacement for a skipped swap.
func (c *Controller) Omit(f Flusher) {
	if c == nil || f == nil {
		return
	}
	switch c.cfg.Skip {
	case SkipFlush:
		f.Flush()
	case SkipFinish:
		f.Finish()
	}
}

func (c *Controller) adapt() {
	cpuNow := c.now()
	gpuNow, gpuOK := c.gpuStamp()
	if !c.started {
		c.started = true
		c.lastCPU = cpuNow
		c.lastGPU, c.gpuValid = gpuNow, gpuOK
		return
	}
	s := sample{cpu: cpuNow - c.lastCPU}
	if gpuOK && c.gpuValid {
		s.gpu = gpuNow - c.lastGPU
	}
	c.lastCPU = cpuNow
	c.lastGPU, c.gpuValid = gpuNow, gpuOK

	cost := c.average(c.metric, &s)
	n := c.cfg.Min
	if cost > 0 {
		n = int(int64(c.cfg.MinPeriod) / cost)
	}
	if n < c.cfg.Min {
		n = c.cfg.Min
	}
	if n > c.cfg.Max {
		n = c.cfg.Max
	}
	s.interval = n
	c.push(s)
	// Smooth over the intervals chosen recently.
	avg := c.average(func(s sample) int64 { return int64(s.interval) }, nil)
	c.interval = int(avg)
	if c.interval < c.cfg.Min {
		c.interval = c.cfg.Min
	}
}

func (c *Controller) metric(s sample) int64 {
	switch c.cfg.Metric {
	case MetricGPU:
		return s.gpu
	case MetricMax:
		if s.gpu > s.cpu {
			return s.gpu
		}
	}
	return s.cpu
}

func (c *Controller) push(s sample) {
	c.history[c.head] = s
	c.head = (c.head + 1) % HistorySize
	if c.count < HistorySize {
		c.count++
	}
}

// average returns the rounded mean of f over the newest Window entries
// of the history, with extra, if not nil, counted as the newest entry.
func (c *Controller) average(f func(sample) int64, extra *sample) int64 {
	var sum, n int64
	if extra != nil {
		sum, n = f(*extra), 1
	}
	for i := 0; i < c.count && n < int64(c.cfg.Window); i++ {
		idx := (c.head - 1 - i + HistorySize) % HistorySize
		sum += f(c.history[idx])
		n++
	}
	if n == 0 {
		return 0
	}
	return (sum + n/2) / n
}

// gpuStamp issues a timestamp query and returns the result of the
// previous one.
func (c *Controller) gpuStamp() (int64, bool) {
	if c.gpu == nil || c.cfg.Metric == MetricCPU {
		return 0, false
	}
	prev := c.queries[c.qpos^1]
	q := &c.queries[c.qpos]
	if !q.Valid() {
		*q = c.gpu.GenQuery()
	}
	c.gpu.QueryCounter(*q)
	c.qpos ^= 1
	if !prev.Valid() || !c.gpu.QueryResultAvailable(prev) {
		return 0, false
	}
	return int64(c.gpu.QueryResult(prev)), true
}

// Release deletes the timestamp queries. The context must be current.
func (c *Controller) Release() {
	if c == nil || c.gpu == nil {
		return
	}
	for i, q := range c.queries {
		if q.Valid() {
			c.gpu.DeleteQuery(q)
			c.queries[i] = gl.Query{}
		}
	}
}
