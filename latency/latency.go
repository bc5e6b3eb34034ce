// SPDX-License-Identifier: Unlicense OR MIT

// Package latency bounds how many frames the application may queue
// ahead of the GPU.
package latency

import (
	"fmt"
	"time"

	"glxhook.org/internal/gl"
)

// Mode values below 1; positive modes are fence ring sizes.
const (
	Disabled     = -2
	FinishBefore = -1
	FinishAfter  = 0
)

type Config struct {
	// Mode is Disabled, FinishBefore, FinishAfter or the number of
	// frames allowed in flight.
	Mode int
	// ManualWait polls the fence instead of a single blocking wait.
	ManualWait bool
	// Timeout bounds the wait for a fence. Zero waits for up to a second.
	Timeout time.Duration
	// PollSleep is the sleep between polls in manual wait mode.
	PollSleep time.Duration
}

func (c Config) String() string {
	switch {
	case c.Mode <= Disabled:
		return "disabled"
	case c.Mode == FinishBefore:
		return "finish before swap"
	case c.Mode == FinishAfter:
		return "finish after swap"
	case c.ManualWait:
		return fmt.Sprintf("%d frames, polling every %v", c.Mode, c.PollSleep)
	default:
		return fmt.Sprintf("%d frames", c.Mode)
	}
}

// Fences is the GL sync object interface.
type Fences interface {
	HasSync() bool
	FenceSync() gl.Sync
	DeleteSync(s gl.Sync)
	ClientWaitSync(s gl.Sync, flags gl.Bitfield, timeout uint64) gl.Enum
	Finish()
}

// Limiter is the per context latency limiter. It must only be used
// while its context is current.
type Limiter struct {
	cfg    Config
	gl     Fences
	ring   []gl.Sync
	pos    int
	sleep  func(time.Duration)
	now    func() time.Time
	waited int
}

// New creates a Limiter. A fence ring degrades to FinishBefore if f
// lacks sync objects. It returns nil when limiting is disabled.
func New(cfg Config, f Fences) *Limiter {
	if cfg.Mode <= Disabled || f == nil {
		return nil
	}
	if cfg.Mode > 0 && !f.HasSync() {
		cfg.Mode = FinishBefore
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	l := &Limiter{
		cfg:   cfg,
		gl:    f,
		sleep: time.Sleep,
		now:   time.Now,
	}
	if cfg.Mode > 0 {
		l.ring = make([]gl.Sync, cfg.Mode)
	}
	return l
}

func (l *Limiter) Mode() int {
	if l == nil {
		return Disabled
	}
	return l.cfg.Mode
}

// BeforeSwap blocks until at most Mode-1 earlier swaps are still
// pending on the GPU.
func (l *Limiter) BeforeSwap() {
	if l == nil {
		return
	}
	switch {
	case l.cfg.Mode == FinishBefore:
		l.gl.Finish()
	case l.cfg.Mode > 0:
		if s := l.ring[l.pos]; s.Valid() {
			l.wait(s)
		}
	}
}

// AfterSwap replaces the fence of the current slot with one covering
// the swap just issued.
func (l *Limiter) AfterSwap() {
	if l == nil {
		return
	}
	switch {
	case l.cfg.Mode == FinishAfter:
		l.gl.Finish()
	case l.cfg.Mode > 0:
		if s := l.ring[l.pos]; s.Valid() {
			l.gl.DeleteSync(s)
		}
		l.ring[l.pos] = l.gl.FenceSync()
		l.pos = (l.pos + 1) % len(l.ring)
	}
}

func signaled(r gl.Enum) bool {
	return r == gl.ALREADY_SIGNALED || r == gl.CONDITION_SATISFIED
}

// wait returns when s is signaled, the wait failed or the timeout
// expired; all three let the swap proceed.
func (l *Limiter) wait(s gl.Sync) {
	l.waited++
	if !l.cfg.ManualWait {
		l.gl.ClientWaitSync(s, gl.SYNC_FLUSH_COMMANDS_BIT, uint64(l.cfg.Timeout))
		return
	}
	deadline := l.now().Add(l.cfg.Timeout)
	flags := gl.Bitfield(gl.SYNC_FLUSH_COMMANDS_BIT)
	for {
		r := l.gl.ClientWaitSync(s, flags, 0)
		if signaled(r) || r == gl.WAIT_FAILED {
			return
		}
		flags = 0
		if !l.now().Before(deadline) {
			return
		}
		if l.cfg.PollSleep > 0 {
			l.sleep(l.cfg.PollSleep)
		}
	}
}

// Release deletes all fences. The context must be current.
func (l *Limiter) Release() {
	if l == nil {
		return
	}
	for i, s := range l.ring {
		if s.Valid() {
			l.gl.DeleteSync(s)
			l.ring[i] = gl.Sync{}
		}
	}
}
