// SPDX-License-Identifier: Unlicense OR MIT

package hook

import (
	"time"

	"glxhook.org/ctxattr"
	"glxhook.org/frametime"
	"glxhook.org/internal/env"
	"glxhook.org/internal/log"
	"glxhook.org/latency"
	"glxhook.org/omission"
	"glxhook.org/swapinterval"
)

// Config is the process wide configuration, read once from the
// environment.
type Config struct {
	Swap swapinterval.Policy
	// InjectSwapInterval is set at the first bind of every context
	// unless it is negative.
	InjectSwapInterval int
	SwapSleep          time.Duration

	DebugOutput       bool
	InjectDebugOutput bool

	Frametime     frametime.Config
	FrametimeFile string

	Latency  latency.Config
	Omission omission.Config
	Override ctxattr.Override

	// LibGL is loaded explicitly for symbols the default search misses.
	LibGL      string
	HookDlsym  bool
	HookDlvsym bool
}

// ConfigFromEnv reads every GH_* variable. Malformed values are logged
// and replaced by their defaults.
func ConfigFromEnv(src env.Source, l *log.Logger) Config {
	c := Config{
		Swap:               swapinterval.Parse(src("GH_SWAP_MODE"), src("GH_SWAP_TEAR")),
		InjectSwapInterval: src.Int("GH_INJECT_SWAPINTERVAL", -1),
		SwapSleep:          src.Micros("GH_SWAP_SLEEP_USECS", 0),

		DebugOutput:       src.Bool("GH_GL_DEBUG_OUTPUT", false),
		InjectDebugOutput: src.Bool("GH_GL_INJECT_DEBUG_OUTPUT", false),

		Frametime: frametime.Config{
			Mode:   frametime.Mode(src.Int("GH_FRAMETIME", 0)),
			Delay:  src.Int("GH_FRAMETIME_DELAY", 10),
			Frames: src.Int("GH_FRAMETIME_FRAMES", 1000),
		},
		FrametimeFile: src.String("GH_FRAMETIME_FILE", "glx_hook_frametimes-ctx%c.csv"),

		Latency: latency.Config{
			Mode:       src.Int("GH_LATENCY", latency.Disabled),
			ManualWait: src.Bool("GH_LATENCY_MANUAL_WAIT", false),
			Timeout:    src.Nanos("GH_LATENCY_WAIT_TIMEOUT", time.Second),
			PollSleep:  src.Micros("GH_LATENCY_WAIT_USECS", 0),
		},

		Omission: omission.Config{
			Interval:  src.Int("GH_SWAPBUFFERS", 1),
			MinPeriod: src.Micros("GH_MIN_SWAP_PERIOD", 0),
			Min:       src.Int("GH_SWAPBUFFERS_MIN", 1),
			Max:       src.Int("GH_SWAPBUFFERS_MAX", 16),
			Window:    src.Int("GH_SWAPBUFFERS_WINDOW", 4),
			Metric:    omission.ParseMetric(src("GH_SWAPBUFFERS_METRIC")),
			Skip:      omission.ParseSkip(src("GH_SWAPBUFFERS_SKIP")),
		},

		LibGL:      src.String("GH_LIBGL_FILE", "libGL.so.1"),
		HookDlsym:  src.Bool("GH_HOOK_DLSYM_DYNAMICALLY", false),
		HookDlvsym: src.Bool("GH_HOOK_DLVSYM_DYNAMICALLY", false),
	}
	if c.Frametime.Mode > frametime.GPU {
		l.Warnf("invalid GH_FRAMETIME %d, frame timing disabled", c.Frametime.Mode)
		c.Frametime.Mode = frametime.None
	}
	if c.Latency.Mode < latency.Disabled {
		c.Latency.Mode = latency.Disabled
	}
	o, err := ctxattr.FromEnv(src)
	if err != nil {
		l.Warnf("context override: %v", err)
	}
	c.Override = o
	return c
}

// InterceptSwap reports whether any feature needs the buffer swap hook.
func (c Config) InterceptSwap() bool {
	return c.Frametime.Mode != frametime.None ||
		c.Latency.Mode != latency.Disabled ||
		c.Omission.Enabled() ||
		c.SwapSleep > 0
}

// Intercepted decides whether the named entry point is hooked.
func (c Config) Intercepted(name string) bool {
	switch name {
	case "dlsym":
		return c.HookDlsym
	case "dlvsym":
		return c.HookDlvsym
	case "glXSwapBuffers":
		return c.InterceptSwap()
	}
	return true
}

func (c Config) log(l *log.Logger) {
	l.Infof("swap interval policy: %v", c.Swap)
	if c.InjectSwapInterval >= 0 {
		l.Infof("injecting swap interval %d", c.InjectSwapInterval)
	}
	if c.Frametime.Mode != frametime.None {
		l.Infof("frame timing: %v, delay %d, batch %d, output %q", c.Frametime.Mode, c.Frametime.Delay, c.Frametime.Frames, c.FrametimeFile)
	}
	if c.Latency.Mode != latency.Disabled {
		l.Infof("latency limiter: %v", c.Latency)
	}
	if c.Omission.Enabled() {
		l.Infof("swap omission: %v", c.Omission)
	}
	if c.Override.Active() {
		l.Infof("context override: %+v", c.Override)
	}
}
