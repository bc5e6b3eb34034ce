// SPDX-License-Identifier: Unlicense OR MIT

// Package hook implements the behavior of the intercepted GLX and GL
// entry points on top of the real implementation.
package hook

import (
	"io"
	"os"
	"sync"
	"time"

	"glxhook.org/frametime"
	"glxhook.org/glctx"
	"glxhook.org/internal/env"
	"glxhook.org/internal/gl"
	"glxhook.org/internal/log"
	"glxhook.org/latency"
	"glxhook.org/omission"
)

// GLX calls the real GLX implementation. Methods of unavailable entry
// points return zero values; Available reports which are present.
type GLX interface {
	Available(name string) bool

	CreateContext(dpy gl.Display, vis gl.VisualInfo, share gl.Context, direct bool) gl.Context
	CreateNewContext(dpy gl.Display, cfg gl.FBConfig, renderType int32, share gl.Context, direct bool) gl.Context
	CreateContextAttribsARB(dpy gl.Display, cfg gl.FBConfig, share gl.Context, direct bool, attribs []int32) gl.Context
	ImportContextEXT(dpy gl.Display, id uintptr) gl.Context
	CreateContextWithConfigSGIX(dpy gl.Display, cfg gl.FBConfig, renderType int32, share gl.Context, direct bool) gl.Context

	DestroyContext(dpy gl.Display, ctx gl.Context)
	FreeContextEXT(dpy gl.Display, ctx gl.Context)

	MakeCurrent(dpy gl.Display, drawable gl.Drawable, ctx gl.Context) bool
	MakeContextCurrent(dpy gl.Display, draw, read gl.Drawable, ctx gl.Context) bool
	MakeCurrentReadSGI(dpy gl.Display, draw, read gl.Drawable, ctx gl.Context) bool

	SwapIntervalEXT(dpy gl.Display, drawable gl.Drawable, interval int)
	SwapIntervalSGI(interval int) int
	SwapIntervalMESA(interval int) int
	SwapBuffers(dpy gl.Display, drawable gl.Drawable)

	// VisualID returns the screen and visual id of an XVisualInfo.
	VisualID(vis gl.VisualInfo) (screen int, id int32)
	FBConfigs(dpy gl.Display, screen int) []gl.FBConfig
	FBConfigAttrib(dpy gl.Display, cfg gl.FBConfig, attrib int32) (int32, bool)

	// DebugMessageCallback registers cb through the named registration
	// entry point.
	DebugMessageCallback(name string, cb, userParam uintptr)
	// DebugLogger is the address of the callback delivering messages to
	// Shim.DebugMessage.
	DebugLogger() uintptr

	TexParameteri(target, pname gl.Enum, param int32)
	TexParameterf(target, pname gl.Enum, param float32)

	// GL returns the GPU side functions, or nil if none could be
	// resolved. It is called with a context current.
	GL() GL
}

// GL is the set of GPU side functions used by the per context
// components.
type GL interface {
	frametime.Queries
	latency.Fences
	QueryResultAvailable(q gl.Query) bool
	Flush()
	Enable(cap gl.Enum)
}

// Shim holds the process wide state behind the intercepted entry points.
type Shim struct {
	Log      *log.Logger
	Contexts *glctx.Registry

	glx GLX
	env env.Source

	cfgOnce sync.Once
	cfg     Config

	// Replaceable in tests.
	now    func() int64
	sleep  func(time.Duration)
	create func(name string) (io.WriteCloser, error)
}

func New(glx GLX, src env.Source, l *log.Logger) *Shim {
	return &Shim{
		Log:      l,
		Contexts: glctx.NewRegistry(),
		glx:      glx,
		env:      src,
		now:      func() int64 { return time.Now().UnixNano() },
		sleep:    time.Sleep,
		create: func(name string) (io.WriteCloser, error) {
			return os.Create(name)
		},
	}
}

// Config returns the configuration, reading it on first use.
func (s *Shim) Config() Config {
	s.cfgOnce.Do(func() {
		s.cfg = ConfigFromEnv(s.env, s.Log)
		s.cfg.log(s.Log)
	})
	return s.cfg
}

// Intercepted is the dispatch gate of the interception table.
func (s *Shim) Intercepted(name string) bool {
	return s.Config().Intercepted(name)
}

// firstBind initializes the per context components of c, which has
// just become current for the first time.
func (s *Shim) firstBind(c *glctx.Context) {
	cfg := s.Config()
	g := s.glx.GL()

	if cfg.Frametime.Mode != frametime.None {
		name := env.Expand(cfg.FrametimeFile, c.ID)
		if f, err := s.create(name); err != nil {
			s.Log.Warnf("context %d: frame timing disabled: %v", c.ID, err)
		} else {
			c.Timer = frametime.New(cfg.Frametime, g, s.now, f)
			s.Log.Infof("context %d: frame timing %v to %s", c.ID, c.Timer.Mode(), name)
		}
	}
	if cfg.Latency.Mode != latency.Disabled {
		c.Limiter = latency.New(cfg.Latency, g)
		s.Log.Infof("context %d: latency limiter mode %d", c.ID, c.Limiter.Mode())
	}
	if cfg.Omission.Enabled() {
		c.Omission = omission.New(cfg.Omission, nil, s.now)
		c.Omission.Probe(g)
	}
	if cfg.InjectSwapInterval >= 0 {
		s.injectSwapInterval(c, cfg.InjectSwapInterval)
	}
	if cfg.InjectDebugOutput {
		s.injectDebugOutput(c, g)
	}
}
