// SPDX-License-Identifier: Unlicense OR MIT

package hook

import (
	"glxhook.org/glctx"
	"glxhook.org/internal/gl"
	"glxhook.org/internal/log"
)

// debugRegistrars are the registration entry points sharing the
// GLDEBUGPROC signature, in order of preference.
var debugRegistrars = []string{
	"glDebugMessageCallback",
	"glDebugMessageCallbackARB",
	"glDebugMessageCallbackKHR",
}

// DebugMessageCallback handles an application registering a debug
// message callback through name. With debug output interception, or
// after the logger was injected, the application callback is recorded
// and chained behind the logger.
func (s *Shim) DebugMessageCallback(name string, cb, userParam uintptr) {
	c := s.Contexts.Current()
	if name == "glDebugMessageCallbackAMD" || c == nil ||
		!(s.Config().DebugOutput || c.Has(glctx.DebugInjected)) {
		s.glx.DebugMessageCallback(name, cb, userParam)
		return
	}
	c.InterceptDebug(glctx.DebugCallback{Func: cb, UserParam: userParam})
	s.Log.Infof("context %d: intercepted debug callback %#x via %s", c.ID, cb, name)
	s.glx.DebugMessageCallback(name, s.glx.DebugLogger(), uintptr(c.Handle))
}

// injectDebugOutput registers the logger on a newly bound context and
// enables synchronous debug output.
func (s *Shim) injectDebugOutput(c *glctx.Context, g GL) {
	for _, name := range debugRegistrars {
		if !s.glx.Available(name) {
			continue
		}
		s.glx.DebugMessageCallback(name, s.glx.DebugLogger(), uintptr(c.Handle))
		if g != nil {
			g.Enable(gl.DEBUG_OUTPUT)
			g.Enable(gl.DEBUG_OUTPUT_SYNCHRONOUS)
		}
		c.Set(glctx.DebugInjected)
		s.Log.Infof("context %d: injected debug output via %s", c.ID, name)
		return
	}
	s.Log.Warnf("context %d: cannot inject debug output: no debug callback registration", c.ID)
}

// DebugMessage logs a message delivered to the logger for the context
// with handle h. It returns the application callback to forward the
// message to, if any.
func (s *Shim) DebugMessage(h gl.Context, m gl.DebugMessage) (cb, userParam uintptr) {
	level := log.Info
	switch m.Severity {
	case gl.DEBUG_SEVERITY_HIGH:
		level = log.Error
	case gl.DEBUG_SEVERITY_MEDIUM:
		level = log.Warning
	case gl.DEBUG_SEVERITY_NOTIFICATION:
		level = log.Debug
	}
	c := s.Contexts.Lookup(h)
	if c == nil {
		s.Log.Printf(level, "GL debug (unknown context %#x): %v", h, m)
		return 0, 0
	}
	s.Log.Printf(level, "GL debug (context %d): %v", c.ID, m)
	app, ok := c.Debug()
	if !ok {
		return 0, 0
	}
	return app.Func, app.UserParam
}

func (s *Shim) TexParameteri(target, pname gl.Enum, param int32) {
	s.glx.TexParameteri(target, pname, param)
}

func (s *Shim) TexParameterf(target, pname gl.Enum, param float32) {
	s.glx.TexParameterf(target, pname, param)
}
