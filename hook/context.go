// SPDX-License-Identifier: Unlicense OR MIT

package hook

import (
	"glxhook.org/ctxattr"
	"glxhook.org/internal/gl"
)

func (s *Shim) created(dpy gl.Display, h gl.Context, via string) gl.Context {
	if h == 0 {
		s.Log.Debugf("%s failed", via)
		return 0
	}
	c, created, err := s.Contexts.Create(dpy, h)
	switch {
	case err != nil:
		s.Log.Warnf("%s: %v", via, err)
	case !created:
		s.Log.Warnf("%s returned context %#x which is already registered as %d", via, h, c.ID)
	default:
		s.Log.Infof("created context %d (%#x) via %s", c.ID, h, via)
	}
	return h
}

// override creates a context with the configured attribute overrides.
// ok is false if the override could not be applied and the unmodified
// creation call should be made instead.
func (s *Shim) override(dpy gl.Display, cfg gl.FBConfig, share gl.Context, direct bool, attribs []int32) (h gl.Context, ok bool) {
	o := s.Config().Override
	if !o.Active() {
		return 0, false
	}
	if cfg == 0 {
		s.Log.Warnf("cannot override context attributes: no framebuffer config")
		return 0, false
	}
	if !s.glx.Available("glXCreateContextAttribsARB") {
		s.Log.Warnf("cannot override context attributes: glXCreateContextAttribsARB unavailable")
		return 0, false
	}
	forced := o.Apply(attribs)
	s.Log.Infof("overriding context attributes %s with %s", ctxattr.Format(attribs), ctxattr.Format(forced))
	return s.glx.CreateContextAttribsARB(dpy, cfg, share, direct, forced), true
}

// fbConfig finds the framebuffer config matching a visual.
func (s *Shim) fbConfig(dpy gl.Display, vis gl.VisualInfo) (gl.FBConfig, bool) {
	if vis == 0 || !s.glx.Available("glXGetFBConfigs") || !s.glx.Available("glXGetFBConfigAttrib") {
		return 0, false
	}
	screen, id := s.glx.VisualID(vis)
	for _, cfg := range s.glx.FBConfigs(dpy, screen) {
		if v, ok := s.glx.FBConfigAttrib(dpy, cfg, gl.GLX_VISUAL_ID); ok && v == id {
			return cfg, true
		}
	}
	s.Log.Warnf("no framebuffer config for visual %#x", id)
	return 0, false
}

func renderAttribs(renderType int32) []int32 {
	if renderType == 0 || renderType == gl.GLX_RGBA_TYPE {
		return nil
	}
	return []int32{gl.GLX_RENDER_TYPE, renderType}
}

func (s *Shim) CreateContext(dpy gl.Display, vis gl.VisualInfo, share gl.Context, direct bool) gl.Context {
	if s.Config().Override.Active() {
		if cfg, ok := s.fbConfig(dpy, vis); ok {
			if h, ok := s.override(dpy, cfg, share, direct, nil); ok {
				return s.created(dpy, h, "glXCreateContext")
			}
		}
	}
	return s.created(dpy, s.glx.CreateContext(dpy, vis, share, direct), "glXCreateContext")
}

func (s *Shim) CreateNewContext(dpy gl.Display, cfg gl.FBConfig, renderType int32, share gl.Context, direct bool) gl.Context {
	if h, ok := s.override(dpy, cfg, share, direct, renderAttribs(renderType)); ok {
		return s.created(dpy, h, "glXCreateNewContext")
	}
	return s.created(dpy, s.glx.CreateNewContext(dpy, cfg, renderType, share, direct), "glXCreateNewContext")
}

func (s *Shim) CreateContextAttribsARB(dpy gl.Display, cfg gl.FBConfig, share gl.Context, direct bool, attribs []int32) gl.Context {
	if h, ok := s.override(dpy, cfg, share, direct, attribs); ok {
		return s.created(dpy, h, "glXCreateContextAttribsARB")
	}
	return s.created(dpy, s.glx.CreateContextAttribsARB(dpy, cfg, share, direct, attribs), "glXCreateContextAttribsARB")
}

func (s *Shim) ImportContextEXT(dpy gl.Display, id uintptr) gl.Context {
	return s.created(dpy, s.glx.ImportContextEXT(dpy, id), "glXImportContextEXT")
}

func (s *Shim) CreateContextWithConfigSGIX(dpy gl.Display, cfg gl.FBConfig, renderType int32, share gl.Context, direct bool) gl.Context {
	if h, ok := s.override(dpy, cfg, share, direct, renderAttribs(renderType)); ok {
		return s.created(dpy, h, "glXCreateContextWithConfigSGIX")
	}
	return s.created(dpy, s.glx.CreateContextWithConfigSGIX(dpy, cfg, renderType, share, direct), "glXCreateContextWithConfigSGIX")
}

// destroy releases the record of h. It runs before the real call so
// that GL objects of a current context can still be deleted.
func (s *Shim) destroy(h gl.Context, via string) {
	c, current, err := s.Contexts.Destroy(h)
	if err != nil {
		s.Log.Warnf("%s(%#x): %v", via, h, err)
		return
	}
	if err := c.Release(current); err != nil {
		s.Log.Warnf("context %d: %v", c.ID, err)
	}
	s.Log.Infof("destroyed context %d (%#x)", c.ID, h)
}

func (s *Shim) DestroyContext(dpy gl.Display, h gl.Context) {
	s.destroy(h, "glXDestroyContext")
	s.glx.DestroyContext(dpy, h)
}

func (s *Shim) FreeContextEXT(dpy gl.Display, h gl.Context) {
	s.destroy(h, "glXFreeContextEXT")
	s.glx.FreeContextEXT(dpy, h)
}

// bind updates the registry after a successful real make current call.
func (s *Shim) bind(h gl.Context, draw, read gl.Drawable, via string) {
	c, first, err := s.Contexts.Bind(h, draw, read)
	if err != nil {
		s.Log.Warnf("%s(%#x): %v", via, h, err)
		return
	}
	if c == nil {
		s.Log.Debugf("%s: unbound", via)
		return
	}
	s.Log.Debugf("%s: context %d, draw %#x, read %#x", via, c.ID, draw, read)
	if first {
		s.firstBind(c)
	}
}

func (s *Shim) MakeCurrent(dpy gl.Display, drawable gl.Drawable, h gl.Context) bool {
	ok := s.glx.MakeCurrent(dpy, drawable, h)
	if ok {
		s.bind(h, drawable, drawable, "glXMakeCurrent")
	}
	return ok
}

func (s *Shim) MakeContextCurrent(dpy gl.Display, draw, read gl.Drawable, h gl.Context) bool {
	ok := s.glx.MakeContextCurrent(dpy, draw, read, h)
	if ok {
		s.bind(h, draw, read, "glXMakeContextCurrent")
	}
	return ok
}

func (s *Shim) MakeCurrentReadSGI(dpy gl.Display, draw, read gl.Drawable, h gl.Context) bool {
	ok := s.glx.MakeCurrentReadSGI(dpy, draw, read, h)
	if ok {
		s.bind(h, draw, read, "glXMakeCurrentReadSGI")
	}
	return ok
}
