// SPDX-License-Identifier: Unlicense OR MIT

package hook

import (
	"glxhook.org/glctx"
	"glxhook.org/internal/gl"
)

// interval applies the swap interval policy. ok is false if the call is
// to be skipped.
func (s *Shim) interval(requested int, via string) (int, bool) {
	v, ok := s.Config().Swap.Apply(requested)
	if !ok {
		s.Log.Infof("%s(%d): ignored", via, requested)
		return 0, false
	}
	s.Log.Infof("%s(%d): using %d", via, requested, v)
	return v, true
}

func (s *Shim) SwapIntervalEXT(dpy gl.Display, drawable gl.Drawable, interval int) {
	if v, ok := s.interval(interval, "glXSwapIntervalEXT"); ok {
		s.glx.SwapIntervalEXT(dpy, drawable, v)
	}
}

func (s *Shim) SwapIntervalSGI(interval int) int {
	v, ok := s.interval(interval, "glXSwapIntervalSGI")
	if !ok {
		return 0
	}
	return s.glx.SwapIntervalSGI(v)
}

func (s *Shim) SwapIntervalMESA(interval int) int {
	v, ok := s.interval(interval, "glXSwapIntervalMESA")
	if !ok {
		return 0
	}
	return s.glx.SwapIntervalMESA(v)
}

// injectSwapInterval sets the interval of a newly bound context through
// the first available extension. The value bypasses the policy.
func (s *Shim) injectSwapInterval(c *glctx.Context, interval int) {
	switch {
	case s.glx.Available("glXSwapIntervalEXT"):
		s.glx.SwapIntervalEXT(c.Display, c.Draw, interval)
	case s.glx.Available("glXSwapIntervalSGI") && interval > 0:
		s.glx.SwapIntervalSGI(interval)
	case s.glx.Available("glXSwapIntervalMESA"):
		s.glx.SwapIntervalMESA(interval)
	default:
		s.Log.Warnf("context %d: cannot inject swap interval %d: no swap interval extension", c.ID, interval)
		return
	}
	c.SwapInterval = interval
	s.Log.Infof("context %d: injected swap interval %d", c.ID, interval)
}

// SwapBuffers runs the swap through the omission controller, latency
// limiter and frame timer of the current context.
func (s *Shim) SwapBuffers(dpy gl.Display, drawable gl.Drawable) {
	c := s.Contexts.Current()
	if c == nil {
		s.Log.Warnf("glXSwapBuffers(%#x) without a current context", drawable)
		s.glx.SwapBuffers(dpy, drawable)
		return
	}
	if !c.Omission.Candidate() {
		if g := s.glx.GL(); g != nil {
			c.Omission.Omit(g)
		}
		return
	}
	c.Limiter.BeforeSwap()
	c.Timer.BeforeSwap()
	s.glx.SwapBuffers(dpy, drawable)
	c.Timer.AfterSwap()
	c.Limiter.AfterSwap()
	if d := s.Config().SwapSleep; d > 0 {
		s.sleep(d)
	}
}
