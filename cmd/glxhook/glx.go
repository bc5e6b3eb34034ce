// SPDX-License-Identifier: Unlicense OR MIT

package main

/*
#cgo CFLAGS: -Werror
#cgo freebsd CFLAGS: -I/usr/local/include

#include <stdint.h>
#include <stdlib.h>
#include <GL/gl.h>
#include <GL/glx.h>

typedef void (*gh_proc)(void);

uintptr_t gh_debug_logger_address(void);
typedef void (*gh_debug_proc)(GLenum, GLenum, GLuint, GLenum, GLsizei, const GLchar *, const void *);
typedef void (*gh_debug_proc_amd)(GLuint, GLenum, GLenum, GLsizei, const GLchar *, void *);

static uintptr_t gh_call_create_context(uintptr_t fn, uintptr_t dpy, uintptr_t vis, uintptr_t share, int direct) {
	return (uintptr_t)((GLXContext (*)(Display *, XVisualInfo *, GLXContext, Bool))fn)((Display *)dpy, (XVisualInfo *)vis, (GLXContext)share, direct);
}

static uintptr_t gh_call_create_new_context(uintptr_t fn, uintptr_t dpy, uintptr_t cfg, int renderType, uintptr_t share, int direct) {
	return (uintptr_t)((GLXContext (*)(Display *, GLXFBConfig, int, GLXContext, Bool))fn)((Display *)dpy, (GLXFBConfig)cfg, renderType, (GLXContext)share, direct);
}

static uintptr_t gh_call_create_context_attribs(uintptr_t fn, uintptr_t dpy, uintptr_t cfg, uintptr_t share, int direct, const int *attribs) {
	return (uintptr_t)((GLXContext (*)(Display *, GLXFBConfig, GLXContext, Bool, const int *))fn)((Display *)dpy, (GLXFBConfig)cfg, (GLXContext)share, direct, attribs);
}

static uintptr_t gh_call_import_context(uintptr_t fn, uintptr_t dpy, uintptr_t id) {
	return (uintptr_t)((GLXContext (*)(Display *, GLXContextID))fn)((Display *)dpy, (GLXContextID)id);
}

static void gh_call_destroy_context(uintptr_t fn, uintptr_t dpy, uintptr_t ctx) {
	((void (*)(Display *, GLXContext))fn)((Display *)dpy, (GLXContext)ctx);
}

static int gh_call_make_current(uintptr_t fn, uintptr_t dpy, uintptr_t drawable, uintptr_t ctx) {
	return ((Bool (*)(Display *, GLXDrawable, GLXContext))fn)((Display *)dpy, (GLXDrawable)drawable, (GLXContext)ctx);
}

static int gh_call_make_context_current(uintptr_t fn, uintptr_t dpy, uintptr_t draw, uintptr_t read, uintptr_t ctx) {
	return ((Bool (*)(Display *, GLXDrawable, GLXDrawable, GLXContext))fn)((Display *)dpy, (GLXDrawable)draw, (GLXDrawable)read, (GLXContext)ctx);
}

static void gh_call_swap_interval_ext(uintptr_t fn, uintptr_t dpy, uintptr_t drawable, int interval) {
	((void (*)(Display *, GLXDrawable, int))fn)((Display *)dpy, (GLXDrawable)drawable, interval);
}

static int gh_call_swap_interval(uintptr_t fn, int interval) {
	return ((int (*)(int))fn)(interval);
}

static void gh_call_swap_buffers(uintptr_t fn, uintptr_t dpy, uintptr_t drawable) {
	((void (*)(Display *, GLXDrawable))fn)((Display *)dpy, (GLXDrawable)drawable);
}

static int gh_visual_id(uintptr_t vis, int *screen) {
	XVisualInfo *vi = (XVisualInfo *)vis;
	*screen = vi->screen;
	return (int)vi->visualid;
}

static uintptr_t *gh_call_get_fbconfigs(uintptr_t fn, uintptr_t dpy, int screen, int *n) {
	return (uintptr_t *)((GLXFBConfig *(*)(Display *, int, int *))fn)((Display *)dpy, screen, n);
}

static int gh_call_get_fbconfig_attrib(uintptr_t fn, uintptr_t dpy, uintptr_t cfg, int attrib, int *value) {
	return ((int (*)(Display *, GLXFBConfig, int, int *))fn)((Display *)dpy, (GLXFBConfig)cfg, attrib, value);
}

static void gh_call_free(uintptr_t fn, void *p) {
	((int (*)(void *))fn)(p);
}

static uintptr_t gh_call_proc_address(uintptr_t fn, const char *name) {
	return (uintptr_t)((gh_proc (*)(const GLubyte *))fn)((const GLubyte *)name);
}

static uintptr_t gh_call_dlvsym(uintptr_t fn, uintptr_t handle, const char *name, const char *version) {
	return (uintptr_t)((void *(*)(void *, const char *, const char *))fn)((void *)handle, name, version);
}

static void gh_call_debug_message_callback(uintptr_t fn, uintptr_t cb, uintptr_t userParam) {
	((void (*)(gh_debug_proc, const void *))fn)((gh_debug_proc)cb, (const void *)userParam);
}

static void gh_call_debug_message_callback_amd(uintptr_t fn, uintptr_t cb, uintptr_t userParam) {
	((void (*)(gh_debug_proc_amd, void *))fn)((gh_debug_proc_amd)cb, (void *)userParam);
}

static void gh_call_tex_parameteri(uintptr_t fn, GLenum target, GLenum pname, GLint param) {
	((void (*)(GLenum, GLenum, GLint))fn)(target, pname, param);
}

static void gh_call_tex_parameterf(uintptr_t fn, GLenum target, GLenum pname, GLfloat param) {
	((void (*)(GLenum, GLenum, GLfloat))fn)(target, pname, param);
}
*/
import "C"

import (
	"sync"
	"unsafe"

	"glxhook.org/hook"
	"glxhook.org/intercept"
	"glxhook.org/internal/gl"
	"glxhook.org/internal/log"
	"glxhook.org/internal/symbol"
)

// helperSymbols are called by the shim but never intercepted.
var helperSymbols = []string{
	"glXGetFBConfigs",
	"glXGetFBConfigAttrib",
	"XFree",
}

// realGLX calls the real implementation behind the intercepted entry
// points.
type realGLX struct {
	log     *log.Logger
	table   *intercept.Table
	res     *symbol.Resolver
	helpers map[string]*symbol.Entry

	glOnce sync.Once
	gl     hook.GL
}

func newRealGLX(l *log.Logger) *realGLX {
	g := &realGLX{
		log:     l,
		helpers: make(map[string]*symbol.Entry, len(helperSymbols)),
	}
	for _, name := range helperSymbols {
		g.helpers[name] = symbol.NewEntry(name)
	}
	return g
}

func (g *realGLX) init(t *intercept.Table, res *symbol.Resolver) {
	g.table = t
	g.res = res
}

// fn returns the real definition of an intercepted entry point,
// warning if it is unavailable.
func (g *realGLX) fn(name string) C.uintptr_t {
	p := g.table.Real(name)
	if p == 0 {
		g.log.Warnf("real %s unavailable, call skipped", name)
	}
	return C.uintptr_t(p)
}

func (g *realGLX) helper(name string) uintptr {
	e := g.helpers[name]
	if e == nil {
		return 0
	}
	p, _ := e.Resolve(g.res.NextOrLibrary)
	return p
}

func (g *realGLX) Available(name string) bool {
	if _, ok := intercept.Lookup(name); ok {
		return g.table.Real(name) != 0
	}
	return g.helper(name) != 0
}

func cbool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

func (g *realGLX) CreateContext(dpy gl.Display, vis gl.VisualInfo, share gl.Context, direct bool) gl.Context {
	fn := g.fn("glXCreateContext")
	if fn == 0 {
		return 0
	}
	return gl.Context(C.gh_call_create_context(fn, C.uintptr_t(dpy), C.uintptr_t(vis), C.uintptr_t(share), cbool(direct)))
}

func (g *realGLX) CreateNewContext(dpy gl.Display, cfg gl.FBConfig, renderType int32, share gl.Context, direct bool) gl.Context {
	fn := g.fn("glXCreateNewContext")
	if fn == 0 {
		return 0
	}
	return gl.Context(C.gh_call_create_new_context(fn, C.uintptr_t(dpy), C.uintptr_t(cfg), C.int(renderType), C.uintptr_t(share), cbool(direct)))
}

func (g *realGLX) CreateContextAttribsARB(dpy gl.Display, cfg gl.FBConfig, share gl.Context, direct bool, attribs []int32) gl.Context {
	fn := g.fn("glXCreateContextAttribsARB")
	if fn == 0 {
		return 0
	}
	p := cAttribList(attribs)
	if p != nil {
		defer C.free(unsafe.Pointer(p))
	}
	return gl.Context(C.gh_call_create_context_attribs(fn, C.uintptr_t(dpy), C.uintptr_t(cfg), C.uintptr_t(share), cbool(direct), p))
}

// cAttribList copies the pairs of attribs up to any GLX_NONE name to C
// memory and terminates them with GLX_NONE. A nil list stays NULL. The
// list is copied since the callee may keep calling into Go through our
// hooks.
func cAttribList(attribs []int32) *C.int {
	if attribs == nil {
		return nil
	}
	n := 0
	for n+1 < len(attribs) && attribs[n] != gl.GLX_NONE {
		n += 2
	}
	p := (*C.int)(C.malloc(C.size_t(n+1) * C.size_t(unsafe.Sizeof(C.int(0)))))
	list := unsafe.Slice((*int32)(unsafe.Pointer(p)), n+1)
	copy(list, attribs[:n])
	list[n] = gl.GLX_NONE
	return p
}

func (g *realGLX) ImportContextEXT(dpy gl.Display, id uintptr) gl.Context {
	fn := g.fn("glXImportContextEXT")
	if fn == 0 {
		return 0
	}
	return gl.Context(C.gh_call_import_context(fn, C.uintptr_t(dpy), C.uintptr_t(id)))
}

func (g *realGLX) CreateContextWithConfigSGIX(dpy gl.Display, cfg gl.FBConfig, renderType int32, share gl.Context, direct bool) gl.Context {
	fn := g.fn("glXCreateContextWithConfigSGIX")
	if fn == 0 {
		return 0
	}
	return gl.Context(C.gh_call_create_new_context(fn, C.uintptr_t(dpy), C.uintptr_t(cfg), C.int(renderType), C.uintptr_t(share), cbool(direct)))
}

func (g *realGLX) DestroyContext(dpy gl.Display, ctx gl.Context) {
	if fn := g.fn("glXDestroyContext"); fn != 0 {
		C.gh_call_destroy_context(fn, C.uintptr_t(dpy), C.uintptr_t(ctx))
	}
}

func (g *realGLX) FreeContextEXT(dpy gl.Display, ctx gl.Context) {
	if fn := g.fn("glXFreeContextEXT"); fn != 0 {
		C.gh_call_destroy_context(fn, C.uintptr_t(dpy), C.uintptr_t(ctx))
	}
}

func (g *realGLX) MakeCurrent(dpy gl.Display, drawable gl.Drawable, ctx gl.Context) bool {
	fn := g.fn("glXMakeCurrent")
	if fn == 0 {
		return false
	}
	return C.gh_call_make_current(fn, C.uintptr_t(dpy), C.uintptr_t(drawable), C.uintptr_t(ctx)) != 0
}

func (g *realGLX) MakeContextCurrent(dpy gl.Display, draw, read gl.Drawable, ctx gl.Context) bool {
	fn := g.fn("glXMakeContextCurrent")
	if fn == 0 {
		return false
	}
	return C.gh_call_make_context_current(fn, C.uintptr_t(dpy), C.uintptr_t(draw), C.uintptr_t(read), C.uintptr_t(ctx)) != 0
}

func (g *realGLX) MakeCurrentReadSGI(dpy gl.Display, draw, read gl.Drawable, ctx gl.Context) bool {
	fn := g.fn("glXMakeCurrentReadSGI")
	if fn == 0 {
		return false
	}
	return C.gh_call_make_context_current(fn, C.uintptr_t(dpy), C.uintptr_t(draw), C.uintptr_t(read), C.uintptr_t(ctx)) != 0
}

func (g *realGLX) SwapIntervalEXT(dpy gl.Display, drawable gl.Drawable, interval int) {
	if fn := g.fn("glXSwapIntervalEXT"); fn != 0 {
		C.gh_call_swap_interval_ext(fn, C.uintptr_t(dpy), C.uintptr_t(drawable), C.int(interval))
	}
}

func (g *realGLX) swapInterval(name string, interval int) int {
	fn := g.fn(name)
	if fn == 0 {
		return 0
	}
	return int(C.gh_call_swap_interval(fn, C.int(interval)))
}

func (g *realGLX) SwapIntervalSGI(interval int) int {
	return g.swapInterval("glXSwapIntervalSGI", interval)
}

func (g *realGLX) SwapIntervalMESA(interval int) int {
	return g.swapInterval("glXSwapIntervalMESA", interval)
}

func (g *realGLX) SwapBuffers(dpy gl.Display, drawable gl.Drawable) {
	if fn := g.fn("glXSwapBuffers"); fn != 0 {
		C.gh_call_swap_buffers(fn, C.uintptr_t(dpy), C.uintptr_t(drawable))
	}
}

func (g *realGLX) VisualID(vis gl.VisualInfo) (int, int32) {
	var screen C.int
	id := C.gh_visual_id(C.uintptr_t(vis), &screen)
	return int(screen), int32(id)
}

func (g *realGLX) FBConfigs(dpy gl.Display, screen int) []gl.FBConfig {
	fn := g.helper("glXGetFBConfigs")
	if fn == 0 {
		return nil
	}
	var n C.int
	p := C.gh_call_get_fbconfigs(C.uintptr_t(fn), C.uintptr_t(dpy), C.int(screen), &n)
	if p == nil || n <= 0 {
		return nil
	}
	configs := make([]gl.FBConfig, n)
	for i, c := range unsafe.Slice(p, int(n)) {
		configs[i] = gl.FBConfig(c)
	}
	if free := g.helper("XFree"); free != 0 {
		C.gh_call_free(C.uintptr_t(free), unsafe.Pointer(p))
	}
	return configs
}

func (g *realGLX) FBConfigAttrib(dpy gl.Display, cfg gl.FBConfig, attrib int32) (int32, bool) {
	fn := g.helper("glXGetFBConfigAttrib")
	if fn == 0 {
		return 0, false
	}
	var v C.int
	if C.gh_call_get_fbconfig_attrib(C.uintptr_t(fn), C.uintptr_t(dpy), C.uintptr_t(cfg), C.int(attrib), &v) != 0 {
		return 0, false
	}
	return int32(v), true
}

func (g *realGLX) DebugMessageCallback(name string, cb, userParam uintptr) {
	fn := g.fn(name)
	if fn == 0 {
		return
	}
	if name == "glDebugMessageCallbackAMD" {
		C.gh_call_debug_message_callback_amd(fn, C.uintptr_t(cb), C.uintptr_t(userParam))
		return
	}
	C.gh_call_debug_message_callback(fn, C.uintptr_t(cb), C.uintptr_t(userParam))
}

func (g *realGLX) DebugLogger() uintptr {
	return uintptr(C.gh_debug_logger_address())
}

func (g *realGLX) TexParameteri(target, pname gl.Enum, param int32) {
	if fn := g.fn("glTexParameteri"); fn != 0 {
		C.gh_call_tex_parameteri(fn, C.GLenum(target), C.GLenum(pname), C.GLint(param))
	}
}

func (g *realGLX) TexParameterf(target, pname gl.Enum, param float32) {
	if fn := g.fn("glTexParameterf"); fn != 0 {
		C.gh_call_tex_parameterf(fn, C.GLenum(target), C.GLenum(pname), C.GLfloat(param))
	}
}

// procAddress resolves GL functions through the real
// glXGetProcAddressARB, falling back to the symbol search.
func (g *realGLX) procAddress(name string) uintptr {
	for _, via := range []string{"glXGetProcAddressARB", "glXGetProcAddress"} {
		if fn := g.table.Real(via); fn != 0 {
			if p := callProcAddress(fn, name); p != 0 {
				return p
			}
		}
	}
	return g.res.NextOrLibrary(name)
}

func callProcAddress(fn uintptr, name string) uintptr {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return uintptr(C.gh_call_proc_address(C.uintptr_t(fn), cname))
}

func callDlvsym(fn, handle uintptr, name, version *C.char) uintptr {
	return uintptr(C.gh_call_dlvsym(C.uintptr_t(fn), C.uintptr_t(handle), name, version))
}

func (g *realGLX) GL() hook.GL {
	g.glOnce.Do(func() {
		f := new(gl.Functions)
		f.Load(g.procAddress)
		if !f.HasCore() {
			g.log.Warnf("GL functions unavailable")
			return
		}
		g.log.Debugf("GL functions: timer query %v, sync %v", f.HasTimerQuery(), f.HasSync())
		g.gl = f
	})
	return g.gl
}
