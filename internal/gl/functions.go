// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux || freebsd

package gl

/*
#cgo CFLAGS: -Werror
#cgo freebsd CFLAGS: -I/usr/local/include

#include <stdint.h>
#include <GL/gl.h>
#include <GL/glext.h>

// The functions are reached through pointers obtained from the real
// glXGetProcAddress; every trampoline takes the pointer as its first
// argument.

__attribute__ ((visibility ("hidden"))) void gh_glGenQueries(uintptr_t fn, GLsizei n, GLuint *ids) {
	((PFNGLGENQUERIESPROC)fn)(n, ids);
}

__attribute__ ((visibility ("hidden"))) void gh_glDeleteQueries(uintptr_t fn, GLsizei n, const GLuint *ids) {
	((PFNGLDELETEQUERIESPROC)fn)(n, ids);
}

__attribute__ ((visibility ("hidden"))) void gh_glQueryCounter(uintptr_t fn, GLuint id, GLenum target) {
	((PFNGLQUERYCOUNTERPROC)fn)(id, target);
}

__attribute__ ((visibility ("hidden"))) GLuint gh_glGetQueryObjectuiv(uintptr_t fn, GLuint id, GLenum pname) {
	GLuint v = 0;
	((PFNGLGETQUERYOBJECTUIVPROC)fn)(id, pname, &v);
	return v;
}

__attribute__ ((visibility ("hidden"))) GLuint64 gh_glGetQueryObjectui64v(uintptr_t fn, GLuint id, GLenum pname) {
	GLuint64 v = 0;
	((PFNGLGETQUERYOBJECTUI64VPROC)fn)(id, pname, &v);
	return v;
}

__attribute__ ((visibility ("hidden"))) GLint64 gh_glGetInteger64v(uintptr_t fn, GLenum pname) {
	GLint64 v = 0;
	((PFNGLGETINTEGER64VPROC)fn)(pname, &v);
	return v;
}

__attribute__ ((visibility ("hidden"))) uintptr_t gh_glFenceSync(uintptr_t fn, GLenum condition, GLbitfield flags) {
	return (uintptr_t)((PFNGLFENCESYNCPROC)fn)(condition, flags);
}

__attribute__ ((visibility ("hidden"))) void gh_glDeleteSync(uintptr_t fn, uintptr_t sync) {
	((PFNGLDELETESYNCPROC)fn)((GLsync)sync);
}

__attribute__ ((visibility ("hidden"))) GLenum gh_glClientWaitSync(uintptr_t fn, uintptr_t sync, GLbitfield flags, GLuint64 timeout) {
	return ((PFNGLCLIENTWAITSYNCPROC)fn)((GLsync)sync, flags, timeout);
}

__attribute__ ((visibility ("hidden"))) void gh_glVoid(uintptr_t fn) {
	((void (*)(void))fn)();
}

__attribute__ ((visibility ("hidden"))) void gh_glEnable(uintptr_t fn, GLenum cap) {
	((void (*)(GLenum))fn)(cap);
}
*/
import "C"

// Functions calls the GPU-side GL entry points the shim itself needs.
// Entry points that could not be resolved are zero and the matching
// Has method reports false.
type Functions struct {
	genQueries         uintptr
	deleteQueries      uintptr
	queryCounter       uintptr
	getQueryObjectuiv  uintptr
	getQueryObjectui64 uintptr
	getInteger64v      uintptr

	fenceSync      uintptr
	deleteSync     uintptr
	clientWaitSync uintptr

	flush  uintptr
	finish uintptr
	enable uintptr
}

// Load resolves every entry point with resolve, trying the extension
// suffixed name when the core name is missing.
func (f *Functions) Load(resolve func(name string) uintptr) {
	get := func(names ...string) uintptr {
		for _, n := range names {
			if p := resolve(n); p != 0 {
				return p
			}
		}
		return 0
	}
	f.genQueries = get("glGenQueries", "glGenQueriesARB")
	f.deleteQueries = get("glDeleteQueries", "glDeleteQueriesARB")
	f.queryCounter = get("glQueryCounter")
	f.getQueryObjectuiv = get("glGetQueryObjectuiv", "glGetQueryObjectuivARB")
	f.getQueryObjectui64 = get("glGetQueryObjectui64v", "glGetQueryObjectui64vEXT")
	f.getInteger64v = get("glGetInteger64v")
	f.fenceSync = get("glFenceSync")
	f.deleteSync = get("glDeleteSync")
	f.clientWaitSync = get("glClientWaitSync")
	f.flush = get("glFlush")
	f.finish = get("glFinish")
	f.enable = get("glEnable")
}

// HasCore reports whether the functions every GL version has were
// resolved.
func (f *Functions) HasCore() bool {
	return f.flush != 0 && f.finish != 0 && f.enable != 0
}

func (f *Functions) HasTimerQuery() bool {
	return f.genQueries != 0 && f.deleteQueries != 0 && f.queryCounter != 0 &&
		f.getQueryObjectuiv != 0 && f.getQueryObjectui64 != 0 && f.getInteger64v != 0
}

func (f *Functions) HasSync() bool {
	return f.fenceSync != 0 && f.deleteSync != 0 && f.clientWaitSync != 0
}

func (f *Functions) GenQuery() Query {
	var id C.GLuint
	C.gh_glGenQueries(C.uintptr_t(f.genQueries), 1, &id)
	return Query{uint(id)}
}

func (f *Functions) DeleteQuery(q Query) {
	id := C.GLuint(q.V)
	C.gh_glDeleteQueries(C.uintptr_t(f.deleteQueries), 1, &id)
}

func (f *Functions) QueryCounter(q Query) {
	C.gh_glQueryCounter(C.uintptr_t(f.queryCounter), C.GLuint(q.V), TIMESTAMP)
}

func (f *Functions) QueryResultAvailable(q Query) bool {
	return C.gh_glGetQueryObjectuiv(C.uintptr_t(f.getQueryObjectuiv), C.GLuint(q.V), QUERY_RESULT_AVAILABLE) != 0
}

func (f *Functions) QueryResult(q Query) uint64 {
	return uint64(C.gh_glGetQueryObjectui64v(C.uintptr_t(f.getQueryObjectui64), C.GLuint(q.V), QUERY_RESULT))
}

// Timestamp returns the GPU clock as seen by the client right now.
func (f *Functions) Timestamp() int64 {
	return int64(C.gh_glGetInteger64v(C.uintptr_t(f.getInteger64v), TIMESTAMP))
}

func (f *Functions) FenceSync() Sync {
	return Sync{uintptr(C.gh_glFenceSync(C.uintptr_t(f.fenceSync), SYNC_GPU_COMMANDS_COMPLETE, 0))}
}

func (f *Functions) DeleteSync(s Sync) {
	C.gh_glDeleteSync(C.uintptr_t(f.deleteSync), C.uintptr_t(s.V))
}

func (f *Functions) ClientWaitSync(s Sync, flags Bitfield, timeout uint64) Enum {
	return Enum(C.gh_glClientWaitSync(C.uintptr_t(f.clientWaitSync), C.uintptr_t(s.V), C.GLbitfield(flags), C.GLuint64(timeout)))
}

func (f *Functions) Flush() {
	if f.flush != 0 {
		C.gh_glVoid(C.uintptr_t(f.flush))
	}
}

func (f *Functions) Finish() {
	if f.finish != 0 {
		C.gh_glVoid(C.uintptr_t(f.finish))
	}
}

func (f *Functions) Enable(cap Enum) {
	if f.enable != 0 {
		C.gh_glEnable(C.uintptr_t(f.enable), C.GLenum(cap))
	}
}
