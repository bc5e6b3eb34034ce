// SPDX-License-Identifier: Unlicense OR MIT

package main

/*
#include <stdint.h>
#include <stdlib.h>

uintptr_t gh_hook_address(const char *name);
*/
import "C"

import (
	"unsafe"

	"glxhook.org/internal/gl"
)

func hookAddress(name string) uintptr {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return uintptr(C.gh_hook_address(cname))
}

//export ghDlsym
func ghDlsym(handle C.uintptr_t, name *C.char) C.uintptr_t {
	n := C.GoString(name)
	if p := table.Dispatch(n, resolver.Next, "dlsym"); p != 0 {
		logger.Interceptf("dlsym(%#x, %s) = %#x [intercepted]", uintptr(handle), n, p)
		return C.uintptr_t(p)
	}
	p := resolver.Sym(uintptr(handle), n)
	logger.Interceptf("dlsym(%#x, %s) = %#x", uintptr(handle), n, p)
	return C.uintptr_t(p)
}

//export ghDlvsym
func ghDlvsym(handle C.uintptr_t, name, version *C.char) C.uintptr_t {
	n := C.GoString(name)
	if p := table.Dispatch(n, resolver.Next, "dlvsym"); p != 0 {
		logger.Interceptf("dlvsym(%#x, %s) = %#x [intercepted]", uintptr(handle), n, p)
		return C.uintptr_t(p)
	}
	fn := table.Real("dlvsym")
	if fn == 0 {
		logger.Warnf("real dlvsym unavailable")
		return 0
	}
	p := callDlvsym(fn, uintptr(handle), name, version)
	logger.Interceptf("dlvsym(%#x, %s, %s) = %#x", uintptr(handle), n, C.GoString(version), p)
	return C.uintptr_t(p)
}

// ghGetProcAddress implements both glXGetProcAddress variants. The real
// definition of a dispatched name is resolved through the variant the
// application called.
//
//export ghGetProcAddress
func ghGetProcAddress(via, name *C.char) C.uintptr_t {
	v, n := C.GoString(via), C.GoString(name)
	fn := table.Real(v)
	query := func(name string) uintptr {
		if fn == 0 {
			return 0
		}
		return callProcAddress(fn, name)
	}
	if p := table.Dispatch(n, query, v); p != 0 {
		logger.Interceptf("%s(%s) = %#x [intercepted]", v, n, p)
		return C.uintptr_t(p)
	}
	p := query(n)
	logger.Interceptf("%s(%s) = %#x", v, n, p)
	return C.uintptr_t(p)
}

//export ghCreateContext
func ghCreateContext(dpy, vis, share C.uintptr_t, direct C.int) C.uintptr_t {
	return C.uintptr_t(shim.CreateContext(gl.Display(dpy), gl.VisualInfo(vis), gl.Context(share), direct != 0))
}

//export ghCreateNewContext
func ghCreateNewContext(dpy, cfg C.uintptr_t, renderType C.int, share C.uintptr_t, direct C.int) C.uintptr_t {
	return C.uintptr_t(shim.CreateNewContext(gl.Display(dpy), gl.FBConfig(cfg), int32(renderType), gl.Context(share), direct != 0))
}

//export ghCreateContextAttribsARB
func ghCreateContextAttribsARB(dpy, cfg, share C.uintptr_t, direct C.int, attribs *C.int) C.uintptr_t {
	return C.uintptr_t(shim.CreateContextAttribsARB(gl.Display(dpy), gl.FBConfig(cfg), gl.Context(share), direct != 0, attribList(attribs)))
}

// attribList copies the pairs of a GLX_NONE terminated attribute list.
// A NULL list is returned as nil, an empty one as an empty slice.
func attribList(p *C.int) []int32 {
	if p == nil {
		return nil
	}
	attribs := []int32{}
	for i := 0; ; i += 2 {
		pair := unsafe.Slice((*int32)(unsafe.Add(unsafe.Pointer(p), i*4)), 2)
		if pair[0] == gl.GLX_NONE {
			break
		}
		attribs = append(attribs, pair[0], pair[1])
	}
	return attribs
}

//export ghImportContextEXT
func ghImportContextEXT(dpy, id C.uintptr_t) C.uintptr_t {
	return C.uintptr_t(shim.ImportContextEXT(gl.Display(dpy), uintptr(id)))
}

//export ghCreateContextWithConfigSGIX
func ghCreateContextWithConfigSGIX(dpy, cfg C.uintptr_t, renderType C.int, share C.uintptr_t, direct C.int) C.uintptr_t {
	return C.uintptr_t(shim.CreateContextWithConfigSGIX(gl.Display(dpy), gl.FBConfig(cfg), int32(renderType), gl.Context(share), direct != 0))
}

//export ghDestroyContext
func ghDestroyContext(dpy, ctx C.uintptr_t) {
	shim.DestroyContext(gl.Display(dpy), gl.Context(ctx))
}

//export ghFreeContextEXT
func ghFreeContextEXT(dpy, ctx C.uintptr_t) {
	shim.FreeContextEXT(gl.Display(dpy), gl.Context(ctx))
}

func cBool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

//export ghMakeCurrent
func ghMakeCurrent(dpy, drawable, ctx C.uintptr_t) C.int {
	return cBool(shim.MakeCurrent(gl.Display(dpy), gl.Drawable(drawable), gl.Context(ctx)))
}

//export ghMakeContextCurrent
func ghMakeContextCurrent(dpy, draw, read, ctx C.uintptr_t) C.int {
	return cBool(shim.MakeContextCurrent(gl.Display(dpy), gl.Drawable(draw), gl.Drawable(read), gl.Context(ctx)))
}

//export ghMakeCurrentReadSGI
func ghMakeCurrentReadSGI(dpy, draw, read, ctx C.uintptr_t) C.int {
	return cBool(shim.MakeCurrentReadSGI(gl.Display(dpy), gl.Drawable(draw), gl.Drawable(read), gl.Context(ctx)))
}

//export ghSwapIntervalEXT
func ghSwapIntervalEXT(dpy, drawable C.uintptr_t, interval C.int) {
	shim.SwapIntervalEXT(gl.Display(dpy), gl.Drawable(drawable), int(interval))
}

//export ghSwapIntervalSGI
func ghSwapIntervalSGI(interval C.int) C.int {
	return C.int(shim.SwapIntervalSGI(int(interval)))
}

//export ghSwapIntervalMESA
func ghSwapIntervalMESA(interval C.int) C.int {
	return C.int(shim.SwapIntervalMESA(int(interval)))
}

//export ghSwapBuffers
func ghSwapBuffers(dpy, drawable C.uintptr_t) {
	shim.SwapBuffers(gl.Display(dpy), gl.Drawable(drawable))
}

//export ghDebugMessageCallback
func ghDebugMessageCallback(name *C.char, cb, userParam C.uintptr_t) {
	shim.DebugMessageCallback(C.GoString(name), uintptr(cb), uintptr(userParam))
}

// ghDebugMessage receives the messages of the injected logger and
// returns the application callback to forward them to.
//
//export ghDebugMessage
func ghDebugMessage(source, typ, id, severity C.uint, length C.int, message *C.char, userParam C.uintptr_t, cb, cbParam *C.uintptr_t) {
	var msg string
	if length < 0 {
		msg = C.GoString(message)
	} else {
		msg = C.GoStringN(message, length)
	}
	fn, param := shim.DebugMessage(gl.Context(userParam), gl.DebugMessage{
		Source:   gl.Enum(source),
		Type:     gl.Enum(typ),
		ID:       uint(id),
		Severity: gl.Enum(severity),
		Message:  msg,
	})
	*cb, *cbParam = C.uintptr_t(fn), C.uintptr_t(param)
}

//export ghTexParameteri
func ghTexParameteri(target, pname C.uint, param C.int) {
	shim.TexParameteri(gl.Enum(target), gl.Enum(pname), int32(param))
}

//export ghTexParameterf
func ghTexParameterf(target, pname C.uint, param C.float) {
	shim.TexParameterf(gl.Enum(target), gl.Enum(pname), float32(param))
}
