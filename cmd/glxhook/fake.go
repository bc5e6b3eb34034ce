// SPDX-License-Identifier: Unlicense OR MIT

package main

/*
#include <stdint.h>
#include <stdlib.h>

// Fakes standing in for the real entry points in tests, which cannot
// use cgo themselves.

#define GH_FAKE_ATTRIBS 64

typedef void (*gh_fake_debug_proc)(unsigned int, unsigned int, unsigned int, unsigned int, int, const char *, const void *);

uintptr_t gh_debug_logger_address(void);

static int gh_fake_attribs[GH_FAKE_ATTRIBS];
// -1 if the list was NULL.
static int gh_fake_attribs_len = -1;

static void *gh_fake_create_context_attribs(void *dpy, void *cfg, void *share, int direct, const int *attribs) {
	int i;
	gh_fake_attribs_len = -1;
	if (attribs == NULL) {
		return (void *)0x1;
	}
	for (i = 0; i < GH_FAKE_ATTRIBS; i++) {
		gh_fake_attribs[i] = attribs[i];
		if (i%2 == 0 && attribs[i] == 0) {
			i++;
			break;
		}
	}
	gh_fake_attribs_len = i;
	return (void *)0x1;
}

static uintptr_t gh_fake_create_context_attribs_address(void) {
	return (uintptr_t)gh_fake_create_context_attribs;
}

static int gh_fake_attribs_count(void) {
	return gh_fake_attribs_len;
}

static int gh_fake_attrib(int i) {
	return gh_fake_attribs[i];
}

static unsigned int gh_fake_debug_id;
static uintptr_t gh_fake_debug_param;

static void gh_fake_debug_callback(unsigned int source, unsigned int type, unsigned int id, unsigned int severity, int length, const char *message, const void *userParam) {
	gh_fake_debug_id = id;
	gh_fake_debug_param = (uintptr_t)userParam;
}

static uintptr_t gh_fake_debug_callback_address(void) {
	return (uintptr_t)gh_fake_debug_callback;
}

static void gh_fake_debug_log(uintptr_t ctx, unsigned int id, const char *message) {
	gh_fake_debug_id = 0;
	gh_fake_debug_param = 0;
	// API error of high severity.
	((gh_fake_debug_proc)gh_debug_logger_address())(0x8246, 0x824C, id, 0x9146, -1, message, (const void *)ctx);
}

static unsigned int gh_fake_debug_received_id(void) {
	return gh_fake_debug_id;
}

static uintptr_t gh_fake_debug_received_param(void) {
	return gh_fake_debug_param;
}
*/
import "C"

import (
	"unsafe"

	"glxhook.org/internal/gl"
)

// fakeCreateContextAttribsARB returns a glXCreateContextAttribsARB that
// records the attribute list it is passed.
func fakeCreateContextAttribsARB() uintptr {
	return uintptr(C.gh_fake_create_context_attribs_address())
}

// fakeAttribs returns the list recorded by the fake up to and including
// its terminator, or nil if the list was NULL.
func fakeAttribs() []int32 {
	n := int(C.gh_fake_attribs_count())
	if n < 0 {
		return nil
	}
	attribs := make([]int32, n)
	for i := range attribs {
		attribs[i] = int32(C.gh_fake_attrib(C.int(i)))
	}
	return attribs
}

// attribListOf runs attribList on a C copy of attribs.
func attribListOf(attribs []int32) []int32 {
	if len(attribs) == 0 {
		return attribList(nil)
	}
	p := (*C.int)(C.malloc(C.size_t(len(attribs)) * C.size_t(unsafe.Sizeof(C.int(0)))))
	defer C.free(unsafe.Pointer(p))
	copy(unsafe.Slice((*int32)(unsafe.Pointer(p)), len(attribs)), attribs)
	return attribList(p)
}

// fakeDebugCallback returns an application debug callback that records
// the last message id and user parameter it received.
func fakeDebugCallback() uintptr {
	return uintptr(C.gh_fake_debug_callback_address())
}

// logFakeDebugMessage delivers a message for context h to the injected
// logger and returns what the fake application callback received.
func logFakeDebugMessage(h gl.Context, id uint, msg string) (uint, uintptr) {
	cmsg := C.CString(msg)
	defer C.free(unsafe.Pointer(cmsg))
	C.gh_fake_debug_log(C.uintptr_t(h), C.uint(id), cmsg)
	return uint(C.gh_fake_debug_received_id()), uintptr(C.gh_fake_debug_received_param())
}
