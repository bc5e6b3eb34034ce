// SPDX-License-Identifier: Unlicense OR MIT

package ctxattr

import (
	"testing"

	"golang.org/x/exp/slices"

	"glxhook.org/internal/env"
	"glxhook.org/internal/gl"
)

// attribMap converts an attribute list into a map, failing on
// duplicates and on a missing terminator.
func attribMap(t *testing.T, attribs []int32) map[int32]int32 {
	t.Helper()
	if len(attribs)%2 != 1 || attribs[len(attribs)-1] != gl.GLX_NONE {
		t.Fatalf("attribute list %s not terminated", Format(attribs))
	}
	m := make(map[int32]int32)
	for i := 0; i+1 < len(attribs); i += 2 {
		if _, dup := m[attribs[i]]; dup {
			t.Fatalf("duplicate attribute 0x%x in %s", attribs[i], Format(attribs))
		}
		m[attribs[i]] = attribs[i+1]
	}
	return m
}

func TestExactVersionNoAttribs(t *testing.T) {
	o := Override{Version: Version{4, 5}, NoError: NoErrorUnset}
	got := o.Apply(nil)
	want := []int32{
		gl.GLX_CONTEXT_MAJOR_VERSION_ARB, 4,
		gl.GLX_CONTEXT_MINOR_VERSION_ARB, 5,
		gl.GLX_CONTEXT_PROFILE_MASK_ARB, gl.GLX_CONTEXT_CORE_PROFILE_BIT_ARB,
		gl.GLX_CONTEXT_FLAGS_ARB, 0,
		gl.GLX_NONE,
	}
	if len(got) != len(want) {
		t.Fatalf("Apply(nil) = %s want %s", Format(got), Format(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Apply(nil) = %s want %s", Format(got), Format(want))
		}
	}
}

func TestVersionBounds(t *testing.T) {
	tests := []struct {
		o    Override
		req  Version
		want Version
	}{
		{Override{MinVersion: Version{3, 3}}, Version{2, 1}, Version{3, 3}},
		{Override{MinVersion: Version{3, 3}}, Version{4, 6}, Version{4, 6}},
		{Override{MaxVersion: Version{3, 3}}, Version{4, 6}, Version{3, 3}},
		{Override{MaxVersion: Version{3, 3}}, Version{3, 0}, Version{3, 0}},
		{Override{MinVersion: Version{3, 0}, MaxVersion: Version{4, 0}, Version: Version{4, 6}}, Version{2, 0}, Version{4, 6}},
	}
	for _, tt := range tests {
		tt.o.NoError = NoErrorUnset
		m := attribMap(t, tt.o.Apply([]int32{
			gl.GLX_CONTEXT_MAJOR_VERSION_ARB, int32(tt.req.Major),
			gl.GLX_CONTEXT_MINOR_VERSION_ARB, int32(tt.req.Minor),
			gl.GLX_NONE,
		}))
		got := Version{int(m[gl.GLX_CONTEXT_MAJOR_VERSION_ARB]), int(m[gl.GLX_CONTEXT_MINOR_VERSION_ARB])}
		if got != tt.want {
			t.Errorf("%+v on %v = %v want %v", tt.o, tt.req, got, tt.want)
		}
	}
}

func TestFlagsProfileNoError(t *testing.T) {
	o := Override{
		FlagsOn:    gl.GLX_CONTEXT_DEBUG_BIT_ARB,
		FlagsOff:   gl.GLX_CONTEXT_FORWARD_COMPATIBLE_BIT_ARB,
		ProfileOn:  gl.GLX_CONTEXT_COMPATIBILITY_PROFILE_BIT_ARB,
		ProfileOff: gl.GLX_CONTEXT_CORE_PROFILE_BIT_ARB,
		NoError:    NoErrorOn,
	}
	const renderType = 0x8011
	m := attribMap(t, o.Apply([]int32{
		gl.GLX_CONTEXT_FLAGS_ARB, gl.GLX_CONTEXT_FORWARD_COMPATIBLE_BIT_ARB,
		renderType, gl.GLX_RGBA_TYPE,
		gl.GLX_CONTEXT_OPENGL_NO_ERROR_ARB, 0,
		gl.GLX_NONE,
	}))
	if got := m[gl.GLX_CONTEXT_FLAGS_ARB]; got != gl.GLX_CONTEXT_DEBUG_BIT_ARB {
		t.Errorf("flags = 0x%x", got)
	}
	if got := m[gl.GLX_CONTEXT_PROFILE_MASK_ARB]; got != gl.GLX_CONTEXT_COMPATIBILITY_PROFILE_BIT_ARB {
		t.Errorf("profile = 0x%x", got)
	}
	if got := m[gl.GLX_CONTEXT_OPENGL_NO_ERROR_ARB]; got != 1 {
		t.Errorf("no error = %d", got)
	}
	if got := m[renderType]; got != gl.GLX_RGBA_TYPE {
		t.Errorf("unmanaged attribute lost, got 0x%x", got)
	}
}

func TestUnmanagedOrder(t *testing.T) {
	o := Override{Version: Version{3, 3}, NoError: NoErrorUnset}
	got := o.Apply([]int32{
		0x1001, 1,
		gl.GLX_CONTEXT_MAJOR_VERSION_ARB, 2,
		0x1002, 2,
		gl.GLX_NONE,
		0x1003, 3,
	})
	// Four managed pairs first, then the unmanaged ones in order.
	tail := got[8:]
	want := []int32{0x1001, 1, 0x1002, 2, gl.GLX_NONE}
	if len(tail) != len(want) {
		t.Fatalf("Apply = %s", Format(got))
	}
	for i := range want {
		if tail[i] != want[i] {
			t.Fatalf("Apply = %s", Format(got))
		}
	}
	for i := 0; i < 8; i += 2 {
		if !slices.Contains(managed, got[i]) {
			t.Errorf("attribute 0x%x at %d not managed", got[i], i)
		}
	}
}

func TestLegacyCompat(t *testing.T) {
	o := Override{LegacyCompat: true, NoError: NoErrorUnset}
	m := attribMap(t, o.Apply([]int32{gl.GLX_NONE}))
	if got := m[gl.GLX_CONTEXT_PROFILE_MASK_ARB]; got != gl.GLX_CONTEXT_COMPATIBILITY_PROFILE_BIT_ARB {
		t.Errorf("legacy 1.0 request profile = 0x%x", got)
	}
	m = attribMap(t, o.Apply([]int32{gl.GLX_CONTEXT_MAJOR_VERSION_ARB, 4, gl.GLX_NONE}))
	if got := m[gl.GLX_CONTEXT_PROFILE_MASK_ARB]; got != gl.GLX_CONTEXT_CORE_PROFILE_BIT_ARB {
		t.Errorf("4.0 request profile = 0x%x", got)
	}
}

func TestFromEnv(t *testing.T) {
	o, err := FromEnv(env.Map(map[string]string{
		"GH_FORCE_VERSION":     "4.5",
		"GH_FORCE_MIN_VERSION": "3",
		"GH_FORCE_FLAGS_ON":    "0x1",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if o.Version != (Version{4, 5}) || o.MinVersion != (Version{3, 0}) || o.FlagsOn != 1 {
		t.Errorf("FromEnv = %+v", o)
	}
	if o.NoError != NoErrorUnset {
		t.Errorf("NoError = %d want unset", o.NoError)
	}
	if !o.Active() {
		t.Error("override not active")
	}

	o, err = FromEnv(env.Map(nil))
	if err != nil {
		t.Fatal(err)
	}
	if o.Active() {
		t.Errorf("empty environment yields active override %+v", o)
	}

	if _, err := FromEnv(env.Map(map[string]string{"GH_FORCE_MAX_VERSION": "x.y"})); err == nil {
		t.Error("malformed version accepted")
	}
}
