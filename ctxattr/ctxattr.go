// SPDX-License-Identifier: Unlicense OR MIT

// Package ctxattr rewrites the attribute list passed to
// glXCreateContextAttribsARB to enforce a configured version, profile,
// context flags and no-error mode.
package ctxattr

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"glxhook.org/internal/env"
	"glxhook.org/internal/gl"
)

// Version is an OpenGL major.minor pair. The zero Version means unset.
type Version struct {
	Major, Minor int
}

func (v Version) IsSet() bool {
	return v.Major > 0
}

func (v Version) Less(o Version) bool {
	return v.Major < o.Major || (v.Major == o.Major && v.Minor < o.Minor)
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// ParseVersion parses "major.minor" or a bare "major".
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, nil
	}
	maj, min, _ := strings.Cut(s, ".")
	var v Version
	var err error
	if v.Major, err = strconv.Atoi(maj); err != nil {
		return Version{}, fmt.Errorf("ctxattr: invalid version %q: %w", s, err)
	}
	if min != "" {
		if v.Minor, err = strconv.Atoi(min); err != nil {
			return Version{}, fmt.Errorf("ctxattr: invalid version %q: %w", s, err)
		}
	}
	if v.Major < 1 || v.Minor < 0 {
		return Version{}, fmt.Errorf("ctxattr: invalid version %q", s)
	}
	return v, nil
}

// NoError is a tri-state override of GLX_CONTEXT_OPENGL_NO_ERROR_ARB.
type NoError uint8

const (
	NoErrorUnset NoError = iota
	NoErrorOff
	NoErrorOn
)

func (n NoError) value() int32 {
	if n == NoErrorOn {
		return 1
	}
	return 0
}

// Override is the process wide creation override configuration.
type Override struct {
	Version    Version
	MinVersion Version
	MaxVersion Version

	FlagsOn, FlagsOff     int32
	ProfileOn, ProfileOff int32

	NoError NoError
	// LegacyCompat requests the compatibility profile for contexts asking
	// for a version below 3.2.
	LegacyCompat bool
}

// FromEnv reads the GH_FORCE_* variables. Malformed versions are
// returned as an error together with the remaining configuration.
func FromEnv(src env.Source) (Override, error) {
	o := Override{
		FlagsOn:      int32(src.Uint("GH_FORCE_FLAGS_ON", 0)),
		FlagsOff:     int32(src.Uint("GH_FORCE_FLAGS_OFF", 0)),
		ProfileOn:    int32(src.Uint("GH_FORCE_PROFILE_ON", 0)),
		ProfileOff:   int32(src.Uint("GH_FORCE_PROFILE_OFF", 0)),
		LegacyCompat: src.Bool("GH_FORCE_LEGACY_COMPAT", false),
	}
	switch src.Int("GH_FORCE_NO_ERROR", -1) {
	case 0:
		o.NoError = NoErrorOff
	case 1:
		o.NoError = NoErrorOn
	}
	var errs []string
	for _, f := range []struct {
		name string
		v    *Version
	}{
		{"GH_FORCE_VERSION", &o.Version},
		{"GH_FORCE_MIN_VERSION", &o.MinVersion},
		{"GH_FORCE_MAX_VERSION", &o.MaxVersion},
	} {
		v, err := ParseVersion(src(f.name))
		if err != nil {
			errs = append(errs, f.name+": "+err.Error())
			continue
		}
		*f.v = v
	}
	if len(errs) > 0 {
		return o, fmt.Errorf("ctxattr: %s", strings.Join(errs, "; "))
	}
	return o, nil
}

// Active reports whether any override dimension is configured.
func (o Override) Active() bool {
	return o.Version.IsSet() || o.MinVersion.IsSet() || o.MaxVersion.IsSet() ||
		o.FlagsOn != 0 || o.FlagsOff != 0 || o.ProfileOn != 0 || o.ProfileOff != 0 ||
		o.NoError != NoErrorUnset || o.LegacyCompat
}

var managed = []int32{
	gl.GLX_CONTEXT_MAJOR_VERSION_ARB,
	gl.GLX_CONTEXT_MINOR_VERSION_ARB,
	gl.GLX_CONTEXT_PROFILE_MASK_ARB,
	gl.GLX_CONTEXT_FLAGS_ARB,
	gl.GLX_CONTEXT_OPENGL_NO_ERROR_ARB,
}

// Apply returns the attribute list to create the context with. attribs
// holds name/value pairs and may or may not include the terminating
// GLX_NONE; anything after a terminator is ignored. The result always
// ends with GLX_NONE.
func (o Override) Apply(attribs []int32) []int32 {
	req := Version{1, 0}
	profile := int32(gl.GLX_CONTEXT_CORE_PROFILE_BIT_ARB)
	var flags int32
	noError := NoErrorUnset
	var rest []int32
	for i := 0; i+1 < len(attribs) && attribs[i] != gl.GLX_NONE; i += 2 {
		name, val := attribs[i], attribs[i+1]
		if !slices.Contains(managed, name) {
			rest = append(rest, name, val)
			continue
		}
		switch name {
		case gl.GLX_CONTEXT_MAJOR_VERSION_ARB:
			req.Major = int(val)
		case gl.GLX_CONTEXT_MINOR_VERSION_ARB:
			req.Minor = int(val)
		case gl.GLX_CONTEXT_PROFILE_MASK_ARB:
			profile = val
		case gl.GLX_CONTEXT_FLAGS_ARB:
			flags = val
		case gl.GLX_CONTEXT_OPENGL_NO_ERROR_ARB:
			noError = NoErrorOff
			if val != 0 {
				noError = NoErrorOn
			}
		}
	}

	if o.LegacyCompat && req.Less(Version{3, 2}) {
		profile = profile&^gl.GLX_CONTEXT_CORE_PROFILE_BIT_ARB | gl.GLX_CONTEXT_COMPATIBILITY_PROFILE_BIT_ARB
	}
	v := req
	if o.MinVersion.IsSet() && v.Less(o.MinVersion) {
		v = o.MinVersion
	}
	if o.MaxVersion.IsSet() && o.MaxVersion.Less(v) {
		v = o.MaxVersion
	}
	if o.Version.IsSet() {
		v = o.Version
	}
	flags = (flags | o.FlagsOn) &^ o.FlagsOff
	profile = (profile | o.ProfileOn) &^ o.ProfileOff
	if o.NoError != NoErrorUnset {
		noError = o.NoError
	}

	out := make([]int32, 0, len(managed)*2+len(rest)+1)
	out = append(out,
		gl.GLX_CONTEXT_MAJOR_VERSION_ARB, int32(v.Major),
		gl.GLX_CONTEXT_MINOR_VERSION_ARB, int32(v.Minor),
		gl.GLX_CONTEXT_PROFILE_MASK_ARB, profile,
		gl.GLX_CONTEXT_FLAGS_ARB, flags,
	)
	if noError != NoErrorUnset {
		out = append(out, gl.GLX_CONTEXT_OPENGL_NO_ERROR_ARB, noError.value())
	}
	out = append(out, rest...)
	return append(out, gl.GLX_NONE)
}

// Format renders an attribute list for logging.
func Format(attribs []int32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < len(attribs); i += 2 {
		if i > 0 {
			b.WriteString(", ")
		}
		if attribs[i] == gl.GLX_NONE || i+1 == len(attribs) {
			b.WriteString("NONE")
			break
		}
		fmt.Fprintf(&b, "0x%x=0x%x", attribs[i], attribs[i+1])
	}
	b.WriteByte(']')
	return b.String()
}
