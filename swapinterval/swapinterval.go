// SPDX-License-Identifier: Unlicense OR MIT

// Package swapinterval computes the swap interval actually passed to the
// GLX swap control extensions from the one the application requested.
package swapinterval

import (
	"fmt"
	"strconv"
	"strings"
)

type Mode uint8

const (
	// NOP passes the requested interval through.
	NOP Mode = iota
	// Ignore drops every attempt to set the interval.
	Ignore
	// Clamp limits the interval to [A, B].
	Clamp
	// Force replaces the interval with A.
	Force
	// Disable forces 0.
	Disable
	// Enable forces at least 1.
	Enable
	// Min forces at least A.
	Min
	// Max forces at most A.
	Max
)

var modeNames = [...]string{
	NOP:     "nop",
	Ignore:  "ignore",
	Clamp:   "clamp",
	Force:   "force",
	Disable: "disable",
	Enable:  "enable",
	Min:     "min",
	Max:     "max",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Tear selects how the sign of an interval is handled. Negative
// intervals request adaptive vsync (GLX_EXT_swap_control_tear).
type Tear uint8

const (
	// Raw applies the mode to the signed value.
	Raw Tear = iota
	// KeepSign applies the mode to the magnitude and restores the sign.
	KeepSign
	// DisableTear makes the result positive.
	DisableTear
	// EnableTear makes the result negative.
	EnableTear
	// InvertSign applies the mode to the magnitude and flips the sign.
	InvertSign
)

var tearNames = [...]string{
	Raw:         "raw",
	KeepSign:    "keep",
	DisableTear: "disable",
	EnableTear:  "enable",
	InvertSign:  "invert",
}

func (t Tear) String() string {
	if int(t) < len(tearNames) {
		return tearNames[t]
	}
	return fmt.Sprintf("Tear(%d)", uint8(t))
}

// Policy is an immutable swap interval configuration.
type Policy struct {
	Mode Mode
	Tear Tear
	A, B int
}

// Parse builds a Policy from the GH_SWAP_MODE and GH_SWAP_TEAR strings.
// The mode is matched by prefix and followed by up to two integers
// separated by any non-digit characters, as in "clamp:1:2". Empty or
// unknown strings select NOP and Raw.
func Parse(mode, tear string) Policy {
	p := Policy{B: 1}
	rest := mode
	for i, name := range modeNames {
		if strings.HasPrefix(mode, name) {
			p.Mode = Mode(i)
			rest = mode[len(name):]
			break
		}
	}
	var args [2]int
	for i := range args {
		var ok bool
		args[i], rest, ok = nextInt(rest)
		if !ok {
			break
		}
	}
	if mode != "" {
		p.A, p.B = args[0], args[1]
	}
	for i, name := range tearNames {
		if strings.HasPrefix(tear, name) {
			p.Tear = Tear(i)
			break
		}
	}
	return p
}

// nextInt skips to the next decimal digit in s and parses the number
// starting there.
func nextInt(s string) (int, string, bool) {
	start := strings.IndexAny(s, "0123456789")
	if start < 0 {
		return 0, "", false
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0, s[end:], false
	}
	return n, s[end:], true
}

// Apply returns the interval to pass to the real implementation. It
// reports false when the call must be dropped entirely.
func (p Policy) Apply(interval int) (int, bool) {
	if p.Mode == Ignore {
		return 0, false
	}
	v, sign := interval, 1
	if p.Tear != Raw && v < 0 {
		v, sign = -v, -1
	}
	switch p.Mode {
	case Clamp:
		lo, hi := p.A, p.B
		if lo > hi {
			lo, hi = hi, lo
		}
		if v < lo {
			v = lo
		}
		if v > hi {
			v = hi
		}
	case Force:
		v = p.A
	case Disable:
		v = 0
	case Enable:
		if v < 1 {
			v = 1
		}
	case Min:
		if v < p.A {
			v = p.A
		}
	case Max:
		if v > p.A {
			v = p.A
		}
	}
	switch p.Tear {
	case KeepSign:
		v *= sign
	case DisableTear:
		v = abs(v)
	case EnableTear:
		v = -abs(v)
	case InvertSign:
		v *= -sign
	}
	return v, true
}

func (p Policy) String() string {
	return fmt.Sprintf("%s(%d,%d) tear=%s", p.Mode, p.A, p.B, p.Tear)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
