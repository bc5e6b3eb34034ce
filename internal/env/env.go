// SPDX-License-Identifier: Unlicense OR MIT

// Package env reads the scalar GH_* configuration variables and expands
// output file name templates.
package env

import (
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// Source looks up a variable, returning "" when it is unset.
type Source func(name string) string

// OS reads the process environment.
func OS(name string) string {
	return os.Getenv(name)
}

// Map returns a Source backed by m.
func Map(m map[string]string) Source {
	return func(name string) string {
		return m[name]
	}
}

// Int parses name as an integer in any base strconv accepts with base 0,
// returning def if the variable is unset or malformed.
func (s Source) Int(name string, def int) int {
	v := strings.TrimSpace(s(name))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 0, 64)
	if err != nil {
		return def
	}
	return int(n)
}

// Uint is like Int for unsigned values such as bit masks.
func (s Source) Uint(name string, def uint) uint {
	v := strings.TrimSpace(s(name))
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 0, 64)
	if err != nil {
		return def
	}
	return uint(n)
}

// Bool treats any non-zero integer, "true", "yes" and "on" as set.
func (s Source) Bool(name string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(s(name)))
	switch v {
	case "":
		return def
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	n, err := strconv.ParseInt(v, 0, 64)
	if err != nil {
		return def
	}
	return n != 0
}

// String returns the variable or def when it is unset.
func (s Source) String(name, def string) string {
	if v := s(name); v != "" {
		return v
	}
	return def
}

// Micros reads a count of microseconds.
func (s Source) Micros(name string, def time.Duration) time.Duration {
	n := s.Int(name, -1)
	if n < 0 {
		return def
	}
	return time.Duration(n) * time.Microsecond
}

// Nanos reads a count of nanoseconds.
func (s Source) Nanos(name string, def time.Duration) time.Duration {
	n := s.Int(name, -1)
	if n < 0 {
		return def
	}
	return time.Duration(n)
}

// Expand substitutes %p with the process id, %c with ctx, %t with the
// current Unix time and %% with a single percent sign. Unknown
// sequences are kept verbatim.
func Expand(tmpl string, ctx uint) string {
	return expand(tmpl, unix.Getpid(), ctx, time.Now())
}

func expand(tmpl string, pid int, ctx uint, now time.Time) string {
	if !strings.Contains(tmpl, "%") {
		return tmpl
	}
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '%' || i+1 == len(tmpl) {
			b.WriteByte(c)
			continue
		}
		i++
		switch tmpl[i] {
		case 'p':
			b.WriteString(strconv.Itoa(pid))
		case 'c':
			b.WriteString(strconv.FormatUint(uint64(ctx), 10))
		case 't':
			b.WriteString(strconv.FormatInt(now.Unix(), 10))
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(tmpl[i])
		}
	}
	return b.String()
}
