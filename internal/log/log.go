// SPDX-License-Identifier: Unlicense OR MIT

// Package log implements the verbosity gated message output of the
// shim on top of the standard library logger.
package log

import (
	"fmt"
	"io"
	"log"
	"os"

	"glxhook.org/internal/env"
)

type Level int

const (
	None Level = iota
	Error
	Warning
	Info
	Debug
	// Interception logs every resolver query and intercepted lookup.
	Interception
)

const DefaultLevel = Warning

// Logger writes messages up to its level. A nil *Logger discards
// everything.
type Logger struct {
	level Level
	out   *log.Logger
}

func New(w io.Writer, level Level) *Logger {
	return &Logger{
		level: level,
		out:   log.New(w, "GH: ", 0),
	}
}

// FromEnv configures a Logger from GH_VERBOSE and GH_VERBOSE_FILE. The
// file is opened for appending; stderr is used if it cannot be opened.
func FromEnv(src env.Source) *Logger {
	level := Level(src.Int("GH_VERBOSE", int(DefaultLevel)))
	if level < None {
		level = DefaultLevel
	}
	var w io.Writer = os.Stderr
	if tmpl := src("GH_VERBOSE_FILE"); tmpl != "" && level > None {
		name := env.Expand(tmpl, 0)
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err == nil {
			w = f
		} else {
			fmt.Fprintf(os.Stderr, "GH: failed to open log file %q: %v\n", name, err)
		}
	}
	return New(w, level)
}

func (l *Logger) Enabled(level Level) bool {
	return l != nil && level != None && level <= l.level
}

func (l *Logger) Printf(level Level, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	l.out.Output(2, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Printf(Error, format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Printf(Warning, format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.Printf(Info, format, args...)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.Printf(Debug, format, args...)
}

func (l *Logger) Interceptf(format string, args ...interface{}) {
	l.Printf(Interception, format, args...)
}
