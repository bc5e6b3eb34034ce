// SPDX-License-Identifier: Unlicense OR MIT

package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Info)
	l.Errorf("e %d", 1)
	l.Warnf("w")
	l.Infof("i")
	l.Debugf("d")
	l.Interceptf("x")
	got := buf.String()
	want := "GH: e 1\nGH: w\nGH: i\n"
	if got != want {
		t.Errorf("output %q want %q", got, want)
	}
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	if l.Enabled(Error) {
		t.Error("nil logger reports enabled")
	}
	l.Errorf("must not panic")
}

func TestNoneDisables(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, None)
	l.Errorf("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("level None wrote a message")
	}
}
