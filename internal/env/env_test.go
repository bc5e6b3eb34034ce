// SPDX-License-Identifier: Unlicense OR MIT

package env

import (
	"testing"
	"time"
)

func TestScalars(t *testing.T) {
	s := Map(map[string]string{
		"A": "12",
		"B": "0x10",
		"C": "junk",
		"D": "yes",
		"E": "0",
		"F": "250",
	})
	if got := s.Int("A", 0); got != 12 {
		t.Errorf("Int(A) = %d want 12", got)
	}
	if got := s.Uint("B", 0); got != 16 {
		t.Errorf("Uint(B) = %d want 16", got)
	}
	if got := s.Int("C", 7); got != 7 {
		t.Errorf("Int(C) = %d want default 7", got)
	}
	if got := s.Int("missing", -2); got != -2 {
		t.Errorf("Int(missing) = %d want -2", got)
	}
	if !s.Bool("D", false) {
		t.Error("Bool(D) = false want true")
	}
	if s.Bool("E", true) {
		t.Error("Bool(E) = true want false")
	}
	if got := s.Micros("F", 0); got != 250*time.Microsecond {
		t.Errorf("Micros(F) = %v", got)
	}
	if got := s.String("missing", "def"); got != "def" {
		t.Errorf("String(missing) = %q", got)
	}
}

func TestExpand(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tests := []struct {
		tmpl string
		want string
	}{
		{"plain.csv", "plain.csv"},
		{"ft-%p-ctx%c.csv", "ft-42-ctx3.csv"},
		{"at-%t", "at-1700000000"},
		{"100%%", "100%"},
		{"keep %x", "keep %x"},
		{"trailing%", "trailing%"},
	}
	for _, tt := range tests {
		if got := expand(tt.tmpl, 42, 3, now); got != tt.want {
			t.Errorf("expand(%q) = %q want %q", tt.tmpl, got, tt.want)
		}
	}
}
