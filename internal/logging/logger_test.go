// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/pterm/pterm"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]pterm.LogLevel{
		"debug":   pterm.LogLevelDebug,
		" INFO ":  pterm.LogLevelInfo,
		"error":   pterm.LogLevelError,
		"off":     pterm.LogLevelDisabled,
		"":        pterm.LogLevelWarn,
		"verbose": pterm.LogLevelWarn,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New("error", &buf)
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line written at error level: %q", buf.String())
	}
	l.Error("shown", l.Args("op", "login"))
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("error line missing: %q", buf.String())
	}
}

func TestPresentErrorMasks(t *testing.T) {
	got := PresentError("logging in", errors.New(`bad body {"password":"hunter2"}`))
	if strings.Contains(got, "hunter2") {
		t.Fatalf("password leaked: %s", got)
	}
	if PresentError("x", nil) != "" {
		t.Fatal("nil error should present as empty")
	}
}
