// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

// ParseLevel maps a config/flag value to a pterm log level. Unknown values yield warn.
func ParseLevel(level string) pterm.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "info":
		return pterm.LogLevelInfo
	case "error":
		return pterm.LogLevelError
	case "off", "disabled", "none":
		return pterm.LogLevelDisabled
	default:
		return pterm.LogLevelWarn
	}
}

// New returns the logger shared by the session store and the API client.
// CLINICARE_LOG_FORMAT=json switches to one JSON object per line.
func New(level string, w io.Writer) *pterm.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := pterm.DefaultLogger.WithLevel(ParseLevel(level)).WithWriter(w)
	if strings.EqualFold(os.Getenv("CLINICARE_LOG_FORMAT"), "json") {
		l = l.WithFormatter(pterm.LogFormatterJSON)
	}
	return l
}

// Discard returns a logger that drops everything; used when no logger is injected.
func Discard() *pterm.Logger {
	return pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled).WithWriter(io.Discard)
}
