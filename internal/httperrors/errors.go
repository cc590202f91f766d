// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns API and network failures into user-friendly messages.
package httperrors

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"

	apperr "clinicare/cli/internal/errors"
	"clinicare/cli/internal/logging"
)

// Category classifies a failure for presentation.
type Category string

const (
	Timeout           Category = "timeout"
	DNS               Category = "dns"
	ConnectionRefused Category = "connection_refused"
	TLS               Category = "tls"
	Unauthorized      Category = "unauthorized"
	Forbidden         Category = "forbidden"
	NotFound          Category = "not_found"
	Validation        Category = "validation"
	Server            Category = "server"
	NotLoggedIn       Category = "not_logged_in"
	Invalid           Category = "invalid"
	Generic           Category = "generic"
)

// Explanation is what gets shown for a failure.
type Explanation struct {
	Category Category
	Title    string
	Hints    []string
	// Detail is the masked server or error text, shortened for display.
	Detail string
}

// Present prints a user-friendly explanation of err and returns err unchanged.
// action describes what was being attempted, e.g. "logging in".
func Present(err error, action string) error {
	if err == nil {
		return nil
	}
	ex := Explain(err, action)
	pterm.Error.Println(ex.Title)
	if len(ex.Hints) > 0 {
		pterm.Println()
		for _, h := range ex.Hints {
			pterm.Println("  • " + h)
		}
	}
	if ex.Detail != "" {
		pterm.Println()
		pterm.Debug.Printfln("Technical details: %s", ex.Detail)
	}
	pterm.Println()
	return err
}

// Explain classifies err without printing anything.
func Explain(err error, action string) Explanation {
	ex := Explanation{Category: Generic, Detail: shorten(logging.Mask(err.Error()))}

	if apperr.Is(err, apperr.Unauthenticated) {
		ex.Category = NotLoggedIn
		ex.Title = "You are not logged in while " + action
		ex.Hints = []string{"Run 'clinicare login' and try again"}
		ex.Detail = ""
		return ex
	}
	if apperr.Is(err, apperr.Invalid) {
		ex.Category = Invalid
		ex.Title = "Invalid input while " + action + ": " + messageOf(err)
		ex.Detail = ""
		return ex
	}

	if status := apperr.StatusOf(err); status != 0 {
		var e *apperr.E
		if errors.As(err, &e) && e.Detail != "" {
			ex.Detail = shorten(logging.Mask(e.Detail))
		}
		switch {
		case status == http.StatusUnauthorized:
			ex.Category = Unauthorized
			ex.Title = "The server rejected your credentials while " + action
			ex.Hints = []string{"Check your username and password", "If you were logged in, your session has expired: run 'clinicare login'"}
		case status == http.StatusForbidden:
			ex.Category = Forbidden
			ex.Title = "You are not allowed to do this while " + action
			ex.Hints = []string{"Consultation notes are only visible to the doctor who wrote them"}
		case status == http.StatusNotFound:
			ex.Category = NotFound
			ex.Title = "Not found while " + action
		case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
			ex.Category = Validation
			ex.Title = "The server rejected the request while " + action
			if ex.Detail != "" {
				ex.Hints = []string{ex.Detail}
			}
		case status >= 500:
			ex.Category = Server
			ex.Title = "Server error while " + action
			ex.Hints = []string{"This is not a problem with your setup", "Please try again in a few minutes"}
		default:
			ex.Title = http.StatusText(status) + " while " + action
		}
		return ex
	}

	switch {
	case isTimeoutError(err):
		ex.Category = Timeout
		ex.Title = "Connection timeout while " + action
		ex.Hints = []string{"The server took too long to respond", "Check your network and try again in a few moments"}
	case isDNSError(err):
		ex.Category = DNS
		ex.Title = "Cannot resolve server address while " + action
		ex.Hints = []string{"Check that --api-base points at the right host", "Check your DNS settings"}
	case isConnectionRefusedError(err):
		ex.Category = ConnectionRefused
		ex.Title = "Connection refused while " + action
		ex.Hints = []string{"Is the ClinicCare API running?", "Check the port in --api-base"}
	case isSSLError(err):
		ex.Category = TLS
		ex.Title = "Secure connection failed while " + action
		ex.Hints = []string{"Check your system date and time", "Verify network proxy settings"}
	default:
		ex.Title = "Cannot reach the ClinicCare API while " + action
		ex.Hints = []string{"Check your network connection", "Check the --api-base setting"}
	}
	return ex
}

func messageOf(err error) string {
	var e *apperr.E
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func shorten(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

// isTimeoutError checks if the error is a timeout error.
func isTimeoutError(err error) bool {
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isDNSError checks if the error is a DNS resolution error.
func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// isConnectionRefusedError checks if the error is a connection refused error.
func isConnectionRefusedError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

// isSSLError checks if the error is an SSL/TLS error.
func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
