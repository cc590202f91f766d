// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages, so callers can branch on what went wrong (no network,
// rejected by the API, no local session) without parsing strings.
//
// The package supports wrapping underlying errors while maintaining error kind information,
// and exposes the HTTP status and response body of API failures.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// Transport indicates the request never produced an HTTP response (network unreachable,
	// DNS failure, timeout, connection reset).
	Transport Kind = "transport"
	// HTTP indicates the API answered with a non-2xx status.
	HTTP Kind = "http"
	// Unauthenticated indicates an operation needed a session token and none was present.
	Unauthenticated Kind = "unauthenticated"
	// Decode indicates a 2xx response whose body could not be decoded.
	Decode Kind = "decode"
	// Storage indicates the persistent session store could not be read or written.
	Storage Kind = "storage"
	// Superseded indicates a session result was discarded because a later operation was issued.
	Superseded Kind = "superseded"
	// Invalid indicates input rejected before any request was made.
	Invalid Kind = "invalid"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	// Status is the HTTP status code for Kind HTTP, zero otherwise.
	Status int
	// Body is the raw response body for Kind HTTP.
	Body []byte
	// Detail is the server-provided explanation extracted from Body, when present.
	Detail string
	Err    error
}

func (e *E) Error() string {
	msg := e.Message
	if e.Kind == HTTP {
		msg = fmt.Sprintf("%s: %d %s", e.Message, e.Status, http.StatusText(e.Status))
		if e.Detail != "" {
			msg += ": " + e.Detail
		}
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// NewHTTP builds an HTTP-kind error for a non-2xx response.
func NewHTTP(msg string, status int, body []byte, detail string) *E {
	return &E{Kind: HTTP, Message: msg, Status: status, Body: body, Detail: detail}
}

// Is reports whether any error in err's chain is an *E of the given kind.
func Is(err error, kind Kind) bool {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an HTTP error.
func StatusOf(err error) int {
	var e *E
	if stderrors.As(err, &e) && e.Kind == HTTP {
		return e.Status
	}
	return 0
}

// IsUnauthorized reports whether err is an HTTP 401 from the API.
func IsUnauthorized(err error) bool { return StatusOf(err) == http.StatusUnauthorized }

// IsNotFound reports whether err is an HTTP 404 from the API.
func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }
