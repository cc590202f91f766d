// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apperr "clinicare/cli/internal/errors"
	"clinicare/cli/internal/logging"
)

// DefaultUserAgent is sent when no WithUserAgent option is given.
const DefaultUserAgent = "clinicare-cli/1.0"

// Endpoints contains REST API endpoint paths relative to the base URL.
type Endpoints struct {
	Login         string `json:"login"`         // e.g., "/auth/login-json"
	Register      string `json:"register"`      // e.g., "/auth/register"
	Me            string `json:"me"`            // e.g., "/auth/me"
	Doctors       string `json:"doctors"`       // e.g., "/auth/doctors"
	Diagnosis     string `json:"diagnosis"`     // e.g., "/diagnosis"
	Consultations string `json:"consultations"` // e.g., "/consultation"
	Health        string `json:"health"`        // e.g., "/health"
}

// DefaultEndpoints returns the paths served by the ClinicCare API.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:         "/auth/login-json",
		Register:      "/auth/register",
		Me:            "/auth/me",
		Doctors:       "/auth/doctors",
		Diagnosis:     "/diagnosis",
		Consultations: "/consultation",
		Health:        "/health",
	}
}

// HTTP implements API over the ClinicCare REST endpoints.
// It holds no per-user state: the bearer token is read from the TokenSource
// on every request.
type HTTP struct {
	// baseURL is the base URL for all HTTP requests (e.g., "http://localhost:8000/api")
	baseURL string
	// endpoints contains the URL paths for the API endpoints
	endpoints Endpoints
	// client is the underlying HTTP client with configured timeout
	client    *http.Client
	tokens    TokenSource
	log       *pterm.Logger
	userAgent string
}

// Option configures an HTTP client.
type Option func(*HTTP)

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option { return func(h *HTTP) { h.tokens = ts } }

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option { return func(h *HTTP) { h.client = c } }

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option { return func(h *HTTP) { h.client.Timeout = d } }

// WithEndpoints overrides the endpoint paths.
func WithEndpoints(e Endpoints) Option { return func(h *HTTP) { h.endpoints = e } }

// WithLogger sets the diagnostic logger.
func WithLogger(l *pterm.Logger) Option { return func(h *HTTP) { h.log = l } }

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option { return func(h *HTTP) { h.userAgent = ua } }

// New creates an HTTP client for the API rooted at baseURL.
// The default transport is instrumented with OpenTelemetry and times out after 10 seconds.
func New(baseURL string, opts ...Option) *HTTP {
	h := &HTTP{
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: DefaultEndpoints(),
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens:    StaticToken(""),
		log:       logging.Discard(),
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// BaseURL returns the API root this client talks to.
func (h *HTTP) BaseURL() string { return h.baseURL }

// authHeaders returns the Authorization header for the current session, or an
// empty header set when there is no token. It is computed on every call.
func (h *HTTP) authHeaders() http.Header {
	hdr := http.Header{}
	if tok := h.tokens.Token(); tok != "" {
		hdr.Set("Authorization", "Bearer "+tok)
	}
	return hdr
}

// bearer returns an Authorization header for an explicit token.
func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

// setStandardHeaders adds the headers every request carries and returns the request id.
func (h *HTTP) setStandardHeaders(req *http.Request) string {
	id := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("X-Request-ID", id)
	return id
}

// call describes one API request.
type call struct {
	op     string
	method string
	path   string
	query  url.Values
	header http.Header
	body   any
}

// do sends c and decodes a 2xx JSON body into out (when non-nil).
// Failures are logged with the operation context and returned as *errors.E of kind
// Transport, HTTP or Decode; callers return them unmodified.
func (h *HTTP) do(ctx context.Context, c call, out any) error {
	target := h.baseURL + c.path
	if len(c.query) > 0 {
		target += "?" + c.query.Encode()
	}
	what := c.method + " " + c.path

	var reqBody io.Reader
	if c.body != nil {
		b, err := json.Marshal(c.body)
		if err != nil {
			return apperr.Wrap(apperr.Invalid, "encode "+c.op+" request", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, target, reqBody)
	if err != nil {
		return apperr.Wrap(apperr.Invalid, what, err)
	}
	reqID := h.setStandardHeaders(req)
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Error("request failed", h.log.Args(
			"op", c.op, "method", c.method, "path", c.path, "request_id", reqID,
			"error", logging.Mask(err.Error()),
		))
		return apperr.Wrap(apperr.Transport, what, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		h.log.Error("reading response failed", h.log.Args(
			"op", c.op, "path", c.path, "status", resp.StatusCode, "request_id", reqID, "error", err.Error(),
		))
		return apperr.Wrap(apperr.Transport, what, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := apperr.NewHTTP(what, resp.StatusCode, b, extractDetail(b))
		h.log.Error("request rejected", h.log.Args(
			"op", c.op, "method", c.method, "path", c.path, "status", resp.StatusCode,
			"request_id", reqID, "detail", logging.Mask(e.Detail),
		))
		return e
	}

	h.log.Debug("request ok", h.log.Args(
		"op", c.op, "method", c.method, "path", c.path, "status", resp.StatusCode,
		"request_id", reqID, "elapsed", time.Since(start).String(),
	))

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		h.log.Error("decoding response failed", h.log.Args(
			"op", c.op, "path", c.path, "request_id", reqID, "error", err.Error(),
		))
		return apperr.Wrap(apperr.Decode, what, err)
	}
	return nil
}

// extractDetail pulls FastAPI's {"detail": ...} explanation out of an error body.
// Validation errors carry a list of {loc, msg}; their messages are joined.
func extractDetail(body []byte) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}
	var s string
	if err := json.Unmarshal(env.Detail, &s); err == nil {
		return s
	}
	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(env.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if len(it.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[len(it.Loc)-1], it.Msg))
				continue
			}
			msgs = append(msgs, it.Msg)
		}
		return strings.Join(msgs, "; ")
	}
	return string(env.Detail)
}

// Health calls GET /health. No authentication required.
func (h *HTTP) Health(ctx context.Context) (Health, error) {
	var out Health
	err := h.do(ctx, call{op: "health", method: http.MethodGet, path: h.endpoints.Health}, &out)
	return out, err
}
