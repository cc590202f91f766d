// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"net/http"
)

// Login calls POST /auth/login-json. No authentication required.
func (h *HTTP) Login(ctx context.Context, creds Credentials) (AuthResponse, error) {
	var out AuthResponse
	err := h.do(ctx, call{op: "login", method: http.MethodPost, path: h.endpoints.Login, body: creds}, &out)
	return out, err
}

// Register calls POST /auth/register. No authentication required.
func (h *HTTP) Register(ctx context.Context, reg Registration) (AuthResponse, error) {
	var out AuthResponse
	err := h.do(ctx, call{op: "register", method: http.MethodPost, path: h.endpoints.Register, body: reg}, &out)
	return out, err
}

// Me calls GET /auth/me with the given token rather than the token source,
// so the session can verify a token it has not committed yet.
func (h *HTTP) Me(ctx context.Context, accessToken string) (Doctor, error) {
	var out Doctor
	err := h.do(ctx, call{op: "me", method: http.MethodGet, path: h.endpoints.Me, header: bearer(accessToken)}, &out)
	return out, err
}

// ListDoctors calls GET /auth/doctors.
func (h *HTTP) ListDoctors(ctx context.Context) ([]Doctor, error) {
	var out []Doctor
	err := h.do(ctx, call{op: "list doctors", method: http.MethodGet, path: h.endpoints.Doctors, header: h.authHeaders()}, &out)
	return out, err
}
