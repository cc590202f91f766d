// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides the typed HTTP client for the ClinicCare API.
// It defines the API contract for authentication, ICD-10 diagnosis search and
// consultation notes, and an HTTP implementation that attaches the current
// session's bearer token to every authenticated request.
package backend

import "context"

// API defines backend operations the CLI depends on.
// Implementations may call real HTTP endpoints or provide mocks for tests.
type API interface {
	// Login exchanges credentials for a token and the doctor's profile.
	Login(ctx context.Context, creds Credentials) (AuthResponse, error)
	// Register creates an account and returns a token for it.
	Register(ctx context.Context, reg Registration) (AuthResponse, error)
	// Me returns the profile that owns accessToken.
	Me(ctx context.Context, accessToken string) (Doctor, error)
	// ListDoctors returns every registered doctor, active or not.
	ListDoctors(ctx context.Context) ([]Doctor, error)
	// SearchDiagnosisCodes searches ICD-10 codes; an empty term returns the server default set.
	SearchDiagnosisCodes(ctx context.Context, term string, opts ...QueryOption) (DiagnosisSearchResult, error)
	ListConsultations(ctx context.Context, opts ...QueryOption) (ConsultationList, error)
	GetConsultation(ctx context.Context, id int64) (Consultation, error)
	CreateConsultation(ctx context.Context, c ConsultationCreate) (Consultation, error)
	Health(ctx context.Context) (Health, error)
}

// TokenSource yields the bearer token to attach, or "" when there is no session.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token returns s.
func (s StaticToken) Token() string { return string(s) }

var _ API = (*HTTP)(nil)
