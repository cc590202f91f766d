// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
	"time"

	apperr "clinicare/cli/internal/errors"
)

// Doctor is the authenticated user's profile as returned by the API.
type Doctor struct {
	ID        int64  `json:"id" yaml:"id"`
	Username  string `json:"username" yaml:"username"`
	Email     string `json:"email" yaml:"email"`
	FullName  string `json:"full_name" yaml:"full_name"`
	IsActive  bool   `json:"is_active" yaml:"is_active"`
	CreatedAt Time   `json:"created_at" yaml:"created_at"`
}

// DisplayName prefers the full name and falls back to the username.
func (d Doctor) DisplayName() string {
	if strings.TrimSpace(d.FullName) != "" {
		return d.FullName
	}
	return d.Username
}

// AuthResponse is returned by the login and registration endpoints.
type AuthResponse struct {
	Doctor      Doctor `json:"doctor"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Credentials is the JSON login payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the account-creation payload.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// Validate applies the server's account rules locally so obvious mistakes fail
// before a request is made.
func (r Registration) Validate() error {
	if n := len(strings.TrimSpace(r.Username)); n < 3 || n > 50 {
		return apperr.New(apperr.Invalid, "username must be 3 to 50 characters")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return apperr.Wrap(apperr.Invalid, "email is not a valid address", err)
	}
	if n := len(strings.TrimSpace(r.FullName)); n < 1 || n > 255 {
		return apperr.New(apperr.Invalid, "full name must be 1 to 255 characters")
	}
	if len(r.Password) < 6 {
		return apperr.New(apperr.Invalid, "password must be at least 6 characters")
	}
	return nil
}

// DiagnosisCode is an ICD-10 code record.
type DiagnosisCode struct {
	ID          int64  `json:"id" yaml:"id"`
	Code        string `json:"code" yaml:"code"`
	Description string `json:"description" yaml:"description"`
}

// DiagnosisSearchResult is the /diagnosis response.
type DiagnosisSearchResult struct {
	Results []DiagnosisCode `json:"results" yaml:"results"`
	Total   int             `json:"total" yaml:"total"`
}

// Consultation is the read model of a consultation note with its codes expanded.
type Consultation struct {
	ID               int64           `json:"id" yaml:"id"`
	PatientName      string          `json:"patient_name" yaml:"patient_name"`
	ConsultationDate Time            `json:"consultation_date" yaml:"consultation_date"`
	Notes            string          `json:"notes" yaml:"notes"`
	CreatedAt        Time            `json:"created_at" yaml:"created_at"`
	DiagnosisCodes   []DiagnosisCode `json:"diagnosis_codes" yaml:"diagnosis_codes"`
}

// ConsultationCreate is the write model; codes are referenced by id.
type ConsultationCreate struct {
	PatientName      string  `json:"patient_name"`
	ConsultationDate Time    `json:"consultation_date"`
	Notes            string  `json:"notes"`
	DiagnosisCodeIDs []int64 `json:"diagnosis_code_ids"`
}

// Validate mirrors the server's consultation rules.
func (c ConsultationCreate) Validate() error {
	if strings.TrimSpace(c.PatientName) == "" {
		return apperr.New(apperr.Invalid, "patient name cannot be empty")
	}
	if len(c.PatientName) > 255 {
		return apperr.New(apperr.Invalid, "patient name must be at most 255 characters")
	}
	if strings.TrimSpace(c.Notes) == "" {
		return apperr.New(apperr.Invalid, "notes cannot be empty")
	}
	if c.ConsultationDate.IsZero() {
		return apperr.New(apperr.Invalid, "consultation date is required")
	}
	if len(c.DiagnosisCodeIDs) == 0 {
		return apperr.New(apperr.Invalid, "at least one diagnosis code is required")
	}
	return nil
}

// ConsultationList is the /consultation response.
type ConsultationList struct {
	Consultations []Consultation `json:"consultations" yaml:"consultations"`
	Total         int            `json:"total" yaml:"total"`
}

// Health is the /health response.
type Health struct {
	Status string `json:"status" yaml:"status"`
}

// timeLayouts lists what the API emits: RFC 3339 when the value carries an
// offset, bare ISO-8601 otherwise.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Time is a timestamp that keeps the exact text it was decoded from, so a
// profile written back to storage is byte-identical to what the API sent.
type Time struct {
	time.Time
	raw string
}

// NewTime wraps t; it encodes as RFC 3339.
func NewTime(t time.Time) Time { return Time{Time: t} }

// ParseTime parses any of the layouts the API emits.
func ParseTime(s string) (Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Time{Time: t, raw: s}, nil
		}
	}
	return Time{}, fmt.Errorf("unrecognized time %q", s)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.raw != "" {
		return json.Marshal(t.raw)
	}
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

func (t *Time) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*t = Time{}
		return nil
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Time) MarshalYAML() (any, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.String(), nil
}

// String renders the timestamp for tables and logs.
func (t Time) String() string {
	if t.IsZero() {
		return ""
	}
	if t.raw != "" {
		return t.raw
	}
	return t.Time.Format(time.RFC3339)
}
