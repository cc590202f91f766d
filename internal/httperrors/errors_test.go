package httperrors

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	apperr "clinicare/cli/internal/errors"
)

func TestExplain(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"not logged in", apperr.New(apperr.Unauthenticated, "not logged in"), NotLoggedIn},
		{"invalid input", apperr.New(apperr.Invalid, "notes cannot be empty"), Invalid},
		{"401", apperr.NewHTTP("GET /auth/me", http.StatusUnauthorized, nil, ""), Unauthorized},
		{"403", apperr.NewHTTP("GET /consultation/1", http.StatusForbidden, nil, ""), Forbidden},
		{"404", apperr.NewHTTP("GET /consultation/9", http.StatusNotFound, nil, "Consultation not found"), NotFound},
		{"422", apperr.NewHTTP("POST /auth/register", http.StatusUnprocessableEntity, nil, "email: invalid"), Validation},
		{"503", apperr.NewHTTP("GET /health", http.StatusServiceUnavailable, nil, ""), Server},
		{"deadline", apperr.Wrap(apperr.Transport, "GET /health", context.DeadlineExceeded), Timeout},
		{"dns", apperr.Wrap(apperr.Transport, "GET /health", &net.DNSError{Err: "no such host", Name: "api.invalid"}), DNS},
		{"refused", apperr.Wrap(apperr.Transport, "GET /health", errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")), ConnectionRefused},
		{"tls", apperr.Wrap(apperr.Transport, "GET /health", errors.New("x509: certificate signed by unknown authority")), TLS},
		{"other", errors.New("unexpected EOF"), Generic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := Explain(tt.err, "testing")
			assert.Equal(t, tt.want, ex.Category)
			assert.Contains(t, ex.Title, "testing")
		})
	}
}

func TestExplainMasksDetail(t *testing.T) {
	err := apperr.NewHTTP("POST /auth/login-json", http.StatusBadRequest, nil, `bad body {"password":"hunter2"}`)
	ex := Explain(err, "logging in")
	assert.NotContains(t, ex.Detail, "hunter2")
	assert.Equal(t, []string{ex.Detail}, ex.Hints)
}

func TestPresentReturnsErrorUnchanged(t *testing.T) {
	err := apperr.NewHTTP("GET /consultation/9", http.StatusNotFound, nil, "")
	assert.Same(t, err, Present(err, "fetching consultation").(*apperr.E))
	assert.NoError(t, Present(nil, "anything"))
}

func TestExtractHostFromURL(t *testing.T) {
	assert.Equal(t, "localhost:8000", ExtractHostFromURL("http://localhost:8000/api"))
	assert.Equal(t, "server", ExtractHostFromURL("::bad"))
}
