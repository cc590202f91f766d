// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"net/http"
	"strconv"
)

// ListConsultations calls GET /consultation for the current doctor.
func (h *HTTP) ListConsultations(ctx context.Context, opts ...QueryOption) (ConsultationList, error) {
	var out ConsultationList
	err := h.do(ctx, call{
		op:     "list consultations",
		method: http.MethodGet,
		path:   h.endpoints.Consultations,
		query:  applyQuery(nil, opts),
		header: h.authHeaders(),
	}, &out)
	return out, err
}

// GetConsultation calls GET /consultation/{id}. A missing note is an HTTP error
// with status 404.
func (h *HTTP) GetConsultation(ctx context.Context, id int64) (Consultation, error) {
	var out Consultation
	err := h.do(ctx, call{
		op:     "get consultation",
		method: http.MethodGet,
		path:   h.endpoints.Consultations + "/" + strconv.FormatInt(id, 10),
		header: h.authHeaders(),
	}, &out)
	return out, err
}

// CreateConsultation calls POST /consultation and returns the stored note with
// its diagnosis codes expanded.
func (h *HTTP) CreateConsultation(ctx context.Context, c ConsultationCreate) (Consultation, error) {
	if c.DiagnosisCodeIDs == nil {
		c.DiagnosisCodeIDs = []int64{}
	}
	var out Consultation
	err := h.do(ctx, call{
		op:     "create consultation",
		method: http.MethodPost,
		path:   h.endpoints.Consultations,
		header: h.authHeaders(),
		body:   c,
	}, &out)
	return out, err
}
