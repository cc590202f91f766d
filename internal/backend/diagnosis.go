// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"net/http"
	"net/url"
)

// SearchDiagnosisCodes calls GET /diagnosis. No authentication required.
// The search parameter is sent only for a non-empty term; without it the server
// returns its default result set.
func (h *HTTP) SearchDiagnosisCodes(ctx context.Context, term string, opts ...QueryOption) (DiagnosisSearchResult, error) {
	q := url.Values{}
	if term != "" {
		q.Set("search", term)
	}
	q = applyQuery(q, opts)

	var out DiagnosisSearchResult
	err := h.do(ctx, call{op: "search diagnosis codes", method: http.MethodGet, path: h.endpoints.Diagnosis, query: q}, &out)
	return out, err
}
