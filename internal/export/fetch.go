package export

import (
	"context"

	"clinicare/cli/internal/backend"
)

// DefaultPageSize is the largest page the API serves.
const DefaultPageSize = 100

// Lister is the backend call FetchAll pages through.
type Lister interface {
	ListConsultations(ctx context.Context, opts ...backend.QueryOption) (backend.ConsultationList, error)
}

// FetchAll pages through ListConsultations until the reported total is reached
// or a short page arrives.
func FetchAll(ctx context.Context, api Lister, pageSize int) ([]backend.Consultation, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	var all []backend.Consultation
	for {
		page, err := api.ListConsultations(ctx, backend.WithSkip(len(all)), backend.WithPageSize(pageSize))
		if err != nil {
			return nil, err
		}
		all = append(all, page.Consultations...)
		if len(page.Consultations) < pageSize || len(all) >= page.Total {
			return all, nil
		}
	}
}
