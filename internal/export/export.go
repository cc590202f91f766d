// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package export copies the clinic's consultation notes into a PostgreSQL
// reporting database. Rows are upserted by their API ids, so running an
// export twice leaves the database unchanged.
//
// Consultations carry no author in the API. The exported_by columns record
// the doctor whose session ran the most recent export of a row, nothing more.
package export

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pterm/pterm"

	"clinicare/cli/internal/backend"
	"clinicare/cli/internal/logging"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS clinicare_diagnosis_codes (
	id          BIGINT PRIMARY KEY,
	code        TEXT NOT NULL,
	description TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS clinicare_consultations (
	id                   BIGINT PRIMARY KEY,
	exported_by_id       BIGINT NOT NULL,
	exported_by_username TEXT NOT NULL,
	patient_name         TEXT NOT NULL,
	consultation_date    TIMESTAMP,
	notes                TEXT NOT NULL,
	created_at           TIMESTAMP,
	exported_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS clinicare_consultation_codes (
	consultation_id   BIGINT NOT NULL REFERENCES clinicare_consultations(id) ON DELETE CASCADE,
	diagnosis_code_id BIGINT NOT NULL REFERENCES clinicare_diagnosis_codes(id),
	PRIMARY KEY (consultation_id, diagnosis_code_id)
);`

const (
	upsertCodeSQL = `INSERT INTO clinicare_diagnosis_codes (id, code, description)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, description = EXCLUDED.description`

	upsertConsultationSQL = `INSERT INTO clinicare_consultations
	(id, exported_by_id, exported_by_username, patient_name, consultation_date, notes, created_at, exported_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (id) DO UPDATE SET
	exported_by_id = EXCLUDED.exported_by_id,
	exported_by_username = EXCLUDED.exported_by_username,
	patient_name = EXCLUDED.patient_name,
	consultation_date = EXCLUDED.consultation_date,
	notes = EXCLUDED.notes,
	created_at = EXCLUDED.created_at,
	exported_at = now()`

	clearLinksSQL = `DELETE FROM clinicare_consultation_codes WHERE consultation_id = $1`

	insertLinkSQL = `INSERT INTO clinicare_consultation_codes (consultation_id, diagnosis_code_id)
VALUES ($1, $2) ON CONFLICT DO NOTHING`
)

// Stats summarizes one export.
type Stats struct {
	Consultations  int
	DiagnosisCodes int
	Links          int
}

// Exporter writes consultations to the reporting database.
type Exporter struct {
	pool *pgxpool.Pool
	log  *pterm.Logger
}

// Connect opens and pings a pool for dsn.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %s", Describe(cfg), logging.Mask(err.Error()))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %s", Describe(cfg), logging.Mask(err.Error()))
	}
	return pool, nil
}

// New creates an Exporter over pool. A nil logger discards diagnostics.
func New(pool *pgxpool.Pool, log *pterm.Logger) *Exporter {
	if log == nil {
		log = logging.Discard()
	}
	return &Exporter{pool: pool, log: log}
}

// EnsureSchema creates the reporting tables if they do not exist.
func (e *Exporter) EnsureSchema(ctx context.Context) error {
	if _, err := e.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create reporting schema: %w", err)
	}
	return nil
}

// Export upserts every consultation and the diagnosis codes it references in
// one transaction. exporter is stamped as exported_by on each row.
func (e *Exporter) Export(ctx context.Context, exporter backend.Doctor, notes []backend.Consultation) (Stats, error) {
	batch, stats := buildBatch(exporter, notes)
	if batch.Len() == 0 {
		return stats, nil
	}

	err := pgx.BeginFunc(ctx, e.pool, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("statement %d of %d: %w", i+1, batch.Len(), err)
			}
		}
		return br.Close()
	})
	if err != nil {
		e.log.Error("export failed", e.log.Args("consultations", len(notes), "error", logging.Mask(err.Error())))
		return Stats{}, err
	}
	e.log.Info("export finished", e.log.Args(
		"consultations", stats.Consultations, "diagnosis_codes", stats.DiagnosisCodes, "links", stats.Links,
	))
	return stats, nil
}

// buildBatch queues the statements for notes: codes first, so link rows can
// reference them, then each consultation followed by its links.
func buildBatch(exporter backend.Doctor, notes []backend.Consultation) (*pgx.Batch, Stats) {
	b := &pgx.Batch{}
	var stats Stats

	seen := map[int64]bool{}
	for _, n := range notes {
		for _, c := range n.DiagnosisCodes {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			b.Queue(upsertCodeSQL, c.ID, c.Code, c.Description)
			stats.DiagnosisCodes++
		}
	}

	for _, n := range notes {
		b.Queue(upsertConsultationSQL,
			n.ID, exporter.ID, exporter.Username, n.PatientName,
			timestampArg(n.ConsultationDate), n.Notes, timestampArg(n.CreatedAt),
		)
		b.Queue(clearLinksSQL, n.ID)
		for _, c := range n.DiagnosisCodes {
			b.Queue(insertLinkSQL, n.ID, c.ID)
			stats.Links++
		}
		stats.Consultations++
	}
	return b, stats
}

// timestampArg maps a zero time to SQL NULL.
func timestampArg(t backend.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Time
}
