package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	apperr "clinicare/cli/internal/errors"
	"clinicare/cli/internal/export"
	"clinicare/cli/internal/keychain"
)

var (
	exportDSN      string
	exportPageSize int
)

// exportCmd copies the clinic's consultations into the reporting database.
var exportCmd = &cobra.Command{
	Use:         "export",
	Short:       "Copy consultation notes into the reporting database",
	Annotations: requiresAuth,
	Long: `The export command fetches all consultation notes from the API and upserts
them, with their diagnosis codes, into PostgreSQL. Tables are created on first use.
Running it again updates rows in place. Each row records who ran the latest export
in exported_by_id and exported_by_username; notes have no author in the API.

The database is the one saved by 'clinicare connect' unless --dsn is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		ctx := cmd.Context()

		dsn := strings.TrimSpace(exportDSN)
		if dsn == "" && a.store != nil {
			saved, err := a.store.LoadReportDSN()
			if err != nil && !errors.Is(err, keychain.ErrNotFound) {
				return present(apperr.Wrap(apperr.Storage, "read saved DSN", err), "exporting")
			}
			dsn = saved
		}
		if dsn == "" {
			return present(apperr.New(apperr.Invalid, "no reporting database configured; run 'clinicare connect' or pass --dsn"), "exporting")
		}

		doctor, err := a.session.RefreshIdentity(ctx)
		if err != nil {
			return present(err, "checking your session")
		}

		notes, err := export.FetchAll(ctx, a.api, exportPageSize)
		if err != nil {
			return present(err, "fetching consultations")
		}

		pool, err := export.Connect(ctx, dsn)
		if err != nil {
			return present(err, "connecting to the reporting database")
		}
		defer pool.Close()

		ex := export.New(pool, a.log)
		var stats export.Stats
		err = withSpinner(cmd, "Exporting", func() error {
			if err := ex.EnsureSchema(ctx); err != nil {
				return err
			}
			stats, err = ex.Export(ctx, doctor, notes)
			return err
		})
		if err != nil {
			return present(err, "exporting")
		}
		success(cmd, "Exported %d consultations (%d diagnosis codes, %d links)", stats.Consultations, stats.DiagnosisCodes, stats.Links)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportDSN, "dsn", "", "PostgreSQL DSN (default: the one saved by connect)")
	exportCmd.Flags().IntVar(&exportPageSize, "page-size", export.DefaultPageSize, "Consultations fetched per request")
}
