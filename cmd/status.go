package cmd

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"clinicare/cli/internal/logging"
)

type statusView struct {
	APIBase       string `json:"api_base" yaml:"api_base"`
	API           string `json:"api" yaml:"api"`
	Storage       string `json:"storage" yaml:"storage"`
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
	SessionValid  bool   `json:"session_valid" yaml:"session_valid"`
	Doctor        string `json:"doctor,omitempty" yaml:"doctor,omitempty"`
	Reason        string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// statusCmd reports configuration, API reachability and whether the saved session is valid.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show API reachability and session validity",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		view := statusView{
			APIBase:       a.api.BaseURL(),
			API:           "unreachable",
			Storage:       StorageNone,
			Authenticated: a.session.IsAuthenticated(),
		}
		if a.store != nil {
			view.Storage = a.store.Kind()
		}
		if h, err := a.api.Health(ctx); err == nil {
			view.API = h.Status
		}
		if view.Authenticated {
			ok, err := a.session.Validate(ctx)
			view.SessionValid = ok
			if err != nil {
				view.Reason = logging.Mask(err.Error())
			}
			if doc, found := a.session.Doctor(); found {
				view.Doctor = doc.DisplayName()
			}
			// A 401 during validation logs the session out.
			view.Authenticated = a.session.IsAuthenticated()
		}

		return render(cmd.OutOrStdout(), a.output, view, func() [][]string {
			return keyValues(
				"API", view.APIBase+" ("+view.API+")",
				"Storage", view.Storage,
				"Logged in", strconv.FormatBool(view.Authenticated),
				"Session valid", strconv.FormatBool(view.SessionValid),
				"Doctor", view.Doctor,
				"Reason", view.Reason,
			)
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
