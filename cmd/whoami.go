package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"clinicare/cli/internal/backend"
)

var whoamiOffline bool

// whoamiView is what whoami prints in json/yaml form.
type whoamiView struct {
	Doctor         backend.Doctor `json:"doctor" yaml:"doctor"`
	TokenExpiresAt *time.Time     `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	Offline        bool           `json:"offline" yaml:"offline"`
}

// whoamiCmd represents the whoami command for displaying current authentication state.
// It refreshes the doctor profile from the API, which also verifies the token.
var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Aliases: []string{"me"},
	Short:   "Show the logged-in doctor",
	Long: `The whoami command displays the profile of the logged-in doctor. It asks the API
for the current profile, which also confirms the saved token is still accepted.
If the API rejects the token you are logged out.

With --offline the saved profile and the token's expiry are shown without
contacting the API.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		id, ok := a.session.Identity()
		if !ok {
			info(cmd, "You're not logged in yet. Run 'clinicare login' to get started.")
			return nil
		}

		view := whoamiView{Doctor: id.Doctor, Offline: whoamiOffline}
		if exp, ok := id.ExpiresAt(); ok {
			view.TokenExpiresAt = &exp
		}
		if !whoamiOffline {
			doc, err := a.session.RefreshIdentity(cmd.Context())
			if err != nil {
				return present(err, "checking your session")
			}
			view.Doctor = doc
		}

		return render(cmd.OutOrStdout(), a.output, view, func() [][]string {
			d := view.Doctor
			rows := keyValues(
				"ID", strconv.FormatInt(d.ID, 10),
				"Username", d.Username,
				"Full name", d.FullName,
				"E-mail", d.Email,
				"Active", strconv.FormatBool(d.IsActive),
				"Member since", d.CreatedAt.String(),
			)
			if view.TokenExpiresAt != nil {
				rows = append(rows, []string{"Token expires", expiryText(*view.TokenExpiresAt, time.Now())})
			}
			return rows
		})
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
	whoamiCmd.Flags().BoolVar(&whoamiOffline, "offline", false, "Show the saved profile without contacting the API")
}

// expiryText renders an expiry relative to now.
func expiryText(exp, now time.Time) string {
	if !exp.After(now) {
		return fmt.Sprintf("%s (expired)", exp.Local().Format(time.RFC1123))
	}
	return fmt.Sprintf("%s (in %s)", exp.Local().Format(time.RFC1123), exp.Sub(now).Round(time.Minute))
}
