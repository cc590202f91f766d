package cmd

import (
	"github.com/spf13/cobra"

	"clinicare/cli/internal/auth"
	"clinicare/cli/internal/backend"
	"clinicare/cli/internal/terminal"
)

var (
	registerUsername      string
	registerEmail         string
	registerFullName      string
	registerPasswordStdin bool
	registerForce         bool
)

// registerCmd creates a doctor account and signs in as it.
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a doctor account and sign in",
	Long: `The register command creates a new doctor account. Registration signs you in,
exactly as login would. The input is checked locally first: username 3 to 50
characters, a valid e-mail address, a full name and a password of at least 6
characters.`,
	Example: `  clinicare register -u cameron --email cameron@ppth.org --full-name "Allison Cameron"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		if a.session.IsAuthenticated() && !registerForce {
			doc, _ := a.session.Doctor()
			info(cmd, "Already logged in as %s. Log out first or use --force.", displayName(doc.DisplayName()))
			return nil
		}

		in := terminal.NewInput(cmd.InOrStdin())
		username, password, err := readCredentials(cmd, in, registerUsername, registerPasswordStdin)
		if err != nil {
			return present(err, "reading credentials")
		}
		reg := backend.Registration{
			Username: username,
			Email:    registerEmail,
			FullName: registerFullName,
			Password: password,
		}
		if err := reg.Validate(); err != nil {
			return present(err, "creating your account")
		}

		var id auth.Identity
		err = withSpinner(cmd, "Creating account", func() (err error) {
			id, err = a.session.Register(cmd.Context(), reg)
			return err
		})
		if err != nil {
			return present(err, "creating your account")
		}
		greet(cmd, id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	f := registerCmd.Flags()
	f.StringVarP(&registerUsername, "username", "u", "", "Username, 3 to 50 characters")
	f.StringVar(&registerEmail, "email", "", "E-mail address")
	f.StringVar(&registerFullName, "full-name", "", "Full name as shown to colleagues")
	f.BoolVar(&registerPasswordStdin, "password-stdin", false, "Read the password from standard input")
	f.BoolVar(&registerForce, "force", false, "Register even if already logged in")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("full-name")
}
