// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"clinicare/cli/internal/auth"
	apperr "clinicare/cli/internal/errors"
	"clinicare/cli/internal/terminal"
)

var (
	loginUsername      string
	loginPasswordStdin bool
	loginForce         bool
)

// loginCmd represents the login command.
// It exchanges a username and password for a bearer token and stores the
// resulting session so later commands are authenticated.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with your ClinicCare username and password",
	Long: `The login command signs in to the ClinicCare API. The password is read without
echo from the terminal, or from standard input with --password-stdin.

On success the token and your doctor profile are saved to the session store so
that later commands run as you. If you are already logged in the command does
nothing unless --force is given.`,
	Example: `  clinicare login -u house
  echo "$PASSWORD" | clinicare login -u house --password-stdin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		if a.session.IsAuthenticated() && !loginForce {
			doc, _ := a.session.Doctor()
			info(cmd, "Already logged in as %s. Use --force to sign in again.", displayName(doc.DisplayName()))
			return nil
		}

		in := terminal.NewInput(cmd.InOrStdin())
		username, password, err := readCredentials(cmd, in, loginUsername, loginPasswordStdin)
		if err != nil {
			return present(err, "reading credentials")
		}

		var id auth.Identity
		err = withSpinner(cmd, "Signing in", func() (err error) {
			id, err = a.session.Login(cmd.Context(), username, password)
			return err
		})
		if err != nil {
			return present(err, "logging in")
		}
		greet(cmd, id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (prompted when omitted)")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "Read the password from standard input")
	loginCmd.Flags().BoolVar(&loginForce, "force", false, "Sign in even if already logged in")
}

// readCredentials prompts for whatever was not given on the command line.
func readCredentials(cmd *cobra.Command, in *terminal.Input, username string, passwordStdin bool) (string, string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		if passwordStdin {
			return "", "", apperr.New(apperr.Invalid, "--password-stdin requires --username")
		}
		prompt := "Username: "
		u, err := terminal.ReadLine(in, cmd.OutOrStdout(), prompt)
		if err != nil {
			return "", "", err
		}
		username = strings.TrimSpace(u)
	}
	if username == "" {
		return "", "", apperr.New(apperr.Invalid, "username is required")
	}

	var (
		password string
		err      error
	)
	if passwordStdin {
		password, err = terminal.ReadLine(in, cmd.OutOrStdout(), "")
	} else {
		prompt := "Password: "
		password, err = terminal.ReadSecret(in, cmd.OutOrStdout(), prompt)
		terminal.ClearPreviousLines(len(prompt))
	}
	if err != nil {
		return "", "", err
	}
	if password == "" {
		return "", "", apperr.New(apperr.Invalid, "password is required")
	}
	return username, password, nil
}

func greet(cmd *cobra.Command, id auth.Identity) {
	name := displayName(id.Doctor.DisplayName())
	if id.Doctor.Username != "" && id.Doctor.Username != name {
		name += " (" + id.Doctor.Username + ")"
	}
	success(cmd, "Logged in as %s", name)
}

func displayName(s string) string {
	if s == "" {
		return "unknown doctor"
	}
	return s
}
