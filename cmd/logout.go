// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/spf13/cobra"
)

var logoutAll bool

// logoutCmd represents the logout command for clearing authentication state.
// It removes the saved token and profile. No request is sent to the API.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved session",
	Long: `The logout command clears the bearer token and doctor profile from memory and
from the session store. It never contacts the API and always leaves you logged out.

With --all the saved reporting database connection is removed as well.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		if err := a.session.Logout(); err != nil {
			warning(cmd, "Logged out, but the saved session could not be fully removed: %v", err)
		}
		if logoutAll && a.store != nil {
			if err := a.store.ClearAll(); err != nil {
				warning(cmd, "Could not remove all saved credentials: %v", err)
			}
		}
		success(cmd, "Logged out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "Also remove the saved reporting database connection")
}
