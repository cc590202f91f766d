package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
)

var doctorsCmd = &cobra.Command{
	Use:         "doctors",
	Short:       "List doctors",
	Annotations: requiresAuth,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		docs, err := a.api.ListDoctors(cmd.Context())
		if err != nil {
			return present(err, "listing doctors")
		}
		return render(cmd.OutOrStdout(), a.output, docs, func() [][]string {
			rows := [][]string{{"ID", "Username", "Full name", "E-mail"}}
			for _, d := range docs {
				rows = append(rows, []string{strconv.FormatInt(d.ID, 10), d.Username, d.FullName, d.Email})
			}
			return rows
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorsCmd)
}
