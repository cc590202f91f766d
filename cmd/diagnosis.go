package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"clinicare/cli/internal/backend"
)

var diagnosisLimit int

var diagnosisCmd = &cobra.Command{
	Use:     "diagnosis",
	Aliases: []string{"dx"},
	Short:   "Look up ICD-10 diagnosis codes",
}

// diagnosisSearchCmd searches codes by code or description. No login needed.
var diagnosisSearchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search ICD-10 codes by code or description",
	Long: `Search ICD-10 diagnosis codes. Without a term the API's default set is listed.
Use the ids shown here with 'clinicare consultation create --code'.`,
	Example: `  clinicare diagnosis search influenza
  clinicare diagnosis search J10 --limit 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		term := strings.TrimSpace(strings.Join(args, " "))

		var opts []backend.QueryOption
		if diagnosisLimit > 0 {
			opts = append(opts, backend.WithLimit(diagnosisLimit))
		}
		res, err := a.api.SearchDiagnosisCodes(cmd.Context(), term, opts...)
		if err != nil {
			return present(err, "searching diagnosis codes")
		}

		return render(cmd.OutOrStdout(), a.output, res, func() [][]string {
			rows := [][]string{{"ID", "Code", "Description"}}
			for _, c := range res.Results {
				rows = append(rows, []string{strconv.FormatInt(c.ID, 10), c.Code, truncate(c.Description, 80)})
			}
			return rows
		})
	},
}

func init() {
	rootCmd.AddCommand(diagnosisCmd)
	diagnosisCmd.AddCommand(diagnosisSearchCmd)
	diagnosisSearchCmd.Flags().IntVar(&diagnosisLimit, "limit", 0, "Maximum number of results (1-100, server default 50)")
}
