package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clinicare/cli/internal/backend"
	apperr "clinicare/cli/internal/errors"
)

var (
	listSkip  int
	listLimit int

	createPatient string
	createDate    string
	createNotes   string
	createCodes   []int64
)

var consultationCmd = &cobra.Command{
	Use:     "consultation",
	Aliases: []string{"consult", "c"},
	Short:   "Record and review consultation notes",
}

var consultationListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List consultation notes",
	Annotations: requiresAuth,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		list, err := a.api.ListConsultations(cmd.Context(), backend.WithSkip(listSkip), backend.WithPageSize(listLimit))
		if err != nil {
			return present(err, "listing consultations")
		}
		return render(cmd.OutOrStdout(), a.output, list, func() [][]string {
			rows := [][]string{{"ID", "Date", "Patient", "Diagnoses", "Notes"}}
			for _, c := range list.Consultations {
				rows = append(rows, []string{
					strconv.FormatInt(c.ID, 10),
					c.ConsultationDate.String(),
					c.PatientName,
					codeList(c.DiagnosisCodes),
					truncate(strings.ReplaceAll(c.Notes, "\n", " "), 50),
				})
			}
			return rows
		})
	},
}

var consultationGetCmd = &cobra.Command{
	Use:         "get <id>",
	Short:       "Show one consultation note",
	Args:        cobra.ExactArgs(1),
	Annotations: requiresAuth,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return present(apperr.New(apperr.Invalid, fmt.Sprintf("consultation id must be a positive number, got %q", args[0])), "fetching consultation")
		}
		c, err := a.api.GetConsultation(cmd.Context(), id)
		if err != nil {
			return present(err, fmt.Sprintf("fetching consultation %d", id))
		}
		return renderConsultation(cmd, a.output, c)
	},
}

var consultationCreateCmd = &cobra.Command{
	Use:         "create",
	Short:       "Record a consultation note",
	Annotations: requiresAuth,
	Example: `  clinicare consultation create --patient "Jane Doe" --date 2025-03-14T09:30 \
    --notes "Fever and cough for three days." --code 12 --code 40`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		date := backend.NewTime(time.Now())
		if createDate != "" {
			t, err := backend.ParseTime(createDate)
			if err != nil {
				return present(apperr.Wrap(apperr.Invalid, "--date must look like 2025-03-14 or 2025-03-14T09:30", err), "recording consultation")
			}
			date = t
		}
		in := backend.ConsultationCreate{
			PatientName:      strings.TrimSpace(createPatient),
			ConsultationDate: date,
			Notes:            createNotes,
			DiagnosisCodeIDs: createCodes,
		}
		if err := in.Validate(); err != nil {
			return present(err, "recording consultation")
		}

		c, err := a.api.CreateConsultation(cmd.Context(), in)
		if err != nil {
			return present(err, "recording consultation")
		}
		if a.output == OutputTable {
			success(cmd, "Consultation %d recorded", c.ID)
		}
		return renderConsultation(cmd, a.output, c)
	},
}

func init() {
	rootCmd.AddCommand(consultationCmd)
	consultationCmd.AddCommand(consultationListCmd, consultationGetCmd, consultationCreateCmd)

	consultationListCmd.Flags().IntVar(&listSkip, "skip", 0, "Number of notes to skip")
	consultationListCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum number of notes (server default 100)")

	f := consultationCreateCmd.Flags()
	f.StringVar(&createPatient, "patient", "", "Patient name")
	f.StringVar(&createDate, "date", "", "Consultation date, e.g. 2025-03-14T09:30 (default now)")
	f.StringVar(&createNotes, "notes", "", "Consultation notes")
	f.Int64SliceVar(&createCodes, "code", nil, "Diagnosis code id (repeatable)")
	_ = consultationCreateCmd.MarkFlagRequired("patient")
	_ = consultationCreateCmd.MarkFlagRequired("notes")
	_ = consultationCreateCmd.MarkFlagRequired("code")
}

func renderConsultation(cmd *cobra.Command, format string, c backend.Consultation) error {
	return render(cmd.OutOrStdout(), format, c, func() [][]string {
		rows := keyValues(
			"ID", strconv.FormatInt(c.ID, 10),
			"Patient", c.PatientName,
			"Date", c.ConsultationDate.String(),
			"Recorded", c.CreatedAt.String(),
			"Notes", c.Notes,
		)
		for _, d := range c.DiagnosisCodes {
			rows = append(rows, []string{"Diagnosis", d.Code + "  " + d.Description})
		}
		return rows
	})
}

func codeList(codes []backend.DiagnosisCode) string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, c.Code)
	}
	return strings.Join(out, ", ")
}
