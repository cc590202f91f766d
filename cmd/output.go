package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	apperr "clinicare/cli/internal/errors"
)

// Output formats accepted by --output.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

func checkOutput(format string) error {
	switch format {
	case OutputTable, OutputJSON, OutputYAML:
		return nil
	default:
		return apperr.New(apperr.Invalid, fmt.Sprintf("unknown output format %q (use table, json or yaml)", format))
	}
}

// render writes v as JSON or YAML, or calls table for the table format.
// table returns rows with the header first.
func render(w io.Writer, format string, v any, table func() [][]string) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		rows := table()
		if len(rows) <= 1 {
			fmt.Fprintln(w, "No results.")
			return nil
		}
		s, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, s)
		return nil
	}
}

// keyValues renders pairs as a two-column table.
func keyValues(pairs ...string) [][]string {
	rows := [][]string{{"Field", "Value"}}
	for i := 0; i+1 < len(pairs); i += 2 {
		rows = append(rows, []string{pairs[i], pairs[i+1]})
	}
	return rows
}

// truncate shortens s to n runes for table cells.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
