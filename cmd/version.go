// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Version holds the CLI version information.
	// This value is typically set at build time using -ldflags.
	Version = "0.0.0-dev"
)

// printVersion prints the CLI version and whether the API answers.
func printVersion(cmd *cobra.Command) error {
	a := appFrom(cmd)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "clinicare %s\n", Version)

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	h, err := a.api.Health(ctx)
	if err != nil {
		fmt.Fprintf(out, "api %s unreachable\n", a.api.BaseURL())
		return nil
	}
	fmt.Fprintf(out, "api %s %s\n", a.api.BaseURL(), h.Status)
	return nil
}
