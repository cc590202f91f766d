// Package main is the entry point for the ClinicCare CLI application.
// It signs doctors in to the ClinicCare API and manages consultation notes.
package main

import (
	"clinicare/cli/cmd"
)

// main is the entry point for the ClinicCare CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
