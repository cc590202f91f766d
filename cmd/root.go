// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the ClinicCare CLI application.
// It implements subcommands for signing in, searching ICD-10 diagnosis codes and
// managing consultation notes using the Cobra CLI framework. The root command builds
// one session and one API client per invocation and hands them to the subcommands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"clinicare/cli/internal/auth"
	"clinicare/cli/internal/backend"
	"clinicare/cli/internal/config"
	apperr "clinicare/cli/internal/errors"
	"clinicare/cli/internal/keychain"
	"clinicare/cli/internal/logging"
)

// StorageNone disables session persistence.
const StorageNone = "none"

// annotationRequiresAuth marks commands that refuse to run without a session.
const annotationRequiresAuth = "requiresAuth"

var requiresAuth = map[string]string{annotationRequiresAuth: "true"}

// openStorage opens the session store for a --storage value.
var openStorage = keychain.Open

var (
	showVersion bool
	flagAPIBase string
	flagStorage string
	flagOutput  string
	flagVerbose bool
)

// app is everything a command needs for one invocation.
type app struct {
	cfg     config.Config
	log     *pterm.Logger
	store   *keychain.Manager // nil with --storage none
	session *auth.Session
	api     *backend.HTTP
	output  string
}

type appKey struct{}

// rootCmd represents the base command when called without any subcommands.
// It serves as the entry point for the ClinicCare CLI application.
var rootCmd = &cobra.Command{
	Use:   "clinicare",
	Short: "ClinicCare CLI for ICD-10 lookups and consultation notes",
	Long: `clinicare is a command-line client for the ClinicCare API. Doctors sign in,
search ICD-10 diagnosis codes, and record and review consultation notes.

The session (bearer token and profile) is kept in the OS keychain by default so
it survives between invocations.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			return printVersion(cmd)
		}
		// If no flag is set, show help
		return cmd.Help()
	},
}

// Execute runs the CLI application.
// It executes the root command and handles any errors that occur during execution.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		var shown *shownError
		if !errors.As(err, &shown) {
			fmt.Fprintln(os.Stderr, logging.PresentError("clinicare", err))
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version and API health")
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagAPIBase, "api-base", "", "API base URL (default from config, "+config.DefaultAPIBase+")")
	pf.StringVar(&flagStorage, "storage", "", "Session storage: keychain, file, memory or none")
	pf.StringVarP(&flagOutput, "output", "o", "", "Output format: table, json or yaml")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// setup loads configuration, opens session storage, restores the session and
// builds the API client. Commands annotated with requiresAuth stop here when
// nobody is logged in.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-base") {
		cfg.APIBase = flagAPIBase
	}
	if flags.Changed("storage") {
		cfg.Storage = flagStorage
	}
	if flags.Changed("output") {
		cfg.Output = flagOutput
	}
	if flagVerbose {
		cfg.LogLevel = "debug"
	}
	if err := checkOutput(cfg.Output); err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel, cmd.ErrOrStderr())

	var (
		mgr   *keychain.Manager
		store auth.Storage
	)
	if cfg.Storage != StorageNone {
		mgr, err = openStorage(cfg.Storage, keychain.WithLogger(log))
		if err != nil {
			if cfg.Storage != keychain.KindKeychain {
				return apperr.Wrap(apperr.Storage, "open session storage", err)
			}
			// Headless machines often have no credential store.
			warning(cmd, "Session storage unavailable (%v); this session will not be saved. Try --storage file.", err)
			mgr = nil
		} else {
			store = mgr
		}
	}

	common := []backend.Option{
		backend.WithLogger(log),
		backend.WithTimeout(time.Duration(cfg.Timeout)),
		backend.WithUserAgent("clinicare-cli/" + Version),
	}
	session := auth.New(backend.New(cfg.APIBase, common...), store, auth.WithLogger(log))
	session.Subscribe(func(authenticated bool) {
		log.Debug("authentication state changed", log.Args("authenticated", authenticated))
	})
	api := backend.New(cfg.APIBase, append(common, backend.WithTokenSource(session))...)

	a := &app{cfg: cfg, log: log, store: mgr, session: session, api: api, output: cfg.Output}
	cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))

	if cmd.Annotations[annotationRequiresAuth] == "true" && !session.IsAuthenticated() {
		pterm.Warning.WithWriter(cmd.ErrOrStderr()).Println("You're not logged in. Run 'clinicare login' to get started.")
		return &shownError{apperr.New(apperr.Unauthenticated, cmd.CommandPath()+" requires a login")}
	}
	return nil
}

// appFrom returns the app built by setup.
func appFrom(cmd *cobra.Command) *app {
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}
