package cmd

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"clinicare/cli/internal/httperrors"
	"clinicare/cli/internal/terminal"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// shownError wraps an error that has already been explained to the user, so
// Execute does not print it a second time.
type shownError struct{ err error }

func (e *shownError) Error() string { return e.err.Error() }
func (e *shownError) Unwrap() error { return e.err }

// present explains err to the user and marks it as shown.
func present(err error, action string) error {
	if err == nil {
		return nil
	}
	var shown *shownError
	if errors.As(err, &shown) {
		return err
	}
	return &shownError{httperrors.Present(err, action)}
}

// startInlineSpinner starts a simple inline spinner animation on a single line.
// It displays rotating animation frames followed by the provided text, updating
// the same line in the terminal. The spinner runs in a separate goroutine and
// can be stopped by calling the returned function.
//
// Returns a function that stops the spinner and cleans up when called.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				line := fmt.Sprintf("%s %s", frames[i%len(frames)], text)
				// Clear the spinner line completely, then return
				fmt.Fprintf(w, "\r%*s\r", len(line), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %s", frames[i%len(frames)], text)
				i++
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
		})
	}
}

// withSpinner runs fn behind a spinner when attached to a terminal.
func withSpinner(cmd *cobra.Command, text string, fn func() error) error {
	if !terminal.IsInteractive() {
		return fn()
	}
	cursor.Hide()
	defer cursor.Show()
	stop := startInlineSpinner(cmd.ErrOrStderr(), text, spinnerFrames, 120*time.Millisecond)
	err := fn()
	stop()
	return err
}

func success(cmd *cobra.Command, format string, args ...any) {
	pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln(format, args...)
}

func info(cmd *cobra.Command, format string, args ...any) {
	pterm.Info.WithWriter(cmd.OutOrStdout()).Printfln(format, args...)
}

func warning(cmd *cobra.Command, format string, args ...any) {
	pterm.Warning.WithWriter(cmd.ErrOrStderr()).Printfln(format, args...)
}
