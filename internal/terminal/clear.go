// Package terminal provides utilities for terminal operations: prompting for
// credentials without echo and clearing prompts once they are answered.
package terminal

import (
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/term"
)

// ClearPreviousLines clears text from the terminal that was previously printed.
// It calculates how many lines were used by the provided text based on the current
// terminal width, then moves up and clears each line.
//
// The login and register commands use it to remove credential prompts after they've been entered.
//
// Parameters:
//   - textLength: The total number of characters in the text to clear (prompt + user input)
//
// The function:
//  1. Gets the current terminal width (defaults to 80 if unavailable)
//  2. Calculates how many lines the text occupied
//  3. Moves up and clears each line using ANSI escape sequences
//  4. Adds +1 to account for the extra line created when user presses Enter
func ClearPreviousLines(textLength int) {
	if !IsInteractive() {
		return
	}
	clearLines(os.Stdout, linesFor(textLength, Width()))
}

// Width returns the terminal width, or 80 when stdout is not a terminal.
func Width() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// linesFor returns how many lines to clear for text of the given length,
// including the empty line the cursor sits on after Enter.
func linesFor(textLength, termWidth int) int {
	if termWidth <= 0 {
		termWidth = 80
	}
	totalLines := int(math.Ceil(float64(textLength) / float64(termWidth)))
	if totalLines < 1 {
		totalLines = 1 // At minimum, we have 1 line
	}
	return totalLines + 1
}

func clearLines(w io.Writer, n int) {
	for i := 0; i < n; i++ {
		fmt.Fprint(w, "\r\x1b[2K") // Move to start and clear entire line
		if i < n-1 {
			fmt.Fprint(w, "\x1b[1A") // Move up one line (don't move up on last iteration)
		}
	}
}
