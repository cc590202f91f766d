package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoInput is returned when the input ends before a line was read.
var ErrNoInput = errors.New("no input")

// IsInteractive reports whether both stdin and stdout are terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Input is a command's stdin wrapped once, so consecutive prompts for a
// username and a password read from the same buffer.
type Input struct {
	*bufio.Reader
	fd  int
	tty bool
}

// NewInput wraps r. Only an *os.File attached to a terminal is treated as one.
func NewInput(r io.Reader) *Input {
	in := &Input{Reader: bufio.NewReader(r), fd: -1}
	if f, ok := r.(*os.File); ok {
		in.fd = int(f.Fd())
		in.tty = term.IsTerminal(in.fd)
	}
	return in
}

// ReadLine writes prompt to w and reads one line from r, without the newline.
// Pass an *Input or *bufio.Reader to read several lines from one stream.
func ReadLine(r io.Reader, w io.Writer, prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(w, prompt)
	}
	br := bufio.NewReader(r)
	if in, ok := r.(*Input); ok {
		br = in.Reader
	}
	line, err := br.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadSecret prompts on w and reads a line from in without echo.
// When in is not a terminal the next buffered line is read as-is, which lets
// scripts pipe a username and password in together.
func ReadSecret(in *Input, w io.Writer, prompt string) (string, error) {
	if !in.tty {
		return ReadLine(in, io.Discard, "")
	}
	fmt.Fprint(w, prompt)
	b, err := term.ReadPassword(in.fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
