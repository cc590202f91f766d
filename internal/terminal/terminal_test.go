package terminal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	var out bytes.Buffer
	got, err := ReadLine(strings.NewReader("house\r\nignored\n"), &out, "Username: ")
	require.NoError(t, err)
	assert.Equal(t, "house", got)
	assert.Equal(t, "Username: ", out.String())

	got, err = ReadLine(strings.NewReader("no-newline"), &out, "")
	require.NoError(t, err)
	assert.Equal(t, "no-newline", got)

	_, err = ReadLine(strings.NewReader(""), &out, "")
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestReadSecretSharesBufferWithReadLine(t *testing.T) {
	var out bytes.Buffer
	in := NewInput(strings.NewReader("house\nvicodin\n"))

	user, err := ReadLine(in, &out, "Username: ")
	require.NoError(t, err)
	assert.Equal(t, "house", user)

	pass, err := ReadSecret(in, &out, "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "vicodin", pass)
	assert.Equal(t, "Username: ", out.String(), "no prompt or echo off a terminal")

	_, err = ReadSecret(in, &out, "Password: ")
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestLinesFor(t *testing.T) {
	tests := []struct {
		length, width, want int
	}{
		{0, 80, 2},
		{10, 80, 2},
		{80, 80, 2},
		{81, 80, 3},
		{200, 0, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, linesFor(tt.length, tt.width), "length=%d width=%d", tt.length, tt.width)
	}
}

func TestClearLines(t *testing.T) {
	var out bytes.Buffer
	clearLines(&out, 2)
	assert.Equal(t, "\r\x1b[2K\x1b[1A\r\x1b[2K", out.String())
}
