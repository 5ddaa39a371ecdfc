package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter reads interactive input.
type Prompter interface {
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
}

// Terminal prompts on out and reads from in. Passwords are read without echo
// when in is a terminal.
type Terminal struct {
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader
}

// NewTerminal creates a Terminal.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out, reader: bufio.NewReader(in)}
}

// ReadInput implements Prompter.
func (t *Terminal) ReadInput(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	line, err := t.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadPassword implements Prompter.
func (t *Terminal) ReadPassword(prompt string) (string, error) {
	f, ok := t.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return t.ReadInput(prompt)
	}

	fmt.Fprint(t.out, prompt)
	pw, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(t.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
