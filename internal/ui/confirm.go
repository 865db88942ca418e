package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNotInteractive is returned by Secret when stdin is not a terminal and
// no fallback reader was configured.
var ErrNotInteractive = errors.New("stdin is not a terminal")

// Prompter asks questions on a terminal. The zero value is not usable; use
// NewPrompter or Stdio.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int // terminal fd for hidden input, -1 when in is not a terminal
}

// NewPrompter reads answers from in and writes prompts to out. Secrets are
// read as plain lines.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, fd: -1}
}

// Stdio prompts on stderr and reads stdin, hiding secrets when stdin is a
// terminal.
func Stdio() *Prompter {
	p := NewPrompter(os.Stdin, os.Stderr)
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		p.fd = fd
	}
	return p
}

// Interactive reports whether secrets can be read without echo.
func (p *Prompter) Interactive() bool { return p.fd >= 0 }

// Confirm prompts the user with a yes/no question. Returns true for yes.
func (p *Prompter) Confirm(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", StyleWarning.Render(prompt))
	return yes(p.line())
}

// ConfirmDanger is like Confirm but styled with the error color (for
// irreversible actions).
func (p *Prompter) ConfirmDanger(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", StyleError.Render("⚠ "+prompt))
	return yes(p.line())
}

// Ask prompts for a line of text, returning def when the answer is empty.
func (p *Prompter) Ask(prompt, def string) string {
	if def != "" {
		fmt.Fprintf(p.out, "%s %s: ", prompt, StyleMeta.Render("["+def+"]"))
	} else {
		fmt.Fprintf(p.out, "%s: ", prompt)
	}
	if s := p.line(); s != "" {
		return s
	}
	return def
}

// Secret prompts for a value without echoing it.
func (p *Prompter) Secret(prompt string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", prompt)
	if p.fd < 0 {
		s, err := p.in.ReadString('\n')
		if err != nil && s == "" {
			return "", fmt.Errorf("reading %s: %w", strings.ToLower(prompt), err)
		}
		return strings.TrimSpace(s), nil
	}
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(prompt), err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (p *Prompter) line() string {
	s, _ := p.in.ReadString('\n')
	return strings.TrimSpace(s)
}

func yes(s string) bool {
	s = strings.ToLower(s)
	return s == "y" || s == "yes"
}
