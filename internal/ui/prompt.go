package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/term"

	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
)

// Prompter asks the operator a question and returns the trimmed answer.
type Prompter interface {
	Ask(prompt string) (string, error)
}

// LinePrompter reads answers line by line.
type LinePrompter struct {
	r *bufio.Reader
	w io.Writer
}

// NewLinePrompter prompts on w and reads answers from r.
func NewLinePrompter(r io.Reader, w io.Writer) *LinePrompter {
	return &LinePrompter{r: bufio.NewReader(r), w: w}
}

// Ask prints prompt and reads one line. Input that ends without a final
// newline is still returned; a closed input with nothing left is an error.
func (p *LinePrompter) Ask(prompt string) (string, error) {
	fmt.Fprint(p.w, StyleWarning.Render(prompt)+" ")
	line, err := p.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", clierr.New(clierr.CodeUsage, "input closed while waiting for an answer")
		}
		return "", clierr.Wrap(clierr.CodeUsage, "reading input", err)
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question. Only y or yes (any case) count as yes.
func Confirm(p Prompter, question string) (bool, error) {
	answer, err := p.Ask(question + " (y/N):")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// Choose asks for a menu option in 1..n and re-asks until the answer is valid.
func Choose(p Prompter, w io.Writer, prompt string, n int) (int, error) {
	for {
		answer, err := p.Ask(fmt.Sprintf("%s (1-%d):", prompt, n))
		if err != nil {
			return 0, err
		}
		if choice, convErr := strconv.Atoi(answer); convErr == nil && choice >= 1 && choice <= n {
			return choice, nil
		}
		fmt.Fprintln(w, Warn(fmt.Sprintf("Please enter a number between 1 and %d.", n)))
	}
}

// ReadSecret reads a line from a terminal without echoing it.
func ReadSecret(fd int, w io.Writer, prompt string) (string, error) {
	if !term.IsTerminal(fd) {
		return "", clierr.New(clierr.CodeUsage, "hidden input requires a terminal")
	}
	fmt.Fprint(w, StyleWarning.Render(prompt)+" ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeUsage, "reading hidden input", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// IsTerminal reports whether fd is attached to a terminal.
func IsTerminal(fd int) bool { return term.IsTerminal(fd) }
