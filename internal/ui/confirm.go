package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Prompter asks questions on a terminal. One reader is shared across
// prompts so buffered input is not lost between questions.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from in and writes questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

var stdPrompter = NewPrompter(os.Stdin, os.Stdout)

// Confirm prompts the user with a yes/no question. Returns true for yes.
func Confirm(prompt string) bool { return stdPrompter.Confirm(prompt) }

// ConfirmDanger asks a yes/no question about a destructive action on stdin.
func ConfirmDanger(prompt string) bool { return stdPrompter.ConfirmDanger(prompt) }

// Input asks for a line of text on stdin.
func Input(prompt string) string { return stdPrompter.Input(prompt) }

// Confirm prompts with a yes/no question. Anything but y/yes is no.
func (p *Prompter) Confirm(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", StyleWarning.Render(prompt))
	line := strings.ToLower(p.readLine())
	return line == "y" || line == "yes"
}

// ConfirmDanger is like Confirm but styled with the error color (for destructive actions).
func (p *Prompter) ConfirmDanger(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", StyleError.Render("⚠ "+prompt))
	line := strings.ToLower(p.readLine())
	return line == "y" || line == "yes"
}

// Input asks for a line of text and returns it trimmed.
func (p *Prompter) Input(prompt string) string {
	fmt.Fprintf(p.out, "%s: ", StyleValue.Render(prompt))
	return p.readLine()
}

func (p *Prompter) readLine() string {
	line, _ := p.in.ReadString('\n')
	return strings.TrimSpace(line)
}
