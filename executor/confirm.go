package executor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ConfirmPrompt is asked once, after every disk has been reviewed.
const ConfirmPrompt = "confirm disk setup: (y or yes) "

// Confirmer asks for an explicit go-ahead before anything destructive runs.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// PromptConfirmer reads one line from in. Only "y" and "yes" confirm,
// case-insensitively; anything else, including end of input, declines.
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

func (p *PromptConfirmer) Confirm(prompt string) (bool, error) {
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return false, err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return IsAffirmative(line), nil
}

func IsAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// AutoConfirm always says yes, for unattended runs.
type AutoConfirm struct{}

func (AutoConfirm) Confirm(string) (bool, error) { return true, nil }
