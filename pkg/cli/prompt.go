package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter reads answers from a single buffered reader so input typed ahead
// of a prompt is not lost between reads.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter wraps in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	return &Prompter{in: br, out: out}
}

// Line displays a prompt and reads a full line of input.
// The returned string is trimmed of surrounding whitespace (including the newline).
// A final line without a newline is returned as is; io.EOF is reported only
// when nothing was read.
func (p *Prompter) Line(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(p.out, prompt)
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// LineOrFzf reads a full line and treats a single "/" as a request to pick a
// file with fzf under startDir. If fzf is unavailable or the selection is
// cancelled, the prompt is shown again for a typed answer.
//
// Reading the entire line preserves paths containing spaces.
func (p *Prompter) LineOrFzf(prompt, startDir string) (string, error) {
	input, err := p.Line(prompt)
	if err != nil {
		return "", err
	}
	if input != "/" {
		return input, nil
	}
	sel, selErr := SelectFileWithFzf(startDir)
	if selErr == nil && sel != "" {
		fmt.Fprintf(p.out, " [fzf] %s\n", sel)
		return sel, nil
	}
	return p.Line(prompt)
}

// Confirm asks a yes/no question; anything but y or yes is a no.
func (p *Prompter) Confirm(prompt string) (bool, error) {
	answer, err := p.Line(prompt)
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}
