package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errNoInput = errors.New("no input available")

// prompter reads answers line by line from one reader.
type prompter struct {
	r   *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	if in == nil {
		return &prompter{out: out}
	}
	return &prompter{r: bufio.NewReader(in), out: out}
}

// value returns v if set, and asks for label otherwise.
func (p *prompter) value(v, label string) (string, error) {
	if v != "" {
		return v, nil
	}
	if p.r == nil {
		return "", fmt.Errorf("%s required: %w", strings.ToLower(label), errNoInput)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
