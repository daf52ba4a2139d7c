package selector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// DefaultExternal is fzf showing only the command column.
var DefaultExternal = External{
	Name: "fzf",
	Args: []string{"--delimiter=\\t", "--with-nth=2..", "--no-sort", "--height=40%", "--reverse"},
}

// External runs a picker program that reads lines on stdin and writes the
// chosen line on stdout, the way fzf, sk and peco do.
type External struct {
	Name   string
	Args   []string
	Stderr io.Writer
}

// ParseExternal splits a configured picker command line into an External.
func ParseExternal(command string) (External, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return External{}, errors.New("selector: empty picker command")
	}
	return External{Name: fields[0], Args: fields[1:]}, nil
}

// Available reports whether the picker program is on PATH.
func (e External) Available() bool {
	_, err := exec.LookPath(e.Name)
	return err == nil
}

func (e External) Select(ctx context.Context, lines []string) (string, error) {
	var out bytes.Buffer
	c := exec.CommandContext(ctx, e.Name, e.Args...)
	c.Stdin = strings.NewReader(strings.Join(lines, "\n") + "\n")
	c.Stdout = &out
	c.Stderr = e.Stderr

	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		// fzf: 1 no match, 130 interrupted.
		if errors.As(err, &exitErr) && (exitErr.ExitCode() == 1 || exitErr.ExitCode() == 130) {
			return "", ErrNoSelection
		}
		return "", fmt.Errorf("selector: %s: %w", e.Name, err)
	}

	chosen, _, _ := strings.Cut(out.String(), "\n")
	if chosen == "" {
		return "", ErrNoSelection
	}
	return chosen, nil
}
