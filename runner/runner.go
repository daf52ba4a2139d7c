// Package runner executes a chosen command through the user's shell.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
)

var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\brm\b`),
	regexp.MustCompile(`\bsudo\b`),
	regexp.MustCompile(`\bdd\b`),
	regexp.MustCompile(`\bmkfs`),
	regexp.MustCompile(`\bshutdown\b`),
	regexp.MustCompile(`\breboot\b`),
	regexp.MustCompile(`\bpoweroff\b`),
	regexp.MustCompile(`\|\s*(ba|z)?sh\b`),
}

// IsDangerous reports whether cmd looks destructive enough to confirm first.
func IsDangerous(cmd string) bool {
	for _, re := range dangerousPatterns {
		if re.MatchString(cmd) {
			return true
		}
	}
	return false
}

// Runner runs commands with `Shell -c`, wired to the given streams.
type Runner struct {
	Shell  string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes cmd and returns its exit code. A non-zero exit is not an
// error; err is set only when the shell could not be started.
func (r Runner) Run(ctx context.Context, cmd string) (int, error) {
	shell := r.Shell
	if shell == "" {
		shell = "sh"
	}

	c := exec.CommandContext(ctx, shell, "-c", cmd)
	c.Stdin = r.Stdin
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr

	err := c.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		// Killed by a signal.
		return 1, nil
	}
	return 1, fmt.Errorf("runner: %s: %w", shell, err)
}
