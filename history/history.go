// Package history reads the user's most recent shell command.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath returns $HISTFILE, falling back to ~/.zsh_history.
func DefaultPath() string {
	if p := os.Getenv("HISTFILE"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".zsh_history")
}

// LastCommand returns the newest command in the history file at path,
// skipping invocations of self. It returns "" and no error when the file
// is missing or holds nothing usable.
func LastCommand(path, self string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("history: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var (
		last    string
		pending strings.Builder
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()

		// zsh writes multi-line commands with a trailing backslash.
		if cont, ok := strings.CutSuffix(line, `\`); ok {
			pending.WriteString(cont)
			pending.WriteString("\n")
			continue
		}
		pending.WriteString(line)
		cmd := parseLine(pending.String())
		pending.Reset()

		if cmd == "" || isSelf(cmd, self) {
			continue
		}
		last = cmd
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("history: read %s: %w", path, err)
	}
	return last, nil
}

// parseLine strips the zsh extended-history prefix ": <ts>:<dur>;".
func parseLine(line string) string {
	if rest, ok := strings.CutPrefix(line, ":"); ok {
		if _, cmd, found := strings.Cut(rest, ";"); found {
			line = cmd
		}
	}
	return strings.TrimSpace(line)
}

func isSelf(cmd, self string) bool {
	return cmd == self || strings.HasPrefix(cmd, self+" ")
}
