package selector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	ordinalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Prompt is the non-interactive fallback: it prints the enumerated
// listing to Out and reads an ordinal from In.
type Prompt struct {
	In  io.Reader
	Out io.Writer
}

func (p Prompt) Select(_ context.Context, lines []string) (string, error) {
	if len(lines) == 0 {
		return "", ErrNoSelection
	}

	byOrdinal := make(map[int]string, len(lines))
	for _, line := range lines {
		n, err := ParseSelection(line)
		if err != nil {
			return "", err
		}
		byOrdinal[n] = line
		_, cmd, _ := strings.Cut(line, "\t")
		fmt.Fprintf(p.Out, "%s %s\n", ordinalStyle.Render(fmt.Sprintf("[%d]", n)), cmd)
	}
	fmt.Fprint(p.Out, promptStyle.Render("number: "))

	input, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("selector: read choice: %w", err)
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrNoSelection
	}

	// Echo the original line so the ordinal goes through ParseSelection
	// like any other picker's output.
	n, err := ParseSelection(input + "\t")
	if err != nil {
		return "", err
	}
	line, ok := byOrdinal[n]
	if !ok {
		return input + "\t", nil
	}
	return line, nil
}
