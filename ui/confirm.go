package ui

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#FF7B72"})

// Confirmer asks before a dangerous command is executed.
type Confirmer struct {
	Input  io.Reader
	Output io.Writer
}

// Confirm shows command and reports whether the user chose to run it.
// Aborting the prompt counts as no. When Input is not a terminal the
// answer is read as a plain y/N line.
func (c Confirmer) Confirm(command string) (bool, error) {
	in := c.Input
	if in == nil {
		in = os.Stdin
	}
	lineMode := !terminal(in)

	title := warningStyle.Render("Dangerous command, run?")
	if lineMode {
		// Descriptions are not shown in line mode.
		title = warningStyle.Render("Run dangerous command:") + " " + command
	}

	var ok bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(command).
			Affirmative("Run").
			Negative("Cancel").
			Value(&ok),
	)).WithInput(in).WithAccessible(lineMode)
	if c.Output != nil {
		form = form.WithOutput(c.Output)
	}

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("ui: confirm: %w", err)
	}
	return ok, nil
}

func terminal(r io.Reader) bool {
	f, ok := r.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
