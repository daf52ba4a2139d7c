package app

import (
	"fmt"
	"os"

	"memo/config"
	"memo/selector"
	"memo/ui"

	"github.com/mattn/go-isatty"
)

// Terminal reports whether f is an interactive terminal.
func Terminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewSelector builds the picker for kind. Auto prefers the external
// picker when installed, then the built-in TUI on a terminal, then the
// plain prompt.
func NewSelector(kind, command string, in, out *os.File) (selector.Selector, error) {
	ext := selector.DefaultExternal
	if command != "" {
		var err error
		if ext, err = selector.ParseExternal(command); err != nil {
			return nil, err
		}
	}
	ext.Stderr = out

	tui := ui.Picker{Input: in, Output: out}
	prompt := selector.Prompt{In: in, Out: out}

	switch kind {
	case config.PickerExternal:
		return ext, nil
	case config.PickerTUI:
		return tui, nil
	case config.PickerPrompt:
		return prompt, nil
	case config.PickerAuto, "":
		switch {
		case ext.Available():
			return ext, nil
		case Terminal(in) && Terminal(out):
			return tui, nil
		default:
			return prompt, nil
		}
	}
	return nil, fmt.Errorf("app: unknown picker %q", kind)
}
