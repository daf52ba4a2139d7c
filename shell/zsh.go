// Package shell renders shell integration scripts.
package shell

import (
	_ "embed"
	"fmt"
	"io"
	"strings"
	"text/template"
)

//go:embed memo.zsh
var zshSource string

var zshTemplate = template.Must(template.New("zsh").Parse(zshSource))

// Widget describes the zsh key binding. Choosing the picker is left to
// "<Name> pick", so the widget works with or without fzf installed.
type Widget struct {
	Name     string // invocation name, also the buffer trigger
	Key      string // bindkey sequence, e.g. ^I
	Fallback string // widget to run when the buffer is anything else
}

// Zsh writes the widget script to w.
func Zsh(w io.Writer, wd Widget) error {
	if wd.Name == "" || strings.ContainsAny(wd.Name, " \t'\"$;") {
		return fmt.Errorf("shell: invalid name %q", wd.Name)
	}
	if wd.Key == "" {
		wd.Key = "^I"
	}
	if wd.Fallback == "" {
		wd.Fallback = "expand-or-complete"
	}
	if err := zshTemplate.Execute(w, wd); err != nil {
		return fmt.Errorf("shell: render zsh: %w", err)
	}
	return nil
}
