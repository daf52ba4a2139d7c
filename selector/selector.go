// Package selector is the contract between memo and an interactive
// picker: a tab-delimited feed of ranked entries going out, one chosen
// line coming back.
package selector

import (
	"context"
	"errors"
)

// ErrNoSelection is returned when the user leaves the picker without
// choosing a line.
var ErrNoSelection = errors.New("no selection")

// Selector accepts lines and returns the one the user chose, verbatim.
type Selector interface {
	Select(ctx context.Context, lines []string) (string, error)
}
