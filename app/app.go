// Package app implements memo's user-facing operations on top of the
// store and ranking. The store is opened for each operation and closed
// before returning, so no handle is held while a picker or prompt waits
// on the user.
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"memo/db"
	"memo/model"
	"memo/rank"
	"memo/selector"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
)

var ordinalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)

// Executor runs a command in the user's shell and returns its exit code.
type Executor interface {
	Run(ctx context.Context, cmd string) (int, error)
}

// Confirmer asks the user whether to go ahead with a dangerous command.
type Confirmer interface {
	Confirm(command string) (bool, error)
}

type Options struct {
	Store  db.Options
	Limit  int // display window for List; 0 means unlimited
	Cap    int // entries kept after each save; 0 disables pruning
	Stdout io.Writer
	Stderr io.Writer

	Executor Executor
	// Confirmer is consulted for commands matching IsDangerous. Nil runs
	// everything without asking.
	Confirmer   Confirmer
	IsDangerous func(string) bool
	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
	Logger    *slog.Logger
}

type App struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options) *App {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.IsDangerous == nil {
		opts.IsDangerous = func(string) bool { return false }
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Store.Logger == nil {
		opts.Store.Logger = opts.Logger
	}
	return &App{opts: opts, logger: opts.Logger}
}

// withStore opens the store, runs fn and closes it again.
func (a *App) withStore(ctx context.Context, fn func(*db.DB) error) error {
	s, err := db.New(ctx, a.opts.Store)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			a.logger.Warn("closing store", "err", cerr)
		}
	}()
	return fn(s)
}

func entries(ctx context.Context, s *db.DB, filter string) ([]model.Entry, error) {
	memos, err := s.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	return rank.Number(memos), nil
}

func resolve(ctx context.Context, s *db.DB, filter string, ordinal int) (model.Memo, error) {
	es, err := entries(ctx, s, filter)
	if err != nil {
		return model.Memo{}, err
	}
	return rank.At(es, ordinal)
}

// Entries returns the full ranked sequence for filter.
func (a *App) Entries(ctx context.Context, filter string) ([]model.Entry, error) {
	var es []model.Entry
	err := a.withStore(ctx, func(s *db.DB) error {
		var err error
		es, err = entries(ctx, s, filter)
		return err
	})
	return es, err
}

// Resolve re-queries live state and returns the memo at ordinal. Another
// process writing since an earlier listing can change the answer.
func (a *App) Resolve(ctx context.Context, filter string, ordinal int) (model.Memo, error) {
	var m model.Memo
	err := a.withStore(ctx, func(s *db.DB) error {
		var err error
		m, err = resolve(ctx, s, filter, ordinal)
		return err
	})
	return m, err
}

// resolveAndTouch resolves ordinal and records the selection. A failed
// resolve touches nothing.
func (a *App) resolveAndTouch(ctx context.Context, filter string, ordinal int) (model.Memo, error) {
	var m model.Memo
	err := a.withStore(ctx, func(s *db.DB) error {
		found, err := resolve(ctx, s, filter, ordinal)
		if err != nil {
			return err
		}
		m, err = s.TouchByID(ctx, found.ID)
		return err
	})
	return m, err
}

// Save stores command, prunes past the cap and lists the top entries.
func (a *App) Save(ctx context.Context, command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return fmt.Errorf("app: save: empty command: %w", model.ErrInvalidInput)
	}

	err := a.withStore(ctx, func(s *db.DB) error {
		m, err := s.InsertOrTouch(ctx, command)
		if err != nil {
			return err
		}
		a.logger.Debug("saved", "id", m.ID, "use_count", m.UseCount)

		if a.opts.Cap > 0 {
			if _, err := prune(ctx, s, a.opts.Cap); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return a.List(ctx, "", a.opts.Limit)
}

// List writes "[n] command" for the first limit entries matching filter.
// It never records usage.
func (a *App) List(ctx context.Context, filter string, limit int) error {
	es, err := a.Entries(ctx, filter)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(a.opts.Stdout)
	for _, e := range rank.Truncate(es, limit) {
		fmt.Fprintf(w, "%s %s\n", ordinalStyle.Render(fmt.Sprintf("[%d]", e.Ordinal)), e.Command)
	}
	return w.Flush()
}

// Print writes the raw command at ordinal and records the selection.
func (a *App) Print(ctx context.Context, ordinal int, filter string) error {
	m, err := a.resolveAndTouch(ctx, filter, ordinal)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.opts.Stdout, m.Command)
	return err
}

// Run records the selection and hands the command to the executor,
// returning its exit code. Usage is recorded even if execution fails.
func (a *App) Run(ctx context.Context, ordinal int, filter string) (int, error) {
	m, err := a.Resolve(ctx, filter, ordinal)
	if err != nil {
		return 1, err
	}

	if a.opts.Confirmer != nil && a.opts.IsDangerous(m.Command) {
		ok, err := a.opts.Confirmer.Confirm(m.Command)
		if err != nil {
			return 1, err
		}
		if !ok {
			return 1, fmt.Errorf("app: run %q: %w", m.Command, model.ErrAborted)
		}
	}

	err = a.withStore(ctx, func(s *db.DB) error {
		_, err := s.TouchByID(ctx, m.ID)
		return err
	})
	if err != nil {
		return 1, err
	}

	if a.opts.Executor == nil {
		return 1, fmt.Errorf("app: run: no executor configured")
	}
	a.logger.Debug("running", "id", m.ID, "command", m.Command)
	return a.opts.Executor.Run(ctx, m.Command)
}

// Copy puts the command at ordinal on the clipboard. Without a usable
// clipboard the command is printed instead, with a warning on stderr.
func (a *App) Copy(ctx context.Context, ordinal int, filter string) error {
	m, err := a.resolveAndTouch(ctx, filter, ordinal)
	if err != nil {
		return err
	}

	if err := a.opts.Clipboard(m.Command); err != nil {
		a.logger.Debug("clipboard unavailable", "err", err)
		fmt.Fprintln(a.opts.Stdout, m.Command)
		fmt.Fprintln(a.opts.Stderr, "warning: clipboard unavailable")
		return nil
	}
	_, err = fmt.Fprintf(a.opts.Stdout, "copied [%d]\n", ordinal)
	return err
}

// Delete removes the entry at ordinal.
func (a *App) Delete(ctx context.Context, ordinal int, filter string) error {
	var m model.Memo
	err := a.withStore(ctx, func(s *db.DB) error {
		var err error
		m, err = resolve(ctx, s, filter, ordinal)
		if err != nil {
			return err
		}
		return s.DeleteByID(ctx, m.ID)
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.opts.Stdout, "deleted [%d] %s\n", ordinal, m.Command)
	return err
}

// Prune deletes every entry ranked below the first keep and returns how
// many went.
func (a *App) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("app: prune: keep %d: %w", keep, model.ErrInvalidInput)
	}
	var n int
	err := a.withStore(ctx, func(s *db.DB) error {
		var err error
		n, err = prune(ctx, s, keep)
		return err
	})
	return n, err
}

func prune(ctx context.Context, s *db.DB, keep int) (int, error) {
	n, err := s.Count(ctx)
	if err != nil || n <= keep {
		return 0, err
	}
	es, err := entries(ctx, s, "")
	if err != nil {
		return 0, err
	}
	if len(es) <= keep {
		return 0, nil
	}
	for _, e := range es[keep:] {
		if err := s.DeleteByID(ctx, e.ID); err != nil {
			return 0, err
		}
	}
	return len(es) - keep, nil
}

// Selectable writes the selector feed for every entry matching filter.
func (a *App) Selectable(ctx context.Context, filter string) error {
	es, err := a.Entries(ctx, filter)
	if err != nil {
		return err
	}
	return selector.Write(a.opts.Stdout, es)
}

// Pick lets the user choose an entry with sel and prints its raw command.
// The feed comes from a closed snapshot; the choice is resolved against a
// fresh read.
func (a *App) Pick(ctx context.Context, filter string, sel selector.Selector) error {
	es, err := a.Entries(ctx, filter)
	if err != nil {
		return err
	}
	if len(es) == 0 {
		return fmt.Errorf("app: pick: %w", selector.ErrNoSelection)
	}

	line, err := sel.Select(ctx, selector.Lines(es))
	if err != nil {
		return err
	}
	ordinal, err := selector.ParseSelection(line)
	if err != nil {
		return err
	}
	return a.Print(ctx, ordinal, filter)
}
