package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"memo/model"

	"github.com/mattn/go-sqlite3"
)

const maxBackoff = 250 * time.Millisecond

// withRetry runs fn, retrying while SQLite reports the file busy or locked.
// Non-busy failures are returned at once. Anything other than ErrNotFound
// comes back wrapped in model.ErrStorage.
func (d *DB) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= d.retries; attempt++ {
		if attempt > 0 {
			d.logger.Debug("store busy, retrying", "op", op, "attempt", attempt, "err", err)
			if serr := sleepRetry(ctx, attempt); serr != nil {
				return fmt.Errorf("%w: db: %s: %w", model.ErrStorage, op, serr)
			}
		}
		err = fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		if !isBusy(err) {
			break
		}
	}
	return fmt.Errorf("%w: db: %s: %w", model.ErrStorage, op, err)
}

func sleepRetry(ctx context.Context, attempt int) error {
	backoff := time.Duration(attempt*attempt) * 20 * time.Millisecond
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(backoff):
		return nil
	}
}

// isBusy reports whether err is SQLite busy/locked. mattn exposes error
// codes; modernc only shows them in the message.
func isBusy(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED") ||
		strings.Contains(msg, "database is locked")
}
