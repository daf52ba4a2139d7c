// Package db is the memo store: a single SQLite table of saved commands.
// It supports the CGO mattn/go-sqlite3 driver and the pure-Go
// modernc.org/sqlite driver; both see the same schema and statements.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"memo/model"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3"
	_ "modernc.org/sqlite"          // registers "sqlite"
)

const (
	DriverCGO    = "sqlite3"
	DriverPureGo = "sqlite"

	defaultBusyTimeout = 5000
	defaultRetries     = 5
)

// Disabled turns off BusyTimeout or Retries; zero selects the default.
const Disabled = -1

// Options configures a store. Path is required; everything else has a default.
type Options struct {
	Path        string
	Driver      string
	BusyTimeout int // milliseconds
	Retries     int
	Logger      *slog.Logger
	Now         func() time.Time
}

func (o *Options) defaults() {
	if o.Driver == "" {
		o.Driver = DriverCGO
	}
	switch {
	case o.BusyTimeout == 0:
		o.BusyTimeout = defaultBusyTimeout
	case o.BusyTimeout < 0:
		o.BusyTimeout = 0
	}
	switch {
	case o.Retries == 0:
		o.Retries = defaultRetries
	case o.Retries < 0:
		o.Retries = 0
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

type DB struct {
	conn    *sql.DB
	logger  *slog.Logger
	now     func() time.Time
	retries int
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS memos (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		command      TEXT    NOT NULL UNIQUE,
		created_at   INTEGER NOT NULL,
		last_used_at INTEGER NOT NULL,
		use_count    INTEGER NOT NULL DEFAULT 1 CHECK (use_count >= 1)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_memos_last_used ON memos(last_used_at DESC)`,
}

// New opens (creating if needed) the store at opts.Path.
func New(ctx context.Context, opts Options) (*DB, error) {
	opts.defaults()
	if opts.Path == "" {
		return nil, fmt.Errorf("%w: db: empty path", model.ErrStorage)
	}
	if opts.Driver != DriverCGO && opts.Driver != DriverPureGo {
		return nil, fmt.Errorf("%w: db: unknown driver %q", model.ErrStorage, opts.Driver)
	}

	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("%w: db: create directory %s: %w", model.ErrStorage, dir, err)
		}
	}

	conn, err := sql.Open(opts.Driver, opts.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: db: open %s: %w", model.ErrStorage, opts.Path, err)
	}

	// One writer at a time; a single connection keeps the PRAGMAs in effect.
	conn.SetMaxOpenConns(1)

	d := &DB{
		conn:    conn,
		logger:  opts.Logger,
		now:     opts.Now,
		retries: opts.Retries,
	}

	if _, err := conn.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", opts.BusyTimeout)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: db: set busy_timeout: %w", model.ErrStorage, err)
	}

	err = d.withRetry(ctx, "migrate", func() error {
		if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			return err
		}
		return d.migrate(ctx)
	})
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	opts.Logger.Debug("store opened", "path", opts.Path, "driver", opts.Driver)
	return d, nil
}

func (d *DB) migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := d.conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

const memoColumns = `id, command, created_at, last_used_at, use_count`

// InsertOrTouch saves command. An existing identical command has its
// use count bumped and last-used time refreshed instead of a new row.
func (d *DB) InsertOrTouch(ctx context.Context, command string) (model.Memo, error) {
	var m model.Memo
	now := d.now().UnixNano()
	err := d.withRetry(ctx, "insert", func() error {
		row := d.conn.QueryRowContext(ctx, `
			INSERT INTO memos (command, created_at, last_used_at, use_count)
			VALUES (?, ?, ?, 1)
			ON CONFLICT(command) DO UPDATE SET
				use_count    = use_count + 1,
				last_used_at = MAX(last_used_at, excluded.last_used_at)
			RETURNING `+memoColumns,
			command, now, now,
		)
		var err error
		m, err = scanMemo(row)
		return err
	})
	return m, err
}

// Query returns memos whose command contains filter, ignoring case.
// An empty filter returns everything. Order is unspecified.
func (d *DB) Query(ctx context.Context, filter string) ([]model.Memo, error) {
	var memos []model.Memo
	err := d.withRetry(ctx, "query", func() error {
		memos = memos[:0]
		rows, err := d.conn.QueryContext(ctx, `SELECT `+memoColumns+` FROM memos`)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		needle := strings.ToLower(filter)
		for rows.Next() {
			m, err := scanMemo(rows)
			if err != nil {
				return err
			}
			if needle != "" && !strings.Contains(strings.ToLower(m.Command), needle) {
				continue
			}
			memos = append(memos, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return memos, nil
}

// TouchByID bumps the use count and last-used time of one memo.
func (d *DB) TouchByID(ctx context.Context, id int64) (model.Memo, error) {
	var m model.Memo
	now := d.now().UnixNano()
	err := d.withRetry(ctx, "touch", func() error {
		row := d.conn.QueryRowContext(ctx, `
			UPDATE memos SET
				use_count    = use_count + 1,
				last_used_at = MAX(last_used_at, ?)
			WHERE id = ?
			RETURNING `+memoColumns,
			now, id,
		)
		var err error
		m, err = scanMemo(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("db: touch id %d: %w", id, model.ErrNotFound)
		}
		return err
	})
	return m, err
}

// DeleteByID removes a memo. Deleting a missing id is not an error.
func (d *DB) DeleteByID(ctx context.Context, id int64) error {
	return d.withRetry(ctx, "delete", func() error {
		_, err := d.conn.ExecContext(ctx, `DELETE FROM memos WHERE id = ?`, id)
		return err
	})
}

// Count returns the number of stored memos.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	err := d.withRetry(ctx, "count", func() error {
		return d.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM memos`).Scan(&n)
	})
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMemo(s scanner) (model.Memo, error) {
	var (
		m                 model.Memo
		created, lastUsed int64
	)
	if err := s.Scan(&m.ID, &m.Command, &created, &lastUsed, &m.UseCount); err != nil {
		return model.Memo{}, err
	}
	m.CreatedAt = time.Unix(0, created)
	m.LastUsedAt = time.Unix(0, lastUsed)
	return m, nil
}
