// memo saves shell commands and brings them back by number.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"memo/app"
	"memo/config"
	"memo/db"
	"memo/runner"
	"memo/selector"
	"memo/ui"
)

const appName = "memo"

// Set by ldflags.
var version = "dev"

// cli carries what every subcommand needs once configuration is loaded.
type cli struct {
	stdin  *os.File
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool
	words      []string // arguments left after memo's own flags

	cfg      *config.Config
	logger   *slog.Logger
	app      *app.App
	exitCode int
}

func main() {
	c := &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(c.execute(os.Args[1:]))
}

func (c *cli) execute(args []string) int {
	if args == nil {
		// cobra falls back to os.Args on nil.
		args = []string{}
	}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	if err := root.Execute(); err != nil {
		if !errors.Is(err, selector.ErrNoSelection) {
			fmt.Fprintf(c.stderr, "%s: %v\n", appName, err)
		}
		var ue usageError
		if errors.As(err, &ue) {
			return 2
		}
		return 1
	}
	return c.exitCode
}

// setup loads configuration and builds the app. It runs before every
// subcommand.
func (c *cli) setup() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	level := cfg.Level()
	if c.verbose {
		level = slog.LevelDebug
	}
	c.cfg = cfg
	c.logger = slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))

	opts := app.Options{
		Store:  storeOptions(cfg, c.logger),
		Limit:  cfg.Limit,
		Cap:    cfg.Cap,
		Stdout: c.stdout,
		Stderr: c.stderr,
		Executor: runner.Runner{
			Shell:  cfg.Shell,
			Stdin:  c.stdin,
			Stdout: c.stdout,
			Stderr: c.stderr,
		},
		IsDangerous: runner.IsDangerous,
		Logger:      c.logger,
	}
	if cfg.ConfirmDangerous {
		opts.Confirmer = ui.Confirmer{Input: c.stdin, Output: c.stderr}
	}
	c.app = app.New(opts)

	c.logger.Debug("configured", "db", cfg.DBPath, "driver", cfg.Driver, "picker", cfg.Picker)
	return nil
}

// storeOptions maps configuration onto the store. A configured zero
// turns the busy timeout or retries off rather than selecting the
// store's default.
func storeOptions(cfg *config.Config, logger *slog.Logger) db.Options {
	return db.Options{
		Path:        cfg.DBPath,
		Driver:      cfg.Driver,
		BusyTimeout: orDisabled(cfg.BusyTimeout),
		Retries:     orDisabled(cfg.Retries),
		Logger:      logger,
	}
}

func orDisabled(n int) int {
	if n == 0 {
		return db.Disabled
	}
	return n
}
