package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"memo/app"
	"memo/history"
	"memo/model"
	"memo/shell"

	"github.com/spf13/cobra"
)

// usageError marks bad command-line arguments (exit status 2).
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func parseOrdinal(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, usageError{fmt.Errorf("%q is not a number: %w", s, model.ErrInvalidOrdinal)}
	}
	return n, nil
}

func isOrdinal(s string) bool {
	_, err := strconv.ParseUint(s, 10, 31)
	return err == nil
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   appName + " [N | query...]",
		Short: "Save shell commands and bring them back by number",
		Long: `With no arguments memo saves the last command from your shell history
and lists the most recent entries. "memo N" copies entry N to the
clipboard; any other arguments filter the listing.`,
		Args:               cobra.ArbitraryArgs,
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableFlagParsing: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.words = args
			if cmd.DisableFlagParsing {
				words, err := leadingFlags(cmd, args)
				if err != nil {
					return err
				}
				c.words = words
			}
			return c.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			switch {
			case len(c.words) == 0:
				return c.app.SaveLast(ctx, c.historyFile(), appName)
			case len(c.words) == 1 && isOrdinal(c.words[0]):
				n, err := parseOrdinal(c.words[0])
				if err != nil {
					return err
				}
				return c.app.Copy(ctx, n, "")
			default:
				return c.app.List(ctx, strings.Join(c.words, " "), c.cfg.Limit)
			}
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to configuration file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		c.listCmd(),
		c.saveCmd(),
		c.printCmd(),
		c.runCmd(),
		c.rmCmd(),
		c.pruneCmd(),
		c.pickCmd(),
		c.selectableCmd(),
		c.initCmd(),
		c.configCmd(),
		versionCmd(),
	)
	return root
}

func (c *cli) historyFile() string {
	if c.cfg.HistoryFile != "" {
		return c.cfg.HistoryFile
	}
	return history.DefaultPath()
}

func (c *cli) listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [query...]",
		Short: "List saved commands, most recently used first",
		// Words starting with "-" are query text unless they are memo flags.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit := c.cfg.Limit
			if cmd.Flags().Changed("limit") {
				limit, _ = cmd.Flags().GetInt("limit")
			}
			return c.app.List(cmd.Context(), strings.Join(c.words, " "), limit)
		},
	}
	cmd.Flags().IntP("limit", "n", 0, "Entries to show (0 for all)")
	return cmd
}

func (c *cli) saveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save [command...]",
		Short: "Save a command, or the last one from shell history",
		// The command's own flags belong to it, not to memo.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(c.words) == 0 {
				return c.app.SaveLast(cmd.Context(), c.historyFile(), appName)
			}
			return c.app.Save(cmd.Context(), strings.Join(c.words, " "))
		},
	}
}

// ordinalQuery splits "<N> [query...]".
func (c *cli) ordinalQuery() (int, string, error) {
	if len(c.words) < 1 {
		return 0, "", usageError{errors.New("missing entry number")}
	}
	n, err := parseOrdinal(c.words[0])
	if err != nil {
		return 0, "", err
	}
	return n, strings.Join(c.words[1:], " "), nil
}

func (c *cli) printCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "print <N> [query...]",
		Short:              "Print command N and nothing else",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, filter, err := c.ordinalQuery()
			if err != nil {
				return err
			}
			return c.app.Print(cmd.Context(), n, filter)
		},
	}
}

func (c *cli) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "run <N> [query...]",
		Short:              "Execute command N in your shell",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, filter, err := c.ordinalQuery()
			if err != nil {
				return err
			}
			code, err := c.app.Run(cmd.Context(), n, filter)
			if err != nil {
				return err
			}
			c.exitCode = code
			return nil
		},
	}
}

func (c *cli) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "rm <N> [query...]",
		Aliases:            []string{"delete"},
		Short:              "Delete command N",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, filter, err := c.ordinalQuery()
			if err != nil {
				return err
			}
			return c.app.Delete(cmd.Context(), n, filter)
		},
	}
}

func (c *cli) pruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete everything ranked past --keep entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keep := c.cfg.Cap
			if cmd.Flags().Changed("keep") {
				keep, _ = cmd.Flags().GetInt("keep")
			}
			if keep <= 0 {
				return usageError{errors.New("prune: --keep must be positive")}
			}
			n, err := c.app.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "pruned %d\n", n)
			return nil
		},
	}
	cmd.Flags().Int("keep", 0, "Entries to keep (defaults to the configured cap)")
	return cmd
}

func (c *cli) pickCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "pick [query...]",
		Short:              "Choose a command interactively and print it",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sel, err := app.NewSelector(c.cfg.Picker, c.cfg.PickerCommand, c.stdin, os.Stderr)
			if err != nil {
				return err
			}
			return c.app.Pick(cmd.Context(), strings.Join(c.words, " "), sel)
		},
	}
}

func (c *cli) selectableCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "_list [query...]",
		Short:              "Write every entry as N<TAB>command for a picker",
		Hidden:             true,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Selectable(cmd.Context(), strings.Join(c.words, " "))
		},
	}
}

func (c *cli) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "init zsh",
		Short:     "Print the shell widget; eval it from your shell rc",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"zsh"},
		RunE: func(_ *cobra.Command, args []string) error {
			if args[0] != "zsh" {
				return usageError{fmt.Errorf("init: unsupported shell %q", args[0])}
			}
			return shell.Zsh(c.stdout, shell.Widget{
				Name: appName,
				Key:  c.cfg.WidgetKey,
			})
		},
	}
}

func (c *cli) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			out, err := c.cfg.YAML()
			if err != nil {
				return err
			}
			_, err = c.stdout.Write(out)
			return err
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, version)
		},
	}
}
