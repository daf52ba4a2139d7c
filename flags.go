package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Commands taking free text (a query, or a command to save) turn off
// cobra's flag parsing and call leadingFlags instead. Only memo's own
// flags ahead of the text are consumed; "--" ends them, and any other
// word is text even when it starts with "-".
func leadingFlags(cmd *cobra.Command, args []string) ([]string, error) {
	fs := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.AddFlagSet(cmd.LocalFlags())
	fs.AddFlagSet(cmd.InheritedFlags())

	i := 0
	for i < len(args) {
		arg := args[i]
		if arg == "--" {
			i++
			break
		}
		f := lookupFlag(fs, arg)
		if f == nil {
			break
		}
		i++
		if f.NoOptDefVal == "" && !strings.Contains(arg, "=") {
			if i == len(args) {
				return nil, usageError{fmt.Errorf("flag needs an argument: %s", arg)}
			}
			i++
		}
	}

	if err := fs.Parse(args[:i]); err != nil {
		return nil, usageError{err}
	}
	if help, _ := fs.GetBool("help"); help {
		return nil, pflag.ErrHelp
	}
	return args[i:], nil
}

// lookupFlag matches --name, --name=value, -x and -x=value.
func lookupFlag(fs *pflag.FlagSet, arg string) *pflag.Flag {
	switch {
	case strings.HasPrefix(arg, "--") && len(arg) > 2:
		name, _, _ := strings.Cut(arg[2:], "=")
		return fs.Lookup(name)
	case len(arg) == 2 && arg[0] == '-' && arg[1] != '-':
		return fs.ShorthandLookup(arg[1:])
	case len(arg) > 3 && arg[0] == '-' && arg[1] != '-' && arg[2] == '=':
		return fs.ShorthandLookup(arg[1:2])
	}
	return nil
}
