// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// App is the envctl command-line surface: one flat list of verbs.
// Envctl commands do not nest, so there is no command tree; dispatch
// is a single name lookup.
type App struct {
	// Name is the binary name used in usage lines ("envctl").
	Name string

	// Summary is a one-line description of the program.
	Summary string

	// Description is the long-form text shown at the top of the
	// program help.
	Description string

	// Commands is the verb registry, in help-listing order.
	Commands []*Command

	// Examples are shown at the end of the program help.
	Examples []Example
}

// Command is one envctl verb.
type Command struct {
	// Name is the verb as typed by the user (e.g., "export").
	Name string

	// Summary is the one-line description shown in the program's
	// command listing.
	Summary string

	// Description is the long-form text shown in the verb's own help.
	Description string

	// ArgSpec documents the positional arguments for usage lines,
	// e.g. "KEY=VALUE" or "{bash|zsh|fish}". Empty for verbs that
	// take none.
	ArgSpec string

	// MinArgs and MaxArgs bound the positional argument count after
	// flag parsing. A MaxArgs of -1 means unbounded. The framework
	// rejects out-of-range counts with a usage message, so Run
	// bodies never re-check argument arity.
	MinArgs int
	MaxArgs int

	// Examples are shown at the end of the verb's help.
	Examples []Example

	// Flags returns a configured *pflag.FlagSet for this verb. If
	// nil, the verb accepts no flags.
	Flags func() *pflag.FlagSet

	// Run executes the verb with the validated positional args.
	Run func(args []string) error
}

// Example is a usage example shown in help output.
type Example struct {
	// Description explains what the example does.
	Description string
	// Command is the literal command line.
	Command string
}

// Execute dispatches one invocation. Explicitly requested help goes
// to stdout and returns nil; dispatch failures return errors for
// main to print (exit 1, the user-error code).
func (a *App) Execute(args []string) error {
	if len(args) == 0 {
		a.PrintHelp(os.Stderr)
		return fmt.Errorf("command required")
	}

	switch args[0] {
	case "-h", "--help":
		a.PrintHelp(os.Stdout)
		return nil
	case "help":
		// "envctl help export" prints that verb's help.
		if len(args) > 1 {
			command := a.lookup(args[1])
			if command == nil {
				return a.unknownCommand(args[1])
			}
			command.printHelp(a, os.Stdout)
			return nil
		}
		a.PrintHelp(os.Stdout)
		return nil
	}

	if strings.HasPrefix(args[0], "-") {
		return fmt.Errorf("expected a command before %q (see '%s --help')", args[0], a.Name)
	}

	command := a.lookup(args[0])
	if command == nil {
		return a.unknownCommand(args[0])
	}
	return command.execute(a, args[1:])
}

func (a *App) lookup(name string) *Command {
	for _, command := range a.Commands {
		if command.Name == name {
			return command
		}
	}
	return nil
}

func (a *App) unknownCommand(name string) error {
	if suggestion := suggestCommand(name, a.Commands); suggestion != "" {
		return fmt.Errorf("unknown command %q; did you mean %q? (see '%s --help')",
			name, suggestion, a.Name)
	}
	return fmt.Errorf("unknown command %q (see '%s --help')", name, a.Name)
}

// execute parses the verb's flags, validates the positional count,
// and runs it.
func (c *Command) execute(app *App, args []string) error {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			c.printHelp(app, os.Stdout)
			return nil
		}
	}

	if c.Flags != nil {
		flagSet := c.Flags()

		// Suppress pflag's default error output; errors are
		// formatted with suggestions below.
		flagSet.SetOutput(io.Discard)

		if err := flagSet.Parse(args); err != nil {
			if strings.Contains(err.Error(), "unknown") {
				if suggestion := suggestFlag(args, c.Flags()); suggestion != "" {
					return fmt.Errorf("%v; did you mean %s? (see '%s %s --help')",
						err, suggestion, app.Name, c.Name)
				}
			}
			return fmt.Errorf("%v (see '%s %s --help')", err, app.Name, c.Name)
		}
		args = flagSet.Args()
	}

	if err := c.checkArgCount(app, args); err != nil {
		return err
	}
	return c.Run(args)
}

// checkArgCount enforces MinArgs/MaxArgs so individual Run bodies
// stay free of arity boilerplate.
func (c *Command) checkArgCount(app *App, args []string) error {
	max := c.MaxArgs
	if max < 0 {
		max = len(args)
	}
	if len(args) >= c.MinArgs && len(args) <= max {
		return nil
	}
	usage := c.usage(app)
	switch {
	case c.MaxArgs == 0:
		return fmt.Errorf("%s takes no arguments (usage: %s)", c.Name, usage)
	case len(args) < c.MinArgs:
		return fmt.Errorf("missing argument (usage: %s)", usage)
	default:
		return fmt.Errorf("too many arguments (usage: %s)", usage)
	}
}

// usage synthesizes the one-line usage string from the verb's shape.
func (c *Command) usage(app *App) string {
	parts := []string{app.Name, c.Name}
	if c.ArgSpec != "" {
		parts = append(parts, c.ArgSpec)
	}
	if c.Flags != nil {
		parts = append(parts, "[flags]")
	}
	return strings.Join(parts, " ")
}

// PrintHelp writes the program help: description, usage, the verb
// table, and examples.
func (a *App) PrintHelp(w io.Writer) {
	if a.Description != "" {
		fmt.Fprintf(w, "%s\n\n", a.Description)
	} else if a.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", a.Summary)
	}

	fmt.Fprintf(w, "Usage: %s <command> [flags]\n\nCommands:\n", a.Name)
	width := 0
	for _, command := range a.Commands {
		if len(command.Name) > width {
			width = len(command.Name)
		}
	}
	for _, command := range a.Commands {
		fmt.Fprintf(w, "  %-*s  %s\n", width, command.Name, command.Summary)
	}

	printExamples(w, a.Examples)
	fmt.Fprintf(w, "\nRun '%s help <command>' for details on a command.\n", a.Name)
}

// printHelp writes one verb's help.
func (c *Command) printHelp(app *App, w io.Writer) {
	fmt.Fprintf(w, "%s %s: %s\n\n", app.Name, c.Name, c.Summary)
	fmt.Fprintf(w, "Usage: %s\n", c.usage(app))

	if c.Description != "" {
		fmt.Fprintf(w, "\n%s\n", c.Description)
	}

	if c.Flags != nil {
		flagSet := c.Flags()
		var flagHelp strings.Builder
		flagSet.SetOutput(&flagHelp)
		flagSet.PrintDefaults()
		if flagHelp.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", flagHelp.String())
		}
	}

	printExamples(w, c.Examples)
}

func printExamples(w io.Writer, examples []Example) {
	if len(examples) == 0 {
		return
	}
	fmt.Fprintf(w, "\nExamples:\n")
	for _, example := range examples {
		if example.Description != "" {
			fmt.Fprintf(w, "  # %s\n", example.Description)
		}
		fmt.Fprintf(w, "  %s\n", example.Command)
	}
}
