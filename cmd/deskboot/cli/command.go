// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is one node of a command tree. A node either groups
// Subcommands or has a Run function; the root of a tree may do both.
type Command struct {
	// Name is what the user types to select the command.
	Name string

	// Summary is the one-line description listed in the parent's help.
	Summary string

	// Description is the body of the command's own help.
	Description string

	// Usage replaces the generated usage line when the command takes
	// positional arguments.
	Usage string

	// Examples follow the flags in help output.
	Examples []Example

	// Flags builds the command's flag set. It is called once per parse
	// and once per help rendering, so it must return a fresh set.
	Flags func() *pflag.FlagSet

	Subcommands []*Command

	// Run receives the positional arguments left after flag parsing,
	// including everything after "--".
	Run func(ctx context.Context, args []string) error

	// Output receives help text. Only the root's value is consulted;
	// nil means stderr.
	Output io.Writer
}

// Example is a command line shown in help output.
type Example struct {
	Description string
	Command     string
}

// Execute selects the subcommand named by the leading arguments, parses
// its flags and calls its Run.
func (c *Command) Execute(ctx context.Context, args []string) error {
	output := c.Output
	if output == nil {
		output = os.Stderr
	}

	command, path := c, []string{c.Name}
	for len(args) > 0 && len(command.Subcommands) > 0 && !strings.HasPrefix(args[0], "-") && !isHelp(args[0]) {
		next := command.subcommand(args[0])
		if next == nil {
			return command.unknownCommand(args[0], path)
		}
		command, path, args = next, append(path, next.Name), args[1:]
	}

	if len(args) > 0 && isHelp(args[0]) {
		command.writeHelp(output, path)
		return nil
	}
	if command.Run == nil {
		command.writeHelp(output, path)
		return fmt.Errorf("%s: a command is required", strings.Join(path, " "))
	}

	if command.Flags != nil {
		flagSet := command.Flags()
		flagSet.SetOutput(io.Discard)
		if err := flagSet.Parse(args); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				command.writeHelp(output, path)
				return nil
			}
			return command.flagError(err, args, path)
		}
		args = flagSet.Args()
	}
	return command.Run(ctx, args)
}

func (c *Command) subcommand(name string) *Command {
	for _, sub := range c.Subcommands {
		if sub.Name == name {
			return sub
		}
	}
	return nil
}

func (c *Command) unknownCommand(name string, path []string) error {
	hint := ""
	if suggestion := suggestCommand(name, c.Subcommands); suggestion != "" {
		hint = fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return fmt.Errorf("unknown command %q%s\n\nRun '%s --help' for usage.", name, hint, strings.Join(path, " "))
}

func (c *Command) flagError(err error, args []string, path []string) error {
	hint := ""
	if strings.HasPrefix(err.Error(), "unknown") {
		// The failed parse leaves the set half-populated; suggest
		// against a fresh one.
		if suggestion := suggestFlag(args, c.Flags()); suggestion != "" {
			hint = fmt.Sprintf(" (did you mean %s?)", suggestion)
		}
	}
	return fmt.Errorf("%v%s\n\nRun '%s --help' for usage.", err, hint, strings.Join(path, " "))
}

func (c *Command) writeHelp(w io.Writer, path []string) {
	name := strings.Join(path, " ")

	switch {
	case c.Description != "":
		fmt.Fprintf(w, "%s\n\n", strings.TrimSpace(c.Description))
	case c.Summary != "":
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	usage := c.Usage
	if usage == "" {
		usage = name
		if len(c.Subcommands) > 0 {
			usage += " <command>"
		}
		if c.Flags != nil {
			usage += " [flags]"
		}
	}
	fmt.Fprintf(w, "Usage:\n  %s\n", usage)

	if len(c.Subcommands) > 0 {
		fmt.Fprint(w, "\nCommands:\n")
		table := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(table, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		table.Flush()
	}

	if c.Flags != nil {
		if usages := c.Flags().FlagUsages(); usages != "" {
			fmt.Fprintf(w, "\nFlags:\n%s", usages)
		}
	}

	if len(c.Examples) > 0 {
		fmt.Fprint(w, "\nExamples:\n")
		for _, example := range c.Examples {
			if example.Description != "" {
				fmt.Fprintf(w, "  # %s\n", example.Description)
			}
			fmt.Fprintf(w, "  %s\n\n", example.Command)
		}
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for details on a command.\n", name)
	}
}

func isHelp(arg string) bool {
	switch arg {
	case "help", "-h", "--help":
		return true
	}
	return false
}
