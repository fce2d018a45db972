// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/lawrencecchen/cmux-env/cmd/envctl/cli"
	"github.com/lawrencecchen/cmux-env/lib/envproto"
	"github.com/lawrencecchen/cmux-env/lib/hook"
)

func hookCommand() *cli.Command {
	return &cli.Command{
		Name:    "hook",
		Summary: "Print the prompt hook script for a shell",
		ArgSpec: "{bash|zsh|fish}",
		MinArgs: 1,
		MaxArgs: 1,
		Description: `Print the shell snippet that applies pending environment changes
before each prompt. Meant to be loaded from an rc file:

  eval "$(envctl hook bash)"     # bash/zsh
  envctl hook fish | source      # fish

Use install-hook to write this into the rc file automatically.`,
		Run: func(args []string) error {
			shell, ok := envproto.ParseShell(args[0])
			if !ok {
				return fmt.Errorf("unsupported shell %q (want bash, zsh, or fish)", args[0])
			}
			script, err := hook.Script(shell)
			if err != nil {
				return err
			}
			fmt.Print(script)
			return nil
		},
	}
}

func installHookCommand() *cli.Command {
	var rcfile string

	return &cli.Command{
		Name:    "install-hook",
		Summary: "Install the prompt hook into a shell rc file",
		ArgSpec: "{bash|zsh|fish}",
		MinArgs: 1,
		MaxArgs: 1,
		Description: `Idempotently insert the hook-loading block into the shell's rc file,
bounded by marker comments. Re-running replaces the block in place;
everything else in the file is left untouched.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("install-hook", pflag.ContinueOnError)
			flagSet.StringVar(&rcfile, "rcfile", "", "rc file to modify (defaults to the shell's standard file)")
			return flagSet
		},
		Run: func(args []string) error {
			shell, ok := envproto.ParseShell(args[0])
			if !ok {
				return fmt.Errorf("unsupported shell %q (want bash, zsh, or fish)", args[0])
			}
			if err := hook.Install(shell, rcfile); err != nil {
				return err
			}
			target := rcfile
			if target == "" {
				if target, _ = hook.DefaultRCFile(shell); target == "" {
					target = "rc file"
				}
			}
			fmt.Fprintf(os.Stderr, "installed %s hook in %s\n", shell, target)
			return nil
		},
	}
}
