// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/lawrencecchen/cmux-env/cmd/envctl/cli"
	"github.com/lawrencecchen/cmux-env/lib/envproto"
	"github.com/lawrencecchen/cmux-env/lib/store"
)

func exportCommand() *cli.Command {
	var (
		since   uint64
		pwd     string
		prevPwd string
	)

	var flagSet *pflag.FlagSet

	return &cli.Command{
		Name:    "export",
		Summary: "Print the shell commands that apply changes since a generation",
		ArgSpec: "{bash|zsh|fish}",
		MinArgs: 1,
		MaxArgs: 1,
		Description: `Print shell commands that bring the calling shell from the view it
held at generation --since to the current effective view, followed by
an assignment that advances the shell's ENVCTL_GEN watermark. The
prompt hook evals this output before every prompt.

When --since is omitted, the ENVCTL_GEN environment variable is used.
Pass --prev-pwd when the shell has changed directory since it last
applied an export, so scope transitions are diffed correctly.`,
		Flags: func() *pflag.FlagSet {
			flagSet = pflag.NewFlagSet("export", pflag.ContinueOnError)
			flagSet.Uint64Var(&since, "since", 0, "generation the shell last applied")
			flagSet.StringVar(&pwd, "pwd", "", "current directory (defaults to the process pwd)")
			flagSet.StringVar(&prevPwd, "prev-pwd", "", "directory at the previous apply")
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "Full environment for a fresh shell", Command: "envctl export bash --since 0"},
			{Description: "As the hook calls it", Command: `eval "$(envctl export zsh --since "$ENVCTL_GEN" --pwd "$PWD" --prev-pwd "$ENVCTL_PREV_PWD")"`},
		},
		Run: func(args []string) error {
			shell, ok := envproto.ParseShell(args[0])
			if !ok {
				return fmt.Errorf("unsupported shell %q (want bash, zsh, or fish)", args[0])
			}
			resolved, err := workingDir(pwd)
			if err != nil {
				return err
			}
			if !flagSet.Changed("since") {
				if env := os.Getenv("ENVCTL_GEN"); env != "" {
					if parsed, err := strconv.ParseUint(env, 10, 64); err == nil {
						since = parsed
					}
				}
			}

			var exported envproto.Exported
			err = call(&envproto.Request{
				Action:  envproto.ActionExport,
				Shell:   shell,
				Pwd:     resolved,
				PrevPwd: prevPwd,
				Since:   since,
			}, &exported)
			if err != nil {
				return err
			}

			if term.IsTerminal(int(os.Stdout.Fd())) {
				fmt.Fprintln(os.Stderr, "envctl: output is meant to be eval'd by a shell hook")
			}
			for _, command := range exported.Commands {
				fmt.Println(command)
			}
			fmt.Println(store.WatermarkCommand(shell, exported.Gen))
			return nil
		},
	}
}
