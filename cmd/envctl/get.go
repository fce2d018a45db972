// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/lawrencecchen/cmux-env/cmd/envctl/cli"
	"github.com/lawrencecchen/cmux-env/lib/envproto"
)

func getCommand() *cli.Command {
	var (
		pwd     string
		jsonOut cli.JSONOutput
	)

	return &cli.Command{
		Name:    "get",
		Summary: "Print the effective value of a variable",
		ArgSpec: "KEY",
		MinArgs: 1,
		MaxArgs: 1,
		Description: `Print the effective value of KEY at the current (or given) working
directory: the nearest directory scope wins, then the global scope.
Exits 1 with empty output when the key is undefined.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("get", pflag.ContinueOnError)
			flagSet.StringVar(&pwd, "pwd", "", "resolve for this directory instead of the current one")
			jsonOut.BindFlag(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			resolved, err := workingDir(pwd)
			if err != nil {
				return err
			}

			var value envproto.Value
			err = callRaw(&envproto.Request{
				Action: envproto.ActionGet,
				Key:    args[0],
				Pwd:    resolved,
			}, &value)
			if err != nil {
				var protoErr *envproto.Error
				if errors.As(err, &protoErr) && protoErr.Kind == envproto.KindNotFound {
					// Undefined key: exit 1 with empty stdout, no noise.
					return cli.SilentExit(cli.CodeUser)
				}
				return exitFor(err)
			}

			if done, err := jsonOut.EmitJSON(value); done {
				return err
			}
			fmt.Println(value.Value)
			return nil
		},
	}
}
