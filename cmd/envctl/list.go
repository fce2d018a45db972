// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/lawrencecchen/cmux-env/cmd/envctl/cli"
	"github.com/lawrencecchen/cmux-env/lib/envproto"
)

func listCommand() *cli.Command {
	var (
		pwd     string
		jsonOut cli.JSONOutput
	)

	return &cli.Command{
		Name:    "list",
		Summary: "List the effective variables at a directory",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flagSet.StringVar(&pwd, "pwd", "", "resolve for this directory instead of the current one")
			jsonOut.BindFlag(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			resolved, err := workingDir(pwd)
			if err != nil {
				return err
			}

			var listing envproto.Listing
			if err := call(&envproto.Request{Action: envproto.ActionList, Pwd: resolved}, &listing); err != nil {
				return err
			}

			if done, err := jsonOut.EmitJSON(listing.Items); done {
				return err
			}
			for _, item := range listing.Items {
				fmt.Printf("%s=%s (%s)\n", item.Key, item.Value, item.Scope)
			}
			return nil
		},
	}
}
