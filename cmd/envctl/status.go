// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/lawrencecchen/cmux-env/cmd/envctl/cli"
	"github.com/lawrencecchen/cmux-env/lib/envproto"
)

func pingCommand() *cli.Command {
	return &cli.Command{
		Name:    "ping",
		Summary: "Check daemon liveness",
		Run: func(args []string) error {
			var pong envproto.Pong
			if err := call(&envproto.Request{Action: envproto.ActionPing}, &pong); err != nil {
				return err
			}
			fmt.Printf("pong (gen %d)\n", pong.Gen)
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	var jsonOut cli.JSONOutput

	return &cli.Command{
		Name:    "status",
		Summary: "Show daemon state summary",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			jsonOut.BindFlag(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			var info envproto.StatusInfo
			if err := call(&envproto.Request{Action: envproto.ActionStatus}, &info); err != nil {
				return err
			}

			if done, err := jsonOut.EmitJSON(info); done {
				return err
			}

			fmt.Printf("generation: %d\n", info.Gen)
			fmt.Printf("globals: %d\n", info.Globals)
			fmt.Printf("overlays: %d\n", info.Overlays)
			fmt.Printf("tombstones: %d\n", info.Tombstones)
			if len(info.Scopes) > 0 {
				fmt.Println("scopes:")
				tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
				for _, scope := range info.Scopes {
					fmt.Fprintf(tw, "  %s\t%d\n", scope.Dir, scope.Vars)
				}
				tw.Flush()
			}
			return nil
		},
	}
}
