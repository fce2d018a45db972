// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/lawrencecchen/cmux-env/cmd/envctl/cli"
	"github.com/lawrencecchen/cmux-env/lib/envproto"
	"github.com/lawrencecchen/cmux-env/lib/paths"
	"github.com/lawrencecchen/cmux-env/lib/service"
	"github.com/lawrencecchen/cmux-env/lib/version"
)

func shutdownCommand() *cli.Command {
	return &cli.Command{
		Name:    "shutdown",
		Summary: "Ask the daemon to drain and exit",
		Run: func(args []string) error {
			// Deliberately no auto-spawn: shutting down a daemon that
			// is not running should not start one first.
			client := service.NewClient(paths.SocketPath())
			var ack envproto.Ack
			err := client.Call(context.Background(), &envproto.Request{Action: envproto.ActionShutdown}, &ack)
			if err != nil {
				var protoErr *envproto.Error
				if !errors.As(err, &protoErr) {
					// Nothing listening counts as already shut down.
					return nil
				}
				return exitFor(err)
			}
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(args []string) error {
			fmt.Println(version.Full())
			return nil
		},
	}
}
