// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/lawrencecchen/cmux-env/cmd/envctl/cli"
	"github.com/lawrencecchen/cmux-env/lib/envproto"
)

func setCommand() *cli.Command {
	var dir string

	return &cli.Command{
		Name:    "set",
		Summary: "Set a variable (globally or for a directory subtree)",
		ArgSpec: "KEY=VALUE",
		MinArgs: 1,
		MaxArgs: 1,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("set", pflag.ContinueOnError)
			flagSet.StringVar(&dir, "dir", "", "scope the variable to this directory subtree")
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "Global variable", Command: "envctl set EDITOR=vim"},
			{Description: "Project-scoped variable", Command: "envctl set GOFLAGS=-race --dir ~/src/app"},
		},
		Run: func(args []string) error {
			key, value, err := splitKeyValue(args[0])
			if err != nil {
				return err
			}
			var ack envproto.Ack
			return call(&envproto.Request{
				Action: envproto.ActionSet,
				Key:    key,
				Value:  value,
				Dir:    dir,
			}, &ack)
		},
	}
}

func unsetCommand() *cli.Command {
	var dir string

	return &cli.Command{
		Name:    "unset",
		Summary: "Remove a variable (records a tombstone in the scope)",
		ArgSpec: "KEY",
		MinArgs: 1,
		MaxArgs: 1,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("unset", pflag.ContinueOnError)
			flagSet.StringVar(&dir, "dir", "", "scope the removal to this directory subtree")
			return flagSet
		},
		Run: func(args []string) error {
			var ack envproto.Ack
			return call(&envproto.Request{
				Action: envproto.ActionUnset,
				Key:    args[0],
				Dir:    dir,
			}, &ack)
		},
	}
}

// splitKeyValue parses KEY=VALUE. The value may be empty; the key may
// not.
func splitKeyValue(arg string) (string, string, error) {
	eq := strings.IndexByte(arg, '=')
	if eq < 0 {
		return "", "", fmt.Errorf("expected KEY=VALUE, got %q", arg)
	}
	key := arg[:eq]
	if key == "" {
		return "", "", fmt.Errorf("empty key in %q", arg)
	}
	return key, arg[eq+1:], nil
}
