// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/lawrencecchen/cmux-env/cmd/envctl/cli"
	"github.com/lawrencecchen/cmux-env/lib/dotenv"
	"github.com/lawrencecchen/cmux-env/lib/envproto"
)

func loadCommand() *cli.Command {
	var (
		dir       string
		base64Arg string
	)

	return &cli.Command{
		Name:    "load",
		Summary: "Load variables from dotenv input, atomically",
		ArgSpec: "[FILE|-]",
		MinArgs: 0,
		MaxArgs: 1,
		Description: `Parse dotenv input (KEY=VALUE lines, # comments, single- and
double-quoted values) and apply every entry in one atomic batch: a
single invalid line means nothing is stored.

Input comes from a file argument, from stdin with "-", or from
--base64 (an encoded argument, or "-" to base64-decode stdin).`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("load", pflag.ContinueOnError)
			flagSet.StringVar(&dir, "dir", "", "scope the variables to this directory subtree")
			flagSet.StringVar(&base64Arg, "base64", "", "base64-encoded dotenv content, or - for stdin")
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "From a file", Command: "envctl load .env --dir ~/src/app"},
			{Description: "From a pipe", Command: "cat .env | envctl load -"},
			{Description: "From an encoded payload", Command: "envctl load --base64 QT0xCg=="},
		},
		Run: func(args []string) error {
			entries, err := readLoadInput(args, base64Arg)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return nil
			}
			var ack envproto.Ack
			return call(&envproto.Request{
				Action:  envproto.ActionLoad,
				Dir:     dir,
				Entries: entries,
			}, &ack)
		},
	}
}

func readLoadInput(args []string, base64Arg string) ([]envproto.Entry, error) {
	if base64Arg != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--base64 and a file argument are mutually exclusive")
		}
		if base64Arg == "-" {
			encoded, err := io.ReadAll(os.Stdin)
			if err != nil {
				return nil, fmt.Errorf("reading stdin: %w", err)
			}
			return dotenv.ParseBase64(string(encoded))
		}
		return dotenv.ParseBase64(base64Arg)
	}

	if len(args) != 1 {
		return nil, fmt.Errorf("expected a file argument, - for stdin, or --base64")
	}
	if args[0] == "-" {
		return dotenv.Parse(os.Stdin)
	}
	file, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer file.Close()
	return dotenv.Parse(file)
}
