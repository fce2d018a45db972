// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

// Envctl is the client for the envd environment daemon. It is invoked
// from interactive shells (and their prompt hooks) to set, query, and
// export shared environment variables over the daemon's Unix socket,
// spawning the daemon on first use.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/lawrencecchen/cmux-env/cmd/envctl/cli"
	"github.com/lawrencecchen/cmux-env/lib/envproto"
	"github.com/lawrencecchen/cmux-env/lib/paths"
	"github.com/lawrencecchen/cmux-env/lib/service"
)

func main() {
	if err := run(); err != nil {
		// Commands that handle their own output return a SilentExit
		// with the desired code. Don't print a redundant "error:"
		// line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "envctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return rootApp().Execute(os.Args[1:])
}

// clientLogger only surfaces warnings: bootstrap chatter would
// corrupt output that shells eval.
func clientLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// callRaw sends one request to the daemon, spawning it if needed, and
// decodes the response payload into result. Errors come back
// unmapped so callers can special-case kinds (get's not-found).
func callRaw(request *envproto.Request, result any) error {
	ctx := context.Background()
	client, err := service.Connect(ctx, paths.SocketPath(), clientLogger())
	if err != nil {
		return err
	}
	return client.Call(ctx, request, result)
}

// call is callRaw with failures printed and converted to the
// documented exit codes.
func call(request *envproto.Request, result any) error {
	if err := callRaw(request, result); err != nil {
		return exitFor(err)
	}
	return nil
}

// exitFor prints err and maps it to the CLI exit-code contract:
// 1 for user errors, 2 for daemon and transport errors.
func exitFor(err error) error {
	var protoErr *envproto.Error
	if errors.As(err, &protoErr) {
		fmt.Fprintf(os.Stderr, "envctl: %s\n", protoErr.Message)
		if protoErr.Kind == envproto.KindTimeout {
			fmt.Fprintln(os.Stderr, "envctl: the daemon may be overloaded; retry")
		}
		if protoErr.UserError() {
			return cli.SilentExit(cli.CodeUser)
		}
		return cli.SilentExit(cli.CodeDaemon)
	}
	fmt.Fprintf(os.Stderr, "envctl: %v\n", err)
	return cli.SilentExit(cli.CodeDaemon)
}

// workingDir returns the pwd to send with a request: the --pwd
// override when given, else the process working directory.
func workingDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	pwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving working directory: %w", err)
	}
	return pwd, nil
}
