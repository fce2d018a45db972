// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

// Envd is the per-user environment daemon. It owns the authoritative
// variable store — a global map plus directory-scoped overlays with a
// monotonic generation counter — and serves the framed request
// protocol on a Unix socket that envctl (and shell prompt hooks)
// connect to.
//
// State is in-memory only: a fresh daemon starts empty at generation
// zero, and shells resynchronize through their hooks. Envd is usually
// spawned lazily by envctl, but can be run directly.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lawrencecchen/cmux-env/lib/config"
	"github.com/lawrencecchen/cmux-env/lib/paths"
	"github.com/lawrencecchen/cmux-env/lib/service"
	"github.com/lawrencecchen/cmux-env/lib/store"
	"github.com/lawrencecchen/cmux-env/lib/version"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, service.ErrAlreadyRunning) {
			// Losing the spawn race is a normal outcome: the client
			// that spawned us will talk to the winner.
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "envd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		socketPath     string
		configPath     string
		logLevel       string
		logFormat      string
		requestTimeout time.Duration
		showVersion    bool
	)

	flag.StringVar(&socketPath, "socket", "", "socket path (default: derived from the runtime dir)")
	flag.StringVar(&configPath, "config", "", "config file (default: $ENVD_CONFIG or ${XDG_CONFIG_HOME:-~/.config}/cmux-envd/config.yaml)")
	flag.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flag.StringVar(&logFormat, "log-format", "", "log format: json or text")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "per-request deadline")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("envd %s\n", version.Info())
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// Flags override file values.
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if requestTimeout > 0 {
		cfg.RequestTimeout = config.Duration(requestTimeout)
	}
	if socketPath != "" {
		cfg.Socket = socketPath
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}

	if cfg.Socket == "" {
		if _, err := paths.EnsureRuntimeDir(); err != nil {
			return err
		}
		cfg.Socket = paths.SocketPath()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	daemon := newDaemon(store.New(), logger)
	server := service.NewSocketServer(cfg.Socket, cfg.RequestTimeout.Std(), logger)
	daemon.registerActions(server)

	logger.Info("envd starting",
		"version", version.Info(),
		"socket", cfg.Socket,
		"request_timeout", cfg.RequestTimeout.Std(),
	)
	return server.Serve(ctx)
}
