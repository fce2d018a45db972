// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/lawrencecchen/cmux-env/cmd/envctl/cli"
)

func rootApp() *cli.App {
	return &cli.App{
		Name:    "envctl",
		Summary: "Client for the envd shared environment daemon",
		Description: `Envctl talks to the per-user envd daemon that holds a shared,
generation-versioned environment variable store. Variables set from
one shell become visible in every other shell whose prompt hook is
installed, without sourcing files or restarting anything.

Variables live in a global scope or in directory scopes that apply to
a subtree of the filesystem; the nearest directory scope wins. Each
shell tracks the last generation it applied (ENVCTL_GEN) and asks for
the diff before every prompt.

The daemon is spawned automatically on first use.`,
		Commands: []*cli.Command{
			pingCommand(),
			statusCommand(),
			setCommand(),
			unsetCommand(),
			getCommand(),
			listCommand(),
			exportCommand(),
			loadCommand(),
			hookCommand(),
			installHookCommand(),
			shutdownCommand(),
			versionCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Share a variable with every shell",
				Command:     "envctl set DATABASE_URL=postgres://localhost/dev",
			},
			{
				Description: "Scope a variable to one project tree",
				Command:     "envctl set AWS_PROFILE=staging --dir ~/work/staging",
			},
			{
				Description: "Install the prompt hook",
				Command:     "envctl install-hook zsh",
			},
		},
	}
}
