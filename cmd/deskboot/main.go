// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// deskboot launches a desktop GUI application. It probes the host,
// applies renderer workarounds, binds logging, registers the
// build-mode auxiliaries, and then starts the GUI binary with the
// resulting environment.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/deskboot/cmd/deskboot/cli"
	"github.com/bureau-foundation/deskboot/lib/process"
	"github.com/bureau-foundation/deskboot/lib/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()

	if err != nil {
		// The surface exited non-zero and has already reported why on
		// its own stderr; pass its status through.
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(process.ExitCode(err))
		}
		process.Fatal(err)
	}
}

func run(ctx context.Context, args []string) error {
	return root().Execute(ctx, args)
}

func root() *cli.Command {
	return &cli.Command{
		Name: "deskboot",
		Description: `deskboot: desktop application launcher.

Probes the host's display protocol, GPU driver and hypervisor, applies
the renderer workarounds they call for, and starts the application with
logging, the debug inspector and login autostart set up.`,
		Subcommands: []*cli.Command{
			runCommand(),
			probeCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(context.Context, []string) error {
					fmt.Printf("deskboot %s\n", version.Full())
					return nil
				},
			},
		},
	}
}
