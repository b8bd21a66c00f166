// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// deskboot-inspector is the out-of-process log inspector for debug
// builds. It listens on a unix socket and renders every record a
// debug deskboot relays to it on the terminal it was started from.
//
// Usage:
//
//	deskboot-inspector [--socket PATH] [--config FILE]
//
// With no --socket the inspector.socket value of the configuration
// (debug section applied) is used.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/deskboot/cmd/deskboot/cli"
	"github.com/bureau-foundation/deskboot/lib/config"
	"github.com/bureau-foundation/deskboot/lib/hostprobe"
	"github.com/bureau-foundation/deskboot/lib/inspector"
	"github.com/bureau-foundation/deskboot/lib/process"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := cli.NewCommandLogger()
	server, err := listen(os.Args[1:], inspector.NewConsole(os.Stdout), logger)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		process.Fatal(err)
	}

	logger.Info("inspector listening", "socket", server.Addr().String())
	if err := server.Serve(ctx); err != nil {
		process.Fatal(err)
	}
}

// listen parses the command line and binds the inspector socket.
func listen(args []string, display inspector.Display, logger *slog.Logger) (*inspector.Server, error) {
	flagSet := pflag.NewFlagSet("deskboot-inspector", pflag.ContinueOnError)
	socket := flagSet.String("socket", "", "unix socket to listen on")
	configPath := flagSet.String("config", "", "config file supplying inspector.socket")
	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if flagSet.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", flagSet.Arg(0))
	}

	path := *socket
	if path == "" {
		cfg, err := config.Load(*configPath, hostprobe.BuildDebug)
		if err != nil {
			return nil, err
		}
		path = cfg.Inspector.Socket
	}
	if path == "" {
		return nil, errors.New("no socket: pass --socket or set inspector.socket in the debug section of the config")
	}
	return inspector.Listen(path, display, logger)
}
