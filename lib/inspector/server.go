// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package inspector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
)

// Server accepts relay connections on a unix socket and shows every
// record it receives on a Display. Several launchers may stream to one
// server at once.
type Server struct {
	listener net.Listener
	display  Display
	logger   *slog.Logger

	wg sync.WaitGroup
}

// Listen binds socketPath, replacing a stale socket file left by a
// previous inspector.
func Listen(socketPath string, display Display, logger *slog.Logger) (*Server, error) {
	if err := os.Remove(socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing stale socket %s: %w", socketPath, err)
	}
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", socketPath, err)
	}
	return &Server{listener: listener, display: display, logger: logger}, nil
}

// Addr returns the socket address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve accepts connections until ctx is cancelled or accepting fails,
// then closes the listener and every open connection and waits for
// their goroutines before returning.
func (s *Server) Serve(ctx context.Context) error {
	serveCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.wg.Wait()
	}()
	stop := context.AfterFunc(serveCtx, func() { s.listener.Close() })
	defer stop()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accepting inspector connection: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(serveCtx, conn)
		}()
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	reader := newRecordReader(conn)
	for {
		record, err := reader.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.logger.Warn("inspector connection dropped", "error", err)
			}
			return
		}
		if err := s.display.Show(record); err != nil {
			s.logger.Warn("displaying relayed record failed", "error", err)
		}
	}
}
