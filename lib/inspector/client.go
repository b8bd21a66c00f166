// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package inspector

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/bureau-foundation/deskboot/lib/clock"
)

// ErrNotConnected is returned by Show while the inspector process is
// unreachable. The record is dropped.
var ErrNotConnected = errors.New("inspector not connected")

// redialInterval bounds how often Show retries an unreachable socket.
// Logging must not turn into a connect() per record.
const redialInterval = time.Second

// writeTimeout bounds one record write. An inspector that accepts and
// then stops reading fills the socket buffer; past this the record is
// dropped and the connection abandoned.
const writeTimeout = 250 * time.Millisecond

// Client streams records to an inspector server over a unix socket.
// Show connects lazily, so an inspector started after the launcher
// picks up the stream from its next record.
type Client struct {
	socketPath   string
	clock        clock.Clock
	writeTimeout time.Duration

	mu          sync.Mutex
	conn        net.Conn
	writer      *recordWriter
	nextAttempt time.Time
}

// NewClient returns a Client for the inspector listening on socketPath.
// No connection is made until Open or Show.
func NewClient(socketPath string, clk clock.Clock) *Client {
	return &Client{socketPath: socketPath, clock: clk, writeTimeout: writeTimeout}
}

// Open connects to the inspector, failing if it is not listening.
func (c *Client) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}
	return c.dialLocked()
}

// Close drops the connection. A later Show reconnects.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnectLocked()
}

// Show sends one record, waiting at most writeTimeout. A write failure
// or timeout drops the record and the connection; the next Show after
// redialInterval tries again.
func (c *Client) Show(record Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if c.clock.Now().Before(c.nextAttempt) {
			return ErrNotConnected
		}
		if err := c.dialLocked(); err != nil {
			c.nextAttempt = c.clock.Now().Add(redialInterval)
			return fmt.Errorf("%w: %v", ErrNotConnected, err)
		}
	}

	// Socket deadlines run on the kernel's clock, not c.clock.
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		c.disconnectLocked()
		c.nextAttempt = c.clock.Now().Add(redialInterval)
		return fmt.Errorf("sending record to inspector: %w", err)
	}
	if err := c.writer.Write(record); err != nil {
		// A timed-out write may have sent part of the record, so the
		// stream cannot be resumed.
		c.disconnectLocked()
		c.nextAttempt = c.clock.Now().Add(redialInterval)
		return fmt.Errorf("sending record to inspector: %w", err)
	}
	return nil
}

func (c *Client) dialLocked() error {
	conn, err := net.DialTimeout("unix", c.socketPath, 250*time.Millisecond)
	if err != nil {
		return fmt.Errorf("connecting to inspector at %s: %w", c.socketPath, err)
	}
	c.conn = conn
	c.writer = newRecordWriter(conn)
	return nil
}

func (c *Client) disconnectLocked() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.writer = nil
	return err
}
