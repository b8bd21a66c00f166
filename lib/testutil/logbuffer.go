// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogBuffer captures JSON log lines written through Logger.
type LogBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

// NewLogBuffer returns an empty LogBuffer.
func NewLogBuffer() *LogBuffer { return &LogBuffer{} }

// Write implements io.Writer.
func (b *LogBuffer) Write(data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Write(data)
}

// Logger returns a debug-level JSON logger writing into the buffer.
func (b *LogBuffer) Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(b, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Entries decodes every captured line.
func (b *LogBuffer) Entries(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	text := b.buffer.String()
	b.mu.Unlock()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decoding log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

// Messages returns the msg field of every captured line.
func (b *LogBuffer) Messages(t *testing.T) []string {
	t.Helper()
	var messages []string
	for _, entry := range b.Entries(t) {
		message, _ := entry["msg"].(string)
		messages = append(messages, message)
	}
	return messages
}
