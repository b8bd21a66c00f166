// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// extension is the suffix a compressed archive gets.
func (c Compression) extension() string {
	switch c {
	case CompressionZstd:
		return ".zst"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// compressFile writes a compressed copy of source next to it and
// removes the source. It returns the path of the compressed file. The
// source is kept if anything fails, so a rotated log is never lost to a
// compression error.
func compressFile(source string, compression Compression) (string, error) {
	if compression == CompressionNone {
		return source, nil
	}
	destination := source + compression.extension()

	input, err := os.Open(source)
	if err != nil {
		return source, fmt.Errorf("opening rotated log: %w", err)
	}
	defer input.Close()

	output, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return source, fmt.Errorf("creating %s: %w", destination, err)
	}

	if err := compressStream(output, input, compression); err != nil {
		output.Close()
		os.Remove(destination)
		return source, err
	}
	if err := output.Close(); err != nil {
		os.Remove(destination)
		return source, fmt.Errorf("closing %s: %w", destination, err)
	}
	if err := os.Remove(source); err != nil {
		return destination, fmt.Errorf("removing uncompressed rotated log: %w", err)
	}
	return destination, nil
}

func compressStream(output io.Writer, input io.Reader, compression Compression) error {
	var writer io.WriteCloser
	switch compression {
	case CompressionZstd:
		encoder, err := zstd.NewWriter(output, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("zstd encoder: %w", err)
		}
		writer = encoder
	case CompressionLZ4:
		writer = lz4.NewWriter(output)
	default:
		return fmt.Errorf("unsupported compression %s", compression)
	}

	if _, err := io.Copy(writer, input); err != nil {
		writer.Close()
		return fmt.Errorf("%s compress: %w", compression, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("%s compress: %w", compression, err)
	}
	return nil
}
