// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package inspector

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// The wire format is a bare stream of CBOR-encoded Records, one data
// item per record, with no framing. Times keep their zone offset so
// the inspector shows what the launcher's log file shows.
var (
	wireEncoding cbor.EncMode
	wireDecoding cbor.DecMode
)

func init() {
	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	var err error
	if wireEncoding, err = encOptions.EncMode(); err != nil {
		panic("inspector: CBOR encoder: " + err.Error())
	}
	// Group-valued attributes decoded into any must be map[string]any
	// for the console to print them.
	decOptions := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}
	if wireDecoding, err = decOptions.DecMode(); err != nil {
		panic("inspector: CBOR decoder: " + err.Error())
	}
}

// recordWriter encodes records onto a connection.
type recordWriter struct {
	encoder *cbor.Encoder
}

func newRecordWriter(w io.Writer) *recordWriter {
	return &recordWriter{encoder: wireEncoding.NewEncoder(w)}
}

func (w *recordWriter) Write(record Record) error {
	return w.encoder.Encode(record)
}

// recordReader decodes records from a connection. Read returns io.EOF
// when the peer closes cleanly between records.
type recordReader struct {
	decoder *cbor.Decoder
}

func newRecordReader(r io.Reader) *recordReader {
	return &recordReader{decoder: wireDecoding.NewDecoder(r)}
}

func (r *recordReader) Read() (Record, error) {
	var record Record
	err := r.decoder.Decode(&record)
	return record, err
}
