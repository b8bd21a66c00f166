// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package inspector

import (
	"log/slog"
	"time"
)

// Record is one log record as the inspector sees it.
type Record struct {
	Time    time.Time  `cbor:"time"`
	Level   slog.Level `cbor:"level"`
	Message string     `cbor:"message"`
	Attrs   []Attr     `cbor:"attrs,omitempty"`
}

// Attr is a flattened record attribute. Keys of grouped attributes are
// joined with dots ("request.id").
type Attr struct {
	Key   string `cbor:"key"`
	Value any    `cbor:"value"`
}

// Display consumes records. Implementations must be safe for
// concurrent use.
type Display interface {
	Show(Record) error
}

// Inspector is a display that can be attached and detached.
type Inspector interface {
	Open() error
	Close() error
}

// SmokeTest opens inspector and closes it again immediately. It proves
// the inspector can be attached without leaving it attached.
func SmokeTest(inspector Inspector) error {
	if err := inspector.Open(); err != nil {
		return err
	}
	return inspector.Close()
}

// RecordFromSlog converts an slog record. prefix holds attributes
// already bound to the handler (via WithAttrs), flattened with their
// group path; groups is the handler's open group path, applied to the
// record's own attributes.
func RecordFromSlog(record slog.Record, prefix []Attr, groups []string) Record {
	converted := Record{
		Time:    record.Time,
		Level:   record.Level,
		Message: record.Message,
	}
	converted.Attrs = append(converted.Attrs, prefix...)
	record.Attrs(func(attr slog.Attr) bool {
		converted.Attrs = FlattenAttr(converted.Attrs, groups, attr)
		return true
	})
	return converted
}

// FlattenAttr appends attr to dst, expanding groups into dotted keys and
// resolving LogValuers. Empty attributes are dropped as slog handlers do.
func FlattenAttr(dst []Attr, groups []string, attr slog.Attr) []Attr {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	if attr.Value.Kind() == slog.KindGroup {
		nested := groups
		if attr.Key != "" {
			nested = append(append([]string(nil), groups...), attr.Key)
		}
		for _, member := range attr.Value.Group() {
			dst = FlattenAttr(dst, nested, member)
		}
		return dst
	}
	key := attr.Key
	for index := len(groups) - 1; index >= 0; index-- {
		key = groups[index] + "." + key
	}
	return append(dst, Attr{Key: key, Value: attrValue(attr.Value)})
}

// attrValue converts an slog value into something CBOR encodes without
// custom marshalers.
func attrValue(value slog.Value) any {
	switch value.Kind() {
	case slog.KindString:
		return value.String()
	case slog.KindInt64:
		return value.Int64()
	case slog.KindUint64:
		return value.Uint64()
	case slog.KindFloat64:
		return value.Float64()
	case slog.KindBool:
		return value.Bool()
	case slog.KindDuration:
		return value.Duration().String()
	case slog.KindTime:
		return value.Time().Format(time.RFC3339Nano)
	default:
		if err, ok := value.Any().(error); ok {
			return err.Error()
		}
		return value.String()
	}
}
