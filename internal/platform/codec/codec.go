// Package codec converts collections of records to and from their durable JSON form.
// Timestamps are written as RFC 3339 strings and parsed back into time values on
// decode; records that implement Rehydrator get a chance to normalize their
// timestamp fields after decoding.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Rehydrator is implemented by records that need post-decode normalization.
type Rehydrator[T any] interface {
	Rehydrate() T
}

// Encode serializes records as a JSON array. A nil slice encodes as an empty array.
func Encode[T any](records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return data, nil
}

// Decode parses a JSON array of records and rehydrates each one.
// Empty input and a literal null decode to an empty slice.
func Decode[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	var records []T
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	for i, rec := range records {
		if r, ok := any(rec).(Rehydrator[T]); ok {
			records[i] = r.Rehydrate()
		}
	}
	return records, nil
}

// Time returns t in UTC without a monotonic reading.
func Time(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC()
}

// TimePtr normalizes an optional timestamp. Nil and zero values become nil.
func TimePtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
