// Package stats records one row per build request for usage reporting.
package stats

import (
	"context"
	"time"
)

// Record describes one handled build request.
type Record struct {
	ClientAddr  string
	UserAgent   string
	Fingerprint string
	Board       string
	Layout      string
	Layers      int
	Container   string
	Success     bool
	Joined      bool
	RequestedAt time.Time
	Duration    time.Duration
}

// Sink accepts records. Callers treat failures as non-fatal.
type Sink interface {
	Record(ctx context.Context, r Record) error
}

// Nop discards every record.
type Nop struct{}

// Record implements Sink.
func (Nop) Record(context.Context, Record) error { return nil }
