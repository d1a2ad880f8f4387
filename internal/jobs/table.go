// Package jobs tracks build jobs by fingerprint so that each distinct
// request is compiled at most once per process.
package jobs

import (
	"context"
	"sync"

	"github.com/keyforge/dispatch/internal/fingerprint"
	"github.com/keyforge/dispatch/internal/plan"
	"github.com/keyforge/dispatch/internal/worker"
)

// State is the lifecycle position of a job.
type State int

const (
	// Building means the worker has been started and has not finished.
	Building State = iota
	// Finished means the outcome is recorded. It is terminal.
	Finished
)

func (s State) String() string {
	switch s {
	case Building:
		return "building"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Started is what the first requester of a fingerprint hands to the table.
type Started struct {
	Handle *worker.Handle
	Info   *plan.BuildInfo
}

// Entry is the single job record for one fingerprint. Handle and Info never
// change after insertion.
type Entry struct {
	Fingerprint fingerprint.Fingerprint
	Handle      *worker.Handle
	Info        *plan.BuildInfo

	done chan struct{}

	// guarded by Table.mu
	state   State
	success bool
}

// Wait blocks until the entry is Finished or ctx is done, and returns the
// recorded outcome. It never holds the table lock while blocking.
func (e *Entry) Wait(ctx context.Context) (bool, error) {
	select {
	case <-e.done:
		// Finish writes success before closing done.
		return e.success, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Table maps fingerprints to job entries. Entries are never removed.
type Table struct {
	mu      sync.Mutex
	entries map[fingerprint.Fingerprint]*Entry
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[fingerprint.Fingerprint]*Entry)}
}

// Acquire returns the entry for fp, creating it with start if absent. The
// second return value is true when this call created the entry.
//
// start runs under the table lock and only for the first caller; it should
// generate files and spawn the worker, not wait for it. If start fails,
// nothing is inserted and the next caller tries again.
func (t *Table) Acquire(fp fingerprint.Fingerprint, start func() (*Started, error)) (*Entry, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.entries[fp]; ok {
		return e, false, nil
	}

	s, err := start()
	if err != nil {
		return nil, false, err
	}

	e := &Entry{
		Fingerprint: fp,
		Handle:      s.Handle,
		Info:        s.Info,
		done:        make(chan struct{}),
		state:       Building,
	}
	t.entries[fp] = e
	return e, true, nil
}

// Finish records the outcome for fp and releases its waiters. Only the
// first call for an entry has an effect; it reports whether this call did
// the transition.
func (t *Table) Finish(fp fingerprint.Fingerprint, success bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[fp]
	if !ok || e.state == Finished {
		return false
	}
	e.success = success
	e.state = Finished
	close(e.done)
	return true
}

// Len returns the number of entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Counts returns the number of entries in each state.
func (t *Table) Counts() map[State]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	counts := map[State]int{Building: 0, Finished: 0}
	for _, e := range t.entries {
		counts[e.state]++
	}
	return counts
}
