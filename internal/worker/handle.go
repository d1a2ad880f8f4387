package worker

import (
	"context"
	"sync"
	"time"
)

// Outcome is the result of one worker process.
type Outcome struct {
	Success  bool
	ExitCode int
	Duration time.Duration
}

// Handle is a shared, read-only view of a running worker. Any number of
// goroutines may wait on it; all observe the same Outcome.
type Handle struct {
	pid     int
	started time.Time

	once    sync.Once
	done    chan struct{}
	outcome Outcome
}

// NewHandle returns an incomplete handle for the process pid.
func NewHandle(pid int) *Handle {
	return &Handle{
		pid:     pid,
		started: time.Now(),
		done:    make(chan struct{}),
	}
}

// PID returns the process id, for logging.
func (h *Handle) PID() int {
	return h.pid
}

// Started returns the time the handle was created.
func (h *Handle) Started() time.Time {
	return h.started
}

// Complete publishes the outcome. Only the first call has an effect; it
// reports whether this call completed the handle.
func (h *Handle) Complete(o Outcome) bool {
	completed := false
	h.once.Do(func() {
		h.outcome = o
		close(h.done)
		completed = true
	})
	return completed
}

// Wait blocks until the process exits or ctx is done.
func (h *Handle) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-h.done:
		return h.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}
