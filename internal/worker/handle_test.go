package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestHandle_ManyWaiters(t *testing.T) {
	h := NewHandle(42)
	assert.Equal(t, 42, h.PID())

	pending, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Wait(pending)
	assert.ErrorIs(t, err, context.Canceled, "no outcome before Complete")

	const waiters = 16
	results := make([]Outcome, waiters)
	var g errgroup.Group
	for i := range waiters {
		g.Go(func() error {
			o, err := h.Wait(context.Background())
			results[i] = o
			return err
		})
	}

	want := Outcome{Success: false, ExitCode: 2, Duration: time.Second}
	assert.True(t, h.Complete(want))
	require.NoError(t, g.Wait())

	for _, o := range results {
		assert.Equal(t, want, o)
	}
}

func TestHandle_CompleteOnce(t *testing.T) {
	h := NewHandle(1)
	assert.True(t, h.Complete(Outcome{Success: true}))
	assert.False(t, h.Complete(Outcome{Success: false, ExitCode: 1}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	o, err := h.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, o.Success, "first outcome wins")
}

func TestHandle_WaitCancelled(t *testing.T) {
	h := NewHandle(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
