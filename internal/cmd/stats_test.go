package cmd

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyforge/dispatch/internal/config"
	"github.com/keyforge/dispatch/internal/stats"
	"github.com/keyforge/dispatch/internal/testutil"
)

func TestStats(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "stats.db")

	cfg := config.DefaultConfig()
	cfg.Stats.Path = dbPath
	sink, closeSink, err := openStats(cfg)
	require.NoError(t, err)
	for _, r := range []stats.Record{
		{Board: "MD1", Success: true, RequestedAt: time.Now()},
		{Board: "MD1", Success: true, Joined: true, RequestedAt: time.Now()},
		{Board: "Kira", Success: false, RequestedAt: time.Now()},
	} {
		require.NoError(t, sink.Record(context.Background(), r))
	}
	closeSink()

	cfgPath := testutil.WriteFile(t, dir, "config.yaml", "stats:\n  path: "+dbPath+"\n")

	out, err := runRoot(t, "stats", "--config", cfgPath, "-o", "json")
	require.NoError(t, err)

	var got stats.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 3, got.Requests)
	assert.Equal(t, 2, got.Successes)
	assert.Equal(t, 1, got.Joined)
	assert.Equal(t, map[string]int{"MD1": 2, "Kira": 1}, got.Boards)

	out, err = runRoot(t, "stats", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "3 requests, 2 succeeded, 1 joined")
}

func TestStats_Disabled(t *testing.T) {
	_, err := runRoot(t, "stats")
	require.Error(t, err)
	assert.Equal(t, ExitValidationError, ExitCodeFromError(err))
}

func TestOpenStats_Disabled(t *testing.T) {
	sink, closeSink, err := openStats(config.DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, stats.Nop{}, sink)
	closeSink()
}
