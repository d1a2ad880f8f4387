package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoaderLoad(t *testing.T) {
	t.Run("loads config from file", func(t *testing.T) {
		path := writeConfig(t, `
listen: 0.0.0.0:3100
fileHost: https://configurator.example.com
maxBodyBytes: 2048
paths:
  layouts: /srv/layouts
  workerKll: /mnt/kll
worker:
  command: docker
  composeUp: true
channels:
  latest: controller-057
  lts: controller-050
legacyChannels: [lts]
stats:
  path: /var/lib/dispatch/stats.db
log:
  timestamps: false
`)
		cfg, err := NewLoader().Load(path)
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0:3100", cfg.Listen)
		assert.Equal(t, "https://configurator.example.com", cfg.FileHost)
		assert.EqualValues(t, 2048, cfg.MaxBodyBytes)
		assert.Equal(t, "/srv/layouts", cfg.Paths.Layouts)
		assert.Equal(t, "/mnt/kll", cfg.Paths.WorkerKll)
		assert.Equal(t, "./tmp_kll", cfg.Paths.Workspace, "unset fields keep defaults")
		assert.Equal(t, "docker", cfg.Worker.Command)
		assert.True(t, cfg.Worker.ComposeUp)
		assert.Equal(t, map[string]string{"latest": "controller-057", "lts": "controller-050"}, cfg.Channels)
		assert.Equal(t, []string{"lts"}, cfg.LegacyChannels)
		assert.Equal(t, "/var/lib/dispatch/stats.db", cfg.Stats.Path)
		require.NotNil(t, cfg.Log.Timestamps)
		assert.False(t, *cfg.Log.Timestamps)
	})

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := NewLoader().Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("env vars override file values", func(t *testing.T) {
		t.Setenv("DISPATCH_LISTEN", "127.0.0.1:4000")
		t.Setenv("DISPATCH_PATHS_WORKSPACE", "/env/workspace")
		t.Setenv("DISPATCH_WORKER_COMPOSEUP", "true")

		path := writeConfig(t, "listen: localhost:3100\n")
		cfg, err := NewLoader().Load(path)
		require.NoError(t, err)

		assert.Equal(t, "127.0.0.1:4000", cfg.Listen)
		assert.Equal(t, "/env/workspace", cfg.Paths.Workspace)
		assert.True(t, cfg.Worker.ComposeUp)
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := writeConfig(t, "listen: [unclosed\n")
		_, err := NewLoader().Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading config file")
	})
}
