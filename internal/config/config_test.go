package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "localhost:3000", cfg.Listen)
	assert.Equal(t, "http://localhost:8080", cfg.FileHost)
	assert.Equal(t, "/builds", cfg.BuildsRoute)
	assert.EqualValues(t, 10*1024*1024, cfg.MaxBodyBytes)

	assert.Equal(t, "./tmp_kll", cfg.Paths.Workspace)
	assert.Equal(t, "/tmp/kll", cfg.Paths.WorkerKll)
	assert.Equal(t, "docker-compose", cfg.Worker.Command)
	assert.Equal(t, "docker-compose-build.yml", cfg.Worker.ComposeFile)
	assert.False(t, cfg.Worker.ComposeUp)

	assert.Equal(t, "controller-056", cfg.Channels["latest"])
	assert.Equal(t, "controller-050", cfg.Channels["lts"])
	assert.ElementsMatch(t, []string{"lts", "v0.5.0"}, cfg.LegacyChannels)

	assert.Empty(t, cfg.Stats.Path, "stats are off by default")
	assert.Nil(t, cfg.Log.Timestamps)
}

func TestWithDefaults(t *testing.T) {
	t.Run("fills unset fields", func(t *testing.T) {
		cfg := (&Config{Listen: ":9000"}).WithDefaults()
		assert.Equal(t, ":9000", cfg.Listen)
		assert.Equal(t, "/builds", cfg.BuildsRoute)
		assert.Equal(t, "./layouts", cfg.Paths.Layouts)
		assert.Len(t, cfg.Channels, 4)
	})

	t.Run("configured channels do not inherit default legacy list", func(t *testing.T) {
		cfg := (&Config{Channels: map[string]string{"latest": "controller-060"}}).WithDefaults()
		assert.Equal(t, map[string]string{"latest": "controller-060"}, cfg.Channels)
		assert.Empty(t, cfg.LegacyChannels)
	})

	t.Run("does not modify receiver", func(t *testing.T) {
		in := &Config{}
		_ = in.WithDefaults()
		assert.Empty(t, in.Listen)
		assert.Nil(t, in.Channels)
	})
}
