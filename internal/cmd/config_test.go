package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyforge/dispatch/internal/config"
	"github.com/keyforge/dispatch/internal/testutil"
)

func TestConfigInit_WritesLoadableDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	out, err := runRoot(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err := config.NewLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "config.yaml", "listen: localhost:1\n")

	_, err := runRoot(t, "config", "init", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitValidationError, ExitCodeFromError(err))

	_, err = runRoot(t, "config", "init", "--config", path, "--force")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "localhost:3000")
}

func TestConfigVet(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := testutil.WriteFile(t, dir, "good.yaml", "listen: 0.0.0.0:3000\n")
		out, err := runRoot(t, "config", "vet", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Configuration is valid")
	})

	t.Run("invalid", func(t *testing.T) {
		path := testutil.WriteFile(t, dir, "bad.yaml", "buildsRoute: builds\nlegacyChannels: [ghost]\n")
		_, err := runRoot(t, "config", "vet", path)
		require.Error(t, err)
		assert.Equal(t, ExitValidationError, ExitCodeFromError(err))
		assert.Contains(t, err.Error(), "buildsRoute")
	})

	t.Run("missing", func(t *testing.T) {
		_, err := runRoot(t, "config", "vet", filepath.Join(dir, "absent.yaml"))
		require.Error(t, err)
		assert.Equal(t, ExitNotFound, ExitCodeFromError(err))
	})
}
