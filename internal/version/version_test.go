package version

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	info := Get()
	require.NotEmpty(t, info.GoVersion)
	assert.Equal(t, Version, info.Version)
}

func TestInfoString(t *testing.T) {
	info := Info{
		Version:   "v1.0.0",
		GitCommit: "abc123",
		BuildDate: "2026-01-29",
		GoVersion: "go1.25",
	}

	str := info.String()
	assert.Contains(t, str, "v1.0.0")
	assert.Contains(t, str, "2026-01-29/abc123")
	assert.Contains(t, str, "go1.25")
}

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		output  string
		want    string
		wantErr bool
	}{
		{output: "1.29.2\n", want: "v1.29.2"},
		{output: "v2.24.6\n", want: "v2.24.6"},
		{output: "docker-compose version 1.25.0, build 0a186604", want: "v1.25.0"},
		{output: "unknown flag: --short", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			got, err := extractVersion(tt.output)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSupported(t *testing.T) {
	ok, msg := Supported("v2.24.6")
	assert.True(t, ok)
	assert.Equal(t, "supported", msg)

	ok, msg = Supported("v1.21.0")
	assert.False(t, ok)
	assert.Contains(t, msg, MinComposeVersion)

	ok, _ = Supported("garbage")
	assert.False(t, ok)
}

func TestDetectTool(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		info := DetectTool("definitely-not-a-compose-binary")
		assert.False(t, info.Found)
		assert.Contains(t, info.String(), "not found")
	})

	t.Run("fake compose in PATH", func(t *testing.T) {
		dir := t.TempDir()
		script := filepath.Join(dir, "fake-compose")
		require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 2.20.3\n"), 0o755))
		t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

		info := DetectTool("fake-compose")
		require.True(t, info.Found)
		assert.Equal(t, script, info.Path)
		assert.Equal(t, "v2.20.3", info.Version)
		assert.True(t, info.Supported)
	})
}
