package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Setenv("DISPATCH_LISTEN", "env:1")

	tests := []struct {
		name     string
		opts     ResolveOptions
		value    string
		source   ConfigSource
		shadowed map[ConfigSource]string
	}{
		{
			name:   "flag wins",
			opts:   ResolveOptions{Key: "listen", FlagValue: "flag:1", EnvVar: "DISPATCH_LISTEN", ConfigValue: "cfg:1", Default: "def:1"},
			value:  "flag:1",
			source: SourceFlag,
			shadowed: map[ConfigSource]string{
				SourceEnv: "env:1", SourceConfig: "cfg:1", SourceDefault: "def:1",
			},
		},
		{
			name:     "env over config",
			opts:     ResolveOptions{Key: "listen", EnvVar: "DISPATCH_LISTEN", ConfigValue: "cfg:1"},
			value:    "env:1",
			source:   SourceEnv,
			shadowed: map[ConfigSource]string{SourceConfig: "cfg:1"},
		},
		{
			name:     "config over default",
			opts:     ResolveOptions{Key: "listen", ConfigValue: "cfg:1", Default: "def:1"},
			value:    "cfg:1",
			source:   SourceConfig,
			shadowed: map[ConfigSource]string{SourceDefault: "def:1"},
		},
		{
			name:     "nothing set",
			opts:     ResolveOptions{Key: "listen"},
			shadowed: map[ConfigSource]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.opts)
			assert.Equal(t, tt.value, got.Value)
			assert.Equal(t, tt.source, got.Source)
			assert.Equal(t, tt.shadowed, got.Shadowed)
		})
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("HOME", "/home/builder")

	t.Run("flag precedence", func(t *testing.T) {
		t.Setenv(EnvConfig, "/env/config.yaml")
		got, err := ResolveConfigPath("/flag/config.yaml")
		require.NoError(t, err)
		assert.Equal(t, "/flag/config.yaml", got.Value)
		assert.Equal(t, SourceFlag, got.Source)
		assert.Equal(t, "/env/config.yaml", got.Shadowed[SourceEnv])
		assert.Equal(t, "/home/builder/.dispatch/config.yaml", got.Shadowed[SourceDefault])
	})

	t.Run("env precedence", func(t *testing.T) {
		t.Setenv(EnvConfig, "/env/config.yaml")
		got, err := ResolveConfigPath("")
		require.NoError(t, err)
		assert.Equal(t, "/env/config.yaml", got.Value)
		assert.Equal(t, SourceEnv, got.Source)
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv(EnvConfig, "")
		got, err := ResolveConfigPath("")
		require.NoError(t, err)
		assert.Equal(t, "/home/builder/.dispatch/config.yaml", got.Value)
		assert.Equal(t, SourceDefault, got.Source)
		assert.Empty(t, got.Shadowed)
	})
}
