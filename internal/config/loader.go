package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Environment variable prefix for dispatcher configuration.
const envPrefix = "DISPATCH"

// EnvConfig names the config file when --config is not given.
const EnvConfig = envPrefix + "_CONFIG"

// scalarKeys are bound to DISPATCH_* environment variables. Map and list
// settings are file-only.
var scalarKeys = []string{
	"listen",
	"fileHost",
	"buildsRoute",
	"maxBodyBytes",
	"paths.layouts",
	"paths.workspace",
	"paths.output",
	"paths.workerKll",
	"worker.command",
	"worker.composeFile",
	"worker.upFile",
	"worker.composeUp",
	"versionsFile",
	"controllerRepo",
	"containerPrefix",
	"stats.path",
}

// Loader handles loading and merging configuration from multiple sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader. Environment variables are
// the upper-cased key with dots replaced, e.g. DISPATCH_PATHS_WORKSPACE.
func NewLoader() *Loader {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range scalarKeys {
		_ = v.BindEnv(key)
	}

	return &Loader{v: v}
}

// Load loads configuration from the given file path and applies defaults.
// If configFile is empty, the default config file path is used. A missing
// file is not an error. Environment variables take precedence over file
// values.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile == "" {
		paths, err := DefaultPaths()
		if err != nil {
			return nil, fmt.Errorf("getting config file path: %w", err)
		}
		configFile = paths.ConfigFile
	}

	l.v.SetConfigFile(ExpandTilde(configFile))
	l.v.SetConfigType("yaml")

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg.WithDefaults(), nil
}
