package config

import (
	"os"
	"path/filepath"
)

// Paths contains standard filesystem paths for the dispatcher.
type Paths struct {
	// ConfigFile is the path to the config file (~/.dispatch/config.yaml).
	ConfigFile string

	// HomeDir is the dispatcher home directory (~/.dispatch).
	HomeDir string
}

// DefaultPaths returns the default paths.
func DefaultPaths() (*Paths, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	home := filepath.Join(homeDir, ".dispatch")

	return &Paths{
		ConfigFile: filepath.Join(home, "config.yaml"),
		HomeDir:    home,
	}, nil
}

// EnsureHomeDir creates the dispatcher home directory if it doesn't exist.
func EnsureHomeDir() error {
	paths, err := DefaultPaths()
	if err != nil {
		return err
	}
	return os.MkdirAll(paths.HomeDir, 0o755)
}

// ExpandTilde expands a leading ~ to the user's home directory. Paths of
// the form ~user are returned unchanged.
func ExpandTilde(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if len(path) == 1 {
		return homeDir
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
