package versions

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// mappingFile is the persisted form of discovered or hand-maintained
// channel mappings.
type mappingFile struct {
	Channels map[string]string `yaml:"channels"`
	Legacy   []string          `yaml:"legacy,omitempty"`
}

// LoadFile merges the mappings in path into the registry. Names in the
// file's legacy list also mark channels configured elsewhere. A missing file
// is not an error.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading versions file: %w", err)
	}

	var mf mappingFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return fmt.Errorf("parsing versions file %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.markLegacyLocked(mf.Legacy...)
	for name, container := range mf.Channels {
		r.setLocked(Channel{Name: name, Container: container, Source: SourceFile})
	}
	return nil
}

// SaveFile writes every channel mapping to path.
func (r *Registry) SaveFile(path string) error {
	r.mu.RLock()
	mf := mappingFile{Channels: make(map[string]string, len(r.channels))}
	for name, ch := range r.channels {
		mf.Channels[name] = ch.Container
		if ch.Legacy {
			mf.Legacy = append(mf.Legacy, name)
		}
	}
	r.mu.RUnlock()
	slices.Sort(mf.Legacy)

	data, err := yaml.Marshal(&mf)
	if err != nil {
		return fmt.Errorf("encoding versions file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating versions file directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing versions file: %w", err)
	}
	return nil
}
