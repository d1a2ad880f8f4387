// Package versions maps firmware channels to the build containers that
// compile them.
package versions

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	oerrors "github.com/keyforge/dispatch/internal/errors"
)

// Source records where a channel mapping came from.
type Source string

const (
	SourceConfig Source = "config"
	SourceFile   Source = "file"
	SourceGit    Source = "git"
)

// Channel is one resolvable firmware channel.
type Channel struct {
	Name      string `json:"-" yaml:"-"`
	Container string `json:"container" yaml:"container"`
	Legacy    bool   `json:"legacy" yaml:"legacy"`
	Source    Source `json:"source" yaml:"source"`
	Tag       string `json:"tag,omitempty" yaml:"tag,omitempty"`
}

// Resolver resolves the environment tag of a build request.
type Resolver interface {
	// Resolve returns the channel for env, or an ErrUnknownChannel error.
	Resolve(env string) (Channel, error)
	// Channels returns every channel, sorted by name.
	Channels() []Channel
	// Available returns the set of containers known to exist. A nil map
	// means the set is unknown and every container is accepted.
	Available() map[string]bool
}

// Registry is the default Resolver. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	channels  map[string]Channel
	legacy    map[string]bool
	available map[string]bool
}

var _ Resolver = (*Registry)(nil)

// NewRegistry returns a registry holding the static channel mappings.
// Channels named in legacy select legacy generation.
func NewRegistry(static map[string]string, legacy []string) *Registry {
	r := &Registry{
		channels: make(map[string]Channel, len(static)),
		legacy:   make(map[string]bool, len(legacy)),
	}
	for _, name := range legacy {
		r.legacy[name] = true
	}
	for name, container := range static {
		r.channels[name] = Channel{Name: name, Container: container, Legacy: r.legacy[name], Source: SourceConfig}
	}
	return r
}

// setLocked adds or replaces a channel. Legacy is derived from the
// registry's legacy set unless ch.Legacy is already true.
func (r *Registry) setLocked(ch Channel) {
	ch.Legacy = ch.Legacy || r.legacy[ch.Name]
	r.channels[ch.Name] = ch
}

// markLegacyLocked adds names to the legacy set, updating existing channels.
func (r *Registry) markLegacyLocked(names ...string) {
	for _, name := range names {
		r.legacy[name] = true
		if ch, ok := r.channels[name]; ok {
			ch.Legacy = true
			r.channels[name] = ch
		}
	}
}

// SetAvailable records the containers the runner can target.
func (r *Registry) SetAvailable(containers []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.available = make(map[string]bool, len(containers))
	for _, c := range containers {
		r.available[c] = true
	}
}

// Resolve implements Resolver.
func (r *Registry) Resolve(env string) (Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.channels[env]
	if !ok {
		return Channel{}, oerrors.Wrap(oerrors.ErrUnknownChannel, fmt.Sprintf("channel %q", env))
	}
	if r.available != nil && !r.available[ch.Container] {
		return Channel{}, oerrors.Wrap(oerrors.ErrUnknownChannel,
			fmt.Sprintf("channel %q: container %s is not available", env, ch.Container))
	}
	return ch, nil
}

// Channels implements Resolver.
func (r *Registry) Channels() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Channel, 0, len(r.channels))
	for _, name := range slices.Sorted(maps.Keys(r.channels)) {
		out = append(out, r.channels[name])
	}
	return out
}

// Available implements Resolver.
func (r *Registry) Available() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.available == nil {
		return nil
	}
	return maps.Clone(r.available)
}
