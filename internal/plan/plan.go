// Package plan derives worker invocation parameters from a layout and its
// generated layer files.
package plan

import (
	"fmt"
	"strings"

	"github.com/keyforge/dispatch/internal/board"
	oerrors "github.com/keyforge/dispatch/internal/errors"
	"github.com/keyforge/dispatch/internal/fingerprint"
	"github.com/keyforge/dispatch/internal/layer"
	"github.com/keyforge/dispatch/internal/layout"
)

// Worker environment variable names.
const (
	EnvDefaultMap  = "DefaultMapOverride"
	EnvPartialMaps = "PartialMapsExpandedOverride"
	EnvLayout      = "Layout"
	EnvSplit       = "SplitKeyboard"
)

// Artifact suffixes.
const (
	artifactExt       = ".zip"
	artifactErrorExt  = "_error.zip"
	partialMapListSep = ";"
	mapListElementSep = " "
)

// Naming holds the names that identify a build's artifacts.
type Naming struct {
	Name    string // sanitized board name
	Variant string // sanitized variant, empty when unset
	Layout  string
}

// NamingOf extracts artifact naming from a layout header.
func NamingOf(cfg *layout.Config) Naming {
	return Naming{
		Name:    cfg.Header.SanitizedName(),
		Variant: cfg.Header.SanitizedVariant(),
		Layout:  cfg.Header.Layout,
	}
}

// ArtifactBase returns the artifact name without extension.
func (n Naming) ArtifactBase(fp fingerprint.Fingerprint) string {
	return fmt.Sprintf("%s-%s-%s", n.Name, n.Layout, fp)
}

// ArtifactName returns the artifact file name for a build outcome. Success
// and failure names never collide.
func (n Naming) ArtifactName(fp fingerprint.Fingerprint, success bool) string {
	if success {
		return n.ArtifactBase(fp) + artifactExt
	}
	return n.ArtifactBase(fp) + artifactErrorExt
}

// BuildInfo is everything the worker needs besides the layer files.
// It is a pure function of the layout and the generated file names.
type BuildInfo struct {
	Naming

	Board       board.Board
	Script      string
	Split       bool
	DefaultMap  []string
	PartialMaps [][]string
}

// Plan derives the BuildInfo for cfg from its generated files, base layer
// first.
func Plan(cfg *layout.Config, files []layer.File) (*BuildInfo, error) {
	b, err := board.Lookup(cfg.Header.Name)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, oerrors.Wrap(oerrors.ErrValidation, "layout produced no layer files")
	}

	info := &BuildInfo{
		Naming:     NamingOf(cfg),
		Board:      b,
		Script:     b.Script,
		Split:      b.Split,
		DefaultMap: withExtras(b, files[0]),
	}
	for _, f := range files[1:] {
		info.PartialMaps = append(info.PartialMaps, withExtras(b, f))
	}
	return info, nil
}

func withExtras(b board.Board, f layer.File) []string {
	maps := make([]string, 0, len(b.ExtraMaps)+1)
	maps = append(maps, b.ExtraMaps...)
	return append(maps, f.Stem())
}

// DefaultMapValue renders the default map list for the worker.
func (i *BuildInfo) DefaultMapValue() string {
	return strings.Join(i.DefaultMap, mapListElementSep)
}

// PartialMapsValue renders the partial map lists for the worker.
func (i *BuildInfo) PartialMapsValue() string {
	parts := make([]string, len(i.PartialMaps))
	for n, p := range i.PartialMaps {
		parts[n] = strings.Join(p, mapListElementSep)
	}
	return strings.Join(parts, partialMapListSep)
}

// EnvVar is one worker environment assignment.
type EnvVar struct {
	Name  string
	Value string
}

func (e EnvVar) String() string {
	return e.Name + "=" + e.Value
}

// WorkerEnv returns the worker environment in invocation order.
func (i *BuildInfo) WorkerEnv() []EnvVar {
	env := []EnvVar{
		{EnvDefaultMap, i.DefaultMapValue()},
		{EnvPartialMaps, i.PartialMapsValue()},
		{EnvLayout, i.Variant},
	}
	if i.Split {
		env = append(env, EnvVar{EnvSplit, "1"})
	}
	return env
}
