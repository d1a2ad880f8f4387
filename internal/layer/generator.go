// Package layer turns a layout configuration into per-layer KLL files by
// diffing the user's matrix against the board's base layout.
package layer

import (
	"fmt"
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/keyforge/dispatch/internal/board"
	oerrors "github.com/keyforge/dispatch/internal/errors"
	"github.com/keyforge/dispatch/internal/layout"
	"github.com/keyforge/dispatch/internal/output"
)

// Mode selects the firmware generation being targeted.
type Mode int

const (
	// ModeCurrent targets current firmware.
	ModeCurrent Mode = iota
	// ModeLegacy targets long-term-support firmware: LED actions are
	// remapped, animations and triggers are suppressed.
	ModeLegacy
)

// Legacy reports whether m is ModeLegacy.
func (m Mode) Legacy() bool {
	return m == ModeLegacy
}

func (m Mode) String() string {
	if m.Legacy() {
		return "legacy"
	}
	return "current"
}

// Generator produces layer files. The zero value is not usable; Base must
// be set.
type Generator struct {
	Base   BaseSource
	Logger *log.Logger
}

// New returns a Generator reading base layouts from src.
func New(src BaseSource) *Generator {
	return &Generator{Base: src}
}

func (g *Generator) logger() *log.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return output.Logger()
}

// Generate diffs cfg against its base layout and prepares one file per
// layer. A header with an empty sanitized name or empty layout name yields
// a Result with no files.
func (g *Generator) Generate(cfg *layout.Config, mode Mode) (*Result, error) {
	name := cfg.Header.SanitizedName()
	res := &Result{
		Name:   name,
		Layout: cfg.Header.Layout,
		Mode:   mode,
	}
	if name == "" || cfg.Header.Layout == "" {
		g.logger().Debug("header has no board or layout name, nothing to generate")
		return res, nil
	}

	b, err := board.Lookup(cfg.Header.Name)
	if err != nil {
		return nil, err
	}
	res.Board = b

	base, err := g.Base.Load(name, cfg.Header.Base, mode.Legacy() && b.LegacyBase)
	if err != nil {
		return nil, err
	}

	layers, err := g.diff(b, cfg.Matrix, base, mode)
	if err != nil {
		return nil, err
	}
	res.layers = layers
	res.custom = cfg.Custom
	res.header = renderHeader(cfg.Header)
	res.defines = renderDefines(cfg.Defines)
	if !mode.Legacy() {
		res.animations, res.IgnoredAnimations = renderAnimations(cfg.Animations)
	}

	g.logger().Debug("generated layers",
		"board", b.Name, "layout", res.Layout, "mode", mode,
		"layers", len(layers), "ignoredAnimations", len(res.IgnoredAnimations))
	return res, nil
}

type override struct {
	base  string
	value string
}

type triggerGroup struct {
	base    string
	actions []string
}

type layerDiff struct {
	overrides []override
	triggers  []triggerGroup
}

func (d *layerDiff) addTrigger(base, action string) {
	for i := range d.triggers {
		if d.triggers[i].base == base {
			d.triggers[i].actions = append(d.triggers[i].actions, action)
			return
		}
	}
	d.triggers = append(d.triggers, triggerGroup{base: base, actions: []string{action}})
}

// diff pairs every user key with a base key and records, per layer, the
// base key's layer-0 name next to the user's assignment. A layer-0
// assignment equal to the base is not an override.
func (g *Generator) diff(b board.Board, user, base []layout.MatrixKey, mode Mode) ([]layerDiff, error) {
	var layers []layerDiff
	grow := func(l int) {
		for len(layers) <= l {
			layers = append(layers, layerDiff{})
		}
	}

	for i, key := range user {
		idx := -1
		switch b.Match {
		case board.MatchScanCode:
			idx = slices.IndexFunc(base, func(k layout.MatrixKey) bool { return k.Code == key.Code })
		default:
			if i < len(base) {
				idx = i
			}
		}
		if idx < 0 {
			g.logger().Debug("no base key for user key, skipping", "index", i, "code", key.Code, "match", b.Match)
			continue
		}

		emitTriggers := !mode.Legacy() && len(key.Triggers) > 0
		if len(key.Layers) == 0 && !emitTriggers {
			continue
		}
		action, ok := base[idx].BaseAction()
		if !ok {
			return nil, oerrors.Wrap(oerrors.ErrValidation,
				fmt.Sprintf("base layout key %s has no layer 0 action", base[idx].Code))
		}

		for _, l := range slices.Sorted(maps.Keys(key.Layers)) {
			grow(l)
			value := key.Layers[l].Key
			if l == 0 && value == action.Key {
				// Unchanged base assignment; the layer still exists.
				continue
			}
			layers[l].overrides = append(layers[l].overrides, override{base: action.Key, value: value})
		}
		if emitTriggers {
			for _, l := range slices.Sorted(maps.Keys(key.Triggers)) {
				grow(l)
				layers[l].addTrigger(action.Key, key.Triggers[l].Action)
			}
		}
	}
	return layers, nil
}
