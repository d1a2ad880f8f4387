// Package testutil provides test helpers shared across packages.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/keyforge/dispatch/internal/layout"
)

// WriteFile creates a file with the given content in the specified directory.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent dirs for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// MustJSON marshals v or fails the test.
func MustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal %T: %v", v, err)
	}
	return b
}

// Header returns a complete header for board name, layout and base.
func Header(name, layoutName, base string) layout.Header {
	return layout.Header{
		Name:      name,
		Layout:    layoutName,
		Base:      base,
		Version:   "0.1",
		Author:    "tester",
		KLL:       "0.5",
		Date:      "2019-01-01",
		Generator: "test",
	}
}

// Key returns a matrix key whose layer i is assigned layers[i]. Empty
// strings leave that layer unassigned.
func Key(code string, layers ...string) layout.MatrixKey {
	k := layout.MatrixKey{Code: code, Layers: map[int]layout.KeyAction{}}
	for i, v := range layers {
		if v == "" {
			continue
		}
		k.Layers[i] = layout.KeyAction{Key: v}
	}
	return k
}

// Config returns a layout configuration with the given header and keys.
func Config(h layout.Header, keys ...layout.MatrixKey) *layout.Config {
	return &layout.Config{Header: h, Matrix: keys}
}

// BaseKeys returns n base keys with codes 0x01.. and layer-0 keys K1..Kn.
func BaseKeys(n int) []layout.MatrixKey {
	keys := make([]layout.MatrixKey, n)
	for i := range keys {
		keys[i] = Key(Code(i+1), "K"+strconv.Itoa(i+1))
	}
	return keys
}

// Code formats a scan code the way layout files do.
func Code(n int) string {
	return "0x" + strconv.FormatInt(int64(n), 16)
}

// WriteBaseLayout writes a base layout document containing keys.
func WriteBaseLayout(t *testing.T, dir, name string, keys []layout.MatrixKey) string {
	t.Helper()
	doc := map[string]any{"matrix": keys}
	return WriteFile(t, dir, name, string(MustJSON(t, doc)))
}

// SeedLayouts writes a small base layout for every supported board into
// dir and returns dir. Each base has eight keys.
func SeedLayouts(t *testing.T, dir string) string {
	t.Helper()
	for _, name := range []string{
		"MD1-Standard.json",
		"MD1.1-Standard.json",
		"MDErgo1-Default.json",
		"WhiteFox-Blank.json",
		"WhiteFox-Blank.lts.json",
		"K-Type-Standard.json",
		"Kira-Standard.json",
	} {
		WriteBaseLayout(t, dir, name, BaseKeys(8))
	}
	return dir
}
