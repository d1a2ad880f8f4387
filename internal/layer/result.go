package layer

import (
	"fmt"
	"iter"
	"path/filepath"
	"strings"

	"github.com/keyforge/dispatch/internal/board"
)

// File is one generated layer file.
type File struct {
	Name    string
	Content string
}

// Stem returns the file name without its extension.
func (f File) Stem() string {
	return strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
}

// Result is the outcome of one generation. File text is rendered on demand.
type Result struct {
	Board  board.Board
	Name   string // sanitized board name
	Layout string
	Mode   Mode

	// IgnoredAnimations lists animations that had no frames and were
	// replaced by a skip marker.
	IgnoredAnimations []string

	header     string
	defines    string
	animations string
	custom     map[int]string
	layers     []layerDiff
}

// Len returns the number of files the result renders.
func (r *Result) Len() int {
	return len(r.layers)
}

// FileName returns the name of the file for layer n.
func (r *Result) FileName(n int) string {
	return fmt.Sprintf("%s-%s-%d.kll", r.Name, r.Layout, n)
}

// All yields one file per layer, base layer first.
func (r *Result) All() iter.Seq[File] {
	return func(yield func(File) bool) {
		for n := range r.layers {
			if !yield(File{Name: r.FileName(n), Content: r.render(n)}) {
				return
			}
		}
	}
}

// Files renders every file.
func (r *Result) Files() []File {
	files := make([]File, 0, len(r.layers))
	for f := range r.All() {
		files = append(files, f)
	}
	return files
}

func (r *Result) render(n int) string {
	d := r.layers[n]
	overrides := renderOverrides(d.overrides, r.Mode.Legacy())
	triggers := renderTriggers(d.triggers)

	custom := ""
	if c, ok := r.custom[n]; ok {
		custom = "\n\n" + c
	}

	if n == 0 {
		return fmt.Sprintf("%s\n\n%s\n\n%s\n\n%s%s\n\n%s\n\n",
			r.header, r.defines, overrides, triggers, custom, r.animations)
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s%s\n\n", r.header, overrides, triggers, custom)
}
