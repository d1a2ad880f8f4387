// Package board enumerates the keyboards the build service knows how to
// compile, with the static metadata each one needs.
package board

import (
	"fmt"
	"strings"

	oerrors "github.com/keyforge/dispatch/internal/errors"
)

// Match selects how user keys are paired with base layout keys.
type Match int

const (
	// MatchPosition pairs the N-th user key with the N-th base key.
	MatchPosition Match = iota
	// MatchScanCode pairs a user key with the first base key sharing its code.
	MatchScanCode
)

func (m Match) String() string {
	switch m {
	case MatchPosition:
		return "position"
	case MatchScanCode:
		return "scan-code"
	default:
		return fmt.Sprintf("Match(%d)", int(m))
	}
}

// Board is one supported keyboard variant.
type Board struct {
	// Name is the canonical display name.
	Name string
	// Aliases are the lower-case names accepted in a layout header.
	Aliases []string
	// Script is the worker build script for this board.
	Script string
	// Split boards are built with SplitKeyboard=1.
	Split bool
	// ExtraMaps are prepended to every map list handed to the worker.
	ExtraMaps []string
	// Match is the key pairing strategy used when diffing against the base.
	Match Match
	// LegacyBase selects the ".lts.json" base layout in legacy mode.
	LegacyBase bool
}

const stdFuncMap = "stdFuncMap"

var (
	MD1 = Board{
		Name:      "MD1",
		Aliases:   []string{"md1"},
		Script:    "infinity.bash",
		ExtraMaps: []string{stdFuncMap},
	}
	MD1Point1 = Board{
		Name:      "MD1.1",
		Aliases:   []string{"md1.1"},
		Script:    "infinity_led.bash",
		ExtraMaps: []string{stdFuncMap},
	}
	MDErgo1 = Board{
		Name:      "MDErgo1",
		Aliases:   []string{"mdergo1", "ergodox"},
		Script:    "ergodox.bash",
		Split:     true,
		ExtraMaps: []string{stdFuncMap, "infinity_ergodox/lcdFuncMap"},
	}
	WhiteFox = Board{
		Name:       "WhiteFox",
		Aliases:    []string{"whitefox"},
		Script:     "whitefox.bash",
		ExtraMaps:  []string{stdFuncMap},
		Match:      MatchScanCode,
		LegacyBase: true,
	}
	KType = Board{
		Name:      "KType",
		Aliases:   []string{"ktype", "k-type"},
		Script:    "k-type.bash",
		ExtraMaps: []string{stdFuncMap},
	}
	Kira = Board{
		Name:      "Kira",
		Aliases:   []string{"kira"},
		Script:    "kira.bash",
		ExtraMaps: []string{stdFuncMap},
	}
)

// All lists every supported board.
var All = []Board{MD1, MD1Point1, MDErgo1, WhiteFox, KType, Kira}

// UnknownBoardError reports a header board name with no table entry.
type UnknownBoardError struct {
	Name string
}

func (e *UnknownBoardError) Error() string {
	return fmt.Sprintf("unknown board %q", e.Name)
}

// Is makes errors.Is(err, ErrUnknownBoard) hold.
func (e *UnknownBoardError) Is(target error) bool {
	return target == oerrors.ErrUnknownBoard
}

// Lookup resolves a header board name, ignoring case.
func Lookup(name string) (Board, error) {
	lower := strings.ToLower(name)
	for _, b := range All {
		for _, alias := range b.Aliases {
			if alias == lower {
				return b, nil
			}
		}
	}
	return Board{}, &UnknownBoardError{Name: name}
}

// Names returns the canonical names of all supported boards.
func Names() []string {
	names := make([]string, len(All))
	for i, b := range All {
		names[i] = b.Name
	}
	return names
}
