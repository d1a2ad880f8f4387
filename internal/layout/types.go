// Package layout defines the keyboard layout configuration submitted by
// configurator clients, and its canonical serialization.
package layout

import (
	"encoding/json"
	"strings"
)

// Config is a complete layout submission.
// It is immutable once parsed.
type Config struct {
	Header     Header                     `json:"header"`
	Matrix     []MatrixKey                `json:"matrix"`
	Custom     map[int]string             `json:"custom,omitempty"`     // layer index -> raw layer-language code
	Animations Animations                 `json:"animations,omitempty"` // emitted in document order
	Canned     map[string]CannedAnimation `json:"canned,omitempty"`
	Defines    []Define                   `json:"defines,omitempty"`
	LEDs       []LED                      `json:"leds,omitempty"`
}

// MatrixKey is one physical key and its per-layer assignments.
type MatrixKey struct {
	Code     string            `json:"code"` // board-specific scan code
	X        *float64          `json:"x,omitempty"`
	Y        *float64          `json:"y,omitempty"`
	W        *float64          `json:"w,omitempty"`
	H        *float64          `json:"h,omitempty"`
	Layers   map[int]KeyAction `json:"layers"`
	Triggers map[int]Trigger   `json:"triggers,omitempty"`
}

// BaseAction returns the layer-0 action of the key.
func (k MatrixKey) BaseAction() (KeyAction, bool) {
	a, ok := k.Layers[0]
	return a, ok
}

// KeyAction is the action a key performs on one layer.
type KeyAction struct {
	Key   string  `json:"key"`
	Label *string `json:"label,omitempty"`
}

// Trigger is an additional action fired alongside a key on one layer.
type Trigger struct {
	Action string `json:"action"`
	Label  string `json:"label"`
	Type   string `json:"type"`
}

// Define is a firmware define emitted into the base layer.
type Define struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LED is the position of one LED on the board.
type LED struct {
	ID       int     `json:"id"`
	ScanCode *string `json:"scanCode,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Animation is a user-defined LED animation.
type Animation struct {
	Type     *string  `json:"type,omitempty"`
	Frames   []string `json:"frames"`
	Settings string   `json:"settings"`
}

// AnimationSetting describes one configurable parameter of a canned animation.
type AnimationSetting struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default any    `json:"default"`
	Values  []any  `json:"values,omitempty"`
}

// CannedAnimation is a predefined animation offered by the configurator.
type CannedAnimation struct {
	Settings     string             `json:"settings"`
	Type         string             `json:"type"`
	Description  string             `json:"description"`
	Configurable []AnimationSetting `json:"configurable"`
	Frames       []string           `json:"frames"`
	CustomKLL    *string            `json:"custom-kll,omitempty"`
}

// Header identifies the board and carries free-form metadata.
// Unknown keys are preserved verbatim in Other.
type Header struct {
	Name      string
	Variant   *string
	Layout    string
	Base      string
	Version   string
	Author    string
	KLL       string
	Date      string
	Generator string

	Other map[string]json.RawMessage
}

// SanitizedName returns the board name with spaces replaced by underscores.
func (h Header) SanitizedName() string {
	return sanitize(h.Name)
}

// SanitizedVariant returns the variant with spaces replaced by underscores,
// or the empty string when no variant was given.
func (h Header) SanitizedVariant() string {
	if h.Variant == nil {
		return ""
	}
	return sanitize(*h.Variant)
}

func sanitize(s string) string {
	return strings.ReplaceAll(s, " ", "_")
}
