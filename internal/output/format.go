package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format specifies how a command renders structured results.
type Format string

const (
	// FormatTable renders a styled table.
	FormatTable Format = "table"

	// FormatJSON renders indented JSON.
	FormatJSON Format = "json"

	// FormatYAML renders YAML.
	FormatYAML Format = "yaml"
)

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (valid: %s)", s, strings.Join(ValidFormats(), ", "))
	}
}

// ValidFormats returns the accepted format names.
func ValidFormats() []string {
	return []string{"table", "json", "yaml"}
}

// Encode writes v to w as JSON or YAML. Table output is rendered by the
// caller and is rejected here.
func Encode(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q cannot encode values", f)
	}
}
