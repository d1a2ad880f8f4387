package layout

import (
	"encoding/json"
	"fmt"

	oerrors "github.com/keyforge/dispatch/internal/errors"
)

// Parse decodes a layout configuration and checks the fields every
// downstream stage relies on.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, oerrors.Wrapf(oerrors.ErrValidation, err, "parsing layout")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the structural requirements that JSON decoding alone
// cannot express.
func (c *Config) Validate() error {
	if c.Matrix == nil {
		return oerrors.Wrap(oerrors.ErrValidation, "missing field `matrix`")
	}
	for i, key := range c.Matrix {
		if key.Code == "" {
			return oerrors.Wrap(oerrors.ErrValidation, fmt.Sprintf("matrix[%d]: missing field `code`", i))
		}
		if key.Layers == nil {
			return oerrors.Wrap(oerrors.ErrValidation, fmt.Sprintf("matrix[%d] (%s): missing field `layers`", i, key.Code))
		}
		for l := range key.Layers {
			if l < 0 {
				return oerrors.Wrap(oerrors.ErrValidation, fmt.Sprintf("matrix[%d] (%s): negative layer %d", i, key.Code, l))
			}
		}
		for l := range key.Triggers {
			if l < 0 {
				return oerrors.Wrap(oerrors.ErrValidation, fmt.Sprintf("matrix[%d] (%s): negative trigger layer %d", i, key.Code, l))
			}
		}
	}
	return nil
}

// Canonical returns the deterministic serialization of the configuration.
// Two submissions that differ only in object key order produce identical
// bytes; animation order is significant and is kept.
func (c *Config) Canonical() ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("canonical layout: %w", err)
	}
	return b, nil
}

// LayerCount returns the number of layers the configuration references,
// that is one more than the highest layer index on any key.
func (c *Config) LayerCount() int {
	n := 0
	for _, key := range c.Matrix {
		for l := range key.Layers {
			if l+1 > n {
				n = l + 1
			}
		}
	}
	return n
}
