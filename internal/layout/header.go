package layout

import (
	"bytes"
	"encoding/json"
	"fmt"

	oerrors "github.com/keyforge/dispatch/internal/errors"
)

// Header keys in canonical order. Every key except Variant is required.
const (
	keyName      = "Name"
	keyVariant   = "Variant"
	keyLayout    = "Layout"
	keyBase      = "Base"
	keyVersion   = "Version"
	keyAuthor    = "Author"
	keyKLL       = "KLL"
	keyDate      = "Date"
	keyGenerator = "Generator"
)

// UnmarshalJSON decodes the header object, rejecting missing required keys
// and keeping unrecognized keys in Other.
func (h *Header) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	required := []struct {
		key string
		dst *string
	}{
		{keyName, &h.Name},
		{keyLayout, &h.Layout},
		{keyBase, &h.Base},
		{keyVersion, &h.Version},
		{keyAuthor, &h.Author},
		{keyKLL, &h.KLL},
		{keyDate, &h.Date},
		{keyGenerator, &h.Generator},
	}
	for _, f := range required {
		v, ok := raw[f.key]
		if !ok {
			return oerrors.Wrap(oerrors.ErrValidation, fmt.Sprintf("header: missing field `%s`", f.key))
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return fmt.Errorf("header.%s: %w", f.key, err)
		}
		delete(raw, f.key)
	}

	if v, ok := raw[keyVariant]; ok {
		if string(v) != "null" {
			var variant string
			if err := json.Unmarshal(v, &variant); err != nil {
				return fmt.Errorf("header.%s: %w", keyVariant, err)
			}
			h.Variant = &variant
		}
		delete(raw, keyVariant)
	}

	if len(raw) > 0 {
		h.Other = raw
	}
	return nil
}

// MarshalJSON encodes the header with sorted keys so that the output does not
// depend on the key order of the submitted document.
func (h Header) MarshalJSON() ([]byte, error) {
	fields := map[string]any{
		keyName:      h.Name,
		keyLayout:    h.Layout,
		keyBase:      h.Base,
		keyVersion:   h.Version,
		keyAuthor:    h.Author,
		keyKLL:       h.KLL,
		keyDate:      h.Date,
		keyGenerator: h.Generator,
	}
	if h.Variant != nil {
		fields[keyVariant] = *h.Variant
	}
	for k, v := range h.Other {
		nv, err := normalizeRaw(v)
		if err != nil {
			return nil, fmt.Errorf("header.%s: %w", k, err)
		}
		fields[k] = nv
	}
	return json.Marshal(fields)
}

// normalizeRaw decodes a free-form value so that nested objects re-encode
// with sorted keys. Numbers keep their literal text.
func normalizeRaw(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Fields returns the header as key/value pairs in canonical emission order.
// Variant is always present (empty when unset) and is sanitized.
func (h Header) Fields() [][2]string {
	return [][2]string{
		{keyName, h.Name},
		{keyVariant, h.SanitizedVariant()},
		{keyLayout, h.Layout},
		{keyBase, h.Base},
		{keyVersion, h.Version},
		{keyAuthor, h.Author},
		{keyKLL, h.KLL},
		{keyDate, h.Date},
		{keyGenerator, h.Generator},
	}
}
