package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NamedAnimation is one entry of Animations.
type NamedAnimation struct {
	Name string
	Animation
}

// Animations is a JSON object of animations that keeps document order.
// Emission order of animation blocks follows this order.
type Animations []NamedAnimation

// UnmarshalJSON decodes an object, preserving key order. A repeated key
// replaces the earlier value in place.
func (a *Animations) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("animations: expected object, got %v", tok)
	}

	out := Animations{}
	index := map[string]int{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("animations: expected key, got %v", tok)
		}
		var anim Animation
		if err := dec.Decode(&anim); err != nil {
			return fmt.Errorf("animations.%s: %w", name, err)
		}
		if i, seen := index[name]; seen {
			out[i].Animation = anim
			continue
		}
		index[name] = len(out)
		out = append(out, NamedAnimation{Name: name, Animation: anim})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*a = out
	return nil
}

// MarshalJSON encodes the animations as an object in stored order.
func (a Animations) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(n.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(n.Animation)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
