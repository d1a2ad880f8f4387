// Package fingerprint identifies build requests for deduplication.
package fingerprint

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies one logical build request. It is stable across
// processes for equal inputs.
type Fingerprint string

// String implements fmt.Stringer.
func (f Fingerprint) String() string {
	return string(f)
}

// Compute hashes the target container, the canonical layout serialization
// and the environment tag. Fields are length-prefixed so that moving bytes
// between fields changes the result.
func Compute(container string, canonical []byte, env string) Fingerprint {
	d := xxhash.New()
	writeField(d, []byte(container))
	writeField(d, canonical)
	writeField(d, []byte(env))
	return Fingerprint(fmt.Sprintf("%016x", d.Sum64()))
}

func writeField(d *xxhash.Digest, b []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	_, _ = d.Write(n[:])
	_, _ = d.Write(b)
}
