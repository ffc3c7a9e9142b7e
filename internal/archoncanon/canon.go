// Package archoncanon produces the canonical JSON byte form used for every
// signed payload and every persisted JSON blob in cl-hive-archon: sorted
// object keys, no insignificant whitespace, bitwise-stable across runs.
//
// encoding/json already sorts map[string]any keys lexicographically and
// emits no whitespace when Marshal (not MarshalIndent) is used, so no
// third-party canonical-JSON library is pulled in for this; see DESIGN.md.
package archoncanon

import "encoding/json"

// Marshal serializes v as canonical JSON: sorted keys, no whitespace.
func Marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MustMarshal is Marshal but panics on error. Only used for values whose
// shape is controlled internally (map[string]any / []string literals built
// from already-validated fields) where a marshal error would indicate a bug.
func MustMarshal(v any) string {
	s, err := Marshal(v)
	if err != nil {
		panic(err)
	}
	return s
}
