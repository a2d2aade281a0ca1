package schema

import "strings"

// Schema is a named, dependency-ordered grouping of schema objects with an
// enabled/disabled state.
type Schema struct {
	Name         string   `json:"name"`
	Owner        string   `json:"owner,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Enabled      bool     `json:"enabled"`
	Loaded       bool     `json:"-"`
}

// Clone returns an independent copy of the descriptor.
func (s Schema) Clone() Schema {
	cp := s
	cp.Dependencies = append([]string(nil), s.Dependencies...)
	return cp
}

// NormalizeSchemaName canonicalizes a schema name for case-insensitive
// comparison and map keying.
func NormalizeSchemaName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SameSchemaName reports whether two schema names are equal ignoring case.
func SameSchemaName(a, b string) bool {
	return NormalizeSchemaName(a) == NormalizeSchemaName(b)
}
