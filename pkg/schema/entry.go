package schema

import (
	"encoding/json"
	"sort"
	"strings"
)

// Well-known attribute names understood by the entity factory. Extension
// attributes use the "x-" prefix; everything after the prefix becomes the
// extension key.
const (
	AttrOID                = "oid"
	AttrName               = "name"
	AttrDescription        = "description"
	AttrObsolete           = "obsolete"
	AttrDisabled           = "disabled"
	AttrDependencies       = "dependencies"
	AttrImplementation     = "implementation"
	AttrSuperior           = "superior"
	AttrEquality           = "equality"
	AttrOrdering           = "ordering"
	AttrSubstring          = "substring"
	AttrSyntax             = "syntax"
	AttrSyntaxLength       = "syntaxLength"
	AttrSingleValue        = "singleValue"
	AttrCollective         = "collective"
	AttrNoUserModification = "noUserModification"
	AttrUsage              = "usage"
	AttrClassKind          = "classKind"
	AttrMust               = "must"
	AttrMay                = "may"
	AttrNot                = "not"
	AttrAuxiliary          = "auxiliary"
	AttrApplies            = "applies"
	AttrRuleID             = "ruleId"
	AttrForm               = "form"
	AttrStructuralClass    = "structuralClass"
	AttrHumanReadable      = "humanReadable"

	// ExtensionPrefix marks vendor extension attributes on an entry.
	ExtensionPrefix = "x-"
)

// Entry is the generic attribute record consumed by the entity factory: a
// case-insensitive mapping from attribute names to ordered string values.
// Textual parsers and schema sources produce this shape; the factory is its
// only consumer.
type Entry struct {
	attrs map[string][]string
}

// NewEntry builds an empty attribute record.
func NewEntry() Entry {
	return Entry{attrs: map[string][]string{}}
}

func normalizeAttr(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Add appends values under the given attribute name.
func (e *Entry) Add(name string, values ...string) {
	if e.attrs == nil {
		e.attrs = map[string][]string{}
	}
	key := normalizeAttr(name)
	e.attrs[key] = append(e.attrs[key], values...)
}

// Set replaces the values of the given attribute.
func (e *Entry) Set(name string, values ...string) {
	if e.attrs == nil {
		e.attrs = map[string][]string{}
	}
	e.attrs[normalizeAttr(name)] = append([]string(nil), values...)
}

// Has reports whether the attribute is present.
func (e Entry) Has(name string) bool {
	_, ok := e.attrs[normalizeAttr(name)]
	return ok
}

// First returns the first value of the attribute.
func (e Entry) First(name string) (string, bool) {
	values := e.attrs[normalizeAttr(name)]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// All returns a copy of every value of the attribute.
func (e Entry) All(name string) []string {
	values := e.attrs[normalizeAttr(name)]
	if len(values) == 0 {
		return nil
	}
	return append([]string(nil), values...)
}

// Flag interprets the attribute's first value as a boolean; absent
// attributes report false.
func (e Entry) Flag(name string) bool {
	v, ok := e.First(name)
	if !ok {
		return false
	}
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "TRUE", "1", "YES":
		return true
	default:
		return false
	}
}

// Attributes returns the present attribute names in sorted order.
func (e Entry) Attributes() []string {
	names := make([]string, 0, len(e.attrs))
	for name := range e.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extensions collects the "x-" prefixed attributes as extension key/value
// lists, keys uppercased the way subschema publication renders them.
func (e Entry) Extensions() map[string][]string {
	var out map[string][]string
	for name, values := range e.attrs {
		if !strings.HasPrefix(name, ExtensionPrefix) {
			continue
		}
		if out == nil {
			out = map[string][]string{}
		}
		key := ExtensionPrefix + strings.ToUpper(strings.TrimPrefix(name, ExtensionPrefix))
		out[key] = append([]string(nil), values...)
	}
	return out
}

// Clone returns an independent copy of the record.
func (e Entry) Clone() Entry {
	cp := NewEntry()
	for name, values := range e.attrs {
		cp.attrs[name] = append([]string(nil), values...)
	}
	return cp
}

// MarshalJSON renders the record as a plain attribute map.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.attrs == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e.attrs)
}

// UnmarshalJSON reads a plain attribute map, normalizing names.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = NewEntry()
	for name, values := range raw {
		e.Add(name, values...)
	}
	return nil
}

// Record pairs an attribute record with the schema object kind it describes.
// Schema sources emit records; the entity factory turns them into typed
// schema objects.
type Record struct {
	Kind  Kind  `json:"kind"`
	Entry Entry `json:"entry"`
}

// ValidOID reports whether s is a numeric dotted identifier, the form
// required of every OID in strict mode.
func ValidOID(s string) bool {
	if s == "" {
		return false
	}
	dot := true // expect digit first
	seenDot := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			dot = false
		case c == '.':
			if dot {
				return false
			}
			dot = true
			seenDot = true
		default:
			return false
		}
	}
	return !dot && seenDot
}

// ValidRuleID reports whether s is a plain decimal integer, the identifier
// form used by DIT structure rules.
func ValidRuleID(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
