package manager

import (
	"sort"

	"schemacore/pkg/schema"
)

func sortedDescriptors(s *snapshot) []schema.Schema {
	out := make([]schema.Schema, 0, len(s.schemas))
	for _, desc := range s.schemas {
		out = append(out, desc.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Schemas lists the loaded schema descriptors sorted by name.
func (m *Manager) Schemas() []schema.Schema {
	return sortedDescriptors(m.live.Load())
}

// EnabledSchemas lists the names of loaded, enabled schemas.
func (m *Manager) EnabledSchemas() []string {
	var out []string
	for _, desc := range m.Schemas() {
		if desc.Enabled {
			out = append(out, desc.Name)
		}
	}
	return out
}

// DisabledSchemas lists the names of loaded, disabled schemas.
func (m *Manager) DisabledSchemas() []string {
	var out []string
	for _, desc := range m.Schemas() {
		if !desc.Enabled {
			out = append(out, desc.Name)
		}
	}
	return out
}

// IsLoaded reports whether the named schema is loaded.
func (m *Manager) IsLoaded(name string) bool {
	_, ok := m.live.Load().schemas[schema.NormalizeSchemaName(name)]
	return ok
}

// IsEnabled reports whether the named schema is loaded and enabled.
func (m *Manager) IsEnabled(name string) bool {
	desc, ok := m.live.Load().schemas[schema.NormalizeSchemaName(name)]
	return ok && desc.Enabled
}

// DependentSchemaNames lists the loaded schemas that directly depend on the
// named one, sorted.
func (m *Manager) DependentSchemaNames(name string) []string {
	var out []string
	for _, desc := range m.Schemas() {
		for _, dep := range desc.Dependencies {
			if schema.SameSchemaName(dep, name) {
				out = append(out, desc.Name)
				break
			}
		}
	}
	return out
}

// Lookup resolves a visible object by OID or alias against the live catalog.
func (m *Manager) Lookup(oid schema.OID) (schema.SchemaObject, bool) {
	obj, ok := m.live.Load().regs.Lookup(oid)
	m.metrics.Lookup("any", ok)
	return obj, ok
}

// ObjectCount returns the number of registered objects, reservations
// included.
func (m *Manager) ObjectCount() int { return m.live.Load().regs.Size() }

// AttributeType resolves an attribute type by OID or name.
func (m *Manager) AttributeType(key string) (*schema.AttributeType, bool) {
	obj, ok := m.live.Load().regs.AttributeType(key)
	m.metrics.Lookup(string(schema.KindAttributeType), ok)
	return obj, ok
}

// ObjectClass resolves an object class by OID or name.
func (m *Manager) ObjectClass(key string) (*schema.ObjectClass, bool) {
	obj, ok := m.live.Load().regs.ObjectClass(key)
	m.metrics.Lookup(string(schema.KindObjectClass), ok)
	return obj, ok
}

// MatchingRule resolves a matching rule by OID or name.
func (m *Manager) MatchingRule(key string) (*schema.MatchingRule, bool) {
	obj, ok := m.live.Load().regs.MatchingRule(key)
	m.metrics.Lookup(string(schema.KindMatchingRule), ok)
	return obj, ok
}

// Syntax resolves a syntax by OID.
func (m *Manager) Syntax(key string) (*schema.LDAPSyntax, bool) {
	obj, ok := m.live.Load().regs.Syntax(key)
	m.metrics.Lookup(string(schema.KindLDAPSyntax), ok)
	return obj, ok
}

// MatchingRuleUse resolves a matching rule use by OID or name.
func (m *Manager) MatchingRuleUse(key string) (*schema.MatchingRuleUse, bool) {
	obj, ok := m.live.Load().regs.MatchingRuleUse(key)
	m.metrics.Lookup(string(schema.KindMatchingRuleUse), ok)
	return obj, ok
}

// ContentRule resolves a DIT content rule by OID or name.
func (m *Manager) ContentRule(key string) (*schema.DITContentRule, bool) {
	obj, ok := m.live.Load().regs.ContentRule(key)
	m.metrics.Lookup(string(schema.KindDITContentRule), ok)
	return obj, ok
}

// StructureRule resolves a DIT structure rule by rule id or name.
func (m *Manager) StructureRule(key string) (*schema.DITStructureRule, bool) {
	obj, ok := m.live.Load().regs.StructureRule(key)
	m.metrics.Lookup(string(schema.KindDITStructureRule), ok)
	return obj, ok
}

// NameForm resolves a name form by OID or name.
func (m *Manager) NameForm(key string) (*schema.NameForm, bool) {
	obj, ok := m.live.Load().regs.NameForm(key)
	m.metrics.Lookup(string(schema.KindNameForm), ok)
	return obj, ok
}

// Comparator resolves a loadable comparator by OID or name.
func (m *Manager) Comparator(key string) (*schema.Comparator, bool) {
	obj, ok := m.live.Load().regs.Comparator(key)
	m.metrics.Lookup(string(schema.KindComparator), ok)
	return obj, ok
}

// Normalizer resolves a loadable normalizer by OID or name.
func (m *Manager) Normalizer(key string) (*schema.Normalizer, bool) {
	obj, ok := m.live.Load().regs.Normalizer(key)
	m.metrics.Lookup(string(schema.KindNormalizer), ok)
	return obj, ok
}

// SyntaxChecker resolves a loadable syntax checker by OID or name.
func (m *Manager) SyntaxChecker(key string) (*schema.SyntaxChecker, bool) {
	obj, ok := m.live.Load().regs.SyntaxChecker(key)
	m.metrics.Lookup(string(schema.KindSyntaxChecker), ok)
	return obj, ok
}
