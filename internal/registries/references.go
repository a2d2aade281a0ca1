package registries

import (
	"sort"

	"schemacore/pkg/schema"
)

// resolveTarget finds the object a reference points at. Direct OID hits also
// cover hidden reservations; alias resolution only sees visible objects.
func (r *Registries) resolveTarget(target schema.OID) (schema.SchemaObject, bool) {
	if obj, ok := r.objects[target]; ok {
		return obj, true
	}
	resolvers := []func(string) (schema.OID, bool){
		r.attributeTypes.resolveAlias,
		r.objectClasses.resolveAlias,
		r.matchingRules.resolveAlias,
		r.syntaxes.resolveAlias,
		r.matchingRuleUses.resolveAlias,
		r.contentRules.resolveAlias,
		r.structureRules.resolveAlias,
		r.nameForms.resolveAlias,
	}
	for _, resolve := range resolvers {
		if oid, ok := resolve(string(target)); ok {
			obj, ok := r.objects[oid]
			return obj, ok
		}
	}
	return nil, false
}

// BuildReferences recomputes the reference graph from every visible object
// and reports dangling references. Hidden reservations neither contribute
// edges nor need their references to resolve.
func (r *Registries) BuildReferences() schema.Result {
	var res schema.Result
	r.referencing = map[schema.OID]map[schema.OID]struct{}{}
	for _, oid := range r.sortedOIDs() {
		if _, isHidden := r.hidden[oid]; isHidden {
			continue
		}
		obj := r.objects[oid]
		for _, ref := range obj.References() {
			target, ok := r.resolveTarget(ref.Target)
			if !ok {
				res.Addf(schema.ViolationDanglingReference, oid, obj.Common().SchemaName,
					"%s %s field %s references unknown OID %s", obj.Kind(), oid, ref.Field, ref.Target)
				continue
			}
			sources, ok := r.referencing[target.ID()]
			if !ok {
				sources = map[schema.OID]struct{}{}
				r.referencing[target.ID()] = sources
			}
			sources[oid] = struct{}{}
		}
	}
	return res
}

// effectivelyEnabled reports whether the object is visible, individually
// enabled, and owned by an enabled schema.
func (r *Registries) effectivelyEnabled(obj schema.SchemaObject) bool {
	if _, isHidden := r.hidden[obj.ID()]; isHidden {
		return false
	}
	if !obj.Common().Enabled {
		return false
	}
	return r.schemaEnabled[schema.NormalizeSchemaName(obj.Common().SchemaName)]
}

// CheckIntegrity verifies that under strict mode every effectively enabled
// object references only effectively enabled targets and belongs to a known
// schema. In relaxed mode it reports nothing.
func (r *Registries) CheckIntegrity() schema.Result {
	var res schema.Result
	if !r.strict {
		return res
	}
	for _, oid := range r.sortedOIDs() {
		obj := r.objects[oid]
		name := schema.NormalizeSchemaName(obj.Common().SchemaName)
		if _, known := r.bySchema[name]; !known {
			res.Addf(schema.ViolationUnknownSchema, oid, obj.Common().SchemaName,
				"%s %s belongs to unknown schema %q", obj.Kind(), oid, obj.Common().SchemaName)
			continue
		}
		if !r.effectivelyEnabled(obj) {
			continue
		}
		for _, ref := range obj.References() {
			target, ok := r.resolveTarget(ref.Target)
			if !ok {
				continue
			}
			if !r.effectivelyEnabled(target) {
				res.Addf(schema.ViolationDisabledReference, oid, obj.Common().SchemaName,
					"%s %s field %s references disabled %s %s", obj.Kind(), oid, ref.Field, target.Kind(), target.ID())
			}
		}
	}
	return res
}

// Referencing returns the OIDs of visible objects holding a reference to the
// given OID, in sorted order.
func (r *Registries) Referencing(oid schema.OID) []schema.OID {
	sources := r.referencing[oid]
	if len(sources) == 0 {
		return nil
	}
	out := make([]schema.OID, 0, len(sources))
	for src := range sources {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Lookup resolves a visible object by OID or alias.
func (r *Registries) Lookup(oid schema.OID) (schema.SchemaObject, bool) {
	if obj, ok := r.objects[oid]; ok {
		if _, isHidden := r.hidden[oid]; isHidden {
			return nil, false
		}
		return obj, true
	}
	obj, ok := r.resolveTarget(oid)
	if !ok {
		return nil, false
	}
	if _, isHidden := r.hidden[obj.ID()]; isHidden {
		return nil, false
	}
	return obj, true
}

// AttributeType resolves an attribute type by OID or name.
func (r *Registries) AttributeType(key string) (*schema.AttributeType, bool) {
	return r.attributeTypes.get(key)
}

// ObjectClass resolves an object class by OID or name.
func (r *Registries) ObjectClass(key string) (*schema.ObjectClass, bool) {
	return r.objectClasses.get(key)
}

// MatchingRule resolves a matching rule by OID or name.
func (r *Registries) MatchingRule(key string) (*schema.MatchingRule, bool) {
	return r.matchingRules.get(key)
}

// Syntax resolves a syntax by OID.
func (r *Registries) Syntax(key string) (*schema.LDAPSyntax, bool) {
	return r.syntaxes.get(key)
}

// MatchingRuleUse resolves a matching rule use by OID or name.
func (r *Registries) MatchingRuleUse(key string) (*schema.MatchingRuleUse, bool) {
	return r.matchingRuleUses.get(key)
}

// ContentRule resolves a DIT content rule by OID or name.
func (r *Registries) ContentRule(key string) (*schema.DITContentRule, bool) {
	return r.contentRules.get(key)
}

// StructureRule resolves a DIT structure rule by rule id or name.
func (r *Registries) StructureRule(key string) (*schema.DITStructureRule, bool) {
	return r.structureRules.get(key)
}

// NameForm resolves a name form by OID or name.
func (r *Registries) NameForm(key string) (*schema.NameForm, bool) {
	return r.nameForms.get(key)
}

// Comparator resolves a loadable comparator by OID or name.
func (r *Registries) Comparator(key string) (*schema.Comparator, bool) {
	return r.comparators.get(key)
}

// Normalizer resolves a loadable normalizer by OID or name.
func (r *Registries) Normalizer(key string) (*schema.Normalizer, bool) {
	return r.normalizers.get(key)
}

// SyntaxChecker resolves a loadable syntax checker by OID or name.
func (r *Registries) SyntaxChecker(key string) (*schema.SyntaxChecker, bool) {
	return r.syntaxCheckers.get(key)
}
