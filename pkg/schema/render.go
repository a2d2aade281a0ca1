package schema

import "strconv"

// RecordFor renders a schema object back into the attribute record form a
// source persists. The inverse of the entity factory for every kind.
func RecordFor(obj SchemaObject) Record {
	e := NewEntry()
	base := obj.Common()
	if obj.Kind() != KindDITStructureRule {
		e.Set(AttrOID, string(base.OID))
	}
	if len(base.Names) > 0 {
		e.Add(AttrName, base.Names...)
	}
	if base.Description != "" {
		e.Set(AttrDescription, base.Description)
	}
	if base.Obsolete {
		e.Set(AttrObsolete, "TRUE")
	}
	// Only explicit overrides render; inherited state must stay inherited
	// across an export and reload.
	if base.EnabledExplicit {
		if base.Enabled {
			e.Set(AttrDisabled, "FALSE")
		} else {
			e.Set(AttrDisabled, "TRUE")
		}
	}
	for _, key := range base.ExtensionKeys() {
		e.Add(key, base.Extensions[key]...)
	}

	switch o := obj.(type) {
	case *AttributeType:
		setOID(&e, AttrSuperior, o.SuperiorOID)
		setOID(&e, AttrEquality, o.EqualityOID)
		setOID(&e, AttrOrdering, o.OrderingOID)
		setOID(&e, AttrSubstring, o.SubstringOID)
		setOID(&e, AttrSyntax, o.SyntaxOID)
		if o.SyntaxLength > 0 {
			e.Set(AttrSyntaxLength, strconv.Itoa(o.SyntaxLength))
		}
		setFlag(&e, AttrSingleValue, o.SingleValue)
		setFlag(&e, AttrCollective, o.Collective)
		setFlag(&e, AttrNoUserModification, o.NoUserModification)
		if o.Usage != UserApplications {
			e.Set(AttrUsage, o.Usage.String())
		}
	case *ObjectClass:
		setOIDs(&e, AttrSuperior, o.SuperiorOIDs)
		e.Set(AttrClassKind, o.ClassKind.String())
		setOIDs(&e, AttrMust, o.MustOIDs)
		setOIDs(&e, AttrMay, o.MayOIDs)
	case *MatchingRule:
		setOID(&e, AttrSyntax, o.SyntaxOID)
	case *LDAPSyntax:
		setFlag(&e, AttrHumanReadable, o.HumanReadable)
	case *MatchingRuleUse:
		setOIDs(&e, AttrApplies, o.AppliesOIDs)
	case *DITContentRule:
		setOID(&e, AttrStructuralClass, o.StructuralClassOID)
		setOIDs(&e, AttrAuxiliary, o.AuxiliaryOIDs)
		setOIDs(&e, AttrMust, o.MustOIDs)
		setOIDs(&e, AttrMay, o.MayOIDs)
		setOIDs(&e, AttrNot, o.NotOIDs)
	case *DITStructureRule:
		e.Set(AttrRuleID, strconv.Itoa(o.RuleID))
		setOID(&e, AttrForm, o.NameFormOID)
		for _, id := range o.SuperiorRuleIDs {
			e.Add(AttrSuperior, strconv.Itoa(id))
		}
	case *NameForm:
		setOID(&e, AttrStructuralClass, o.StructuralClassOID)
		setOIDs(&e, AttrMust, o.MustOIDs)
		setOIDs(&e, AttrMay, o.MayOIDs)
	case *Comparator:
		e.Set(AttrImplementation, o.Key)
	case *Normalizer:
		e.Set(AttrImplementation, o.Key)
	case *SyntaxChecker:
		e.Set(AttrImplementation, o.Key)
	}
	return Record{Kind: obj.Kind(), Entry: e}
}

func setOID(e *Entry, name string, oid OID) {
	if oid != "" {
		e.Set(name, string(oid))
	}
}

func setOIDs(e *Entry, name string, oids []OID) {
	for _, oid := range oids {
		e.Add(name, string(oid))
	}
}

func setFlag(e *Entry, name string, v bool) {
	if v {
		e.Set(name, "TRUE")
	}
}
