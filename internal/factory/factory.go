// Package factory turns generic attribute records into typed schema objects,
// validating identity and resolving loadable behavior from the extension
// registries.
package factory

import (
	"strconv"

	"schemacore/pkg/extension"
	"schemacore/pkg/schema"
)

// EntityFactory builds schema objects from records. Strictness controls OID
// validation: relaxed mode accepts any non-empty identifier, which the
// manager uses while bootstrapping builtin definitions.
type EntityFactory struct {
	extensions *extension.Set
	catalog    schema.Catalog
	strict     bool
}

// New creates a strict factory resolving behavior from the given extension
// set.
func New(exts *extension.Set) *EntityFactory {
	return &EntityFactory{extensions: exts, strict: true}
}

// SetStrict toggles strict OID validation.
func (f *EntityFactory) SetStrict(strict bool) { f.strict = strict }

// IsStrict reports whether strict OID validation applies.
func (f *EntityFactory) IsStrict() bool { return f.strict }

// BindCatalog records the catalog handed to catalog-aware extension
// instances at resolution time.
func (f *EntityFactory) BindCatalog(c schema.Catalog) { f.catalog = c }

// Build constructs the typed schema object described by the record, owned by
// the given schema descriptor.
func (f *EntityFactory) Build(rec schema.Record, owner schema.Schema) (schema.SchemaObject, error) {
	base, err := f.readBase(rec.Entry, owner)
	if err != nil {
		return nil, err
	}
	switch rec.Kind {
	case schema.KindAttributeType:
		return f.buildAttributeType(rec.Entry, base)
	case schema.KindObjectClass:
		return f.buildObjectClass(rec.Entry, base)
	case schema.KindMatchingRule:
		return &schema.MatchingRule{Base: base, SyntaxOID: oidAttr(rec.Entry, schema.AttrSyntax)}, nil
	case schema.KindLDAPSyntax:
		return &schema.LDAPSyntax{Base: base, HumanReadable: rec.Entry.Flag(schema.AttrHumanReadable)}, nil
	case schema.KindMatchingRuleUse:
		return &schema.MatchingRuleUse{Base: base, AppliesOIDs: oidListAttr(rec.Entry, schema.AttrApplies)}, nil
	case schema.KindDITContentRule:
		return &schema.DITContentRule{
			Base:               base,
			StructuralClassOID: oidAttr(rec.Entry, schema.AttrStructuralClass),
			AuxiliaryOIDs:      oidListAttr(rec.Entry, schema.AttrAuxiliary),
			MustOIDs:           oidListAttr(rec.Entry, schema.AttrMust),
			MayOIDs:            oidListAttr(rec.Entry, schema.AttrMay),
			NotOIDs:            oidListAttr(rec.Entry, schema.AttrNot),
		}, nil
	case schema.KindDITStructureRule:
		return f.buildStructureRule(rec.Entry, base)
	case schema.KindNameForm:
		return &schema.NameForm{
			Base:               base,
			StructuralClassOID: oidAttr(rec.Entry, schema.AttrStructuralClass),
			MustOIDs:           oidListAttr(rec.Entry, schema.AttrMust),
			MayOIDs:            oidListAttr(rec.Entry, schema.AttrMay),
		}, nil
	case schema.KindComparator:
		return f.buildComparator(rec.Entry, base)
	case schema.KindNormalizer:
		return f.buildNormalizer(rec.Entry, base)
	case schema.KindSyntaxChecker:
		return f.buildSyntaxChecker(rec.Entry, base)
	default:
		return nil, schema.NewError(schema.ErrUnknownKind, "unsupported schema object kind %q", rec.Kind)
	}
}

// readBase extracts the identity and metadata fields every kind shares. The
// identifier is validated here for all kinds except structure rules, which
// carry a numeric rule id instead and skip the OID attribute entirely.
func (f *EntityFactory) readBase(e schema.Entry, owner schema.Schema) (schema.Base, error) {
	oid, ok := e.First(schema.AttrOID)
	if !ok && !e.Has(schema.AttrRuleID) {
		return schema.Base{}, schema.NewError(schema.ErrMissingAttribute, "entry has no %s attribute", schema.AttrOID)
	}
	if ok && f.strict && !schema.ValidOID(oid) {
		return schema.Base{}, schema.NewError(schema.ErrInvalidOID, "%q is not a numeric dotted OID", oid)
	}
	if ok && !f.strict && oid == "" {
		return schema.Base{}, schema.NewError(schema.ErrInvalidOID, "empty OID")
	}
	desc, _ := e.First(schema.AttrDescription)
	enabled := owner.Enabled
	explicit := e.Has(schema.AttrDisabled)
	if explicit {
		enabled = !e.Flag(schema.AttrDisabled)
	}
	return schema.Base{
		OID:             schema.OID(oid),
		Names:           e.All(schema.AttrName),
		Description:     desc,
		SchemaName:      owner.Name,
		Obsolete:        e.Flag(schema.AttrObsolete),
		Enabled:         enabled,
		EnabledExplicit: explicit,
		Extensions:      e.Extensions(),
	}, nil
}

func oidAttr(e schema.Entry, name string) schema.OID {
	v, _ := e.First(name)
	return schema.OID(v)
}

func oidListAttr(e schema.Entry, name string) []schema.OID {
	values := e.All(name)
	if len(values) == 0 {
		return nil
	}
	out := make([]schema.OID, 0, len(values))
	for _, v := range values {
		out = append(out, schema.OID(v))
	}
	return out
}

func (f *EntityFactory) buildAttributeType(e schema.Entry, base schema.Base) (schema.SchemaObject, error) {
	at := &schema.AttributeType{
		Base:               base,
		SuperiorOID:        oidAttr(e, schema.AttrSuperior),
		EqualityOID:        oidAttr(e, schema.AttrEquality),
		OrderingOID:        oidAttr(e, schema.AttrOrdering),
		SubstringOID:       oidAttr(e, schema.AttrSubstring),
		SyntaxOID:          oidAttr(e, schema.AttrSyntax),
		SingleValue:        e.Flag(schema.AttrSingleValue),
		Collective:         e.Flag(schema.AttrCollective),
		NoUserModification: e.Flag(schema.AttrNoUserModification),
	}
	if v, ok := e.First(schema.AttrSyntaxLength); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, schema.NewError(schema.ErrInvalidValue, "invalid %s %q", schema.AttrSyntaxLength, v)
		}
		at.SyntaxLength = n
	}
	if v, ok := e.First(schema.AttrUsage); ok {
		usage, err := schema.ParseUsage(v)
		if err != nil {
			return nil, err
		}
		at.Usage = usage
	}
	if at.SuperiorOID == "" && at.SyntaxOID == "" {
		return nil, schema.NewError(schema.ErrMissingAttribute,
			"attribute type %s needs a superior or a syntax", base.OID)
	}
	return at, nil
}

func (f *EntityFactory) buildObjectClass(e schema.Entry, base schema.Base) (schema.SchemaObject, error) {
	oc := &schema.ObjectClass{
		Base:         base,
		SuperiorOIDs: oidListAttr(e, schema.AttrSuperior),
		MustOIDs:     oidListAttr(e, schema.AttrMust),
		MayOIDs:      oidListAttr(e, schema.AttrMay),
	}
	if v, ok := e.First(schema.AttrClassKind); ok {
		kind, err := schema.ParseClassKind(v)
		if err != nil {
			return nil, err
		}
		oc.ClassKind = kind
	}
	return oc, nil
}

// buildStructureRule validates the numeric rule id and renders it into the
// OID namespace so the catalog can treat structure rules uniformly.
func (f *EntityFactory) buildStructureRule(e schema.Entry, base schema.Base) (schema.SchemaObject, error) {
	raw, ok := e.First(schema.AttrRuleID)
	if !ok {
		return nil, schema.NewError(schema.ErrMissingAttribute, "structure rule has no %s attribute", schema.AttrRuleID)
	}
	if !schema.ValidRuleID(raw) {
		return nil, schema.NewError(schema.ErrInvalidOID, "%q is not a valid rule id", raw)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil, schema.NewError(schema.ErrInvalidOID, "%q is not a valid rule id", raw)
	}
	base.OID = schema.RuleOID(id)
	rule := &schema.DITStructureRule{
		Base:        base,
		RuleID:      id,
		NameFormOID: oidAttr(e, schema.AttrForm),
	}
	for _, sup := range e.All(schema.AttrSuperior) {
		if !schema.ValidRuleID(sup) {
			return nil, schema.NewError(schema.ErrInvalidValue, "invalid superior rule id %q", sup)
		}
		n, err := strconv.Atoi(sup)
		if err != nil {
			return nil, schema.NewError(schema.ErrInvalidValue, "invalid superior rule id %q", sup)
		}
		rule.SuperiorRuleIDs = append(rule.SuperiorRuleIDs, n)
	}
	return rule, nil
}

func (f *EntityFactory) implementationKey(e schema.Entry, base schema.Base) (string, error) {
	key, ok := e.First(schema.AttrImplementation)
	if !ok || key == "" {
		return "", schema.NewError(schema.ErrMissingAttribute,
			"loadable %s has no %s attribute", base.OID, schema.AttrImplementation)
	}
	return key, nil
}

// bindCatalog hands the live catalog to instances that ask for it.
func (f *EntityFactory) bindCatalog(impl any) {
	if aware, ok := impl.(schema.CatalogAware); ok && f.catalog != nil {
		aware.BindCatalog(f.catalog)
	}
}

func (f *EntityFactory) buildComparator(e schema.Entry, base schema.Base) (schema.SchemaObject, error) {
	key, err := f.implementationKey(e, base)
	if err != nil {
		return nil, err
	}
	impl, err := f.extensions.Comparators.Resolve(key, base.OID)
	if err != nil {
		return nil, err
	}
	f.bindCatalog(impl)
	return &schema.Comparator{Base: base, Key: key, Impl: impl}, nil
}

func (f *EntityFactory) buildNormalizer(e schema.Entry, base schema.Base) (schema.SchemaObject, error) {
	key, err := f.implementationKey(e, base)
	if err != nil {
		return nil, err
	}
	impl, err := f.extensions.Normalizers.Resolve(key, base.OID)
	if err != nil {
		return nil, err
	}
	f.bindCatalog(impl)
	return &schema.Normalizer{Base: base, Key: key, Impl: impl}, nil
}

func (f *EntityFactory) buildSyntaxChecker(e schema.Entry, base schema.Base) (schema.SchemaObject, error) {
	key, err := f.implementationKey(e, base)
	if err != nil {
		return nil, err
	}
	impl, err := f.extensions.Checkers.Resolve(key, base.OID)
	if err != nil {
		return nil, err
	}
	f.bindCatalog(impl)
	return &schema.SyntaxChecker{Base: base, Key: key, Impl: impl}, nil
}
