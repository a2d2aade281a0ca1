package factory

import (
	"errors"
	"testing"

	"schemacore/pkg/extension"
	"schemacore/pkg/schema"
)

func newFactory() *EntityFactory {
	return New(extension.Default())
}

func enabledSchema(name string) schema.Schema {
	return schema.Schema{Name: name, Enabled: true}
}

func attributeEntry() schema.Entry {
	e := schema.NewEntry()
	e.Add(schema.AttrOID, "2.5.4.3")
	e.Add(schema.AttrName, "cn", "commonName")
	e.Add(schema.AttrSuperior, "2.5.4.41")
	e.Add(schema.AttrEquality, "2.5.13.2")
	e.Add(schema.AttrSyntax, "1.3.6.1.4.1.1466.115.121.1.15")
	e.Add("X-ORIGIN", "RFC 4519")
	return e
}

func TestBuildAttributeType(t *testing.T) {
	f := newFactory()
	obj, err := f.Build(schema.Record{Kind: schema.KindAttributeType, Entry: attributeEntry()}, enabledSchema("core"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	at, ok := obj.(*schema.AttributeType)
	if !ok {
		t.Fatalf("unexpected type %T", obj)
	}
	if at.ID() != "2.5.4.3" || at.SuperiorOID != "2.5.4.41" || at.EqualityOID != "2.5.13.2" {
		t.Fatalf("unexpected fields: %+v", at)
	}
	if len(at.Names) != 2 || at.Names[0] != "cn" {
		t.Fatalf("unexpected names: %v", at.Names)
	}
	if !at.Enabled {
		t.Fatal("object of enabled schema must default to enabled")
	}
	if at.SchemaName != "core" {
		t.Fatalf("unexpected owner: %q", at.SchemaName)
	}
	if got := at.Extensions["x-ORIGIN"]; len(got) != 1 || got[0] != "RFC 4519" {
		t.Fatalf("unexpected extensions: %v", at.Extensions)
	}
}

func TestBuildRejectsMissingOID(t *testing.T) {
	f := newFactory()
	e := schema.NewEntry()
	e.Add(schema.AttrName, "cn")
	_, err := f.Build(schema.Record{Kind: schema.KindAttributeType, Entry: e}, enabledSchema("core"))
	if !errors.Is(err, schema.NewError(schema.ErrMissingAttribute, "")) {
		t.Fatalf("expected missing attribute error, got %v", err)
	}
}

func TestStrictModeRejectsNonNumericOID(t *testing.T) {
	f := newFactory()
	e := schema.NewEntry()
	e.Add(schema.AttrOID, "not-an-oid")
	e.Add(schema.AttrSyntax, "1.3.6.1.4.1.1466.115.121.1.15")
	rec := schema.Record{Kind: schema.KindAttributeType, Entry: e}

	_, err := f.Build(rec, enabledSchema("core"))
	if !errors.Is(err, schema.NewError(schema.ErrInvalidOID, "")) {
		t.Fatalf("expected invalid OID error, got %v", err)
	}

	f.SetStrict(false)
	if _, err := f.Build(rec, enabledSchema("core")); err != nil {
		t.Fatalf("relaxed mode must accept the OID: %v", err)
	}
}

func TestAttributeTypeNeedsSuperiorOrSyntax(t *testing.T) {
	f := newFactory()
	e := schema.NewEntry()
	e.Add(schema.AttrOID, "2.5.4.3")
	_, err := f.Build(schema.Record{Kind: schema.KindAttributeType, Entry: e}, enabledSchema("core"))
	if !errors.Is(err, schema.NewError(schema.ErrMissingAttribute, "")) {
		t.Fatalf("expected missing attribute error, got %v", err)
	}
}

func TestDisabledOverrideWinsOverSchemaState(t *testing.T) {
	f := newFactory()
	e := attributeEntry()
	e.Set(schema.AttrDisabled, "TRUE")
	obj, err := f.Build(schema.Record{Kind: schema.KindAttributeType, Entry: e}, enabledSchema("core"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if obj.Common().Enabled {
		t.Fatal("disabled override must win over enabled schema")
	}
	if !obj.Common().EnabledExplicit {
		t.Fatal("override must be recorded as explicit")
	}

	inherited, err := f.Build(schema.Record{Kind: schema.KindAttributeType, Entry: attributeEntry()}, enabledSchema("core"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if inherited.Common().EnabledExplicit {
		t.Fatal("state inherited from the schema must not be explicit")
	}
}

func TestBuildObjectClass(t *testing.T) {
	f := newFactory()
	e := schema.NewEntry()
	e.Add(schema.AttrOID, "2.5.6.6")
	e.Add(schema.AttrName, "person")
	e.Add(schema.AttrSuperior, "2.5.6.0")
	e.Add(schema.AttrClassKind, "STRUCTURAL")
	e.Add(schema.AttrMust, "2.5.4.3", "2.5.4.4")
	e.Add(schema.AttrMay, "2.5.4.20")
	obj, err := f.Build(schema.Record{Kind: schema.KindObjectClass, Entry: e}, enabledSchema("core"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	oc := obj.(*schema.ObjectClass)
	if oc.ClassKind != schema.Structural || len(oc.MustOIDs) != 2 || len(oc.MayOIDs) != 1 {
		t.Fatalf("unexpected object class: %+v", oc)
	}
}

func TestBuildStructureRuleUsesRuleID(t *testing.T) {
	f := newFactory()
	e := schema.NewEntry()
	e.Add(schema.AttrRuleID, "2")
	e.Add(schema.AttrForm, "1.2.3.4.5")
	e.Add(schema.AttrSuperior, "1")
	obj, err := f.Build(schema.Record{Kind: schema.KindDITStructureRule, Entry: e}, enabledSchema("core"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	rule := obj.(*schema.DITStructureRule)
	if rule.RuleID != 2 || rule.ID() != schema.RuleOID(2) {
		t.Fatalf("unexpected rule identity: %+v", rule)
	}
	if len(rule.SuperiorRuleIDs) != 1 || rule.SuperiorRuleIDs[0] != 1 {
		t.Fatalf("unexpected superiors: %v", rule.SuperiorRuleIDs)
	}
}

func TestBuildStructureRuleRejectsDottedID(t *testing.T) {
	f := newFactory()
	e := schema.NewEntry()
	e.Add(schema.AttrRuleID, "1.2")
	_, err := f.Build(schema.Record{Kind: schema.KindDITStructureRule, Entry: e}, enabledSchema("core"))
	if !errors.Is(err, schema.NewError(schema.ErrInvalidOID, "")) {
		t.Fatalf("expected invalid OID error, got %v", err)
	}
}

func TestBuildComparatorResolvesImplementation(t *testing.T) {
	f := newFactory()
	e := schema.NewEntry()
	e.Add(schema.AttrOID, "2.5.13.2")
	e.Add(schema.AttrName, "caseIgnoreMatch")
	e.Add(schema.AttrImplementation, extension.KeyCaseIgnoreComparator)
	obj, err := f.Build(schema.Record{Kind: schema.KindComparator, Entry: e}, enabledSchema("core"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	cmp := obj.(*schema.Comparator)
	if cmp.Impl == nil {
		t.Fatal("implementation not resolved")
	}
	if cmp.Impl.Compare([]byte("Foo  Bar"), []byte("foo bar")) != 0 {
		t.Fatal("caseIgnore comparison broken")
	}
}

func TestBuildLoadableUnknownImplementation(t *testing.T) {
	f := newFactory()
	e := schema.NewEntry()
	e.Add(schema.AttrOID, "2.5.13.2")
	e.Add(schema.AttrImplementation, "schemacore.comparator.doesNotExist")
	_, err := f.Build(schema.Record{Kind: schema.KindComparator, Entry: e}, enabledSchema("core"))
	if !errors.Is(err, schema.NewError(schema.ErrUnknownExtension, "")) {
		t.Fatalf("expected unknown extension error, got %v", err)
	}
}

func TestBuildCheckerInstanceOIDMismatch(t *testing.T) {
	f := newFactory()
	e := schema.NewEntry()
	e.Add(schema.AttrOID, "1.2.3.4")
	e.Add(schema.AttrImplementation, extension.KeyOctetStringChecker)
	_, err := f.Build(schema.Record{Kind: schema.KindSyntaxChecker, Entry: e}, enabledSchema("core"))
	if !errors.Is(err, schema.NewError(schema.ErrOIDMismatch, "")) {
		t.Fatalf("expected OID mismatch error, got %v", err)
	}

	ok := schema.NewEntry()
	ok.Add(schema.AttrOID, string(extension.OctetStringSyntaxOID))
	ok.Add(schema.AttrImplementation, extension.KeyOctetStringChecker)
	obj, err := f.Build(schema.Record{Kind: schema.KindSyntaxChecker, Entry: ok}, enabledSchema("core"))
	if err != nil {
		t.Fatalf("build with matching OID: %v", err)
	}
	if !obj.(*schema.SyntaxChecker).Impl.Valid([]byte{0x00, 0xff}) {
		t.Fatal("octet string checker must accept arbitrary bytes")
	}
}

func TestBuildUnknownKind(t *testing.T) {
	f := newFactory()
	e := schema.NewEntry()
	e.Add(schema.AttrOID, "1.2.3.4")
	_, err := f.Build(schema.Record{Kind: "bogus", Entry: e}, enabledSchema("core"))
	if !errors.Is(err, schema.NewError(schema.ErrUnknownKind, "")) {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
}
