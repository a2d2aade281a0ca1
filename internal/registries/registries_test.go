package registries

import (
	"errors"
	"testing"

	"schemacore/pkg/schema"
)

func testSchema(name string, enabled bool) schema.Schema {
	return schema.Schema{Name: name, Enabled: enabled}
}

func newAttr(oid schema.OID, name, schemaName string) *schema.AttributeType {
	return &schema.AttributeType{Base: schema.Base{
		OID:        oid,
		Names:      []string{name},
		SchemaName: schemaName,
		Enabled:    true,
	}}
}

func newSyntax(oid schema.OID, schemaName string) *schema.LDAPSyntax {
	return &schema.LDAPSyntax{Base: schema.Base{OID: oid, SchemaName: schemaName, Enabled: true}}
}

func TestAddAndLookupByOIDAndAlias(t *testing.T) {
	r := New()
	r.SchemaLoaded(testSchema("core", true))

	at := newAttr("2.5.4.3", "cn", "core")
	if err := r.Add(at, true); err != nil {
		t.Fatalf("add: %v", err)
	}

	if got, ok := r.AttributeType("2.5.4.3"); !ok || got.ID() != "2.5.4.3" {
		t.Fatalf("lookup by OID failed: %v %v", got, ok)
	}
	if got, ok := r.AttributeType("CN"); !ok || got.ID() != "2.5.4.3" {
		t.Fatalf("lookup by alias failed: %v %v", got, ok)
	}
	if _, ok := r.ObjectClass("2.5.4.3"); ok {
		t.Fatal("attribute type must not resolve as object class")
	}
}

func TestGlobalOIDUniquenessAcrossKinds(t *testing.T) {
	r := New()
	r.SchemaLoaded(testSchema("core", true))

	if err := r.Add(newAttr("2.5.4.3", "cn", "core"), true); err != nil {
		t.Fatalf("add attribute: %v", err)
	}
	oc := &schema.ObjectClass{Base: schema.Base{OID: "2.5.4.3", SchemaName: "core", Enabled: true}}
	err := r.Add(oc, true)
	if err == nil {
		t.Fatal("expected duplicate OID error across kinds")
	}
	if !errors.Is(err, schema.NewError(schema.ErrInvalidValue, "")) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddWithoutUniquenessCheckReplaces(t *testing.T) {
	r := New()
	r.SchemaLoaded(testSchema("core", true))

	if err := r.Add(newAttr("2.5.4.3", "cn", "core"), true); err != nil {
		t.Fatalf("add: %v", err)
	}
	replacement := newAttr("2.5.4.3", "commonName", "core")
	if err := r.Add(replacement, false); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got, ok := r.AttributeType("commonName"); !ok || got.ID() != "2.5.4.3" {
		t.Fatal("replacement not visible under new alias")
	}
	if _, ok := r.AttributeType("cn"); ok {
		t.Fatal("stale alias survived replacement")
	}
}

func TestAssociateReservesOIDWithoutVisibility(t *testing.T) {
	r := New()
	r.SchemaLoaded(testSchema("extra", false))

	at := newAttr("1.2.3.4", "hiddenAttr", "extra")
	if err := r.Associate(at); err != nil {
		t.Fatalf("associate: %v", err)
	}
	if !r.OIDRegistered("1.2.3.4") {
		t.Fatal("associated OID must be registered")
	}
	if !r.Hidden("1.2.3.4") {
		t.Fatal("associated OID must be hidden")
	}
	if _, ok := r.AttributeType("1.2.3.4"); ok {
		t.Fatal("hidden object must not resolve")
	}
	if err := r.Associate(newAttr("1.2.3.4", "other", "extra")); err == nil {
		t.Fatal("reserved OID must reject a second claim")
	}
}

func TestDisableSchemaHidesMembersAndEnableRestores(t *testing.T) {
	r := New()
	r.SchemaLoaded(testSchema("core", true))
	if err := r.Add(newAttr("2.5.4.3", "cn", "core"), true); err != nil {
		t.Fatalf("add: %v", err)
	}

	r.DisableSchema("core")
	if _, ok := r.AttributeType("cn"); ok {
		t.Fatal("member of disabled schema must be hidden")
	}
	if !r.OIDRegistered("2.5.4.3") {
		t.Fatal("disabled member must keep its OID reservation")
	}

	r.EnableSchema("core")
	if _, ok := r.AttributeType("cn"); !ok {
		t.Fatal("member must be visible again after enable")
	}
}

func TestEnableSchemaLeavesIndividuallyDisabledObjectsHidden(t *testing.T) {
	r := New()
	r.SchemaLoaded(testSchema("core", true))
	at := newAttr("2.5.4.3", "cn", "core")
	at.Enabled = false
	at.EnabledExplicit = true
	if err := r.Associate(at); err != nil {
		t.Fatalf("associate: %v", err)
	}

	r.EnableSchema("core")
	if _, ok := r.AttributeType("cn"); ok {
		t.Fatal("explicitly disabled object must stay hidden")
	}
}

func TestEnableSchemaPromotesInheritedDisabledMembers(t *testing.T) {
	r := New()
	r.SchemaLoaded(testSchema("extra", false))
	at := newAttr("1.2.3.4", "extraAttr", "extra")
	at.Enabled = false
	if err := r.Associate(at); err != nil {
		t.Fatalf("associate: %v", err)
	}

	r.EnableSchema("extra")
	got, ok := r.AttributeType("extraAttr")
	if !ok || !got.Enabled {
		t.Fatal("member without an override must follow its schema up")
	}
	if r.Hidden("1.2.3.4") {
		t.Fatal("promoted member must not stay hidden")
	}

	r.DisableSchema("extra")
	if got, _ := r.Object("1.2.3.4"); got.Common().Enabled {
		t.Fatal("member without an override must follow its schema down")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	r := New()
	r.SchemaLoaded(testSchema("core", true))
	if err := r.Add(newAttr("2.5.4.3", "cn", "core"), true); err != nil {
		t.Fatalf("add: %v", err)
	}

	cp := r.Clone()
	if err := cp.Add(newAttr("2.5.4.4", "sn", "core"), true); err != nil {
		t.Fatalf("add to clone: %v", err)
	}
	got, ok := cp.AttributeType("cn")
	if !ok {
		t.Fatal("clone lost existing object")
	}
	got.Names = append(got.Names, "mutated")

	if _, ok := r.AttributeType("sn"); ok {
		t.Fatal("mutation of clone leaked into original")
	}
	orig, _ := r.AttributeType("cn")
	if len(orig.Names) != 1 {
		t.Fatal("object mutation in clone leaked into original")
	}
}

func TestBuildReferencesReportsDangling(t *testing.T) {
	r := New()
	r.SchemaLoaded(testSchema("core", true))
	at := newAttr("2.5.4.3", "cn", "core")
	at.SyntaxOID = "1.3.6.1.4.1.1466.115.121.1.15"
	if err := r.Add(at, true); err != nil {
		t.Fatalf("add: %v", err)
	}

	res := r.BuildReferences()
	if res.OK() {
		t.Fatal("expected dangling reference violation")
	}
	if res.Violations[0].Code != schema.ViolationDanglingReference {
		t.Fatalf("unexpected violation: %v", res.Violations[0])
	}

	if err := r.Add(newSyntax("1.3.6.1.4.1.1466.115.121.1.15", "core"), true); err != nil {
		t.Fatalf("add syntax: %v", err)
	}
	if res := r.BuildReferences(); !res.OK() {
		t.Fatalf("expected clean result, got %v", res.Violations)
	}
	refs := r.Referencing("1.3.6.1.4.1.1466.115.121.1.15")
	if len(refs) != 1 || refs[0] != "2.5.4.3" {
		t.Fatalf("unexpected referencers: %v", refs)
	}
}

func TestBuildReferencesResolvesAliases(t *testing.T) {
	r := New()
	r.SchemaLoaded(testSchema("core", true))
	if err := r.Add(newAttr("2.5.4.41", "name", "core"), true); err != nil {
		t.Fatalf("add: %v", err)
	}
	at := newAttr("2.5.4.3", "cn", "core")
	at.SuperiorOID = "name"
	if err := r.Add(at, true); err != nil {
		t.Fatalf("add: %v", err)
	}

	if res := r.BuildReferences(); !res.OK() {
		t.Fatalf("alias reference must resolve, got %v", res.Violations)
	}
	refs := r.Referencing("2.5.4.41")
	if len(refs) != 1 || refs[0] != "2.5.4.3" {
		t.Fatalf("unexpected referencers: %v", refs)
	}
}

func TestCheckIntegrityFlagsDisabledTargets(t *testing.T) {
	r := New()
	r.SchemaLoaded(testSchema("core", true))
	r.SchemaLoaded(testSchema("extra", true))

	if err := r.Add(newSyntax("1.3.6.1.4.1.1466.115.121.1.15", "extra"), true); err != nil {
		t.Fatalf("add syntax: %v", err)
	}
	at := newAttr("2.5.4.3", "cn", "core")
	at.SyntaxOID = "1.3.6.1.4.1.1466.115.121.1.15"
	if err := r.Add(at, true); err != nil {
		t.Fatalf("add: %v", err)
	}

	if res := r.BuildReferences(); !res.OK() {
		t.Fatalf("build: %v", res.Violations)
	}
	if res := r.CheckIntegrity(); !res.OK() {
		t.Fatalf("expected clean integrity, got %v", res.Violations)
	}

	r.DisableSchema("extra")
	if res := r.CheckIntegrity(); res.OK() {
		t.Fatal("expected disabled reference violation")
	} else if res.Violations[0].Code != schema.ViolationDisabledReference {
		t.Fatalf("unexpected violation: %v", res.Violations[0])
	}

	r.SetRelaxed()
	if res := r.CheckIntegrity(); !res.OK() {
		t.Fatalf("relaxed mode must not report violations, got %v", res.Violations)
	}
}

func TestCheckIntegrityFlagsUnknownSchema(t *testing.T) {
	r := New()
	r.SchemaLoaded(testSchema("core", true))
	at := newAttr("2.5.4.3", "cn", "orphan")
	if err := r.Add(at, true); err != nil {
		t.Fatalf("add: %v", err)
	}
	res := r.CheckIntegrity()
	if res.OK() || res.Violations[0].Code != schema.ViolationUnknownSchema {
		t.Fatalf("expected unknown schema violation, got %v", res.Violations)
	}
}

func TestDeleteReleasesOID(t *testing.T) {
	r := New()
	r.SchemaLoaded(testSchema("core", true))
	at := newAttr("2.5.4.3", "cn", "core")
	if err := r.Add(at, true); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.Delete(at); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if r.OIDRegistered("2.5.4.3") {
		t.Fatal("OID must be released after delete")
	}
	if err := r.Delete(at); err == nil {
		t.Fatal("second delete must fail")
	}
	if err := r.Add(newAttr("2.5.4.3", "cn", "core"), true); err != nil {
		t.Fatalf("re-add after delete: %v", err)
	}
}

func TestCountsSkipHiddenObjects(t *testing.T) {
	r := New()
	r.SchemaLoaded(testSchema("core", true))
	r.SchemaLoaded(testSchema("extra", false))
	if err := r.Add(newAttr("2.5.4.3", "cn", "core"), true); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.Associate(newAttr("1.2.3.4", "hiddenAttr", "extra")); err != nil {
		t.Fatalf("associate: %v", err)
	}
	counts := r.Counts()
	if counts[schema.KindAttributeType] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	if r.Size() != 2 {
		t.Fatalf("size must include reservations, got %d", r.Size())
	}
}
