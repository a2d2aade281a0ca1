package manager

import (
	"context"
	"errors"
	"testing"

	"schemacore/internal/source"
	"schemacore/pkg/extension"
	"schemacore/pkg/schema"
)

func newManager() *Manager {
	return New(extension.Default())
}

func loadBuiltin(t *testing.T) *Manager {
	t.Helper()
	m := newManager()
	if err := m.LoadAll(context.Background(), source.Builtin()); err != nil {
		t.Fatalf("load builtin: %v", err)
	}
	return m
}

func attrEntry(oid, name, syntax string) schema.Entry {
	e := schema.NewEntry()
	e.Set(schema.AttrOID, oid)
	e.Set(schema.AttrName, name)
	e.Set(schema.AttrSyntax, syntax)
	return e
}

func attrBundle(schemaName string, enabled bool, oid, attrName, syntax string, deps ...string) source.Bundle {
	return source.Bundle{
		Descriptor: schema.Schema{Name: schemaName, Dependencies: deps, Enabled: enabled},
		Records: []schema.Record{
			{Kind: schema.KindAttributeType, Entry: attrEntry(oid, attrName, syntax)},
		},
	}
}

const directoryString = "1.3.6.1.4.1.1466.115.121.1.15"

func asTransactionError(t *testing.T, err error) schema.TransactionError {
	t.Helper()
	var txErr schema.TransactionError
	if !errors.As(err, &txErr) {
		t.Fatalf("expected TransactionError, got %v", err)
	}
	return txErr
}

func TestLoadAllBuiltin(t *testing.T) {
	m := loadBuiltin(t)

	if !m.IsLoaded("system") || !m.IsLoaded("core") {
		t.Fatal("builtin schemas must be loaded")
	}
	if got := m.EnabledSchemas(); len(got) != 2 {
		t.Fatalf("unexpected enabled schemas: %v", got)
	}
	if at, ok := m.AttributeType("cn"); !ok || at.ID() != "2.5.4.3" {
		t.Fatalf("cn lookup failed: %v %v", at, ok)
	}
	if _, ok := m.ObjectClass("person"); !ok {
		t.Fatal("person lookup failed")
	}
	if _, ok := m.Syntax(directoryString); !ok {
		t.Fatal("syntax lookup failed")
	}
	if cmp, ok := m.Comparator("caseIgnoreComparator"); !ok || cmp.Impl == nil {
		t.Fatal("comparator must resolve with live implementation")
	}
	if res := m.Verify(); !res.OK() {
		t.Fatalf("builtin catalog must verify cleanly: %v", res.Violations)
	}
}

func TestLoadPullsDependenciesFirst(t *testing.T) {
	m := newManager()
	if err := m.Load(context.Background(), source.Builtin(), "core"); err != nil {
		t.Fatalf("load core: %v", err)
	}
	if !m.IsLoaded("system") {
		t.Fatal("dependency schema must be loaded first")
	}
}

func TestLoadDetectsDependencyCycle(t *testing.T) {
	m := newManager()
	src := source.NewMemory(
		attrBundle("a", true, "1.2.3.1", "aAttr", directoryString, "b"),
		attrBundle("b", true, "1.2.3.2", "bAttr", directoryString, "a"),
	)
	err := m.Load(context.Background(), src, "a")
	if !errors.Is(err, schema.NewError(schema.ErrDependencyCycle, "")) {
		t.Fatalf("expected dependency cycle error, got %v", err)
	}
	if m.IsLoaded("a") || m.IsLoaded("b") {
		t.Fatal("failed load must not leave schemas behind")
	}
}

func TestLoadUnknownDependency(t *testing.T) {
	m := newManager()
	src := source.NewMemory(attrBundle("a", true, "1.2.3.1", "aAttr", directoryString, "missing"))
	err := m.Load(context.Background(), src, "a")
	if !errors.Is(err, schema.NewError(schema.ErrUnknownSchema, "")) {
		t.Fatalf("expected unknown schema error, got %v", err)
	}
}

func TestRejectedTransactionLeavesCatalogUntouched(t *testing.T) {
	m := loadBuiltin(t)
	before := m.ObjectCount()

	e := attrEntry("1.2.3.4.5", "broken", "9.9.9.9")
	err := m.Add(schema.Record{Kind: schema.KindAttributeType, Entry: e}, "core")
	txErr := asTransactionError(t, err)
	if txErr.Result.Violations[0].Code != schema.ViolationDanglingReference {
		t.Fatalf("unexpected violation: %v", txErr.Result.Violations)
	}

	if m.ObjectCount() != before {
		t.Fatal("rejected transaction mutated the catalog")
	}
	if _, ok := m.AttributeType("broken"); ok {
		t.Fatal("rejected object is visible")
	}
	if res := m.Verify(); !res.OK() {
		t.Fatalf("catalog must stay clean: %v", res.Violations)
	}
}

func TestAddRejectsDuplicateOID(t *testing.T) {
	m := loadBuiltin(t)
	e := attrEntry("2.5.4.3", "cnClone", directoryString)
	err := m.Add(schema.Record{Kind: schema.KindAttributeType, Entry: e}, "core")
	txErr := asTransactionError(t, err)
	if txErr.Result.Violations[0].Code != schema.ViolationDuplicateOID {
		t.Fatalf("unexpected violation: %v", txErr.Result.Violations)
	}
}

func TestAddDeleteRoundTrip(t *testing.T) {
	m := loadBuiltin(t)

	e := attrEntry("1.2.3.4.5", "tempAttr", directoryString)
	rec := schema.Record{Kind: schema.KindAttributeType, Entry: e}
	if err := m.Add(rec, "core"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, ok := m.AttributeType("tempAttr"); !ok {
		t.Fatal("added attribute not visible")
	}

	if err := m.Delete("1.2.3.4.5"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := m.AttributeType("tempAttr"); ok {
		t.Fatal("deleted attribute still visible")
	}
	if err := m.Add(rec, "core"); err != nil {
		t.Fatalf("re-add after delete: %v", err)
	}
}

func TestDeleteBlockedWhileReferenced(t *testing.T) {
	m := loadBuiltin(t)

	// name is the superior of cn, sn and others.
	err := m.Delete("2.5.4.41")
	txErr := asTransactionError(t, err)
	if txErr.Result.Violations[0].Code != schema.ViolationStillReferenced {
		t.Fatalf("unexpected violation: %v", txErr.Result.Violations)
	}
	if _, ok := m.AttributeType("name"); !ok {
		t.Fatal("blocked delete removed the object")
	}
}

func TestDisableBlockedByEnabledDependentSchema(t *testing.T) {
	m := loadBuiltin(t)

	// core declares a dependency on system.
	err := m.Disable("system")
	txErr := asTransactionError(t, err)
	if txErr.Result.Violations[0].Code != schema.ViolationSchemaRequired {
		t.Fatalf("unexpected violation: %v", txErr.Result.Violations)
	}
	if !m.IsEnabled("system") {
		t.Fatal("blocked disable changed schema state")
	}
}

func TestDisableBlockedByCrossSchemaReferences(t *testing.T) {
	m := loadBuiltin(t)

	// extra references a system syntax without declaring the dependency.
	src := source.NewMemory(attrBundle("extra", true, "1.2.3.4.5", "extraAttr", directoryString))
	if err := m.Load(context.Background(), src, "extra"); err != nil {
		t.Fatalf("load extra: %v", err)
	}
	if err := m.Disable("core"); err != nil {
		t.Fatalf("disable core: %v", err)
	}

	err := m.Disable("system")
	txErr := asTransactionError(t, err)
	found := false
	for _, v := range txErr.Result.Violations {
		if v.Code == schema.ViolationDisabledReference {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected disabled reference violations, got %v", txErr.Result.Violations)
	}
	if !m.IsEnabled("system") {
		t.Fatal("blocked disable changed schema state")
	}
}

func TestDisableEnableRoundTrip(t *testing.T) {
	m := loadBuiltin(t)

	if err := m.Disable("core"); err != nil {
		t.Fatalf("disable core: %v", err)
	}
	if err := m.Disable("system"); err != nil {
		t.Fatalf("disable system: %v", err)
	}
	if _, ok := m.AttributeType("cn"); ok {
		t.Fatal("disabled schema member still visible")
	}
	if m.ObjectCount() == 0 {
		t.Fatal("disabled members must keep their OID reservations")
	}

	// Enabling core transitively re-enables system first.
	if err := m.Enable("core"); err != nil {
		t.Fatalf("enable core: %v", err)
	}
	if !m.IsEnabled("system") {
		t.Fatal("dependency was not transitively enabled")
	}
	if at, ok := m.AttributeType("cn"); !ok || at.ID() != "2.5.4.3" {
		t.Fatal("members not visible after enable")
	}
	if res := m.Verify(); !res.OK() {
		t.Fatalf("catalog must verify after round trip: %v", res.Violations)
	}
}

func TestDisabledSchemaReservesOIDSpace(t *testing.T) {
	m := loadBuiltin(t)
	src := source.NewMemory(attrBundle("extra", false, "1.2.3.4.5", "extraAttr", directoryString))
	if err := m.Load(context.Background(), src, "extra"); err != nil {
		t.Fatalf("load disabled schema: %v", err)
	}
	if _, ok := m.AttributeType("extraAttr"); ok {
		t.Fatal("member of disabled schema must be hidden")
	}

	e := attrEntry("1.2.3.4.5", "collider", directoryString)
	err := m.Add(schema.Record{Kind: schema.KindAttributeType, Entry: e}, "core")
	txErr := asTransactionError(t, err)
	if txErr.Result.Violations[0].Code != schema.ViolationDuplicateOID {
		t.Fatalf("reserved OID must block reuse: %v", txErr.Result.Violations)
	}
}

func TestEnableAfterDisabledLoadExposesMembers(t *testing.T) {
	m := loadBuiltin(t)
	src := source.NewMemory(attrBundle("extra", false, "1.2.3.4.5", "extraAttr", directoryString))
	if err := m.Load(context.Background(), src, "extra"); err != nil {
		t.Fatalf("load disabled schema: %v", err)
	}

	// Records added while the schema is disabled inherit its state too.
	e := attrEntry("1.2.3.4.6", "extraAttr2", directoryString)
	if err := m.Add(schema.Record{Kind: schema.KindAttributeType, Entry: e}, "extra"); err != nil {
		t.Fatalf("add into disabled schema: %v", err)
	}

	if err := m.Enable("extra"); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if !m.IsEnabled("extra") {
		t.Fatal("schema must report enabled")
	}
	if at, ok := m.AttributeType("extraAttr"); !ok || at.ID() != "1.2.3.4.5" {
		t.Fatal("member without an override must follow its schema up")
	}
	if _, ok := m.AttributeType("extraAttr2"); !ok {
		t.Fatal("member added while disabled must follow its schema up")
	}
	if res := m.Verify(); !res.OK() {
		t.Fatalf("catalog must verify after enable: %v", res.Violations)
	}
}

func TestRelaxedBootstrapThenStrict(t *testing.T) {
	m := newManager()
	if err := m.SetRelaxed(); err != nil {
		t.Fatalf("set relaxed: %v", err)
	}

	// partialAttr references a syntax no loaded schema defines yet; relaxed
	// mode tolerates that until the final strict switch.
	withDangling := source.NewMemory(attrBundle("partial", true, "1.2.3.4.5", "partialAttr", directoryString))
	if err := m.Load(context.Background(), withDangling, "partial"); err != nil {
		t.Fatalf("relaxed load with dangling references: %v", err)
	}

	err := m.SetStrict()
	txErr := asTransactionError(t, err)
	if txErr.Result.Violations[0].Code != schema.ViolationDanglingReference {
		t.Fatalf("unexpected violation: %v", txErr.Result.Violations)
	}
	if m.IsStrict() {
		t.Fatal("failed strict switch must keep the catalog relaxed")
	}

	if err := m.LoadAll(context.Background(), source.Builtin()); err != nil {
		t.Fatalf("load builtin: %v", err)
	}
	if err := m.SetStrict(); err != nil {
		t.Fatalf("strict switch after completing the catalog: %v", err)
	}
	if !m.IsStrict() {
		t.Fatal("catalog must be strict now")
	}
}

func TestLoadAllRelaxedValidatesOnce(t *testing.T) {
	m := newManager()
	if err := m.LoadAllRelaxed(context.Background(), source.Builtin()); err != nil {
		t.Fatalf("relaxed bulk load: %v", err)
	}
	if !m.IsStrict() {
		t.Fatal("catalog must be strict after the final validation")
	}

	broken := newManager()
	src := source.NewMemory(attrBundle("partial", true, "1.2.3.4.5", "partialAttr", directoryString))
	err := broken.LoadAllRelaxed(context.Background(), src)
	txErr := asTransactionError(t, err)
	if txErr.Result.Violations[0].Code != schema.ViolationDanglingReference {
		t.Fatalf("unexpected violation: %v", txErr.Result.Violations)
	}
	if broken.IsStrict() {
		t.Fatal("failed validation must leave the catalog relaxed")
	}
	if !broken.IsLoaded("partial") {
		t.Fatal("relaxed load itself must survive the failed strict switch")
	}
}

func TestUnloadBlockedByDependents(t *testing.T) {
	m := loadBuiltin(t)
	err := m.Unload("system")
	txErr := asTransactionError(t, err)
	if txErr.Result.Violations[0].Code != schema.ViolationSchemaRequired {
		t.Fatalf("unexpected violation: %v", txErr.Result.Violations)
	}
	if !m.IsLoaded("system") {
		t.Fatal("blocked unload removed the schema")
	}
}

func TestUnloadRemovesSchemaAndObjects(t *testing.T) {
	m := loadBuiltin(t)
	if err := m.Unload("core"); err != nil {
		t.Fatalf("unload core: %v", err)
	}
	if m.IsLoaded("core") {
		t.Fatal("core still loaded")
	}
	if _, ok := m.AttributeType("cn"); ok {
		t.Fatal("core members still visible")
	}
	if err := m.Unload("system"); err != nil {
		t.Fatalf("unload system: %v", err)
	}
	if m.ObjectCount() != 0 {
		t.Fatalf("catalog must be empty, has %d objects", m.ObjectCount())
	}
	if err := m.Unload("system"); !errors.Is(err, schema.NewError(schema.ErrNotLoaded, "")) {
		t.Fatalf("expected not loaded error, got %v", err)
	}
}

func TestStructureRuleLookupByRuleID(t *testing.T) {
	m := loadBuiltin(t)

	form := schema.NewEntry()
	form.Set(schema.AttrOID, "1.2.3.4.100")
	form.Set(schema.AttrName, "personNameForm")
	form.Set(schema.AttrStructuralClass, "2.5.6.6")
	form.Set(schema.AttrMust, "2.5.4.3")
	if err := m.Add(schema.Record{Kind: schema.KindNameForm, Entry: form}, "core"); err != nil {
		t.Fatalf("add name form: %v", err)
	}

	rule := schema.NewEntry()
	rule.Set(schema.AttrRuleID, "1")
	rule.Set(schema.AttrName, "personStructureRule")
	rule.Set(schema.AttrForm, "1.2.3.4.100")
	if err := m.Add(schema.Record{Kind: schema.KindDITStructureRule, Entry: rule}, "core"); err != nil {
		t.Fatalf("add structure rule: %v", err)
	}

	got, ok := m.StructureRule("1")
	if !ok || got.RuleID != 1 || got.NameFormOID != "1.2.3.4.100" {
		t.Fatalf("structure rule lookup failed: %+v %v", got, ok)
	}
	if _, ok := m.StructureRule("personStructureRule"); !ok {
		t.Fatal("structure rule alias lookup failed")
	}
}

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := loadBuiltin(t)

	sink := source.NewMemory()
	if err := m.Export(ctx, sink); err != nil {
		t.Fatalf("export: %v", err)
	}

	reloaded := newManager()
	if err := reloaded.LoadAll(ctx, sink); err != nil {
		t.Fatalf("reload exported catalog: %v", err)
	}
	if reloaded.ObjectCount() != m.ObjectCount() {
		t.Fatalf("object count mismatch: %d vs %d", reloaded.ObjectCount(), m.ObjectCount())
	}
	at, ok := reloaded.AttributeType("cn")
	if !ok || at.SuperiorOID != "2.5.4.41" {
		t.Fatalf("reloaded cn lost fields: %+v %v", at, ok)
	}
	if res := reloaded.Verify(); !res.OK() {
		t.Fatalf("reloaded catalog must verify: %v", res.Violations)
	}
}

func TestConcurrentReadsDuringWrites(t *testing.T) {
	m := loadBuiltin(t)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			if _, ok := m.AttributeType("cn"); !ok {
				t.Error("cn vanished during writes")
				return
			}
		}
	}()
	for i := 0; i < 20; i++ {
		e := attrEntry("1.2.3.5."+string(rune('0'+i%10)), "churn", directoryString)
		_ = m.Add(schema.Record{Kind: schema.KindAttributeType, Entry: e}, "core")
		_ = m.Delete(schema.OID("1.2.3.5." + string(rune('0'+i%10))))
	}
	<-done
}
