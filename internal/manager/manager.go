// Package manager implements the schema manager: validated all-or-nothing
// transactions over the catalog, dependency-ordered schema loading, and
// lock-free reads against a committed snapshot.
package manager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"schemacore/internal/factory"
	"schemacore/internal/metrics"
	"schemacore/internal/registries"
	"schemacore/internal/source"
	"schemacore/pkg/extension"
	"schemacore/pkg/schema"
)

// snapshot is one committed catalog state: the registries plus the loaded
// schema descriptors, keyed by normalized name.
type snapshot struct {
	regs    *registries.Registries
	schemas map[string]schema.Schema
}

func (s *snapshot) clone() *snapshot {
	cp := &snapshot{regs: s.regs.Clone(), schemas: make(map[string]schema.Schema, len(s.schemas))}
	for name, desc := range s.schemas {
		cp.schemas[name] = desc.Clone()
	}
	return cp
}

// Manager coordinates all catalog mutation. Writers are serialized by mu and
// stage their changes on a clone; a transaction commits by swapping the live
// snapshot pointer, so readers never observe a partial mutation.
type Manager struct {
	mu      sync.Mutex
	live    atomic.Pointer[snapshot]
	factory *factory.EntityFactory
	metrics *metrics.Collector
	audit   AuditLogger
}

// New creates an empty manager in strict mode, resolving loadable behavior
// from the given extension set.
func New(exts *extension.Set) *Manager {
	m := &Manager{factory: factory.New(exts)}
	m.factory.BindCatalog(m)
	m.live.Store(&snapshot{regs: registries.New(), schemas: map[string]schema.Schema{}})
	return m
}

// SetMetrics attaches a metrics collector. Nil is valid.
func (m *Manager) SetMetrics(c *metrics.Collector) { m.metrics = c }

// transact stages fn on a clone of the live snapshot, validates the result,
// and commits by pointer swap iff the validation result is clean.
func (m *Manager) transact(operation string, fn func(stage *snapshot) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stage := m.live.Load().clone()
	m.factory.SetStrict(stage.regs.IsStrict())
	if err := fn(stage); err != nil {
		m.metrics.Transaction(operation, false)
		var txErr schema.TransactionError
		if errors.As(err, &txErr) {
			m.recordAudit(operation, false, txErr.Result.Violations)
		} else {
			m.recordAudit(operation, false, nil)
		}
		return err
	}
	res := stage.regs.BuildReferences()
	if stage.regs.IsRelaxed() {
		res = schema.Result{}
	}
	res.Merge(stage.regs.CheckIntegrity())
	if !res.OK() {
		m.metrics.Transaction(operation, false)
		m.recordAudit(operation, false, res.Violations)
		return schema.TransactionError{Result: res}
	}
	m.live.Store(stage)
	m.metrics.Transaction(operation, true)
	m.recordAudit(operation, true, nil)
	m.publishGauges(stage)
	return nil
}

func (m *Manager) publishGauges(s *snapshot) {
	if m.metrics == nil {
		return
	}
	counts := map[string]int{}
	for _, kind := range schema.Kinds() {
		counts[string(kind)] = 0
	}
	for kind, n := range s.regs.Counts() {
		counts[string(kind)] = n
	}
	m.metrics.SetObjects(counts)
	enabled, disabled := 0, 0
	for _, desc := range s.schemas {
		if desc.Enabled {
			enabled++
		} else {
			disabled++
		}
	}
	m.metrics.SetSchemas(enabled, disabled)
}

// Load loads the named schema and, depth first, any of its dependencies not
// loaded yet, in one transaction. A dependency cycle fails the whole load.
func (m *Manager) Load(ctx context.Context, src source.Source, name string) error {
	return m.transact("load", func(stage *snapshot) error {
		descs, err := descriptorMap(ctx, src)
		if err != nil {
			return err
		}
		order, err := loadOrder(stage, descs, []string{name})
		if err != nil {
			return err
		}
		return m.applyLoads(ctx, stage, src, order)
	})
}

// LoadAll loads every schema the source offers in dependency order, in one
// transaction.
func (m *Manager) LoadAll(ctx context.Context, src source.Source) error {
	return m.transact("loadAll", func(stage *snapshot) error {
		descs, err := src.Descriptors(ctx)
		if err != nil {
			return err
		}
		byName := make(map[string]schema.Schema, len(descs))
		roots := make([]string, 0, len(descs))
		for _, d := range descs {
			byName[schema.NormalizeSchemaName(d.Name)] = d
			roots = append(roots, d.Name)
		}
		order, err := loadOrder(stage, byName, roots)
		if err != nil {
			return err
		}
		return m.applyLoads(ctx, stage, src, order)
	})
}

// LoadAllRelaxed bulk-loads every schema in relaxed mode and validates once
// at the end by switching the catalog to strict. A failed switch leaves the
// catalog loaded but relaxed.
func (m *Manager) LoadAllRelaxed(ctx context.Context, src source.Source) error {
	if err := m.SetRelaxed(); err != nil {
		return err
	}
	if err := m.LoadAll(ctx, src); err != nil {
		return err
	}
	return m.SetStrict()
}

func descriptorMap(ctx context.Context, src source.Source) (map[string]schema.Schema, error) {
	descs, err := src.Descriptors(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]schema.Schema, len(descs))
	for _, d := range descs {
		out[schema.NormalizeSchemaName(d.Name)] = d
	}
	return out, nil
}

// loadOrder resolves the dependency-ordered list of schemas still to load.
// An in-progress visitation set detects cycles and fails the load instead of
// looping.
func loadOrder(stage *snapshot, descs map[string]schema.Schema, roots []string) ([]schema.Schema, error) {
	const (
		visiting = 1
		done     = 2
	)
	state := map[string]int{}
	var order []schema.Schema
	var visit func(name string) error
	visit = func(name string) error {
		key := schema.NormalizeSchemaName(name)
		if _, loaded := stage.schemas[key]; loaded {
			return nil
		}
		switch state[key] {
		case visiting:
			return schema.NewError(schema.ErrDependencyCycle, "schema dependency cycle through %q", name)
		case done:
			return nil
		}
		desc, ok := descs[key]
		if !ok {
			return schema.NewError(schema.ErrUnknownSchema, "source has no schema %q", name)
		}
		state[key] = visiting
		for _, dep := range desc.Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[key] = done
		order = append(order, desc)
		return nil
	}
	for _, root := range roots {
		if err := visit(root); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (m *Manager) applyLoads(ctx context.Context, stage *snapshot, src source.Source, order []schema.Schema) error {
	for _, desc := range order {
		if err := m.applyLoad(ctx, stage, src, desc); err != nil {
			return err
		}
	}
	return nil
}

// applyLoad stages one schema: registers its membership bucket and builds
// every record. Objects of a disabled schema (or individually disabled ones)
// only reserve their OID.
func (m *Manager) applyLoad(ctx context.Context, stage *snapshot, src source.Source, desc schema.Schema) error {
	desc = desc.Clone()
	desc.Loaded = true
	stage.regs.SchemaLoaded(desc)
	records, err := src.Entries(ctx, desc.Name)
	if err != nil {
		return err
	}
	for _, rec := range records {
		obj, err := m.factory.Build(rec, desc)
		if err != nil {
			return err
		}
		if err := m.stageObject(stage, desc, obj); err != nil {
			return err
		}
	}
	stage.schemas[schema.NormalizeSchemaName(desc.Name)] = desc
	return nil
}

// stageObject registers the object in the staged catalog. Duplicate OIDs are
// a violation in strict mode; relaxed mode replaces the earlier claim.
func (m *Manager) stageObject(stage *snapshot, desc schema.Schema, obj schema.SchemaObject) error {
	oid := obj.ID()
	if existing, ok := stage.regs.Object(oid); ok {
		if stage.regs.IsStrict() {
			var res schema.Result
			res.Addf(schema.ViolationDuplicateOID, oid, desc.Name,
				"OID %s already registered as %s in schema %s",
				oid, existing.Kind(), existing.Common().SchemaName)
			return schema.TransactionError{Result: res}
		}
		if err := stage.regs.Delete(existing); err != nil {
			return err
		}
	}
	if desc.Enabled && obj.Common().Enabled {
		return stage.regs.Add(obj, false)
	}
	return stage.regs.Associate(obj)
}

// Unload removes the named schema and all its objects. Loaded dependents
// block the unload; lingering references from other schemas surface as
// dangling-reference violations and also block it.
func (m *Manager) Unload(name string) error {
	return m.transact("unload", func(stage *snapshot) error {
		key := schema.NormalizeSchemaName(name)
		desc, ok := stage.schemas[key]
		if !ok {
			return schema.NewError(schema.ErrNotLoaded, "schema %q is not loaded", name)
		}
		var res schema.Result
		for _, other := range stage.schemas {
			if schema.SameSchemaName(other.Name, name) {
				continue
			}
			for _, dep := range other.Dependencies {
				if schema.SameSchemaName(dep, name) {
					res.Addf(schema.ViolationSchemaRequired, "", other.Name,
						"schema %s depends on %s", other.Name, desc.Name)
				}
			}
		}
		if !res.OK() {
			return schema.TransactionError{Result: res}
		}
		for _, obj := range stage.regs.Members(key) {
			if err := stage.regs.Delete(obj); err != nil {
				return err
			}
		}
		stage.regs.SchemaUnloaded(key)
		delete(stage.schemas, key)
		return nil
	})
}

// Enable marks the schema enabled, transitively enabling its dependencies
// first. A validation failure discards every staged change, including the
// transitively enabled dependencies.
func (m *Manager) Enable(name string) error {
	return m.transact("enable", func(stage *snapshot) error {
		return enableWithDependencies(stage, name, map[string]struct{}{})
	})
}

func enableWithDependencies(stage *snapshot, name string, seen map[string]struct{}) error {
	key := schema.NormalizeSchemaName(name)
	if _, ok := seen[key]; ok {
		return nil
	}
	seen[key] = struct{}{}
	desc, ok := stage.schemas[key]
	if !ok {
		return schema.NewError(schema.ErrNotLoaded, "schema %q is not loaded", name)
	}
	if desc.Enabled {
		return nil
	}
	for _, dep := range desc.Dependencies {
		if err := enableWithDependencies(stage, dep, seen); err != nil {
			return err
		}
	}
	desc.Enabled = true
	stage.schemas[key] = desc
	stage.regs.EnableSchema(key)
	return nil
}

// Disable marks the schema disabled and hides its objects. Enabled schemas
// declaring a dependency on the target block the disable, as do enabled
// objects elsewhere still referencing the hidden members.
func (m *Manager) Disable(name string) error {
	return m.transact("disable", func(stage *snapshot) error {
		key := schema.NormalizeSchemaName(name)
		desc, ok := stage.schemas[key]
		if !ok {
			return schema.NewError(schema.ErrNotLoaded, "schema %q is not loaded", name)
		}
		var res schema.Result
		for _, other := range stage.schemas {
			if schema.SameSchemaName(other.Name, name) || !other.Enabled {
				continue
			}
			for _, dep := range other.Dependencies {
				if schema.SameSchemaName(dep, name) {
					res.Addf(schema.ViolationSchemaRequired, "", other.Name,
						"enabled schema %s depends on %s", other.Name, desc.Name)
				}
			}
		}
		if !res.OK() {
			return schema.TransactionError{Result: res}
		}
		desc.Enabled = false
		stage.schemas[key] = desc
		stage.regs.DisableSchema(key)
		return nil
	})
}

// Add builds the record and registers the object under the named loaded
// schema in one transaction.
func (m *Manager) Add(rec schema.Record, schemaName string) error {
	return m.transact("add", func(stage *snapshot) error {
		key := schema.NormalizeSchemaName(schemaName)
		desc, ok := stage.schemas[key]
		if !ok {
			return schema.NewError(schema.ErrNotLoaded, "schema %q is not loaded", schemaName)
		}
		obj, err := m.factory.Build(rec, desc)
		if err != nil {
			return err
		}
		return m.stageObject(stage, desc, obj)
	})
}

// Delete removes the object with the given OID. Visible objects still
// referenced by others are protected; hidden reservations are released
// without a guard.
func (m *Manager) Delete(oid schema.OID) error {
	return m.transact("delete", func(stage *snapshot) error {
		obj, ok := stage.regs.Object(oid)
		if !ok {
			return schema.NewError(schema.ErrInvalidValue, "OID %s is not registered", oid)
		}
		if !stage.regs.Hidden(oid) {
			if refs := stage.regs.Referencing(oid); len(refs) > 0 {
				var res schema.Result
				for _, ref := range refs {
					res.Addf(schema.ViolationStillReferenced, oid, obj.Common().SchemaName,
						"%s %s is still referenced by %s", obj.Kind(), oid, ref)
				}
				return schema.TransactionError{Result: res}
			}
		}
		return stage.regs.Delete(obj)
	})
}

// Verify runs a full strict validation pass against a throwaway clone and
// returns every violation found. The live catalog is never modified.
func (m *Manager) Verify() schema.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	stage := m.live.Load().clone()
	stage.regs.SetStrict()
	res := stage.regs.BuildReferences()
	res.Merge(stage.regs.CheckIntegrity())
	return res
}

// SetStrict switches to strict mode, re-validating the whole catalog; the
// switch is rejected if the relaxed catalog does not hold up.
func (m *Manager) SetStrict() error {
	return m.transact("setStrict", func(stage *snapshot) error {
		stage.regs.SetStrict()
		return nil
	})
}

// SetRelaxed switches to relaxed mode for bulk bootstrap.
func (m *Manager) SetRelaxed() error {
	return m.transact("setRelaxed", func(stage *snapshot) error {
		stage.regs.SetRelaxed()
		return nil
	})
}

// IsStrict reports whether the live catalog validates strictly.
func (m *Manager) IsStrict() bool { return m.live.Load().regs.IsStrict() }

// Export writes every loaded schema back to a writable source as bundles,
// rendering each member object into record form.
func (m *Manager) Export(ctx context.Context, w source.Writer) error {
	s := m.live.Load()
	for _, desc := range sortedDescriptors(s) {
		bundle := source.Bundle{Descriptor: desc}
		for _, obj := range s.regs.Members(schema.NormalizeSchemaName(desc.Name)) {
			bundle.Records = append(bundle.Records, schema.RecordFor(obj))
		}
		if err := w.SaveBundle(ctx, bundle); err != nil {
			return err
		}
	}
	return nil
}
