// Package registries implements the in-memory schema catalog: one index per
// schema object kind, a global OID index enforcing cross-kind uniqueness, a
// schema-membership index, and the reference graph between objects.
package registries

import (
	"sort"
	"strings"

	"schemacore/pkg/schema"
)

// index is the per-kind lookup structure: objects by OID plus a normalized
// alias map for name lookups.
type index[T schema.SchemaObject] struct {
	byOID   map[schema.OID]T
	aliases map[string]schema.OID
}

func newIndex[T schema.SchemaObject]() *index[T] {
	return &index[T]{byOID: map[schema.OID]T{}, aliases: map[string]schema.OID{}}
}

func normalizeAlias(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (ix *index[T]) add(obj T) {
	ix.byOID[obj.ID()] = obj
	for _, name := range obj.Common().Names {
		ix.aliases[normalizeAlias(name)] = obj.ID()
	}
}

func (ix *index[T]) remove(obj T) {
	delete(ix.byOID, obj.ID())
	for alias, oid := range ix.aliases {
		if oid == obj.ID() {
			delete(ix.aliases, alias)
		}
	}
}

// get resolves by OID first, then by alias.
func (ix *index[T]) get(key string) (T, bool) {
	if obj, ok := ix.byOID[schema.OID(key)]; ok {
		return obj, true
	}
	if oid, ok := ix.aliases[normalizeAlias(key)]; ok {
		obj, ok := ix.byOID[oid]
		return obj, ok
	}
	var zero T
	return zero, false
}

func (ix *index[T]) resolveAlias(key string) (schema.OID, bool) {
	oid, ok := ix.aliases[normalizeAlias(key)]
	return oid, ok
}

// Registries is the catalog aggregate. It is not safe for concurrent
// mutation; the manager serializes writers and publishes committed
// snapshots behind an atomic pointer.
type Registries struct {
	attributeTypes   *index[*schema.AttributeType]
	objectClasses    *index[*schema.ObjectClass]
	matchingRules    *index[*schema.MatchingRule]
	syntaxes         *index[*schema.LDAPSyntax]
	matchingRuleUses *index[*schema.MatchingRuleUse]
	contentRules     *index[*schema.DITContentRule]
	structureRules   *index[*schema.DITStructureRule]
	nameForms        *index[*schema.NameForm]
	comparators      *index[*schema.Comparator]
	normalizers      *index[*schema.Normalizer]
	syntaxCheckers   *index[*schema.SyntaxChecker]

	// objects holds every registered object, including OID-space
	// reservations for disabled schemas; hidden marks the reservations
	// that are excluded from lookup indices.
	objects map[schema.OID]schema.SchemaObject
	hidden  map[schema.OID]struct{}

	bySchema      map[string]map[schema.OID]struct{}
	schemaEnabled map[string]bool

	// referencing maps a target OID to the set of visible objects holding
	// a reference to it; rebuilt by BuildReferences.
	referencing map[schema.OID]map[schema.OID]struct{}

	strict bool
}

// New creates an empty catalog in strict mode.
func New() *Registries {
	return &Registries{
		attributeTypes:   newIndex[*schema.AttributeType](),
		objectClasses:    newIndex[*schema.ObjectClass](),
		matchingRules:    newIndex[*schema.MatchingRule](),
		syntaxes:         newIndex[*schema.LDAPSyntax](),
		matchingRuleUses: newIndex[*schema.MatchingRuleUse](),
		contentRules:     newIndex[*schema.DITContentRule](),
		structureRules:   newIndex[*schema.DITStructureRule](),
		nameForms:        newIndex[*schema.NameForm](),
		comparators:      newIndex[*schema.Comparator](),
		normalizers:      newIndex[*schema.Normalizer](),
		syntaxCheckers:   newIndex[*schema.SyntaxChecker](),
		objects:          map[schema.OID]schema.SchemaObject{},
		hidden:           map[schema.OID]struct{}{},
		bySchema:         map[string]map[schema.OID]struct{}{},
		schemaEnabled:    map[string]bool{},
		referencing:      map[schema.OID]map[schema.OID]struct{}{},
		strict:           true,
	}
}

// IsStrict reports whether strict validation applies.
func (r *Registries) IsStrict() bool { return r.strict }

// IsRelaxed reports whether relaxed validation applies.
func (r *Registries) IsRelaxed() bool { return !r.strict }

// SetStrict enables strict validation.
func (r *Registries) SetStrict() { r.strict = true }

// SetRelaxed disables strict validation; used while staging a transaction.
func (r *Registries) SetRelaxed() { r.strict = false }

func (r *Registries) indexAdd(obj schema.SchemaObject) error {
	switch o := obj.(type) {
	case *schema.AttributeType:
		r.attributeTypes.add(o)
	case *schema.ObjectClass:
		r.objectClasses.add(o)
	case *schema.MatchingRule:
		r.matchingRules.add(o)
	case *schema.LDAPSyntax:
		r.syntaxes.add(o)
	case *schema.MatchingRuleUse:
		r.matchingRuleUses.add(o)
	case *schema.DITContentRule:
		r.contentRules.add(o)
	case *schema.DITStructureRule:
		r.structureRules.add(o)
	case *schema.NameForm:
		r.nameForms.add(o)
	case *schema.Comparator:
		r.comparators.add(o)
	case *schema.Normalizer:
		r.normalizers.add(o)
	case *schema.SyntaxChecker:
		r.syntaxCheckers.add(o)
	default:
		return schema.NewError(schema.ErrUnknownKind, "unsupported schema object kind %T", obj)
	}
	return nil
}

func (r *Registries) indexRemove(obj schema.SchemaObject) {
	switch o := obj.(type) {
	case *schema.AttributeType:
		r.attributeTypes.remove(o)
	case *schema.ObjectClass:
		r.objectClasses.remove(o)
	case *schema.MatchingRule:
		r.matchingRules.remove(o)
	case *schema.LDAPSyntax:
		r.syntaxes.remove(o)
	case *schema.MatchingRuleUse:
		r.matchingRuleUses.remove(o)
	case *schema.DITContentRule:
		r.contentRules.remove(o)
	case *schema.DITStructureRule:
		r.structureRules.remove(o)
	case *schema.NameForm:
		r.nameForms.remove(o)
	case *schema.Comparator:
		r.comparators.remove(o)
	case *schema.Normalizer:
		r.normalizers.remove(o)
	case *schema.SyntaxChecker:
		r.syntaxCheckers.remove(o)
	}
}

func (r *Registries) membershipAdd(obj schema.SchemaObject) {
	name := schema.NormalizeSchemaName(obj.Common().SchemaName)
	bucket, ok := r.bySchema[name]
	if !ok {
		bucket = map[schema.OID]struct{}{}
		r.bySchema[name] = bucket
	}
	bucket[obj.ID()] = struct{}{}
}

// Add inserts the object into its kind index, the global OID index, and the
// membership index of its owning schema. With checkOIDUniqueness set, an
// already-claimed OID is an error; otherwise an existing claim is replaced.
func (r *Registries) Add(obj schema.SchemaObject, checkOIDUniqueness bool) error {
	oid := obj.ID()
	if oid == "" {
		return schema.NewError(schema.ErrInvalidValue, "schema object without OID")
	}
	if existing, ok := r.objects[oid]; ok {
		if checkOIDUniqueness {
			return schema.NewError(schema.ErrInvalidValue,
				"OID %s already registered as %s", oid, existing.Kind())
		}
		if err := r.Delete(existing); err != nil {
			return err
		}
	}
	if err := r.indexAdd(obj); err != nil {
		return err
	}
	r.objects[oid] = obj
	r.membershipAdd(obj)
	return nil
}

// Associate reserves the object's OID and schema membership without making
// it visible to lookups. Used for objects of disabled schemas, whose OID
// space must stay claimed to prevent later collisions.
func (r *Registries) Associate(obj schema.SchemaObject) error {
	oid := obj.ID()
	if oid == "" {
		return schema.NewError(schema.ErrInvalidValue, "schema object without OID")
	}
	if existing, ok := r.objects[oid]; ok {
		return schema.NewError(schema.ErrInvalidValue,
			"OID %s already registered as %s", oid, existing.Kind())
	}
	r.objects[oid] = obj
	r.hidden[oid] = struct{}{}
	r.membershipAdd(obj)
	return nil
}

// Delete removes the object from every index, releasing its OID. The caller
// is responsible for the referencer check; Referencing exposes the data.
func (r *Registries) Delete(obj schema.SchemaObject) error {
	oid := obj.ID()
	registered, ok := r.objects[oid]
	if !ok {
		return schema.NewError(schema.ErrInvalidValue, "OID %s is not registered", oid)
	}
	if _, isHidden := r.hidden[oid]; !isHidden {
		r.indexRemove(registered)
	}
	delete(r.objects, oid)
	delete(r.hidden, oid)
	delete(r.referencing, oid)
	name := schema.NormalizeSchemaName(registered.Common().SchemaName)
	if bucket, ok := r.bySchema[name]; ok {
		delete(bucket, oid)
	}
	return nil
}

// SchemaLoaded creates the membership bucket for a freshly loaded schema and
// records its enabled state.
func (r *Registries) SchemaLoaded(sc schema.Schema) {
	name := schema.NormalizeSchemaName(sc.Name)
	if _, ok := r.bySchema[name]; !ok {
		r.bySchema[name] = map[schema.OID]struct{}{}
	}
	r.schemaEnabled[name] = sc.Enabled
}

// SchemaUnloaded removes the membership bucket; member objects must already
// have been deleted.
func (r *Registries) SchemaUnloaded(name string) {
	key := schema.NormalizeSchemaName(name)
	delete(r.bySchema, key)
	delete(r.schemaEnabled, key)
}

// EnableSchema marks the schema enabled and promotes its hidden members into
// the lookup indices. Members without an explicit enabled override follow the
// schema; explicitly disabled ones stay hidden reservations.
func (r *Registries) EnableSchema(name string) {
	key := schema.NormalizeSchemaName(name)
	r.schemaEnabled[key] = true
	for oid := range r.bySchema[key] {
		obj := r.objects[oid]
		if obj == nil {
			continue
		}
		common := obj.Common()
		if !common.EnabledExplicit {
			common.Enabled = true
		}
		if !common.Enabled {
			continue
		}
		if _, isHidden := r.hidden[oid]; !isHidden {
			continue
		}
		delete(r.hidden, oid)
		_ = r.indexAdd(obj)
	}
}

// DisableSchema marks the schema disabled and hides every member from the
// lookup indices while keeping their OID space reserved. Members without an
// explicit enabled override follow the schema down.
func (r *Registries) DisableSchema(name string) {
	key := schema.NormalizeSchemaName(name)
	r.schemaEnabled[key] = false
	for oid := range r.bySchema[key] {
		obj := r.objects[oid]
		if obj == nil {
			continue
		}
		if !obj.Common().EnabledExplicit {
			obj.Common().Enabled = false
		}
		if _, isHidden := r.hidden[oid]; isHidden {
			continue
		}
		r.indexRemove(obj)
		r.hidden[oid] = struct{}{}
	}
}

// Members returns the schema's member objects sorted by OID.
func (r *Registries) Members(name string) []schema.SchemaObject {
	key := schema.NormalizeSchemaName(name)
	oids := make([]schema.OID, 0, len(r.bySchema[key]))
	for oid := range r.bySchema[key] {
		oids = append(oids, oid)
	}
	sort.Slice(oids, func(i, j int) bool { return oids[i] < oids[j] })
	out := make([]schema.SchemaObject, 0, len(oids))
	for _, oid := range oids {
		out = append(out, r.objects[oid])
	}
	return out
}

// Object returns the registered object by exact OID, reservations included.
func (r *Registries) Object(oid schema.OID) (schema.SchemaObject, bool) {
	obj, ok := r.objects[oid]
	return obj, ok
}

// OIDRegistered reports whether the OID is claimed, including reservations.
func (r *Registries) OIDRegistered(oid schema.OID) bool {
	_, ok := r.objects[oid]
	return ok
}

// Hidden reports whether the OID is reserved but excluded from lookups.
func (r *Registries) Hidden(oid schema.OID) bool {
	_, ok := r.hidden[oid]
	return ok
}

// Size returns the number of registered objects, reservations included.
func (r *Registries) Size() int { return len(r.objects) }

// Counts returns the number of visible objects per kind.
func (r *Registries) Counts() map[schema.Kind]int {
	counts := map[schema.Kind]int{}
	for oid, obj := range r.objects {
		if _, isHidden := r.hidden[oid]; isHidden {
			continue
		}
		counts[obj.Kind()]++
	}
	return counts
}

// Clone produces a deep structural copy: independent indices and object
// copies, so a staged mutation can never leak into the committed catalog.
func (r *Registries) Clone() *Registries {
	cp := New()
	cp.strict = r.strict
	for name, enabled := range r.schemaEnabled {
		cp.schemaEnabled[name] = enabled
	}
	for name, bucket := range r.bySchema {
		set := make(map[schema.OID]struct{}, len(bucket))
		for oid := range bucket {
			set[oid] = struct{}{}
		}
		cp.bySchema[name] = set
	}
	for oid := range r.hidden {
		cp.hidden[oid] = struct{}{}
	}
	for oid, obj := range r.objects {
		cloned := obj.Clone()
		cp.objects[oid] = cloned
		if _, isHidden := cp.hidden[oid]; !isHidden {
			_ = cp.indexAdd(cloned)
		}
	}
	for target, sources := range r.referencing {
		set := make(map[schema.OID]struct{}, len(sources))
		for src := range sources {
			set[src] = struct{}{}
		}
		cp.referencing[target] = set
	}
	return cp
}

// sortedOIDs returns every registered OID in stable order.
func (r *Registries) sortedOIDs() []schema.OID {
	oids := make([]schema.OID, 0, len(r.objects))
	for oid := range r.objects {
		oids = append(oids, oid)
	}
	sort.Slice(oids, func(i, j int) bool { return oids[i] < oids[j] })
	return oids
}
