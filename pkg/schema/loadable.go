package schema

// ValueComparer compares two attribute values under a matching rule.
// Implementations must be safe for concurrent use.
type ValueComparer interface {
	Compare(a, b []byte) int
}

// ValueNormalizer canonicalizes an attribute value before matching.
// Implementations must be safe for concurrent use.
type ValueNormalizer interface {
	Normalize(value []byte) ([]byte, error)
}

// ValueChecker validates a value against a syntax.
// Implementations must be safe for concurrent use.
type ValueChecker interface {
	Valid(value []byte) bool
}

// Catalog is the read-side view of the live registries handed to extensions
// that need schema lookups at call time.
type Catalog interface {
	Lookup(oid OID) (SchemaObject, bool)
}

// CatalogAware is implemented by extension instances that want a reference
// to the owning catalog when they are instantiated.
type CatalogAware interface {
	BindCatalog(Catalog)
}

// Comparator is a loadable schema object whose comparison behavior is
// resolved from the extension registry by its implementation key.
type Comparator struct {
	Base
	Key  string        `json:"key"`
	Impl ValueComparer `json:"-"`
}

// Kind returns KindComparator.
func (c *Comparator) Kind() Kind { return KindComparator }

// Clone copies the descriptor. The resolved instance is shared between
// clones; extension implementations are stateless by contract.
func (c *Comparator) Clone() SchemaObject {
	cp := *c
	cp.Base = c.Base.cloneBase()
	return &cp
}

// References returns nil; loadables are leaves of the reference graph.
func (c *Comparator) References() []Reference { return nil }

// Normalizer is a loadable schema object supplying value normalization.
type Normalizer struct {
	Base
	Key  string          `json:"key"`
	Impl ValueNormalizer `json:"-"`
}

// Kind returns KindNormalizer.
func (n *Normalizer) Kind() Kind { return KindNormalizer }

// Clone copies the descriptor; the resolved instance is shared.
func (n *Normalizer) Clone() SchemaObject {
	cp := *n
	cp.Base = n.Base.cloneBase()
	return &cp
}

// References returns nil.
func (n *Normalizer) References() []Reference { return nil }

// SyntaxChecker is a loadable schema object supplying syntax validation.
type SyntaxChecker struct {
	Base
	Key  string       `json:"key"`
	Impl ValueChecker `json:"-"`
}

// Kind returns KindSyntaxChecker.
func (s *SyntaxChecker) Kind() Kind { return KindSyntaxChecker }

// Clone copies the descriptor; the resolved instance is shared.
func (s *SyntaxChecker) Clone() SchemaObject {
	cp := *s
	cp.Base = s.Base.cloneBase()
	return &cp
}

// References returns nil.
func (s *SyntaxChecker) References() []Reference { return nil }
