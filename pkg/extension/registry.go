// Package extension provides the keyed registries that supply executable
// behavior (comparators, normalizers, syntax checkers) to loadable schema
// objects. Implementations are statically linked and selected by a stable
// string key; there is no runtime code loading.
package extension

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"schemacore/pkg/schema"
)

// Builder constructs an extension instance bound to the declared OID.
// Builders must be safe to call concurrently.
type Builder[T any] func(oid schema.OID) (T, error)

type entry[T any] struct {
	key         string
	builder     Builder[T]
	instance    T
	hasInstance bool
	defaultOID  schema.OID
	doc         string
}

// Registry is a concurrency-safe registry of extension implementations
// keyed by a case-insensitive string key.
type Registry[T any] struct {
	mu     sync.RWMutex
	data   map[string]entry[T]
	sealed atomic.Bool
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{data: make(map[string]entry[T])}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Sealed reports whether the registry rejects further registrations.
func (r *Registry[T]) Sealed() bool { return r.sealed.Load() }

// Seal prevents further registrations. Idempotent.
func (r *Registry[T]) Seal() { r.sealed.Store(true) }

// Register adds a builder under key. The builder receives the declared OID
// of the schema object it serves.
func (r *Registry[T]) Register(key string, b Builder[T], doc ...string) error {
	if r.Sealed() {
		return schema.NewError(schema.ErrUnknownExtension, "extension registry is sealed")
	}
	k := normalizeKey(key)
	if k == "" || b == nil {
		return schema.NewError(schema.ErrInvalidValue, "invalid extension key or builder")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[k]; exists {
		return schema.NewError(schema.ErrInvalidValue, "extension %q already registered", key)
	}
	e := entry[T]{key: k, builder: b}
	if len(doc) > 0 {
		e.doc = doc[0]
	}
	r.data[k] = e
	return nil
}

// RegisterInstance adds a prebuilt instance under key, recording the default
// OID the instance answers to. Resolution through an instance requires the
// declared OID to equal the default.
func (r *Registry[T]) RegisterInstance(key string, defaultOID schema.OID, inst T, doc ...string) error {
	if r.Sealed() {
		return schema.NewError(schema.ErrUnknownExtension, "extension registry is sealed")
	}
	k := normalizeKey(key)
	if k == "" {
		return schema.NewError(schema.ErrInvalidValue, "invalid extension key")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[k]; exists {
		return schema.NewError(schema.ErrInvalidValue, "extension %q already registered", key)
	}
	e := entry[T]{key: k, instance: inst, hasInstance: true, defaultOID: defaultOID}
	if len(doc) > 0 {
		e.doc = doc[0]
	}
	r.data[k] = e
	return nil
}

// MustRegister panics on registration error. Intended for package init.
func MustRegister[T any](r *Registry[T], key string, b Builder[T], doc ...string) {
	if err := r.Register(key, b, doc...); err != nil {
		panic(err)
	}
}

// Resolve produces the instance registered under key for the declared OID.
// A builder is preferred; a registered instance is the fallback, and its
// default OID must equal the declared one.
func (r *Registry[T]) Resolve(key string, declared schema.OID) (T, error) {
	var zero T
	k := normalizeKey(key)
	r.mu.RLock()
	e, ok := r.data[k]
	r.mu.RUnlock()
	if !ok {
		return zero, schema.NewError(schema.ErrUnknownExtension, "no extension registered under key %q", key)
	}
	if e.builder != nil {
		inst, err := e.builder(declared)
		if err != nil {
			return zero, schema.WrapError(schema.ErrUnknownExtension, err, "extension %q failed to instantiate", key)
		}
		return inst, nil
	}
	if !e.hasInstance {
		return zero, schema.NewError(schema.ErrUnknownExtension, "extension %q has no builder or instance", key)
	}
	if e.defaultOID != declared {
		return zero, schema.NewError(schema.ErrOIDMismatch,
			"extension %q answers to OID %s, entry declares %s", key, e.defaultOID, declared)
	}
	return e.instance, nil
}

// Keys returns the registered keys in sorted order.
func (r *Registry[T]) Keys() []string {
	r.mu.RLock()
	keys := make([]string, 0, len(r.data))
	for k := range r.data {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Set bundles one registry per loadable kind.
type Set struct {
	Comparators *Registry[schema.ValueComparer]
	Normalizers *Registry[schema.ValueNormalizer]
	Checkers    *Registry[schema.ValueChecker]
}

// NewSet creates an empty extension set.
func NewSet() *Set {
	return &Set{
		Comparators: NewRegistry[schema.ValueComparer](),
		Normalizers: NewRegistry[schema.ValueNormalizer](),
		Checkers:    NewRegistry[schema.ValueChecker](),
	}
}

// Seal seals all three registries.
func (s *Set) Seal() {
	s.Comparators.Seal()
	s.Normalizers.Seal()
	s.Checkers.Seal()
}
