package source

import (
	"context"
	"sort"
	"sync"

	"schemacore/pkg/schema"
)

// Memory is an in-process source used by tests and the built-in bootstrap.
type Memory struct {
	mu      sync.RWMutex
	bundles map[string]Bundle
}

// NewMemory builds a source holding the given bundles.
func NewMemory(bundles ...Bundle) *Memory {
	m := &Memory{bundles: map[string]Bundle{}}
	for _, b := range bundles {
		m.bundles[schema.NormalizeSchemaName(b.Descriptor.Name)] = b.Clone()
	}
	return m
}

// Descriptors lists the held schemas sorted by name.
func (m *Memory) Descriptors(ctx context.Context) ([]schema.Schema, error) {
	m.mu.RLock()
	out := make([]schema.Schema, 0, len(m.bundles))
	for _, b := range m.bundles {
		out = append(out, b.Descriptor.Clone())
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Entries returns the records of the named schema.
func (m *Memory) Entries(ctx context.Context, schemaName string) ([]schema.Record, error) {
	m.mu.RLock()
	b, ok := m.bundles[schema.NormalizeSchemaName(schemaName)]
	m.mu.RUnlock()
	if !ok {
		return nil, unknownSchema(schemaName)
	}
	return b.Clone().Records, nil
}

// SaveBundle stores or replaces the bundle.
func (m *Memory) SaveBundle(ctx context.Context, b Bundle) error {
	m.mu.Lock()
	m.bundles[schema.NormalizeSchemaName(b.Descriptor.Name)] = b.Clone()
	m.mu.Unlock()
	return nil
}

// DeleteBundle removes the named bundle, reporting whether it existed.
func (m *Memory) DeleteBundle(ctx context.Context, schemaName string) (bool, error) {
	key := schema.NormalizeSchemaName(schemaName)
	m.mu.Lock()
	_, ok := m.bundles[key]
	delete(m.bundles, key)
	m.mu.Unlock()
	return ok, nil
}
