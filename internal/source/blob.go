package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"schemacore/internal/blob"
	"schemacore/pkg/schema"
)

// Blob stores one JSON bundle object per schema under a key prefix in a
// blob store.
type Blob struct {
	store  blob.Store
	prefix string
}

// NewBlob wraps the store; keys are <prefix><name>.json (default prefix
// "schemas/").
func NewBlob(store blob.Store, prefix string) *Blob {
	if prefix == "" {
		prefix = "schemas/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Blob{store: store, prefix: prefix}
}

func (b *Blob) key(schemaName string) string {
	return b.prefix + schema.NormalizeSchemaName(schemaName) + ".json"
}

// Descriptors lists and decodes every bundle under the prefix.
func (b *Blob) Descriptors(ctx context.Context) ([]schema.Schema, error) {
	infos, err := b.store.List(ctx, b.prefix)
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	var out []schema.Schema
	for _, info := range infos {
		if !strings.HasSuffix(info.Key, ".json") {
			continue
		}
		payload, err := b.store.Get(ctx, info.Key)
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", info.Key, err)
		}
		bundle, err := decodeBundle(payload)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", info.Key, err)
		}
		out = append(out, bundle.Descriptor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Entries returns the records of the named schema.
func (b *Blob) Entries(ctx context.Context, schemaName string) ([]schema.Record, error) {
	payload, err := b.store.Get(ctx, b.key(schemaName))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, unknownSchema(schemaName)
	}
	if err != nil {
		return nil, fmt.Errorf("get bundle: %w", err)
	}
	bundle, err := decodeBundle(payload)
	if err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return bundle.Records, nil
}

// SaveBundle writes the bundle object, replacing any existing one.
func (b *Blob) SaveBundle(ctx context.Context, bundle Bundle) error {
	payload, err := encodeBundle(bundle)
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	if _, err := b.store.Put(ctx, b.key(bundle.Descriptor.Name), payload); err != nil {
		return fmt.Errorf("put bundle: %w", err)
	}
	return nil
}

// DeleteBundle removes the bundle object, reporting whether it existed.
func (b *Blob) DeleteBundle(ctx context.Context, schemaName string) (bool, error) {
	return b.store.Delete(ctx, b.key(schemaName))
}
