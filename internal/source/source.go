// Package source provides the backends a schema manager loads definitions
// from: in-memory bundles, the built-in bootstrap schemas, SQLite, Postgres,
// and blob storage. Every backend deals in JSON-serialized bundles of one
// schema descriptor plus its entry records.
package source

import (
	"context"
	"encoding/json"

	"schemacore/pkg/schema"
)

// Bundle is the serialized unit of schema exchange: one descriptor and the
// records describing its member objects.
type Bundle struct {
	Descriptor schema.Schema   `json:"descriptor"`
	Records    []schema.Record `json:"records"`
}

// Clone returns an independent copy of the bundle.
func (b Bundle) Clone() Bundle {
	cp := Bundle{Descriptor: b.Descriptor.Clone()}
	for _, rec := range b.Records {
		cp.Records = append(cp.Records, schema.Record{Kind: rec.Kind, Entry: rec.Entry.Clone()})
	}
	return cp
}

// encodeBundle renders the canonical JSON payload stored by the persistent
// backends.
func encodeBundle(b Bundle) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

func decodeBundle(data []byte) (Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

// Source supplies schema definitions to a manager.
type Source interface {
	// Descriptors lists every schema the source can provide.
	Descriptors(ctx context.Context) ([]schema.Schema, error)
	// Entries returns the records of the named schema.
	Entries(ctx context.Context, schemaName string) ([]schema.Record, error)
}

// Writer is implemented by sources a catalog can be exported back to.
type Writer interface {
	SaveBundle(ctx context.Context, b Bundle) error
	DeleteBundle(ctx context.Context, schemaName string) (bool, error)
}

func unknownSchema(name string) error {
	return schema.NewError(schema.ErrUnknownSchema, "source has no schema %q", name)
}
