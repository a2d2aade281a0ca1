package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"schemacore/pkg/schema"
)

// SQLite stores one JSON bundle per schema in a schema_bundles table.
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (or creates) the bundle database at path.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "schemacore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_bundles (
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create schema_bundles table: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

// Descriptors decodes every stored bundle's descriptor.
func (s *SQLite) Descriptors(ctx context.Context) ([]schema.Schema, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM schema_bundles`)
	if err != nil {
		return nil, fmt.Errorf("select schema_bundles: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []schema.Schema
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		b, err := decodeBundle(payload)
		if err != nil {
			return nil, fmt.Errorf("decode bundle: %w", err)
		}
		out = append(out, b.Descriptor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schema_bundles: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Entries returns the records of the named schema.
func (s *SQLite) Entries(ctx context.Context, schemaName string) ([]schema.Record, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM schema_bundles WHERE name = ?`,
		schema.NormalizeSchemaName(schemaName)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, unknownSchema(schemaName)
	}
	if err != nil {
		return nil, fmt.Errorf("select bundle: %w", err)
	}
	b, err := decodeBundle(payload)
	if err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return b.Records, nil
}

// SaveBundle upserts the bundle under its normalized schema name.
func (s *SQLite) SaveBundle(ctx context.Context, b Bundle) error {
	payload, err := encodeBundle(b)
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO schema_bundles(name,payload) VALUES(?,?) ON CONFLICT(name) DO UPDATE SET payload=excluded.payload`,
		schema.NormalizeSchemaName(b.Descriptor.Name), payload)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", b.Descriptor.Name, err)
	}
	return nil
}

// DeleteBundle removes the named bundle, reporting whether it existed.
func (s *SQLite) DeleteBundle(ctx context.Context, schemaName string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM schema_bundles WHERE name = ?`, schema.NormalizeSchemaName(schemaName))
	if err != nil {
		return false, fmt.Errorf("delete bundle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *SQLite) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *SQLite) Path() string { return s.path }
