package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"schemacore/pkg/schema"
)

const (
	postgresDriver = "pgx"
	defaultDSN     = "postgres://localhost/schemacore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Postgres stores one JSONB bundle per schema in a schema_bundles table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a Postgres-backed source using the provided DSN (falls
// back to defaultDSN) and ensures the bundle table exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(postgresDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_bundles (
		name TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("ensure schema_bundles table: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Descriptors decodes every stored bundle's descriptor.
func (p *Postgres) Descriptors(ctx context.Context) ([]schema.Schema, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT payload FROM schema_bundles`)
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
func (p *Postgres) Entries(ctx context.Context, schemaName string) ([]schema.Record, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT payload FROM schema_bundles WHERE name = $1`,
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
func (p *Postgres) SaveBundle(ctx context.Context, b Bundle) error {
	payload, err := encodeBundle(b)
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO schema_bundles(name,payload) VALUES($1,$2) ON CONFLICT(name) DO UPDATE SET payload=EXCLUDED.payload`,
		schema.NormalizeSchemaName(b.Descriptor.Name), payload)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", b.Descriptor.Name, err)
	}
	return nil
}

// DeleteBundle removes the named bundle, reporting whether it existed.
func (p *Postgres) DeleteBundle(ctx context.Context, schemaName string) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM schema_bundles WHERE name = $1`, schema.NormalizeSchemaName(schemaName))
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
func (p *Postgres) Close() error { return p.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (p *Postgres) DB() *sql.DB { return p.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
