package source

import (
	"context"
	"fmt"
	"os"

	"schemacore/internal/blob"
)

// Open selects a schema source using environment variables.
//
//	SCHEMACORE_SOURCE_DRIVER: builtin|memory|sqlite|postgres|blob (default builtin)
//	SCHEMACORE_SQLITE_PATH: database file when driver=sqlite (default schemacore.db)
//	SCHEMACORE_POSTGRES_DSN: DSN when driver=postgres
//	SCHEMACORE_BLOB_PREFIX: key prefix when driver=blob (default schemas/)
//	(blob backend selection documented in internal/blob)
func Open(ctx context.Context) (Source, error) {
	driver := os.Getenv("SCHEMACORE_SOURCE_DRIVER")
	if driver == "" {
		driver = "builtin"
	}
	switch driver {
	case "builtin":
		return Builtin(), nil
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		return NewSQLite(os.Getenv("SCHEMACORE_SQLITE_PATH"))
	case "postgres":
		return NewPostgres(ctx, os.Getenv("SCHEMACORE_POSTGRES_DSN"))
	case "blob":
		store, err := blob.Open(ctx)
		if err != nil {
			return nil, err
		}
		return NewBlob(store, os.Getenv("SCHEMACORE_BLOB_PREFIX")), nil
	default:
		return nil, fmt.Errorf("unknown source driver %s", driver)
	}
}
