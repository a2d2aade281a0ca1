package blob

import (
	"context"
	"errors"
	"testing"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	fsStore, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("filesystem store: %v", err)
	}
	return map[string]Store{
		"memory": NewMemory(),
		"fs":     fsStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			payload := []byte(`{"name":"core"}`)
			info, err := store.Put(ctx, "schemas/core.json", payload)
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			if info.Key != "schemas/core.json" || info.Size != int64(len(payload)) {
				t.Fatalf("unexpected info: %+v", info)
			}

			got, err := store.Get(ctx, "schemas/core.json")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if string(got) != string(payload) {
				t.Fatalf("payload mismatch: %q", got)
			}

			// Puts are upserts.
			if _, err := store.Put(ctx, "schemas/core.json", []byte("{}")); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, err = store.Get(ctx, "schemas/core.json")
			if err != nil || string(got) != "{}" {
				t.Fatalf("overwrite not visible: %q %v", got, err)
			}

			ok, err := store.Delete(ctx, "schemas/core.json")
			if err != nil || !ok {
				t.Fatalf("delete: %v %v", ok, err)
			}
			if _, err := store.Get(ctx, "schemas/core.json"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestStoreListByPrefix(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"schemas/core.json", "schemas/system.json", "other/x.json"} {
				if _, err := store.Put(ctx, key, []byte("{}")); err != nil {
					t.Fatalf("put %s: %v", key, err)
				}
			}
			infos, err := store.List(ctx, "schemas/")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(infos) != 2 || infos[0].Key != "schemas/core.json" || infos[1].Key != "schemas/system.json" {
				t.Fatalf("unexpected listing: %+v", infos)
			}
		})
	}
}

func TestStoreRejectsTraversalKeys(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "/abs", "../escape", "a/../../b"} {
				if _, err := store.Put(ctx, key, []byte("{}")); err == nil {
					t.Fatalf("put %q must be rejected", key)
				}
				if _, err := store.Get(ctx, key); err == nil {
					t.Fatalf("get %q must be rejected", key)
				}
				if _, err := store.Delete(ctx, key); err == nil {
					t.Fatalf("delete %q must be rejected", key)
				}
				if key == "" {
					continue
				}
				if _, err := store.List(ctx, key); err == nil {
					t.Fatalf("list prefix %q must be rejected", key)
				}
			}
		})
	}
}

func TestS3ValidatesKeysBeforeAnyRequest(t *testing.T) {
	// The nil client proves validation fires before the backend is touched.
	ctx := context.Background()
	s := &S3{}
	if _, err := s.Put(ctx, "../escape", nil); err == nil {
		t.Fatal("put must reject traversal keys")
	}
	if _, err := s.Get(ctx, "../escape"); err == nil {
		t.Fatal("get must reject traversal keys")
	}
	if _, err := s.Delete(ctx, "/abs"); err == nil {
		t.Fatal("delete must reject absolute keys")
	}
	if _, err := s.List(ctx, "../escape"); err == nil {
		t.Fatal("list must reject traversal prefixes")
	}
}

func TestOpenSelectsDriverFromEnv(t *testing.T) {
	ctx := context.Background()

	t.Setenv("SCHEMACORE_BLOB_DRIVER", "memory")
	store, err := Open(ctx)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("unexpected driver %s", store.Driver())
	}

	t.Setenv("SCHEMACORE_BLOB_DRIVER", "fs")
	t.Setenv("SCHEMACORE_BLOB_FS_ROOT", t.TempDir())
	store, err = Open(ctx)
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("unexpected driver %s", store.Driver())
	}

	t.Setenv("SCHEMACORE_BLOB_DRIVER", "bogus")
	if _, err := Open(ctx); err == nil {
		t.Fatal("unknown driver must fail")
	}
}
