package cache_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/SimonSchneider/funance/internal/cache"
	"github.com/SimonSchneider/goslu/sid"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func setup(t *testing.T) (context.Context, *cache.Store) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	s, err := cache.Open(ctx, "file:"+filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to open cache: %s", err)
	}
	t.Cleanup(func() { s.Close() })
	return ctx, s
}

type series struct {
	Name   string   `json:"name"`
	Labels []string `json:"labels"`
}

func TestSaveAndLoad(t *testing.T) {
	ctx, s := setup(t)
	in := series{Name: sid.MustNewString(12), Labels: []string{"2024-01", "2024-02"}}
	key := Must(s.Save(ctx, "series", in))
	if len(key) != 128 {
		t.Errorf("key %q is not a hex sha512", key)
	}
	var out series
	kind, err := s.Load(ctx, key, &out)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if kind != "series" || out.Name != in.Name || len(out.Labels) != 2 {
		t.Errorf("Load() = %s %+v, want series %+v", kind, out, in)
	}
}

func TestSaveIsContentAddressed(t *testing.T) {
	ctx, s := setup(t)
	a := Must(s.Save(ctx, "series", series{Name: "a"}))
	again := Must(s.Save(ctx, "series", series{Name: "a"}))
	b := Must(s.Save(ctx, "series", series{Name: "b"}))
	if a != again {
		t.Errorf("same content stored under %s and %s", a, again)
	}
	if a == b {
		t.Errorf("different content stored under the same key %s", a)
	}
	if a != cache.Key([]byte(`{"name":"a","labels":null}`)) {
		t.Errorf("key %s is not the hash of the json encoding", a)
	}
}

func TestLoadUnknownKey(t *testing.T) {
	ctx, s := setup(t)
	var out series
	if _, err := s.Load(ctx, "missing", &out); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestNewCreatesSchema(t *testing.T) {
	ctx := context.Background()
	db := Must(sql.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "cache.db")))
	t.Cleanup(func() { db.Close() })
	if _, err := cache.New(ctx, db); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'cache_entry'").Scan(&n); err != nil {
		t.Fatalf("querying schema: %v", err)
	}
	if n != 1 {
		t.Fatalf("cache_entry tables = %d, want 1", n)
	}
	// migrating an already migrated db keeps the table and its rows
	s := Must(cache.New(ctx, db))
	key := Must(s.Save(ctx, "series", series{Name: "kept"}))
	if _, err := cache.New(ctx, db); err != nil {
		t.Fatalf("New() on migrated db error = %v", err)
	}
	if _, _, err := s.Raw(ctx, key); err != nil {
		t.Errorf("Raw() after re-migrating error = %v", err)
	}
}
