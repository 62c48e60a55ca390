// Package cache stores serialized results keyed by a hash of their content.
package cache

import (
	"context"
	"crypto/sha512"
	"database/sql"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/SimonSchneider/goslu/migrate"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrNotFound = errors.New("cache entry not found")

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the sqlite database at conn and migrates the cache schema.
// It relies on the sqlite3 driver being registered by the caller.
func Open(ctx context.Context, conn string) (*Store, error) {
	db, err := sql.Open("sqlite3", conn)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	s, err := New(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New migrates db and wraps it.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to get migrations: %w", err)
	}
	if err := migrate.Migrate(ctx, sub, db); err != nil {
		return nil, fmt.Errorf("failed to migrate db: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Key is the hex encoded SHA-512 of the serialized value.
func Key(serialized []byte) string {
	sum := sha512.Sum512(serialized)
	return hex.EncodeToString(sum[:])
}

// Save serializes v as json and stores it under the hash of the bytes.
// Saving the same content twice keeps the first entry.
func (s *Store) Save(ctx context.Context, kind string, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("serializing %s: %w", kind, err)
	}
	key := Key(b)
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO cache_entry (key, kind, value, created_at) VALUES (?, ?, ?, ?)",
		key, kind, b, s.now().UnixMilli()); err != nil {
		return "", fmt.Errorf("saving %s %s: %w", kind, key, err)
	}
	return key, nil
}

// Raw returns the stored kind and bytes for key.
func (s *Store) Raw(ctx context.Context, key string) (string, []byte, error) {
	var (
		kind  string
		value []byte
	)
	err := s.db.QueryRowContext(ctx, "SELECT kind, value FROM cache_entry WHERE key = ?", key).Scan(&kind, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	} else if err != nil {
		return "", nil, fmt.Errorf("loading %s: %w", key, err)
	}
	return kind, value, nil
}

// Load decodes the entry stored under key into dst and returns its kind.
func (s *Store) Load(ctx context.Context, key string, dst any) (string, error) {
	kind, value, err := s.Raw(ctx, key)
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(value, dst); err != nil {
		return kind, fmt.Errorf("decoding %s %s: %w", kind, key, err)
	}
	return kind, nil
}
