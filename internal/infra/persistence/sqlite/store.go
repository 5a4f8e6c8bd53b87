// Package sqlite persists the record registry to an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"hbnb/internal/infra/persistence/memory"
	"hbnb/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

const defaultPath = "hbnb.db"

// Store persists the in-memory registry to a single SQLite table, one JSON
// payload per kind. It snapshots the full registry on every commit.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// Options tunes store construction.
type Options struct {
	// Reset drops any persisted state on open instead of loading it.
	Reset bool
}

// NewStore opens (or creates) the database at path and hydrates the registry
// from it. Unset optional fields default to null, as in a relational schema.
func NewStore(ctx context.Context, path string, opts Options) (*Store, error) {
	if path == "" {
		path = defaultPath
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
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	if opts.Reset {
		if _, err := db.ExecContext(ctx, `DELETE FROM state`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("reset state: %w", err)
		}
	}
	s := &Store{
		Store: memory.NewStore(memory.WithDefaults(domain.DefaultsNull)),
		db:    db,
		path:  path,
	}
	if err := s.Reload(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Reload replaces the registry with the persisted snapshot.
func (s *Store) Reload(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	snapshot := memory.Snapshot{}
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		kind := domain.Kind(bucket)
		if !kind.Valid() || len(payload) == 0 {
			continue
		}
		var records map[string]domain.Attributes
		if err := json.Unmarshal(payload, &records); err != nil {
			return fmt.Errorf("decode %s: %w", bucket, err)
		}
		snapshot[kind] = records
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	return s.ImportState(snapshot)
}

// Commit snapshots the registry into the state table in one transaction.
func (s *Store) Commit(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, kind := range domain.Kinds() {
		records := snapshot[kind]
		if records == nil {
			records = map[string]domain.Attributes{}
		}
		data, err := json.Marshal(records)
		if err != nil {
			return fmt.Errorf("encode %s: %w", kind, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, string(kind), data); err != nil {
			return fmt.Errorf("upsert %s: %w", kind, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
