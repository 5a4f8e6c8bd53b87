// Package postgres provides a Postgres-backed persistent store that mirrors the
// in-memory semantics while snapshotting every commit into a JSONB state table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"hbnb/internal/infra/persistence/memory"
	"hbnb/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/hbnb?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists state to Postgres while reusing the in-memory registry.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// Options tunes store construction.
type Options struct {
	// Reset truncates the state table on open instead of loading it.
	Reset bool
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back to
// defaultDSN), ensures the state table exists and hydrates the registry from
// any existing snapshot.
func NewStore(ctx context.Context, dsn string, opts Options) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureStateTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if opts.Reset {
		if _, err := db.ExecContext(ctx, `TRUNCATE TABLE state`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("reset state: %w", err)
		}
	}
	s := &Store{
		Store: memory.NewStore(memory.WithDefaults(domain.DefaultsNull)),
		db:    db,
	}
	if err := s.Reload(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

// Reload replaces the registry with the persisted snapshot.
func (s *Store) Reload(ctx context.Context) error {
	snapshot, err := loadSnapshot(ctx, s.db)
	if err != nil {
		return err
	}
	return s.ImportState(snapshot)
}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := memory.Snapshot{}
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		kind := domain.Kind(bucket)
		if len(payload) == 0 || !kind.Valid() {
			continue
		}
		var records map[string]domain.Attributes
		if err := json.Unmarshal(payload, &records); err != nil {
			return nil, fmt.Errorf("decode %s: %w", bucket, err)
		}
		snapshot[kind] = records
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate state: %w", err)
	}
	return snapshot, nil
}

// Commit snapshots every kind bucket to Postgres in a single transaction.
func (s *Store) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
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
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, string(kind), data); err != nil {
			return fmt.Errorf("upsert %s: %w", kind, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
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
