package core

import (
	"context"
	"fmt"
	"time"

	"hbnb/internal/blob"
	"hbnb/internal/config"
	"hbnb/internal/infra/persistence/file"
	"hbnb/internal/infra/persistence/memory"
	"hbnb/internal/infra/persistence/postgres"
	"hbnb/internal/infra/persistence/sqlite"
	"hbnb/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageFile     StorageDriver = "file"     // JSON object in a blob store
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// Storage is the registry of records shared by a process. It is opened once
// at startup, passed explicitly to whatever needs persistence and closed at
// shutdown.
type Storage struct {
	store   domain.PersistentStore
	driver  StorageDriver
	clock   Clock
	newID   func() string
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
}

// NewStorage wraps an already opened backend.
func NewStorage(store domain.PersistentStore, driver StorageDriver, opts ...Option) *Storage {
	s := &Storage{
		store:   store,
		driver:  driver,
		clock:   ClockFunc(nil),
		logger:  noopLogger{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenStorage selects and opens a backend from cfg, loading any persisted
// records. The load is observed as the "open" operation.
func OpenStorage(ctx context.Context, cfg config.Config, opts ...Option) (*Storage, error) {
	s := NewStorage(nil, "", opts...)
	err := s.run(ctx, "open", func(ctx context.Context) error {
		store, driver, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		s.store, s.driver = store, driver
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("storage opened", "driver", string(s.driver), "defaults", s.store.Defaults().String(), "records", len(s.store.All()))
	return s, nil
}

func openBackend(ctx context.Context, cfg config.Config) (domain.PersistentStore, StorageDriver, error) {
	switch cfg.StorageType {
	case "", config.StorageMemory:
		return memory.NewStore(), StorageMemory, nil
	case config.StorageFile:
		blobs, err := blob.Open(ctx, blob.Config{
			Driver: blob.Driver(cfg.Blob.Driver),
			FSRoot: cfg.Blob.FSRoot,
			S3: blob.S3Config{
				Bucket:    cfg.Blob.S3Bucket,
				Region:    cfg.Blob.S3Region,
				Endpoint:  cfg.Blob.S3Endpoint,
				PathStyle: cfg.Blob.S3PathStyle,
			},
		})
		if err != nil {
			return nil, "", fmt.Errorf("open blob store: %w", err)
		}
		store, err := file.NewStore(ctx, blobs, cfg.FileKey)
		if err != nil {
			return nil, "", err
		}
		return store, StorageFile, nil
	case config.StorageDB:
		switch cfg.DBDriver {
		case "", config.DriverSQLite:
			store, err := sqlite.NewStore(ctx, cfg.SQLitePath, sqlite.Options{Reset: cfg.Testing()})
			if err != nil {
				return nil, "", err
			}
			return store, StorageSQLite, nil
		case config.DriverPostgres:
			store, err := postgres.NewStore(ctx, cfg.PostgresDSN, postgres.Options{Reset: cfg.Testing()})
			if err != nil {
				return nil, "", err
			}
			return store, StoragePostgres, nil
		default:
			return nil, "", fmt.Errorf("unknown db driver %s", cfg.DBDriver)
		}
	default:
		return nil, "", fmt.Errorf("unknown storage type %s", cfg.StorageType)
	}
}

// Driver reports the backend in use.
func (s *Storage) Driver() StorageDriver { return s.driver }

// Factory returns a record factory carrying the backend default mode and the
// storage clock.
func (s *Storage) Factory() domain.Factory {
	f := domain.NewFactory(s.store.Defaults())
	f.Now = s.clock.Now
	f.NewID = s.newID
	return f
}

// All returns the registered records keyed by "<Kind>.<id>", optionally
// restricted to kinds.
func (s *Storage) All(kinds ...domain.Kind) map[string]domain.Record {
	return s.store.All(kinds...)
}

// Count returns the number of registered records of kinds (all when empty).
func (s *Storage) Count(kinds ...domain.Kind) int {
	return len(s.store.All(kinds...))
}

// Get returns the record registered under kind and id.
func (s *Storage) Get(kind domain.Kind, id string) (domain.Record, error) {
	rec, ok := s.store.Get(kind, id)
	if !ok {
		return nil, domain.NotFoundError{Kind: kind, ID: id}
	}
	return rec, nil
}

// New registers rec without persisting it.
func (s *Storage) New(rec domain.Record) error {
	if err := checkRecord(rec); err != nil {
		return err
	}
	s.store.Put(rec)
	return nil
}

func checkRecord(rec domain.Record) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", domain.ErrInvalidRecord)
	}
	if err := rec.Meta().Validate(); err != nil {
		return fmt.Errorf("%s: %w", rec.Kind(), err)
	}
	return nil
}

// Save refreshes the update timestamp of rec, registers it and persists the
// registry.
func (s *Storage) Save(ctx context.Context, rec domain.Record) error {
	if err := checkRecord(rec); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return s.run(ctx, "save", func(ctx context.Context) error {
		rec.Touch(s.clock.Now())
		s.store.Put(rec)
		if err := s.store.Commit(ctx); err != nil {
			return fmt.Errorf("save %s: %w", domain.Key(rec), err)
		}
		s.logger.Debug("record saved", "key", domain.Key(rec), "updated_at", domain.FormatTime(rec.Meta().UpdatedAt))
		return nil
	})
}

// Commit persists the registry as it stands.
func (s *Storage) Commit(ctx context.Context) error {
	return s.run(ctx, "commit", s.store.Commit)
}

// Delete unregisters rec and persists the registry. A nil rec is a no-op.
func (s *Storage) Delete(ctx context.Context, rec domain.Record) error {
	if rec == nil {
		return nil
	}
	return s.run(ctx, "delete", func(ctx context.Context) error {
		if !s.store.Remove(rec.Kind(), rec.Meta().ID()) {
			return domain.NotFoundError{Kind: rec.Kind(), ID: rec.Meta().ID()}
		}
		if err := s.store.Commit(ctx); err != nil {
			return fmt.Errorf("delete %s: %w", domain.Key(rec), err)
		}
		return nil
	})
}

// Reload replaces the registry with the backing store contents.
func (s *Storage) Reload(ctx context.Context) error {
	return s.run(ctx, "reload", s.store.Reload)
}

// Close releases the backend.
func (s *Storage) Close() error {
	if err := s.store.Close(); err != nil {
		s.logger.Error("storage close failed", "driver", string(s.driver), "error", err)
		return err
	}
	s.logger.Info("storage closed", "driver", string(s.driver))
	return nil
}

func (s *Storage) run(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	started := time.Now()
	err := fn(ctx)
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	span.End(err)
	if err != nil {
		s.logger.Warn("storage operation failed", "op", op, "driver", string(s.driver), "error", err)
		return err
	}
	s.reportObjects()
	return nil
}

type objectReporter interface {
	SetObjects(kind domain.Kind, n int)
}

func (s *Storage) reportObjects() {
	reporter, ok := s.metrics.(objectReporter)
	if !ok {
		return
	}
	counts := make(map[domain.Kind]int, len(domain.Kinds()))
	for _, rec := range s.store.All() {
		counts[rec.Kind()]++
	}
	for _, kind := range domain.Kinds() {
		reporter.SetObjects(kind, counts[kind])
	}
}
