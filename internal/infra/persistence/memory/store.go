// Package memory provides the in-memory record registry. It is the default
// backend and the state holder the durable backends build on.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"hbnb/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

// Snapshot captures the serialized registry state, bucketed by kind and keyed
// by record id.
type Snapshot map[domain.Kind]map[string]domain.Attributes

// Len returns the number of records across all buckets.
func (s Snapshot) Len() int {
	n := 0
	for _, bucket := range s {
		n += len(bucket)
	}
	return n
}

// Store keeps records in a map keyed by "<Kind>.<id>".
type Store struct {
	mu       sync.RWMutex
	records  map[string]domain.Record
	defaults domain.DefaultMode
}

// Option configures a Store.
type Option func(*Store)

// WithDefaults sets the default mode reported to factories and used when
// decoding imported snapshots.
func WithDefaults(mode domain.DefaultMode) Option {
	return func(s *Store) { s.defaults = mode }
}

// NewStore constructs an empty in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{records: make(map[string]domain.Record)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults reports the configured default mode.
func (s *Store) Defaults() domain.DefaultMode { return s.defaults }

// All returns the registered records, optionally restricted to kinds. The
// returned map is a fresh copy; the records are the registered instances.
func (s *Store) All(kinds ...domain.Kind) map[string]domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Record, len(s.records))
	for key, rec := range s.records {
		if matchesKind(rec.Kind(), kinds) {
			out[key] = rec
		}
	}
	return out
}

func matchesKind(kind domain.Kind, kinds []domain.Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Get retrieves a record by kind and id.
func (s *Store) Get(kind domain.Kind, id string) (domain.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[domain.KeyFor(kind, id)]
	return rec, ok
}

// Put registers rec under its key. Records without an id or creation time
// are ignored.
func (s *Store) Put(rec domain.Record) {
	if rec == nil || rec.Meta().Validate() != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[domain.Key(rec)] = rec
}

// Remove unregisters a record, reporting whether it was present.
func (s *Store) Remove(kind domain.Kind, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := domain.KeyFor(kind, id)
	if _, ok := s.records[key]; !ok {
		return false
	}
	delete(s.records, key)
	return true
}

// Commit is a no-op: memory has no backing store.
func (s *Store) Commit(context.Context) error { return nil }

// Reload is a no-op: memory has no backing store to reload from.
func (s *Store) Reload(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Reset drops every registered record.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]domain.Record)
}

// ExportState serializes the current records for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(Snapshot)
	for _, rec := range s.records {
		bucket, ok := snapshot[rec.Kind()]
		if !ok {
			bucket = make(map[string]domain.Attributes)
			snapshot[rec.Kind()] = bucket
		}
		bucket[rec.Meta().ID()] = rec.Serialize()
	}
	return snapshot
}

// ImportState replaces the registry with the records decoded from snapshot.
// Nothing is replaced when any record fails to decode.
func (s *Store) ImportState(snapshot Snapshot) error {
	factory := domain.NewFactory(s.defaults)
	records := make(map[string]domain.Record, snapshot.Len())
	kinds := make([]domain.Kind, 0, len(snapshot))
	for kind := range snapshot {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, kind := range kinds {
		bucket := snapshot[kind]
		ids := make([]string, 0, len(bucket))
		for id := range bucket {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			rec, err := decode(factory, kind, id, bucket[id])
			if err != nil {
				return err
			}
			records[domain.Key(rec)] = rec
		}
	}
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}

func decode(factory domain.Factory, kind domain.Kind, id string, attrs domain.Attributes) (domain.Record, error) {
	withTag := make(domain.Attributes, len(attrs)+2)
	for k, v := range attrs {
		withTag[k] = v
	}
	if _, ok := withTag[domain.ClassKey]; !ok {
		withTag[domain.ClassKey] = string(kind)
	}
	if _, ok := withTag["id"]; !ok {
		withTag["id"] = id
	}
	if v, _ := withTag["id"].(string); v == "" || v != id {
		return nil, fmt.Errorf("decode %s.%s: %w: id %v does not match key", kind, id, domain.ErrInvalidRecord, withTag["id"])
	}
	rec, err := factory.FromAttributes(withTag)
	if err != nil {
		return nil, fmt.Errorf("decode %s.%s: %w", kind, id, err)
	}
	return rec, nil
}
