package domain

import "context"

// PersistentStore is the contract every storage backend implements. Records
// are keyed by "<Kind>.<id>"; the store keeps the instances it is handed so
// that listings return the same values callers registered.
type PersistentStore interface {
	// All returns every registered record, optionally restricted to kinds.
	All(kinds ...Kind) map[string]Record
	// Get returns the record registered under kind and id.
	Get(kind Kind, id string) (Record, bool)
	// Put registers rec, replacing any record under the same key.
	Put(rec Record)
	// Remove unregisters the record under kind and id, reporting whether it existed.
	Remove(kind Kind, id string) bool
	// Commit flushes the registered records to the backing store.
	Commit(ctx context.Context) error
	// Reload replaces the registered records with the backing store contents.
	Reload(ctx context.Context) error
	// Close releases backend resources.
	Close() error
	// Defaults reports how unset optional fields are populated for this backend.
	Defaults() DefaultMode
}
