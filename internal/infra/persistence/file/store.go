// Package file persists the record registry as a single JSON object stored in
// a blob store, keyed by "<Kind>.<id>".
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"hbnb/internal/blob"
	"hbnb/internal/infra/persistence/memory"
	"hbnb/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

// DefaultKey is the blob key used when none is configured.
const DefaultKey = "file.json"

// Store keeps records in memory and writes the full registry to one blob on
// every commit. Unset optional fields default to the empty string.
type Store struct {
	*memory.Store
	blobs blob.Store
	key   string
	mu    sync.Mutex
}

// NewStore wraps blobs and hydrates the registry from key, which may not
// exist yet.
func NewStore(ctx context.Context, blobs blob.Store, key string) (*Store, error) {
	if blobs == nil {
		return nil, errors.New("file store requires a blob store")
	}
	if key == "" {
		key = DefaultKey
	}
	s := &Store{
		Store: memory.NewStore(memory.WithDefaults(domain.DefaultsEmpty)),
		blobs: blobs,
		key:   key,
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Key returns the blob key the registry is written to.
func (s *Store) Key() string { return s.key }

// Reload replaces the registry with the content of the blob. A missing blob
// yields an empty registry.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, rc, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, blob.ErrNotFound) {
		return s.ImportState(memory.Snapshot{})
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.key, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read %s: %w", s.key, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return s.ImportState(memory.Snapshot{})
	}
	var flat map[string]domain.Attributes
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("decode %s: %w", s.key, err)
	}
	snapshot, err := bucket(flat)
	if err != nil {
		return err
	}
	return s.ImportState(snapshot)
}

// Commit writes the registry to the blob, replacing previous content.
func (s *Store) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	flat := make(map[string]domain.Attributes)
	for kind, records := range s.ExportState() {
		for id, attrs := range records {
			flat[domain.KeyFor(kind, id)] = attrs
		}
	}
	data, err := json.Marshal(flat)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	if _, err := s.blobs.Put(ctx, s.key, bytes.NewReader(data), blob.PutOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("write %s: %w", s.key, err)
	}
	return nil
}

// bucket groups a flat "<Kind>.<id>" object by kind. The kind comes from the
// class tag when present and from the key prefix otherwise.
func bucket(flat map[string]domain.Attributes) (memory.Snapshot, error) {
	snapshot := memory.Snapshot{}
	for key, attrs := range flat {
		kind, id, err := splitKey(key)
		if err != nil {
			return nil, err
		}
		if tag, ok := attrs[domain.ClassKey].(string); ok && tag != "" {
			kind = domain.Kind(tag)
		}
		if !kind.Valid() {
			return nil, fmt.Errorf("key %q: %w", key, domain.ErrUnknownKind)
		}
		if snapshot[kind] == nil {
			snapshot[kind] = make(map[string]domain.Attributes)
		}
		snapshot[kind][id] = attrs
	}
	return snapshot, nil
}

func splitKey(key string) (domain.Kind, string, error) {
	kind, id, ok := strings.Cut(key, ".")
	if !ok || kind == "" || id == "" {
		return "", "", fmt.Errorf("malformed key %q", key)
	}
	return domain.Kind(kind), id, nil
}
