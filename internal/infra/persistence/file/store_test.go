package file

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	json "github.com/goccy/go-json"

	"hbnb/internal/blob"
	"hbnb/pkg/domain"
)

func openStore(t *testing.T, blobs blob.Store) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), blobs, "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func readBlob(t *testing.T, blobs blob.Store, key string) map[string]map[string]any {
	t.Helper()
	_, rc, err := blobs.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get blob: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	var out map[string]map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode blob: %v", err)
	}
	return out
}

func TestMissingBlobStartsEmpty(t *testing.T) {
	s := openStore(t, blob.NewMemory())
	if s.Key() != DefaultKey {
		t.Fatalf("expected default key, got %s", s.Key())
	}
	if got := len(s.All()); got != 0 {
		t.Fatalf("expected empty registry, got %d", got)
	}
	if s.Defaults() != domain.DefaultsEmpty {
		t.Fatalf("expected empty defaults, got %s", s.Defaults())
	}
}

func TestCommitWritesFlatObjectAndReloads(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	s := openStore(t, blobs)
	f := domain.NewFactory(s.Defaults())
	am, err := f.NewAmenity(domain.AmenityFields{BaseFields: domain.BaseFields{ID: "a1"}, Name: domain.String("Pool")})
	if err != nil {
		t.Fatalf("NewAmenity: %v", err)
	}
	pl, err := f.NewPlace(domain.PlaceFields{BaseFields: domain.BaseFields{ID: "p1"}, NumberRooms: 3, Latitude: 1.5})
	if err != nil {
		t.Fatalf("NewPlace: %v", err)
	}
	pl.AddAmenity(am)
	s.Put(am)
	s.Put(pl)
	if err := s.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	raw := readBlob(t, blobs, DefaultKey)
	if len(raw) != 2 {
		t.Fatalf("expected 2 entries, got %v", raw)
	}
	if raw["Amenity.a1"]["__class__"] != "Amenity" || raw["Amenity.a1"]["name"] != "Pool" {
		t.Fatalf("unexpected amenity entry %v", raw["Amenity.a1"])
	}
	if raw["Place.p1"]["description"] != "" {
		t.Fatalf("expected empty default description, got %v", raw["Place.p1"]["description"])
	}

	reopened := openStore(t, blobs)
	got, ok := reopened.Get(domain.KindPlace, "p1")
	if !ok {
		t.Fatalf("expected place after reload")
	}
	place := got.(*domain.Place)
	if place.NumberRooms != 3 || place.Latitude != 1.5 || len(place.AmenityIDs) != 1 || place.AmenityIDs[0] != "a1" {
		t.Fatalf("unexpected reloaded place %+v", place)
	}
	if !place.UpdatedAt.Equal(pl.UpdatedAt) || !place.CreatedAt.Equal(pl.CreatedAt) {
		t.Fatalf("timestamps not preserved: %v %v", place.Meta(), pl.Meta())
	}
}

func TestReloadDiscardsUncommitted(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, blob.NewMemory())
	st, err := domain.NewFactory(s.Defaults()).NewState(domain.StateFields{Name: domain.String("CA")})
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	s.Put(st)
	if err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if len(s.All()) != 0 {
		t.Fatalf("expected uncommitted record to be dropped")
	}
}

func TestReloadErrors(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"invalid json":  "{",
		"malformed key": `{"noseparator":{}}`,
		"unknown kind":  `{"Widget.1":{}}`,
		"bad timestamp": `{"State.1":{"__class__":"State","created_at":"yesterday"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			blobs := blob.NewMemory()
			if _, err := blobs.Put(ctx, DefaultKey, bytes.NewReader([]byte(body)), blob.PutOptions{}); err != nil {
				t.Fatalf("seed: %v", err)
			}
			if _, err := NewStore(ctx, blobs, ""); err == nil {
				t.Fatalf("expected reload error")
			}
		})
	}
}

func TestReloadUsesKeyPrefixWithoutTag(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	body := `{"User.u1":{"email":"a@b.c","created_at":"2017-09-28T21:03:54.052298","updated_at":"2017-09-28T21:03:54.052302"}}`
	if _, err := blobs.Put(ctx, "custom.json", bytes.NewReader([]byte(body)), blob.PutOptions{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := NewStore(ctx, blobs, "custom.json")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	rec, ok := s.Get(domain.KindUser, "u1")
	if !ok {
		t.Fatalf("expected user u1")
	}
	if u := rec.(*domain.User); domain.Deref(u.Email) != "a@b.c" || domain.Deref(u.FirstName) != "" {
		t.Fatalf("unexpected user %+v", u)
	}
}

type failingBlobs struct{ blob.Store }

func (failingBlobs) Get(context.Context, string) (blob.Info, io.ReadCloser, error) {
	return blob.Info{}, nil, errors.New("unavailable")
}

func TestNewStoreErrors(t *testing.T) {
	if _, err := NewStore(context.Background(), nil, ""); err == nil {
		t.Fatalf("expected nil blob store error")
	}
	if _, err := NewStore(context.Background(), failingBlobs{blob.NewMemory()}, ""); err == nil {
		t.Fatalf("expected read error")
	}
}
