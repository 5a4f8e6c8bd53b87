package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"hbnb/pkg/domain"
)

func newAmenity(t *testing.T, name string) *domain.Amenity {
	t.Helper()
	a, err := domain.NewFactory(domain.DefaultsEmpty).NewAmenity(domain.AmenityFields{Name: domain.String(name)})
	if err != nil {
		t.Fatalf("NewAmenity: %v", err)
	}
	return a
}

func TestPutAllGetRemove(t *testing.T) {
	s := NewStore()
	a := newAmenity(t, "Wifi")
	city, err := domain.NewFactory(domain.DefaultsEmpty).NewCity(domain.CityFields{Name: domain.String("Austin")})
	if err != nil {
		t.Fatalf("NewCity: %v", err)
	}
	s.Put(a)
	s.Put(city)
	s.Put(nil)

	all := s.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	if all["Amenity."+a.ID()] != domain.Record(a) {
		t.Fatalf("expected registered instance to be returned as-is")
	}
	if only := s.All(domain.KindCity); len(only) != 1 {
		t.Fatalf("expected kind filter to return 1 city, got %d", len(only))
	}
	if got, ok := s.Get(domain.KindAmenity, a.ID()); !ok || got != domain.Record(a) {
		t.Fatalf("Get returned %v %v", got, ok)
	}
	if !s.Remove(domain.KindAmenity, a.ID()) {
		t.Fatalf("expected remove to succeed")
	}
	if s.Remove(domain.KindAmenity, a.ID()) {
		t.Fatalf("expected second remove to report missing")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := NewStore()
	a := newAmenity(t, "Pool")
	src.Put(a)
	snapshot := src.ExportState()
	if snapshot.Len() != 1 {
		t.Fatalf("expected 1 exported record, got %d", snapshot.Len())
	}

	dst := NewStore()
	if err := dst.ImportState(snapshot); err != nil {
		t.Fatalf("ImportState: %v", err)
	}
	got, ok := dst.Get(domain.KindAmenity, a.ID())
	if !ok {
		t.Fatalf("expected imported amenity")
	}
	if got == domain.Record(a) {
		t.Fatalf("expected a decoded copy, not the source instance")
	}
	if got.String() != a.String() {
		t.Fatalf("round trip mismatch:\n%s\n%s", got.String(), a.String())
	}
}

func TestImportStateFillsMissingTagAndID(t *testing.T) {
	s := NewStore()
	snapshot := Snapshot{domain.KindState: {"s-1": {"name": "Texas", "created_at": "2024-01-02T03:04:05.000006"}}}
	if err := s.ImportState(snapshot); err != nil {
		t.Fatalf("ImportState: %v", err)
	}
	got, ok := s.Get(domain.KindState, "s-1")
	if !ok {
		t.Fatalf("expected state s-1, got %v", s.All())
	}
	if want := time.Date(2024, 1, 2, 3, 4, 5, 6000, time.UTC); !got.Meta().CreatedAt.Equal(want) {
		t.Fatalf("created_at = %v, want %v", got.Meta().CreatedAt, want)
	}
}

func TestImportStateKeepsPreviousStateOnError(t *testing.T) {
	s := NewStore()
	a := newAmenity(t, "Gym")
	s.Put(a)
	bad := Snapshot{domain.KindAmenity: {"x": {"created_at": "yesterday"}}}
	err := s.ImportState(bad)
	if !errors.Is(err, domain.ErrTimestampFormat) {
		t.Fatalf("expected timestamp format error, got %v", err)
	}
	if _, ok := s.Get(domain.KindAmenity, a.ID()); !ok {
		t.Fatalf("expected previous state to survive failed import")
	}
}

func TestDefaultsAndNoopLifecycle(t *testing.T) {
	s := NewStore(WithDefaults(domain.DefaultsNull))
	if s.Defaults() != domain.DefaultsNull {
		t.Fatalf("expected null defaults")
	}
	ctx := context.Background()
	if err := s.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	s.Put(newAmenity(t, "Spa"))
	s.Reset()
	if len(s.All()) != 0 {
		t.Fatalf("expected reset to clear records")
	}
}

func TestPutIgnoresRecordsWithoutIdentity(t *testing.T) {
	s := NewStore()
	s.Put(&domain.Amenity{Name: domain.String("Pool")})
	if len(s.All()) != 0 {
		t.Fatalf("expected record without id to be ignored, got %v", s.All())
	}
	if snapshot := s.ExportState(); snapshot.Len() != 0 {
		t.Fatalf("expected nothing to export, got %v", snapshot)
	}
}

func TestImportStateRejectsEmptyOrMismatchedID(t *testing.T) {
	cases := map[string]Snapshot{
		"empty key":  {domain.KindAmenity: {"": {"name": "Pool"}}},
		"empty id":   {domain.KindAmenity: {"a-1": {"id": "", "name": "Pool"}}},
		"mismatched": {domain.KindAmenity: {"a-1": {"id": "a-2", "name": "Pool"}}},
		"non-string": {domain.KindAmenity: {"a-1": {"id": 7, "name": "Pool"}}},
	}
	for name, snapshot := range cases {
		t.Run(name, func(t *testing.T) {
			s := NewStore()
			if err := s.ImportState(snapshot); !errors.Is(err, domain.ErrInvalidRecord) {
				t.Fatalf("expected ErrInvalidRecord, got %v", err)
			}
			if len(s.All()) != 0 {
				t.Fatalf("expected nothing imported, got %v", s.All())
			}
		})
	}
}
