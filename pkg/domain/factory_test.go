package domain

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2017, 9, 28, 21, 3, 54, 52298000, time.UTC)

func fixedFactory(mode DefaultMode) Factory {
	f := NewFactory(mode)
	f.Now = func() time.Time { return fixedNow }
	return f
}

func TestNewAmenityGeneratesIdentity(t *testing.T) {
	f := NewFactory(DefaultsEmpty)
	a, err := f.NewAmenity(AmenityFields{Name: String("Pool")})
	if err != nil {
		t.Fatalf("NewAmenity: %v", err)
	}
	b, err := f.NewAmenity(AmenityFields{})
	if err != nil {
		t.Fatalf("NewAmenity: %v", err)
	}

	if a.ID() == "" || a.ID() == b.ID() {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a.ID(), b.ID())
	}
	if Deref(a.Name) != "Pool" {
		t.Fatalf("name = %q, want Pool", Deref(a.Name))
	}
	if !a.CreatedAt.Equal(a.UpdatedAt) {
		t.Fatalf("expected equal timestamps on construction, got %v and %v", a.CreatedAt, a.UpdatedAt)
	}
	if a.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamps, got %v", a.CreatedAt.Location())
	}
	if err := a.Meta().Validate(); err != nil {
		t.Fatalf("factory-built record should validate: %v", err)
	}
}

func TestRecordWithoutFactoryIsInvalid(t *testing.T) {
	bare := &Amenity{Name: String("Pool")}
	if bare.ID() != "" {
		t.Fatalf("expected empty id on a struct literal, got %q", bare.ID())
	}
	if err := bare.Meta().Validate(); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}

	noCreated := &Amenity{Base: Base{id: "a1"}}
	if err := noCreated.Meta().Validate(); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord for zero created_at, got %v", err)
	}
}

func TestFactoryDefaultModes(t *testing.T) {
	empty, err := NewFactory(DefaultsEmpty).NewUser(UserFields{Email: String("a@b.c")})
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	if empty.FirstName == nil || *empty.FirstName != "" {
		t.Fatalf("expected empty first_name, got %v", empty.FirstName)
	}

	null, err := NewFactory(DefaultsNull).NewUser(UserFields{Email: String("a@b.c")})
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	if null.FirstName != nil {
		t.Fatalf("expected nil first_name, got %q", *null.FirstName)
	}
	if Deref(null.Email) != "a@b.c" {
		t.Fatalf("email = %q", Deref(null.Email))
	}

	if DefaultsEmpty.String() != "empty" || DefaultsNull.String() != "null" {
		t.Fatalf("unexpected mode names %s %s", DefaultsEmpty, DefaultsNull)
	}
}

func TestFactoryCopiesInputs(t *testing.T) {
	name := "Loft"
	ids := []string{"a1"}
	p, err := NewFactory(DefaultsEmpty).NewPlace(PlaceFields{Name: &name, AmenityIDs: ids})
	if err != nil {
		t.Fatalf("NewPlace: %v", err)
	}
	name = "changed"
	ids[0] = "changed"
	if Deref(p.Name) != "Loft" || !reflect.DeepEqual(p.AmenityIDs, []string{"a1"}) {
		t.Fatalf("place shares caller memory: %q %v", Deref(p.Name), p.AmenityIDs)
	}

	empty, err := NewFactory(DefaultsEmpty).NewPlace(PlaceFields{})
	if err != nil {
		t.Fatalf("NewPlace: %v", err)
	}
	if empty.AmenityIDs == nil || len(empty.AmenityIDs) != 0 {
		t.Fatalf("expected empty non-nil amenity_ids, got %#v", empty.AmenityIDs)
	}
}

func TestFactoryTimestamps(t *testing.T) {
	f := fixedFactory(DefaultsEmpty)

	both, err := f.NewState(StateFields{BaseFields: BaseFields{
		ID:        "s1",
		CreatedAt: "2017-09-28T21:03:54.052298",
		UpdatedAt: "2017-09-28T21:05:00.000001",
	}})
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if both.ID() != "s1" {
		t.Fatalf("id = %q, want s1", both.ID())
	}
	if got := FormatTime(both.CreatedAt); got != "2017-09-28T21:03:54.052298" {
		t.Fatalf("created_at = %s", got)
	}
	if got := FormatTime(both.UpdatedAt); got != "2017-09-28T21:05:00.000001" {
		t.Fatalf("updated_at = %s", got)
	}

	wholeSecond, err := f.NewState(StateFields{BaseFields: BaseFields{CreatedAt: "2017-09-28T21:03:54"}})
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if got := FormatTime(wholeSecond.CreatedAt); got != "2017-09-28T21:03:54.000000" {
		t.Fatalf("created_at = %s", got)
	}
	if !wholeSecond.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("updated_at should follow the clock when only created_at is given, got %v", wholeSecond.UpdatedAt)
	}

	future, err := f.NewState(StateFields{BaseFields: BaseFields{CreatedAt: "2030-01-01T00:00:00.000000"}})
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if !future.UpdatedAt.Equal(future.CreatedAt) {
		t.Fatalf("updated_at must not precede created_at, got %v < %v", future.UpdatedAt, future.CreatedAt)
	}

	past, err := f.NewState(StateFields{BaseFields: BaseFields{UpdatedAt: "2001-01-01T00:00:00.000000"}})
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if !past.CreatedAt.Equal(past.UpdatedAt) {
		t.Fatalf("created_at should clamp to updated_at, got %v and %v", past.CreatedAt, past.UpdatedAt)
	}
}

func TestFactoryRejectsBadTimestamps(t *testing.T) {
	f := NewFactory(DefaultsEmpty)

	_, err := f.NewCity(CityFields{BaseFields: BaseFields{CreatedAt: "28/09/2017"}})
	if !errors.Is(err, ErrTimestampFormat) {
		t.Fatalf("expected ErrTimestampFormat, got %v", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Kind != KindCity || fe.Field != "created_at" {
		t.Fatalf("expected City.created_at field error, got %#v", err)
	}
	if !strings.Contains(err.Error(), "City.created_at") {
		t.Fatalf("error message should name the field: %v", err)
	}

	if _, err := f.NewCity(CityFields{BaseFields: BaseFields{UpdatedAt: "not a time"}}); !errors.Is(err, ErrTimestampFormat) {
		t.Fatalf("expected ErrTimestampFormat, got %v", err)
	}

	_, err = f.NewCity(CityFields{BaseFields: BaseFields{
		CreatedAt: "2017-09-28T21:03:54.000002",
		UpdatedAt: "2017-09-28T21:03:54.000001",
	}})
	if !errors.Is(err, ErrTimestampOrder) {
		t.Fatalf("expected ErrTimestampOrder, got %v", err)
	}
}

func TestFromAttributesRoundTrip(t *testing.T) {
	f := fixedFactory(DefaultsNull)
	place, err := f.NewPlace(PlaceFields{
		CityID:         String("c1"),
		UserID:         String("u1"),
		Name:           String("Loft"),
		NumberRooms:    2,
		NumberBathroom: 1,
		MaxGuest:       4,
		PriceByNight:   120,
		Latitude:       37.77,
		Longitude:      -122.41,
		AmenityIDs:     []string{"a1", "a2"},
	})
	if err != nil {
		t.Fatalf("NewPlace: %v", err)
	}

	records := []Record{place}
	for _, build := range []func() (Record, error){
		func() (Record, error) { return f.NewAmenity(AmenityFields{Name: String("Wifi")}) },
		func() (Record, error) { return f.NewState(StateFields{Name: String("CA")}) },
		func() (Record, error) { return f.NewCity(CityFields{StateID: String("s1"), Name: String("SF")}) },
		func() (Record, error) {
			return f.NewUser(UserFields{Email: String("a@b.c"), Password: String("pw"), LastName: String("Doe")})
		},
		func() (Record, error) {
			return f.NewReview(ReviewFields{PlaceID: String("p1"), UserID: String("u1"), Text: String("Great")})
		},
	} {
		rec, err := build()
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		records = append(records, rec)
	}

	for _, rec := range records {
		t.Run(string(rec.Kind()), func(t *testing.T) {
			got, err := f.FromAttributes(rec.Serialize())
			if err != nil {
				t.Fatalf("FromAttributes: %v", err)
			}
			if !reflect.DeepEqual(rec, got) {
				t.Fatalf("round trip mismatch:\n got: %#v\nwant: %#v", got, rec)
			}
			if got.String() != rec.String() {
				t.Fatalf("String mismatch:\n got: %s\nwant: %s", got, rec)
			}
		})
	}
}

func TestFromAttributesAcceptsDecodedJSONShapes(t *testing.T) {
	f := NewFactory(DefaultsEmpty)
	rec, err := f.FromAttributes(Attributes{
		ClassKey:           "Place",
		"id":               "p1",
		"created_at":       "2017-09-28T21:03:54.052298",
		"updated_at":       "2017-09-28T21:03:54.052302",
		"number_rooms":     float64(3),
		"latitude":         int64(2),
		"amenity_ids":      []any{"a1"},
		"description":      nil,
		"unrecognised_key": "ignored",
	})
	if err != nil {
		t.Fatalf("FromAttributes: %v", err)
	}
	p := rec.(*Place)
	if p.NumberRooms != 3 || p.Latitude != 2.0 {
		t.Fatalf("unexpected numbers rooms=%d latitude=%v", p.NumberRooms, p.Latitude)
	}
	if !reflect.DeepEqual(p.AmenityIDs, []string{"a1"}) {
		t.Fatalf("amenity_ids = %v", p.AmenityIDs)
	}
	if Deref(p.Description) != "" {
		t.Fatalf("description = %q", Deref(p.Description))
	}
}

func TestFromAttributesErrors(t *testing.T) {
	f := NewFactory(DefaultsEmpty)
	badOrder := Attributes{
		ClassKey:     "State",
		"created_at": "2017-09-28T21:03:54.000002",
		"updated_at": "2017-09-28T21:03:54.000001",
	}
	cases := map[string]struct {
		attrs Attributes
		want  error
	}{
		"missing tag":   {Attributes{"id": "1"}, ErrUnknownKind},
		"unknown tag":   {Attributes{ClassKey: "Widget"}, ErrUnknownKind},
		"bad timestamp": {Attributes{ClassKey: "State", "created_at": "yesterday"}, ErrTimestampFormat},
		"bad order":     {badOrder, ErrTimestampOrder},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := f.FromAttributes(tc.attrs); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	typeErrors := []Attributes{
		{ClassKey: "State", "created_at": 42},
		{ClassKey: "Place", "number_rooms": "three"},
		{ClassKey: "Place", "latitude": "north"},
		{ClassKey: "Place", "amenity_ids": "a1"},
		{ClassKey: "Place", "amenity_ids": []any{1}},
	}
	for _, attrs := range typeErrors {
		_, err := f.FromAttributes(attrs)
		var fe *FieldError
		if !errors.As(err, &fe) {
			t.Fatalf("expected FieldError for %v, got %v", attrs, err)
		}
	}
}
