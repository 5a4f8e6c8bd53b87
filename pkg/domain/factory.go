package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultMode selects the value unset optional string fields receive.
type DefaultMode int

const (
	// DefaultsEmpty leaves unset optional strings as "" (memory and file backends).
	DefaultsEmpty DefaultMode = iota
	// DefaultsNull leaves unset optional strings absent (relational backends).
	DefaultsNull
)

func (m DefaultMode) String() string {
	if m == DefaultsNull {
		return "null"
	}
	return "empty"
}

// BaseFields enumerates the recognised construction inputs shared by every
// kind. Empty values are generated: a fresh id and the factory clock for
// timestamps. Timestamps are given in TimeLayout.
type BaseFields struct {
	ID        string
	CreatedAt string
	UpdatedAt string
}

// Factory constructs records. Storage hands out a Factory carrying its
// backend's default mode and clock.
type Factory struct {
	Defaults DefaultMode
	Now      func() time.Time
	NewID    func() string
}

// NewFactory returns a factory using the wall clock and random UUIDs.
func NewFactory(mode DefaultMode) Factory {
	return Factory{Defaults: mode}
}

func (f Factory) now() time.Time {
	if f.Now == nil {
		return normalizeTime(time.Now())
	}
	return normalizeTime(f.Now())
}

func (f Factory) newID() string {
	if f.NewID == nil {
		return uuid.NewString()
	}
	return f.NewID()
}

// optional resolves an optional string input against the default mode.
func (f Factory) optional(v *string) *string {
	if v != nil {
		s := *v
		return &s
	}
	if f.Defaults == DefaultsNull {
		return nil
	}
	empty := ""
	return &empty
}

func (f Factory) base(kind Kind, in BaseFields) (Base, error) {
	b := Base{id: in.ID}
	if b.id == "" {
		b.id = f.newID()
	}
	now := f.now()
	var hasCreated, hasUpdated bool
	if in.CreatedAt != "" {
		t, err := ParseTime(in.CreatedAt)
		if err != nil {
			return Base{}, &FieldError{Kind: kind, Field: "created_at", Err: err}
		}
		b.CreatedAt, hasCreated = t, true
	}
	if in.UpdatedAt != "" {
		t, err := ParseTime(in.UpdatedAt)
		if err != nil {
			return Base{}, &FieldError{Kind: kind, Field: "updated_at", Err: err}
		}
		b.UpdatedAt, hasUpdated = t, true
	}
	switch {
	case hasCreated && hasUpdated:
		if b.UpdatedAt.Before(b.CreatedAt) {
			return Base{}, &FieldError{Kind: kind, Field: "updated_at", Err: ErrTimestampOrder}
		}
	case hasCreated:
		b.UpdatedAt = laterOf(now, b.CreatedAt)
	case hasUpdated:
		b.CreatedAt = earlierOf(now, b.UpdatedAt)
	default:
		b.CreatedAt, b.UpdatedAt = now, now
	}
	return b, nil
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// String returns a pointer to s, for populating optional fields.
func String(s string) *string { return &s }

// Deref returns the value behind p or "" when p is nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// FromAttributes constructs a record from its serialized mapping. The class
// tag selects the kind; unrecognised keys are ignored.
func (f Factory) FromAttributes(attrs Attributes) (Record, error) {
	tag, _ := attrs[ClassKey].(string)
	kind := Kind(tag)
	dec := attrDecoder{kind: kind, attrs: attrs}
	base := dec.base()
	if dec.err != nil {
		return nil, dec.err
	}
	switch kind {
	case KindAmenity:
		return f.NewAmenity(AmenityFields{BaseFields: base, Name: dec.optString("name")})
	case KindState:
		return f.NewState(StateFields{BaseFields: base, Name: dec.optString("name")})
	case KindCity:
		return f.NewCity(CityFields{BaseFields: base, StateID: dec.optString("state_id"), Name: dec.optString("name")})
	case KindUser:
		return f.NewUser(UserFields{
			BaseFields: base,
			Email:      dec.optString("email"),
			Password:   dec.optString("password"),
			FirstName:  dec.optString("first_name"),
			LastName:   dec.optString("last_name"),
		})
	case KindReview:
		return f.NewReview(ReviewFields{
			BaseFields: base,
			PlaceID:    dec.optString("place_id"),
			UserID:     dec.optString("user_id"),
			Text:       dec.optString("text"),
		})
	case KindPlace:
		in := PlaceFields{
			BaseFields:     base,
			CityID:         dec.optString("city_id"),
			UserID:         dec.optString("user_id"),
			Name:           dec.optString("name"),
			Description:    dec.optString("description"),
			NumberRooms:    dec.integer("number_rooms"),
			NumberBathroom: dec.integer("number_bathrooms"),
			MaxGuest:       dec.integer("max_guest"),
			PriceByNight:   dec.integer("price_by_night"),
			Latitude:       dec.float("latitude"),
			Longitude:      dec.float("longitude"),
			AmenityIDs:     dec.strings("amenity_ids"),
		}
		if dec.err != nil {
			return nil, dec.err
		}
		return f.NewPlace(in)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, tag)
	}
}

type attrDecoder struct {
	kind  Kind
	attrs Attributes
	err   error
}

func (d *attrDecoder) fail(field string, v any) {
	if d.err == nil {
		d.err = &FieldError{Kind: d.kind, Field: field, Err: fmt.Errorf("unexpected type %T", v)}
	}
}

func (d *attrDecoder) base() BaseFields {
	return BaseFields{
		ID:        d.text("id"),
		CreatedAt: d.timestamp("created_at"),
		UpdatedAt: d.timestamp("updated_at"),
	}
}

func (d *attrDecoder) text(key string) string {
	if v, ok := d.attrs[key].(string); ok {
		return v
	}
	return ""
}

func (d *attrDecoder) timestamp(key string) string {
	switch v := d.attrs[key].(type) {
	case string:
		return v
	case time.Time:
		return FormatTime(v)
	case nil:
		return ""
	default:
		d.fail(key, v)
		return ""
	}
}

func (d *attrDecoder) optString(key string) *string {
	v, ok := d.attrs[key]
	if !ok || v == nil {
		return nil
	}
	switch x := v.(type) {
	case string:
		return &x
	case *string:
		return x
	default:
		s := fmt.Sprint(x)
		return &s
	}
}

func (d *attrDecoder) integer(key string) int {
	v, ok := d.attrs[key]
	if !ok || v == nil {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	default:
		d.fail(key, v)
		return 0
	}
}

func (d *attrDecoder) float(key string) float64 {
	v, ok := d.attrs[key]
	if !ok || v == nil {
		return 0
	}
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	default:
		d.fail(key, v)
		return 0
	}
}

func (d *attrDecoder) strings(key string) []string {
	v, ok := d.attrs[key]
	if !ok || v == nil {
		return nil
	}
	switch x := v.(type) {
	case []string:
		return append([]string(nil), x...)
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				d.fail(key, item)
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		d.fail(key, v)
		return nil
	}
}
