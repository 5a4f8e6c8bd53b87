// Package domain defines the persistent entities of the hbnb application and
// the base record behaviour they share: identity, timestamps, the serialized
// attribute mapping and the textual representation.
package domain

import (
	"fmt"
	"time"
)

// Kind identifies the concrete entity type of a record. It doubles as the
// class tag stored in serialized attributes and as the storage bucket name.
type Kind string

// Supported entity kinds.
const (
	// KindAmenity identifies an amenity offered by places.
	KindAmenity Kind = "Amenity"
	// KindState identifies a state containing cities.
	KindState Kind = "State"
	// KindCity identifies a city belonging to a state.
	KindCity Kind = "City"
	// KindUser identifies a registered user.
	KindUser Kind = "User"
	// KindPlace identifies a rentable place.
	KindPlace Kind = "Place"
	// KindReview identifies a review left by a user on a place.
	KindReview Kind = "Review"
)

// Kinds lists every registered kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindAmenity, KindCity, KindPlace, KindReview, KindState, KindUser}
}

// Valid reports whether k names a registered kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// ClassKey is the attribute carrying the kind tag in serialized form.
const ClassKey = "__class__"

// Attributes is the plain key/value representation of a record used for
// persistence and API responses.
type Attributes map[string]any

// Field is a named attribute value. Records expose their fields in
// declaration order so that the text representation is deterministic.
type Field struct {
	Name  string
	Value any
}

// Record is implemented by every entity kind.
type Record interface {
	// Kind returns the entity kind tag.
	Kind() Kind
	// Meta returns a copy of the shared identity and timestamp fields.
	Meta() Base
	// Touch refreshes the update timestamp.
	Touch(at time.Time)
	// Fields returns base and domain fields in declaration order.
	Fields() []Field
	// Serialize converts the record into its attribute mapping, including the
	// kind tag and timestamps rendered with TimeLayout.
	Serialize() Attributes
	// String renders "[<Kind>] (<id>) <field-mapping>".
	String() string
}

// Base contains the identity and timestamp fields common to all records. The
// id is assigned by a Factory and cannot change afterwards.
type Base struct {
	id        string
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ID returns the record id.
func (b Base) ID() string { return b.id }

// Meta returns a copy of the base fields.
func (b Base) Meta() Base { return b }

// Validate reports ErrInvalidRecord when the record was not built by a
// Factory: it has no id or no creation time.
func (b Base) Validate() error {
	switch {
	case b.id == "":
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	case b.CreatedAt.IsZero():
		return fmt.Errorf("%w: zero created_at", ErrInvalidRecord)
	}
	return nil
}

// Touch moves UpdatedAt to at. The timestamp always strictly increases: when
// at does not come after the current value, UpdatedAt advances by the
// smallest representable step instead.
func (b *Base) Touch(at time.Time) {
	at = normalizeTime(at)
	if !at.After(b.UpdatedAt) {
		at = b.UpdatedAt.Add(time.Microsecond)
	}
	b.UpdatedAt = at
}

func (b Base) fields() []Field {
	return []Field{
		{Name: "id", Value: b.id},
		{Name: "created_at", Value: b.CreatedAt},
		{Name: "updated_at", Value: b.UpdatedAt},
	}
}

// Key returns the storage key "<Kind>.<id>" for r.
func Key(r Record) string {
	return KeyFor(r.Kind(), r.Meta().ID())
}

// KeyFor builds the storage key for a kind and id.
func KeyFor(kind Kind, id string) string {
	return string(kind) + "." + id
}

func serialize(r Record) Attributes {
	fields := r.Fields()
	out := make(Attributes, len(fields)+1)
	for _, f := range fields {
		switch v := f.Value.(type) {
		case time.Time:
			out[f.Name] = FormatTime(v)
		case *string:
			if v == nil {
				out[f.Name] = nil
			} else {
				out[f.Name] = *v
			}
		case []string:
			out[f.Name] = append([]string{}, v...)
		default:
			out[f.Name] = v
		}
	}
	out[ClassKey] = string(r.Kind())
	return out
}

func describe(r Record) string {
	return "[" + string(r.Kind()) + "] (" + r.Meta().ID() + ") " + reprFields(r.Fields())
}
