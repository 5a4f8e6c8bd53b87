package domain

// Amenity is a facility a place can offer (wifi, pool, ...).
type Amenity struct {
	Base
	Name *string `json:"name"`
}

// AmenityFields enumerates the construction inputs for an Amenity.
type AmenityFields struct {
	BaseFields
	Name *string
}

// NewAmenity constructs an Amenity from in.
func (f Factory) NewAmenity(in AmenityFields) (*Amenity, error) {
	base, err := f.base(KindAmenity, in.BaseFields)
	if err != nil {
		return nil, err
	}
	return &Amenity{Base: base, Name: f.optional(in.Name)}, nil
}

// Kind returns KindAmenity.
func (*Amenity) Kind() Kind { return KindAmenity }

// Fields returns the amenity fields in declaration order.
func (a *Amenity) Fields() []Field {
	return append(a.Base.fields(), Field{Name: "name", Value: a.Name})
}

// Serialize returns the attribute mapping of the amenity.
func (a *Amenity) Serialize() Attributes { return serialize(a) }

func (a *Amenity) String() string { return describe(a) }
