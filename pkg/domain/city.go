package domain

// City belongs to a State and hosts places.
type City struct {
	Base
	StateID *string `json:"state_id"`
	Name    *string `json:"name"`
}

// CityFields enumerates the construction inputs for a City.
type CityFields struct {
	BaseFields
	StateID *string
	Name    *string
}

// NewCity constructs a City from in.
func (f Factory) NewCity(in CityFields) (*City, error) {
	base, err := f.base(KindCity, in.BaseFields)
	if err != nil {
		return nil, err
	}
	return &City{Base: base, StateID: f.optional(in.StateID), Name: f.optional(in.Name)}, nil
}

// Kind returns KindCity.
func (*City) Kind() Kind { return KindCity }

// Fields returns the city fields in declaration order.
func (c *City) Fields() []Field {
	return append(c.Base.fields(),
		Field{Name: "state_id", Value: c.StateID},
		Field{Name: "name", Value: c.Name},
	)
}

// Serialize returns the attribute mapping of the city.
func (c *City) Serialize() Attributes { return serialize(c) }

func (c *City) String() string { return describe(c) }
