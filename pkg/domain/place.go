package domain

// Place is a rentable listing located in a city and owned by a user.
type Place struct {
	Base
	CityID         *string  `json:"city_id"`
	UserID         *string  `json:"user_id"`
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	NumberRooms    int      `json:"number_rooms"`
	NumberBathroom int      `json:"number_bathrooms"`
	MaxGuest       int      `json:"max_guest"`
	PriceByNight   int      `json:"price_by_night"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	AmenityIDs     []string `json:"amenity_ids"`
}

// PlaceFields enumerates the construction inputs for a Place. Numeric fields
// default to zero and AmenityIDs to an empty list.
type PlaceFields struct {
	BaseFields
	CityID         *string
	UserID         *string
	Name           *string
	Description    *string
	NumberRooms    int
	NumberBathroom int
	MaxGuest       int
	PriceByNight   int
	Latitude       float64
	Longitude      float64
	AmenityIDs     []string
}

// NewPlace constructs a Place from in.
func (f Factory) NewPlace(in PlaceFields) (*Place, error) {
	base, err := f.base(KindPlace, in.BaseFields)
	if err != nil {
		return nil, err
	}
	return &Place{
		Base:           base,
		CityID:         f.optional(in.CityID),
		UserID:         f.optional(in.UserID),
		Name:           f.optional(in.Name),
		Description:    f.optional(in.Description),
		NumberRooms:    in.NumberRooms,
		NumberBathroom: in.NumberBathroom,
		MaxGuest:       in.MaxGuest,
		PriceByNight:   in.PriceByNight,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		AmenityIDs:     append([]string{}, in.AmenityIDs...),
	}, nil
}

// Kind returns KindPlace.
func (*Place) Kind() Kind { return KindPlace }

// Fields returns the place fields in declaration order.
func (p *Place) Fields() []Field {
	return append(p.Base.fields(),
		Field{Name: "city_id", Value: p.CityID},
		Field{Name: "user_id", Value: p.UserID},
		Field{Name: "name", Value: p.Name},
		Field{Name: "description", Value: p.Description},
		Field{Name: "number_rooms", Value: p.NumberRooms},
		Field{Name: "number_bathrooms", Value: p.NumberBathroom},
		Field{Name: "max_guest", Value: p.MaxGuest},
		Field{Name: "price_by_night", Value: p.PriceByNight},
		Field{Name: "latitude", Value: p.Latitude},
		Field{Name: "longitude", Value: p.Longitude},
		Field{Name: "amenity_ids", Value: p.AmenityIDs},
	)
}

// Serialize returns the attribute mapping of the place.
func (p *Place) Serialize() Attributes { return serialize(p) }

func (p *Place) String() string { return describe(p) }

// AddAmenity links an amenity to the place once.
func (p *Place) AddAmenity(a *Amenity) {
	for _, id := range p.AmenityIDs {
		if id == a.ID() {
			return
		}
	}
	p.AmenityIDs = append(p.AmenityIDs, a.ID())
}
