package domain

// Review is a user's text about a place.
type Review struct {
	Base
	PlaceID *string `json:"place_id"`
	UserID  *string `json:"user_id"`
	Text    *string `json:"text"`
}

// ReviewFields enumerates the construction inputs for a Review.
type ReviewFields struct {
	BaseFields
	PlaceID *string
	UserID  *string
	Text    *string
}

// NewReview constructs a Review from in.
func (f Factory) NewReview(in ReviewFields) (*Review, error) {
	base, err := f.base(KindReview, in.BaseFields)
	if err != nil {
		return nil, err
	}
	return &Review{
		Base:    base,
		PlaceID: f.optional(in.PlaceID),
		UserID:  f.optional(in.UserID),
		Text:    f.optional(in.Text),
	}, nil
}

// Kind returns KindReview.
func (*Review) Kind() Kind { return KindReview }

// Fields returns the review fields in declaration order.
func (r *Review) Fields() []Field {
	return append(r.Base.fields(),
		Field{Name: "place_id", Value: r.PlaceID},
		Field{Name: "user_id", Value: r.UserID},
		Field{Name: "text", Value: r.Text},
	)
}

// Serialize returns the attribute mapping of the review.
func (r *Review) Serialize() Attributes { return serialize(r) }

func (r *Review) String() string { return describe(r) }
