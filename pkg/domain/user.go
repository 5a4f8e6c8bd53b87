package domain

// User is an account that owns places and writes reviews.
type User struct {
	Base
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// UserFields enumerates the construction inputs for a User.
type UserFields struct {
	BaseFields
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
}

// NewUser constructs a User from in.
func (f Factory) NewUser(in UserFields) (*User, error) {
	base, err := f.base(KindUser, in.BaseFields)
	if err != nil {
		return nil, err
	}
	return &User{
		Base:      base,
		Email:     f.optional(in.Email),
		Password:  f.optional(in.Password),
		FirstName: f.optional(in.FirstName),
		LastName:  f.optional(in.LastName),
	}, nil
}

// Kind returns KindUser.
func (*User) Kind() Kind { return KindUser }

// Fields returns the user fields in declaration order.
func (u *User) Fields() []Field {
	return append(u.Base.fields(),
		Field{Name: "email", Value: u.Email},
		Field{Name: "password", Value: u.Password},
		Field{Name: "first_name", Value: u.FirstName},
		Field{Name: "last_name", Value: u.LastName},
	)
}

// Serialize returns the attribute mapping of the user.
func (u *User) Serialize() Attributes { return serialize(u) }

func (u *User) String() string { return describe(u) }
