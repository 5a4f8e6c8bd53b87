package domain

// State groups cities.
type State struct {
	Base
	Name *string `json:"name"`
}

// StateFields enumerates the construction inputs for a State.
type StateFields struct {
	BaseFields
	Name *string
}

// NewState constructs a State from in.
func (f Factory) NewState(in StateFields) (*State, error) {
	base, err := f.base(KindState, in.BaseFields)
	if err != nil {
		return nil, err
	}
	return &State{Base: base, Name: f.optional(in.Name)}, nil
}

// Kind returns KindState.
func (*State) Kind() Kind { return KindState }

// Fields returns the state fields in declaration order.
func (s *State) Fields() []Field {
	return append(s.Base.fields(), Field{Name: "name", Value: s.Name})
}

// Serialize returns the attribute mapping of the state.
func (s *State) Serialize() Attributes { return serialize(s) }

func (s *State) String() string { return describe(s) }
