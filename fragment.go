package esql

// Fragment is a generated piece of SQL text plus the parameter tokens it
// references, in the order they appear. Fragments are plain values: callers
// concatenate their SQL into hand-written statements.
type Fragment struct {
	// SQL is the generated fragment text.
	SQL string
	// Params lists the parameter tokens the fragment references, in order.
	Params []string
}

// Param is one named parameter value.
type Param struct {
	// Name is the parameter token without the ":" sigil.
	Name string
	// Value is the normalized literal bound to the token.
	Value interface{}
}

// Params is an ordered set of named parameter values. Order matters: it
// determines positional argument order when a statement is bound for
// execution.
type Params []Param

// Get returns the value bound to the named parameter.
func (p Params) Get(name string) (interface{}, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}
	return nil, false
}

// Names returns the parameter tokens in order.
func (p Params) Names() []string {
	names := make([]string, len(p))
	for i, param := range p {
		names[i] = param.Name
	}
	return names
}
