package expr

// DataType identifies the logical type of an attribute or expression.
//
// The set is deliberately small: it is the portable intersection the remote
// store is expected to understand, not a full SQL type system. Type
// inference here never widens or narrows; it only propagates what the plan
// already declared.
type DataType string

const (
	TypeString    DataType = "string"
	TypeInteger   DataType = "integer"
	TypeFloat     DataType = "float"
	TypeBoolean   DataType = "boolean"
	TypeTimestamp DataType = "timestamp"
)

// Attribute describes one column of a node's output: name, logical type,
// and nullability. Attribute sequences are ordered; position matters and is
// part of the output contract between a plan node and its compiled query.
type Attribute struct {
	Name     string
	Type     DataType
	Nullable bool
}

// AsNullable returns a copy of attrs with every attribute marked nullable.
// Used for the padded side(s) of outer joins.
func AsNullable(attrs []Attribute) []Attribute {
	out := make([]Attribute, len(attrs))
	for i, a := range attrs {
		a.Nullable = true
		out[i] = a
	}
	return out
}
