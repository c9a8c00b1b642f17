package expr

// Expression represents a scalar expression appearing in filter conditions,
// projection lists, grouping keys, sort orders, and join conditions.
//
// This is a sealed interface - only types in this package implement it.
// The marker method prevents external implementations and keeps the
// renderer's type switch exhaustive.
type Expression interface {
	exprNode() // Marker method - seals interface to this package
}

// Named is the subset of expressions that can name an output attribute.
//
// Only Column and Alias implement Named. Anything else (a comparison, an
// aggregate call, a window call) must be wrapped in an Alias before it can
// appear in a projection or aggregate list.
type Named interface {
	Expression

	// Name returns the output attribute name.
	Name() string

	// ToAttribute returns the attribute this expression produces.
	ToAttribute() Attribute
}

// Column references an attribute of the input by name.
//
// A Column carries its resolved type and nullability so output schemas can
// be derived without re-resolving against the child. The optional qualifier
// disambiguates columns on the two sides of a join and renders as
// "qualifier"."name".
type Column struct {
	name      string
	qualifier string
	typ       DataType
	nullable  bool
}

// Col returns an unqualified column reference.
func Col(name string, typ DataType, nullable bool) Column {
	return Column{name: name, typ: typ, nullable: nullable}
}

// QualifiedCol returns a column reference scoped to a named input.
func QualifiedCol(qualifier, name string, typ DataType, nullable bool) Column {
	return Column{name: name, qualifier: qualifier, typ: typ, nullable: nullable}
}

func (c Column) Name() string      { return c.name }
func (c Column) Qualifier() string { return c.qualifier }
func (c Column) Type() DataType    { return c.typ }
func (c Column) Nullable() bool    { return c.nullable }

func (c Column) ToAttribute() Attribute {
	return Attribute{Name: c.name, Type: c.typ, Nullable: c.nullable}
}

func (Column) exprNode() {}

// Literal is a constant value. Literals are always parameterized during
// rendering, never interpolated into SQL text.
type Literal struct {
	value any
	typ   DataType
}

// Lit returns a literal of the given logical type.
func Lit(value any, typ DataType) Literal {
	return Literal{value: value, typ: typ}
}

// Int returns an integer literal.
func Int(v int64) Literal { return Literal{value: v, typ: TypeInteger} }

// Str returns a string literal.
func Str(v string) Literal { return Literal{value: v, typ: TypeString} }

func (l Literal) Value() any     { return l.value }
func (l Literal) Type() DataType { return l.typ }

func (Literal) exprNode() {}

// Alias names an arbitrary expression so it can appear in a projection or
// aggregate list. The aliased attribute's type and nullability are inferred
// from the wrapped expression.
type Alias struct {
	expr Expression
	name string
}

// As wraps e under the given output name.
func As(e Expression, name string) Alias {
	return Alias{expr: e, name: name}
}

func (a Alias) Expr() Expression { return a.expr }
func (a Alias) Name() string     { return a.name }

func (a Alias) ToAttribute() Attribute {
	return Attribute{Name: a.name, Type: TypeOf(a.expr), Nullable: NullableOf(a.expr)}
}

func (Alias) exprNode() {}

// CompareOp identifies a comparison operator.
type CompareOp string

const (
	OpEq CompareOp = "="
	OpNe CompareOp = "<>"
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

// Compare is a binary comparison between two expressions.
type Compare struct {
	left  Expression
	op    CompareOp
	right Expression
}

// Cmp returns the comparison left op right.
func Cmp(left Expression, op CompareOp, right Expression) Compare {
	return Compare{left: left, op: op, right: right}
}

// Eq returns left = right.
func Eq(left, right Expression) Compare { return Cmp(left, OpEq, right) }

// Gt returns left > right.
func Gt(left, right Expression) Compare { return Cmp(left, OpGt, right) }

func (c Compare) Left() Expression  { return c.left }
func (c Compare) Op() CompareOp     { return c.op }
func (c Compare) Right() Expression { return c.right }

func (Compare) exprNode() {}

// Conjunction is the conjunction of its predicates. An empty conjunction is
// vacuously true.
type Conjunction struct {
	preds []Expression
}

// And returns the conjunction of preds.
func And(preds ...Expression) Conjunction { return Conjunction{preds: preds} }

func (c Conjunction) Preds() []Expression { return c.preds }

func (Conjunction) exprNode() {}

// Disjunction is the disjunction of its predicates.
type Disjunction struct {
	preds []Expression
}

// Or returns the disjunction of preds.
func Or(preds ...Expression) Disjunction { return Disjunction{preds: preds} }

func (d Disjunction) Preds() []Expression { return d.preds }

func (Disjunction) exprNode() {}

// Negation inverts a predicate.
type Negation struct {
	pred Expression
}

// Not returns the negation of pred.
func Not(pred Expression) Negation { return Negation{pred: pred} }

func (n Negation) Pred() Expression { return n.pred }

func (Negation) exprNode() {}

// NullCheck tests an expression against NULL.
type NullCheck struct {
	expr    Expression
	negated bool
}

// IsNull returns the predicate "e IS NULL".
func IsNull(e Expression) NullCheck { return NullCheck{expr: e} }

// IsNotNull returns the predicate "e IS NOT NULL".
func IsNotNull(e Expression) NullCheck { return NullCheck{expr: e, negated: true} }

func (n NullCheck) Expr() Expression { return n.expr }
func (n NullCheck) Negated() bool    { return n.negated }

func (NullCheck) exprNode() {}

// AggFunc identifies an aggregate function.
type AggFunc string

const (
	AggCount AggFunc = "COUNT"
	AggSum   AggFunc = "SUM"
	AggAvg   AggFunc = "AVG"
	AggMin   AggFunc = "MIN"
	AggMax   AggFunc = "MAX"
)

// AggregateCall applies an aggregate function to an expression. A nil
// argument renders as COUNT(*). AggregateCall is unnamed; wrap it in an
// Alias to use it in an aggregate list.
type AggregateCall struct {
	fn       AggFunc
	arg      Expression
	distinct bool
}

// Agg returns fn(arg). arg may be nil for COUNT(*).
func Agg(fn AggFunc, arg Expression) AggregateCall {
	return AggregateCall{fn: fn, arg: arg}
}

// AggDistinct returns fn(DISTINCT arg).
func AggDistinct(fn AggFunc, arg Expression) AggregateCall {
	return AggregateCall{fn: fn, arg: arg, distinct: true}
}

func (a AggregateCall) Fn() AggFunc     { return a.fn }
func (a AggregateCall) Arg() Expression { return a.arg }
func (a AggregateCall) Distinct() bool  { return a.distinct }

func (AggregateCall) exprNode() {}

// WindowCall applies a window function over a partition/order specification.
// WindowCall is unnamed; wrap it in an Alias to project it.
type WindowCall struct {
	function    string
	args        []Expression
	partitionBy []Expression
	orderBy     []SortOrder
	typ         DataType
}

// Window returns a window function call. The function name is rendered
// verbatim (e.g. "ROW_NUMBER", "RANK", "SUM").
func Window(function string, args []Expression, partitionBy []Expression, orderBy []SortOrder, typ DataType) WindowCall {
	return WindowCall{
		function:    function,
		args:        args,
		partitionBy: partitionBy,
		orderBy:     orderBy,
		typ:         typ,
	}
}

func (w WindowCall) Function() string          { return w.function }
func (w WindowCall) Args() []Expression        { return w.args }
func (w WindowCall) PartitionBy() []Expression { return w.partitionBy }
func (w WindowCall) OrderBy() []SortOrder      { return w.orderBy }
func (w WindowCall) Type() DataType            { return w.typ }

func (WindowCall) exprNode() {}

// SortOrder pairs an expression with a sort direction. It is not itself an
// Expression; it only appears in ORDER BY positions.
type SortOrder struct {
	expr       Expression
	descending bool
}

// Asc returns an ascending sort order on e.
func Asc(e Expression) SortOrder { return SortOrder{expr: e} }

// Desc returns a descending sort order on e.
func Desc(e Expression) SortOrder { return SortOrder{expr: e, descending: true} }

func (s SortOrder) Expr() Expression { return s.expr }
func (s SortOrder) Descending() bool { return s.descending }

// TypeOf returns the logical type an expression evaluates to.
func TypeOf(e Expression) DataType {
	switch e := e.(type) {
	case Column:
		return e.typ
	case Literal:
		return e.typ
	case Alias:
		return TypeOf(e.expr)
	case Compare, Conjunction, Disjunction, Negation, NullCheck:
		return TypeBoolean
	case AggregateCall:
		if e.fn == AggCount {
			return TypeInteger
		}
		return TypeOf(e.arg)
	case WindowCall:
		return e.typ
	default:
		return TypeString
	}
}

// NullableOf reports whether an expression can evaluate to NULL.
func NullableOf(e Expression) bool {
	switch e := e.(type) {
	case Column:
		return e.nullable
	case Literal:
		return e.value == nil
	case Alias:
		return NullableOf(e.expr)
	case Compare:
		return NullableOf(e.left) || NullableOf(e.right)
	case AggregateCall:
		// COUNT never returns NULL; the others do on empty input.
		return e.fn != AggCount
	case WindowCall:
		return true
	default:
		return false
	}
}
