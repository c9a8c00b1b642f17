package plan

import "github.com/sqlrelay/pushdown/internal/expr"

// Node is a relational plan operator. The interface is intentionally open:
// plans arrive from an upstream planner and may contain operator kinds this
// package does not define.
type Node interface {
	// Name returns a short display name for diagnostics ("Filter", "Join").
	Name() string

	// Output returns the ordered attribute sequence this node produces.
	Output() []expr.Attribute
}

// UnaryNode is a plan operator with exactly one input.
type UnaryNode interface {
	Node
	Child() Node
}

// BinaryNode is a plan operator with exactly two inputs.
type BinaryNode interface {
	Node
	Left() Node
	Right() Node
}

// Relation identifies the source a Scan reads from. The interface is open;
// the translator only pushes down scans whose relation is the tracked
// remote relation type.
type Relation interface {
	Name() string
}

// Scan reads all rows of a relation, producing the declared schema.
type Scan struct {
	Relation Relation
	Schema   []expr.Attribute
}

func (*Scan) Name() string { return "Scan" }

func (s *Scan) Output() []expr.Attribute { return s.Schema }

// Filter keeps the input rows satisfying Condition.
type Filter struct {
	Condition expr.Expression
	Input     Node
}

func (*Filter) Name() string { return "Filter" }

func (f *Filter) Output() []expr.Attribute { return f.Input.Output() }

func (f *Filter) Child() Node { return f.Input }

// Project evaluates one named expression per output column.
type Project struct {
	Projections []expr.Named
	Input       Node
}

func (*Project) Name() string { return "Project" }

func (p *Project) Output() []expr.Attribute { return attributesOf(p.Projections) }

func (p *Project) Child() Node { return p.Input }

// Aggregate groups the input by GroupBy and evaluates one named aggregate
// expression per output column. The output is the aggregate list only;
// grouping keys appear in the output when they are repeated there.
type Aggregate struct {
	GroupBy    []expr.Expression
	Aggregates []expr.Named
	Input      Node
}

func (*Aggregate) Name() string { return "Aggregate" }

func (a *Aggregate) Output() []expr.Attribute { return attributesOf(a.Aggregates) }

func (a *Aggregate) Child() Node { return a.Input }

// Sort orders the input. Global sorts establish a total order over the
// whole result; non-global sorts only order within a partition and carry no
// result-wide contract.
type Sort struct {
	Order  []expr.SortOrder
	Global bool
	Input  Node
}

func (*Sort) Name() string { return "Sort" }

func (s *Sort) Output() []expr.Attribute { return s.Input.Output() }

func (s *Sort) Child() Node { return s.Input }

// Limit truncates the input to Count rows.
type Limit struct {
	Count expr.Expression
	Input Node
}

func (*Limit) Name() string { return "Limit" }

func (l *Limit) Output() []expr.Attribute { return l.Input.Output() }

func (l *Limit) Child() Node { return l.Input }

// Window appends one named window expression per extra output column,
// keeping all input columns.
type Window struct {
	WindowExprs []expr.Named
	Input       Node
}

func (*Window) Name() string { return "Window" }

func (w *Window) Output() []expr.Attribute {
	return append(append([]expr.Attribute{}, w.Input.Output()...), attributesOf(w.WindowExprs)...)
}

func (w *Window) Child() Node { return w.Input }

// JoinKind identifies the join semantics.
type JoinKind int

const (
	Inner JoinKind = iota
	LeftOuter
	RightOuter
	FullOuter
	LeftSemi
	LeftAnti
	Cross
)

var joinKindNames = map[JoinKind]string{
	Inner:      "Inner",
	LeftOuter:  "LeftOuter",
	RightOuter: "RightOuter",
	FullOuter:  "FullOuter",
	LeftSemi:   "LeftSemi",
	LeftAnti:   "LeftAnti",
	Cross:      "Cross",
}

func (k JoinKind) String() string {
	if name, ok := joinKindNames[k]; ok {
		return name
	}
	return "JoinKind(?)"
}

// Join combines two inputs under Condition. Semi and anti joins produce
// left-side columns only; outer joins mark the padded side(s) nullable.
type Join struct {
	LeftInput  Node
	RightInput Node
	Kind       JoinKind
	Condition  expr.Expression
}

func (*Join) Name() string { return "Join" }

func (j *Join) Output() []expr.Attribute {
	left := j.LeftInput.Output()
	right := j.RightInput.Output()
	switch j.Kind {
	case LeftOuter:
		right = expr.AsNullable(right)
	case RightOuter:
		left = expr.AsNullable(left)
	case FullOuter:
		left = expr.AsNullable(left)
		right = expr.AsNullable(right)
	case LeftSemi, LeftAnti:
		return left
	}
	return append(append([]expr.Attribute{}, left...), right...)
}

func (j *Join) Left() Node  { return j.LeftInput }
func (j *Join) Right() Node { return j.RightInput }

// Union concatenates the rows of its inputs. All inputs share the first
// input's schema. Union is n-ary: it implements neither UnaryNode nor
// BinaryNode.
type Union struct {
	Inputs []Node
}

func (*Union) Name() string { return "Union" }

func (u *Union) Output() []expr.Attribute {
	if len(u.Inputs) == 0 {
		return nil
	}
	return u.Inputs[0].Output()
}

func (u *Union) Children() []Node { return u.Inputs }

// Expand replays each input row once per projection set, producing Schema.
// Expand has one input but deliberately does not implement UnaryNode: it
// compiles through a rewrite into a union of projections, never through the
// unary pass-through.
type Expand struct {
	Projections [][]expr.Expression
	Schema      []expr.Attribute
	Input       Node
}

func (*Expand) Name() string { return "Expand" }

func (e *Expand) Output() []expr.Attribute { return e.Schema }

func attributesOf(exprs []expr.Named) []expr.Attribute {
	attrs := make([]expr.Attribute, len(exprs))
	for i, e := range exprs {
		attrs[i] = e.ToAttribute()
	}
	return attrs
}
