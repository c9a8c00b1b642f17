package sqlquery

import (
	"github.com/sqlrelay/pushdown/internal/expr"
	"github.com/sqlrelay/pushdown/internal/plan"
)

// QueryNode is a compiled, self-rendering SQL query operator.
//
// This is a sealed interface - only types in this package implement it.
// Nodes are immutable once constructed; all variant fields are set by the
// New* constructors and never reassigned.
type QueryNode interface {
	// Alias returns the unique subquery name assigned at build time.
	Alias() string

	// Output returns the ordered output attribute sequence.
	Output() []expr.Attribute

	// Children returns the owned child nodes in left-to-right order.
	Children() []QueryNode

	// Statement renders the node and its subtree to parameterized SQL.
	Statement() (Statement, error)

	queryNode() // Marker method - seals interface to this package
}

// AliasSequence issues fresh subquery aliases. The translator's allocator
// implements it.
type AliasSequence interface {
	Next() string
}

// SourceQuery scans a remote relation. It is the only leaf variant; every
// successfully compiled tree contains exactly one.
type SourceQuery struct {
	relation *Relation
	output   []expr.Attribute
	alias    string
}

// NewSourceQuery builds a leaf scan over relation producing output.
func NewSourceQuery(relation *Relation, output []expr.Attribute, alias string) *SourceQuery {
	return &SourceQuery{relation: relation, output: output, alias: alias}
}

func (q *SourceQuery) Relation() *Relation      { return q.relation }
func (q *SourceQuery) Alias() string            { return q.alias }
func (q *SourceQuery) Output() []expr.Attribute { return q.output }
func (q *SourceQuery) Children() []QueryNode    { return nil }
func (*SourceQuery) queryNode()                 {}

// FilterQuery applies a WHERE condition to its child.
type FilterQuery struct {
	condition expr.Expression
	child     QueryNode
	alias     string
}

// NewFilterQuery builds a filter over child. The output is the child's.
func NewFilterQuery(condition expr.Expression, child QueryNode, alias string) *FilterQuery {
	return &FilterQuery{condition: condition, child: child, alias: alias}
}

func (q *FilterQuery) Condition() expr.Expression { return q.condition }
func (q *FilterQuery) Alias() string              { return q.alias }
func (q *FilterQuery) Output() []expr.Attribute   { return q.child.Output() }
func (q *FilterQuery) Children() []QueryNode      { return []QueryNode{q.child} }
func (*FilterQuery) queryNode()                   {}

// ProjectQuery evaluates a select list over its child.
type ProjectQuery struct {
	projections []expr.Named
	child       QueryNode
	alias       string
	output      []expr.Attribute
}

// NewProjectQuery builds a projection over child.
func NewProjectQuery(projections []expr.Named, child QueryNode, alias string) *ProjectQuery {
	return &ProjectQuery{
		projections: projections,
		child:       child,
		alias:       alias,
		output:      namedAttributes(projections),
	}
}

func (q *ProjectQuery) Projections() []expr.Named { return q.projections }
func (q *ProjectQuery) Alias() string             { return q.alias }
func (q *ProjectQuery) Output() []expr.Attribute  { return q.output }
func (q *ProjectQuery) Children() []QueryNode     { return []QueryNode{q.child} }
func (*ProjectQuery) queryNode()                  {}

// AggregateQuery groups its child and evaluates an aggregate list.
type AggregateQuery struct {
	aggregates []expr.Named
	groupBy    []expr.Expression
	child      QueryNode
	alias      string
	output     []expr.Attribute
}

// NewAggregateQuery builds an aggregation over child.
func NewAggregateQuery(aggregates []expr.Named, groupBy []expr.Expression, child QueryNode, alias string) *AggregateQuery {
	return &AggregateQuery{
		aggregates: aggregates,
		groupBy:    groupBy,
		child:      child,
		alias:      alias,
		output:     namedAttributes(aggregates),
	}
}

func (q *AggregateQuery) Aggregates() []expr.Named   { return q.aggregates }
func (q *AggregateQuery) GroupBy() []expr.Expression { return q.groupBy }
func (q *AggregateQuery) Alias() string              { return q.alias }
func (q *AggregateQuery) Output() []expr.Attribute   { return q.output }
func (q *AggregateQuery) Children() []QueryNode      { return []QueryNode{q.child} }
func (*AggregateQuery) queryNode()                   {}

// SortLimitQuery orders and/or truncates its child. A nil limit means
// order-only; an empty order means limit-only. Both nesting orders of a
// limit and a global sort in the plan collapse into this one variant.
type SortLimitQuery struct {
	limit expr.Expression
	order []expr.SortOrder
	child QueryNode
	alias string
}

// NewSortLimitQuery builds a sort/limit over child.
func NewSortLimitQuery(limit expr.Expression, order []expr.SortOrder, child QueryNode, alias string) *SortLimitQuery {
	return &SortLimitQuery{limit: limit, order: order, child: child, alias: alias}
}

func (q *SortLimitQuery) Limit() expr.Expression   { return q.limit }
func (q *SortLimitQuery) Order() []expr.SortOrder  { return q.order }
func (q *SortLimitQuery) Alias() string            { return q.alias }
func (q *SortLimitQuery) Output() []expr.Attribute { return q.child.Output() }
func (q *SortLimitQuery) Children() []QueryNode    { return []QueryNode{q.child} }
func (*SortLimitQuery) queryNode()                 {}

// WindowQuery keeps all child columns and appends window expressions.
// When the originating plan node declared a non-empty output, that
// declaration overrides the derived output.
type WindowQuery struct {
	windowExprs []expr.Named
	child       QueryNode
	alias       string
	declared    []expr.Attribute
}

// NewWindowQuery builds a windowing node over child. declared may be nil.
func NewWindowQuery(windowExprs []expr.Named, child QueryNode, alias string, declared []expr.Attribute) *WindowQuery {
	return &WindowQuery{windowExprs: windowExprs, child: child, alias: alias, declared: declared}
}

func (q *WindowQuery) WindowExprs() []expr.Named { return q.windowExprs }
func (q *WindowQuery) Alias() string             { return q.alias }

func (q *WindowQuery) Output() []expr.Attribute {
	if len(q.declared) > 0 {
		return q.declared
	}
	return append(append([]expr.Attribute{}, q.child.Output()...), namedAttributes(q.windowExprs)...)
}

func (q *WindowQuery) Children() []QueryNode { return []QueryNode{q.child} }
func (*WindowQuery) queryNode()              {}

// JoinQuery combines two children under an inner or outer join.
type JoinQuery struct {
	left      QueryNode
	right     QueryNode
	condition expr.Expression
	kind      plan.JoinKind
	output    []expr.Attribute
	alias     string
}

// NewJoinQuery builds a join of left and right. The output sequence is
// supplied by the caller so nullability adjustments made by the plan node
// carry over exactly.
func NewJoinQuery(left, right QueryNode, condition expr.Expression, kind plan.JoinKind, output []expr.Attribute, alias string) *JoinQuery {
	return &JoinQuery{left: left, right: right, condition: condition, kind: kind, output: output, alias: alias}
}

func (q *JoinQuery) Condition() expr.Expression { return q.condition }
func (q *JoinQuery) Kind() plan.JoinKind        { return q.kind }
func (q *JoinQuery) Alias() string              { return q.alias }
func (q *JoinQuery) Output() []expr.Attribute   { return q.output }
func (q *JoinQuery) Children() []QueryNode      { return []QueryNode{q.left, q.right} }
func (*JoinQuery) queryNode()                   {}

// SemiJoinQuery keeps (semi) or drops (anti) left rows with a right-side
// match, producing left columns only.
type SemiJoinQuery struct {
	left      QueryNode
	right     QueryNode
	condition expr.Expression
	anti      bool
	alias     string
}

// NewSemiJoinQuery builds a semi or anti join of left and right, drawing
// its alias from the build's allocator.
func NewSemiJoinQuery(left, right QueryNode, condition expr.Expression, anti bool, aliases AliasSequence) *SemiJoinQuery {
	return &SemiJoinQuery{left: left, right: right, condition: condition, anti: anti, alias: aliases.Next()}
}

func (q *SemiJoinQuery) Condition() expr.Expression { return q.condition }
func (q *SemiJoinQuery) Anti() bool                 { return q.anti }
func (q *SemiJoinQuery) Alias() string              { return q.alias }
func (q *SemiJoinQuery) Output() []expr.Attribute   { return q.left.Output() }
func (q *SemiJoinQuery) Children() []QueryNode      { return []QueryNode{q.left, q.right} }
func (*SemiJoinQuery) queryNode()                   {}

// UnionQuery concatenates its children with UNION ALL. When the
// originating plan node declared a non-empty output (the expand rewrite
// does), that declaration overrides the first child's output.
type UnionQuery struct {
	children []QueryNode
	declared []expr.Attribute
	alias    string
}

// NewUnionQuery builds a union of children. declared may be nil.
func NewUnionQuery(children []QueryNode, declared []expr.Attribute, alias string) *UnionQuery {
	return &UnionQuery{children: children, declared: declared, alias: alias}
}

func (q *UnionQuery) Alias() string { return q.alias }

func (q *UnionQuery) Output() []expr.Attribute {
	if len(q.declared) > 0 {
		return q.declared
	}
	if len(q.children) == 0 {
		return nil
	}
	return q.children[0].Output()
}

func (q *UnionQuery) Children() []QueryNode { return q.children }
func (*UnionQuery) queryNode()              {}

func namedAttributes(exprs []expr.Named) []expr.Attribute {
	attrs := make([]expr.Attribute, len(exprs))
	for i, e := range exprs {
		attrs[i] = e.ToAttribute()
	}
	return attrs
}
