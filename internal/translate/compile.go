package translate

import (
	"github.com/sqlrelay/pushdown/internal/expr"
	"github.com/sqlrelay/pushdown/internal/plan"
	"github.com/sqlrelay/pushdown/internal/sqlquery"
)

// buildContext is the per-run state of one compilation: the alias counter
// and the target-relation flag. It is owned by a single build and never
// shared across translator instances.
type buildContext struct {
	aliases    aliasGen
	targetSeen bool
}

// compile walks the plan bottom-up and constructs the matching query node,
// or fails. Dispatch precedence: tracked scan, unary, binary, union,
// expand, then unsupported. A failure at any recursive step aborts the
// remainder of the build; no partial tree escapes.
func (b *buildContext) compile(node plan.Node) (sqlquery.QueryNode, error) {
	if scan, ok := node.(*plan.Scan); ok {
		rel, ok := scan.Relation.(*sqlquery.Relation)
		if !ok {
			return nil, unsupported(node)
		}
		b.targetSeen = true
		return sqlquery.NewSourceQuery(rel, scan.Output(), b.aliases.Next()), nil
	}
	if unary, ok := node.(plan.UnaryNode); ok {
		return b.compileUnary(unary)
	}
	if binary, ok := node.(plan.BinaryNode); ok {
		return b.compileBinary(binary)
	}
	switch n := node.(type) {
	case *plan.Union:
		return b.compileUnion(n.Inputs, nil)
	case *plan.Expand:
		return b.compileExpand(n)
	}
	return nil, unsupported(node)
}

// compileUnary compiles the effective child first and then wraps it
// according to the node's own shape.
//
// A Limit directly over a global Sort, and a global Sort directly over a
// Limit, each collapse into one SortLimitQuery over the inner input - the
// inner node is skipped entirely, so neither nesting order consumes an
// alias for it. Unrecognized unary kinds (a non-global Sort among them)
// pass the compiled child through unchanged.
func (b *buildContext) compileUnary(node plan.UnaryNode) (sqlquery.QueryNode, error) {
	input := node.Child()
	switch n := node.(type) {
	case *plan.Limit:
		if sort, ok := input.(*plan.Sort); ok && sort.Global {
			input = sort.Input
		}
	case *plan.Sort:
		if limit, ok := input.(*plan.Limit); ok && n.Global {
			input = limit.Input
		}
	}

	child, err := b.compile(input)
	if err != nil {
		return nil, err
	}

	switch n := node.(type) {
	case *plan.Filter:
		return sqlquery.NewFilterQuery(n.Condition, child, b.aliases.Next()), nil
	case *plan.Project:
		return sqlquery.NewProjectQuery(n.Projections, child, b.aliases.Next()), nil
	case *plan.Aggregate:
		return sqlquery.NewAggregateQuery(n.Aggregates, n.GroupBy, child, b.aliases.Next()), nil
	case *plan.Limit:
		if sort, ok := n.Input.(*plan.Sort); ok && sort.Global {
			return sqlquery.NewSortLimitQuery(n.Count, sort.Order, child, b.aliases.Next()), nil
		}
		return sqlquery.NewSortLimitQuery(n.Count, nil, child, b.aliases.Next()), nil
	case *plan.Sort:
		if !n.Global {
			// No result-wide ordering contract to push down.
			return child, nil
		}
		if limit, ok := n.Input.(*plan.Limit); ok {
			return sqlquery.NewSortLimitQuery(limit.Count, n.Order, child, b.aliases.Next()), nil
		}
		return sqlquery.NewSortLimitQuery(nil, n.Order, child, b.aliases.Next()), nil
	case *plan.Window:
		var declared []expr.Attribute
		if out := n.Output(); len(out) > 0 {
			declared = out
		}
		return sqlquery.NewWindowQuery(n.WindowExprs, child, b.aliases.Next(), declared), nil
	default:
		// Transparent pass-through for unrecognized unary operators. Any
		// semantic effect the node carried is dropped here.
		return child, nil
	}
}

// compileBinary compiles left before right; the right child is never
// attempted when the left fails.
func (b *buildContext) compileBinary(node plan.BinaryNode) (sqlquery.QueryNode, error) {
	left, err := b.compile(node.Left())
	if err != nil {
		return nil, err
	}
	right, err := b.compile(node.Right())
	if err != nil {
		return nil, err
	}

	join, ok := node.(*plan.Join)
	if !ok {
		return nil, unsupported(node)
	}
	switch join.Kind {
	case plan.Inner, plan.LeftOuter, plan.RightOuter, plan.FullOuter:
		return sqlquery.NewJoinQuery(left, right, join.Condition, join.Kind, join.Output(), b.aliases.Next()), nil
	case plan.LeftSemi:
		return sqlquery.NewSemiJoinQuery(left, right, join.Condition, false, &b.aliases), nil
	case plan.LeftAnti:
		return sqlquery.NewSemiJoinQuery(left, right, join.Condition, true, &b.aliases), nil
	default:
		return nil, defectf("join kind %v reached an assumed-exhaustive dispatch", join.Kind)
	}
}

// compileUnion compiles every child in order, short-circuiting on the
// first failure.
func (b *buildContext) compileUnion(inputs []plan.Node, declared []expr.Attribute) (sqlquery.QueryNode, error) {
	children := make([]sqlquery.QueryNode, 0, len(inputs))
	for _, input := range inputs {
		child, err := b.compile(input)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return sqlquery.NewUnionQuery(children, declared, b.aliases.Next()), nil
}

// compileExpand rewrites an Expand into a union over one synthesized
// projection per projection set, each re-expressed against the declared
// output: elements that are not already named adopt the corresponding
// output attribute's name.
func (b *buildContext) compileExpand(node *plan.Expand) (sqlquery.QueryNode, error) {
	output := node.Output()
	branches := make([]plan.Node, 0, len(node.Projections))
	for _, set := range node.Projections {
		if len(set) != len(output) {
			return nil, defectf("expand projection set has %d elements for %d output attributes", len(set), len(output))
		}
		named := make([]expr.Named, len(set))
		for i, e := range set {
			if ne, ok := e.(expr.Named); ok {
				named[i] = ne
				continue
			}
			named[i] = expr.As(e, output[i].Name)
		}
		branches = append(branches, &plan.Project{Projections: named, Input: node.Input})
	}

	var declared []expr.Attribute
	if len(output) > 0 {
		declared = output
	}
	return b.compileUnion(branches, declared)
}
