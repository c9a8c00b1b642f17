package sqlquery

import (
	"fmt"
	"strings"

	"github.com/sqlrelay/pushdown/internal/expr"
	"github.com/sqlrelay/pushdown/internal/plan"
)

// Argument order in every composed statement follows SQL text order: select
// list, FROM subtree, then trailing clauses.

// Statement renders a source scan.
func (q *SourceQuery) Statement() (Statement, error) {
	return Statement{SQL: "SELECT * FROM " + q.relation.QualifiedSQL()}, nil
}

// Statement renders a WHERE wrapper around the child.
func (q *FilterQuery) Statement() (Statement, error) {
	from, fromArgs, err := embed(q.child)
	if err != nil {
		return Statement{}, err
	}
	cond, condArgs, err := renderCondition(q.condition)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		SQL:  fmt.Sprintf("SELECT * FROM %s WHERE %s", from, cond),
		Args: append(fromArgs, condArgs...),
	}, nil
}

// Statement renders a select list over the child.
func (q *ProjectQuery) Statement() (Statement, error) {
	cols, colArgs, err := selectList(q.projections)
	if err != nil {
		return Statement{}, err
	}
	from, fromArgs, err := embed(q.child)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		SQL:  fmt.Sprintf("SELECT %s FROM %s", cols, from),
		Args: append(colArgs, fromArgs...),
	}, nil
}

// Statement renders an aggregate list with an optional GROUP BY.
func (q *AggregateQuery) Statement() (Statement, error) {
	cols, colArgs, err := selectList(q.aggregates)
	if err != nil {
		return Statement{}, err
	}
	from, fromArgs, err := embed(q.child)
	if err != nil {
		return Statement{}, err
	}
	sql := fmt.Sprintf("SELECT %s FROM %s", cols, from)
	args := append(colArgs, fromArgs...)
	if len(q.groupBy) > 0 {
		groups, groupArgs, err := expr.RenderList(q.groupBy)
		if err != nil {
			return Statement{}, err
		}
		sql += " GROUP BY " + groups
		args = append(args, groupArgs...)
	}
	return Statement{SQL: sql, Args: args}, nil
}

// Statement renders ORDER BY and LIMIT clauses around the child.
func (q *SortLimitQuery) Statement() (Statement, error) {
	from, args, err := embed(q.child)
	if err != nil {
		return Statement{}, err
	}
	sql := "SELECT * FROM " + from
	if len(q.order) > 0 {
		order, orderArgs, err := expr.RenderOrder(q.order)
		if err != nil {
			return Statement{}, err
		}
		sql += " ORDER BY " + order
		args = append(args, orderArgs...)
	}
	if q.limit != nil {
		limit, limitArgs, err := expr.Render(q.limit)
		if err != nil {
			return Statement{}, err
		}
		sql += " LIMIT " + limit
		args = append(args, limitArgs...)
	}
	return Statement{SQL: sql, Args: args}, nil
}

// Statement renders the child's columns plus the window expressions.
func (q *WindowQuery) Statement() (Statement, error) {
	parts := make([]string, 0, len(q.child.Output())+len(q.windowExprs))
	for _, attr := range q.child.Output() {
		parts = append(parts, expr.QuoteIdent(attr.Name))
	}
	var colArgs []any
	if len(q.windowExprs) > 0 {
		winCols, winArgs, err := expr.RenderNamedList(q.windowExprs)
		if err != nil {
			return Statement{}, err
		}
		parts = append(parts, winCols)
		colArgs = winArgs
	}
	from, fromArgs, err := embed(q.child)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		SQL:  fmt.Sprintf("SELECT %s FROM %s", strings.Join(parts, ", "), from),
		Args: append(colArgs, fromArgs...),
	}, nil
}

var joinSQL = map[plan.JoinKind]string{
	plan.Inner:      "INNER JOIN",
	plan.LeftOuter:  "LEFT OUTER JOIN",
	plan.RightOuter: "RIGHT OUTER JOIN",
	plan.FullOuter:  "FULL OUTER JOIN",
}

// Statement renders a two-sided join.
func (q *JoinQuery) Statement() (Statement, error) {
	kind, ok := joinSQL[q.kind]
	if !ok {
		return Statement{}, fmt.Errorf("join kind %v cannot be rendered", q.kind)
	}
	left, leftArgs, err := embed(q.left)
	if err != nil {
		return Statement{}, err
	}
	right, rightArgs, err := embed(q.right)
	if err != nil {
		return Statement{}, err
	}
	cond, condArgs, err := renderCondition(q.condition)
	if err != nil {
		return Statement{}, err
	}
	args := append(leftArgs, rightArgs...)
	return Statement{
		SQL:  fmt.Sprintf("SELECT * FROM %s %s %s ON %s", left, kind, right, cond),
		Args: append(args, condArgs...),
	}, nil
}

// Statement renders a semi join as EXISTS and an anti join as NOT EXISTS.
func (q *SemiJoinQuery) Statement() (Statement, error) {
	left, leftArgs, err := embed(q.left)
	if err != nil {
		return Statement{}, err
	}
	right, rightArgs, err := embed(q.right)
	if err != nil {
		return Statement{}, err
	}
	cond, condArgs, err := renderCondition(q.condition)
	if err != nil {
		return Statement{}, err
	}
	exists := "EXISTS"
	if q.anti {
		exists = "NOT EXISTS"
	}
	args := append(leftArgs, rightArgs...)
	return Statement{
		SQL:  fmt.Sprintf("SELECT * FROM %s WHERE %s (SELECT 1 FROM %s WHERE %s)", left, exists, right, cond),
		Args: append(args, condArgs...),
	}, nil
}

// Statement renders the children joined by UNION ALL. A childless union has
// no renderable form and fails rather than producing an empty statement.
func (q *UnionQuery) Statement() (Statement, error) {
	if len(q.children) == 0 {
		return Statement{}, fmt.Errorf("union %s has no children", q.alias)
	}
	parts := make([]string, 0, len(q.children))
	var args []any
	for _, child := range q.children {
		st, err := child.Statement()
		if err != nil {
			return Statement{}, err
		}
		parts = append(parts, "("+st.SQL+")")
		args = append(args, st.Args...)
	}
	return Statement{SQL: strings.Join(parts, " UNION ALL "), Args: args}, nil
}

// embed renders a child as a parenthesized derived table named by the
// child's alias.
func embed(child QueryNode) (string, []any, error) {
	st, err := child.Statement()
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("(%s) AS %s", st.SQL, expr.QuoteIdent(child.Alias())), st.Args, nil
}

// renderCondition renders a predicate, treating nil as vacuously true.
func renderCondition(cond expr.Expression) (string, []any, error) {
	if cond == nil {
		return "1 = 1", nil, nil
	}
	return expr.Render(cond)
}

// selectList renders a named select list. An empty list renders as the
// constant 1 so the statement stays well-formed.
func selectList(exprs []expr.Named) (string, []any, error) {
	if len(exprs) == 0 {
		return "1", nil, nil
	}
	return expr.RenderNamedList(exprs)
}
