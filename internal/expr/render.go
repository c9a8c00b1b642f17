package expr

import (
	"fmt"
	"strings"
)

// QuoteIdent quotes an identifier for inclusion in SQL text.
// Embedded quotes are doubled per the SQL standard.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Render converts an expression to a parameterized SQL fragment.
// Returns (sql, args, error). Literal values are emitted as ? placeholders
// with the value appended to args in rendering order - values are never
// interpolated into the SQL text.
func Render(e Expression) (string, []any, error) {
	switch e := e.(type) {
	case Column:
		if e.qualifier != "" {
			return QuoteIdent(e.qualifier) + "." + QuoteIdent(e.name), nil, nil
		}
		return QuoteIdent(e.name), nil, nil
	case Literal:
		return "?", []any{e.value}, nil
	case Alias:
		// A bare alias in a scalar position renders as its wrapped
		// expression; the AS clause belongs to select lists only.
		return Render(e.expr)
	case Compare:
		return renderCompare(e)
	case Conjunction:
		return renderJunction(e.preds, " AND ", false)
	case Disjunction:
		return renderJunction(e.preds, " OR ", true)
	case Negation:
		sql, args, err := Render(e.pred)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", args, nil
	case NullCheck:
		sql, args, err := Render(e.expr)
		if err != nil {
			return "", nil, err
		}
		if e.negated {
			return sql + " IS NOT NULL", args, nil
		}
		return sql + " IS NULL", args, nil
	case AggregateCall:
		return renderAggregate(e)
	case WindowCall:
		return renderWindow(e)
	default:
		return "", nil, fmt.Errorf("unsupported expression type: %T", e)
	}
}

// RenderNamed renders a select-list entry, attaching an AS clause when the
// rendered text does not already read as the attribute name.
func RenderNamed(e Named) (string, []any, error) {
	switch e := e.(type) {
	case Column:
		sql, args, err := Render(e)
		return sql, args, err
	case Alias:
		sql, args, err := Render(e.expr)
		if err != nil {
			return "", nil, err
		}
		return sql + " AS " + QuoteIdent(e.name), args, nil
	default:
		return "", nil, fmt.Errorf("unsupported named expression type: %T", e)
	}
}

// RenderList renders a comma-separated expression list.
func RenderList(exprs []Expression) (string, []any, error) {
	parts := make([]string, 0, len(exprs))
	var args []any
	for _, e := range exprs {
		sql, a, err := Render(e)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		args = append(args, a...)
	}
	return strings.Join(parts, ", "), args, nil
}

// RenderNamedList renders a comma-separated select list.
func RenderNamedList(exprs []Named) (string, []any, error) {
	parts := make([]string, 0, len(exprs))
	var args []any
	for _, e := range exprs {
		sql, a, err := RenderNamed(e)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		args = append(args, a...)
	}
	return strings.Join(parts, ", "), args, nil
}

// RenderOrder renders a comma-separated ORDER BY list.
func RenderOrder(orders []SortOrder) (string, []any, error) {
	parts := make([]string, 0, len(orders))
	var args []any
	for _, o := range orders {
		sql, a, err := Render(o.expr)
		if err != nil {
			return "", nil, err
		}
		if o.descending {
			sql += " DESC"
		} else {
			sql += " ASC"
		}
		parts = append(parts, sql)
		args = append(args, a...)
	}
	return strings.Join(parts, ", "), args, nil
}

func renderCompare(c Compare) (string, []any, error) {
	left, largs, err := Render(c.left)
	if err != nil {
		return "", nil, err
	}
	right, rargs, err := Render(c.right)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("%s %s %s", left, c.op, right), append(largs, rargs...), nil
}

func renderJunction(preds []Expression, sep string, parens bool) (string, []any, error) {
	if len(preds) == 0 {
		// Vacuous truth.
		return "1 = 1", nil, nil
	}
	sql, args, err := renderJoined(preds, sep)
	if err != nil {
		return "", nil, err
	}
	if parens && len(preds) > 1 {
		sql = "(" + sql + ")"
	}
	return sql, args, nil
}

func renderJoined(exprs []Expression, sep string) (string, []any, error) {
	parts := make([]string, 0, len(exprs))
	var args []any
	for _, e := range exprs {
		sql, a, err := Render(e)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		args = append(args, a...)
	}
	return strings.Join(parts, sep), args, nil
}

func renderAggregate(a AggregateCall) (string, []any, error) {
	if a.arg == nil {
		return string(a.fn) + "(*)", nil, nil
	}
	sql, args, err := Render(a.arg)
	if err != nil {
		return "", nil, err
	}
	if a.distinct {
		return fmt.Sprintf("%s(DISTINCT %s)", a.fn, sql), args, nil
	}
	return fmt.Sprintf("%s(%s)", a.fn, sql), args, nil
}

func renderWindow(w WindowCall) (string, []any, error) {
	argSQL, args, err := RenderList(w.args)
	if err != nil {
		return "", nil, err
	}

	var over []string
	if len(w.partitionBy) > 0 {
		sql, a, err := RenderList(w.partitionBy)
		if err != nil {
			return "", nil, err
		}
		over = append(over, "PARTITION BY "+sql)
		args = append(args, a...)
	}
	if len(w.orderBy) > 0 {
		sql, a, err := RenderOrder(w.orderBy)
		if err != nil {
			return "", nil, err
		}
		over = append(over, "ORDER BY "+sql)
		args = append(args, a...)
	}

	return fmt.Sprintf("%s(%s) OVER (%s)", w.function, argSQL, strings.Join(over, " ")), args, nil
}
