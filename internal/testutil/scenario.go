package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/sqlrelay/pushdown/internal/expr"
	"github.com/sqlrelay/pushdown/internal/plan"
	"github.com/sqlrelay/pushdown/internal/sqlquery"
)

// Scenario is one plan fixture: table schemas plus a plan tree over them.
type Scenario struct {
	// Name uniquely identifies the scenario; golden files use it.
	Name string `yaml:"name"`

	// Tables maps table name to its declared column schema.
	Tables map[string][]AttrSpec `yaml:"tables"`

	// Plan is the root node specification.
	Plan NodeSpec `yaml:"plan"`
}

// AttrSpec declares one column of a fixture table.
type AttrSpec struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Nullable bool   `yaml:"nullable,omitempty"`
}

// NodeSpec describes one plan node. Kind selects the variant; the other
// fields are read per kind.
type NodeSpec struct {
	Kind string `yaml:"kind"`

	// scan
	Table string `yaml:"table,omitempty"`

	// filter, join
	Condition *ExprSpec `yaml:"condition,omitempty"`

	// project
	Columns []ColumnSpec `yaml:"columns,omitempty"`

	// aggregate
	GroupBy    []string  `yaml:"group_by,omitempty"`
	Aggregates []AggSpec `yaml:"aggregates,omitempty"`

	// sort
	Order  []OrderSpec `yaml:"order,omitempty"`
	Global bool        `yaml:"global,omitempty"`

	// limit
	Count *int64 `yaml:"count,omitempty"`

	// window
	Windows []WindowSpec `yaml:"windows,omitempty"`

	// join
	Join string `yaml:"join,omitempty"`

	Input  *NodeSpec  `yaml:"input,omitempty"`
	Left   *NodeSpec  `yaml:"left,omitempty"`
	Right  *NodeSpec  `yaml:"right,omitempty"`
	Inputs []NodeSpec `yaml:"inputs,omitempty"`
}

// ExprSpec describes a predicate: either a single comparison or a
// conjunction of nested specs under All. The right-hand side is a literal
// Value, or another column when RightColumn is set (join conditions).
type ExprSpec struct {
	Column      string     `yaml:"column,omitempty"`
	Op          string     `yaml:"op,omitempty"`
	Value       any        `yaml:"value,omitempty"`
	RightColumn string     `yaml:"right_column,omitempty"`
	All         []ExprSpec `yaml:"all,omitempty"`
}

// ColumnSpec is one projection entry.
type ColumnSpec struct {
	Column string `yaml:"column"`
	As     string `yaml:"as,omitempty"`
}

// AggSpec is one aggregate list entry.
type AggSpec struct {
	Fn       string `yaml:"fn"`
	Column   string `yaml:"column,omitempty"`
	Distinct bool   `yaml:"distinct,omitempty"`
	As       string `yaml:"as"`
}

// OrderSpec is one ORDER BY entry.
type OrderSpec struct {
	Column string `yaml:"column"`
	Desc   bool   `yaml:"desc,omitempty"`
}

// WindowSpec is one window expression. Fn is rendered verbatim; Column is
// the optional function argument. Type defaults to integer, which fits the
// ranking functions the fixtures use.
type WindowSpec struct {
	Fn          string      `yaml:"fn"`
	Column      string      `yaml:"column,omitempty"`
	PartitionBy []string    `yaml:"partition_by,omitempty"`
	Order       []OrderSpec `yaml:"order,omitempty"`
	Type        string      `yaml:"type,omitempty"`
	As          string      `yaml:"as"`
}

// LoadScenario reads and decodes one scenario file. Unknown YAML fields
// are rejected so fixture typos fail fast.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var s Scenario
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s has no name", path)
	}
	return &s, nil
}

// LoadScenarios reads every *.yaml scenario under dir, sorted by filename
// for deterministic test order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// Build converts the scenario's plan spec into a plan tree. Scans resolve
// through resolve, so callers decide whether relations point at a live
// store or are render-only.
func (s *Scenario) Build(resolve func(table string) *sqlquery.Relation) (plan.Node, error) {
	return s.buildNode(&s.Plan, resolve)
}

func (s *Scenario) buildNode(spec *NodeSpec, resolve func(table string) *sqlquery.Relation) (plan.Node, error) {
	switch spec.Kind {
	case "scan":
		attrs, ok := s.Tables[spec.Table]
		if !ok {
			return nil, fmt.Errorf("scan references undeclared table %q", spec.Table)
		}
		schema := make([]expr.Attribute, len(attrs))
		for i, a := range attrs {
			typ, err := parseType(a.Type)
			if err != nil {
				return nil, err
			}
			schema[i] = expr.Attribute{Name: a.Name, Type: typ, Nullable: a.Nullable}
		}
		return &plan.Scan{Relation: resolve(spec.Table), Schema: schema}, nil

	case "filter":
		input, err := s.buildNode(spec.Input, resolve)
		if err != nil {
			return nil, err
		}
		cond, err := buildExpr(spec.Condition, input.Output())
		if err != nil {
			return nil, err
		}
		return &plan.Filter{Condition: cond, Input: input}, nil

	case "project":
		input, err := s.buildNode(spec.Input, resolve)
		if err != nil {
			return nil, err
		}
		cols := make([]expr.Named, len(spec.Columns))
		for i, c := range spec.Columns {
			col, err := lookupColumn(c.Column, input.Output())
			if err != nil {
				return nil, err
			}
			if c.As != "" && c.As != c.Column {
				cols[i] = expr.As(col, c.As)
			} else {
				cols[i] = col
			}
		}
		return &plan.Project{Projections: cols, Input: input}, nil

	case "aggregate":
		input, err := s.buildNode(spec.Input, resolve)
		if err != nil {
			return nil, err
		}
		groups := make([]expr.Expression, len(spec.GroupBy))
		for i, name := range spec.GroupBy {
			col, err := lookupColumn(name, input.Output())
			if err != nil {
				return nil, err
			}
			groups[i] = col
		}
		aggs := make([]expr.Named, len(spec.Aggregates))
		for i, a := range spec.Aggregates {
			agg, err := buildAggregate(a, input.Output())
			if err != nil {
				return nil, err
			}
			aggs[i] = agg
		}
		return &plan.Aggregate{GroupBy: groups, Aggregates: aggs, Input: input}, nil

	case "sort":
		input, err := s.buildNode(spec.Input, resolve)
		if err != nil {
			return nil, err
		}
		order, err := buildOrder(spec.Order, input.Output())
		if err != nil {
			return nil, err
		}
		return &plan.Sort{Order: order, Global: spec.Global, Input: input}, nil

	case "limit":
		input, err := s.buildNode(spec.Input, resolve)
		if err != nil {
			return nil, err
		}
		if spec.Count == nil {
			return nil, fmt.Errorf("limit node has no count")
		}
		return &plan.Limit{Count: expr.Int(*spec.Count), Input: input}, nil

	case "window":
		input, err := s.buildNode(spec.Input, resolve)
		if err != nil {
			return nil, err
		}
		windows := make([]expr.Named, len(spec.Windows))
		for i, w := range spec.Windows {
			win, err := buildWindow(w, input.Output())
			if err != nil {
				return nil, err
			}
			windows[i] = win
		}
		return &plan.Window{WindowExprs: windows, Input: input}, nil

	case "join":
		left, err := s.buildNode(spec.Left, resolve)
		if err != nil {
			return nil, err
		}
		right, err := s.buildNode(spec.Right, resolve)
		if err != nil {
			return nil, err
		}
		kind, err := parseJoinKind(spec.Join)
		if err != nil {
			return nil, err
		}
		scope := append(append([]expr.Attribute{}, left.Output()...), right.Output()...)
		var cond expr.Expression
		if spec.Condition != nil {
			cond, err = buildExpr(spec.Condition, scope)
			if err != nil {
				return nil, err
			}
		}
		return &plan.Join{LeftInput: left, RightInput: right, Kind: kind, Condition: cond}, nil

	case "union":
		inputs := make([]plan.Node, len(spec.Inputs))
		for i := range spec.Inputs {
			input, err := s.buildNode(&spec.Inputs[i], resolve)
			if err != nil {
				return nil, err
			}
			inputs[i] = input
		}
		return &plan.Union{Inputs: inputs}, nil

	default:
		return nil, fmt.Errorf("unknown plan node kind %q", spec.Kind)
	}
}

func buildExpr(spec *ExprSpec, scope []expr.Attribute) (expr.Expression, error) {
	if spec == nil {
		return nil, fmt.Errorf("missing condition")
	}
	if len(spec.All) > 0 {
		preds := make([]expr.Expression, len(spec.All))
		for i := range spec.All {
			p, err := buildExpr(&spec.All[i], scope)
			if err != nil {
				return nil, err
			}
			preds[i] = p
		}
		return expr.And(preds...), nil
	}

	col, err := lookupColumn(spec.Column, scope)
	if err != nil {
		return nil, err
	}
	op, err := parseOp(spec.Op)
	if err != nil {
		return nil, err
	}
	if spec.RightColumn != "" {
		right, err := lookupColumn(spec.RightColumn, scope)
		if err != nil {
			return nil, err
		}
		return expr.Cmp(col, op, right), nil
	}
	lit, err := literalOf(spec.Value)
	if err != nil {
		return nil, err
	}
	return expr.Cmp(col, op, lit), nil
}

func buildAggregate(spec AggSpec, scope []expr.Attribute) (expr.Named, error) {
	fn, err := parseAggFunc(spec.Fn)
	if err != nil {
		return nil, err
	}
	if spec.As == "" {
		return nil, fmt.Errorf("aggregate %s has no output name", spec.Fn)
	}
	var arg expr.Expression
	if spec.Column != "" {
		col, err := lookupColumn(spec.Column, scope)
		if err != nil {
			return nil, err
		}
		arg = col
	}
	call := expr.Agg(fn, arg)
	if spec.Distinct {
		call = expr.AggDistinct(fn, arg)
	}
	return expr.As(call, spec.As), nil
}

func buildWindow(spec WindowSpec, scope []expr.Attribute) (expr.Named, error) {
	if spec.As == "" {
		return nil, fmt.Errorf("window %s has no output name", spec.Fn)
	}
	var args []expr.Expression
	if spec.Column != "" {
		col, err := lookupColumn(spec.Column, scope)
		if err != nil {
			return nil, err
		}
		args = append(args, col)
	}
	partitionBy := make([]expr.Expression, len(spec.PartitionBy))
	for i, name := range spec.PartitionBy {
		col, err := lookupColumn(name, scope)
		if err != nil {
			return nil, err
		}
		partitionBy[i] = col
	}
	order, err := buildOrder(spec.Order, scope)
	if err != nil {
		return nil, err
	}
	typ := expr.TypeInteger
	if spec.Type != "" {
		typ, err = parseType(spec.Type)
		if err != nil {
			return nil, err
		}
	}
	return expr.As(expr.Window(spec.Fn, args, partitionBy, order, typ), spec.As), nil
}

func buildOrder(specs []OrderSpec, scope []expr.Attribute) ([]expr.SortOrder, error) {
	order := make([]expr.SortOrder, len(specs))
	for i, o := range specs {
		col, err := lookupColumn(o.Column, scope)
		if err != nil {
			return nil, err
		}
		if o.Desc {
			order[i] = expr.Desc(col)
		} else {
			order[i] = expr.Asc(col)
		}
	}
	return order, nil
}

func lookupColumn(name string, scope []expr.Attribute) (expr.Column, error) {
	for _, attr := range scope {
		if attr.Name == name {
			return expr.Col(attr.Name, attr.Type, attr.Nullable), nil
		}
	}
	return expr.Column{}, fmt.Errorf("column %q not found in scope", name)
}

func literalOf(value any) (expr.Expression, error) {
	switch v := value.(type) {
	case int:
		return expr.Int(int64(v)), nil
	case int64:
		return expr.Int(v), nil
	case string:
		return expr.Str(v), nil
	case bool:
		return expr.Lit(v, expr.TypeBoolean), nil
	case float64:
		return expr.Lit(v, expr.TypeFloat), nil
	default:
		return nil, fmt.Errorf("unsupported literal %v (%T)", value, value)
	}
}

func parseType(name string) (expr.DataType, error) {
	switch expr.DataType(name) {
	case expr.TypeString, expr.TypeInteger, expr.TypeFloat, expr.TypeBoolean, expr.TypeTimestamp:
		return expr.DataType(name), nil
	default:
		return "", fmt.Errorf("unknown attribute type %q", name)
	}
}

func parseOp(op string) (expr.CompareOp, error) {
	switch expr.CompareOp(op) {
	case expr.OpEq, expr.OpNe, expr.OpLt, expr.OpLe, expr.OpGt, expr.OpGe:
		return expr.CompareOp(op), nil
	default:
		return "", fmt.Errorf("unknown comparison operator %q", op)
	}
}

func parseAggFunc(fn string) (expr.AggFunc, error) {
	switch expr.AggFunc(fn) {
	case expr.AggCount, expr.AggSum, expr.AggAvg, expr.AggMin, expr.AggMax:
		return expr.AggFunc(fn), nil
	default:
		return "", fmt.Errorf("unknown aggregate function %q", fn)
	}
}

func parseJoinKind(kind string) (plan.JoinKind, error) {
	switch kind {
	case "inner", "":
		return plan.Inner, nil
	case "left_outer":
		return plan.LeftOuter, nil
	case "right_outer":
		return plan.RightOuter, nil
	case "full_outer":
		return plan.FullOuter, nil
	case "left_semi":
		return plan.LeftSemi, nil
	case "left_anti":
		return plan.LeftAnti, nil
	default:
		return 0, fmt.Errorf("unknown join kind %q", kind)
	}
}
