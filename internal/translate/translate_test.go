package translate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlrelay/pushdown/internal/expr"
	"github.com/sqlrelay/pushdown/internal/plan"
	"github.com/sqlrelay/pushdown/internal/sqlquery"
	"github.com/sqlrelay/pushdown/internal/translate"
)

// opaqueUnary is a single-child operator the translator does not recognize.
type opaqueUnary struct{ input plan.Node }

func (*opaqueUnary) Name() string               { return "Opaque" }
func (o *opaqueUnary) Output() []expr.Attribute { return o.input.Output() }
func (o *opaqueUnary) Child() plan.Node         { return o.input }

// mysteryLeaf is a leaf operator outside the grammar.
type mysteryLeaf struct{}

func (*mysteryLeaf) Name() string             { return "Mystery" }
func (*mysteryLeaf) Output() []expr.Attribute { return nil }

// opaqueBinary is a two-child operator outside the grammar.
type opaqueBinary struct{ left, right plan.Node }

func (*opaqueBinary) Name() string               { return "Cogroup" }
func (o *opaqueBinary) Output() []expr.Attribute { return o.left.Output() }
func (o *opaqueBinary) Left() plan.Node          { return o.left }
func (o *opaqueBinary) Right() plan.Node         { return o.right }

// foreignRelation is a scan source that is not the tracked relation type.
type foreignRelation struct{}

func (foreignRelation) Name() string { return "parquet" }

// countingReporter records diagnostics.
type countingReporter struct {
	calls  int
	node   plan.Node
	cause  error
	panics bool
}

func (r *countingReporter) Report(node plan.Node, cause error) {
	r.calls++
	r.node = node
	r.cause = cause
	if r.panics {
		panic("reporter exploded")
	}
}

type emptyStream struct{}

func (emptyStream) Next() bool        { return false }
func (emptyStream) Scan(...any) error { return nil }
func (emptyStream) Err() error        { return nil }
func (emptyStream) Close() error      { return nil }

type fakeScanner struct {
	calls  int
	stmt   sqlquery.Statement
	output []expr.Attribute
}

func (f *fakeScanner) Scan(_ context.Context, stmt sqlquery.Statement, output []expr.Attribute) (sqlquery.RowStream, error) {
	f.calls++
	f.stmt = stmt
	f.output = output
	return emptyStream{}, nil
}

func trackedScan(scanner sqlquery.Scanner) *plan.Scan {
	return &plan.Scan{
		Relation: &sqlquery.Relation{Table: "events", Scanner: scanner},
		Schema: []expr.Attribute{
			{Name: "id", Type: expr.TypeInteger},
			{Name: "level", Type: expr.TypeString},
			{Name: "size", Type: expr.TypeInteger},
		},
	}
}

func level() expr.Column { return expr.Col("level", expr.TypeString, false) }
func size() expr.Column  { return expr.Col("size", expr.TypeInteger, false) }
func id() expr.Column    { return expr.Col("id", expr.TypeInteger, false) }

func TestCompile_EndToEnd(t *testing.T) {
	p := &plan.Project{
		Projections: []expr.Named{id()},
		Input: &plan.Filter{
			Condition: expr.Gt(size(), expr.Int(5)),
			Input:     trackedScan(nil),
		},
	}

	root, ok := translate.New(p).Root()
	require.True(t, ok)

	project, ok := root.(*sqlquery.ProjectQuery)
	require.True(t, ok)
	assert.Equal(t, "SUBQUERY_2", project.Alias())

	filter, ok := project.Children()[0].(*sqlquery.FilterQuery)
	require.True(t, ok)
	assert.Equal(t, "SUBQUERY_1", filter.Alias())

	source, ok := filter.Children()[0].(*sqlquery.SourceQuery)
	require.True(t, ok)
	assert.Equal(t, "SUBQUERY_0", source.Alias())
	assert.Equal(t, "events", source.Relation().Table)

	out := root.Output()
	require.Len(t, out, 1)
	assert.Equal(t, "id", out[0].Name)
}

func TestCompile_OutputMatchesPlanAtEveryLevel(t *testing.T) {
	scan := trackedScan(nil)
	filter := &plan.Filter{Condition: expr.Gt(size(), expr.Int(0)), Input: scan}
	agg := &plan.Aggregate{
		GroupBy:    []expr.Expression{level()},
		Aggregates: []expr.Named{level(), expr.As(expr.Agg(expr.AggCount, nil), "n")},
		Input:      filter,
	}

	root, ok := translate.New(agg).Root()
	require.True(t, ok)

	assert.Equal(t, agg.Output(), root.Output())
	assert.Equal(t, filter.Output(), root.Children()[0].Output())
	assert.Equal(t, scan.Output(), root.Children()[0].Children()[0].Output())
}

func TestCompile_AliasOrderLeftBeforeRight(t *testing.T) {
	join := &plan.Join{
		LeftInput:  &plan.Filter{Condition: expr.Gt(size(), expr.Int(1)), Input: trackedScan(nil)},
		RightInput: trackedScan(nil),
		Kind:       plan.Inner,
		Condition:  expr.Eq(id(), id()),
	}

	root, ok := translate.New(join).Root()
	require.True(t, ok)

	jq, ok := root.(*sqlquery.JoinQuery)
	require.True(t, ok)
	assert.Equal(t, "SUBQUERY_3", jq.Alias(), "join minted last")

	left := jq.Children()[0].(*sqlquery.FilterQuery)
	assert.Equal(t, "SUBQUERY_1", left.Alias())
	assert.Equal(t, "SUBQUERY_0", left.Children()[0].Alias())

	right := jq.Children()[1].(*sqlquery.SourceQuery)
	assert.Equal(t, "SUBQUERY_2", right.Alias(), "right subtree minted after left")
}

func TestCompile_AliasUniqueness(t *testing.T) {
	u := &plan.Union{Inputs: []plan.Node{
		&plan.Filter{Condition: expr.Eq(level(), expr.Str("a")), Input: trackedScan(nil)},
		&plan.Filter{Condition: expr.Eq(level(), expr.Str("b")), Input: trackedScan(nil)},
		trackedScan(nil),
	}}

	root, ok := translate.New(u).Root()
	require.True(t, ok)

	seen := make(map[string]bool)
	var walk func(sqlquery.QueryNode)
	walk = func(n sqlquery.QueryNode) {
		assert.False(t, seen[n.Alias()], "alias %s reused", n.Alias())
		seen[n.Alias()] = true
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(root)
	assert.Len(t, seen, 6)
}

func TestCompile_Idempotent(t *testing.T) {
	tr := translate.New(&plan.Filter{Condition: expr.Eq(level(), expr.Str("x")), Input: trackedScan(nil)})

	first, ok := tr.Root()
	require.True(t, ok)
	second, ok := tr.Root()
	require.True(t, ok)
	assert.Same(t, first, second, "two reads must observe the identical cached tree")
}

func TestCompile_JoinKindDispatch(t *testing.T) {
	build := func(kind plan.JoinKind) (sqlquery.QueryNode, error) {
		tr := translate.New(&plan.Join{
			LeftInput:  trackedScan(nil),
			RightInput: trackedScan(nil),
			Kind:       kind,
			Condition:  expr.Eq(id(), id()),
		})
		root, _ := tr.Root()
		return root, tr.RootCause()
	}

	for _, kind := range []plan.JoinKind{plan.Inner, plan.LeftOuter, plan.RightOuter, plan.FullOuter} {
		root, cause := build(kind)
		require.NoError(t, cause, kind.String())
		jq, ok := root.(*sqlquery.JoinQuery)
		require.True(t, ok, kind.String())
		assert.Equal(t, kind, jq.Kind())
	}

	root, cause := build(plan.LeftSemi)
	require.NoError(t, cause)
	semi, ok := root.(*sqlquery.SemiJoinQuery)
	require.True(t, ok)
	assert.False(t, semi.Anti())

	root, cause = build(plan.LeftAnti)
	require.NoError(t, cause)
	anti, ok := root.(*sqlquery.SemiJoinQuery)
	require.True(t, ok)
	assert.True(t, anti.Anti())

	for _, kind := range []plan.JoinKind{plan.Cross, plan.JoinKind(42)} {
		root, cause = build(kind)
		assert.Nil(t, root)
		assert.True(t, translate.IsInternalDefect(cause), "kind %v must be a defect, got %v", kind, cause)
	}
}

func TestCompile_SortLimitCollapse(t *testing.T) {
	order := []expr.SortOrder{expr.Asc(id())}

	limitOverSort := &plan.Limit{
		Count: expr.Int(10),
		Input: &plan.Sort{Order: order, Global: true, Input: trackedScan(nil)},
	}
	sortOverLimit := &plan.Sort{
		Order: order, Global: true,
		Input: &plan.Limit{Count: expr.Int(10), Input: trackedScan(nil)},
	}

	for _, p := range []plan.Node{limitOverSort, sortOverLimit} {
		root, ok := translate.New(p).Root()
		require.True(t, ok)

		sl, ok := root.(*sqlquery.SortLimitQuery)
		require.True(t, ok)
		assert.NotNil(t, sl.Limit())
		require.Len(t, sl.Order(), 1)

		// The collapsed inner node consumes no alias: source is 0, the
		// combined node is 1, regardless of nesting order.
		assert.Equal(t, "SUBQUERY_1", sl.Alias())
		source, ok := sl.Children()[0].(*sqlquery.SourceQuery)
		require.True(t, ok, "collapse must wrap the inner input directly")
		assert.Equal(t, "SUBQUERY_0", source.Alias())
	}
}

func TestCompile_GlobalSortAlone(t *testing.T) {
	p := &plan.Sort{Order: []expr.SortOrder{expr.Desc(id())}, Global: true, Input: trackedScan(nil)}
	root, ok := translate.New(p).Root()
	require.True(t, ok)

	sl, ok := root.(*sqlquery.SortLimitQuery)
	require.True(t, ok)
	assert.Nil(t, sl.Limit())
	assert.Len(t, sl.Order(), 1)
}

func TestCompile_PlainLimit(t *testing.T) {
	p := &plan.Limit{Count: expr.Int(3), Input: trackedScan(nil)}
	root, ok := translate.New(p).Root()
	require.True(t, ok)

	sl, ok := root.(*sqlquery.SortLimitQuery)
	require.True(t, ok)
	assert.NotNil(t, sl.Limit())
	assert.Empty(t, sl.Order())
}

func TestCompile_WindowDispatch(t *testing.T) {
	p := &plan.Window{
		WindowExprs: []expr.Named{expr.As(
			expr.Window("ROW_NUMBER", nil,
				[]expr.Expression{level()},
				[]expr.SortOrder{expr.Asc(id())},
				expr.TypeInteger),
			"rn",
		)},
		Input: trackedScan(nil),
	}

	root, ok := translate.New(p).Root()
	require.True(t, ok)

	w, ok := root.(*sqlquery.WindowQuery)
	require.True(t, ok)
	assert.Equal(t, "SUBQUERY_1", w.Alias())

	source, ok := w.Children()[0].(*sqlquery.SourceQuery)
	require.True(t, ok)
	assert.Equal(t, "SUBQUERY_0", source.Alias())

	// The plan node's non-empty output is attached as the declared output.
	assert.Equal(t, p.Output(), root.Output())
	require.Len(t, root.Output(), 4)
	assert.Equal(t, "rn", root.Output()[3].Name)
}

func TestCompile_NonGlobalSortPassesThrough(t *testing.T) {
	p := &plan.Sort{Order: []expr.SortOrder{expr.Asc(id())}, Global: false, Input: trackedScan(nil)}
	root, ok := translate.New(p).Root()
	require.True(t, ok)

	_, isSource := root.(*sqlquery.SourceQuery)
	assert.True(t, isSource, "non-global sort carries no pushdown contract and is dropped")
}

func TestCompile_LimitOverNonGlobalSort(t *testing.T) {
	p := &plan.Limit{
		Count: expr.Int(10),
		Input: &plan.Sort{Order: []expr.SortOrder{expr.Asc(id())}, Global: false, Input: trackedScan(nil)},
	}
	root, ok := translate.New(p).Root()
	require.True(t, ok)

	sl, ok := root.(*sqlquery.SortLimitQuery)
	require.True(t, ok)
	assert.NotNil(t, sl.Limit())
	assert.Empty(t, sl.Order(), "non-global sort order must not be pushed down")

	_, isSource := sl.Children()[0].(*sqlquery.SourceQuery)
	assert.True(t, isSource, "the non-global sort passes through")
}

func TestCompile_UnrecognizedUnaryPassesThrough(t *testing.T) {
	p := &plan.Filter{
		Condition: expr.Eq(level(), expr.Str("x")),
		Input:     &opaqueUnary{input: trackedScan(nil)},
	}
	root, ok := translate.New(p).Root()
	require.True(t, ok)

	filter, ok := root.(*sqlquery.FilterQuery)
	require.True(t, ok)
	assert.Equal(t, "SUBQUERY_1", filter.Alias(), "pass-through consumes no alias")

	_, isSource := filter.Children()[0].(*sqlquery.SourceQuery)
	assert.True(t, isSource)
}

func TestCompile_UnsupportedLeaf(t *testing.T) {
	tr := translate.New(&mysteryLeaf{})
	root, ok := tr.Root()
	assert.False(t, ok)
	assert.Nil(t, root)

	cause := tr.RootCause()
	require.True(t, translate.IsUnsupportedNode(cause))
}

func TestCompile_UnsupportedBinary(t *testing.T) {
	tr := translate.New(&opaqueBinary{left: trackedScan(nil), right: trackedScan(nil)})
	_, ok := tr.Root()
	assert.False(t, ok)
	assert.True(t, translate.IsUnsupportedNode(tr.RootCause()))
}

func TestCompile_ForeignScanIsUnsupported(t *testing.T) {
	tr := translate.New(&plan.Scan{Relation: foreignRelation{}, Schema: nil})
	_, ok := tr.Root()
	assert.False(t, ok)
	assert.True(t, translate.IsUnsupportedNode(tr.RootCause()))
}

func TestCompile_BinaryShortCircuit(t *testing.T) {
	// Left fails; the right child would panic if compiled, proving it is
	// never attempted.
	tr := translate.New(&plan.Join{
		LeftInput:  &mysteryLeaf{},
		RightInput: &panickingNode{},
		Kind:       plan.Inner,
	})
	_, ok := tr.Root()
	assert.False(t, ok)
	assert.True(t, translate.IsUnsupportedNode(tr.RootCause()),
		"left failure must propagate before the right child is touched")
}

// panickingNode trips the defect guard if the translator ever visits it.
type panickingNode struct{}

func (*panickingNode) Name() string             { return "Panic" }
func (*panickingNode) Output() []expr.Attribute { panic("right child was compiled") }
func (p *panickingNode) Child() plan.Node       { panic("right child was compiled") }

func TestCompile_ExpandRewrite(t *testing.T) {
	scan := trackedScan(nil)
	e := &plan.Expand{
		// Unnamed elements: each must adopt the declared attribute name.
		Projections: [][]expr.Expression{
			{expr.Int(1)},
			{expr.Int(2)},
		},
		Schema: []expr.Attribute{{Name: "out1", Type: expr.TypeInteger}},
		Input:  scan,
	}

	root, ok := translate.New(e).Root()
	require.True(t, ok)

	union, ok := root.(*sqlquery.UnionQuery)
	require.True(t, ok)
	require.Len(t, union.Children(), 2)
	assert.Equal(t, e.Schema, union.Output(), "declared output attaches to the rewritten union")

	aliases := make(map[string]bool)
	for _, child := range union.Children() {
		project, ok := child.(*sqlquery.ProjectQuery)
		require.True(t, ok)
		aliases[project.Alias()] = true

		out := project.Output()
		require.Len(t, out, 1)
		assert.Equal(t, "out1", out[0].Name, "unnamed elements adopt the output attribute name")

		_, isSource := project.Children()[0].(*sqlquery.SourceQuery)
		assert.True(t, isSource)
	}
	assert.Len(t, aliases, 2, "each branch gets a distinct alias")
}

func TestCompile_UnionShortCircuits(t *testing.T) {
	tr := translate.New(&plan.Union{Inputs: []plan.Node{
		trackedScan(nil),
		&mysteryLeaf{},
		&panickingNode{},
	}})
	_, ok := tr.Root()
	assert.False(t, ok)
	assert.True(t, translate.IsUnsupportedNode(tr.RootCause()))
}

func TestCompile_EmptyUnionCannotRender(t *testing.T) {
	tr := translate.New(&plan.Union{})
	_, ok := tr.Root()
	require.True(t, ok, "the degenerate union still compiles")

	_, err := tr.Statement()
	require.Error(t, err, "a childless union must not render")
}

func TestDiagnostics_GatedByTrackedRelation(t *testing.T) {
	// No tracked scan anywhere: no report.
	r := &countingReporter{}
	tr := translate.New(&mysteryLeaf{}, translate.WithReporter(r))
	_, ok := tr.Root()
	assert.False(t, ok)
	assert.Zero(t, r.calls)

	// Tracked scan present in a larger failing plan: exactly one report.
	r = &countingReporter{}
	p := &plan.Join{
		LeftInput:  trackedScan(nil),
		RightInput: &mysteryLeaf{},
		Kind:       plan.Inner,
	}
	tr = translate.New(p, translate.WithReporter(r))
	_, ok = tr.Root()
	assert.False(t, ok)
	assert.Equal(t, 1, r.calls)
	assert.Same(t, plan.Node(p), r.node)
	assert.True(t, translate.IsUnsupportedNode(r.cause))

	// Re-reads never re-report.
	tr.Root()
	_ = tr.RootCause()
	assert.Equal(t, 1, r.calls)
}

func TestDiagnostics_SuccessfulBuildNeverReports(t *testing.T) {
	r := &countingReporter{}
	tr := translate.New(trackedScan(nil), translate.WithReporter(r))
	_, ok := tr.Root()
	assert.True(t, ok)
	assert.Zero(t, r.calls)
}

func TestDiagnostics_PanickingReporterIsSwallowed(t *testing.T) {
	r := &countingReporter{panics: true}
	p := &plan.Filter{Condition: expr.Eq(level(), expr.Str("x")), Input: &plan.Filter{
		Condition: expr.Eq(level(), expr.Str("y")),
		Input:     &plan.Join{LeftInput: trackedScan(nil), RightInput: &mysteryLeaf{}, Kind: plan.Inner},
	}}
	tr := translate.New(p, translate.WithReporter(r))

	require.NotPanics(t, func() { tr.Root() })
	assert.Equal(t, 1, r.calls)
	assert.True(t, translate.IsUnsupportedNode(tr.RootCause()),
		"reporter panic must not replace the build outcome")
}

func TestAccessors_NotBuiltAfterFailure(t *testing.T) {
	tr := translate.New(&mysteryLeaf{})

	_, err := tr.OutputAttributes()
	assert.ErrorIs(t, err, translate.ErrNotBuilt)

	_, err = tr.Statement()
	assert.ErrorIs(t, err, translate.ErrNotBuilt)

	_, err = tr.Rows(context.Background())
	assert.ErrorIs(t, err, translate.ErrNotBuilt)
}

func TestRows_HandsStatementToScanner(t *testing.T) {
	scanner := &fakeScanner{}
	p := &plan.Filter{Condition: expr.Gt(size(), expr.Int(5)), Input: trackedScan(scanner)}
	tr := translate.New(p)

	stream, err := tr.Rows(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stream)

	assert.Equal(t, 1, scanner.calls)
	assert.Equal(t,
		`SELECT * FROM (SELECT * FROM "events") AS "SUBQUERY_0" WHERE "size" > ?`,
		scanner.stmt.SQL)
	assert.Equal(t, []any{int64(5)}, scanner.stmt.Args)

	attrs, err := tr.OutputAttributes()
	require.NoError(t, err)
	assert.Equal(t, attrs, scanner.output, "scanner receives the declared output schema")
}

func TestRows_MultipleSourcesIsDefect(t *testing.T) {
	scanner := &fakeScanner{}
	p := &plan.Join{
		LeftInput:  trackedScan(scanner),
		RightInput: trackedScan(scanner),
		Kind:       plan.Inner,
		Condition:  expr.Eq(id(), id()),
	}
	tr := translate.New(p)

	_, ok := tr.Root()
	require.True(t, ok, "the build itself succeeds")

	_, err := tr.Rows(context.Background())
	assert.True(t, translate.IsInternalDefect(err))
	assert.Zero(t, scanner.calls)
}

func TestRows_MissingScannerFailsPlainly(t *testing.T) {
	tr := translate.New(trackedScan(nil))
	_, err := tr.Rows(context.Background())
	require.Error(t, err)
	assert.False(t, translate.IsInternalDefect(err))
	assert.False(t, translate.IsUnsupportedNode(err))
}
