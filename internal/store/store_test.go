package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlrelay/pushdown/internal/expr"
	"github.com/sqlrelay/pushdown/internal/plan"
	"github.com/sqlrelay/pushdown/internal/store"
	"github.com/sqlrelay/pushdown/internal/translate"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "pushdown.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedEvents(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Exec(ctx, `CREATE TABLE events (id INTEGER, level TEXT, size INTEGER)`))
	rows := [][]any{
		{1, "error", 120},
		{2, "warn", 40},
		{3, "error", 7},
	}
	for _, row := range rows {
		require.NoError(t, s.Exec(ctx, `INSERT INTO events VALUES (?, ?, ?)`, row...))
	}
}

func eventsSchema() []expr.Attribute {
	return []expr.Attribute{
		{Name: "id", Type: expr.TypeInteger},
		{Name: "level", Type: expr.TypeString},
		{Name: "size", Type: expr.TypeInteger},
	}
}

func TestOpen_MissingDirectory(t *testing.T) {
	_, err := store.Open(filepath.Join(t.TempDir(), "no-such-dir", "pushdown.db"))
	require.Error(t, err)
}

func TestExec_InvalidSQL(t *testing.T) {
	s := openStore(t)
	err := s.Exec(context.Background(), `CREATE NONSENSE`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exec:")
}

func TestScan_ComposedStatement(t *testing.T) {
	s := openStore(t)
	seedEvents(t, s)

	p := &plan.Filter{
		Condition: expr.Eq(expr.Col("level", expr.TypeString, false), expr.Str("error")),
		Input:     &plan.Scan{Relation: s.Relation("events"), Schema: eventsSchema()},
	}

	tr := translate.New(p)
	rows, err := tr.Rows(context.Background())
	require.NoError(t, err, "cause: %v", tr.RootCause())
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var (
			id    int64
			level string
			size  int64
		)
		require.NoError(t, rows.Scan(&id, &level, &size))
		assert.Equal(t, "error", level)
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []int64{1, 3}, ids)
}

func TestScan_SortLimitPushdown(t *testing.T) {
	s := openStore(t)
	seedEvents(t, s)

	p := &plan.Limit{
		Count: expr.Int(2),
		Input: &plan.Sort{
			Order:  []expr.SortOrder{expr.Desc(expr.Col("size", expr.TypeInteger, false))},
			Global: true,
			Input:  &plan.Scan{Relation: s.Relation("events"), Schema: eventsSchema()},
		},
	}

	tr := translate.New(p)
	rows, err := tr.Rows(context.Background())
	require.NoError(t, err, "cause: %v", tr.RootCause())
	defer rows.Close()

	var sizes []int64
	for rows.Next() {
		var (
			id    int64
			level string
			size  int64
		)
		require.NoError(t, rows.Scan(&id, &level, &size))
		sizes = append(sizes, size)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []int64{120, 40}, sizes)
}

func TestScan_AggregatePushdown(t *testing.T) {
	s := openStore(t)
	seedEvents(t, s)

	scan := &plan.Scan{Relation: s.Relation("events"), Schema: eventsSchema()}
	p := &plan.Aggregate{
		GroupBy:    []expr.Expression{expr.Col("level", expr.TypeString, false)},
		Aggregates: []expr.Named{expr.As(expr.Agg(expr.AggCount, nil), "n")},
		Input:      scan,
	}

	tr := translate.New(p)
	rows, err := tr.Rows(context.Background())
	require.NoError(t, err, "cause: %v", tr.RootCause())
	defer rows.Close()

	// Grouped output carries only the aggregate list, one count per level.
	var total int64
	for rows.Next() {
		var n int64
		require.NoError(t, rows.Scan(&n))
		total += n
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, int64(3), total)
}

func TestRelation_WiredScanner(t *testing.T) {
	s := openStore(t)
	rel := s.Relation("events")
	assert.Equal(t, "events", rel.Name())
	assert.NotNil(t, rel.Scanner)
}
