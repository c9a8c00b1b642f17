package translate

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/sqlrelay/pushdown/internal/expr"
	"github.com/sqlrelay/pushdown/internal/plan"
	"github.com/sqlrelay/pushdown/internal/sqlquery"
)

// Translator compiles one relational plan into a pushdown query tree.
//
// The compilation runs at most once per instance, on first demand, and the
// outcome is cached: every later access observes the identical tree (or the
// identical failure) with no recomputation and no re-allocation of aliases.
// The once-guard makes the first-build transition safe if a translator is
// shared across goroutines, though the intended lifecycle is build once,
// read, discard.
// Reporter is the diagnostics collaborator contract. The translator calls
// Report at most once per failed build, only when the tracked relation was
// encountered during traversal, and discards anything Report throws.
type Reporter interface {
	Report(node plan.Node, cause error)
}

type Translator struct {
	root     plan.Node
	reporter Reporter

	once    sync.Once
	tree    sqlquery.QueryNode
	failure error
}

// Option configures a Translator.
type Option func(*Translator)

// WithReporter installs a diagnostics reporter. Reports are fire-and-forget
// and sent at most once, only for failed builds that encountered the
// tracked relation; a panicking reporter never affects the build outcome.
func WithReporter(r Reporter) Option {
	return func(t *Translator) { t.reporter = r }
}

// New creates a translator over root. No work happens until the first
// access to the build outcome.
func New(root plan.Node, opts ...Option) *Translator {
	t := &Translator{root: root}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// build runs the one compilation attempt and caches the outcome.
func (t *Translator) build() {
	t.once.Do(func() {
		ctx := &buildContext{}
		tree, err := compileGuarded(ctx, t.root)
		if err != nil {
			t.failure = err
			if ctx.targetSeen {
				t.report(err)
			}
			return
		}
		t.tree = tree
	})
}

// compileGuarded converts a panic escaping the compiler into an internal
// defect so the build fails gracefully instead of unwinding the caller.
func compileGuarded(b *buildContext, root plan.Node) (tree sqlquery.QueryNode, err error) {
	defer func() {
		if r := recover(); r != nil {
			tree = nil
			err = &InternalDefectError{
				Message: fmt.Sprintf("panic during compilation: %v", r),
				Trace:   string(debug.Stack()),
			}
		}
	}()
	return b.compile(root)
}

// report forwards a failure to the diagnostics collaborator, swallowing
// anything it throws.
func (t *Translator) report(cause error) {
	if t.reporter == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	t.reporter.Report(t.root, cause)
}

// Root returns the compiled query tree, triggering the build on first
// access. ok is false when the plan could not be fully translated and the
// caller must fall back to native execution.
func (t *Translator) Root() (root sqlquery.QueryNode, ok bool) {
	t.build()
	if t.failure != nil {
		return nil, false
	}
	return t.tree, true
}

// RootCause returns the failure detail of an unsuccessful build, or nil.
// It triggers the build on first access.
func (t *Translator) RootCause() error {
	t.build()
	return t.failure
}

// OutputAttributes returns the ordered output schema of the compiled tree.
// Requesting it when the build did not succeed returns ErrNotBuilt.
func (t *Translator) OutputAttributes() ([]expr.Attribute, error) {
	t.build()
	if t.tree == nil {
		return nil, ErrNotBuilt
	}
	return t.tree.Output(), nil
}

// Statement renders the compiled tree's top-level statement. Requesting it
// when the build did not succeed returns ErrNotBuilt.
func (t *Translator) Statement() (sqlquery.Statement, error) {
	t.build()
	if t.tree == nil {
		return sqlquery.Statement{}, ErrNotBuilt
	}
	return t.tree.Statement()
}

// Rows locates the single source node of a successful build and hands the
// full composed statement plus the output schema to that source's scanner.
// Requesting rows when the build did not succeed returns ErrNotBuilt; a
// successful tree with zero or multiple source nodes is an internal defect.
func (t *Translator) Rows(ctx context.Context) (sqlquery.RowStream, error) {
	t.build()
	if t.tree == nil {
		return nil, ErrNotBuilt
	}

	sources := findSources(t.tree)
	if len(sources) != 1 {
		return nil, defectf("compiled tree has %d source nodes, want exactly 1", len(sources))
	}
	scanner := sources[0].Relation().Scanner
	if scanner == nil {
		return nil, fmt.Errorf("translate: relation %s has no scanner", sources[0].Relation().Name())
	}

	stmt, err := t.tree.Statement()
	if err != nil {
		return nil, fmt.Errorf("render statement: %w", err)
	}
	return scanner.Scan(ctx, stmt, t.tree.Output())
}

// findSources collects every SourceQuery in the tree, depth-first.
func findSources(node sqlquery.QueryNode) []*sqlquery.SourceQuery {
	if src, ok := node.(*sqlquery.SourceQuery); ok {
		return []*sqlquery.SourceQuery{src}
	}
	var sources []*sqlquery.SourceQuery
	for _, child := range node.Children() {
		sources = append(sources, findSources(child)...)
	}
	return sources
}
