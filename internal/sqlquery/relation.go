package sqlquery

import (
	"context"

	"github.com/sqlrelay/pushdown/internal/expr"
)

// Statement is a composable SQL fragment: text plus ordered arguments for
// its ? placeholders. Values are never interpolated into SQL.
type Statement struct {
	SQL  string
	Args []any
}

// RowStream is a forward-only cursor over scan results. *database/sql.Rows
// satisfies it directly.
type RowStream interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Scanner executes a composed statement against the remote store and
// returns the resulting row stream. Implementations own connection
// handling; this package never opens connections itself.
type Scanner interface {
	Scan(ctx context.Context, stmt Statement, output []expr.Attribute) (RowStream, error)
}

// Relation identifies a pushdown-capable table on the remote store. It is
// the tracked relation type: the translator compiles a Scan into a
// SourceQuery only when the scan's relation is a *Relation.
type Relation struct {
	// Schema is the optional namespace qualifier.
	Schema string

	// Table is the table name on the remote store.
	Table string

	// Scanner executes composed statements against the store that owns
	// this relation. May be nil for render-only use.
	Scanner Scanner
}

// Name returns the display name of the relation.
func (r *Relation) Name() string {
	if r.Schema != "" {
		return r.Schema + "." + r.Table
	}
	return r.Table
}

// QualifiedSQL returns the quoted FROM-clause form of the relation.
func (r *Relation) QualifiedSQL() string {
	if r.Schema != "" {
		return expr.QuoteIdent(r.Schema) + "." + expr.QuoteIdent(r.Table)
	}
	return expr.QuoteIdent(r.Table)
}
