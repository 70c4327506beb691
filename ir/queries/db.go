// Package queries provides hand-written catalog accessors for the introspector.
//
// It mirrors the shape sqlc would generate for a set of named SQL queries
// (a Queries struct wrapping a database handle, with one method per query and
// a row struct per result shape) but is maintained by hand because the
// queries here read PostgreSQL system catalogs directly rather than
// user-defined tables, which sqlc cannot introspect.
package queries

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx, matching the subset of
// database/sql used by the generated query methods.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Queries wraps a database handle with the catalog accessors the introspector needs.
type Queries struct {
	db DBTX
}

// New returns a Queries bound to the given handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a copy of q that runs its queries against tx instead of the
// original handle, so introspection can run inside a caller-managed transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}
