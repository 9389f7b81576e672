// Package sqlhelper runs parameterized statements, multi-row batched
// inserts and two-column map loads over a caller-owned database/sql handle.
package sqlhelper

import (
	"context"
	"database/sql"
)

// Conn is intentionally small so *sql.DB, *sql.Conn and *sql.Tx already
// satisfy it. Every helper borrows the Conn for one call and never closes it.
type Conn interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

var (
	_ Conn = (*sql.DB)(nil)
	_ Conn = (*sql.Conn)(nil)
	_ Conn = (*sql.Tx)(nil)
)

// bindArgs converts positional string parameters into driver arguments.
// Index i of the result binds placeholder i+1.
func bindArgs(params []string) []any {
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = p
	}
	return args
}
