package sqlhelper

import (
	"context"
)

// Query prepares query, binds params positionally and returns the live
// result. Ownership of the statement and the rows passes to the caller,
// who must Close the returned Cursor. On failure nothing is leaked.
func Query(ctx context.Context, conn Conn, query string, params ...string) (*Cursor, error) {
	stmt, err := conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, statementErr(OpPrepare, query, err)
	}
	rows, err := stmt.QueryContext(ctx, bindArgs(params)...)
	if err != nil {
		_ = stmt.Close()
		return nil, statementErr(OpQuery, query, err)
	}
	return &Cursor{Rows: rows, stmt: stmt}, nil
}

// QueryScalar returns the first column of the first row. ok is false when
// the query yields no rows or that column is NULL. Only the first row is
// ever read.
func QueryScalar(ctx context.Context, conn Conn, query string, params ...string) (value string, ok bool, err error) {
	stmt, err := conn.PrepareContext(ctx, query)
	if err != nil {
		return "", false, statementErr(OpPrepare, query, err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, bindArgs(params)...)
	if err != nil {
		return "", false, statementErr(OpQuery, query, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", false, statementErr(OpQuery, query, err)
		}
		return "", false, nil
	}
	cols, err := rows.Columns()
	if err != nil {
		return "", false, statementErr(OpQuery, query, err)
	}
	vals, err := scanStrings(rows, len(cols))
	if err != nil {
		return "", false, statementErr(OpScan, query, err)
	}
	if len(vals) == 0 || !vals[0].Valid {
		return "", false, nil
	}
	return vals[0].String, true, nil
}

// Execute runs query for its side effects and discards any result.
func Execute(ctx context.Context, conn Conn, query string, params ...string) error {
	stmt, err := conn.PrepareContext(ctx, query)
	if err != nil {
		return statementErr(OpPrepare, query, err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, bindArgs(params)...); err != nil {
		return statementErr(OpExec, query, err)
	}
	return nil
}
