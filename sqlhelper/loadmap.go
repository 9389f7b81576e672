package sqlhelper

import (
	"context"
)

// LoadMap runs a parameterless query projecting exactly two columns and
// returns column one mapped to column two. Later rows overwrite earlier ones
// with the same key; NULL keys and values read as "".
func LoadMap(ctx context.Context, conn Conn, query string) (map[string]string, error) {
	stmt, err := conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, statementErr(OpPrepare, query, err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, statementErr(OpQuery, query, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, statementErr(OpQuery, query, err)
	}
	if len(cols) != 2 {
		return nil, &SchemaError{Columns: len(cols)}
	}

	out := make(map[string]string)
	for rows.Next() {
		kv, err := scanStrings(rows, 2)
		if err != nil {
			return nil, statementErr(OpScan, query, err)
		}
		out[kv[0].String] = kv[1].String
	}
	if err := rows.Err(); err != nil {
		return nil, statementErr(OpQuery, query, err)
	}
	return out, nil
}
