package sqlhelper

import (
	"database/sql"
	"errors"
)

// Cursor is a live result set returned by Query. It owns both the rows and
// the prepared statement that produced them; the caller must call Close.
//
// Next, Scan, Columns and Err come from the embedded *sql.Rows.
type Cursor struct {
	*sql.Rows
	stmt   *sql.Stmt
	closed bool
}

// Close releases the rows and then the statement. Calling Close more than
// once is a no-op.
func (c *Cursor) Close() error {
	if c == nil || c.closed {
		return nil
	}
	c.closed = true
	return errors.Join(c.Rows.Close(), c.stmt.Close())
}

// Strings scans the current row into strings, one per column. SQL NULL
// becomes "".
func (c *Cursor) Strings() ([]string, error) {
	cols, err := c.Rows.Columns()
	if err != nil {
		return nil, err
	}
	vals, err := scanStrings(c.Rows, len(cols))
	if err != nil {
		return nil, err
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.String
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanStrings reads n columns of the current row through the driver's
// textual conversion.
func scanStrings(row rowScanner, n int) ([]sql.NullString, error) {
	vals := make([]sql.NullString, n)
	dest := make([]any, n)
	for i := range vals {
		dest[i] = &vals[i]
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return vals, nil
}
