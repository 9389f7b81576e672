package sqlhelper

import (
	"errors"
	"fmt"
)

// ErrSchema matches any *SchemaError via errors.Is.
var ErrSchema = errors.New("sqlhelper: unexpected result shape")

// ErrRowWidth indicates a bulk insert row did not supply exactly columnCount values.
var ErrRowWidth = errors.New("sqlhelper: row width does not match column count")

// Statement operations reported in StatementError.Op.
const (
	OpPrepare = "prepare"
	OpQuery   = "query"
	OpExec    = "exec"
	OpScan    = "scan"
)

// StatementError wraps a driver failure raised while preparing, binding or
// executing a statement. The driver error is preserved for errors.Is/As.
type StatementError struct {
	Op    string
	Query string
	// Batch is the zero-based batch index for bulk inserts, -1 otherwise.
	Batch int
	Err   error
}

func (e *StatementError) Error() string {
	if e.Batch >= 0 {
		return fmt.Sprintf("sqlhelper: %s batch %d: %v", e.Op, e.Batch, e.Err)
	}
	return fmt.Sprintf("sqlhelper: %s: %v", e.Op, e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }

func statementErr(op, query string, err error) error {
	return &StatementError{Op: op, Query: query, Batch: -1, Err: err}
}

// SchemaError reports a result set whose column count does not match what
// the caller required.
type SchemaError struct {
	Columns int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sqlhelper: expected exactly two columns, got %d", e.Columns)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// IsStatementError reports whether err carries a *StatementError.
func IsStatementError(err error) bool {
	var se *StatementError
	return errors.As(err, &se)
}
