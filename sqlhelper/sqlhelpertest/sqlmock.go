// Package sqlhelpertest wires go-sqlmock for tests of code built on
// sqlhelper.
package sqlhelpertest

import (
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// SQLMockRunner pairs a mock *sql.DB with its expectation recorder.
type SQLMockRunner struct {
	DB   *sql.DB
	Mock sqlmock.Sqlmock
}

// NewSQLMockRunner builds a mock database matching statements verbatim.
func NewSQLMockRunner() (*SQLMockRunner, error) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		return nil, err
	}
	return &SQLMockRunner{DB: db, Mock: mock}, nil
}

// MustSQLMock returns a mock database whose expectations are verified when
// the test finishes.
func MustSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	runner, err := NewSQLMockRunner()
	if err != nil {
		t.Fatalf("failed to create sqlmock runner: %v", err)
	}
	t.Cleanup(func() {
		runner.ExpectationsWereMet(t)
	})
	return runner.DB, runner.Mock
}

// ExpectationsWereMet closes the mock database and fails t on any unmet
// expectation.
func (r *SQLMockRunner) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	r.Mock.ExpectClose()
	if err := r.DB.Close(); err != nil {
		t.Fatalf("failed to close sqlmock db: %v", err)
	}
	if err := r.Mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

// StringArgs converts positional string parameters for sqlmock's WithArgs.
func StringArgs(params ...string) []driver.Value {
	out := make([]driver.Value, len(params))
	for i, p := range params {
		out[i] = p
	}
	return out
}
