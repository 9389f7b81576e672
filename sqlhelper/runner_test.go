package sqlhelper

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metailurini/sqlhelper/sqlhelper/sqlhelpertest"
)

func TestQuery_BindsParamsAndTransfersOwnership(t *testing.T) {
	db, mock := sqlhelpertest.MustSQLMock(t)

	const q = "SELECT id, name FROM users WHERE org = ? AND role = ?"
	prep := mock.ExpectPrepare(q).WillBeClosed()
	prep.ExpectQuery().
		WithArgs("acme", "admin").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("1", "ada").AddRow("2", "bob")).
		RowsWillBeClosed()

	cur, err := Query(context.Background(), db, q, "acme", "admin")
	require.NoError(t, err)

	var names []string
	for cur.Next() {
		var id, name string
		require.NoError(t, cur.Scan(&id, &name))
		names = append(names, name)
	}
	require.NoError(t, cur.Err())
	assert.Equal(t, []string{"ada", "bob"}, names)

	require.NoError(t, cur.Close())
	require.NoError(t, cur.Close(), "second close must be a no-op")
}

func TestQuery_PrepareFailureIsStatementError(t *testing.T) {
	db, mock := sqlhelpertest.MustSQLMock(t)

	boom := errors.New("syntax error")
	mock.ExpectPrepare("SELEC 1").WillReturnError(boom)

	cur, err := Query(context.Background(), db, "SELEC 1")
	assert.Nil(t, cur)
	assert.ErrorIs(t, err, boom)

	var se *StatementError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, OpPrepare, se.Op)
	assert.Equal(t, "SELEC 1", se.Query)
	assert.Equal(t, -1, se.Batch)
}

func TestQuery_ExecutionFailureReleasesStatement(t *testing.T) {
	db, mock := sqlhelpertest.MustSQLMock(t)

	boom := errors.New("relation does not exist")
	const q = "SELECT * FROM missing WHERE id = ?"
	prep := mock.ExpectPrepare(q).WillBeClosed()
	prep.ExpectQuery().WithArgs("9").WillReturnError(boom)

	cur, err := Query(context.Background(), db, q, "9")
	assert.Nil(t, cur)
	assert.ErrorIs(t, err, boom)
	assert.True(t, IsStatementError(err))
}

func TestCursorStrings(t *testing.T) {
	db, mock := sqlhelpertest.MustSQLMock(t)

	const q = "SELECT code, qty, note FROM stock"
	prep := mock.ExpectPrepare(q).WillBeClosed()
	prep.ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"code", "qty", "note"}).AddRow("x1", int64(4), nil))

	cur, err := Query(context.Background(), db, q)
	require.NoError(t, err)
	defer cur.Close()

	require.True(t, cur.Next())
	vals, err := cur.Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"x1", "4", ""}, vals)
	assert.False(t, cur.Next())
}

func TestQueryScalar_ReturnsFirstColumnOfFirstRow(t *testing.T) {
	db, mock := sqlhelpertest.MustSQLMock(t)

	const q = "SELECT name, email FROM users WHERE org = ?"
	prep := mock.ExpectPrepare(q).WillBeClosed()
	prep.ExpectQuery().
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"name", "email"}).
			AddRow("ada", "ada@acme.test").
			AddRow("bob", "bob@acme.test")).
		RowsWillBeClosed()

	got, ok, err := QueryScalar(context.Background(), db, q, "acme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ada", got)
}

func TestQueryScalar_NoRowsIsAbsent(t *testing.T) {
	db, mock := sqlhelpertest.MustSQLMock(t)

	const q = "SELECT name FROM users WHERE id = ?"
	prep := mock.ExpectPrepare(q).WillBeClosed()
	prep.ExpectQuery().
		WithArgs("404").
		WillReturnRows(sqlmock.NewRows([]string{"name"})).
		RowsWillBeClosed()

	got, ok, err := QueryScalar(context.Background(), db, q, "404")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestQueryScalar_NullIsAbsent(t *testing.T) {
	db, mock := sqlhelpertest.MustSQLMock(t)

	const q = "SELECT max(id) FROM users"
	prep := mock.ExpectPrepare(q).WillBeClosed()
	prep.ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	got, ok, err := QueryScalar(context.Background(), db, q)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestQueryScalar_RowErrorPropagates(t *testing.T) {
	db, mock := sqlhelpertest.MustSQLMock(t)

	boom := errors.New("connection reset")
	const q = "SELECT name FROM users"
	prep := mock.ExpectPrepare(q).WillBeClosed()
	prep.ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("ada").RowError(0, boom))

	_, ok, err := QueryScalar(context.Background(), db, q)
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
	assert.True(t, IsStatementError(err))
}

func TestExecute_BindsParamsAndReleasesStatement(t *testing.T) {
	db, mock := sqlhelpertest.MustSQLMock(t)

	const q = "UPDATE users SET name = ? WHERE id = ?"
	prep := mock.ExpectPrepare(q).WillBeClosed()
	prep.ExpectExec().
		WithArgs(sqlhelpertest.StringArgs("ada", "1")...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, Execute(context.Background(), db, q, "ada", "1"))
}

func TestExecute_FailurePropagatesDriverError(t *testing.T) {
	db, mock := sqlhelpertest.MustSQLMock(t)

	boom := errors.New("unique violation")
	const q = "INSERT INTO users (name) VALUES (?)"
	prep := mock.ExpectPrepare(q).WillBeClosed()
	prep.ExpectExec().WithArgs("ada").WillReturnError(boom)

	err := Execute(context.Background(), db, q, "ada")
	assert.ErrorIs(t, err, boom)

	var se *StatementError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, OpExec, se.Op)
}
