package migrator

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/metailurini/sqlhelper/apperrors"
	"github.com/metailurini/sqlhelper/sqlhelper"
)

type stubMigrator struct {
	upCalled    bool
	closeCalled bool
	upErr       error
	sourceClose error
	dbClose     error
}

func (s *stubMigrator) Up() error {
	s.upCalled = true
	return s.upErr
}

func (s *stubMigrator) Close() (sourceErr, dbErr error) {
	s.closeCalled = true
	return s.sourceClose, s.dbClose
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stubFactory(stub *stubMigrator) Factory {
	return func(context.Context, *sql.DB, Config) (Migrator, error) { return stub, nil }
}

var testCfg = Config{Driver: "sqlite", Dir: "migrations"}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func assertClosed(t *testing.T, db *sql.DB) {
	t.Helper()
	assert.ErrorContains(t, db.PingContext(context.Background()), "database is closed")
}

func TestRunInvokesUpAndClose(t *testing.T) {
	db := openTestDB(t)
	stub := &stubMigrator{}

	err := NewRunner(stubFactory(stub)).Run(context.Background(), db, testCfg, discardLogger())
	require.NoError(t, err)
	assert.True(t, stub.upCalled, "expected Up to be called")
	assert.True(t, stub.closeCalled, "expected Close to be called")
}

func TestRunTreatsNoChangeAsSuccess(t *testing.T) {
	db := openTestDB(t)
	stub := &stubMigrator{upErr: migrate.ErrNoChange}

	err := NewRunner(stubFactory(stub)).Run(context.Background(), db, testCfg, discardLogger())
	require.NoError(t, err)
	assert.True(t, stub.upCalled && stub.closeCalled)
}

func TestRunPropagatesUpError(t *testing.T) {
	db := openTestDB(t)
	wantErr := errors.New("boom")
	stub := &stubMigrator{upErr: wantErr, sourceClose: errors.New("ignored")}

	err := NewRunner(stubFactory(stub)).Run(context.Background(), db, testCfg, discardLogger())
	assert.ErrorIs(t, err, wantErr)
	assert.True(t, stub.closeCalled)
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	db := openTestDB(t)
	stub := &stubMigrator{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewRunner(stubFactory(stub)).Run(ctx, db, testCfg, discardLogger())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, stub.upCalled)
	assert.True(t, stub.closeCalled)
}

func TestRunRequiresDirectory(t *testing.T) {
	db := openTestDB(t)
	err := NewRunner(stubFactory(&stubMigrator{})).Run(context.Background(), db, Config{Driver: "sqlite"}, discardLogger())
	assert.ErrorIs(t, err, apperrors.ErrNotConfigured)
	assertClosed(t, db)
}

func TestRunRejectsUnknownDriver(t *testing.T) {
	db := openTestDB(t)
	err := Run(context.Background(), db, Config{Driver: "mssql", Dir: t.TempDir()}, discardLogger())
	assert.ErrorIs(t, err, apperrors.ErrNotSupported)
	assertClosed(t, db)
}

func TestRunClosesHandleWhenFactoryFails(t *testing.T) {
	db := openTestDB(t)
	wantErr := errors.New("source unavailable")
	factory := func(context.Context, *sql.DB, Config) (Migrator, error) { return nil, wantErr }

	err := NewRunner(factory).Run(context.Background(), db, testCfg, discardLogger())
	assert.ErrorIs(t, err, wantErr)
	assertClosed(t, db)
}

func TestRunClosesHandleWhenSourceMissing(t *testing.T) {
	db := openTestDB(t)

	err := Run(context.Background(), db, Config{Driver: "sqlite", Dir: filepath.Join(t.TempDir(), "absent")}, discardLogger())
	assert.Error(t, err)
	assertClosed(t, db)
}

func TestRunAppliesSQLiteMigrations(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1_create_items.up.sql"),
		[]byte("CREATE TABLE items (k TEXT PRIMARY KEY, v TEXT);"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1_create_items.down.sql"),
		[]byte("DROP TABLE items;"), 0o600))

	path := filepath.Join(t.TempDir(), "m.db")
	migrateDB, err := sql.Open("sqlite", path)
	require.NoError(t, err)

	ctx := context.Background()
	cfg := Config{Driver: "sqlite", Dir: dir}
	require.NoError(t, Run(ctx, migrateDB, cfg, discardLogger()))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, sqlhelper.BulkInsertRows(ctx, db, "INSERT INTO items (k, v)",
		[][]string{{"a", "1"}, {"b", "2"}}, 2, sqlhelper.BulkOptions{Logger: discardLogger()}))
	got, err := sqlhelper.LoadMap(ctx, db, "SELECT k, v FROM items")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, got)
}
