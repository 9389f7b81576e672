package sqlhelper

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/metailurini/sqlhelper/apperrors"
)

// DefaultBatchSize is the number of rows bound into one INSERT when
// BulkOptions.BatchSize is zero.
const DefaultBatchSize = 1500

// Row is one record of positional string values.
type Row = []string

// BulkOptions configures BulkInsert. The zero value selects the defaults.
type BulkOptions struct {
	// BatchSize caps the rows per statement; 0 means DefaultBatchSize.
	BatchSize int
	// Suffix is appended after the VALUES clause, e.g. "ON CONFLICT DO NOTHING".
	Suffix string
	Logger *slog.Logger
}

func (o BulkOptions) normalize(columnCount int) (BulkOptions, error) {
	if columnCount < 1 {
		return o, fmt.Errorf("column count must be >= 1, got %d: %w", columnCount, apperrors.ErrInvalidArgument)
	}
	if o.BatchSize < 0 {
		return o, fmt.Errorf("batch size must be >= 0, got %d: %w", o.BatchSize, apperrors.ErrInvalidArgument)
	}
	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o, nil
}

// BulkInsert drains rows into batches of at most opts.BatchSize and executes
// one multi-row INSERT per batch:
//
//	prefix + " " + ValuesClause(n, columnCount) + " " + opts.Suffix
//
// Values are bound row-major. Empty input runs no statement. The first failing
// batch aborts the call; batches already executed are not rolled back, so
// callers wanting atomicity pass a *sql.Tx as conn.
func BulkInsert(ctx context.Context, conn Conn, prefix string, rows iter.Seq[Row], columnCount int, opts BulkOptions) error {
	return BulkInsertFrom(ctx, conn, prefix, func(yield func(Row, error) bool) {
		for row := range rows {
			if !yield(row, nil) {
				return
			}
		}
	}, columnCount, opts)
}

// BulkInsertFrom is BulkInsert over a source that can fail. A source error
// aborts the call before the pending partial batch is executed.
func BulkInsertFrom(ctx context.Context, conn Conn, prefix string, rows iter.Seq2[Row, error], columnCount int, opts BulkOptions) error {
	opts, err := opts.normalize(columnCount)
	if err != nil {
		return err
	}

	var (
		batch = make([]Row, 0, min(opts.BatchSize, DefaultBatchSize))
		index int
		seen  int
	)
	for row, err := range rows {
		if err != nil {
			return fmt.Errorf("read row %d: %w", seen, err)
		}
		if len(row) != columnCount {
			return fmt.Errorf("row %d has %d values, want %d: %w", seen, len(row), columnCount, ErrRowWidth)
		}
		seen++
		batch = append(batch, row)
		if len(batch) < opts.BatchSize {
			continue
		}
		if err := execBatch(ctx, conn, prefix, batch, columnCount, index, opts); err != nil {
			return err
		}
		index++
		batch = batch[:0]
	}
	if len(batch) > 0 {
		if err := execBatch(ctx, conn, prefix, batch, columnCount, index, opts); err != nil {
			return err
		}
		index++
	}
	opts.Logger.Debug("bulk insert finished", "rows", seen, "batches", index)
	return nil
}

// BulkInsertRows is BulkInsert over an in-memory slice.
func BulkInsertRows(ctx context.Context, conn Conn, prefix string, rows [][]string, columnCount int, opts BulkOptions) error {
	return BulkInsert(ctx, conn, prefix, slices.Values(rows), columnCount, opts)
}

func execBatch(ctx context.Context, conn Conn, prefix string, batch []Row, columnCount, index int, opts BulkOptions) error {
	query := BatchStatement(prefix, len(batch), columnCount, opts.Suffix)

	stmt, err := conn.PrepareContext(ctx, query)
	if err != nil {
		return &StatementError{Op: OpPrepare, Query: query, Batch: index, Err: err}
	}
	defer stmt.Close()

	args := make([]any, 0, len(batch)*columnCount)
	for _, row := range batch {
		for _, v := range row {
			args = append(args, v)
		}
	}
	if _, err := stmt.ExecContext(ctx, args...); err != nil {
		return &StatementError{Op: OpExec, Query: query, Batch: index, Err: err}
	}
	opts.Logger.Debug("bulk insert batch executed", "batch", index, "rows", len(batch))
	return nil
}
