package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/metailurini/sqlhelper/apperrors"
	"github.com/metailurini/sqlhelper/csvrows"
	"github.com/metailurini/sqlhelper/sqlhelper"
)

type importOptions struct {
	prefix    string
	columns   int
	batchSize int
	suffix    string
	delimiter string
	header    bool
	useTx     bool
}

func (a *app) importCmd() *cobra.Command {
	var opts importOptions
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load a CSV file (or - for stdin) with batched multi-row INSERTs",
		Long: `import reads CSV records and inserts them with one statement per batch:

  PREFIX VALUES (?, ...), (?, ...) SUFFIX

Every record must have exactly --columns fields. A malformed record stops the
import before its pending batch runs. Without --tx, batches that ran before a
failure stay committed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("batch-size") {
				opts.batchSize = a.cfg.Bulk.BatchSize
			}
			if !cmd.Flags().Changed("suffix") {
				opts.suffix = a.cfg.Bulk.Suffix
			}
			return a.runImport(cmd.Context(), cmd.InOrStdin(), args[0], opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.prefix, "prefix", "", `statement before VALUES, e.g. "INSERT INTO t (a, b)"`)
	flags.IntVar(&opts.columns, "columns", 0, "values per row")
	flags.IntVar(&opts.batchSize, "batch-size", 0, "rows per statement (default from config, 1500)")
	flags.StringVar(&opts.suffix, "suffix", "", "text appended after the VALUES clause")
	flags.StringVar(&opts.delimiter, "delimiter", ",", "field delimiter")
	flags.BoolVar(&opts.header, "header", false, "skip the first record")
	flags.BoolVar(&opts.useTx, "tx", false, "run every batch in one transaction")
	_ = cmd.MarkFlagRequired("prefix")
	_ = cmd.MarkFlagRequired("columns")
	return cmd
}

func (a *app) runImport(ctx context.Context, stdin io.Reader, path string, opts importOptions) error {
	if utf8.RuneCountInString(opts.delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character: %w", apperrors.ErrInvalidArgument)
	}
	comma, _ := utf8.DecodeRuneInString(opts.delimiter)

	in := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer a.closeDB(db)

	reader := csvrows.NewReader(in, csvrows.Options{Comma: comma, SkipHeader: opts.header})
	insert := func(conn sqlhelper.Conn) error {
		return sqlhelper.BulkInsertFrom(ctx, conn, opts.prefix, reader.All(), opts.columns, sqlhelper.BulkOptions{
			BatchSize: opts.batchSize,
			Suffix:    opts.suffix,
			Logger:    a.logger,
		})
	}

	if opts.useTx {
		err = withTx(ctx, db, func(tx *sql.Tx) error { return insert(tx) })
	} else {
		err = insert(db)
	}
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}

	rows := reader.Records()
	if opts.header && rows > 0 {
		rows--
	}
	a.logger.Info("import finished", "file", path, "rows", rows, "transaction", opts.useTx)
	return nil
}

func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	panicked := true
	defer func() {
		if panicked || err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(tx)
	panicked = false
	return err
}
