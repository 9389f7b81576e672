// Package csvrows streams CSV records as sqlhelper rows.
package csvrows

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/metailurini/sqlhelper/sqlhelper"
)

// Options controls how records are read.
type Options struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
	// SkipHeader drops the first record.
	SkipHeader bool
}

// Reader yields CSV records one at a time. A read error ends the sequence
// and is also kept for Err.
type Reader struct {
	r    *csv.Reader
	opts Options
	line int
	err  error
}

// NewReader wraps r. Record width is not enforced here; sqlhelper.BulkInsert
// rejects rows whose width differs from its column count.
func NewReader(r io.Reader, opts Options) *Reader {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.FieldsPerRecord = -1
	return &Reader{r: cr, opts: opts}
}

// All returns the records as a single-use sequence. A read error is yielded
// once with a nil row and ends the sequence.
func (r *Reader) All() iter.Seq2[sqlhelper.Row, error] {
	return func(yield func(sqlhelper.Row, error) bool) {
		for {
			rec, err := r.r.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				r.err = fmt.Errorf("read csv record %d: %w", r.line+1, err)
				yield(nil, r.err)
				return
			}
			r.line++
			if r.line == 1 && r.opts.SkipHeader {
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Rows is All without the error; a read error ends the sequence early and
// must be checked with Err.
func (r *Reader) Rows() iter.Seq[sqlhelper.Row] {
	return func(yield func(sqlhelper.Row) bool) {
		for rec, err := range r.All() {
			if err != nil || !yield(rec) {
				return
			}
		}
	}
}

// Records reports how many records were read, header included.
func (r *Reader) Records() int { return r.line }

// Err returns the first read error, if any.
func (r *Reader) Err() error { return r.err }
