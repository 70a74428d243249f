// Package csvfile reads the delimited air-quality input file row by row.
package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// ErrMalformedRow marks a line that could not be split into cells. The
// reader stays usable and the next call continues with the following line.
var ErrMalformedRow = errors.New("malformed row")

// Options controls how lines are split into cells.
type Options struct {
	Delimiter byte
	Quoting   bool // honor double-quoted cells; when false quotes are literal text
	HasHeader bool // skip the first line
}

// DefaultOptions matches the published dataset: comma separated, no quoting,
// one header line.
func DefaultOptions() Options {
	return Options{Delimiter: ',', HasHeader: true}
}

// Reader yields raw rows in file order.
// It implements pipeline.Extractor.
type Reader struct {
	closer  io.Closer
	next    func() ([]string, error)
	line    func() int
	header  bool
	started bool
}

// Open opens path for reading with opts.
func Open(path string, opts Options) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	r, err := NewReader(f, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader reads rows from src. The caller keeps ownership of src.
func NewReader(src io.Reader, opts Options) (*Reader, error) {
	if err := validateDelimiter(opts.Delimiter); err != nil {
		return nil, err
	}
	r := &Reader{header: opts.HasHeader}
	if opts.Quoting {
		r.useCSV(src, opts.Delimiter)
	} else {
		r.useSplit(src, opts.Delimiter)
	}
	return r, nil
}

// Next returns the next data row, io.EOF after the last one, or an error
// wrapping ErrMalformedRow for a line that cannot be split.
func (r *Reader) Next(ctx context.Context) (domain.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.header && !r.started {
		if _, err := r.next(); err != nil && !errors.Is(err, ErrMalformedRow) {
			return nil, err
		}
	}
	r.started = true
	cells, err := r.next()
	if err != nil {
		return nil, err
	}
	return domain.RawRow(cells), nil
}

// Line returns the 1-based line number of the row last returned by Next.
func (r *Reader) Line() int {
	return r.line()
}

// Close closes the file opened by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func (r *Reader) useCSV(src io.Reader, delim byte) {
	cr := csv.NewReader(src)
	cr.Comma = rune(delim)
	cr.FieldsPerRecord = -1
	line := 0
	r.next = func() ([]string, error) {
		rec, err := cr.Read()
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			line = perr.StartLine
			return nil, fmt.Errorf("%w: %w", ErrMalformedRow, err)
		}
		if err != nil {
			return nil, err
		}
		line, _ = cr.FieldPos(0)
		return rec, nil
	}
	r.line = func() int { return line }
}

func (r *Reader) useSplit(src io.Reader, delim byte) {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sep := string(delim)
	n := 0
	r.next = func() ([]string, error) {
		for sc.Scan() {
			n++
			text := strings.TrimSuffix(sc.Text(), "\r")
			if strings.TrimSpace(text) == "" {
				continue
			}
			return strings.Split(text, sep), nil
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read input: line %d: %w", n+1, err)
		}
		return nil, io.EOF
	}
	r.line = func() int { return n }
}

func validateDelimiter(d byte) error {
	switch d {
	case 0, '"', '\r', '\n':
		return fmt.Errorf("invalid delimiter %q", d)
	}
	if d >= 0x80 {
		return fmt.Errorf("delimiter %q is not a single-byte character", d)
	}
	return nil
}
