package catalog

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// CountRows counts the rows of the file at path by counting line
// terminators, plus one for a trailing unterminated line.
func CountRows(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	buf := make([]byte, 64*1024)
	var (
		count uint64
		last  byte = '\n'
	)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			count += uint64(bytes.Count(buf[:n], []byte{'\n'}))
			last = buf[n-1]
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("count rows in %s: %w", path, err)
		}
	}
	if last != '\n' {
		count++
	}
	return count, nil
}

// Reader streams records from a CSV source.
type Reader struct {
	f   *os.File
	csv *csv.Reader
	row uint64
}

// Open opens path for a streaming parse pass.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewReader(f), nil
}

// NewReader streams records from f. Close closes f.
func NewReader(f *os.File) *Reader {
	cr := csv.NewReader(bufio.NewReader(f))
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return &Reader{f: f, csv: cr}
}

// Next returns the next record. It returns io.EOF at the end of the source,
// a *DecodeError for a malformed row (call Next again to continue), and any
// other error for an unrecoverable read failure.
func (r *Reader) Next() (*Record, error) {
	fields, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}

	var parseErr *csv.ParseError
	if err != nil && !errors.As(err, &parseErr) {
		return nil, err
	}

	r.row++
	if parseErr != nil {
		return nil, &DecodeError{Row: r.row, Err: parseErr.Err}
	}
	return decodeRecord(r.row, fields)
}

// Rows returns the number of rows consumed so far, decoded or not.
func (r *Reader) Rows() uint64 {
	return r.row
}

// Close releases the source file.
func (r *Reader) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
