package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Column names in row order.
var Columns = []string{
	"id", "title", "author", "publisher", "extension", "filesize",
	"language", "year", "pages", "isbn", "ipfs_cid",
}

// NumFields is the number of fields in every row.
const NumFields = 11

const (
	colID = iota
	colTitle
	colAuthor
	colPublisher
	colExtension
	colFilesize
	colLanguage
	colYear
	colPages
	colISBN
	colIPFSCID
)

// Record is one catalog entry. ID uniqueness is not enforced.
type Record struct {
	ID        uint64
	Title     string
	Author    string
	Publisher string
	Extension string
	Filesize  uint64
	Language  string
	Year      uint64
	Pages     uint64
	ISBN      string
	IPFSCID   string
}

// DecodeError reports a row that could not be decoded. It is recoverable:
// the reader continues with the next row.
type DecodeError struct {
	Row    uint64 // 1-based row number
	Column string // empty when the whole row is malformed
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d, column %s: %v", e.Row, e.Column, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// decodeRecord converts raw fields into a Record.
func decodeRecord(row uint64, fields []string) (*Record, error) {
	if len(fields) != NumFields {
		return nil, &DecodeError{
			Row: row,
			Err: fmt.Errorf("expected %d fields, got %d", NumFields, len(fields)),
		}
	}

	rec := &Record{
		Title:     fields[colTitle],
		Author:    fields[colAuthor],
		Publisher: fields[colPublisher],
		Extension: fields[colExtension],
		Language:  fields[colLanguage],
		ISBN:      fields[colISBN],
		IPFSCID:   fields[colIPFSCID],
	}

	numeric := []struct {
		col int
		dst *uint64
	}{
		{colID, &rec.ID},
		{colFilesize, &rec.Filesize},
		{colYear, &rec.Year},
		{colPages, &rec.Pages},
	}
	for _, n := range numeric {
		v, err := parseUint(fields[n.col])
		if err != nil {
			return nil, &DecodeError{Row: row, Column: Columns[n.col], Err: err}
		}
		*n.dst = v
	}

	return rec, nil
}

// parseUint parses a trimmed unsigned integer. Empty is an error.
func parseUint(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("missing number")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
