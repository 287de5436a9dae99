package storage

import (
	"bufio"
	"io"
	"strings"

	"github.com/zakazai/csvdb/internal/types"
)

// rowSource yields raw records in table order; it returns io.EOF when exhausted.
type rowSource interface {
	next() ([]string, error)
	close() error
}

// Table is an open table: its header and a forward-only, single-pass cursor
// over its records. Reopen the table to read it again.
type Table struct {
	Name   string
	Header []string

	source rowSource
	record []string
	row    int
	err    error
	done   bool
}

func newTable(name string, header []string, source rowSource) *Table {
	return &Table{Name: name, Header: header, source: source}
}

// Next advances to the next record. It returns false at the end of the table
// or on the first error, which Err then reports.
func (t *Table) Next() bool {
	if t.done {
		return false
	}
	record, err := t.source.next()
	if err != nil {
		t.done = true
		if err != io.EOF {
			t.err = err
		}
		return false
	}
	t.row++
	if len(record) != len(t.Header) {
		t.done = true
		t.err = types.TableError("row %d of table %s has %d fields, header has %d",
			t.row, t.Name, len(record), len(t.Header))
		return false
	}
	t.record = record
	return true
}

// Record returns the current record. The slice belongs to the caller.
func (t *Table) Record() []string {
	return t.record
}

// Err returns the error that stopped iteration, if any
func (t *Table) Err() error {
	return t.err
}

// Close releases the underlying file, if any
func (t *Table) Close() error {
	t.done = true
	return t.source.close()
}

// ColumnIndex returns the position of a column in the header, or -1
func (t *Table) ColumnIndex(name string) int {
	return ColumnIndex(t.Header, name)
}

// checkHeader rejects a header that names the same column twice
func checkHeader(table string, header []string) error {
	seen := make(map[string]bool, len(header))
	for _, col := range header {
		if seen[col] {
			return types.TableError("table %s has duplicate column %s", table, col)
		}
		seen[col] = true
	}
	return nil
}

// ColumnIndex returns the position of name in header, or -1
func ColumnIndex(header []string, name string) int {
	for i, col := range header {
		if col == name {
			return i
		}
	}
	return -1
}

// SplitRecord splits a raw line on commas and trims every field
func SplitRecord(line string) []string {
	fields := strings.Split(line, ",")
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}

// JoinRecord renders a record as a table line, without the newline
func JoinRecord(record []string) string {
	return strings.Join(record, ",")
}

// lineSource reads records from a text stream. Blank lines are skipped,
// except in single-column tables where they hold an empty value.
type lineSource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	width   int
}

func newLineSource(scanner *bufio.Scanner, closer io.Closer, width int) *lineSource {
	return &lineSource{scanner: scanner, closer: closer, width: width}
}

func (s *lineSource) next() ([]string, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" && s.width != 1 {
			continue
		}
		return SplitRecord(line), nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (s *lineSource) close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// sliceSource iterates over records already in memory
type sliceSource struct {
	records [][]string
	pos     int
}

func (s *sliceSource) next() ([]string, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	record := append([]string(nil), s.records[s.pos]...)
	s.pos++
	return record, nil
}

func (s *sliceSource) close() error {
	return nil
}
