package executor

import (
	"fmt"
	"strings"

	"github.com/zakazai/csvdb/internal/parser"
	"github.com/zakazai/csvdb/internal/storage"
	"github.com/zakazai/csvdb/internal/types"
)

// Result is the outcome of a statement. SELECT fills Columns and Rows;
// INSERT, UPDATE and DELETE report RowsAffected.
type Result struct {
	Columns      []string
	Rows         [][]string
	RowsAffected int
}

// Executor runs parsed statements against a storage
type Executor struct {
	storage storage.Storage
}

// New creates a new executor
func New(store storage.Storage) *Executor {
	return &Executor{storage: store}
}

// Run parses and executes a single statement
func (e *Executor) Run(query string) (*Result, error) {
	stmt, err := parser.Parse(query)
	if err != nil {
		return nil, err
	}
	return e.Execute(stmt)
}

// Execute executes a parsed statement
func (e *Executor) Execute(stmt parser.Statement) (*Result, error) {
	switch s := stmt.(type) {
	case *parser.SelectStatement:
		return e.executeSelect(s)
	case *parser.InsertStatement:
		return e.executeInsert(s)
	case *parser.UpdateStatement:
		return e.executeUpdate(s)
	case *parser.DeleteStatement:
		return e.executeDelete(s)
	default:
		return nil, fmt.Errorf("unsupported statement type: %T", stmt)
	}
}

func (e *Executor) executeSelect(stmt *parser.SelectStatement) (*Result, error) {
	table, err := e.storage.Open(stmt.Table)
	if err != nil {
		return nil, err
	}
	defer table.Close()

	// Resolve projection
	columns := table.Header
	if !stmt.SelectsAll() {
		columns = stmt.Columns
	}
	indexes := make([]int, len(columns))
	for i, col := range columns {
		idx := table.ColumnIndex(col)
		if idx < 0 {
			return nil, types.ColumnError("%s is not a column of table %s", col, stmt.Table)
		}
		indexes[i] = idx
	}
	if err := ValidatePredicate(stmt.Where, table.Header); err != nil {
		return nil, err
	}
	if err := ValidateOrder(stmt.OrderBy, table.Header); err != nil {
		return nil, err
	}

	var matched [][]string
	for table.Next() {
		record := table.Record()
		if Matches(stmt.Where, table.Header, record) {
			matched = append(matched, record)
		}
	}
	if err := table.Err(); err != nil {
		return nil, err
	}

	sortRecords(matched, stmt.OrderBy, table.Header)

	rows := make([][]string, len(matched))
	for i, record := range matched {
		row := make([]string, len(indexes))
		for j, idx := range indexes {
			row[j] = record[idx]
		}
		rows[i] = row
	}

	types.GlobalLogger.Debug("SELECT from %s returned %d rows", stmt.Table, len(rows))
	return &Result{Columns: append([]string(nil), columns...), Rows: rows}, nil
}

func (e *Executor) executeInsert(stmt *parser.InsertStatement) (*Result, error) {
	table, err := e.storage.Open(stmt.Table)
	if err != nil {
		return nil, err
	}
	header := table.Header
	table.Close()

	indexes := make([]int, len(stmt.Columns))
	seen := make(map[string]bool, len(stmt.Columns))
	for i, col := range stmt.Columns {
		if seen[col] {
			return nil, types.SyntaxError("column %s listed twice in INSERT", col)
		}
		seen[col] = true

		idx := storage.ColumnIndex(header, col)
		if idx < 0 {
			return nil, types.ColumnError("%s is not a column of table %s", col, stmt.Table)
		}
		indexes[i] = idx
	}

	records := make([][]string, 0, len(stmt.Values))
	for _, group := range stmt.Values {
		if len(group) != len(indexes) {
			return nil, types.SyntaxError("%d values given for %d columns", len(group), len(indexes))
		}
		record := make([]string, len(header))
		for i, raw := range group {
			value := unquote(raw)
			if strings.ContainsAny(value, ",\r\n") {
				return nil, types.SyntaxError("value %s cannot contain a comma or line break", raw)
			}
			record[indexes[i]] = value
		}
		records = append(records, record)
	}

	if err := e.storage.Append(stmt.Table, records); err != nil {
		return nil, err
	}

	types.GlobalLogger.Debug("INSERT into %s added %d rows", stmt.Table, len(records))
	return &Result{RowsAffected: len(records)}, nil
}

func (e *Executor) executeUpdate(stmt *parser.UpdateStatement) (*Result, error) {
	table, err := e.storage.Open(stmt.Table)
	if err != nil {
		return nil, err
	}
	defer table.Close()

	if err := ValidatePredicate(stmt.Where, table.Header); err != nil {
		return nil, err
	}
	assignments, err := parseAssignments(stmt.Set, table.Header)
	if err != nil {
		return nil, err
	}

	matched := 0
	err = e.rewrite(table, func(record []string) ([]string, bool) {
		if !Matches(stmt.Where, table.Header, record) {
			return record, true
		}
		matched++
		return applyAssignments(record, assignments), true
	})
	if err != nil {
		return nil, err
	}

	types.GlobalLogger.Debug("UPDATE of %s matched %d rows", stmt.Table, matched)
	return &Result{RowsAffected: matched}, nil
}

func (e *Executor) executeDelete(stmt *parser.DeleteStatement) (*Result, error) {
	if stmt.Where == nil || len(stmt.Where.Clauses) == 0 {
		return nil, types.SyntaxError("DELETE requires a WHERE clause")
	}

	table, err := e.storage.Open(stmt.Table)
	if err != nil {
		return nil, err
	}
	defer table.Close()

	if err := ValidatePredicate(stmt.Where, table.Header); err != nil {
		return nil, err
	}

	deleted := 0
	err = e.rewrite(table, func(record []string) ([]string, bool) {
		if Matches(stmt.Where, table.Header, record) {
			deleted++
			return nil, false
		}
		return record, true
	})
	if err != nil {
		return nil, err
	}

	types.GlobalLogger.Debug("DELETE from %s removed %d rows", stmt.Table, deleted)
	return &Result{RowsAffected: deleted}, nil
}

// rewrite streams every record of an open table through fn into a
// replacement of that table. Records for which fn returns false are dropped.
// The table is only replaced if every record was read and written.
func (e *Executor) rewrite(table *storage.Table, fn func([]string) ([]string, bool)) (err error) {
	replacement, err := e.storage.Replace(table.Name, table.Header)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if abortErr := replacement.Abort(); abortErr != nil {
				types.GlobalLogger.Warning("failed to discard replacement of %s: %v", table.Name, abortErr)
			}
		}
	}()

	for table.Next() {
		record, keep := fn(table.Record())
		if !keep {
			continue
		}
		if err = replacement.Write(record); err != nil {
			return err
		}
	}
	if err = table.Err(); err != nil {
		return err
	}
	return replacement.Commit()
}
