package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zakazai/csvdb/internal/types"
)

// Storage is where tables live. Every call reads the table fresh; nothing is
// cached between statements.
type Storage interface {
	// Open returns the table's header and a cursor over its records. It fails
	// with a Table error if the table does not exist or has no header line.
	Open(table string) (*Table, error)
	// Append adds records to the end of the table without rewriting it.
	Append(table string, records [][]string) error
	// Replace starts a full rewrite of the table with the given header. The
	// table keeps its old content until the returned Replacement is committed.
	Replace(table string, header []string) (Replacement, error)
	ShowTables() ([]string, error)
	Close() error
}

// Replacement collects the new content of a table. Commit makes it visible
// atomically; Abort discards it and leaves the table untouched.
type Replacement interface {
	Write(record []string) error
	Commit() error
	Abort() error
}

// memTable is a table held in memory
type memTable struct {
	header  []string
	records [][]string
}

// MemoryStorage implements Storage in memory
type MemoryStorage struct {
	mu     sync.RWMutex
	tables map[string]*memTable
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		tables: make(map[string]*memTable),
	}
}

// CreateTable registers a table with the given header and records
func (s *MemoryStorage) CreateTable(name string, header []string, records ...[]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tables[name]; exists {
		return fmt.Errorf("table %s already exists", name)
	}

	// Check for duplicate column names
	columnNames := make(map[string]bool)
	for _, col := range header {
		if columnNames[col] {
			return fmt.Errorf("duplicate column name: %s", col)
		}
		columnNames[col] = true
	}

	s.tables[name] = &memTable{header: copyRecord(header), records: copyRecords(records)}
	return nil
}

func (s *MemoryStorage) Open(name string) (*Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, exists := s.tables[name]
	if !exists {
		return nil, types.TableError("table %s does not exist", name)
	}
	if len(table.header) == 0 {
		return nil, types.TableError("table %s is empty", name)
	}
	return newTable(name, copyRecord(table.header), &sliceSource{records: copyRecords(table.records)}), nil
}

func (s *MemoryStorage) Append(name string, records [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, exists := s.tables[name]
	if !exists {
		return types.TableError("table %s does not exist", name)
	}
	table.records = append(table.records, copyRecords(records)...)
	return nil
}

func (s *MemoryStorage) Replace(name string, header []string) (Replacement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.tables[name]; !exists {
		return nil, types.TableError("table %s does not exist", name)
	}
	return &memReplacement{storage: s, name: name, header: copyRecord(header)}, nil
}

func (s *MemoryStorage) ShowTables() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tables := make([]string, 0, len(s.tables))
	for name := range s.tables {
		tables = append(tables, name)
	}
	sort.Strings(tables)
	return tables, nil
}

func (s *MemoryStorage) Close() error {
	return nil
}

type memReplacement struct {
	storage *MemoryStorage
	name    string
	header  []string
	records [][]string
	done    bool
}

func (r *memReplacement) Write(record []string) error {
	if r.done {
		return fmt.Errorf("replacement of %s already finished", r.name)
	}
	r.records = append(r.records, copyRecord(record))
	return nil
}

func (r *memReplacement) Commit() error {
	if r.done {
		return fmt.Errorf("replacement of %s already finished", r.name)
	}
	r.done = true

	r.storage.mu.Lock()
	defer r.storage.mu.Unlock()
	r.storage.tables[r.name] = &memTable{header: r.header, records: r.records}
	return nil
}

func (r *memReplacement) Abort() error {
	r.done = true
	r.records = nil
	return nil
}

func copyRecord(record []string) []string {
	return append([]string(nil), record...)
}

func copyRecords(records [][]string) [][]string {
	out := make([][]string, len(records))
	for i, r := range records {
		out[i] = copyRecord(r)
	}
	return out
}
