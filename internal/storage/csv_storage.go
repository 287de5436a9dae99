package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zakazai/csvdb/internal/types"
)

const (
	tableExt      = ".csv"
	maxLineLength = 1 << 20
)

// CSVStorage implements Storage over a directory holding one <table>.csv file
// per table. It takes no locks: two processes rewriting the same table can
// lose an update.
type CSVStorage struct {
	dir string
}

// NewCSVStorage creates a CSV storage rooted at dir, which must exist
func NewCSVStorage(dir string) (*CSVStorage, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open table directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return &CSVStorage{dir: dir}, nil
}

// Dir returns the table directory
func (s *CSVStorage) Dir() string {
	return s.dir
}

// TablePath returns the file backing a table
func (s *CSVStorage) TablePath(table string) string {
	return filepath.Join(s.dir, table+tableExt)
}

// checkTableName rejects names that would resolve outside the table directory
func checkTableName(table string) error {
	if table == "" || strings.HasPrefix(table, ".") || strings.ContainsAny(table, `/\`) {
		return types.TableError("invalid table name %q", table)
	}
	return nil
}

func (s *CSVStorage) Open(table string) (*Table, error) {
	if err := checkTableName(table); err != nil {
		return nil, err
	}
	path := s.TablePath(table)
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, types.TableError("table %s does not exist", table)
		}
		return nil, fmt.Errorf("failed to open table %s: %w", table, err)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	if !scanner.Scan() {
		file.Close()
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read header of table %s: %w", table, err)
		}
		return nil, types.TableError("table %s is empty", table)
	}

	header := SplitRecord(scanner.Text())
	if err := checkHeader(table, header); err != nil {
		file.Close()
		return nil, err
	}
	return newTable(table, header, newLineSource(scanner, file, len(header))), nil
}

func (s *CSVStorage) Append(table string, records [][]string) error {
	if err := checkTableName(table); err != nil {
		return err
	}
	path := s.TablePath(table)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.TableError("table %s does not exist", table)
		}
		return fmt.Errorf("failed to open table %s: %w", table, err)
	}
	defer file.Close()

	needsNewline, err := missingTrailingNewline(file)
	if err != nil {
		return fmt.Errorf("failed to read table %s: %w", table, err)
	}

	w := bufio.NewWriter(file)
	if needsNewline {
		w.WriteString("\n")
	}
	for _, record := range records {
		w.WriteString(JoinRecord(record))
		w.WriteString("\n")
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to append to table %s: %w", table, err)
	}

	types.GlobalLogger.Debug("appended %d rows to %s", len(records), path)
	return file.Sync()
}

// missingTrailingNewline reports whether a non-empty file does not end in '\n'
func missingTrailingNewline(file *os.File) (bool, error) {
	info, err := file.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := file.ReadAt(last, info.Size()-1); err != nil && err != io.EOF {
		return false, err
	}
	return last[0] != '\n', nil
}

// Replace writes the new content to a temporary file next to the table and
// renames it over the table on Commit.
func (s *CSVStorage) Replace(table string, header []string) (Replacement, error) {
	if err := checkTableName(table); err != nil {
		return nil, err
	}
	path := s.TablePath(table)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, types.TableError("table %s does not exist", table)
		}
		return nil, fmt.Errorf("failed to stat table %s: %w", table, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+table+tableExt+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file for %s: %w", table, err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to set permissions on %s: %w", tmp.Name(), err)
	}

	r := &fileReplacement{
		path: path,
		tmp:  tmp,
		w:    bufio.NewWriter(tmp),
	}
	if err := r.Write(header); err != nil {
		r.Abort()
		return nil, err
	}
	return r, nil
}

func (s *CSVStorage) ShowTables() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	var tables []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, tableExt) {
			continue
		}
		tables = append(tables, strings.TrimSuffix(name, tableExt))
	}
	sort.Strings(tables)
	return tables, nil
}

func (s *CSVStorage) Close() error {
	return nil
}

type fileReplacement struct {
	path string
	tmp  *os.File
	w    *bufio.Writer
	done bool
}

func (r *fileReplacement) Write(record []string) error {
	if r.done {
		return fmt.Errorf("replacement of %s already finished", r.path)
	}
	if _, err := r.w.WriteString(JoinRecord(record) + "\n"); err != nil {
		return fmt.Errorf("failed to write %s: %w", r.tmp.Name(), err)
	}
	return nil
}

func (r *fileReplacement) Commit() error {
	if r.done {
		return fmt.Errorf("replacement of %s already finished", r.path)
	}
	r.done = true

	if err := r.w.Flush(); err != nil {
		r.discard()
		return fmt.Errorf("failed to flush %s: %w", r.tmp.Name(), err)
	}
	if err := r.tmp.Sync(); err != nil {
		r.discard()
		return fmt.Errorf("failed to sync %s: %w", r.tmp.Name(), err)
	}
	if err := r.tmp.Close(); err != nil {
		os.Remove(r.tmp.Name())
		return fmt.Errorf("failed to close %s: %w", r.tmp.Name(), err)
	}
	if err := os.Rename(r.tmp.Name(), r.path); err != nil {
		os.Remove(r.tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", r.path, err)
	}

	types.GlobalLogger.Debug("replaced %s", r.path)
	return nil
}

func (r *fileReplacement) Abort() error {
	if r.done {
		return nil
	}
	r.done = true
	return r.discard()
}

func (r *fileReplacement) discard() error {
	r.tmp.Close()
	if err := os.Remove(r.tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
