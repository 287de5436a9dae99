package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zakazai/csvdb/internal/storage"
	"github.com/zakazai/csvdb/internal/types"
)

func writeTable(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name+".csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readAll(t *testing.T, table *storage.Table) [][]string {
	t.Helper()
	var records [][]string
	for table.Next() {
		records = append(records, table.Record())
	}
	require.NoError(t, table.Err())
	require.NoError(t, table.Close())
	return records
}

func TestCSVStorageOpen(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "clientes", " id , nombre \n1, Ana\n\n2 ,Beto\n")

	s, err := storage.NewCSVStorage(dir)
	require.NoError(t, err)

	table, err := s.Open("clientes")
	require.NoError(t, err)
	assert.Equal(t, "clientes", table.Name)
	assert.Equal(t, []string{"id", "nombre"}, table.Header)
	assert.Equal(t, 1, table.ColumnIndex("nombre"))
	assert.Equal(t, -1, table.ColumnIndex("edad"))

	assert.Equal(t, [][]string{{"1", "Ana"}, {"2", "Beto"}}, readAll(t, table))
	assert.False(t, table.Next(), "cursor is single pass")
}

func TestCSVStorageOpenErrors(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "vacio", "")
	writeTable(t, dir, "torcida", "id,nombre\n1,Ana\n2\n")

	s, err := storage.NewCSVStorage(dir)
	require.NoError(t, err)

	_, err = s.Open("clientess")
	assert.True(t, types.IsKind(err, types.Table), "missing table: %v", err)

	_, err = s.Open("vacio")
	assert.True(t, types.IsKind(err, types.Table), "empty table: %v", err)

	_, err = s.Open("../clientes")
	assert.True(t, types.IsKind(err, types.Table), "path outside dir: %v", err)

	table, err := s.Open("torcida")
	require.NoError(t, err)
	defer table.Close()
	assert.True(t, table.Next())
	assert.False(t, table.Next())
	assert.True(t, types.IsKind(table.Err(), types.Table), "width mismatch: %v", table.Err())
}

func TestCSVStorageSingleColumnKeepsEmptyValues(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "notas", "nombre\nAna\n\nBeto\n")

	s, err := storage.NewCSVStorage(dir)
	require.NoError(t, err)

	table, err := s.Open("notas")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Ana"}, {""}, {"Beto"}}, readAll(t, table))

	require.NoError(t, s.Append("notas", [][]string{{""}}))
	table, err = s.Open("notas")
	require.NoError(t, err)
	assert.Len(t, readAll(t, table), 4)
}

func TestCSVStorageRejectsDuplicateColumns(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "d", "id,id\n1,2\n")

	s, err := storage.NewCSVStorage(dir)
	require.NoError(t, err)

	_, err = s.Open("d")
	assert.True(t, types.IsKind(err, types.Table), "got %v", err)
}

func TestNewCSVStorageRequiresDirectory(t *testing.T) {
	dir := t.TempDir()
	file := writeTable(t, dir, "clientes", "id\n")

	_, err := storage.NewCSVStorage(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	_, err = storage.NewCSVStorage(file)
	assert.Error(t, err)
}

func TestCSVStorageAppend(t *testing.T) {
	dir := t.TempDir()
	path := writeTable(t, dir, "clientes", "id,nombre\n1,Ana")

	s, err := storage.NewCSVStorage(dir)
	require.NoError(t, err)

	err = s.Append("clientes", [][]string{{"2", "Beto"}, {"3", ""}})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,nombre\n1,Ana\n2,Beto\n3,\n", string(data))

	err = s.Append("nonexistent", [][]string{{"1"}})
	assert.True(t, types.IsKind(err, types.Table))
}

func TestCSVStorageReplace(t *testing.T) {
	dir := t.TempDir()
	path := writeTable(t, dir, "clientes", "id,nombre\n1,Ana\n2,Beto\n")

	s, err := storage.NewCSVStorage(dir)
	require.NoError(t, err)

	r, err := s.Replace("clientes", []string{"id", "nombre"})
	require.NoError(t, err)
	require.NoError(t, r.Write([]string{"1", "Ana"}))

	// The table is untouched until commit
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,nombre\n1,Ana\n2,Beto\n", string(data))

	require.NoError(t, r.Commit())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,nombre\n1,Ana\n", string(data))

	assert.Error(t, r.Commit())
	assert.Error(t, r.Write([]string{"9", "Zoe"}))
	assertNoTempFiles(t, dir)
}

func TestCSVStorageReplaceAbort(t *testing.T) {
	dir := t.TempDir()
	path := writeTable(t, dir, "clientes", "id,nombre\n1,Ana\n")

	s, err := storage.NewCSVStorage(dir)
	require.NoError(t, err)

	r, err := s.Replace("clientes", []string{"id", "nombre"})
	require.NoError(t, err)
	require.NoError(t, r.Write([]string{"7", "Zoe"}))
	require.NoError(t, r.Abort())
	require.NoError(t, r.Abort())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,nombre\n1,Ana\n", string(data))
	assertNoTempFiles(t, dir)

	_, err = s.Replace("nonexistent", []string{"id"})
	assert.True(t, types.IsKind(err, types.Table))
}

func TestCSVStorageConcurrentReplacementsUseDistinctFiles(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "a", "x\n1\n")
	writeTable(t, dir, "b", "y\n2\n")

	s, err := storage.NewCSVStorage(dir)
	require.NoError(t, err)

	ra, err := s.Replace("a", []string{"x"})
	require.NoError(t, err)
	rb, err := s.Replace("b", []string{"y"})
	require.NoError(t, err)
	require.NoError(t, ra.Write([]string{"10"}))
	require.NoError(t, rb.Write([]string{"20"}))
	require.NoError(t, rb.Commit())
	require.NoError(t, ra.Commit())

	a, err := os.ReadFile(filepath.Join(dir, "a.csv"))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dir, "b.csv"))
	require.NoError(t, err)
	assert.Equal(t, "x\n10\n", string(a))
	assert.Equal(t, "y\n20\n", string(b))
}

func TestCSVStorageShowTables(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "ventas", "id\n")
	writeTable(t, dir, "clientes", "id\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notas.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".clientes.csv.123.tmp"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0755))

	s, err := storage.NewCSVStorage(dir)
	require.NoError(t, err)

	tables, err := s.ShowTables()
	require.NoError(t, err)
	assert.Equal(t, []string{"clientes", "ventas"}, tables)
}

func TestInMemoryStorage(t *testing.T) {
	s := storage.NewMemoryStorage()

	// Test CreateTable
	err := s.CreateTable("test", []string{"id", "name"}, []string{"1", "test1"})
	assert.NoError(t, err)

	// Test CreateTable duplicate
	err = s.CreateTable("test", []string{"id"})
	assert.Error(t, err)
	err = s.CreateTable("dup", []string{"id", "id"})
	assert.Error(t, err)

	// Test Append
	err = s.Append("test", [][]string{{"2", "test2"}})
	assert.NoError(t, err)
	err = s.Append("nonexistent", nil)
	assert.Error(t, err)

	table, err := s.Open("test")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, table.Header)
	assert.Equal(t, [][]string{{"1", "test1"}, {"2", "test2"}}, readAll(t, table))

	// Test Replace
	r, err := s.Replace("test", []string{"id", "name"})
	require.NoError(t, err)
	require.NoError(t, r.Write([]string{"2", "test2"}))

	table, err = s.Open("test")
	require.NoError(t, err)
	assert.Len(t, readAll(t, table), 2, "replacement is invisible before commit")

	require.NoError(t, r.Commit())
	table, err = s.Open("test")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"2", "test2"}}, readAll(t, table))

	// Test Open of missing or empty tables
	_, err = s.Open("nonexistent")
	assert.True(t, types.IsKind(err, types.Table))
	require.NoError(t, s.CreateTable("vacio", nil))
	_, err = s.Open("vacio")
	assert.True(t, types.IsKind(err, types.Table))

	tables, err := s.ShowTables()
	require.NoError(t, err)
	assert.Equal(t, []string{"test", "vacio"}, tables)
	assert.NoError(t, s.Close())
}

func TestNewStorage(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		config  storage.StorageConfig
		wantErr bool
	}{
		{name: "csv", config: storage.StorageConfig{Type: storage.CSVStorageType, Dir: dir}},
		{name: "default is csv", config: storage.StorageConfig{Dir: dir}},
		{name: "memory", config: storage.StorageConfig{Type: storage.MemoryStorageType}},
		{name: "parquet", config: storage.StorageConfig{Type: storage.ParquetStorageType, Dir: filepath.Join(dir, "snap")}},
		{name: "csv without dir", config: storage.StorageConfig{Type: storage.CSVStorageType}, wantErr: true},
		{name: "parquet without dir", config: storage.StorageConfig{Type: storage.ParquetStorageType}, wantErr: true},
		{name: "unknown", config: storage.StorageConfig{Type: "btree", Dir: dir}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := storage.NewStorage(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, s.Close())
		})
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
