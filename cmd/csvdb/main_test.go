package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clientes.csv"), []byte("id,nombre\n1,Ana\n2,Beto\n"), 0644))
	return dir
}

func runCLI(stdin string, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestSingleStatement(t *testing.T) {
	dir := setupDir(t)

	code, out, errOut := runCLI("", dir, "SELECT * FROM clientes WHERE id = 1")
	assert.Equal(t, 0, code, errOut)
	assert.Equal(t, "id,nombre\n1,Ana\n", out)

	code, out, _ = runCLI("", dir, "INSERT INTO clientes (id,nombre) VALUES (3,'Caro')")
	assert.Equal(t, 0, code)
	assert.Empty(t, out)

	code, out, _ = runCLI("", dir, "SELECT nombre FROM clientes ORDER BY nombre DESC")
	assert.Equal(t, 0, code)
	assert.Equal(t, "nombre\nCaro\nBeto\nAna\n", out)
}

func TestSingleStatementError(t *testing.T) {
	dir := setupDir(t)

	code, out, errOut := runCLI("", dir, "DELETE FROM clientes")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.True(t, strings.HasPrefix(errOut, "Invalid Syntax: "), errOut)

	code, _, errOut = runCLI("", dir, "SELECT * FROM nadie")
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(errOut, "Invalid Table: "), errOut)
}

func TestUsage(t *testing.T) {
	code, _, errOut := runCLI("")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "usage: csvdb")

	code, _, _ = runCLI("", "a", "b", "c")
	assert.Equal(t, 1, code)

	code, _, errOut = runCLI("", "-log-level", "loud", t.TempDir())
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, errOut)

	code, _, errOut = runCLI("", filepath.Join(t.TempDir(), "missing"), "SELECT * FROM t")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Error initializing storage")
}

func TestREPLFromPipe(t *testing.T) {
	dir := setupDir(t)
	input := strings.Join([]string{
		"SELECT id FROM clientes",
		"",
		"UPDATE clientes SET nombre = 'Ana Maria' WHERE id = 1",
		"SELECT edad FROM clientes",
		"SELECT nombre FROM clientes WHERE id = 1",
		"exit",
		"SELECT * FROM clientes",
	}, "\n")

	code, out, errOut := runCLI(input, dir)
	assert.Equal(t, 0, code)
	assert.Equal(t, "id\n1\n2\nnombre\nAna Maria\n", out)
	assert.True(t, strings.HasPrefix(errOut, "Invalid Column: "), errOut)
}

func TestREPLLastLineWithoutNewline(t *testing.T) {
	dir := setupDir(t)
	code, out, _ := runCLI("SELECT nombre FROM clientes WHERE id = 2", dir)
	assert.Equal(t, 0, code)
	assert.Equal(t, "nombre\nBeto\n", out)
}

func TestSnapshotAndParquetStorage(t *testing.T) {
	dir := setupDir(t)
	snapDir := filepath.Join(t.TempDir(), "snapshots")

	code, _, errOut := runCLI("", "-snapshot", snapDir, dir)
	require.Equal(t, 0, code, errOut)
	assert.FileExists(t, filepath.Join(snapDir, "clientes.parquet"))

	code, out, errOut := runCLI("", "-storage", "parquet", snapDir, "SELECT nombre FROM clientes WHERE id > 1")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "nombre\nBeto\n", out)

	code, _, _ = runCLI("", "-storage", "parquet", snapDir, "DELETE FROM clientes WHERE id = 1")
	assert.Equal(t, 1, code)
}
