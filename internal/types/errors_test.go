package types_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zakazai/csvdb/internal/types"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *types.Error
		expected string
	}{
		{"syntax", types.SyntaxError("missing %s", "FROM"), "Invalid Syntax: missing FROM"},
		{"table", types.TableError("table %s is empty", "vacio"), "Invalid Table: table vacio is empty"},
		{"column", types.ColumnError("unknown column edad"), "Invalid Column: unknown column edad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("executing statement: %w", types.ColumnError("unknown column x"))

	assert.True(t, types.IsKind(err, types.Column))
	assert.False(t, types.IsKind(err, types.Syntax))
	assert.False(t, types.IsKind(fmt.Errorf("plain"), types.Table))
	assert.False(t, types.IsKind(nil, types.Table))
}
