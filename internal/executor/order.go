package executor

import (
	"sort"
	"strconv"
	"strings"

	"github.com/zakazai/csvdb/internal/parser"
	"github.com/zakazai/csvdb/internal/storage"
	"github.com/zakazai/csvdb/internal/types"
)

// ValidateOrder checks that every ORDER BY column exists in the header
func ValidateOrder(keys []parser.OrderKey, header []string) error {
	for _, key := range keys {
		if storage.ColumnIndex(header, key.Column) < 0 {
			return types.ColumnError("%s in ORDER BY is not a column of the table", key.Column)
		}
	}
	return nil
}

// compareValues orders two field values: numerically when both are integers,
// byte-wise otherwise.
func compareValues(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		return compareInts(ai, bi)
	}
	return strings.Compare(a, b)
}

// sortRecords sorts records in place by the given keys. Ties on every key
// keep their original order.
func sortRecords(records [][]string, keys []parser.OrderKey, header []string) {
	if len(keys) == 0 {
		return
	}
	indexes := make([]int, len(keys))
	for i, key := range keys {
		indexes[i] = storage.ColumnIndex(header, key.Column)
	}

	sort.SliceStable(records, func(i, j int) bool {
		for k, key := range keys {
			cmp := compareValues(records[i][indexes[k]], records[j][indexes[k]])
			if cmp == 0 {
				continue
			}
			if key.Direction == parser.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}
