package executor

import (
	"strings"

	"github.com/zakazai/csvdb/internal/storage"
	"github.com/zakazai/csvdb/internal/types"
)

// assignment is one column = value pair of an UPDATE SET list
type assignment struct {
	index int
	value string
}

// parseAssignments parses "col = value, col2 = 'value'" against a header.
// Values are unquoted; they cannot contain commas.
func parseAssignments(set string, header []string) ([]assignment, error) {
	if strings.TrimSpace(set) == "" {
		return nil, types.SyntaxError("UPDATE requires at least one assignment after SET")
	}

	var assignments []assignment
	for _, part := range strings.Split(set, ",") {
		pair := strings.Split(part, "=")
		if len(pair) != 2 {
			return nil, types.SyntaxError("malformed assignment %q in SET", strings.TrimSpace(part))
		}
		column := strings.TrimSpace(pair[0])
		value := unquote(strings.TrimSpace(pair[1]))
		if column == "" {
			return nil, types.SyntaxError("missing column in assignment %q", strings.TrimSpace(part))
		}

		idx := storage.ColumnIndex(header, column)
		if idx < 0 {
			return nil, types.ColumnError("%s in SET is not a column of the table", column)
		}
		if strings.ContainsAny(value, "\r\n") {
			return nil, types.SyntaxError("value for %s cannot span lines", column)
		}
		assignments = append(assignments, assignment{index: idx, value: value})
	}
	return assignments, nil
}

func applyAssignments(record []string, assignments []assignment) []string {
	updated := append([]string(nil), record...)
	for _, a := range assignments {
		updated[a.index] = a.value
	}
	return updated
}
