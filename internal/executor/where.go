package executor

import (
	"strconv"
	"strings"

	"github.com/zakazai/csvdb/internal/parser"
	"github.com/zakazai/csvdb/internal/storage"
	"github.com/zakazai/csvdb/internal/types"
)

// operand is a clause operand resolved against one record
type operand struct {
	value  string
	quoted bool
}

func isQuoted(raw string) bool {
	return len(raw) >= 2 && strings.HasPrefix(raw, "'") && strings.HasSuffix(raw, "'")
}

// unquote strips one pair of surrounding single quotes
func unquote(raw string) string {
	if isQuoted(raw) {
		return raw[1 : len(raw)-1]
	}
	return raw
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// resolve turns raw operand text into a value: the record's field when the
// unquoted text names a column, the literal itself otherwise.
func resolve(raw string, header, record []string) operand {
	text := unquote(raw)
	if idx := storage.ColumnIndex(header, text); idx >= 0 {
		return operand{value: record[idx], quoted: isQuoted(raw)}
	}
	return operand{value: text, quoted: isQuoted(raw)}
}

// compare applies op numerically when both values are unquoted integers,
// byte-wise on the text otherwise.
func compare(left, right operand, op parser.Comparator) bool {
	var cmp int
	if !left.quoted && !right.quoted {
		l, lerr := strconv.ParseInt(left.value, 10, 64)
		r, rerr := strconv.ParseInt(right.value, 10, 64)
		if lerr == nil && rerr == nil {
			cmp = compareInts(l, r)
			return holds(cmp, op)
		}
	}
	cmp = strings.Compare(left.value, right.value)
	return holds(cmp, op)
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func holds(cmp int, op parser.Comparator) bool {
	switch op {
	case parser.Equal:
		return cmp == 0
	case parser.NotEqual:
		return cmp != 0
	case parser.Greater:
		return cmp > 0
	case parser.Less:
		return cmp < 0
	case parser.GreaterEqual:
		return cmp >= 0
	case parser.LessEqual:
		return cmp <= 0
	default:
		return false
	}
}

// evalClause evaluates one comparison against a record
func evalClause(clause parser.Clause, header, record []string) bool {
	left := resolve(clause.Left, header, record)
	right := resolve(clause.Right, header, record)
	result := compare(left, right, clause.Op)
	if clause.Negated {
		return !result
	}
	return result
}

// Matches evaluates a predicate against a record. Clauses joined by AND form
// a run whose conjunction is one OR branch; the predicate holds if any branch
// does. A nil predicate matches every record.
func Matches(pred *parser.Predicate, header, record []string) bool {
	if pred == nil || len(pred.Clauses) == 0 {
		return true
	}

	branch := false
	inRun := false
	for i, clause := range pred.Clauses {
		leaf := evalClause(clause, header, record)
		if inRun {
			branch = branch && leaf
		} else {
			branch = leaf
			inRun = true
		}

		if i < len(pred.Connectors) && pred.Connectors[i] == parser.And {
			continue
		}
		if branch {
			return true
		}
		inRun = false
	}
	return false
}

// ValidatePredicate checks that every operand which is neither a quoted
// literal nor an integer names a column of the header.
func ValidatePredicate(pred *parser.Predicate, header []string) error {
	if pred == nil {
		return nil
	}
	for _, clause := range pred.Clauses {
		for _, raw := range []string{clause.Left, clause.Right} {
			if isQuoted(raw) || isInt(raw) {
				continue
			}
			if storage.ColumnIndex(header, raw) < 0 {
				return types.ColumnError("%s in WHERE clause %q is not a column of the table", raw, clause.String())
			}
		}
	}
	return nil
}
