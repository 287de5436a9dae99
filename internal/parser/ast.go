package parser

import "strings"

// Statement is a parsed SQL statement
type Statement interface {
	// TableName returns the table the statement reads or modifies
	TableName() string
	statementNode()
}

// SelectStatement represents a SELECT SQL statement
type SelectStatement struct {
	Columns []string // ["*"] selects every column
	Table   string
	Where   *Predicate
	OrderBy []OrderKey
}

// InsertStatement represents an INSERT SQL statement
type InsertStatement struct {
	Table   string
	Columns []string
	Values  [][]string // one group per row, raw literals as written
}

// UpdateStatement represents an UPDATE SQL statement. Set holds the raw
// "col = value, ..." text; it is parsed into assignments on execution.
type UpdateStatement struct {
	Table string
	Set   string
	Where *Predicate
}

// DeleteStatement represents a DELETE SQL statement
type DeleteStatement struct {
	Table string
	Where *Predicate
}

func (s *SelectStatement) TableName() string { return s.Table }
func (s *InsertStatement) TableName() string { return s.Table }
func (s *UpdateStatement) TableName() string { return s.Table }
func (s *DeleteStatement) TableName() string { return s.Table }

func (*SelectStatement) statementNode() {}
func (*InsertStatement) statementNode() {}
func (*UpdateStatement) statementNode() {}
func (*DeleteStatement) statementNode() {}

// SelectsAll reports whether the statement projects every column
func (s *SelectStatement) SelectsAll() bool {
	return len(s.Columns) == 1 && s.Columns[0] == "*"
}

// Comparator is a WHERE comparison operator
type Comparator string

const (
	Greater      Comparator = ">"
	Less         Comparator = "<"
	Equal        Comparator = "="
	GreaterEqual Comparator = ">="
	LessEqual    Comparator = "<="
	NotEqual     Comparator = "!="
)

// Connector joins two adjacent clauses
type Connector int

const (
	And Connector = iota
	Or
)

func (c Connector) String() string {
	if c == And {
		return "AND"
	}
	return "OR"
}

// Clause is a single comparison. Operands keep their raw text, quotes included,
// so the evaluator can tell quoted literals from column references.
type Clause struct {
	Left    string
	Op      Comparator
	Right   string
	Negated bool
}

func (c Clause) String() string {
	s := c.Left + " " + string(c.Op) + " " + c.Right
	if c.Negated {
		return "NOT " + s
	}
	return s
}

// Predicate is a parsed WHERE condition. Connectors[i] joins Clauses[i] and Clauses[i+1].
type Predicate struct {
	Clauses    []Clause
	Connectors []Connector
}

func (p *Predicate) String() string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	for i, c := range p.Clauses {
		if i > 0 {
			b.WriteString(" " + p.Connectors[i-1].String() + " ")
		}
		b.WriteString(c.String())
	}
	return b.String()
}

// Direction is an ORDER BY sort direction
type Direction int

const (
	Asc Direction = iota
	Desc
)

// OrderKey is one ORDER BY key; keys are applied left to right as tie-breakers
type OrderKey struct {
	Column    string
	Direction Direction
}
