package parser

import (
	"strings"

	"github.com/zakazai/csvdb/internal/lexer"
	"github.com/zakazai/csvdb/internal/types"
)

// Parser represents a SQL parser over a flat token sequence
type Parser struct {
	input  string
	tokens []lexer.Token
	pos    int
}

// New creates a new parser for the given statement text
func New(input string) *Parser {
	return &Parser{input: input, tokens: lexer.Tokenize(input)}
}

// Parse parses a single SQL statement
func Parse(sql string) (Statement, error) {
	return New(sql).Parse()
}

func (p *Parser) current() lexer.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peek() lexer.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.pos]
	if tok.Type != lexer.EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) expectKeyword(keyword string) error {
	tok := p.advance()
	if !tok.Is(keyword) {
		return types.SyntaxError("expected %s, got %s", keyword, describe(tok))
	}
	return nil
}

func (p *Parser) expect(tt lexer.TokenType, what string) (lexer.Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, types.SyntaxError("expected %s, got %s", what, describe(tok))
	}
	return tok, nil
}

// expectEnd consumes an optional trailing semicolon and requires end of input.
func (p *Parser) expectEnd() error {
	if p.current().Type == lexer.SEMICOLON {
		p.advance()
	}
	if tok := p.current(); tok.Type != lexer.EOF {
		return types.SyntaxError("unexpected %s after end of statement", describe(tok))
	}
	return nil
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.EOF:
		return "end of statement"
	case lexer.ILLEGAL:
		return "invalid input " + quote(tok.Literal)
	default:
		return quote(tok.Literal)
	}
}

func quote(s string) string {
	return "\"" + s + "\""
}

// Parse parses the statement the parser was created with
func (p *Parser) Parse() (Statement, error) {
	tok := p.current()
	switch {
	case tok.Type == lexer.EOF:
		return nil, types.SyntaxError("empty statement")
	case tok.Is("SELECT"):
		return p.parseSelect()
	case tok.Is("INSERT"):
		return p.parseInsert()
	case tok.Is("UPDATE"):
		return p.parseUpdate()
	case tok.Is("DELETE"):
		return p.parseDelete()
	default:
		return nil, types.SyntaxError("unknown statement %s, expected SELECT, INSERT, UPDATE or DELETE", describe(tok))
	}
}

func (p *Parser) parseSelect() (*SelectStatement, error) {
	p.advance() // SELECT
	stmt := &SelectStatement{}

	// Parse columns
	for {
		tok := p.advance()
		switch tok.Type {
		case lexer.ASTERISK:
			stmt.Columns = append(stmt.Columns, "*")
		case lexer.IDENTIFIER:
			stmt.Columns = append(stmt.Columns, tok.Literal)
		default:
			return nil, types.SyntaxError("expected column name or *, got %s", describe(tok))
		}

		if p.current().Type != lexer.COMMA {
			break
		}
		p.advance()
	}
	if len(stmt.Columns) > 1 {
		for _, col := range stmt.Columns {
			if col == "*" {
				return nil, types.SyntaxError("cannot select * together with other columns")
			}
		}
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.expect(lexer.IDENTIFIER, "table name")
	if err != nil {
		return nil, err
	}
	stmt.Table = table.Literal

	if p.current().Is("WHERE") {
		p.advance()
		if stmt.Where, err = p.parseWhere(); err != nil {
			return nil, err
		}
	}
	if p.current().Is("ORDER") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		if stmt.OrderBy, err = p.parseOrderBy(); err != nil {
			return nil, err
		}
	}

	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseInsert() (*InsertStatement, error) {
	p.advance() // INSERT
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	table, err := p.expect(lexer.IDENTIFIER, "table name")
	if err != nil {
		return nil, err
	}
	stmt := &InsertStatement{Table: table.Literal}

	// Parse column list
	if _, err := p.expect(lexer.LPAREN, "( before column list"); err != nil {
		return nil, err
	}
	for {
		col, err := p.expect(lexer.IDENTIFIER, "column name")
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col.Literal)

		tok := p.advance()
		if tok.Type == lexer.RPAREN {
			break
		}
		if tok.Type != lexer.COMMA {
			return nil, types.SyntaxError("expected comma or ) in column list, got %s", describe(tok))
		}
	}

	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}

	// Parse value groups
	for {
		group, err := p.parseValueGroup()
		if err != nil {
			return nil, err
		}
		if len(group) != len(stmt.Columns) {
			return nil, types.SyntaxError("value group %d has %d values for %d columns",
				len(stmt.Values)+1, len(group), len(stmt.Columns))
		}
		stmt.Values = append(stmt.Values, group)

		if p.current().Type != lexer.COMMA {
			break
		}
		p.advance()
	}

	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseValueGroup() ([]string, error) {
	if _, err := p.expect(lexer.LPAREN, "( before values"); err != nil {
		return nil, err
	}
	var values []string
	if p.current().Type == lexer.RPAREN {
		p.advance()
		return values, nil
	}
	for {
		tok := p.advance()
		switch tok.Type {
		case lexer.NUMBER, lexer.STRING, lexer.IDENTIFIER:
			values = append(values, tok.Literal)
		case lexer.LPAREN:
			return nil, types.SyntaxError("nested parentheses are not supported in VALUES")
		default:
			return nil, types.SyntaxError("expected value, got %s", describe(tok))
		}

		tok = p.advance()
		if tok.Type == lexer.RPAREN {
			return values, nil
		}
		if tok.Type != lexer.COMMA {
			return nil, types.SyntaxError("expected comma or ) in values, got %s", describe(tok))
		}
	}
}

func (p *Parser) parseUpdate() (*UpdateStatement, error) {
	p.advance() // UPDATE
	table, err := p.expect(lexer.IDENTIFIER, "table name")
	if err != nil {
		return nil, err
	}
	stmt := &UpdateStatement{Table: table.Literal}

	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}

	// The SET clause runs up to WHERE, a trailing semicolon, or the end.
	start := p.current().Pos
	for {
		tok := p.current()
		if tok.Type == lexer.EOF || tok.Is("WHERE") ||
			(tok.Type == lexer.SEMICOLON && p.peek().Type == lexer.EOF) {
			break
		}
		if tok.Type == lexer.ILLEGAL {
			return nil, types.SyntaxError("%s in SET clause", describe(tok))
		}
		p.advance()
	}
	stmt.Set = strings.TrimSpace(p.input[start:p.current().Pos])
	if stmt.Set == "" {
		return nil, types.SyntaxError("empty SET clause")
	}

	if p.current().Is("WHERE") {
		p.advance()
		if stmt.Where, err = p.parseWhere(); err != nil {
			return nil, err
		}
	}

	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseDelete() (*DeleteStatement, error) {
	p.advance() // DELETE
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.expect(lexer.IDENTIFIER, "table name")
	if err != nil {
		return nil, err
	}
	stmt := &DeleteStatement{Table: table.Literal}

	if !p.current().Is("WHERE") {
		return nil, types.SyntaxError("DELETE requires a WHERE clause, got %s", describe(p.current()))
	}
	p.advance()
	if stmt.Where, err = p.parseWhere(); err != nil {
		return nil, err
	}

	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return stmt, nil
}
