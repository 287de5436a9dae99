package parser

import (
	"github.com/zakazai/csvdb/internal/lexer"
	"github.com/zakazai/csvdb/internal/types"
)

// skipParens drops grouping parentheses; the predicate grammar is flat.
func (p *Parser) skipParens() {
	for p.current().Type == lexer.LPAREN || p.current().Type == lexer.RPAREN {
		p.advance()
	}
}

// parseWhere parses clauses joined by AND/OR, stopping before ORDER, ';' or end of input.
func (p *Parser) parseWhere() (*Predicate, error) {
	pred := &Predicate{}
	for {
		clause, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		pred.Clauses = append(pred.Clauses, clause)

		p.skipParens()
		tok := p.current()
		switch {
		case tok.Is("AND"):
			pred.Connectors = append(pred.Connectors, And)
		case tok.Is("OR"):
			pred.Connectors = append(pred.Connectors, Or)
		case tok.Type == lexer.EOF, tok.Type == lexer.SEMICOLON, tok.Is("ORDER"):
			return pred, nil
		default:
			return nil, types.SyntaxError("expected AND or OR after %q, got %s", clause.String(), describe(tok))
		}
		p.advance()
	}
}

func (p *Parser) parseClause() (Clause, error) {
	var clause Clause

	p.skipParens()
	if p.current().Is("NOT") {
		clause.Negated = true
		p.advance()
		p.skipParens()
	}

	left, err := p.parseOperand()
	if err != nil {
		return clause, err
	}

	tok := p.advance()
	if tok.Type != lexer.OPERATOR {
		return clause, types.SyntaxError("expected comparison (=, !=, <, >, <= or >=) after %q, got %s", left, describe(tok))
	}

	right, err := p.parseOperand()
	if err != nil {
		return clause, err
	}

	clause.Left = left
	clause.Op = Comparator(tok.Literal)
	clause.Right = right
	return clause, nil
}

func (p *Parser) parseOperand() (string, error) {
	tok := p.advance()
	switch tok.Type {
	case lexer.IDENTIFIER, lexer.NUMBER, lexer.STRING:
		return tok.Literal, nil
	default:
		return "", types.SyntaxError("expected value in WHERE clause, got %s", describe(tok))
	}
}

// parseOrderBy parses "col [ASC|DESC], ..." up to ';' or end of input.
func (p *Parser) parseOrderBy() ([]OrderKey, error) {
	var keys []OrderKey
	for {
		tok := p.advance()
		if tok.Type != lexer.IDENTIFIER {
			return nil, types.ColumnError("expected column name in ORDER BY, got %s", describe(tok))
		}
		key := OrderKey{Column: tok.Literal, Direction: Asc}

		switch next := p.current(); {
		case next.Is("DESC"):
			key.Direction = Desc
			p.advance()
		case next.Is("ASC"), next.Type == lexer.IDENTIFIER:
			// unknown directions fall back to ascending
			p.advance()
		}
		keys = append(keys, key)

		if p.current().Type != lexer.COMMA {
			return keys, nil
		}
		p.advance()
	}
}
