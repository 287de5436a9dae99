package lexer

import (
	"fmt"
	"strconv"
)

// TokenType represents the type of a token
type TokenType int

const (
	// EOF represents the end of input
	EOF TokenType = iota
	// KEYWORD represents a keyword token
	KEYWORD
	// IDENTIFIER represents a bare word that is not a keyword or an integer
	IDENTIFIER
	// NUMBER represents a base-10 integer
	NUMBER
	// STRING represents a single-quoted string, quotes included
	STRING
	// LPAREN represents a left parenthesis
	LPAREN
	// RPAREN represents a right parenthesis
	RPAREN
	// COMMA represents a comma
	COMMA
	// SEMICOLON represents a semicolon
	SEMICOLON
	// ASTERISK represents an asterisk
	ASTERISK
	// OPERATOR represents a comparison operator
	OPERATOR
	// ILLEGAL represents input that cannot start any token
	ILLEGAL
)

var tokenNames = map[TokenType]string{
	EOF:        "EOF",
	KEYWORD:    "KEYWORD",
	IDENTIFIER: "IDENTIFIER",
	NUMBER:     "NUMBER",
	STRING:     "STRING",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	COMMA:      "COMMA",
	SEMICOLON:  "SEMICOLON",
	ASTERISK:   "ASTERISK",
	OPERATOR:   "OPERATOR",
	ILLEGAL:    "ILLEGAL",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Keywords are case-sensitive.
var keywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true,
	"INSERT": true, "INTO": true, "VALUES": true,
	"UPDATE": true, "SET": true, "DELETE": true,
	"ORDER": true, "BY": true, "ASC": true, "DESC": true,
	"AND": true, "OR": true, "NOT": true,
}

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Pos     int // byte offset of the token in the input
}

// Is reports whether the token is the given keyword
func (t Token) Is(keyword string) bool {
	return t.Type == KEYWORD && t.Literal == keyword
}

// Lexer represents a lexical analyzer
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte
}

// New creates a new lexer with the given input
func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken returns the next token, EOF once the input is exhausted.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	tok := Token{Pos: l.position}
	if l.position >= len(l.input) {
		tok.Type = EOF
		return tok
	}

	switch l.ch {
	case '(':
		tok.Type, tok.Literal = LPAREN, "("
	case ')':
		tok.Type, tok.Literal = RPAREN, ")"
	case ',':
		tok.Type, tok.Literal = COMMA, ","
	case ';':
		tok.Type, tok.Literal = SEMICOLON, ";"
	case '*':
		tok.Type, tok.Literal = ASTERISK, "*"
	case '=':
		tok.Type, tok.Literal = OPERATOR, "="
	case '<', '>', '!':
		first := l.ch
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Literal = OPERATOR, string([]byte{first, '='})
		} else if first == '!' {
			tok.Type, tok.Literal = ILLEGAL, "!"
		} else {
			tok.Type, tok.Literal = OPERATOR, string(first)
		}
	case '\'':
		literal, ok := l.readString()
		if !ok {
			tok.Type, tok.Literal = ILLEGAL, literal
			return tok
		}
		tok.Type, tok.Literal = STRING, literal
		return tok
	default:
		tok.Literal = l.readWord()
		switch {
		case keywords[tok.Literal]:
			tok.Type = KEYWORD
		case isInteger(tok.Literal):
			tok.Type = NUMBER
		default:
			tok.Type = IDENTIFIER
		}
		return tok
	}

	l.readChar()
	return tok
}

func (l *Lexer) skipWhitespace() {
	for isWhitespace(l.ch) && l.position < len(l.input) {
		l.readChar()
	}
}

func (l *Lexer) readWord() string {
	position := l.position
	for l.position < len(l.input) && !isWhitespace(l.ch) && !isDelimiter(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readString consumes a quoted string starting at the opening quote and
// returns it with both quotes. ok is false when the closing quote is missing.
func (l *Lexer) readString() (string, bool) {
	position := l.position
	l.readChar()
	for l.position < len(l.input) && l.ch != '\'' {
		l.readChar()
	}
	if l.position >= len(l.input) {
		return l.input[position:], false
	}
	l.readChar()
	return l.input[position:l.position], true
}

// Tokenize lexes the whole input. The returned slice always ends with an EOF token.
func Tokenize(input string) []Token {
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDelimiter(ch byte) bool {
	switch ch {
	case '(', ')', ',', ';', '*', '\'', '=', '<', '>', '!':
		return true
	}
	return false
}

func isInteger(word string) bool {
	_, err := strconv.ParseInt(word, 10, 64)
	return err == nil
}

func (t Token) String() string {
	return fmt.Sprintf("Token{Type: %v, Literal: %q}", t.Type, t.Literal)
}
