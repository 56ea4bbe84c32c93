package token

import (
	"fmt"
	"strconv"
)

type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF

	literal_beg
	// Identifiers + literals
	IDENT  // add, foobar, x, y, ...
	NUMBER // 12, 1.5, 2e-3
	literal_end

	operator_beg
	// Operators and delimiters
	ASSIGN // =
	NOT    // !

	ADD // +
	SUB // -
	MUL // *
	QUO // /
	REM // %

	LAND // &&
	LOR  // ||

	LPAREN    // (
	LBRACK    // [
	COMMA     // ,
	PERIOD    // .
	COLON     // :
	SEMICOLON // ;

	RPAREN // )
	RBRACK // ]
	operator_end

	comparison_beg
	EQL // ==
	LSS // <
	GTR // >

	NEQ // !=
	LEQ // <=
	GEQ // >=
	comparison_end

	keyword_beg
	LET
	IN
	IF
	THEN
	ELSE
	RETURN
	TRUE
	FALSE
	keyword_end
)

var tokens = [...]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	IDENT:  "IDENT",
	NUMBER: "NUMBER",

	ASSIGN: "=",
	NOT:    "!",

	ADD: "+",
	SUB: "-",
	MUL: "*",
	QUO: "/",
	REM: "%",

	LAND: "&&",
	LOR:  "||",

	LPAREN:    "(",
	LBRACK:    "[",
	COMMA:     ",",
	PERIOD:    ".",
	COLON:     ":",
	SEMICOLON: ";",

	RPAREN: ")",
	RBRACK: "]",

	EQL: "==",
	LSS: "<",
	GTR: ">",

	NEQ: "!=",
	LEQ: "<=",
	GEQ: ">=",

	LET:    "let",
	IN:     "in",
	IF:     "if",
	THEN:   "then",
	ELSE:   "else",
	RETURN: "return",
	TRUE:   "true",
	FALSE:  "false",
}

// keywords also carries the word spellings of the logical operators.
var keywords = map[string]TokenType{
	"let":    LET,
	"in":     IN,
	"if":     IF,
	"then":   THEN,
	"else":   ELSE,
	"return": RETURN,
	"true":   TRUE,
	"false":  FALSE,
	"and":    LAND,
	"or":     LOR,
	"not":    NOT,
}

// LookupIdent returns the keyword token type for ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Position is a 1-based line and column in the source text.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// IsValid reports whether the position refers to real source text.
func (p Position) IsValid() bool {
	return p.Line > 0
}

type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

func (t Token) IsComparison() bool {
	return comparison_beg < t.Type && comparison_end > t.Type
}

func (t Token) IsKeyword() bool {
	return keyword_beg < t.Type && keyword_end > t.Type
}

func (t Token) String() string {
	if t.Type == IDENT || t.Type == NUMBER {
		return t.Literal
	}
	return t.Type.String()
}

func (tokenType TokenType) String() string {
	s := ""
	if 0 <= tokenType && tokenType < TokenType(len(tokens)) {
		s = tokens[tokenType]
	}

	if s == "" {
		s = "token(" + strconv.Itoa(int(tokenType)) + ")"
	}

	return s
}

// CompileError is a syntax or structural error tied to a source position.
type CompileError struct {
	Pos Position
	Msg string
}

func Errorf(pos Position, format string, args ...any) *CompileError {
	return &CompileError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (e *CompileError) Error() string {
	if !e.Pos.IsValid() {
		return e.Msg
	}
	return e.Msg + " at " + e.Pos.String()
}
