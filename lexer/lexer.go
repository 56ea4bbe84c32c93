package lexer

import "github.com/thiremani/calculon/token"

type Lexer struct {
	input        []rune
	position     int  // current position in input (points to current rune)
	readPosition int  // current reading position in input (after current rune)
	curr         rune // current rune under examination
	line         int
	column       int
}

func New(input string) *Lexer {
	l := &Lexer{input: []rune(input), line: 1}
	l.readRune()
	return l
}

func (l *Lexer) NextToken() token.Token {
	var tok token.Token

	l.skipWhitespaceAndComments()
	pos := token.Position{Line: l.line, Column: l.column}

	switch l.curr {
	case '=':
		tok = l.twoRune('=', token.EQL, token.ASSIGN)
	case '!':
		tok = l.twoRune('=', token.NEQ, token.NOT)
	case '<':
		tok = l.twoRune('=', token.LEQ, token.LSS)
	case '>':
		tok = l.twoRune('=', token.GEQ, token.GTR)
	case '&':
		tok = l.twoRune('&', token.LAND, token.ILLEGAL)
	case '|':
		tok = l.twoRune('|', token.LOR, token.ILLEGAL)
	case '+':
		tok = newToken(token.ADD, l.curr)
	case '-':
		tok = newToken(token.SUB, l.curr)
	case '*':
		tok = newToken(token.MUL, l.curr)
	case '/':
		tok = newToken(token.QUO, l.curr)
	case '%':
		tok = newToken(token.REM, l.curr)
	case ',':
		tok = newToken(token.COMMA, l.curr)
	case ':':
		tok = newToken(token.COLON, l.curr)
	case ';':
		tok = newToken(token.SEMICOLON, l.curr)
	case '(':
		tok = newToken(token.LPAREN, l.curr)
	case ')':
		tok = newToken(token.RPAREN, l.curr)
	case '[':
		tok = newToken(token.LBRACK, l.curr)
	case ']':
		tok = newToken(token.RBRACK, l.curr)
	case '.':
		if isDigit(l.peekRune()) {
			tok.Type = token.NUMBER
			tok.Literal = l.readNumber()
			tok.Pos = pos
			return tok
		}
		tok = newToken(token.PERIOD, l.curr)
	case 0:
		tok.Literal = ""
		tok.Type = token.EOF
		tok.Pos = pos
		return tok
	default:
		if isLetter(l.curr) {
			tok.Literal = l.readIdentifier()
			tok.Type = token.LookupIdent(tok.Literal)
			tok.Pos = pos
			return tok
		} else if isDigit(l.curr) {
			tok.Type = token.NUMBER
			tok.Literal = l.readNumber()
			tok.Pos = pos
			return tok
		} else {
			tok = newToken(token.ILLEGAL, l.curr)
		}
	}

	tok.Pos = pos
	l.readRune()
	return tok
}

// twoRune emits two if the current rune is followed by second, else one.
func (l *Lexer) twoRune(second rune, two, one token.TokenType) token.Token {
	if l.peekRune() == second {
		first := l.curr
		l.readRune()
		return token.Token{Type: two, Literal: string(first) + string(l.curr)}
	}
	return newToken(one, l.curr)
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.curr == ' ' || l.curr == '\t' || l.curr == '\n' || l.curr == '\r':
			l.readRune()
		case l.curr == '#', l.curr == '/' && l.peekRune() == '/':
			for l.curr != '\n' && l.curr != 0 {
				l.readRune()
			}
		default:
			return
		}
	}
}

func (l *Lexer) readRune() {
	if l.curr == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.curr = 0
	} else {
		l.curr = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

func (l *Lexer) peekRune() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.curr) || isDigit(l.curr) {
		l.readRune()
	}
	return string(l.input[position:l.position])
}

// readNumber accepts digits with an optional fraction and exponent.
func (l *Lexer) readNumber() string {
	position := l.position
	for isDigit(l.curr) {
		l.readRune()
	}
	if l.curr == '.' && isDigit(l.peekRune()) {
		l.readRune()
		for isDigit(l.curr) {
			l.readRune()
		}
	} else if l.curr == '.' && !isLetter(l.peekRune()) {
		// "1." is a complete literal, "1.x" is a lane access
		l.readRune()
	}
	if l.curr == 'e' || l.curr == 'E' {
		next := l.peekRune()
		if isDigit(next) || ((next == '+' || next == '-') && l.readPosition+1 < len(l.input) && isDigit(l.input[l.readPosition+1])) {
			l.readRune()
			if l.curr == '+' || l.curr == '-' {
				l.readRune()
			}
			for isDigit(l.curr) {
				l.readRune()
			}
		}
	}
	return string(l.input[position:l.position])
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func newToken(tokenType token.TokenType, curr rune) token.Token {
	return token.Token{Type: tokenType, Literal: string(curr)}
}
