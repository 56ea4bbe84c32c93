package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/thiremani/calculon/token"
)

type Test struct {
	expectedType    token.TokenType
	expectedLiteral string
}

func checkInput(t *testing.T, input string, tests []Test) {
	t.Helper()
	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken(t *testing.T) {
	input := `let f(x: vector*3): real = x.y + 2.5e-1 in
# comment
let b = not (1 <= 2) and 3 != 4 || false;
// another comment
if b then [1, 2; 3] else return r = f(x) % 2`

	tests := []Test{
		{token.LET, "let"},
		{token.IDENT, "f"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.COLON, ":"},
		{token.IDENT, "vector"},
		{token.MUL, "*"},
		{token.NUMBER, "3"},
		{token.RPAREN, ")"},
		{token.COLON, ":"},
		{token.IDENT, "real"},
		{token.ASSIGN, "="},
		{token.IDENT, "x"},
		{token.PERIOD, "."},
		{token.IDENT, "y"},
		{token.ADD, "+"},
		{token.NUMBER, "2.5e-1"},
		{token.IN, "in"},
		{token.LET, "let"},
		{token.IDENT, "b"},
		{token.ASSIGN, "="},
		{token.NOT, "not"},
		{token.LPAREN, "("},
		{token.NUMBER, "1"},
		{token.LEQ, "<="},
		{token.NUMBER, "2"},
		{token.RPAREN, ")"},
		{token.LAND, "and"},
		{token.NUMBER, "3"},
		{token.NEQ, "!="},
		{token.NUMBER, "4"},
		{token.LOR, "||"},
		{token.FALSE, "false"},
		{token.SEMICOLON, ";"},
		{token.IF, "if"},
		{token.IDENT, "b"},
		{token.THEN, "then"},
		{token.LBRACK, "["},
		{token.NUMBER, "1"},
		{token.COMMA, ","},
		{token.NUMBER, "2"},
		{token.SEMICOLON, ";"},
		{token.NUMBER, "3"},
		{token.RBRACK, "]"},
		{token.ELSE, "else"},
		{token.RETURN, "return"},
		{token.IDENT, "r"},
		{token.ASSIGN, "="},
		{token.IDENT, "f"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.RPAREN, ")"},
		{token.REM, "%"},
		{token.NUMBER, "2"},
		{token.EOF, ""},
	}

	checkInput(t, input, tests)
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"42", []string{"42"}},
		{"3.25", []string{"3.25"}},
		{".5", []string{".5"}},
		{"1e10", []string{"1e10"}},
		{"1E+2", []string{"1E+2"}},
		{"7.", []string{"7."}},
		{"2.x", []string{"2", ".", "x"}},
		{"3e", []string{"3", "e"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := New(tt.input)
			var got []string
			for tok := l.NextToken(); tok.Type != token.EOF; tok = l.NextToken() {
				got = append(got, tok.Literal)
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("literals mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPositions(t *testing.T) {
	l := New("let x = 1\n  in x")

	expected := []token.Position{
		{Line: 1, Column: 1},
		{Line: 1, Column: 5},
		{Line: 1, Column: 7},
		{Line: 1, Column: 9},
		{Line: 2, Column: 3},
		{Line: 2, Column: 6},
		{Line: 2, Column: 7},
	}
	for i, want := range expected {
		tok := l.NextToken()
		require.Equal(t, want, tok.Pos, "token %d (%s)", i, tok)
	}
}

func TestIllegal(t *testing.T) {
	l := New("a & b @")
	require.Equal(t, token.IDENT, l.NextToken().Type)
	tok := l.NextToken()
	require.Equal(t, token.ILLEGAL, tok.Type)
	require.Equal(t, "&", tok.Literal)
	require.Equal(t, token.IDENT, l.NextToken().Type)
	require.Equal(t, token.ILLEGAL, l.NextToken().Type)
}
