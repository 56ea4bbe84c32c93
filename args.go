package main

import (
	"strconv"
	"strings"

	"github.com/thiremani/calculon/jit"
	"github.com/thiremani/calculon/lexer"
	"github.com/thiremani/calculon/token"
)

// parseArgs reads a comma separated argument list such as
// "1.5, true, [1 2 3]" using the program lexer.
func parseArgs(src string) ([]any, error) {
	l := lexer.New(src)
	tok := l.NextToken()
	if tok.Type == token.EOF {
		return nil, nil
	}

	var args []any
	for {
		v, next, err := parseValue(l, tok)
		if err != nil {
			return nil, err
		}
		args = append(args, v)

		switch next.Type {
		case token.EOF:
			return args, nil
		case token.COMMA:
			tok = l.NextToken()
		default:
			return nil, token.Errorf(next.Pos, "expected ',' between arguments, got '%s'", next)
		}
	}
}

// parseValue parses the value starting at tok and returns the token after it.
func parseValue(l *lexer.Lexer, tok token.Token) (any, token.Token, error) {
	switch tok.Type {
	case token.TRUE:
		return true, l.NextToken(), nil
	case token.FALSE:
		return false, l.NextToken(), nil
	case token.LBRACK:
		start := tok.Pos
		var lanes []float64
		tok = l.NextToken()
		for tok.Type != token.RBRACK {
			switch tok.Type {
			case token.EOF:
				return nil, tok, token.Errorf(start, "unterminated vector")
			case token.COMMA:
				tok = l.NextToken()
				continue
			}
			f, next, err := parseReal(l, tok)
			if err != nil {
				return nil, next, err
			}
			lanes = append(lanes, f)
			tok = next
		}
		if len(lanes) == 0 {
			return nil, tok, token.Errorf(start, "empty vector")
		}
		return lanes, l.NextToken(), nil
	}
	return parseReal(l, tok)
}

func parseReal(l *lexer.Lexer, tok token.Token) (float64, token.Token, error) {
	neg := false
	if tok.Type == token.SUB {
		neg = true
		tok = l.NextToken()
	}
	if tok.Type != token.NUMBER {
		return 0, tok, token.Errorf(tok.Pos, "expected a number, got '%s'", tok)
	}
	f, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		return 0, tok, token.Errorf(tok.Pos, "invalid number '%s'", tok.Literal)
	}
	if neg {
		f = -f
	}
	return f, l.NextToken(), nil
}

func formatValue(v any) string {
	switch v := v.(type) {
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []float64:
		parts := make([]string, len(v))
		for i, f := range v {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	return "?"
}

// formatResults pairs results with their names from sig.
func formatResults(sig jit.Signature, results []any) []string {
	var names []string
	if sig.Return != "" {
		names = append(names, "result")
	}
	for _, o := range sig.Outputs {
		names = append(names, o.Name)
	}

	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = names[i] + " = " + formatValue(r)
	}
	return lines
}
