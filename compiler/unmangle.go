package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thiremani/calculon/types"
)

// UnmangleSignature decodes a function name produced by mangle into the
// nesting path and the parameter type names. It expects the format:
//
//	$<outer>.<inner> { $<Type> } [ #<n> ]
func UnmangleSignature(s string) (path []string, params []string, err error) {
	if len(s) == 0 || s[0] != '$' {
		return nil, nil, fmt.Errorf("invalid mangled string: missing leading '$'")
	}
	if i := strings.LastIndex(s, DUP); i >= 0 {
		if _, err := strconv.Atoi(s[i+1:]); err != nil {
			return nil, nil, fmt.Errorf("invalid duplicate counter in %q", s)
		}
		s = s[:i]
	}

	name, pos := readToken(s, 0)
	if name == "" {
		return nil, nil, fmt.Errorf("invalid mangled string: empty function name")
	}
	path = strings.Split(name, NEST)
	for pos < len(s) {
		tok, next := readToken(s, pos)
		t, err := parseTypeToken(tok)
		if err != nil {
			return nil, nil, err
		}
		params = append(params, t)
		pos = next
	}
	return path, params, nil
}

func parseTypeToken(tok string) (string, error) {
	switch {
	case tok == "R":
		return "real", nil
	case tok == "B":
		return "boolean", nil
	case len(tok) > 1 && tok[0] == 'V':
		n, err := strconv.Atoi(tok[1:])
		if err != nil || n < 1 {
			return "", fmt.Errorf("invalid vector arity in token %q", tok)
		}
		return types.VectorName(n), nil
	}
	return "", fmt.Errorf("unknown type tag: %q", tok)
}

// readToken reads the token that starts at s[pos], where s[pos] == '$'.
// It returns the token string and the index of the next '$' or end of string.
func readToken(s string, pos int) (string, int) {
	// precondition: s[pos] == '$'
	i := pos + 1
	j := i
	for j < len(s) && s[j] != '$' {
		j++
	}
	return s[i:j], j
}

// Demangle renders a mangled name as path(types), e.g. toplevel.f(real).
// Names that don't decode are returned unchanged.
func Demangle(s string) string {
	path, params, err := UnmangleSignature(s)
	if err != nil {
		return s
	}
	return strings.Join(path, NEST) + "(" + strings.Join(params, ", ") + ")"
}
