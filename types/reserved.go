package types

import "strings"

// Source-level type family names. A vector type is spelled "vector" or
// "vector*N".
const (
	realName    = "real"
	booleanName = "boolean"
	vectorName  = "vector"
)

// IsReservedTypeName reports whether name spells a type and so can't be
// bound as a variable or function.
func IsReservedTypeName(name string) bool {
	switch name {
	case realName, booleanName, vectorName:
		return true
	}
	return strings.HasPrefix(name, vectorName+"*")
}
