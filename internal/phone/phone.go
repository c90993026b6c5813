// Package phone holds the phone-number helpers shared by the importer and
// member validation.
package phone

import (
	"regexp"
	"strings"
	"unicode"
)

var pattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]+$`)

// Normalize strips whitespace, hyphens and parentheses and lower-cases the
// result. The normalized form is only used for equality checks.
func Normalize(p string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '(' || r == ')' {
			return -1
		}
		return r
	}, p))
}

// Equal reports whether two phone strings normalize to the same value.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Valid reports whether p looks like a phone number: digits, an optional
// leading '+', spaces, hyphens and parentheses.
func Valid(p string) bool {
	return pattern.MatchString(p)
}
