package util

import (
	"strings"
	"unicode"
)

// LettersOnly strips every non-letter rune from the given string.
func LettersOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EqualsIgnoreCase case-insensitive string equality after trimming spaces.
func EqualsIgnoreCase(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
