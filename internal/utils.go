package internal

import (
	"strings"
	"unicode"
)

// SanitizeFilename creates a safe filename from a set name.
// Letters and digits of any script are kept, everything else becomes '_'.
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "flashcards"
	}
	return b.String()
}

// Truncate shortens s to at most n runes and appends "..." when it was cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
