// Package processor prepares page text before it is sent to a model.
package processor

import (
	"strings"
	"unicode/utf8"
)

// Truncate returns the first max characters of text. Characters are runes, so
// multi-byte text is never cut in the middle of a code point. max <= 0 disables it.
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}

	count := 0
	for i := range text {
		if count == max {
			return text[:i]
		}
		count++
	}
	return text
}

// CleanText collapses runs of whitespace into single spaces and trims the result.
func CleanText(text string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(text), " "))
}

// SanitizeUTF8 drops invalid bytes so text can be stored in Postgres.
func SanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	v := make([]rune, 0, len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(s[i:])
			if size == 1 {
				continue
			}
		}
		v = append(v, r)
	}
	return string(v)
}

// Prepare cleans and truncates text in one step.
func Prepare(text string, max int) string {
	return Truncate(CleanText(text), max)
}
