package validation

import (
	"strings"
	"unicode"
)

// StripUnprintable removes non-printable characters from extracted document
// text, allowing common whitespace like space, tab, newline, and carriage
// return. OCR output occasionally carries control bytes that break JSON
// re-encoding downstream.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1 // Drop the rune
	}, s)
}
