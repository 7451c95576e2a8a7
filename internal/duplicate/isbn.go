// Package duplicate decides whether a book is already owned. Two books are the
// same when their ISBNs match exactly, or failing that when their normalized
// title and author both match.
package duplicate

import (
	"regexp"
	"strings"
	"unicode"
)

//nolint:gochecknoglobals // Compiled once
var isbnPrefix = regexp.MustCompile(`(?i)^isbn(?:-1[03])?[\s:\-]*`)

// CleanISBN strips an optional "ISBN", "ISBN-10" or "ISBN-13" label and every
// dash and space. The result is not checked for digits; pair with IsISBN.
func CleanISBN(s string) string {
	s = strings.TrimSpace(s)
	s = isbnPrefix.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// IsISBN reports whether s cleans to exactly 10 or 13 decimal digits.
func IsISBN(s string) bool {
	clean := CleanISBN(s)
	if len(clean) != 10 && len(clean) != 13 {
		return false
	}
	for i := range len(clean) {
		if clean[i] < '0' || clean[i] > '9' {
			return false
		}
	}
	return true
}
