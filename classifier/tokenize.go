package classifier

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFC and Unicode case folding and trims surrounding space.
func Normalize(text string) string {
	return strings.TrimSpace(cases.Fold().String(norm.NFC.String(text)))
}

// Tokenize splits normalised text on runs of anything but letters and digits
// and drops tokens shorter than minLen runes.
func Tokenize(text string, minLen int) []string {
	fields := strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
