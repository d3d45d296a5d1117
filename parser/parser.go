// Package parser turns listing pages into clean article titles.
package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Sanitizer strips every character outside the configured alphabets and whitespace.
type Sanitizer struct {
	disallowed *regexp.Regexp
	ranges     []string
}

// NewSanitizer compiles alphabet ranges such as "A-Z" or "Ա-Ֆ". A single
// character is accepted as a one-rune range.
func NewSanitizer(ranges []string) (*Sanitizer, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("sanitizer: no alphabet ranges")
	}

	var class strings.Builder
	class.WriteString(`[^`)
	for _, r := range ranges {
		lo, hi, err := parseRange(r)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&class, `\x{%x}-\x{%x}`, lo, hi)
	}
	// \s alone is ASCII-only; \p{Z} keeps no-break and typographic spaces.
	class.WriteString(`\s\p{Z}]+`)

	re, err := regexp.Compile(class.String())
	if err != nil {
		return nil, fmt.Errorf("sanitizer: compile %q: %w", class.String(), err)
	}
	return &Sanitizer{
		disallowed: re,
		ranges:     append([]string(nil), ranges...),
	}, nil
}

// MustSanitizer is like NewSanitizer but panics on error.
func MustSanitizer(ranges ...string) *Sanitizer {
	s, err := NewSanitizer(ranges)
	if err != nil {
		panic(err)
	}
	return s
}

func parseRange(expr string) (rune, rune, error) {
	runes := []rune(expr)
	switch {
	case len(runes) == 1:
		return runes[0], runes[0], nil
	case len(runes) == 3 && runes[1] == '-':
		lo, hi := runes[0], runes[2]
		if lo == utf8.RuneError || hi == utf8.RuneError {
			return 0, 0, fmt.Errorf("sanitizer: invalid rune in range %q", expr)
		}
		if lo > hi {
			return 0, 0, fmt.Errorf("sanitizer: range %q is reversed", expr)
		}
		return lo, hi, nil
	default:
		return 0, 0, fmt.Errorf("sanitizer: malformed range %q, want X-Y", expr)
	}
}

// Ranges returns the configured alphabet ranges.
func (s *Sanitizer) Ranges() []string {
	return append([]string(nil), s.ranges...)
}

// CleanTitle normalises a single title. The result is empty when nothing allowed remains.
func (s *Sanitizer) CleanTitle(raw string) string {
	cleaned := s.disallowed.ReplaceAllString(norm.NFC.String(raw), "")
	return strings.TrimSpace(cleaned)
}

// Clean filters raw titles, dropping those that reduce to nothing. Order is preserved.
func (s *Sanitizer) Clean(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, title := range raw {
		if cleaned := s.CleanTitle(title); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
