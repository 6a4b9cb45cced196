// Package utils provides common utility functions.
package utils

import (
	"regexp"
	"strings"
)

var footnotePattern = regexp.MustCompile(`\[[^\]]*\]`)

// StringHelper provides string utility functions.
type StringHelper struct{}

// NewStringHelper creates a new string helper.
func NewStringHelper() *StringHelper {
	return &StringHelper{}
}

// NormalizeWhitespace folds non-breaking and thin spaces into plain spaces
// and replaces runs of whitespace with a single space.
func (s *StringHelper) NormalizeWhitespace(str string) string {
	str = strings.NewReplacer("\u00a0", " ", "\u2009", " ", "\u202f", " ").Replace(str)

	return strings.Join(strings.Fields(str), " ")
}

// StripFootnotes removes bracketed annotations such as "[1]" or "[n 2]".
func (s *StringHelper) StripFootnotes(str string) string {
	return footnotePattern.ReplaceAllString(str, "")
}

// Clean strips footnotes and normalizes whitespace.
func (s *StringHelper) Clean(str string) string {
	return s.NormalizeWhitespace(s.StripFootnotes(str))
}

// TruncateString truncates string to maxLength runes.
func (s *StringHelper) TruncateString(str string, maxLength int) string {
	runes := []rune(str)
	if len(runes) <= maxLength {
		return str
	}

	return string(runes[:maxLength]) + "..."
}
