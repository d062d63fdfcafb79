package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// CollapseWhitespace trims the value and collapses interior whitespace runs
// to a single space.
func CollapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// TitleCase normalizes capitalization of free-text names and event labels.
// Source rows arrive in mixed case ("jordan SMITH", "juvenile short program")
// and every index lookup depends on a stable form.
func TitleCase(value string) string {
	value = CollapseWhitespace(value)
	if value == "" {
		return ""
	}
	return titleCaser.String(value)
}

// Key converts a display string into a filesystem-safe cache key. Runs of
// non-word characters collapse to a single underscore, matching the naming
// scheme of existing cache directories.
func Key(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	pendingSep := false
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
