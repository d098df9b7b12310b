package generator

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"
)

// Words turns a label or property name into lowercase space separated words.
// All-caps names are split on underscores only, so acronyms stay whole.
func Words(s string) string {
	if isUpper(s) {
		parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' })

		return strings.ToLower(strings.Join(parts, " "))
	}

	return strcase.ToDelimited(s, ' ')
}

// isUpper reports whether s has at least one cased letter and no lowercase
// letters.
func isUpper(s string) bool {
	cased := false

	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}

	return cased
}

var (
	nonSlug    = regexp.MustCompile(`[^a-z0-9_]+`)
	underscore = regexp.MustCompile(`_+`)
)

// Slugify joins parts with underscores into a lowercase [a-z0-9_] identifier.
func Slugify(parts ...string) string {
	s := strings.ToLower(strings.Join(parts, "_"))
	s = nonSlug.ReplaceAllString(s, "_")
	s = underscore.ReplaceAllString(s, "_")

	return strings.Trim(s, "_")
}

func lowerAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToLower(s)
	}

	return out
}

func head(ss []string, n int) []string {
	if len(ss) > n {
		return ss[:n]
	}

	return ss
}
