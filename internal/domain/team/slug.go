package team

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lower-cases name, strips accents, drops punctuation, turns
// whitespace into hyphens and collapses repeats.
func Slugify(name string) string {
	value := strings.ToLower(strings.TrimSpace(name))
	if value == "" {
		return ""
	}
	if folded, _, err := transform.String(stripMarks, value); err == nil {
		value = folded
	}

	var b strings.Builder
	b.Grow(len(value))
	lastDash := true
	for _, r := range value {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}

var clubSuffixes = []string{" fc", " f.c.", " afc", " cf"}

// CleanName trims, collapses inner whitespace and drops a trailing club
// suffix such as "FC".
func CleanName(name string) string {
	value := strings.Join(strings.Fields(name), " ")
	lower := strings.ToLower(value)
	for _, suffix := range clubSuffixes {
		if strings.HasSuffix(lower, suffix) && len(value) > len(suffix) {
			return strings.TrimSpace(value[:len(value)-len(suffix)])
		}
	}
	return value
}
