// Package label canonicalizes population unit names so the estimates and the
// polygon layer compare equal regardless of whitespace or Unicode form.
package label

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var spaceRe = regexp.MustCompile(`\s+`)

// Normalize puts a label in canonical form: NFC, trimmed, single spaces.
// Case and punctuation are preserved; they are significant in unit names.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// IsMissing reports whether a label counts as absent.
func IsMissing(s string) bool {
	n := Normalize(s)
	return n == "" || n == "NA"
}
