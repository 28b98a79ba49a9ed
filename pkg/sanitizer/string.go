package sanitizer

import (
	"strings"
	"unicode"
)

// CollapseSpace trims s and joins its words with single spaces.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripControl removes non-printable runes such as zero-width spaces that
// survive copy and paste from documents.
func StripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s)
}

func NormalizeName(name string) string {
	return Pipeline{StripControl, CollapseSpace}.Apply(name)
}
