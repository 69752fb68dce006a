package db

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// searchNormalizer strips diacritics: decompose, drop combining marks,
// recompose.
var searchNormalizer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeSearchTerm prepares a user-supplied search term for an ILIKE
// match: fold diacritics, lowercase, collapse surrounding whitespace. Only
// the query side is folded, so a "café" search matches plain "cafe" titles;
// titles stored with diacritics still need the accented form.
func NormalizeSearchTerm(term string) string {
	folded, _, err := transform.String(searchNormalizer, term)
	if err != nil {
		folded = term
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
