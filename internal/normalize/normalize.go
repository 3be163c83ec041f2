package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the search form of s: decomposed, stripped of combining
// marks, recomposed and case folded. "Café" and "CAFE" fold to the same string.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

// Contains reports whether needle occurs in haystack ignoring case and
// diacritics. Only an empty needle matches everything; whitespace is matched
// literally.
func Contains(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(Fold(haystack), Fold(needle))
}

// Collator orders labels the way people expect to read them in a list.
// It is not safe for concurrent use.
type Collator struct {
	c *collate.Collator
}

func NewCollator() *Collator {
	return &Collator{c: collate.New(language.Und)}
}

// Less orders by collation and falls back to byte order so that the result
// is total and deterministic.
func (c *Collator) Less(a, b string) bool {
	if r := c.c.CompareString(a, b); r != 0 {
		return r < 0
	}
	return a < b
}
