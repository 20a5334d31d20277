// Package fuzzy implements typo-tolerant candidate generation: a trigram
// index for cheap candidate retrieval and Levenshtein-distance scoring with
// an adaptive threshold (spec §4.5).
package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransform = transform.Chain(norm.NFC, runes.Map(unicode.ToLower))

// Words splits text into case-folded words on non letter/digit boundaries,
// deliberately unstemmed: fuzzy matching needs the surface form a typo
// actually produced, not its stem.
func Words(text string) []string {
	folded, _, err := transform.String(foldTransform, text)
	if err != nil {
		folded = strings.ToLower(text)
	}
	var words []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			words = append(words, b.String())
			b.Reset()
		}
	}
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return words
}

const boundary = "$"

// Trigrams returns the boundary-padded character trigrams of word, so a
// typo at the start or end of a short word still shares n-grams with the
// correct spelling. Words shorter than a single trigram return the padded
// word itself as one candidate n-gram.
func Trigrams(word string) []string {
	padded := boundary + word + boundary
	runes := []rune(padded)
	if len(runes) < 3 {
		return []string{string(runes)}
	}
	grams := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+3]))
	}
	return grams
}
