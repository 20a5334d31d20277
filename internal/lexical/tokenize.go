// Package lexical implements the keyword retrieval channel: tokenization,
// stemming, a hand-rolled inverted index, and BM25 scoring over it.
package lexical

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Token is a single normalized, stemmed term and its 0-based position
// within the token stream it was extracted from.
type Token struct {
	Term     string
	Position int
}

var foldTransform = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, runes.Map(unicode.ToLower))

// Tokenize splits text into a stream of NFC-folded, lowercased, stemmed
// terms. Splitting is Unicode letter/digit aware rather than whitespace
// only, so "foo-bar" yields two terms, and accented letters fold correctly:
// combining marks are stripped, so "Café" and "CAFE" yield the same term.
func Tokenize(text string) []Token {
	folded, _, err := transform.String(foldTransform, text)
	if err != nil {
		folded = strings.ToLower(text)
	}

	var tokens []Token
	var b strings.Builder
	pos := 0

	flush := func() {
		if b.Len() == 0 {
			return
		}
		if term := Stem(b.String()); term != "" {
			tokens = append(tokens, Token{Term: term, Position: pos})
			pos++
		}
		b.Reset()
	}

	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// TermFrequencies reduces a token stream to a term -> occurrence count map,
// the shape the inverted index stores one posting row per.
func TermFrequencies(tokens []Token) map[string]int {
	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t.Term]++
	}
	return freq
}
