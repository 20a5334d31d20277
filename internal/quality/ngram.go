package quality

import "strings"

// ngrams returns the set of character n-grams of s, lowercased and
// whitespace-collapsed. n is configurable (spec.md's "default n=3"),
// generalizing the teacher's hardcoded bigram helper in store/nodes.go.
func ngrams(s string, n int) map[string]bool {
	if n <= 0 {
		n = 3
	}
	norm := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	runes := []rune(norm)
	set := make(map[string]bool)
	if len(runes) < n {
		if len(runes) > 0 {
			set[string(runes)] = true
		}
		return set
	}
	for i := 0; i+n <= len(runes); i++ {
		set[string(runes[i:i+n])] = true
	}
	return set
}

// jaccard computes the Jaccard similarity of two n-gram sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for g := range a {
		if b[g] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
