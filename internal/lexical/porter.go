package lexical

import "strings"

// Stem reduces word to its Porter stem (M.F. Porter, 1980, steps 1a-5).
// word is assumed already lowercase; non-letter runes are left untouched
// since Tokenize only ever passes letter/digit runs through here.
func Stem(word string) string {
	if len(word) < 3 {
		return word
	}
	w := word
	w = step1a(w)
	w = step1b(w)
	w = step1c(w)
	w = step2(w)
	w = step3(w)
	w = step4(w)
	w = step5a(w)
	w = step5b(w)
	return w
}

func isConsonant(w []rune, i int) bool {
	switch w[i] {
	case 'a', 'e', 'i', 'o', 'u':
		return false
	case 'y':
		if i == 0 {
			return true
		}
		return !isConsonant(w, i-1)
	default:
		return true
	}
}

// measure counts VC repeats in the word's consonant/vowel pattern: a word
// reduces to [C](VC)^m[V], and m is the measure Porter's conditions test.
func measure(w []rune, j int) int {
	i, m := 0, 0
	for i <= j && isConsonant(w, i) {
		i++
	}
	for i <= j {
		for i <= j && !isConsonant(w, i) {
			i++
		}
		if i > j {
			break
		}
		m++
		for i <= j && isConsonant(w, i) {
			i++
		}
	}
	return m
}

func containsVowel(w []rune, j int) bool {
	for i := 0; i <= j; i++ {
		if !isConsonant(w, i) {
			return true
		}
	}
	return false
}

func doubleConsonant(w []rune, j int) bool {
	if j < 1 || w[j] != w[j-1] {
		return false
	}
	return isConsonant(w, j)
}

// cvc reports whether w[j-2:j+1] has the form consonant-vowel-consonant
// with the final consonant not w, x, or y.
func cvc(w []rune, j int) bool {
	if j < 2 {
		return false
	}
	if !isConsonant(w, j) || isConsonant(w, j-1) || !isConsonant(w, j-2) {
		return false
	}
	switch w[j] {
	case 'w', 'x', 'y':
		return false
	}
	return true
}

func stemMeasure(s string) int {
	w := []rune(s)
	if len(w) == 0 {
		return 0
	}
	return measure(w, len(w)-1)
}

func stemContainsVowel(s string) bool {
	w := []rune(s)
	if len(w) == 0 {
		return false
	}
	return containsVowel(w, len(w)-1)
}

func stemEndsDoubleConsonant(s string) bool {
	w := []rune(s)
	if len(w) == 0 {
		return false
	}
	return doubleConsonant(w, len(w)-1)
}

func stemCVC(s string) bool {
	w := []rune(s)
	if len(w) == 0 {
		return false
	}
	return cvc(w, len(w)-1)
}

type suffixRule struct {
	suffix      string
	replacement string
	cond        func(stem string) bool
}

// applyRules tries rules in order and stops at the first matching suffix,
// whether or not its condition passes (a matched-but-failed condition
// leaves the word unchanged rather than falling through to a shorter rule).
func applyRules(word string, rules []suffixRule) string {
	for _, r := range rules {
		if !strings.HasSuffix(word, r.suffix) {
			continue
		}
		stem := strings.TrimSuffix(word, r.suffix)
		if r.cond == nil || r.cond(stem) {
			return stem + r.replacement
		}
		return word
	}
	return word
}

func step1a(word string) string {
	return applyRules(word, []suffixRule{
		{"sses", "ss", nil},
		{"ies", "i", nil},
		{"ss", "ss", nil},
		{"s", "", nil},
	})
}

func step1b(word string) string {
	if strings.HasSuffix(word, "eed") {
		stem := strings.TrimSuffix(word, "eed")
		if stemMeasure(stem) > 0 {
			return stem + "ee"
		}
		return word
	}

	var stem string
	matched := false
	if strings.HasSuffix(word, "ed") {
		candidate := strings.TrimSuffix(word, "ed")
		if stemContainsVowel(candidate) {
			stem, matched = candidate, true
		}
	}
	if !matched && strings.HasSuffix(word, "ing") {
		candidate := strings.TrimSuffix(word, "ing")
		if stemContainsVowel(candidate) {
			stem, matched = candidate, true
		}
	}
	if !matched {
		return word
	}

	switch {
	case strings.HasSuffix(stem, "at"), strings.HasSuffix(stem, "bl"), strings.HasSuffix(stem, "iz"):
		return stem + "e"
	case stemEndsDoubleConsonant(stem) && !strings.HasSuffix(stem, "l") && !strings.HasSuffix(stem, "s") && !strings.HasSuffix(stem, "z"):
		return stem[:len(stem)-1]
	case stemMeasure(stem) == 1 && stemCVC(stem):
		return stem + "e"
	default:
		return stem
	}
}

func step1c(word string) string {
	if strings.HasSuffix(word, "y") {
		stem := strings.TrimSuffix(word, "y")
		if stemContainsVowel(stem) {
			return stem + "i"
		}
	}
	return word
}

func gt0(s string) bool { return stemMeasure(s) > 0 }
func gt1(s string) bool { return stemMeasure(s) > 1 }

func step2(word string) string {
	return applyRules(word, []suffixRule{
		{"ational", "ate", gt0},
		{"tional", "tion", gt0},
		{"enci", "ence", gt0},
		{"anci", "ance", gt0},
		{"izer", "ize", gt0},
		{"abli", "able", gt0},
		{"alli", "al", gt0},
		{"entli", "ent", gt0},
		{"eli", "e", gt0},
		{"ousli", "ous", gt0},
		{"ization", "ize", gt0},
		{"ation", "ate", gt0},
		{"ator", "ate", gt0},
		{"alism", "al", gt0},
		{"iveness", "ive", gt0},
		{"fulness", "ful", gt0},
		{"ousness", "ous", gt0},
		{"aliti", "al", gt0},
		{"iviti", "ive", gt0},
		{"biliti", "ble", gt0},
	})
}

func step3(word string) string {
	return applyRules(word, []suffixRule{
		{"icate", "ic", gt0},
		{"ative", "", gt0},
		{"alize", "al", gt0},
		{"iciti", "ic", gt0},
		{"ical", "ic", gt0},
		{"ful", "", gt0},
		{"ness", "", gt0},
	})
}

func step4(word string) string {
	if strings.HasSuffix(word, "ion") {
		stem := strings.TrimSuffix(word, "ion")
		if (strings.HasSuffix(stem, "s") || strings.HasSuffix(stem, "t")) && stemMeasure(stem) > 1 {
			return stem
		}
	}
	return applyRules(word, []suffixRule{
		{"ement", "", gt1},
		{"ance", "", gt1},
		{"ence", "", gt1},
		{"able", "", gt1},
		{"ible", "", gt1},
		{"ment", "", gt1},
		{"ant", "", gt1},
		{"ent", "", gt1},
		{"ism", "", gt1},
		{"ate", "", gt1},
		{"iti", "", gt1},
		{"ous", "", gt1},
		{"ive", "", gt1},
		{"ize", "", gt1},
		{"al", "", gt1},
		{"er", "", gt1},
		{"ic", "", gt1},
		{"ou", "", gt1},
	})
}

func step5a(word string) string {
	if !strings.HasSuffix(word, "e") {
		return word
	}
	stem := strings.TrimSuffix(word, "e")
	m := stemMeasure(stem)
	if m > 1 || (m == 1 && !stemCVC(stem)) {
		return stem
	}
	return word
}

func step5b(word string) string {
	if stemMeasure(word) > 1 && stemEndsDoubleConsonant(word) && strings.HasSuffix(word, "l") {
		return word[:len(word)-1]
	}
	return word
}
