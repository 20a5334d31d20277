package lexical

import "testing"

func TestStemKnownPairs(t *testing.T) {
	cases := map[string]string{
		"caresses":  "caress",
		"ponies":    "poni",
		"caress":    "caress",
		"cats":      "cat",
		"feed":      "feed",
		"agreed":    "agre",
		"plastered": "plaster",
		"motoring":  "motor",
		"sing":      "sing",
		"happy":     "happi",
	}
	for in, want := range cases {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStemShortWordsUnchanged(t *testing.T) {
	for _, w := range []string{"a", "is", "to"} {
		if got := Stem(w); got != w {
			t.Errorf("Stem(%q) = %q, want unchanged", w, got)
		}
	}
}

func TestStemIsIdempotent(t *testing.T) {
	for _, w := range []string{"running", "caresses", "plastered"} {
		once := Stem(w)
		twice := Stem(once)
		if once != twice {
			t.Errorf("Stem not idempotent for %q: %q then %q", w, once, twice)
		}
	}
}
