package lexical

import "testing"

func TestTokenizeSplitsOnPunctuation(t *testing.T) {
	toks := Tokenize("foo-bar baz")
	if len(toks) != 3 {
		t.Fatalf("Tokenize = %+v, want 3 tokens", toks)
	}
	if toks[0].Position != 0 || toks[1].Position != 1 || toks[2].Position != 2 {
		t.Errorf("positions = %+v, want 0,1,2", toks)
	}
}

func TestTokenizeFoldsCaseAndAccents(t *testing.T) {
	toks := Tokenize("Café CAFE")
	if len(toks) != 2 {
		t.Fatalf("Tokenize = %+v, want 2 tokens", toks)
	}
	if toks[0].Term != toks[1].Term {
		t.Errorf("Café and CAFE stemmed differently: %q vs %q", toks[0].Term, toks[1].Term)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if toks := Tokenize("   "); len(toks) != 0 {
		t.Errorf("Tokenize(whitespace) = %+v, want empty", toks)
	}
}

func TestTermFrequencies(t *testing.T) {
	toks := Tokenize("running runs run")
	freq := TermFrequencies(toks)
	if freq["run"] != 3 {
		t.Errorf("freq[run] = %d, want 3 (running/runs/run all stem to run)", freq["run"])
	}
}
