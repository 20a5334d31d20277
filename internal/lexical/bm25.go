package lexical

import "math"

// Config holds the BM25 tuning parameters (spec defaults k1=1.2, b=0.75).
type Config struct {
	K1 float64
	B  float64
}

// DefaultConfig returns the spec's default BM25 tuning.
func DefaultConfig() Config {
	return Config{K1: 1.2, B: 0.75}
}

// bm25Score scores a single term occurrence (tf occurrences in a document
// of length dl, in a field with n documents and avgdl average length, where
// the term appears in df of those documents) via Robertson/Sparck-Jones
// BM25 with the +1 smoothing that keeps idf non-negative for common terms.
func bm25Score(tf int, dl, avgdl float64, df, n int, cfg Config) float64 {
	if n == 0 || df == 0 || tf == 0 {
		return 0
	}
	idf := math.Log(1 + (float64(n)-float64(df)+0.5)/(float64(df)+0.5))
	if avgdl == 0 {
		avgdl = 1
	}
	num := float64(tf) * (cfg.K1 + 1)
	den := float64(tf) + cfg.K1*(1-cfg.B+cfg.B*dl/avgdl)
	return idf * num / den
}
