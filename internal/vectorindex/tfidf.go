package vectorindex

import (
	"context"
	"math"
	"sort"

	"github.com/lazypower/engram/internal/lexical"
)

// TFIDFEmbedder is a local, dependency-free embedder: a fixed vocabulary
// built from a seed corpus, augmented term frequency weighted by IDF,
// L2-normalized (grounded on the teacher's engine.TFIDFEmbedder).
type TFIDFEmbedder struct {
	vocab map[string]int // term -> dimension index
	idf   []float64      // dimension index -> idf weight
	dims  int
}

// NewTFIDFEmbedder builds a vocabulary from corpus, keeping at most maxTerms
// terms ranked by document frequency (most common first), and computes IDF
// weights over that vocabulary. A corpus of zero documents yields a usable
// but all-zero embedder (spec §4.4 allows TFIDF to run with no seed data).
func NewTFIDFEmbedder(corpus []string, maxTerms int) *TFIDFEmbedder {
	df := make(map[string]int)
	n := len(corpus)
	for _, doc := range corpus {
		seen := make(map[string]bool)
		for _, tok := range lexical.Tokenize(doc) {
			if !seen[tok.Term] {
				seen[tok.Term] = true
				df[tok.Term]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if maxTerms > 0 && len(terms) > maxTerms {
		terms = terms[:maxTerms]
	}

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	for i, t := range terms {
		vocab[t] = i
		idf[i] = math.Log(1+float64(n)) - math.Log(1+float64(df[t]))
	}

	return &TFIDFEmbedder{vocab: vocab, idf: idf, dims: len(terms)}
}

func (e *TFIDFEmbedder) Dimensions() int { return e.dims }

func (e *TFIDFEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return e.embedOne(text), nil
}

func (e *TFIDFEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = e.embedOne(t)
	}
	return out, nil
}

func (e *TFIDFEmbedder) embedOne(text string) []float64 {
	vec := make([]float64, e.dims)
	if e.dims == 0 {
		return vec
	}
	freq := lexical.TermFrequencies(lexical.Tokenize(text))
	for term, tf := range freq {
		idx, ok := e.vocab[term]
		if !ok {
			continue
		}
		// augmented term frequency, per the teacher's normalize() comment on
		// damping raw counts before multiplying by idf
		vec[idx] = (1 + math.Log(float64(tf))) * e.idf[idx]
	}
	normalizeL2(vec)
	return vec
}

func normalizeL2(vec []float64) {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
}
