// Package vectorindex implements the dense-vector retrieval channel: the
// Embedder collaborator contract, concrete embedder variants, an LRU vector
// cache, the embedding queue worker pool, and k-NN semantic search.
package vectorindex

import (
	"context"
	"math"
)

// Embedder generates dense vector embeddings for text (spec §6 collaborator,
// grounded on the teacher's engine.Embedder interface).
type Embedder interface {
	Dimensions() int
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// CosineSimilarity computes cosine similarity between two vectors of equal
// length; 0 for mismatched lengths, empty vectors, or a zero-norm vector.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
