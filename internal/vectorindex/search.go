package vectorindex

import (
	"context"
	"sort"

	"github.com/lazypower/engram/internal/store"
)

// Hit is one scored semantic-search result.
type Hit struct {
	MemoryID int64
	Score    float64
}

// Searcher is the subset of *store.DB semantic search needs.
type Searcher interface {
	ReadyEmbeddingsForFilter(ctx context.Context, p store.ListParams) ([]store.EmbeddingRecord, error)
}

// SemanticSearch embeds query, then ranks every ready embedding matching
// filter by cosine similarity, returning the top k (spec §4.4/§4.6 dense
// channel).
func SemanticSearch(ctx context.Context, st Searcher, embedder Embedder, query string, filter store.ListParams, k int) ([]Hit, error) {
	qvec, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates, err := st.ReadyEmbeddingsForFilter(ctx, filter)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(candidates))
	for _, c := range candidates {
		score := CosineSimilarity(qvec, c.Embedding)
		if score <= 0 {
			continue
		}
		hits = append(hits, Hit{MemoryID: c.MemoryID, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}
