package quality

import (
	"context"

	"github.com/lazypower/engram/internal/fuzzy"
	"github.com/lazypower/engram/internal/store"
)

// DuplicateStore is the subset of *store.DB FindDuplicates depends on.
type DuplicateStore interface {
	Get(ctx context.Context, id int64) (*store.Memory, error)
	List(ctx context.Context, p store.ListParams) ([]*store.Memory, error)
	RecordDuplicateCandidate(ctx context.Context, memoryAID, memoryBID int64, similarity float64) error
}

// DuplicateMatch is one detected near-duplicate pair.
type DuplicateMatch struct {
	MemoryAID  int64
	MemoryBID  int64
	Similarity float64
}

// DuplicateOptions configures FindDuplicates.
type DuplicateOptions struct {
	NGram     int
	Threshold float64
	BatchSize int
}

// FindDuplicates scans workspace for near-duplicate memories: the trigram
// index narrows each memory to its blocking-candidate neighbors (memories
// sharing at least one trigram), then an n-gram Jaccard similarity is
// computed only within those buckets, avoiding a full O(n^2) comparison
// over the whole store (spec §4.10). Matches at or above threshold are
// recorded via RecordDuplicateCandidate and returned.
func FindDuplicates(ctx context.Context, st DuplicateStore, q fuzzy.Queryer, workspace string, opts DuplicateOptions) ([]DuplicateMatch, error) {
	n := opts.NGram
	if n <= 0 {
		n = 3
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = 0.85
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}

	var matches []DuplicateMatch
	seen := make(map[[2]int64]bool)
	offset := 0
	for {
		select {
		case <-ctx.Done():
			return matches, ctx.Err()
		default:
		}
		memories, err := st.List(ctx, store.ListParams{
			Workspace: workspace,
			Sort:      store.SortCreatedAt,
			Limit:     batchSize,
			Offset:    offset,
		})
		if err != nil {
			return matches, err
		}
		if len(memories) == 0 {
			break
		}
		for _, m := range memories {
			neighborIDs, err := fuzzy.TrigramNeighbors(ctx, q, m.ID)
			if err != nil {
				return matches, err
			}
			if len(neighborIDs) == 0 {
				continue
			}
			aGrams := ngrams(m.Content, n)
			for _, neighborID := range neighborIDs {
				pair := pairKey(m.ID, neighborID)
				if seen[pair] {
					continue
				}
				seen[pair] = true
				neighbor, err := st.Get(ctx, neighborID)
				if err != nil {
					return matches, err
				}
				if neighbor == nil {
					continue
				}
				sim := jaccard(aGrams, ngrams(neighbor.Content, n))
				if sim < threshold {
					continue
				}
				a, b := pair[0], pair[1]
				if err := st.RecordDuplicateCandidate(ctx, a, b, sim); err != nil {
					return matches, err
				}
				matches = append(matches, DuplicateMatch{MemoryAID: a, MemoryBID: b, Similarity: sim})
			}
		}
		if len(memories) < batchSize {
			break
		}
		offset += batchSize
	}
	return matches, nil
}

func pairKey(a, b int64) [2]int64 {
	if a < b {
		return [2]int64{a, b}
	}
	return [2]int64{b, a}
}
