package store

import "context"

// maxVectorCandidates bounds how many filter-matching memories ReadyEmbeddingsForFilter
// will consider; a personal-scale memory store never needs a dynamic IN-clause
// over more candidates than this.
const maxVectorCandidates = 1000

// ReadyEmbeddingsForFilter returns the ready embeddings whose memory matches
// params (workspace, lifecycle state, tier, tags, ...), by running the
// existing filtered List against the memories table and then narrowing
// AllReadyEmbeddings down to that candidate set in Go. A dynamic SQL
// IN-clause joining embeddings to the filter predicate would scale further,
// but List+in-memory narrowing is simpler and fast enough for the memory
// counts this store targets.
func (db *DB) ReadyEmbeddingsForFilter(ctx context.Context, p ListParams) ([]EmbeddingRecord, error) {
	if p.Limit <= 0 || p.Limit > maxVectorCandidates {
		p.Limit = maxVectorCandidates
	}
	candidates, err := db.List(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	allowed := make(map[int64]bool, len(candidates))
	for _, m := range candidates {
		allowed[m.ID] = true
	}

	all, err := db.AllReadyEmbeddings(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]EmbeddingRecord, 0, len(all))
	for _, rec := range all {
		if allowed[rec.MemoryID] {
			out = append(out, rec)
		}
	}
	return out, nil
}
