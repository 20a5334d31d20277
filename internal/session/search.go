package session

import (
	"context"

	"github.com/lazypower/engram/internal/hybrid"
	"github.com/lazypower/engram/internal/store"
)

// SearchStore is the subset of *store.DB session search depends on: the
// session's own chunk/memory links, plus whatever hybrid.Search needs.
type SearchStore interface {
	hybrid.Store
	SessionChunks(ctx context.Context, sessionID string) ([]store.SessionChunk, error)
	SessionMemories(ctx context.Context, sessionID string) ([]store.SessionMemory, error)
}

// Search runs a hybrid search and restricts the results to memories linked
// to sessionID, either as transcript_chunk memories produced by Index/
// IndexDelta or as memories explicitly associated via AddSessionMemory
// (spec §6 session_search).
func Search(ctx context.Context, st SearchStore, sessionID, query string, opts hybrid.SearchOptions) ([]hybrid.Candidate, error) {
	allowed, err := sessionMemoryIDs(ctx, st, sessionID)
	if err != nil {
		return nil, err
	}
	if len(allowed) == 0 {
		return nil, nil
	}

	searchOpts := opts
	if searchOpts.Limit <= 0 {
		searchOpts.Limit = 20
	}
	// Over-fetch since most of the fused list will be filtered out below.
	searchOpts.Limit = searchOpts.Limit * 4

	candidates, err := hybrid.Search(ctx, st, query, searchOpts)
	if err != nil {
		return nil, err
	}

	filtered := make([]hybrid.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Memory == nil || !allowed[c.Memory.ID] {
			continue
		}
		filtered = append(filtered, c)
		if opts.Limit > 0 && len(filtered) >= opts.Limit {
			break
		}
	}
	return filtered, nil
}

func sessionMemoryIDs(ctx context.Context, st SearchStore, sessionID string) (map[int64]bool, error) {
	ids := make(map[int64]bool)

	chunks, err := st.SessionChunks(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, c := range chunks {
		ids[c.MemoryID] = true
	}

	mems, err := st.SessionMemories(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, m := range mems {
		ids[m.MemoryID] = true
	}
	return ids, nil
}
