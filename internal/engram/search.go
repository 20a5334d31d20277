package engram

import (
	"context"

	"github.com/lazypower/engram/internal/fuzzy"
	"github.com/lazypower/engram/internal/hybrid"
	"github.com/lazypower/engram/internal/session"
	"github.com/lazypower/engram/internal/store"
)

// searchDefaults fills a hybrid.SearchOptions from config, leaving any
// field the caller already set alone.
func (c *Core) searchDefaults(opts hybrid.SearchOptions) hybrid.SearchOptions {
	if opts.RRFK == 0 {
		opts.RRFK = c.Config.Hybrid.RRFK
	}
	if opts.MinScore == 0 {
		opts.MinScore = c.Config.Hybrid.MinScore
	}
	if opts.Now == 0 {
		opts.Now = c.now()
	}
	if opts.Embedder == nil {
		opts.Embedder = c.Embedder
	}
	if (opts.FuzzyConfig == fuzzy.Config{}) {
		opts.FuzzyConfig = fuzzy.DefaultConfig()
	}
	return opts
}

// Search runs a hybrid lexical/vector/fuzzy search (spec §6 `search`).
func (c *Core) Search(ctx context.Context, query string, opts hybrid.SearchOptions) ([]hybrid.Candidate, error) {
	return hybrid.Search(ctx, c.DB, query, c.searchDefaults(opts))
}

// SemanticSearch forces the vector channel only (spec §6 `semantic_search`).
func (c *Core) SemanticSearch(ctx context.Context, query string, opts hybrid.SearchOptions) ([]hybrid.Candidate, error) {
	opts.Strategy = hybrid.StrategySemantic
	return c.Search(ctx, query, opts)
}

// Suggest returns keyword/fuzzy completions for a short, partial query — a
// lighter-weight relative of Search intended for autocomplete callers, so it
// skips the vector channel and reranks by nothing but fused rank (spec §6
// `suggest`).
func (c *Core) Suggest(ctx context.Context, prefix string, limit int) ([]hybrid.Candidate, error) {
	opts := c.searchDefaults(hybrid.SearchOptions{
		Strategy:       hybrid.StrategyKeyword,
		RerankStrategy: hybrid.RerankNone,
		Limit:          limit,
	})
	opts.Embedder = nil
	return hybrid.Search(ctx, c.DB, prefix, opts)
}

// SearchByIdentity restricts List to memories linked to a canonical
// identity (spec §6 `search_by_identity`).
func (c *Core) SearchByIdentity(ctx context.Context, canonicalID string) ([]*store.Memory, error) {
	ids, err := c.DB.MemoriesByIdentity(ctx, canonicalID)
	if err != nil {
		return nil, err
	}
	return c.hydrateIDs(ctx, ids)
}

func (c *Core) hydrateIDs(ctx context.Context, ids []int64) ([]*store.Memory, error) {
	out := make([]*store.Memory, 0, len(ids))
	for _, id := range ids {
		m, err := c.DB.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if m != nil && !m.Deleted {
			out = append(out, m)
		}
	}
	return out, nil
}

// SessionSearch restricts a hybrid search to one session's linked
// memories (spec §6 `session_search`, delegating to internal/session).
func (c *Core) SessionSearch(ctx context.Context, sessionID, query string, opts hybrid.SearchOptions) ([]hybrid.Candidate, error) {
	return session.Search(ctx, c.DB, sessionID, query, c.searchDefaults(opts))
}
