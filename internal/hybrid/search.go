package hybrid

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/lazypower/engram/internal/apperr"
	"github.com/lazypower/engram/internal/fuzzy"
	"github.com/lazypower/engram/internal/lexical"
	"github.com/lazypower/engram/internal/store"
	"github.com/lazypower/engram/internal/vectorindex"
)

// Store is the subset of *store.DB hybrid search depends on: the lexical
// and fuzzy channels query the shared connection directly (lexical.Queryer /
// fuzzy.Queryer are both satisfied by *sql.DB, which *store.DB embeds), the
// vector channel goes through the embedding-ready candidate view, and Get
// hydrates the Memory each fused candidate needs for rerank.
type Store interface {
	lexical.Queryer
	fuzzy.Queryer
	vectorindex.Searcher
	Get(ctx context.Context, id int64) (*store.Memory, error)
	List(ctx context.Context, p store.ListParams) ([]*store.Memory, error)
}

// SearchOptions configures a hybrid search call.
type SearchOptions struct {
	Strategy       Strategy
	RerankStrategy RerankStrategy
	Limit          int
	Filter         store.ListParams
	Embedder       vectorindex.Embedder // nil disables the vector channel
	FuzzyFields    []string
	FuzzyConfig    fuzzy.Config
	LexicalConfig  lexical.SearchOptions
	RRFK           int
	MinScore       float64
	Now            int64
}

// Search dispatches the channels SelectStrategy chooses, fuses their ranked
// lists with RRF, and reranks (spec §4.6). Channels run concurrently via
// errgroup, mirroring the bounded-fan-out idiom already used by the
// embedding worker pool. A vector channel error (a down embedder) drops that
// channel and the search goes on with the others; a lexical or fuzzy channel
// error fails the whole search.
func Search(ctx context.Context, st Store, query string, opts SearchOptions) ([]Candidate, error) {
	strategy := SelectStrategy(query, opts.Strategy)
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	var (
		lexHits   []lexical.Hit
		vecHits   []vectorindex.Hit
		fuzzyHits []fuzzy.Hit
	)
	var lexErr, vecErr, fuzzyErr error

	g, gctx := errgroup.WithContext(ctx)

	runKeyword := strategy == StrategyKeyword || strategy == StrategyHybrid
	runSemantic := (strategy == StrategySemantic || strategy == StrategyHybrid) && opts.Embedder != nil

	if runKeyword {
		g.Go(func() error {
			lexOpts := opts.LexicalConfig
			if lexOpts.Limit <= 0 {
				lexOpts.Limit = limit * 4
			}
			hits, err := lexical.Search(gctx, st, query, lexOpts)
			lexHits, lexErr = hits, err
			return nil
		})
		// Fuzzy only ever supplements keyword results, never stands alone
		// as a primary channel (spec §9 open question, decided: never primary).
		g.Go(func() error {
			fcfg := opts.FuzzyConfig
			if (fcfg == fuzzy.Config{}) {
				fcfg = fuzzy.DefaultConfig()
			}
			hits, err := fuzzy.Search(gctx, st, query, fcfg, fuzzy.SearchOptions{Fields: opts.FuzzyFields, Limit: limit * 4})
			fuzzyHits, fuzzyErr = hits, err
			return nil
		})
	}
	if runSemantic {
		g.Go(func() error {
			hits, err := vectorindex.SemanticSearch(gctx, st, opts.Embedder, query, opts.Filter, limit*4)
			vecHits, vecErr = hits, err
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, apperr.Wrap(apperr.Dependency, "hybrid.Search", "channel dispatch failed", err)
	}

	// A down embedder degrades the vector channel rather than failing the
	// whole search (spec §4.4 "embedder outage -> query degrades gracefully").
	// Lexical/fuzzy errors (both pure store reads) are not expected to be
	// transient in the same way, so they do propagate.
	if lexErr != nil {
		return nil, lexErr
	}
	if fuzzyErr != nil {
		return nil, fuzzyErr
	}
	_ = vecErr

	channels := make([]ChannelHits, 0, 3)
	if len(lexHits) > 0 {
		channels = append(channels, ChannelHits{Channel: "lexical", IDs: idsOf(lexHits)})
	}
	if len(vecHits) > 0 {
		channels = append(channels, ChannelHits{Channel: "vector", IDs: idsOfVec(vecHits)})
	}
	if len(fuzzyHits) > 0 {
		channels = append(channels, ChannelHits{Channel: "fuzzy", IDs: idsOfFuzzy(fuzzyHits)})
	}

	fused := FuseRRF(channels, opts.RRFK)
	if len(fused) > limit*4 {
		fused = fused[:limit*4]
	}

	memories, err := hydrate(ctx, st, fused)
	if err != nil {
		return nil, err
	}

	candidates := Rerank(fused, memories, RerankOptions{
		Strategy:        opts.RerankStrategy,
		Now:             opts.Now,
		RecencyHalfLife: 14,
		MinScore:        opts.MinScore,
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func hydrate(ctx context.Context, st Store, fused []Fused) (map[int64]*store.Memory, error) {
	out := make(map[int64]*store.Memory, len(fused))
	for _, f := range fused {
		m, err := st.Get(ctx, f.MemoryID)
		if err != nil {
			return nil, err
		}
		if m == nil || m.Deleted {
			continue
		}
		out[f.MemoryID] = m
	}
	return out, nil
}

func idsOf(hits []lexical.Hit) []int64 {
	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.MemoryID
	}
	return ids
}

func idsOfVec(hits []vectorindex.Hit) []int64 {
	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.MemoryID
	}
	return ids
}

func idsOfFuzzy(hits []fuzzy.Hit) []int64 {
	seen := make(map[int64]bool, len(hits))
	ids := make([]int64, 0, len(hits))
	for _, h := range hits {
		if !seen[h.MemoryID] {
			seen[h.MemoryID] = true
			ids = append(ids, h.MemoryID)
		}
	}
	return ids
}
