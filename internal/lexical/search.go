package lexical

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// Queryer is the subset of *sql.DB / *sql.Tx that Search needs, so it can
// run inside an caller's transaction or against the pool directly.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Hit is one scored search result.
type Hit struct {
	MemoryID int64
	Score    float64
}

// SearchOptions tunes a Search call.
type SearchOptions struct {
	Fields       []string // restricts unqualified terms; defaults to DefaultFields
	Limit        int
	CandidateIDs []int64 // if set, only these memory ids are considered (e.g. a workspace pre-filter)
	Config       Config
}

// leafResult is the per-(field,term) contribution: matched doc -> score.
type leafResult struct {
	scores map[int64]float64
}

// Search parses query, evaluates its boolean structure against the inverted
// index, and scores matching memories with BM25, summing contributions
// across every leaf term regardless of AND/OR nesting. Phrase queries are
// evaluated as a conjunction of their terms: the posting schema stores term
// frequency only, not position lists, so true adjacency matching isn't
// possible from this index and phrases degrade to an AND of their terms.
func Search(ctx context.Context, q Queryer, query string, opts SearchOptions) ([]Hit, error) {
	node, err := Parse(query)
	if err != nil {
		return nil, err
	}
	fields := opts.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}
	cfg := opts.Config
	if cfg.K1 == 0 && cfg.B == 0 {
		cfg = DefaultConfig()
	}

	ev := &evaluator{
		ctx:      ctx,
		q:        q,
		fields:   fields,
		cfg:      cfg,
		stats:    map[string]corpusStats{},
		leafMemo: map[string]leafResult{},
		candSet:  toSet(opts.CandidateIDs),
	}

	satisfying, scores, err := ev.eval(node)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(satisfying))
	for id := range satisfying {
		hits = append(hits, Hit{MemoryID: id, Score: scores[id]})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].MemoryID < hits[j].MemoryID
	})
	if opts.Limit > 0 && len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}
	return hits, nil
}

func toSet(ids []int64) map[int64]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

type corpusStats struct {
	n      int
	avgdl  float64
	loaded bool
}

type evaluator struct {
	ctx      context.Context
	q        Queryer
	fields   []string
	cfg      Config
	stats    map[string]corpusStats
	leafMemo map[string]leafResult
	candSet  map[int64]bool
}

func (e *evaluator) corpusStats(field string) (corpusStats, error) {
	if s, ok := e.stats[field]; ok {
		return s, nil
	}
	var n int
	var avgdl sql.NullFloat64
	row := e.q.QueryRowContext(e.ctx,
		`SELECT COUNT(*), AVG(length) FROM lexical_doc_lengths WHERE field = ?`, field)
	if err := row.Scan(&n, &avgdl); err != nil {
		return corpusStats{}, fmt.Errorf("corpus stats %s: %w", field, err)
	}
	s := corpusStats{n: n, avgdl: avgdl.Float64, loaded: true}
	e.stats[field] = s
	return s, nil
}

// termInField scores one (field, term) leaf: memory_id -> bm25 contribution.
func (e *evaluator) termInField(field, term string) (leafResult, error) {
	key := field + "\x00" + term
	if r, ok := e.leafMemo[key]; ok {
		return r, nil
	}
	stats, err := e.corpusStats(field)
	if err != nil {
		return leafResult{}, err
	}
	var df int
	if err := e.q.QueryRowContext(e.ctx,
		`SELECT COUNT(DISTINCT memory_id) FROM lexical_postings WHERE term = ? AND field = ?`,
		term, field,
	).Scan(&df); err != nil {
		return leafResult{}, fmt.Errorf("df lookup %s/%s: %w", field, term, err)
	}

	rows, err := e.q.QueryContext(e.ctx, `
		SELECT p.memory_id, p.term_freq, d.length
		FROM lexical_postings p
		JOIN lexical_doc_lengths d ON d.memory_id = p.memory_id AND d.field = p.field
		WHERE p.term = ? AND p.field = ?
	`, term, field)
	if err != nil {
		return leafResult{}, fmt.Errorf("postings lookup %s/%s: %w", field, term, err)
	}
	defer rows.Close()

	scores := map[int64]float64{}
	for rows.Next() {
		var id int64
		var tf int
		var dl int
		if err := rows.Scan(&id, &tf, &dl); err != nil {
			return leafResult{}, fmt.Errorf("scan posting: %w", err)
		}
		if e.candSet != nil && !e.candSet[id] {
			continue
		}
		scores[id] = bm25Score(tf, float64(dl), stats.avgdl, df, stats.n, e.cfg)
	}
	if err := rows.Err(); err != nil {
		return leafResult{}, err
	}
	r := leafResult{scores: scores}
	e.leafMemo[key] = r
	return r, nil
}

// termAcrossFields unions a leaf's matches over every field it applies to,
// keeping the stronger per-field score where a doc matches in more than one.
func (e *evaluator) termAcrossFields(field, term string) (leafResult, error) {
	fields := e.fields
	if field != "" {
		fields = []string{field}
	}
	combined := map[int64]float64{}
	for _, f := range fields {
		r, err := e.termInField(f, term)
		if err != nil {
			return leafResult{}, err
		}
		for id, s := range r.scores {
			if s > combined[id] {
				combined[id] = s
			}
		}
	}
	return leafResult{scores: combined}, nil
}

// eval returns the set of memory ids satisfying node and a score map summed
// over every leaf term under node (present regardless of AND/OR nesting).
func (e *evaluator) eval(node *QueryNode) (map[int64]bool, map[int64]float64, error) {
	switch node.Kind {
	case NodeTerm:
		r, err := e.termAcrossFields(node.Field, node.Term)
		if err != nil {
			return nil, nil, err
		}
		set := make(map[int64]bool, len(r.scores))
		for id := range r.scores {
			set[id] = true
		}
		return set, r.scores, nil

	case NodePhrase:
		var set map[int64]bool
		scores := map[int64]float64{}
		for _, term := range node.Phrase {
			r, err := e.termAcrossFields(node.Field, term)
			if err != nil {
				return nil, nil, err
			}
			termSet := make(map[int64]bool, len(r.scores))
			for id, s := range r.scores {
				termSet[id] = true
				scores[id] += s
			}
			set = intersectOrInit(set, termSet)
		}
		if set == nil {
			set = map[int64]bool{}
		}
		return set, scores, nil

	case NodeAnd:
		var set map[int64]bool
		scores := map[int64]float64{}
		for _, child := range node.Children {
			childSet, childScores, err := e.eval(child)
			if err != nil {
				return nil, nil, err
			}
			for id, s := range childScores {
				scores[id] += s
			}
			set = intersectOrInit(set, childSet)
		}
		if set == nil {
			set = map[int64]bool{}
		}
		return set, scores, nil

	case NodeOr:
		set := map[int64]bool{}
		scores := map[int64]float64{}
		for _, child := range node.Children {
			childSet, childScores, err := e.eval(child)
			if err != nil {
				return nil, nil, err
			}
			for id := range childSet {
				set[id] = true
			}
			for id, s := range childScores {
				scores[id] += s
			}
		}
		return set, scores, nil

	default:
		return nil, nil, fmt.Errorf("lexical: unknown node kind %d", node.Kind)
	}
}

func intersectOrInit(set, next map[int64]bool) map[int64]bool {
	if set == nil {
		out := make(map[int64]bool, len(next))
		for id := range next {
			out[id] = true
		}
		return out
	}
	out := make(map[int64]bool)
	for id := range set {
		if next[id] {
			out[id] = true
		}
	}
	return out
}
