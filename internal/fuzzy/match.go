package fuzzy

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Queryer is satisfied by *sql.DB and *sql.Tx, so Search can run against
// either a live connection or an in-flight transaction.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Config adapts the edit-distance threshold to query-word length (spec §4.5:
// "≤1 for ≤4 chars, ≤2 otherwise").
type Config struct {
	ShortQueryMaxLen int
	ShortDistance    int
	LongDistance     int
}

func DefaultConfig() Config {
	return Config{ShortQueryMaxLen: 4, ShortDistance: 1, LongDistance: 2}
}

func (c Config) threshold(word string) int {
	if len([]rune(word)) <= c.ShortQueryMaxLen {
		return c.ShortDistance
	}
	return c.LongDistance
}

// Hit is one fuzzy match: the best (lowest-distance) term found for memberID
// in field, normalized to a 0-1 score via 1 - distance/threshold.
type Hit struct {
	MemoryID    int64
	Field       string
	MatchedTerm string
	Distance    int
	Score       float64
}

// SearchOptions restricts which fields are scanned and bounds result count.
type SearchOptions struct {
	Fields []string
	Limit  int
}

var defaultFields = []string{"content", "tags"}

// Search finds typo-tolerant candidates for query: trigram overlap narrows
// candidate (memory, field) pairs before the more expensive Levenshtein pass
// runs only against those, never a full table scan (spec §4.5).
func Search(ctx context.Context, q Queryer, query string, cfg Config, opts SearchOptions) ([]Hit, error) {
	fields := opts.Fields
	if len(fields) == 0 {
		fields = defaultFields
	}
	fieldSet := make(map[string]bool, len(fields))
	for _, f := range fields {
		fieldSet[f] = true
	}

	queryWords := Words(query)
	if len(queryWords) == 0 {
		return nil, nil
	}

	best := make(map[string]Hit) // key: memoryID/field

	for _, qw := range queryWords {
		threshold := cfg.threshold(qw)
		candidates, err := candidateMemories(ctx, q, qw, fieldSet)
		if err != nil {
			return nil, err
		}
		for memID, field := range candidates {
			words, err := fieldWords(ctx, q, memID, field)
			if err != nil {
				return nil, err
			}
			for _, w := range words {
				d := levenshtein.ComputeDistance(qw, w)
				if d > threshold {
					continue
				}
				key := fmt.Sprintf("%d/%s", memID, field)
				score := 1 - float64(d)/float64(threshold)
				if existing, ok := best[key]; !ok || d < existing.Distance {
					best[key] = Hit{MemoryID: memID, Field: field, MatchedTerm: w, Distance: d, Score: score}
				}
			}
		}
	}

	var hits []Hit
	for _, h := range best {
		hits = append(hits, h)
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

// candidateMemories returns the (memoryID -> field) pairs whose trigram set
// overlaps word's trigrams, restricted to fieldSet.
func candidateMemories(ctx context.Context, q Queryer, word string, fieldSet map[string]bool) (map[int64]string, error) {
	grams := Trigrams(word)
	placeholders := make([]string, len(grams))
	args := make([]any, len(grams))
	for i, g := range grams {
		placeholders[i] = "?"
		args[i] = g
	}
	query := fmt.Sprintf(
		`SELECT DISTINCT memory_id, field FROM fuzzy_trigrams WHERE trigram IN (%s)`,
		strings.Join(placeholders, ","),
	)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("candidate trigram lookup: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]string)
	for rows.Next() {
		var memID int64
		var field string
		if err := rows.Scan(&memID, &field); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if fieldSet[field] {
			out[memID] = field
		}
	}
	return out, rows.Err()
}

// fieldWords resolves the actual surface words for a candidate's field, by
// reading the live content/tags rather than caching a separate term list.
func fieldWords(ctx context.Context, q Queryer, memoryID int64, field string) ([]string, error) {
	switch field {
	case "content":
		var content string
		if err := q.QueryRowContext(ctx, `SELECT content FROM memories WHERE id = ?`, memoryID).Scan(&content); err != nil {
			if err == sql.ErrNoRows {
				return nil, nil
			}
			return nil, fmt.Errorf("fetch content: %w", err)
		}
		return Words(content), nil
	case "tags":
		rows, err := q.QueryContext(ctx, `
			SELECT t.name FROM tags t JOIN memory_tags mt ON mt.tag_id = t.id WHERE mt.memory_id = ?
		`, memoryID)
		if err != nil {
			return nil, fmt.Errorf("fetch tags: %w", err)
		}
		defer rows.Close()
		var words []string
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, fmt.Errorf("scan tag: %w", err)
			}
			words = append(words, Words(name)...)
		}
		return words, rows.Err()
	default:
		return nil, nil
	}
}
