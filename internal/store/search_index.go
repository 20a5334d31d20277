package store

import (
	"context"
	"database/sql"

	"github.com/lazypower/engram/internal/fuzzy"
	"github.com/lazypower/engram/internal/lexical"
)

// LexicalSearch runs a keyword query against the inverted index built by
// indexMemoryContentTx, scoring with BM25 (spec §4.3/§4.6 lexical channel).
func (db *DB) LexicalSearch(ctx context.Context, query string, opts lexical.SearchOptions) ([]lexical.Hit, error) {
	return lexical.Search(ctx, db, query, opts)
}

// FuzzySearch runs a typo-tolerant query against the trigram index built by
// indexMemoryContentTx (spec §4.5 fuzzy channel).
func (db *DB) FuzzySearch(ctx context.Context, query string, cfg fuzzy.Config, opts fuzzy.SearchOptions) ([]fuzzy.Hit, error) {
	return fuzzy.Search(ctx, db, query, cfg, opts)
}

// indexMemoryContentTx (re)builds the lexical and fuzzy index rows for a
// memory from its current content, tags, and metadata, inside the same
// transaction as the write that produced them (spec §4.3/§4.5).
func indexMemoryContentTx(tx *sql.Tx, id int64, content string, tags []string, metaJSON string) error {
	fields := map[string]string{
		"content":  content,
		"tags":     joinTags(tags),
		"metadata": metaJSON,
	}
	if err := lexical.IndexTx(tx, id, fields); err != nil {
		return err
	}
	return fuzzy.IndexTx(tx, id, fields)
}

func joinTags(tags []string) string {
	out := ""
	for i, t := range tags {
		if i > 0 {
			out += " "
		}
		out += t
	}
	return out
}
