package store

import (
	"context"

	"github.com/lazypower/engram/internal/apperr"
)

// SortField enumerates the stable sort keys List accepts (spec §4.2).
type SortField string

const (
	SortCreatedAt     SortField = "created_at"
	SortUpdatedAt     SortField = "updated_at"
	SortImportance    SortField = "importance"
	SortAccessCount   SortField = "access_count"
	SortSalienceScore SortField = "salience_score"
)

var validSortFields = map[SortField]bool{
	SortCreatedAt: true, SortUpdatedAt: true, SortImportance: true,
	SortAccessCount: true, SortSalienceScore: true,
}

// ListParams controls List's filtering, sorting, and paging.
type ListParams struct {
	Filter          *FilterExpr
	Workspace       string
	Sort            SortField
	Descending      bool
	Limit           int
	Offset          int
	IncludeArchived bool
}

// List returns memories matching the filter expression, excluding archived
// lifecycle state and transcript_chunk memories by default (spec §4.2).
func (db *DB) List(ctx context.Context, p ListParams) ([]*Memory, error) {
	sort := p.Sort
	if sort == "" {
		sort = SortCreatedAt
	}
	if !validSortFields[sort] {
		return nil, apperr.New(apperr.InvalidInput, "list", "invalid sort field: "+string(sort))
	}
	limit := p.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}

	query := `SELECT ` + memoryColumns + ` FROM memories WHERE deleted = 0 AND memory_type != 'transcript_chunk'`
	var args []any

	if !p.IncludeArchived {
		query += ` AND lifecycle_state != 'archived'`
	}
	if p.Workspace != "" {
		query += ` AND workspace = ?`
		args = append(args, NormalizeWorkspace(p.Workspace))
	}
	if p.Filter != nil {
		clause, fArgs, err := p.Filter.compile()
		if err != nil {
			return nil, err
		}
		query += ` AND ` + clause
		args = append(args, fArgs...)
	}

	query += ` ORDER BY ` + string(sort)
	if p.Descending {
		query += ` DESC, id DESC`
	} else {
		query += ` ASC, id ASC`
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, p.Offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "list", "query memories", err)
	}
	defer rows.Close()

	var out []*Memory
	for rows.Next() {
		m, err := scanMemoryRowsIter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Storage, "list", "iterate memories", err)
	}

	for _, m := range out {
		if tags, tErr := tagsForMemory(ctx, db.DB, m.ID); tErr == nil {
			m.Tags = tags
		}
	}
	return out, nil
}

// Count returns the number of memories matching the same filter List would
// apply, without paging — for the total_count field of a list response.
func (db *DB) Count(ctx context.Context, p ListParams) (int64, error) {
	query := `SELECT COUNT(*) FROM memories WHERE deleted = 0 AND memory_type != 'transcript_chunk'`
	var args []any
	if !p.IncludeArchived {
		query += ` AND lifecycle_state != 'archived'`
	}
	if p.Workspace != "" {
		query += ` AND workspace = ?`
		args = append(args, NormalizeWorkspace(p.Workspace))
	}
	if p.Filter != nil {
		clause, fArgs, err := p.Filter.compile()
		if err != nil {
			return 0, err
		}
		query += ` AND ` + clause
		args = append(args, fArgs...)
	}
	var n int64
	row := db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&n); err != nil {
		return 0, apperr.Wrap(apperr.Storage, "list", "count memories", err)
	}
	return n, nil
}
