package store

import (
	"context"
	"database/sql"

	"github.com/lazypower/engram/internal/apperr"
)

// DuplicateCandidate is a near-duplicate pair awaiting review (spec §4.10).
type DuplicateCandidate struct {
	ID         int64
	MemoryAID  int64
	MemoryBID  int64
	Similarity float64
	Status     string // pending, confirmed, rejected
	DetectedAt int64
}

// RecordDuplicateCandidate upserts a pending duplicate pair, ordering the
// pair so (a,b) and (b,a) collapse to one row.
func (db *DB) RecordDuplicateCandidate(ctx context.Context, memoryAID, memoryBID int64, similarity float64) error {
	a, b := memoryAID, memoryBID
	if a > b {
		a, b = b, a
	}
	now := db.Clock.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		INSERT INTO duplicate_candidates (memory_a_id, memory_b_id, similarity, status, detected_at)
		VALUES (?, ?, ?, 'pending', ?)
		ON CONFLICT(memory_a_id, memory_b_id) DO UPDATE SET similarity = excluded.similarity, detected_at = excluded.detected_at
	`, a, b, similarity, now)
	if err != nil {
		return wrapWriteErr("find_duplicates", "record candidate", err)
	}
	return nil
}

// DuplicateCandidates returns pairs at or above minSimilarity.
func (db *DB) DuplicateCandidates(ctx context.Context, minSimilarity float64, status string) ([]DuplicateCandidate, error) {
	query := `SELECT id, memory_a_id, memory_b_id, similarity, status, detected_at FROM duplicate_candidates WHERE similarity >= ?`
	args := []any{minSimilarity}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY similarity DESC`
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "get_duplicates", "query candidates", err)
	}
	defer rows.Close()
	var out []DuplicateCandidate
	for rows.Next() {
		var d DuplicateCandidate
		if err := rows.Scan(&d.ID, &d.MemoryAID, &d.MemoryBID, &d.Similarity, &d.Status, &d.DetectedAt); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "get_duplicates", "scan candidate", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SetDuplicateStatus transitions a candidate's review status.
func (db *DB) SetDuplicateStatus(ctx context.Context, id int64, status string) error {
	_, err := db.ExecContext(ctx, `UPDATE duplicate_candidates SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return wrapWriteErr("get_duplicates", "set status", err)
	}
	return nil
}

// MemoryConflict is a detected contradiction/duplication/staleness pair,
// per spec §4.10.
type MemoryConflict struct {
	ID         int64
	MemoryAID  int64
	MemoryBID  int64
	Kind       string
	Severity   float64
	DetectedAt int64
	Resolution string
	ResolvedBy string
	ResolvedAt *int64
}

// RecordConflict inserts a detected conflict.
func (db *DB) RecordConflict(ctx context.Context, memoryAID, memoryBID int64, kind string, severity float64) (*MemoryConflict, error) {
	now := db.Clock.Now().UnixMilli()
	res, err := db.ExecContext(ctx, `
		INSERT INTO memory_conflicts (memory_a_id, memory_b_id, kind, severity, detected_at)
		VALUES (?, ?, ?, ?, ?)
	`, memoryAID, memoryBID, kind, severity, now)
	if err != nil {
		return nil, wrapWriteErr("find_conflicts", "record conflict", err)
	}
	id, _ := res.LastInsertId()
	return &MemoryConflict{ID: id, MemoryAID: memoryAID, MemoryBID: memoryBID, Kind: kind, Severity: severity, DetectedAt: now}, nil
}

// OpenConflicts returns unresolved conflicts, optionally involving memoryID.
func (db *DB) OpenConflicts(ctx context.Context, memoryID int64) ([]MemoryConflict, error) {
	query := `SELECT id, memory_a_id, memory_b_id, kind, severity, detected_at, resolution, resolved_by, resolved_at
		FROM memory_conflicts WHERE resolution IS NULL`
	args := []any{}
	if memoryID != 0 {
		query += ` AND (memory_a_id = ? OR memory_b_id = ?)`
		args = append(args, memoryID, memoryID)
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "find_conflicts", "query conflicts", err)
	}
	defer rows.Close()
	return scanConflicts(rows)
}

// ResolveConflict records a resolution action and resolver identity.
func (db *DB) ResolveConflict(ctx context.Context, id int64, resolution, resolvedBy string) error {
	now := db.Clock.Now().UnixMilli()
	res, err := db.ExecContext(ctx, `
		UPDATE memory_conflicts SET resolution = ?, resolved_by = ?, resolved_at = ?
		WHERE id = ? AND resolution IS NULL
	`, resolution, resolvedBy, now, id)
	if err != nil {
		return wrapWriteErr("resolve_conflict", "update conflict", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFoundf("resolve_conflict", "open conflict %d not found", id)
	}
	return nil
}

func scanConflicts(rows *sql.Rows) ([]MemoryConflict, error) {
	var out []MemoryConflict
	for rows.Next() {
		var c MemoryConflict
		var resolution, resolvedBy sql.NullString
		var resolvedAt sql.NullInt64
		if err := rows.Scan(&c.ID, &c.MemoryAID, &c.MemoryBID, &c.Kind, &c.Severity, &c.DetectedAt, &resolution, &resolvedBy, &resolvedAt); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "conflicts", "scan conflict", err)
		}
		c.Resolution = resolution.String
		c.ResolvedBy = resolvedBy.String
		if resolvedAt.Valid {
			c.ResolvedAt = &resolvedAt.Int64
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
