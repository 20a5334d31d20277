package store

import (
	"context"

	"github.com/lazypower/engram/internal/apperr"
)

// SalienceHistoryEntry is one row of salience_history, per spec §3/§4.9.
type SalienceHistoryEntry struct {
	ID         int64
	MemoryID   int64
	Salience   float64
	Recency    float64
	Frequency  float64
	Importance float64
	Feedback   float64
	CreatedAt  int64
}

// AppendSalienceHistory records a salience recomputation and updates the
// memory's current salience_score in the same call.
func (db *DB) AppendSalienceHistory(ctx context.Context, e SalienceHistoryEntry) error {
	now := db.Clock.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		INSERT INTO salience_history (memory_id, salience, recency, frequency, importance, feedback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.MemoryID, e.Salience, e.Recency, e.Frequency, e.Importance, e.Feedback, now)
	if err != nil {
		return wrapWriteErr("salience", "append history", err)
	}
	_, err = db.ExecContext(ctx, `UPDATE memories SET salience_score = ? WHERE id = ?`, e.Salience, e.MemoryID)
	if err != nil {
		return wrapWriteErr("salience", "update current score", err)
	}
	return nil
}

// SalienceHistory returns the salience trail for a memory, newest first.
func (db *DB) SalienceHistory(ctx context.Context, memoryID int64, limit int) ([]SalienceHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, memory_id, salience, recency, frequency, importance, feedback, created_at
		FROM salience_history WHERE memory_id = ? ORDER BY created_at DESC LIMIT ?
	`, memoryID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "salience", "query history", err)
	}
	defer rows.Close()
	var out []SalienceHistoryEntry
	for rows.Next() {
		var e SalienceHistoryEntry
		if err := rows.Scan(&e.ID, &e.MemoryID, &e.Salience, &e.Recency, &e.Frequency, &e.Importance, &e.Feedback, &e.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "salience", "scan history", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// TopBySalience returns the ids of the highest-salience active memories.
func (db *DB) TopBySalience(ctx context.Context, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id FROM memories WHERE deleted = 0 AND lifecycle_state != 'archived'
		ORDER BY salience_score DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "salience", "top by salience", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "salience", "scan id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// QualityHistoryEntry is one row of quality_history, per spec §3/§4.10.
type QualityHistoryEntry struct {
	ID           int64
	MemoryID     int64
	Quality      float64
	Clarity      float64
	Completeness float64
	Freshness    float64
	Consistency  float64
	SourceTrust  float64
	CreatedAt    int64
}

// AppendQualityHistory records a quality recomputation and updates the
// memory's current quality_score.
func (db *DB) AppendQualityHistory(ctx context.Context, e QualityHistoryEntry) error {
	now := db.Clock.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		INSERT INTO quality_history (memory_id, quality, clarity, completeness, freshness, consistency, source_trust, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.MemoryID, e.Quality, e.Clarity, e.Completeness, e.Freshness, e.Consistency, e.SourceTrust, now)
	if err != nil {
		return wrapWriteErr("quality", "append history", err)
	}
	_, err = db.ExecContext(ctx, `UPDATE memories SET quality_score = ? WHERE id = ?`, e.Quality, e.MemoryID)
	if err != nil {
		return wrapWriteErr("quality", "update current score", err)
	}
	return nil
}

// QualityHistory returns the quality trail for a memory, newest first.
func (db *DB) QualityHistory(ctx context.Context, memoryID int64, limit int) ([]QualityHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, memory_id, quality, clarity, completeness, freshness, consistency, source_trust, created_at
		FROM quality_history WHERE memory_id = ? ORDER BY created_at DESC LIMIT ?
	`, memoryID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "quality", "query history", err)
	}
	defer rows.Close()
	var out []QualityHistoryEntry
	for rows.Next() {
		var e QualityHistoryEntry
		if err := rows.Scan(&e.ID, &e.MemoryID, &e.Quality, &e.Clarity, &e.Completeness, &e.Freshness, &e.Consistency, &e.SourceTrust, &e.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "quality", "scan history", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
