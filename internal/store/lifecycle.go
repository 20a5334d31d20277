package store

import (
	"context"
	"database/sql"

	"github.com/lazypower/engram/internal/apperr"
)

// ExpiredDailyIDs returns tier=daily, non-pinned memory ids whose expires_at
// has passed asOf, bounded to limit rows per call (spec §4.8 step 1 batches
// in chunks so the sweeper can yield between them).
func (db *DB) ExpiredDailyIDs(ctx context.Context, asOf int64, limit int) ([]int64, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id FROM memories
		WHERE deleted = 0 AND tier = 'daily' AND pinned = 0
			AND expires_at IS NOT NULL AND expires_at <= ?
		LIMIT ?
	`, asOf, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "lifecycle_sweep", "query expired daily memories", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// StaleCandidateIDs returns active memories whose last_accessed_at (falling
// back to created_at when never accessed) is older than olderThan.
func (db *DB) StaleCandidateIDs(ctx context.Context, olderThan int64, limit int) ([]int64, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id FROM memories
		WHERE deleted = 0 AND lifecycle_state = 'active'
			AND COALESCE(last_accessed_at, created_at) <= ?
		LIMIT ?
	`, olderThan, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "lifecycle_sweep", "query stale candidates", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// ArchiveCandidateIDs returns stale, non-pinned memories below
// importanceMax whose last transition into stale (approximated here by
// COALESCE(last_accessed_at, created_at), since the store keeps no separate
// stale-since column) is older than olderThan.
func (db *DB) ArchiveCandidateIDs(ctx context.Context, olderThan int64, importanceMax float64, limit int) ([]int64, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id FROM memories
		WHERE deleted = 0 AND lifecycle_state = 'stale' AND pinned = 0
			AND importance < ?
			AND COALESCE(last_accessed_at, created_at) <= ?
		LIMIT ?
	`, importanceMax, olderThan, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "lifecycle_sweep", "query archive candidates", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// SetLifecycleState transitions a memory's lifecycle_state and emits a
// `lifecycle_transitioned` event, inside one transaction.
func (db *DB) SetLifecycleState(ctx context.Context, id int64, state string) error {
	now := db.Clock.Now().UnixMilli()
	return db.WithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE memories SET lifecycle_state = ?, updated_at = ? WHERE id = ? AND deleted = 0
		`, state, now, id)
		if err != nil {
			return wrapWriteErr("lifecycle_sweep", "set lifecycle state", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return apperr.NotFoundf("lifecycle_sweep", "memory %d not found", id)
		}
		return appendEventTx(tx, "lifecycle_transitioned", &id, nil, map[string]any{"state": state}, now)
	})
}

// PromoteToPermanent requires tier=daily, clears expires_at, and sets
// tier=permanent (spec §4.8: "requires tier=daily").
func (db *DB) PromoteToPermanent(ctx context.Context, id int64) error {
	now := db.Clock.Now().UnixMilli()
	return db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var tier string
		if err := tx.QueryRowContext(ctx, `SELECT tier FROM memories WHERE id = ? AND deleted = 0`, id).Scan(&tier); err != nil {
			if err == sql.ErrNoRows {
				return apperr.NotFoundf("promote_to_permanent", "memory %d not found", id)
			}
			return apperr.Wrap(apperr.Storage, "promote_to_permanent", "read tier", err)
		}
		if tier != "daily" {
			return apperr.New(apperr.InvalidInput, "promote_to_permanent", "memory is not tier=daily")
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE memories SET tier = 'permanent', expires_at = NULL, updated_at = ? WHERE id = ?
		`, now, id); err != nil {
			return wrapWriteErr("promote_to_permanent", "update memory", err)
		}
		return appendEventTx(tx, "promoted_to_permanent", &id, nil, nil, now)
	})
}

// SetExpiration sets or clears expires_at. Setting 0 on a tier=daily memory
// is rejected (spec §4.8); setting 0 on a tier=permanent memory is a no-op.
func (db *DB) SetExpiration(ctx context.Context, id int64, at int64) error {
	now := db.Clock.Now().UnixMilli()
	return db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var tier string
		if err := tx.QueryRowContext(ctx, `SELECT tier FROM memories WHERE id = ? AND deleted = 0`, id).Scan(&tier); err != nil {
			if err == sql.ErrNoRows {
				return apperr.NotFoundf("set_expiration", "memory %d not found", id)
			}
			return apperr.Wrap(apperr.Storage, "set_expiration", "read tier", err)
		}
		if at == 0 {
			if tier == "daily" {
				return apperr.New(apperr.InvalidInput, "set_expiration", "expires_at=0 rejected on tier=daily")
			}
			return nil // no-op on permanent
		}
		if _, err := tx.ExecContext(ctx, `UPDATE memories SET expires_at = ?, updated_at = ? WHERE id = ?`, at, now, id); err != nil {
			return wrapWriteErr("set_expiration", "update memory", err)
		}
		return appendEventTx(tx, "expiration_set", &id, nil, map[string]any{"expires_at": at}, now)
	})
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "lifecycle_sweep", "scan id", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
