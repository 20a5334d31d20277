package store

import (
	"context"
	"database/sql"

	"github.com/lazypower/engram/internal/apperr"
)

// Boost is one row of memory_boosts: a temporary delta applied to a
// memory's importance, per spec §4.9's `boost(id, delta, duration?)`.
type Boost struct {
	ID        int64
	MemoryID  int64
	Delta     float64
	ExpiresAt *int64
	Active    bool
	CreatedAt int64
}

// RecordBoost applies delta to the memory's importance (clamped to [0,1])
// and records it as an active, possibly time-limited boost. A positive
// delta is a boost, a negative delta a demote; both share one mechanism
// since they only differ in sign.
func (db *DB) RecordBoost(ctx context.Context, memoryID int64, delta float64, expiresAt *int64) error {
	now := db.Clock.Now().UnixMilli()
	eventType := "boosted"
	if delta < 0 {
		eventType = "demoted"
	}
	return db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var importance float64
		if err := tx.QueryRowContext(ctx, `SELECT importance FROM memories WHERE id = ? AND deleted = 0`, memoryID).Scan(&importance); err != nil {
			if err == sql.ErrNoRows {
				return apperr.NotFoundf("record_boost", "memory %d not found", memoryID)
			}
			return apperr.Wrap(apperr.Storage, "record_boost", "read importance", err)
		}
		importance = clamp01(importance + delta)
		if _, err := tx.ExecContext(ctx, `UPDATE memories SET importance = ?, updated_at = ? WHERE id = ?`, importance, now, memoryID); err != nil {
			return wrapWriteErr("record_boost", "update importance", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO memory_boosts (memory_id, delta, expires_at, active, created_at)
			VALUES (?, ?, ?, 1, ?)
		`, memoryID, delta, expiresAt, now); err != nil {
			return wrapWriteErr("record_boost", "insert boost", err)
		}
		return appendEventTx(tx, eventType, &memoryID, nil, map[string]any{"delta": delta}, now)
	})
}

// BoostSignals counts active boosts/demotes on a memory, feeding the
// feedback component of the salience formula.
func (db *DB) BoostSignals(ctx context.Context, memoryID int64) (pos int, neg int, err error) {
	row := db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE delta > 0),
			COUNT(*) FILTER (WHERE delta < 0)
		FROM memory_boosts WHERE memory_id = ? AND active = 1
	`, memoryID)
	if scanErr := row.Scan(&pos, &neg); scanErr != nil {
		return 0, 0, apperr.Wrap(apperr.Storage, "boost_signals", "scan counts", scanErr)
	}
	return pos, neg, nil
}

// ExpireBoosts reverts and deactivates boosts whose expires_at has passed
// asOf, restoring the memory's importance by subtracting back the original
// delta. Returns the number reverted, bounded to limit per call.
func (db *DB) ExpireBoosts(ctx context.Context, asOf int64, limit int) (int, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, memory_id, delta FROM memory_boosts
		WHERE active = 1 AND expires_at IS NOT NULL AND expires_at <= ?
		LIMIT ?
	`, asOf, limit)
	if err != nil {
		return 0, apperr.Wrap(apperr.Storage, "expire_boosts", "query expired boosts", err)
	}
	type expired struct {
		id       int64
		memoryID int64
		delta    float64
	}
	var candidates []expired
	for rows.Next() {
		var e expired
		if err := rows.Scan(&e.id, &e.memoryID, &e.delta); err != nil {
			rows.Close()
			return 0, apperr.Wrap(apperr.Storage, "expire_boosts", "scan boost", err)
		}
		candidates = append(candidates, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	now := db.Clock.Now().UnixMilli()
	reverted := 0
	for _, e := range candidates {
		err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
			var importance float64
			if err := tx.QueryRowContext(ctx, `SELECT importance FROM memories WHERE id = ? AND deleted = 0`, e.memoryID).Scan(&importance); err != nil {
				if err == sql.ErrNoRows {
					// memory gone; just deactivate the boost.
					_, uerr := tx.ExecContext(ctx, `UPDATE memory_boosts SET active = 0 WHERE id = ?`, e.id)
					return uerr
				}
				return apperr.Wrap(apperr.Storage, "expire_boosts", "read importance", err)
			}
			importance = clamp01(importance - e.delta)
			if _, err := tx.ExecContext(ctx, `UPDATE memories SET importance = ?, updated_at = ? WHERE id = ?`, importance, now, e.memoryID); err != nil {
				return wrapWriteErr("expire_boosts", "update importance", err)
			}
			if _, err := tx.ExecContext(ctx, `UPDATE memory_boosts SET active = 0 WHERE id = ?`, e.id); err != nil {
				return wrapWriteErr("expire_boosts", "deactivate boost", err)
			}
			return nil
		})
		if err != nil {
			return reverted, err
		}
		reverted++
	}
	return reverted, nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
