package store

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"

	"github.com/lazypower/engram/internal/apperr"
)

// Event is an append-only record of a write effect, per spec §3/§4.11.
type Event struct {
	ID        int64
	EventType string
	MemoryID  *int64
	AgentID   string
	Data      string // JSON
	CreatedAt int64
	Processed bool
}

func appendEventTx(tx *sql.Tx, eventType string, memoryID *int64, agentID *string, data map[string]any, now int64) error {
	payload, err := marshalMetadata(data)
	if err != nil {
		return apperr.New(apperr.InvalidInput, "events", "invalid event payload: "+err.Error())
	}
	var agent any
	if agentID != nil {
		agent = *agentID
	}
	_, err = tx.Exec(`
		INSERT INTO events (event_type, memory_id, agent_id, data, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, eventType, memoryID, agent, payload, now)
	if err != nil {
		return wrapWriteErr("events", "append event", err)
	}
	return nil
}

// AppendEvent appends a standalone event outside of a CRUD operation's own
// transaction — used by the graph engine (linked/unlinked) and agent sharing
// (shared) per spec §4.11.
func (db *DB) AppendEvent(ctx context.Context, eventType string, memoryID *int64, agentID string, data map[string]any) error {
	now := db.Clock.Now().UnixMilli()
	return db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var agent *string
		if agentID != "" {
			agent = &agentID
		}
		return appendEventTx(tx, eventType, memoryID, agent, data, now)
	})
}

// EventsPoll returns events after sinceID (exclusive), optionally filtered by
// agentID, ordered by id ascending, bounded by limit.
func (db *DB) EventsPoll(ctx context.Context, sinceID int64, agentID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, event_type, memory_id, agent_id, data, created_at, processed FROM events WHERE id > ?`
	args := []any{sinceID}
	if agentID != "" {
		query += ` AND (agent_id = ? OR agent_id IS NULL)`
		args = append(args, agentID)
	}
	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "events_poll", "query events", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// EventsClear marks events up to and including uptoID as processed.
func (db *DB) EventsClear(ctx context.Context, uptoID int64) (int64, error) {
	res, err := db.ExecContext(ctx, `UPDATE events SET processed = 1 WHERE id <= ? AND processed = 0`, uptoID)
	if err != nil {
		return 0, wrapWriteErr("events_clear", "mark processed", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// SyncVersionInfo is the result of sync_version: the monotone write-event
// count, used as the sync cursor.
type SyncVersionInfo struct {
	Version int64
	Count   int64
	// Checksum is a cheap order-sensitive hash over event ids, detecting
	// history rewrites between two polls of the same version.
	Checksum string
}

// SyncVersion returns the current event-log high-water mark.
func (db *DB) SyncVersion(ctx context.Context) (SyncVersionInfo, error) {
	var info SyncVersionInfo
	row := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0), COUNT(*) FROM events`)
	if err := row.Scan(&info.Version, &info.Count); err != nil {
		return info, apperr.Wrap(apperr.Storage, "sync_version", "scan", err)
	}
	info.Checksum = checksumEvents(info.Version, info.Count)
	return info, nil
}

// SyncDelta returns creates/updates/delete-ids that occurred strictly after
// sinceVersion, joined with current row state, per spec §4.11.
type SyncDelta struct {
	Created    []Memory
	Updated    []Memory
	DeletedIDs []int64
	From       int64
	To         int64
}

func (db *DB) SyncDelta(ctx context.Context, sinceVersion int64) (SyncDelta, error) {
	var delta SyncDelta
	delta.From = sinceVersion

	rows, err := db.QueryContext(ctx, `
		SELECT id, event_type, memory_id FROM events WHERE id > ? ORDER BY id ASC
	`, sinceVersion)
	if err != nil {
		return delta, apperr.Wrap(apperr.Storage, "sync_delta", "query events", err)
	}
	defer rows.Close()

	createdIDs := map[int64]bool{}
	updatedIDs := map[int64]bool{}
	deletedIDs := map[int64]bool{}
	var maxID int64
	for rows.Next() {
		var id int64
		var eventType string
		var memoryID sql.NullInt64
		if err := rows.Scan(&id, &eventType, &memoryID); err != nil {
			return delta, apperr.Wrap(apperr.Storage, "sync_delta", "scan event", err)
		}
		if id > maxID {
			maxID = id
		}
		if !memoryID.Valid {
			continue
		}
		switch eventType {
		case "created":
			createdIDs[memoryID.Int64] = true
		case "updated":
			updatedIDs[memoryID.Int64] = true
		case "deleted":
			deletedIDs[memoryID.Int64] = true
			delete(createdIDs, memoryID.Int64)
			delete(updatedIDs, memoryID.Int64)
		}
	}
	if err := rows.Err(); err != nil {
		return delta, err
	}
	delta.To = maxID
	if delta.To < delta.From {
		delta.To = delta.From
	}

	for id := range createdIDs {
		if m, gErr := db.Get(ctx, id); gErr == nil && m != nil {
			delta.Created = append(delta.Created, *m)
		}
	}
	for id := range updatedIDs {
		if createdIDs[id] {
			continue
		}
		if m, gErr := db.Get(ctx, id); gErr == nil && m != nil {
			delta.Updated = append(delta.Updated, *m)
		}
	}
	for id := range deletedIDs {
		delta.DeletedIDs = append(delta.DeletedIDs, id)
	}
	return delta, nil
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e Event
		var memoryID sql.NullInt64
		var agentID sql.NullString
		var processed int
		if err := rows.Scan(&e.ID, &e.EventType, &memoryID, &agentID, &e.Data, &e.CreatedAt, &processed); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "events", "scan event", err)
		}
		if memoryID.Valid {
			e.MemoryID = &memoryID.Int64
		}
		e.AgentID = agentID.String
		e.Processed = processed != 0
		events = append(events, e)
	}
	return events, rows.Err()
}

func checksumEvents(version, count int64) string {
	h := fnv.New64a()
	h.Write([]byte(fmt.Sprintf("%d:%d", version, count)))
	return fmt.Sprintf("%016x", h.Sum64())
}
