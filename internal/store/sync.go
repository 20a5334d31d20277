package store

import (
	"context"
	"database/sql"

	"github.com/lazypower/engram/internal/apperr"
)

// AgentSyncState tracks how far an agent has consumed the event log.
type AgentSyncState struct {
	AgentID         string
	LastSyncVersion int64
	UpdatedAt       int64
}

// GetSyncState returns an agent's sync cursor, or the zero value if the
// agent has never synced.
func (db *DB) GetSyncState(ctx context.Context, agentID string) (AgentSyncState, error) {
	row := db.QueryRowContext(ctx, `
		SELECT agent_id, last_sync_version, updated_at FROM agent_sync_state WHERE agent_id = ?
	`, agentID)
	var s AgentSyncState
	err := row.Scan(&s.AgentID, &s.LastSyncVersion, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return AgentSyncState{AgentID: agentID}, nil
	}
	if err != nil {
		return s, apperr.Wrap(apperr.Storage, "sync_state", "scan sync state", err)
	}
	return s, nil
}

// SetSyncState advances an agent's sync cursor.
func (db *DB) SetSyncState(ctx context.Context, agentID string, version int64) error {
	now := db.Clock.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		INSERT INTO agent_sync_state (agent_id, last_sync_version, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(agent_id) DO UPDATE SET last_sync_version = excluded.last_sync_version, updated_at = excluded.updated_at
	`, agentID, version, now)
	if err != nil {
		return wrapWriteErr("sync_state", "set sync state", err)
	}
	return nil
}

// CleanupSyncState removes sync cursors for agents that haven't synced since
// beforeTs, for the sync_cleanup maintenance operation.
func (db *DB) CleanupSyncState(ctx context.Context, beforeTs int64) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM agent_sync_state WHERE updated_at < ?`, beforeTs)
	if err != nil {
		return 0, wrapWriteErr("sync_cleanup", "delete stale state", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// AgentShare is a record of one agent sharing a memory with another
// (spec §4.11).
type AgentShare struct {
	ID         int64
	MemoryID   int64
	FromAgent  string
	ToAgent    string
	Message    string
	CreatedAt  int64
	Acked      bool
	AckedAt    *int64
}

// Share records a memory share from one agent to another and emits a
// `shared` event.
func (db *DB) Share(ctx context.Context, memoryID int64, from, to, message string) (*AgentShare, error) {
	now := db.Clock.Now().UnixMilli()
	var share *AgentShare
	err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO agent_shares (memory_id, from_agent, to_agent, message, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, memoryID, from, to, message, now)
		if err != nil {
			return wrapWriteErr("share", "insert share", err)
		}
		id, _ := res.LastInsertId()
		share = &AgentShare{ID: id, MemoryID: memoryID, FromAgent: from, ToAgent: to, Message: message, CreatedAt: now}
		return appendEventTx(tx, "shared", &memoryID, &from, map[string]any{"to": to, "share_id": id}, now)
	})
	if err != nil {
		return nil, err
	}
	return share, nil
}

// SharedPoll returns outstanding (or all, if includeAck) shares addressed to agent.
func (db *DB) SharedPoll(ctx context.Context, agent string, includeAck bool) ([]AgentShare, error) {
	query := `SELECT id, memory_id, from_agent, to_agent, message, created_at, acked, acked_at FROM agent_shares WHERE to_agent = ?`
	if !includeAck {
		query += ` AND acked = 0`
	}
	query += ` ORDER BY created_at ASC`
	rows, err := db.QueryContext(ctx, query, agent)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "shared_poll", "query shares", err)
	}
	defer rows.Close()
	var out []AgentShare
	for rows.Next() {
		var s AgentShare
		var acked int
		var ackedAt sql.NullInt64
		if err := rows.Scan(&s.ID, &s.MemoryID, &s.FromAgent, &s.ToAgent, &s.Message, &s.CreatedAt, &acked, &ackedAt); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "shared_poll", "scan share", err)
		}
		s.Acked = acked != 0
		if ackedAt.Valid {
			s.AckedAt = &ackedAt.Int64
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ShareAck flips a share's acknowledgement flag for the given agent.
func (db *DB) ShareAck(ctx context.Context, shareID int64, agent string) error {
	now := db.Clock.Now().UnixMilli()
	res, err := db.ExecContext(ctx, `
		UPDATE agent_shares SET acked = 1, acked_at = ? WHERE id = ? AND to_agent = ?
	`, now, shareID, agent)
	if err != nil {
		return wrapWriteErr("share_ack", "update share", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFoundf("share_ack", "share %d for agent %s not found", shareID, agent)
	}
	return nil
}
