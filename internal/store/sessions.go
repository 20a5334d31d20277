package store

import (
	"context"
	"database/sql"

	"github.com/lazypower/engram/internal/apperr"
)

// Session groups ordered transcript chunks into memories (spec §3).
type Session struct {
	ID           int64
	SessionID    string
	Project      string
	StartedAt    int64
	EndedAt      *int64
	Status       string
	MessageCount int
	ToolCount    int
}

// SessionChunk records which transcript_chunk memory covers which message
// range of a session, keyed by chunk_index (spec invariant 8).
type SessionChunk struct {
	SessionID    string
	ChunkIndex   int
	MemoryID     int64
	MessageStart int
	MessageEnd   int
	CreatedAt    int64
}

// SessionMemory links a non-chunk memory into a session with a relevance
// score and context role, per spec §3.
type SessionMemory struct {
	SessionID   string
	MemoryID    int64
	Relevance   float64
	ContextRole string
	CreatedAt   int64
}

// InitSession creates or resumes a session, generalizing the teacher's
// InitSession from a single-project hook context to the broader session-index
// operation group.
func (db *DB) InitSession(ctx context.Context, sessionID, project string) (*Session, error) {
	now := db.Clock.Now().UnixMilli()

	existing, err := db.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == "active" {
		return existing, nil
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, project, started_at, status) VALUES (?, ?, ?, 'active')
		ON CONFLICT(session_id) DO UPDATE SET status = 'active', started_at = excluded.started_at, ended_at = NULL
	`, sessionID, project, now)
	if err != nil {
		return nil, wrapWriteErr("session_index", "init session", err)
	}
	return db.GetSession(ctx, sessionID)
}

// GetSession returns a session by its session_id, or nil if not found.
func (db *DB) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, session_id, project, started_at, ended_at, status, message_count, tool_count
		FROM sessions WHERE session_id = ?
	`, sessionID)
	var s Session
	var project sql.NullString
	var endedAt sql.NullInt64
	err := row.Scan(&s.ID, &s.SessionID, &project, &s.StartedAt, &endedAt, &s.Status, &s.MessageCount, &s.ToolCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "session_get", "scan session", err)
	}
	s.Project = project.String
	if endedAt.Valid {
		s.EndedAt = &endedAt.Int64
	}
	return &s, nil
}

// ListSessions returns the most recent sessions, ordered by started_at DESC.
func (db *DB) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, session_id, project, started_at, ended_at, status, message_count, tool_count
		FROM sessions ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "session_list", "query sessions", err)
	}
	defer rows.Close()
	var out []Session
	for rows.Next() {
		var s Session
		var project sql.NullString
		var endedAt sql.NullInt64
		if err := rows.Scan(&s.ID, &s.SessionID, &project, &s.StartedAt, &endedAt, &s.Status, &s.MessageCount, &s.ToolCount); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "session_list", "scan session", err)
		}
		s.Project = project.String
		if endedAt.Valid {
			s.EndedAt = &endedAt.Int64
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// EndSession finalizes a session if still active.
func (db *DB) EndSession(ctx context.Context, sessionID string) error {
	now := db.Clock.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		UPDATE sessions SET status = 'completed', ended_at = COALESCE(ended_at, ?)
		WHERE session_id = ? AND status = 'active'
	`, now, sessionID)
	if err != nil {
		return wrapWriteErr("session_end", "end session", err)
	}
	return nil
}

// DeleteSession removes a session and cascades its chunks/memory links.
func (db *DB) DeleteSession(ctx context.Context, sessionID string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return wrapWriteErr("session_delete", "delete session", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFoundf("session_delete", "session %s not found", sessionID)
	}
	return nil
}

// IncrementToolCount increments a session's tool_count.
func (db *DB) IncrementToolCount(ctx context.Context, sessionID string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE sessions SET tool_count = tool_count + 1 WHERE session_id = ? AND status = 'active'
	`, sessionID)
	if err != nil {
		return wrapWriteErr("session", "increment tool count", err)
	}
	return nil
}

// IncrementMessageCount increments a session's message_count.
func (db *DB) IncrementMessageCount(ctx context.Context, sessionID string, by int) error {
	_, err := db.ExecContext(ctx, `
		UPDATE sessions SET message_count = message_count + ? WHERE session_id = ? AND status = 'active'
	`, by, sessionID)
	if err != nil {
		return wrapWriteErr("session", "increment message count", err)
	}
	return nil
}

// AddSessionChunk records a transcript_chunk memory's message range within a
// session, keyed by chunk index so re-ingestion with an unchanged chunk hash
// produces no new chunk (spec §8 round-trip property).
func (db *DB) AddSessionChunk(ctx context.Context, c SessionChunk) error {
	now := db.Clock.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		INSERT INTO session_chunks (session_id, chunk_index, memory_id, message_start, message_end, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, chunk_index) DO UPDATE SET
			memory_id = excluded.memory_id, message_start = excluded.message_start, message_end = excluded.message_end
	`, c.SessionID, c.ChunkIndex, c.MemoryID, c.MessageStart, c.MessageEnd, now)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "session_index", "add chunk", err)
	}
	return nil
}

// SessionChunks returns every chunk recorded for a session, ordered by index.
func (db *DB) SessionChunks(ctx context.Context, sessionID string) ([]SessionChunk, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT session_id, chunk_index, memory_id, message_start, message_end, created_at
		FROM session_chunks WHERE session_id = ? ORDER BY chunk_index
	`, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "session_index", "query chunks", err)
	}
	defer rows.Close()
	var out []SessionChunk
	for rows.Next() {
		var c SessionChunk
		if err := rows.Scan(&c.SessionID, &c.ChunkIndex, &c.MemoryID, &c.MessageStart, &c.MessageEnd, &c.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "session_index", "scan chunk", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddSessionMemory links a non-chunk memory into a session's context.
func (db *DB) AddSessionMemory(ctx context.Context, sm SessionMemory) error {
	now := db.Clock.Now().UnixMilli()
	if sm.ContextRole == "" {
		sm.ContextRole = "related"
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO session_memories (session_id, memory_id, relevance, context_role, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, memory_id) DO UPDATE SET relevance = excluded.relevance, context_role = excluded.context_role
	`, sm.SessionID, sm.MemoryID, sm.Relevance, sm.ContextRole, now)
	if err != nil {
		return wrapWriteErr("session_index", "add session memory", err)
	}
	return nil
}

// SessionMemories returns the memories linked into a session's context.
func (db *DB) SessionMemories(ctx context.Context, sessionID string) ([]SessionMemory, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT session_id, memory_id, relevance, context_role, created_at
		FROM session_memories WHERE session_id = ? ORDER BY relevance DESC
	`, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "session_index", "query session memories", err)
	}
	defer rows.Close()
	var out []SessionMemory
	for rows.Next() {
		var sm SessionMemory
		if err := rows.Scan(&sm.SessionID, &sm.MemoryID, &sm.Relevance, &sm.ContextRole, &sm.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "session_index", "scan session memory", err)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}
