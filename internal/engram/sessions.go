package engram

import (
	"context"

	"github.com/lazypower/engram/internal/session"
	"github.com/lazypower/engram/internal/store"
)

func (c *Core) chunkOptions() session.ChunkOptions {
	return session.ChunkOptions{
		MaxMessages: c.Config.Session.ChunkMaxMessages,
		MaxChars:    c.Config.Session.ChunkMaxChars,
		Overlap:     c.Config.Session.ChunkOverlap,
	}
}

// SessionIndex chunks a session's full transcript into memories (spec §6 `session_index`).
func (c *Core) SessionIndex(ctx context.Context, sessionID, project string, messages []session.Message) (*session.IndexResult, error) {
	return session.Index(ctx, c.DB, sessionID, project, messages, c.chunkOptions())
}

// SessionIndexDelta continues an in-progress session's transcript indexing
// (spec §6 `session_index_delta`).
func (c *Core) SessionIndexDelta(ctx context.Context, sessionID, project string, windowPlusNew []session.Message, firstMessageIndex, firstChunkIndex int) (*session.IndexResult, error) {
	return session.IndexDelta(ctx, c.DB, sessionID, project, windowPlusNew, firstMessageIndex, firstChunkIndex, c.chunkOptions())
}

// SessionGet fetches a session's metadata (spec §6 `session_get`).
func (c *Core) SessionGet(ctx context.Context, sessionID string) (*store.Session, error) {
	return c.DB.GetSession(ctx, sessionID)
}

// SessionList lists recent sessions (spec §6 `session_list`).
func (c *Core) SessionList(ctx context.Context, limit int) ([]store.Session, error) {
	return c.DB.ListSessions(ctx, limit)
}

// SessionDelete removes a session and its chunk/memory links (spec §6 `session_delete`).
func (c *Core) SessionDelete(ctx context.Context, sessionID string) error {
	return c.DB.DeleteSession(ctx, sessionID)
}
