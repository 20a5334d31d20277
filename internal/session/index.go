package session

import (
	"context"

	"github.com/lazypower/engram/internal/store"
)

// Store is the subset of *store.DB the session indexer depends on.
type Store interface {
	InitSession(ctx context.Context, sessionID, project string) (*store.Session, error)
	GetSession(ctx context.Context, sessionID string) (*store.Session, error)
	Create(ctx context.Context, p store.CreateParams) (*store.Memory, error)
	AddSessionChunk(ctx context.Context, c store.SessionChunk) error
	IncrementMessageCount(ctx context.Context, sessionID string, by int) error
}

// IndexedChunk is one transcript_chunk memory produced by an Index/IndexDelta
// call, alongside the message range it covers.
type IndexedChunk struct {
	ChunkIndex   int
	MemoryID     int64
	MessageStart int
	MessageEnd   int
}

// IndexResult summarizes one indexing pass.
type IndexResult struct {
	SessionID string
	Chunks    []IndexedChunk
}

// Index chunks a session's full message history from scratch, creating (or,
// for unchanged chunk content, reusing) one transcript_chunk memory per
// chunk and linking it via AddSessionChunk. Re-running Index with an
// unchanged prefix produces no new chunks for that prefix (spec §8
// round-trip property), since chunk memories dedup on content hash within
// the session's scope.
func Index(ctx context.Context, st Store, sessionID, project string, messages []Message, opts ChunkOptions) (*IndexResult, error) {
	return index(ctx, st, sessionID, project, messages, 0, 0, opts)
}

// IndexDelta continues an in-progress session: windowPlusNew is the last
// Overlap messages already chunked (the "tail") followed by newly arrived
// messages, and firstMessageIndex/firstChunkIndex are where that window
// starts in the session's overall numbering. Callers keep the live message
// buffer (the session is an open conversation), so reconstructing the tail
// here from stored state isn't needed.
func IndexDelta(ctx context.Context, st Store, sessionID, project string, windowPlusNew []Message, firstMessageIndex, firstChunkIndex int, opts ChunkOptions) (*IndexResult, error) {
	return index(ctx, st, sessionID, project, windowPlusNew, firstMessageIndex, firstChunkIndex, opts)
}

func index(ctx context.Context, st Store, sessionID, project string, messages []Message, firstMessageIndex, firstChunkIndex int, opts ChunkOptions) (*IndexResult, error) {
	if _, err := st.InitSession(ctx, sessionID, project); err != nil {
		return nil, err
	}

	chunks := Chunk(messages, opts)
	overlap := opts.withDefaults().Overlap
	result := &IndexResult{SessionID: sessionID}
	messageOffset := firstMessageIndex
	newMessageCount := 0

	for i, chunk := range chunks {
		content := Render(chunk)
		mem, err := st.Create(ctx, store.CreateParams{
			Content:    content,
			MemoryType: "transcript_chunk",
			ScopeKind:  "session",
			ScopeID:    sessionID,
			Workspace:  project,
			DedupMode:  "skip",
		})
		if err != nil {
			return nil, err
		}

		start := messageOffset
		end := messageOffset + len(chunk) - 1
		if err := st.AddSessionChunk(ctx, store.SessionChunk{
			SessionID:    sessionID,
			ChunkIndex:   firstChunkIndex + i,
			MemoryID:     mem.ID,
			MessageStart: start,
			MessageEnd:   end,
		}); err != nil {
			return nil, err
		}

		result.Chunks = append(result.Chunks, IndexedChunk{
			ChunkIndex:   firstChunkIndex + i,
			MemoryID:     mem.ID,
			MessageStart: start,
			MessageEnd:   end,
		})
		messageOffset = end + 1
		// The next chunk opens by repeating this chunk's last overlap messages.
		if overlap > 0 && overlap < len(chunk) {
			messageOffset -= overlap
		}
		newMessageCount += len(chunk)
	}

	if newMessageCount > 0 {
		if err := st.IncrementMessageCount(ctx, sessionID, newMessageCount); err != nil {
			return nil, err
		}
	}
	return result, nil
}
