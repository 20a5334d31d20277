// Package events is a thin facade over the event log, delta-sync, and
// agent-sharing primitives (store/events.go, store/sync.go), giving
// internal/engram a narrow interface to depend on instead of the full
// *store.DB, and a place to hang the sync-state janitor (spec §4.11,
// §6 event_poll/event_clear/sync_version/sync_delta/share/shared_poll/
// share_ack/sync_cleanup).
package events

import (
	"context"

	"github.com/lazypower/engram/internal/store"
)

// Store is the subset of *store.DB this package depends on.
type Store interface {
	AppendEvent(ctx context.Context, eventType string, memoryID *int64, agentID string, data map[string]any) error
	EventsPoll(ctx context.Context, sinceID int64, agentID string, limit int) ([]store.Event, error)
	EventsClear(ctx context.Context, uptoID int64) (int64, error)
	SyncVersion(ctx context.Context) (store.SyncVersionInfo, error)
	SyncDelta(ctx context.Context, sinceVersion int64) (store.SyncDelta, error)
	GetSyncState(ctx context.Context, agentID string) (store.AgentSyncState, error)
	SetSyncState(ctx context.Context, agentID string, version int64) error
	CleanupSyncState(ctx context.Context, beforeTs int64) (int64, error)
	Share(ctx context.Context, memoryID int64, from, to, message string) (*store.AgentShare, error)
	SharedPoll(ctx context.Context, agent string, includeAck bool) ([]store.AgentShare, error)
	ShareAck(ctx context.Context, shareID int64, agent string) error
}

// Append records a standalone event, e.g. an agent action that isn't
// already wrapped in a CRUD operation's own transaction.
func Append(ctx context.Context, st Store, eventType string, memoryID *int64, agentID string, data map[string]any) error {
	return st.AppendEvent(ctx, eventType, memoryID, agentID, data)
}

// Poll returns events after sinceID for event_poll.
func Poll(ctx context.Context, st Store, sinceID int64, agentID string, limit int) ([]store.Event, error) {
	return st.EventsPoll(ctx, sinceID, agentID, limit)
}

// Clear marks events up to uptoID as processed for event_clear.
func Clear(ctx context.Context, st Store, uptoID int64) (int64, error) {
	return st.EventsClear(ctx, uptoID)
}

// Version returns the current event-log high-water mark for sync_version.
func Version(ctx context.Context, st Store) (store.SyncVersionInfo, error) {
	return st.SyncVersion(ctx)
}

// Delta returns what changed since sinceVersion for sync_delta. When
// agentID is non-empty, the agent's own sync cursor is advanced to the
// delta's high-water mark as a side effect, so a second Delta call with
// the same agentID picks up from where this one left off rather than
// replaying the same window (spec §4.11 "sync is a cursor, not a replay
// log").
func Delta(ctx context.Context, st Store, agentID string, sinceVersion int64) (store.SyncDelta, error) {
	delta, err := st.SyncDelta(ctx, sinceVersion)
	if err != nil {
		return delta, err
	}
	if agentID != "" {
		if err := st.SetSyncState(ctx, agentID, delta.To); err != nil {
			return delta, err
		}
	}
	return delta, nil
}

// DeltaForAgent resolves sinceVersion from the agent's own stored sync
// cursor rather than requiring the caller to track it.
func DeltaForAgent(ctx context.Context, st Store, agentID string) (store.SyncDelta, error) {
	state, err := st.GetSyncState(ctx, agentID)
	if err != nil {
		return store.SyncDelta{}, err
	}
	return Delta(ctx, st, agentID, state.LastSyncVersion)
}

// Share records a memory share from one agent to another.
func Share(ctx context.Context, st Store, memoryID int64, from, to, message string) (*store.AgentShare, error) {
	return st.Share(ctx, memoryID, from, to, message)
}

// SharedPoll returns shares addressed to agent, for shared_poll.
func SharedPoll(ctx context.Context, st Store, agent string, includeAck bool) ([]store.AgentShare, error) {
	return st.SharedPoll(ctx, agent, includeAck)
}

// Ack acknowledges a share, for share_ack.
func Ack(ctx context.Context, st Store, shareID int64, agent string) error {
	return st.ShareAck(ctx, shareID, agent)
}
