package engram

import (
	"context"

	"github.com/lazypower/engram/internal/events"
	"github.com/lazypower/engram/internal/store"
)

// EventsPoll returns events after sinceID, optionally filtered to one
// agent's visible events (spec §6 `events_poll`).
func (c *Core) EventsPoll(ctx context.Context, sinceID int64, agentID string, limit int) ([]store.Event, error) {
	return events.Poll(ctx, c.DB, sinceID, agentID, limit)
}

// EventsClear prunes events up to and including uptoID (spec §6 `events_clear`).
func (c *Core) EventsClear(ctx context.Context, uptoID int64) (int64, error) {
	return events.Clear(ctx, c.DB, uptoID)
}

// SyncVersion reports the store's current event-log version and checksum
// (spec §6 `sync_version`).
func (c *Core) SyncVersion(ctx context.Context) (store.SyncVersionInfo, error) {
	return events.Version(ctx, c.DB)
}

// SyncDelta returns every event since sinceVersion for an agent, advancing
// that agent's stored sync cursor (spec §6 `sync_delta`).
func (c *Core) SyncDelta(ctx context.Context, agentID string, sinceVersion int64) (store.SyncDelta, error) {
	return events.Delta(ctx, c.DB, agentID, sinceVersion)
}

// SyncState resumes delta sync from an agent's last stored cursor (spec §6 `sync_state`).
func (c *Core) SyncState(ctx context.Context, agentID string) (store.SyncDelta, error) {
	return events.DeltaForAgent(ctx, c.DB, agentID)
}

// SyncCleanup evicts sync-state rows for agents that haven't polled since
// olderThan, the on-demand counterpart to the scheduled janitor Start wires
// up (spec §6 `sync_cleanup`).
func (c *Core) SyncCleanup(ctx context.Context, olderThan int64) (int64, error) {
	return c.DB.CleanupSyncState(ctx, olderThan)
}

// Share records a directed hand-off of a memory to another agent (spec §6 `share`).
func (c *Core) Share(ctx context.Context, memoryID int64, from, to, message string) (*store.AgentShare, error) {
	return events.Share(ctx, c.DB, memoryID, from, to, message)
}

// SharedPoll returns memories shared to an agent (spec §6 `shared_poll`).
func (c *Core) SharedPoll(ctx context.Context, agent string, includeAck bool) ([]store.AgentShare, error) {
	return events.SharedPoll(ctx, c.DB, agent, includeAck)
}

// ShareAck acknowledges receipt of a share (spec §6 `share_ack`).
func (c *Core) ShareAck(ctx context.Context, shareID int64, agent string) error {
	return events.Ack(ctx, c.DB, shareID, agent)
}
