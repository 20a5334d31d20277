package engram

import (
	"context"

	"github.com/lazypower/engram/internal/store"
)

// Create stores a new memory (spec §6 `create`).
func (c *Core) Create(ctx context.Context, p store.CreateParams) (*store.Memory, error) {
	return c.DB.Create(ctx, p)
}

// Get fetches a memory by id (spec §6 `get`).
func (c *Core) Get(ctx context.Context, id int64) (*store.Memory, error) {
	return c.DB.Get(ctx, id)
}

// Update applies a partial update (spec §6 `update`).
func (c *Core) Update(ctx context.Context, id int64, p store.UpdateParams) (*store.Memory, error) {
	return c.DB.Update(ctx, id, p)
}

// Delete soft-deletes a memory (spec §6 `delete`). hard selects HardDelete,
// which cascades edges/entity-links/identity-links/session-links
// (invariant 5) instead of a tombstone.
func (c *Core) Delete(ctx context.Context, id int64, hard bool) error {
	if hard {
		return c.DB.HardDelete(ctx, id)
	}
	return c.DB.SoftDelete(ctx, id)
}

// List returns memories matching a filter (spec §6 `list`).
func (c *Core) List(ctx context.Context, p store.ListParams) ([]*store.Memory, error) {
	return c.DB.List(ctx, p)
}

// Count returns how many memories match a filter, for pagination callers.
func (c *Core) Count(ctx context.Context, p store.ListParams) (int64, error) {
	return c.DB.Count(ctx, p)
}

// BatchCreate stores several memories in one call (spec §6 `batch_create`).
func (c *Core) BatchCreate(ctx context.Context, items []store.CreateParams) ([]*store.Memory, error) {
	return c.DB.BatchCreate(ctx, items)
}

// BatchDelete soft-deletes several memories in one call (spec §6 `batch_delete`).
func (c *Core) BatchDelete(ctx context.Context, ids []int64) (int, error) {
	return c.DB.BatchDelete(ctx, ids)
}

// Versions lists a memory's version history (spec §6 `versions`).
func (c *Core) Versions(ctx context.Context, memoryID int64) ([]store.MemoryVersion, error) {
	return c.DB.Versions(ctx, memoryID)
}

// GetVersion fetches one historical version (spec §6 `get_version`).
func (c *Core) GetVersion(ctx context.Context, memoryID int64, version int) (*store.MemoryVersion, error) {
	return c.DB.GetVersion(ctx, memoryID, version)
}

// Revert restores a memory to a prior version (spec §6 `revert`).
func (c *Core) Revert(ctx context.Context, memoryID int64, version int) (*store.Memory, error) {
	return c.DB.RevertToVersion(ctx, memoryID, version)
}
