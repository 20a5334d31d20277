package engram

import (
	"context"
	"regexp"

	"github.com/lazypower/engram/internal/store"
)

// properNounRun matches runs of two or more capitalized words, the same
// coarse heuristic the teacher's extractor.go delegates to an LLM for —
// generalized here to a dependency-free heuristic since spec.md leaves the
// extraction algorithm unspecified and Non-goals exclude model training
// (an LLM collaborator would need one to be useful beyond a fixed prompt).
var properNounRun = regexp.MustCompile(`\b([A-Z][a-zA-Z0-9]*(?:\s+[A-Z][a-zA-Z0-9]*){1,3})\b`)

// ExtractEntities scans a memory's content for candidate entity mentions
// and links them, resolving each to its canonical entity row (spec §6
// `extract_entities`). Idempotent: re-running over unchanged content
// resolves to the same entities and LinkEntity's own upsert-on-conflict
// leaves mention_count untouched for a repeat link (spec §8).
func (c *Core) ExtractEntities(ctx context.Context, memoryID int64) ([]store.MemoryEntity, error) {
	m, err := c.DB.Get(ctx, memoryID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}

	seen := make(map[string]bool)
	for _, match := range properNounRun.FindAllStringIndex(m.Content, -1) {
		surface := m.Content[match[0]:match[1]]
		normalized := store.NormalizeEntityName(surface)
		if seen[normalized] {
			continue
		}
		seen[normalized] = true

		entity, err := c.DB.UpsertEntity(ctx, normalized, "other")
		if err != nil {
			return nil, err
		}
		offset := int64(match[0])
		if err := c.DB.LinkEntity(ctx, memoryID, entity.ID, 0.6, "mentions", &offset); err != nil {
			return nil, err
		}
	}
	return c.DB.EntitiesForMemory(ctx, memoryID)
}

// GetEntities returns the entities linked to a memory (spec §6 `get_entities`).
func (c *Core) GetEntities(ctx context.Context, memoryID int64) ([]store.MemoryEntity, error) {
	return c.DB.EntitiesForMemory(ctx, memoryID)
}

// SearchEntities finds canonical entities by name substring (spec §6 `search_entities`).
func (c *Core) SearchEntities(ctx context.Context, q, entityType string, limit int) ([]store.Entity, error) {
	return c.DB.SearchEntities(ctx, q, entityType, limit)
}

// EntityStats reports per-type entity counts (spec §6 `entity_stats`).
func (c *Core) EntityStats(ctx context.Context) (map[string]int, error) {
	return c.DB.EntityStats(ctx)
}

// IdentityCreate registers a new canonical identity (spec §6 `identity_create`).
func (c *Core) IdentityCreate(ctx context.Context, canonicalID, displayName, entityType, description string) (*store.Identity, error) {
	return c.DB.CreateIdentity(ctx, canonicalID, displayName, entityType, description)
}

// IdentityGet fetches an identity by canonical id (spec §6 `identity_get`).
func (c *Core) IdentityGet(ctx context.Context, canonicalID string) (*store.Identity, error) {
	return c.DB.GetIdentity(ctx, canonicalID)
}

// IdentityUpdate updates an identity's display name/description (spec §6 `identity_update`).
func (c *Core) IdentityUpdate(ctx context.Context, canonicalID string, displayName, description *string) error {
	return c.DB.UpdateIdentity(ctx, canonicalID, displayName, description)
}

// IdentityDelete removes an identity (spec §6 `identity_delete`).
func (c *Core) IdentityDelete(ctx context.Context, canonicalID string) error {
	return c.DB.DeleteIdentity(ctx, canonicalID)
}

// IdentityAddAlias binds a new alias to a canonical identity (spec §6 `identity_add_alias`).
func (c *Core) IdentityAddAlias(ctx context.Context, canonicalID, alias string) error {
	return c.DB.AddAlias(ctx, canonicalID, alias)
}

// IdentityRemoveAlias unbinds an alias (spec §6 `identity_remove_alias`).
func (c *Core) IdentityRemoveAlias(ctx context.Context, alias string) error {
	return c.DB.RemoveAlias(ctx, alias)
}

// IdentityResolve resolves an alias to its canonical id (spec §6 `identity_resolve`).
func (c *Core) IdentityResolve(ctx context.Context, alias string) (string, error) {
	return c.DB.ResolveAlias(ctx, alias)
}

// IdentityList lists identities (spec §6 `identity_list`).
func (c *Core) IdentityList(ctx context.Context, limit int) ([]store.Identity, error) {
	return c.DB.ListIdentities(ctx, limit)
}

// IdentitySearch finds identities by display name or alias substring (spec §6 `identity_search`).
func (c *Core) IdentitySearch(ctx context.Context, q string, limit int) ([]store.Identity, error) {
	return c.DB.SearchIdentities(ctx, q, limit)
}

// IdentityLink associates a memory with a canonical identity (spec §6 `identity_link`).
func (c *Core) IdentityLink(ctx context.Context, memoryID int64, canonicalID string) error {
	return c.DB.LinkIdentity(ctx, memoryID, canonicalID)
}

// IdentityUnlink removes a memory/identity association (spec §6 `identity_unlink`).
func (c *Core) IdentityUnlink(ctx context.Context, memoryID int64, canonicalID string) error {
	return c.DB.UnlinkIdentity(ctx, memoryID, canonicalID)
}
