package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/lazypower/engram/internal/apperr"
)

// Identity is a canonical, aliased entity across memories (spec §3).
type Identity struct {
	CanonicalID string
	DisplayName string
	EntityType  string
	Description string
	CreatedAt   int64
	UpdatedAt   int64
	Aliases     []string
}

// NormalizeAlias lowercases and trims an alias so normalization is
// idempotent (spec invariant 4: normalize(normalize(x)) = normalize(x)).
func NormalizeAlias(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}

// CreateIdentity inserts a new canonical identity. If canonicalID is empty,
// one is generated (a UUID surrogate key) rather than left for the caller to invent.
func (db *DB) CreateIdentity(ctx context.Context, canonicalID, displayName, entityType, description string) (*Identity, error) {
	if canonicalID == "" {
		canonicalID = uuid.New().String()
	}
	now := db.Clock.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		INSERT INTO identities (canonical_id, display_name, entity_type, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, canonicalID, displayName, entityType, description, now, now)
	if err != nil {
		return nil, wrapWriteErr("identity_create", "insert identity", err)
	}
	return &Identity{CanonicalID: canonicalID, DisplayName: displayName, EntityType: entityType,
		Description: description, CreatedAt: now, UpdatedAt: now}, nil
}

// GetIdentity returns an identity and its aliases, or nil if not found.
func (db *DB) GetIdentity(ctx context.Context, canonicalID string) (*Identity, error) {
	row := db.QueryRowContext(ctx, `
		SELECT canonical_id, display_name, entity_type, description, created_at, updated_at
		FROM identities WHERE canonical_id = ?
	`, canonicalID)
	var id Identity
	if err := row.Scan(&id.CanonicalID, &id.DisplayName, &id.EntityType, &id.Description, &id.CreatedAt, &id.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.Storage, "identity_get", "scan identity", err)
	}
	aliases, err := db.aliasesFor(ctx, canonicalID)
	if err != nil {
		return nil, err
	}
	id.Aliases = aliases
	return &id, nil
}

// UpdateIdentity changes display name and/or description.
func (db *DB) UpdateIdentity(ctx context.Context, canonicalID string, displayName, description *string) error {
	now := db.Clock.Now().UnixMilli()
	existing, err := db.GetIdentity(ctx, canonicalID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.NotFoundf("identity_update", "identity %s not found", canonicalID)
	}
	if displayName != nil {
		existing.DisplayName = *displayName
	}
	if description != nil {
		existing.Description = *description
	}
	_, err = db.ExecContext(ctx, `
		UPDATE identities SET display_name = ?, description = ?, updated_at = ? WHERE canonical_id = ?
	`, existing.DisplayName, existing.Description, now, canonicalID)
	if err != nil {
		return wrapWriteErr("identity_update", "update identity", err)
	}
	return nil
}

// DeleteIdentity removes an identity, cascading its aliases and memory links.
func (db *DB) DeleteIdentity(ctx context.Context, canonicalID string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM identities WHERE canonical_id = ?`, canonicalID)
	if err != nil {
		return wrapWriteErr("identity_delete", "delete identity", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFoundf("identity_delete", "identity %s not found", canonicalID)
	}
	return nil
}

// AddAlias binds a normalized alias to a canonical identity. Fails with
// Conflict if the alias already resolves to a different canonical_id
// (spec invariant 4/5).
func (db *DB) AddAlias(ctx context.Context, canonicalID, alias string) error {
	now := db.Clock.Now().UnixMilli()
	norm := NormalizeAlias(alias)
	existing, err := db.ResolveAlias(ctx, norm)
	if err != nil {
		return err
	}
	if existing != "" && existing != canonicalID {
		return apperr.New(apperr.Conflict, "identity_add_alias", "alias already bound to another canonical_id").
			WithField("alias", norm).WithField("existing_canonical_id", existing)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO identity_aliases (alias, canonical_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(alias) DO NOTHING
	`, norm, canonicalID, now)
	if err != nil {
		return wrapWriteErr("identity_add_alias", "insert alias", err)
	}
	return nil
}

// RemoveAlias unbinds an alias.
func (db *DB) RemoveAlias(ctx context.Context, alias string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM identity_aliases WHERE alias = ?`, NormalizeAlias(alias))
	if err != nil {
		return wrapWriteErr("identity_remove_alias", "delete alias", err)
	}
	return nil
}

// ResolveAlias returns the canonical_id an alias resolves to, or "" if unbound.
func (db *DB) ResolveAlias(ctx context.Context, alias string) (string, error) {
	var canonicalID string
	err := db.QueryRowContext(ctx, `SELECT canonical_id FROM identity_aliases WHERE alias = ?`, NormalizeAlias(alias)).Scan(&canonicalID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", apperr.Wrap(apperr.Storage, "identity_resolve", "resolve alias", err)
	}
	return canonicalID, nil
}

// ListIdentities returns every identity, bounded by limit.
func (db *DB) ListIdentities(ctx context.Context, limit int) ([]Identity, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `
		SELECT canonical_id, display_name, entity_type, description, created_at, updated_at
		FROM identities ORDER BY display_name LIMIT ?
	`, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "identity_list", "query identities", err)
	}
	defer rows.Close()
	var out []Identity
	for rows.Next() {
		var id Identity
		if err := rows.Scan(&id.CanonicalID, &id.DisplayName, &id.EntityType, &id.Description, &id.CreatedAt, &id.UpdatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "identity_list", "scan identity", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// SearchIdentities finds identities whose display name contains q.
func (db *DB) SearchIdentities(ctx context.Context, q string, limit int) ([]Identity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT canonical_id, display_name, entity_type, description, created_at, updated_at
		FROM identities WHERE display_name LIKE ? LIMIT ?
	`, "%"+q+"%", limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "identity_search", "search identities", err)
	}
	defer rows.Close()
	var out []Identity
	for rows.Next() {
		var id Identity
		if err := rows.Scan(&id.CanonicalID, &id.DisplayName, &id.EntityType, &id.Description, &id.CreatedAt, &id.UpdatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "identity_search", "scan identity", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// LinkIdentity associates a memory with a canonical identity.
func (db *DB) LinkIdentity(ctx context.Context, memoryID int64, canonicalID string) error {
	now := db.Clock.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		INSERT INTO memory_identity_links (memory_id, canonical_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`, memoryID, canonicalID, now)
	if err != nil {
		return wrapWriteErr("identity_link", "link identity", err)
	}
	return nil
}

// UnlinkIdentity removes a memory/identity association.
func (db *DB) UnlinkIdentity(ctx context.Context, memoryID int64, canonicalID string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM memory_identity_links WHERE memory_id = ? AND canonical_id = ?`, memoryID, canonicalID)
	if err != nil {
		return wrapWriteErr("identity_unlink", "unlink identity", err)
	}
	return nil
}

// MemoriesByIdentity returns ids of memories linked to a canonical identity.
func (db *DB) MemoriesByIdentity(ctx context.Context, canonicalID string) ([]int64, error) {
	rows, err := db.QueryContext(ctx, `SELECT memory_id FROM memory_identity_links WHERE canonical_id = ?`, canonicalID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "identity", "memories by identity", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "identity", "scan memory id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (db *DB) aliasesFor(ctx context.Context, canonicalID string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT alias FROM identity_aliases WHERE canonical_id = ? ORDER BY alias`, canonicalID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "identity", "query aliases", err)
	}
	defer rows.Close()
	var aliases []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "identity", "scan alias", err)
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}
