package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lazypower/engram/internal/apperr"
)

// Entity is a canonical extracted entity, keyed by (normalized_name, entity_type).
type Entity struct {
	ID             int64
	NormalizedName string
	EntityType     string
	MentionCount   int
	CreatedAt      int64
}

// MemoryEntity links a memory to an entity mention, per spec §3.
type MemoryEntity struct {
	ID              int64
	MemoryID        int64
	EntityID        int64
	Confidence      float64
	Relation        string
	CharacterOffset *int64
	CreatedAt       int64
}

// NormalizeEntityName lowercases and trims an entity surface form for
// canonical lookup.
func NormalizeEntityName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// UpsertEntity resolves or creates the canonical entity row for
// (normalizedName, entityType). Idempotent: running extraction twice over
// the same text does not inflate mention_count beyond the recorded links
// (spec §8 "entity extraction is idempotent").
func (db *DB) UpsertEntity(ctx context.Context, normalizedName, entityType string) (*Entity, error) {
	now := db.Clock.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		INSERT INTO entities (normalized_name, entity_type, created_at) VALUES (?, ?, ?)
		ON CONFLICT (normalized_name, entity_type) DO NOTHING
	`, normalizedName, entityType, now)
	if err != nil {
		return nil, wrapWriteErr("entities", "upsert entity", err)
	}
	row := db.QueryRowContext(ctx, `
		SELECT id, normalized_name, entity_type, mention_count, created_at
		FROM entities WHERE normalized_name = ? AND entity_type = ?
	`, normalizedName, entityType)
	var e Entity
	if err := row.Scan(&e.ID, &e.NormalizedName, &e.EntityType, &e.MentionCount, &e.CreatedAt); err != nil {
		return nil, apperr.Wrap(apperr.Storage, "entities", "scan entity", err)
	}
	return &e, nil
}

// LinkEntity records a mention of entity on memory, idempotent on
// (memory_id, entity_id, relation). A fresh link bumps the entity's
// mention_count; a repeat of an existing link does not.
func (db *DB) LinkEntity(ctx context.Context, memoryID, entityID int64, confidence float64, relation string, characterOffset *int64) error {
	now := db.Clock.Now().UnixMilli()
	if relation == "" {
		relation = "mentions"
	}
	return db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var existed bool
		if err := tx.QueryRow(`
			SELECT EXISTS(SELECT 1 FROM memory_entities WHERE memory_id = ? AND entity_id = ? AND relation = ?)
		`, memoryID, entityID, relation).Scan(&existed); err != nil {
			return apperr.Wrap(apperr.Storage, "entities", "check existing link", err)
		}

		_, err := tx.Exec(`
			INSERT INTO memory_entities (memory_id, entity_id, confidence, relation, character_offset, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (memory_id, entity_id, relation) DO UPDATE SET confidence = excluded.confidence
		`, memoryID, entityID, confidence, relation, characterOffset, now)
		if err != nil {
			return wrapWriteErr("entities", "link entity", err)
		}
		if !existed {
			if _, iErr := tx.Exec(`UPDATE entities SET mention_count = mention_count + 1 WHERE id = ?`, entityID); iErr != nil {
				return wrapWriteErr("entities", "bump mention count", iErr)
			}
		}
		return nil
	})
}

// EntitiesForMemory returns the entities mentioned by a memory.
func (db *DB) EntitiesForMemory(ctx context.Context, memoryID int64) ([]MemoryEntity, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, memory_id, entity_id, confidence, relation, character_offset, created_at
		FROM memory_entities WHERE memory_id = ?
	`, memoryID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "entities", "query memory entities", err)
	}
	defer rows.Close()

	var out []MemoryEntity
	for rows.Next() {
		var me MemoryEntity
		var offset sql.NullInt64
		if err := rows.Scan(&me.ID, &me.MemoryID, &me.EntityID, &me.Confidence, &me.Relation, &offset, &me.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "entities", "scan memory entity", err)
		}
		if offset.Valid {
			me.CharacterOffset = &offset.Int64
		}
		out = append(out, me)
	}
	return out, rows.Err()
}

// MemoriesForEntity returns ids of memories mentioning entityID, used for
// co-occurrence virtual-edge construction in the graph engine.
func (db *DB) MemoriesForEntity(ctx context.Context, entityID int64) ([]int64, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT memory_id FROM memory_entities WHERE entity_id = ?`, entityID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "entities", "memories for entity", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "entities", "scan memory id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SearchEntities finds canonical entities whose normalized_name contains q.
func (db *DB) SearchEntities(ctx context.Context, q string, entityType string, limit int) ([]Entity, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, normalized_name, entity_type, mention_count, created_at FROM entities WHERE normalized_name LIKE ?`
	args := []any{"%" + NormalizeEntityName(q) + "%"}
	if entityType != "" {
		query += ` AND entity_type = ?`
		args = append(args, entityType)
	}
	query += ` ORDER BY mention_count DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "entities", "search entities", err)
	}
	defer rows.Close()
	var out []Entity
	for rows.Next() {
		var e Entity
		if err := rows.Scan(&e.ID, &e.NormalizedName, &e.EntityType, &e.MentionCount, &e.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "entities", "scan entity", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EntityStats reports aggregate entity counts by type, for the entity_stats operation.
func (db *DB) EntityStats(ctx context.Context) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT entity_type, COUNT(*) FROM entities GROUP BY entity_type`)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "entities", "entity stats", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var t string
		var c int
		if err := rows.Scan(&t, &c); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "entities", "scan stats row", err)
		}
		out[t] = c
	}
	return out, rows.Err()
}
