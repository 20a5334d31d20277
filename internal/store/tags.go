package store

import (
	"context"
	"database/sql"

	"github.com/lazypower/engram/internal/apperr"
)

// setTagsTx replaces the full tag set for a memory: inserts any tag not yet
// known globally, links memory_tags, and drops links no longer present.
func setTagsTx(tx *sql.Tx, memoryID int64, tags []string, now int64) error {
	if tags == nil {
		return nil
	}
	if _, err := tx.Exec(`DELETE FROM memory_tags WHERE memory_id = ?`, memoryID); err != nil {
		return wrapWriteErr("tags", "clear memory_tags", err)
	}
	seen := make(map[string]bool, len(tags))
	for _, raw := range tags {
		name := NormalizeTag(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if _, err := tx.Exec(`INSERT INTO tags (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
			return wrapWriteErr("tags", "upsert tag", err)
		}
		var tagID int64
		if err := tx.QueryRow(`SELECT id FROM tags WHERE name = ?`, name).Scan(&tagID); err != nil {
			return apperr.Wrap(apperr.Storage, "tags", "resolve tag id", err)
		}
		if _, err := tx.Exec(`
			INSERT INTO memory_tags (memory_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING
		`, memoryID, tagID); err != nil {
			return wrapWriteErr("tags", "link memory_tags", err)
		}
	}
	return nil
}

func tagsForMemoryTx(tx *sql.Tx, memoryID int64) ([]string, error) {
	rows, err := tx.Query(`
		SELECT t.name FROM tags t JOIN memory_tags mt ON mt.tag_id = t.id
		WHERE mt.memory_id = ? ORDER BY t.name
	`, memoryID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "tags", "list tags", err)
	}
	defer rows.Close()
	return scanTagNames(rows)
}

func tagsForMemory(ctx context.Context, db *sql.DB, memoryID int64) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT t.name FROM tags t JOIN memory_tags mt ON mt.tag_id = t.id
		WHERE mt.memory_id = ? ORDER BY t.name
	`, memoryID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "tags", "list tags", err)
	}
	defer rows.Close()
	return scanTagNames(rows)
}

func scanTagNames(rows *sql.Rows) ([]string, error) {
	var tags []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "tags", "scan tag", err)
		}
		tags = append(tags, name)
	}
	return tags, rows.Err()
}

// MemoriesByTag returns ids of memories carrying the given normalized tag.
func (db *DB) MemoriesByTag(ctx context.Context, tag string) ([]int64, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT mt.memory_id FROM memory_tags mt
		JOIN tags t ON t.id = mt.tag_id
		JOIN memories m ON m.id = mt.memory_id
		WHERE t.name = ? AND m.deleted = 0
	`, NormalizeTag(tag))
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "tags", "memories by tag", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "tags", "scan memory id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
