package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lazypower/engram/internal/apperr"
)

// MemoryVersion is an append-only snapshot of a memory's prior content, per
// spec §3's memory_versions table.
type MemoryVersion struct {
	ID        int64
	MemoryID  int64
	Version   int
	Content   string
	Tags      []string
	Metadata  string
	CreatedAt int64
}

func snapshotVersionTx(tx *sql.Tx, m *Memory, tags []string, now int64) error {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "versions", "marshal tags", err)
	}
	_, err = tx.Exec(`
		INSERT INTO memory_versions (memory_id, version, content, tags, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.Version, m.Content, string(tagsJSON), m.Metadata, now)
	if err != nil {
		return wrapWriteErr("versions", "insert version", err)
	}
	return nil
}

// Versions returns every recorded version snapshot for a memory, oldest
// first.
func (db *DB) Versions(ctx context.Context, memoryID int64) ([]MemoryVersion, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, memory_id, version, content, tags, metadata, created_at
		FROM memory_versions WHERE memory_id = ? ORDER BY version ASC
	`, memoryID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "versions", "query versions", err)
	}
	defer rows.Close()

	var out []MemoryVersion
	for rows.Next() {
		var v MemoryVersion
		var tagsJSON string
		if err := rows.Scan(&v.ID, &v.MemoryID, &v.Version, &v.Content, &tagsJSON, &v.Metadata, &v.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "versions", "scan version", err)
		}
		json.Unmarshal([]byte(tagsJSON), &v.Tags)
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetVersion returns a single version snapshot.
func (db *DB) GetVersion(ctx context.Context, memoryID int64, version int) (*MemoryVersion, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, memory_id, version, content, tags, metadata, created_at
		FROM memory_versions WHERE memory_id = ? AND version = ?
	`, memoryID, version)
	var v MemoryVersion
	var tagsJSON string
	err := row.Scan(&v.ID, &v.MemoryID, &v.Version, &v.Content, &tagsJSON, &v.Metadata, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "get_version", "scan version", err)
	}
	json.Unmarshal([]byte(tagsJSON), &v.Tags)
	return &v, nil
}

// RevertToVersion restores a memory's content/tags/metadata from a prior
// version snapshot, itself recording a new version snapshot of the state
// being replaced (spec §8: "a version snapshot is appended each revert").
func (db *DB) RevertToVersion(ctx context.Context, memoryID int64, version int) (*Memory, error) {
	now := db.Clock.Now().UnixMilli()
	var result *Memory
	err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var v MemoryVersion
		var tagsJSON string
		row := tx.QueryRow(`
			SELECT id, memory_id, version, content, tags, metadata, created_at
			FROM memory_versions WHERE memory_id = ? AND version = ?
		`, memoryID, version)
		if err := row.Scan(&v.ID, &v.MemoryID, &v.Version, &v.Content, &tagsJSON, &v.Metadata, &v.CreatedAt); err != nil {
			if err == sql.ErrNoRows {
				return apperr.NotFoundf("revert", "version %d of memory %d not found", version, memoryID)
			}
			return apperr.Wrap(apperr.Storage, "revert", "scan version", err)
		}
		var tags []string
		json.Unmarshal([]byte(tagsJSON), &tags)

		existing, gErr := scanMemoryByIDTx(tx, memoryID)
		if gErr != nil {
			return gErr
		}
		if existing == nil {
			return apperr.NotFoundf("revert", "memory %d not found", memoryID)
		}
		currentTags, _ := tagsForMemoryTx(tx, memoryID)
		if sErr := snapshotVersionTx(tx, existing, currentTags, now); sErr != nil {
			return sErr
		}

		hash := ContentHash(v.Content)
		if _, err := tx.Exec(`
			UPDATE memories SET content = ?, content_hash = ?, metadata = ?, version = version + 1, updated_at = ?
			WHERE id = ?
		`, v.Content, hash, v.Metadata, now, memoryID); err != nil {
			return wrapWriteErr("revert", "update memory", err)
		}
		if err := setTagsTx(tx, memoryID, tags, now); err != nil {
			return err
		}
		storedTags, tErr := tagsForMemoryTx(tx, memoryID)
		if tErr != nil {
			return tErr
		}
		if iErr := indexMemoryContentTx(tx, memoryID, v.Content, storedTags, v.Metadata); iErr != nil {
			return iErr
		}
		if err := appendEventTx(tx, "updated", &memoryID, nil, map[string]any{"reverted_to": version}, now); err != nil {
			return err
		}

		existing.Content = v.Content
		existing.ContentHash = hash
		existing.Metadata = v.Metadata
		existing.Version++
		existing.UpdatedAt = now
		existing.Tags = tags
		result = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
