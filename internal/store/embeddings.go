package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"

	"github.com/lazypower/engram/internal/apperr"
)

// EmbeddingRecord holds a memory's dense vector and the queue bookkeeping
// around it, generalizing the teacher's VectorRecord with the pending/dead
// queue states spec §4.4 requires.
type EmbeddingRecord struct {
	MemoryID    int64
	Embedding   []float64
	Model       string
	Dimensions  int
	ContentHash string
	Status      string // pending, ready, dead
	RetryCount  int
	LastError   string
	CreatedAt   int64
	UpdatedAt   int64
}

func encodeEmbedding(vec []float64) []byte {
	buf := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decodeEmbedding(buf []byte) []float64 {
	n := len(buf) / 8
	vec := make([]float64, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return vec
}

// EnqueueEmbedding marks a memory as pending embedding computation, keyed by
// the content hash so an unchanged re-save doesn't requeue.
func (db *DB) EnqueueEmbedding(ctx context.Context, memoryID int64, contentHash string) error {
	now := db.Clock.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		INSERT INTO embeddings (memory_id, content_hash, status, created_at, updated_at)
		VALUES (?, ?, 'pending', ?, ?)
		ON CONFLICT(memory_id) DO UPDATE SET content_hash = excluded.content_hash, status = 'pending',
			retry_count = 0, last_error = NULL, updated_at = excluded.updated_at
		WHERE embeddings.content_hash != excluded.content_hash OR embeddings.status = 'dead'
	`, memoryID, contentHash, now, now)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "vector_index", "enqueue embedding", err)
	}
	return nil
}

// DequeuePending returns up to limit pending embedding rows, ordered oldest
// first, for a worker to claim.
func (db *DB) DequeuePending(ctx context.Context, limit int) ([]EmbeddingRecord, error) {
	if limit <= 0 {
		limit = 16
	}
	rows, err := db.QueryContext(ctx, `
		SELECT memory_id, content_hash, retry_count, created_at, updated_at
		FROM embeddings WHERE status = 'pending' ORDER BY updated_at ASC LIMIT ?
	`, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "vector_index", "dequeue pending", err)
	}
	defer rows.Close()
	var out []EmbeddingRecord
	for rows.Next() {
		var r EmbeddingRecord
		if err := rows.Scan(&r.MemoryID, &r.ContentHash, &r.RetryCount, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "vector_index", "scan pending", err)
		}
		r.Status = "pending"
		out = append(out, r)
	}
	return out, rows.Err()
}

// CompleteEmbedding stores a computed vector and marks the row ready.
func (db *DB) CompleteEmbedding(ctx context.Context, memoryID int64, embedding []float64, model string) error {
	now := db.Clock.Now().UnixMilli()
	blob := encodeEmbedding(embedding)
	_, err := db.ExecContext(ctx, `
		UPDATE embeddings SET embedding = ?, model = ?, dimensions = ?, status = 'ready',
			retry_count = 0, last_error = NULL, updated_at = ?
		WHERE memory_id = ?
	`, blob, model, len(embedding), now, memoryID)
	if err != nil {
		return wrapWriteErr("vector_index", "complete embedding", err)
	}
	return nil
}

// FailEmbedding increments retry_count and records the error; once
// retryCap is exceeded the row is marked dead (spec §4.4).
func (db *DB) FailEmbedding(ctx context.Context, memoryID int64, errMsg string, retryCap int) error {
	now := db.Clock.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		UPDATE embeddings SET retry_count = retry_count + 1, last_error = ?, updated_at = ?,
			status = CASE WHEN retry_count + 1 >= ? THEN 'dead' ELSE 'pending' END
		WHERE memory_id = ?
	`, errMsg, now, retryCap, memoryID)
	if err != nil {
		return wrapWriteErr("vector_index", "fail embedding", err)
	}
	return nil
}

// GetEmbedding returns a ready embedding for a memory, or nil if none.
func (db *DB) GetEmbedding(ctx context.Context, memoryID int64) (*EmbeddingRecord, error) {
	row := db.QueryRowContext(ctx, `
		SELECT memory_id, embedding, model, dimensions, content_hash, status, retry_count, created_at, updated_at
		FROM embeddings WHERE memory_id = ? AND status = 'ready'
	`, memoryID)
	return scanEmbeddingRow(row)
}

// AllReadyEmbeddings returns every ready embedding, for the vector index's
// in-memory k-NN scan.
func (db *DB) AllReadyEmbeddings(ctx context.Context) ([]EmbeddingRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT memory_id, embedding, model, dimensions, content_hash, status, retry_count, created_at, updated_at
		FROM embeddings WHERE status = 'ready'
	`)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "vector_index", "all ready embeddings", err)
	}
	defer rows.Close()
	var out []EmbeddingRecord
	for rows.Next() {
		r, err := scanEmbeddingRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// DeleteEmbedding removes the embedding row for a memory.
func (db *DB) DeleteEmbedding(ctx context.Context, memoryID int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM embeddings WHERE memory_id = ?`, memoryID)
	if err != nil {
		return wrapWriteErr("vector_index", "delete embedding", err)
	}
	return nil
}

func scanEmbeddingRow(row *sql.Row) (*EmbeddingRecord, error) {
	var r EmbeddingRecord
	var blob []byte
	var model sql.NullString
	var dims sql.NullInt64
	var lastErr sql.NullString
	err := row.Scan(&r.MemoryID, &blob, &model, &dims, &r.ContentHash, &r.Status, &r.RetryCount, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "vector_index", "scan embedding", err)
	}
	r.Embedding = decodeEmbedding(blob)
	r.Model = model.String
	r.Dimensions = int(dims.Int64)
	r.LastError = lastErr.String
	return &r, nil
}

func scanEmbeddingRows(rows *sql.Rows) (*EmbeddingRecord, error) {
	var r EmbeddingRecord
	var blob []byte
	var model sql.NullString
	var dims sql.NullInt64
	err := rows.Scan(&r.MemoryID, &blob, &model, &dims, &r.ContentHash, &r.Status, &r.RetryCount, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "vector_index", "scan embedding", err)
	}
	r.Embedding = decodeEmbedding(blob)
	r.Model = model.String
	r.Dimensions = int(dims.Int64)
	return &r, nil
}
