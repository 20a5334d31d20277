package store

import (
	"context"
	"database/sql"

	"github.com/lazypower/engram/internal/apperr"
)

// CrossRef is a directed typed edge between two memories, per spec §3.
type CrossRef struct {
	ID         int64
	FromID     int64
	ToID       int64
	EdgeType   string
	Score      float64
	Confidence float64
	Strength   float64
	Source     string
	Pinned     bool
	ValidFrom  *int64
	ValidTo    *int64
	Metadata   string
	CreatedAt  int64
	UpdatedAt  int64
}

// LinkParams describes an edge to upsert.
type LinkParams struct {
	FromID     int64
	ToID       int64
	EdgeType   string
	Score      float64
	Confidence float64
	Strength   float64
	Source     string
	Pinned     bool
	Metadata   map[string]any
}

// Link upserts an edge keyed by (from, to, edge_type), per spec §4.7.
func (db *DB) Link(ctx context.Context, p LinkParams) (*CrossRef, error) {
	now := db.Clock.Now().UnixMilli()
	metaJSON, err := marshalMetadata(p.Metadata)
	if err != nil {
		return nil, apperr.New(apperr.InvalidInput, "link", "invalid metadata: "+err.Error())
	}
	if p.Score == 0 {
		p.Score = 1.0
	}
	if p.Confidence == 0 {
		p.Confidence = 1.0
	}
	if p.Strength == 0 {
		p.Strength = 1.0
	}
	source := orDefault(p.Source, "user")

	var edge *CrossRef
	err = db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var fromOK, toOK bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM memories WHERE id = ? AND deleted = 0)`, p.FromID).Scan(&fromOK); err != nil {
			return apperr.Wrap(apperr.Storage, "link", "check from_id", err)
		}
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM memories WHERE id = ? AND deleted = 0)`, p.ToID).Scan(&toOK); err != nil {
			return apperr.Wrap(apperr.Storage, "link", "check to_id", err)
		}
		if !fromOK || !toOK {
			return apperr.NotFoundf("link", "from_id %d or to_id %d does not reference an existing memory", p.FromID, p.ToID)
		}

		_, err := tx.Exec(`
			INSERT INTO memory_cross_refs (from_id, to_id, edge_type, score, confidence, strength, source, pinned, metadata, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (from_id, to_id, edge_type) DO UPDATE SET
				score = excluded.score, confidence = excluded.confidence, strength = excluded.strength,
				source = excluded.source, pinned = excluded.pinned, metadata = excluded.metadata, updated_at = excluded.updated_at
		`, p.FromID, p.ToID, p.EdgeType, p.Score, p.Confidence, p.Strength, source, boolToInt(p.Pinned), metaJSON, now, now)
		if err != nil {
			return wrapWriteErr("link", "upsert edge", err)
		}
		if err := appendEventTx(tx, "linked", &p.FromID, nil, map[string]any{"to_id": p.ToID, "edge_type": p.EdgeType}, now); err != nil {
			return err
		}
		row := tx.QueryRow(`
			SELECT id, from_id, to_id, edge_type, score, confidence, strength, source, pinned, valid_from, valid_to, metadata, created_at, updated_at
			FROM memory_cross_refs WHERE from_id = ? AND to_id = ? AND edge_type = ?
		`, p.FromID, p.ToID, p.EdgeType)
		var scanErr error
		edge, scanErr = scanCrossRef(row)
		return scanErr
	})
	if err != nil {
		return nil, err
	}
	return edge, nil
}

// Unlink deletes an edge. If edgeType is empty, all edges between from and to
// are removed (typed deletion is the default path per spec §4.7).
func (db *DB) Unlink(ctx context.Context, fromID, toID int64, edgeType string) (int, error) {
	now := db.Clock.Now().UnixMilli()
	var affected int
	err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var res sql.Result
		var err error
		if edgeType == "" {
			res, err = tx.Exec(`DELETE FROM memory_cross_refs WHERE from_id = ? AND to_id = ?`, fromID, toID)
		} else {
			res, err = tx.Exec(`DELETE FROM memory_cross_refs WHERE from_id = ? AND to_id = ? AND edge_type = ?`, fromID, toID, edgeType)
		}
		if err != nil {
			return wrapWriteErr("unlink", "delete edge", err)
		}
		n, _ := res.RowsAffected()
		affected = int(n)
		if affected == 0 {
			return nil
		}
		return appendEventTx(tx, "unlinked", &fromID, nil, map[string]any{"to_id": toID, "edge_type": edgeType}, now)
	})
	return affected, err
}

// EdgesFrom returns outgoing edges from a memory, optionally filtered by
// edge type and minimum confidence.
func (db *DB) EdgesFrom(ctx context.Context, id int64, edgeTypes []string, minConfidence float64) ([]CrossRef, error) {
	return db.queryEdges(ctx, "from_id", id, edgeTypes, minConfidence)
}

// EdgesTo returns incoming edges to a memory.
func (db *DB) EdgesTo(ctx context.Context, id int64, edgeTypes []string, minConfidence float64) ([]CrossRef, error) {
	return db.queryEdges(ctx, "to_id", id, edgeTypes, minConfidence)
}

func (db *DB) queryEdges(ctx context.Context, col string, id int64, edgeTypes []string, minConfidence float64) ([]CrossRef, error) {
	query := `
		SELECT id, from_id, to_id, edge_type, score, confidence, strength, source, pinned, valid_from, valid_to, metadata, created_at, updated_at
		FROM memory_cross_refs WHERE ` + col + ` = ? AND confidence >= ?
	`
	args := []any{id, minConfidence}
	if len(edgeTypes) > 0 {
		query += ` AND edge_type IN (` + placeholders(len(edgeTypes)) + `)`
		for _, et := range edgeTypes {
			args = append(args, et)
		}
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "edges", "query edges", err)
	}
	defer rows.Close()

	var edges []CrossRef
	for rows.Next() {
		e, err := scanCrossRefRows(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, *e)
	}
	return edges, rows.Err()
}

// AllActiveEdges returns every edge, used by the graph engine to build an
// in-memory adjacency structure for BFS/shortest-path over a bounded corpus.
func (db *DB) AllActiveEdges(ctx context.Context) ([]CrossRef, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, from_id, to_id, edge_type, score, confidence, strength, source, pinned, valid_from, valid_to, metadata, created_at, updated_at
		FROM memory_cross_refs
	`)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "edges", "query all edges", err)
	}
	defer rows.Close()
	var edges []CrossRef
	for rows.Next() {
		e, err := scanCrossRefRows(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, *e)
	}
	return edges, rows.Err()
}

// UpdateEdgeConfidence persists a recomputed confidence value (used by the
// auto-source confidence-decay job in the graph engine).
func (db *DB) UpdateEdgeConfidence(ctx context.Context, edgeID int64, confidence float64) error {
	_, err := db.ExecContext(ctx, `UPDATE memory_cross_refs SET confidence = ? WHERE id = ?`, confidence, edgeID)
	if err != nil {
		return wrapWriteErr("edges", "update confidence", err)
	}
	return nil
}

func scanCrossRef(row *sql.Row) (*CrossRef, error) {
	var e CrossRef
	var validFrom, validTo sql.NullInt64
	var pinned int
	err := row.Scan(&e.ID, &e.FromID, &e.ToID, &e.EdgeType, &e.Score, &e.Confidence, &e.Strength,
		&e.Source, &pinned, &validFrom, &validTo, &e.Metadata, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "edges", "scan edge", err)
	}
	e.Pinned = pinned != 0
	if validFrom.Valid {
		e.ValidFrom = &validFrom.Int64
	}
	if validTo.Valid {
		e.ValidTo = &validTo.Int64
	}
	return &e, nil
}

func scanCrossRefRows(rows *sql.Rows) (*CrossRef, error) {
	var e CrossRef
	var validFrom, validTo sql.NullInt64
	var pinned int
	err := rows.Scan(&e.ID, &e.FromID, &e.ToID, &e.EdgeType, &e.Score, &e.Confidence, &e.Strength,
		&e.Source, &pinned, &validFrom, &validTo, &e.Metadata, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "edges", "scan edge", err)
	}
	e.Pinned = pinned != 0
	if validFrom.Valid {
		e.ValidFrom = &validFrom.Int64
	}
	if validTo.Valid {
		e.ValidTo = &validTo.Int64
	}
	return &e, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	out := "?"
	for i := 1; i < n; i++ {
		out += ",?"
	}
	return out
}
