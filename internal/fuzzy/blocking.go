package fuzzy

import (
	"context"
	"fmt"
)

// TrigramNeighbors returns the distinct memory ids sharing at least one
// trigram with memoryID's own indexed fields, excluding memoryID itself.
// Used as a cheap blocking step before an O(n^2) similarity pass (spec
// §4.10: duplicate detection reuses the same trigram index §4.5 builds).
func TrigramNeighbors(ctx context.Context, q Queryer, memoryID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT DISTINCT memory_id FROM fuzzy_trigrams
		WHERE memory_id != ? AND trigram IN (
			SELECT trigram FROM fuzzy_trigrams WHERE memory_id = ?
		)
	`, memoryID, memoryID)
	if err != nil {
		return nil, fmt.Errorf("trigram neighbors: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan trigram neighbor: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
