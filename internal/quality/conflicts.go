package quality

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/lazypower/engram/internal/store"
)

// ConflictStore is the subset of *store.DB FindConflicts depends on.
type ConflictStore interface {
	Get(ctx context.Context, id int64) (*store.Memory, error)
	EntitiesForMemory(ctx context.Context, memoryID int64) ([]store.MemoryEntity, error)
	MemoriesForEntity(ctx context.Context, entityID int64) ([]int64, error)
	RecordConflict(ctx context.Context, memoryAID, memoryBID int64, kind string, severity float64) (*store.MemoryConflict, error)
}

// ConflictCandidate is one memory pair flagged as possibly conflicting.
type ConflictCandidate struct {
	MemoryAID int64
	MemoryBID int64
	Kind      string
	Severity  float64
}

// Both cues are stored under the schema's "contradiction" conflict kind and
// are told apart by severity only.
const (
	kindMetadataContradiction = "contradiction"
	kindEntityOverlap         = "contradiction"
)

// FindConflicts looks for memories that share entities and then checks
// their metadata for directly contradictory boolean facts (same key,
// opposite value) — a cheap, high-precision signal per spec §4.10.
// Co-occurrence without a metadata contradiction is recorded at low
// severity (0.3) as a weaker "worth reviewing" signal; a contradiction found
// is recorded at high severity (0.8).
func FindConflicts(ctx context.Context, st ConflictStore, memoryID int64) ([]ConflictCandidate, error) {
	m, err := st.Get(ctx, memoryID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}

	entities, err := st.EntitiesForMemory(ctx, memoryID)
	if err != nil {
		return nil, err
	}

	coOccurrence := make(map[int64]int)
	for _, e := range entities {
		others, err := st.MemoriesForEntity(ctx, e.EntityID)
		if err != nil {
			return nil, err
		}
		for _, otherID := range others {
			if otherID == memoryID {
				continue
			}
			coOccurrence[otherID]++
		}
	}

	var candidates []ConflictCandidate
	for otherID := range coOccurrence {
		other, err := st.Get(ctx, otherID)
		if err != nil {
			return nil, err
		}
		if other == nil {
			continue
		}

		kind := kindEntityOverlap
		severity := 0.3
		if contradicts(m.Metadata, other.Metadata) {
			kind = kindMetadataContradiction
			severity = 0.8
		}

		a, b := memoryID, otherID
		if a > b {
			a, b = b, a
		}
		if _, err := st.RecordConflict(ctx, a, b, kind, severity); err != nil {
			return nil, err
		}
		candidates = append(candidates, ConflictCandidate{MemoryAID: a, MemoryBID: b, Kind: kind, Severity: severity})
	}
	return candidates, nil
}

// contradicts reports whether a and b's JSON metadata share a boolean key
// with opposite values, a strong signal of a factual conflict.
func contradicts(aJSON, bJSON string) bool {
	a := gjson.Parse(aJSON)
	b := gjson.Parse(bJSON)
	contradictsAny := false
	a.ForEach(func(key, aVal gjson.Result) bool {
		if aVal.Type != gjson.True && aVal.Type != gjson.False {
			return true
		}
		bVal := b.Get(key.String())
		if !bVal.Exists() {
			return true
		}
		if (bVal.Type == gjson.True || bVal.Type == gjson.False) && bVal.Bool() != aVal.Bool() {
			contradictsAny = true
			return false
		}
		return true
	})
	return contradictsAny
}
