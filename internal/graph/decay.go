package graph

import (
	"math"

	"github.com/lazypower/engram/internal/store"
)

// decayFloor is the confidence level below which an auto-sourced edge is
// considered decayed for traversal purposes (spec §4.7 gates traversal on
// "decayed-below-floor" edges but does not name a floor value; 0.05 mirrors
// the negligible-contribution cutoffs already used elsewhere, e.g. hybrid
// fusion's min-score gate).
const decayFloor = 0.05

const millisPerDay = 24 * 60 * 60 * 1000

// DecayedConfidence applies spec.md §4.7's exponential decay to auto-sourced,
// unpinned edges: confidence * exp(-ln2 * age_days / half_life_days). Pinned
// edges and user-sourced edges never decay (grounded on
// original_source/src/storage/confidence.rs's pinned exemption).
func DecayedConfidence(edge store.CrossRef, now int64, halfLifeDays float64) float64 {
	if edge.Pinned || edge.Source != "auto" {
		return edge.Confidence
	}
	if halfLifeDays <= 0 {
		return edge.Confidence
	}
	ageDays := float64(now-edge.CreatedAt) / millisPerDay
	if ageDays <= 0 {
		return edge.Confidence
	}
	return edge.Confidence * math.Exp(-math.Ln2*ageDays/halfLifeDays)
}

// IsDecayed reports whether edge's current decayed confidence has fallen
// below decayFloor, making it excluded from traversal unless includeDecayed.
func IsDecayed(edge store.CrossRef, now int64, halfLifeDays float64) bool {
	return DecayedConfidence(edge, now, halfLifeDays) < decayFloor
}
