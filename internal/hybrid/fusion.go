package hybrid

import "sort"

// ChannelHits is one channel's ranked result list, best match first. The
// channel's own scores are discarded by RRF — only rank position matters.
type ChannelHits struct {
	Channel string
	IDs     []int64
}

// Fused is one document's combined standing after RRF.
type Fused struct {
	MemoryID int64
	Score    float64
}

// DefaultRRFK is the k constant from spec §4.6's RRF formula.
const DefaultRRFK = 60

// FuseRRF combines ranked channel result lists with Reciprocal Rank Fusion:
// RRF(d) = sum over channels of 1/(k+rank), where rank is 1-based. A
// document absent from a channel contributes zero from it. Candidates are
// the union across all channels, sorted by descending RRF score, tie-broken
// by ascending memory id for determinism.
func FuseRRF(channels []ChannelHits, k int) []Fused {
	if k <= 0 {
		k = DefaultRRFK
	}
	scores := make(map[int64]float64)
	order := make([]int64, 0)
	seen := make(map[int64]bool)
	for _, ch := range channels {
		for i, id := range ch.IDs {
			rank := i + 1
			scores[id] += 1.0 / float64(k+rank)
			if !seen[id] {
				seen[id] = true
				order = append(order, id)
			}
		}
	}
	fused := make([]Fused, len(order))
	for i, id := range order {
		fused[i] = Fused{MemoryID: id, Score: scores[id]}
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].MemoryID < fused[j].MemoryID
	})
	return fused
}
