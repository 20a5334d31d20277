package hybrid

import (
	"math"
	"sort"

	"github.com/lazypower/engram/internal/store"
)

// RerankOptions configures the multiplicative utility adjustment applied to
// fused candidates (spec §4.6).
type RerankOptions struct {
	Strategy        RerankStrategy
	Now             int64 // unix millis; zero means "use real now" at call site
	RecencyHalfLife float64
	MinScore        float64
}

// Candidate is a fused retrieval result carrying enough of its Memory to
// rerank, plus the RRF score it arrived with and the utility it leaves with.
type Candidate struct {
	Memory  *store.Memory
	Fused   float64
	Utility float64
}

const millisPerDay = 86400000

// sourceTrust looks up the per-origin trust weight. Shared verbatim with the
// quality pipeline's source_trust component (spec §4.10), since both read
// the same Memory.Origin enum.
func sourceTrust(origin string) float64 {
	switch origin {
	case "organic":
		return 0.9
	case "seed":
		return 0.7
	case "extraction":
		return 0.6
	case "inference":
		return 0.5
	case "external":
		return 0.5
	default:
		return 0.5
	}
}

// seedMultiplier implements spec §9's (origin, status) demotion table for
// seeded "context seed" memories. The real ValidationStatus enum
// (unverified/verified/disputed/stale, store/migrations.go) does not carry
// literal "confirmed"/"validated"/"invalidated" values, so those names from
// spec §9's prose are mapped onto it here: confirmed -> verified, validated
// -> stale (a status that has been looked at but is due for re-confirmation,
// the closest existing state to "provisionally accepted"), invalidated ->
// disputed. This mapping is a documented decision, not a literal field.
func seedMultiplier(origin, status string) float64 {
	if origin != "seed" {
		if status == "verified" {
			return 1.0 // organic-confirmed
		}
		return 0.95 // organic
	}
	switch status {
	case "verified":
		return 0.90 // seed-confirmed
	case "stale":
		return 0.80 // seed-validated
	case "disputed":
		return 0.0 // seed-invalidated, excluded
	default:
		return 0.60 // seed-unverified
	}
}

func recencyBoost(lastAccessedAt *int64, now int64, halfLifeDays float64) float64 {
	if lastAccessedAt == nil || halfLifeDays <= 0 {
		return 1.0
	}
	ageDays := float64(now-*lastAccessedAt) / millisPerDay
	if ageDays < 0 {
		ageDays = 0
	}
	decay := math.Exp(-math.Ln2 * ageDays / halfLifeDays)
	return 0.5 + 0.5*decay
}

func accessBoost(accessCount int) float64 {
	x := math.Log1p(float64(accessCount))
	boost := 1 + 0.1*x
	if boost > 1.5 {
		boost = 1.5
	}
	return boost
}

func feedbackBoost(importance float64, pinned bool) float64 {
	b := 1 + 0.3*importance
	if pinned {
		b *= 1.2
	}
	return b
}

// Rerank applies the multiplicative utility formula of spec §4.6 to each
// fused candidate and re-sorts by descending utility. The rerank can only
// demote an archived memory: its recency, access and feedback boosts are
// capped at 1, so its utility never exceeds its RRF score.
func Rerank(fused []Fused, memories map[int64]*store.Memory, opts RerankOptions) []Candidate {
	now := opts.Now
	halfLife := opts.RecencyHalfLife
	if halfLife <= 0 {
		halfLife = 14
	}

	out := make([]Candidate, 0, len(fused))
	for _, f := range fused {
		m := memories[f.MemoryID]
		if m == nil {
			continue
		}
		utility := f.Score
		if opts.Strategy != RerankNone {
			recency := recencyBoost(m.LastAccessedAt, now, halfLife)
			access := accessBoost(m.AccessCount)
			feedback := feedbackBoost(m.Importance, m.Pinned)
			trust := sourceTrust(m.Origin)
			seed := seedMultiplier(m.Origin, m.ValidationStatus)

			if m.LifecycleState == "archived" {
				recency, access, feedback = capAt1(recency), capAt1(access), capAt1(feedback)
			}

			utility = f.Score * recency * access * feedback * trust * seed
		}
		out = append(out, Candidate{Memory: m, Fused: f.Score, Utility: utility})
	}

	sortByUtility(out)

	if opts.MinScore > 0 {
		filtered := out[:0]
		for _, c := range out {
			if c.Utility >= opts.MinScore {
				filtered = append(filtered, c)
			}
		}
		out = filtered
	}
	return out
}

func capAt1(x float64) float64 {
	if x > 1 {
		return 1
	}
	return x
}

func sortByUtility(c []Candidate) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Utility != c[j].Utility {
			return c[i].Utility > c[j].Utility
		}
		return c[i].Memory.ID < c[j].Memory.ID
	})
}
