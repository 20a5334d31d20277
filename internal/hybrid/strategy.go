// Package hybrid dispatches search across the lexical, vector, and fuzzy
// channels, fuses the ranked lists with Reciprocal Rank Fusion, and applies
// the multi-signal rerank that turns raw retrieval scores into a ranking
// that accounts for recency, access, feedback, source trust, and seed
// provenance.
package hybrid

import (
	"strings"

	"github.com/lazypower/engram/internal/lexical"
)

// Strategy selects which retrieval channels a search dispatches to.
type Strategy string

const (
	StrategyAuto     Strategy = "auto"
	StrategyKeyword  Strategy = "keyword"
	StrategySemantic Strategy = "semantic"
	StrategyHybrid   Strategy = "hybrid"
)

// RerankStrategy selects how fused candidates are reordered before return.
type RerankStrategy string

const (
	RerankNone        RerankStrategy = "none"
	RerankHeuristic   RerankStrategy = "heuristic"
	RerankMultiSignal RerankStrategy = "multi_signal"
)

const (
	shortQueryMaxTokens = 2
	longQueryMinTokens  = 8
)

// SelectStrategy resolves Strategy: a non-auto requested strategy passes
// through unchanged; auto applies the token-count/quote/field-operator rules.
func SelectStrategy(query string, requested Strategy) Strategy {
	if requested != "" && requested != StrategyAuto {
		return requested
	}
	if lexical.HasOperators(query) {
		return StrategyKeyword
	}
	n := len(strings.Fields(query))
	switch {
	case n <= shortQueryMaxTokens:
		return StrategyKeyword
	case n >= longQueryMinTokens:
		return StrategySemantic
	default:
		return StrategyHybrid
	}
}
