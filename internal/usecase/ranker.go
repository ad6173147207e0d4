package usecase

import (
	"log"
	"math"
	"sort"

	"github.com/cartlens/backend/internal/domain"
)

// Top-K limits
const (
	defaultTopKLimit = 5  // when the caller asks for nothing specific
	maxTopKLimit     = 20 // scraper batches rarely exceed this anyway
)

// RankerConfig holds configuration for the ranker
type RankerConfig struct {
	DefaultTopK        int
	MaxTopK            int
	EnableDebugLogging bool
}

// Ranker orders scored candidates by a selectable strategy and truncates the
// result to the top K entries. All sorts are stable, so equal keys keep
// their prior relative order.
type Ranker struct {
	defaultTopK        int
	maxTopK            int
	enableDebugLogging bool
}

// NewRanker creates a new ranker with the given configuration
func NewRanker(config RankerConfig) *Ranker {
	defaultTopK := config.DefaultTopK
	if defaultTopK <= 0 {
		defaultTopK = defaultTopKLimit
	}

	maxTopK := config.MaxTopK
	if maxTopK <= 0 {
		maxTopK = maxTopKLimit
	}

	return &Ranker{
		defaultTopK:        defaultTopK,
		maxTopK:            maxTopK,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Rank orders candidates by strategy and returns at most topK of them.
// Zero-score candidates (budget hard-filter victims) are excluded under
// every strategy, unless nothing scored positive; in that degenerate case
// the full list is ranked unfiltered so the caller always has something to
// show. The input slice is left untouched.
func (r *Ranker) Rank(candidates []domain.Candidate, strategy domain.Strategy, topK int) []domain.Candidate {
	if len(candidates) == 0 {
		return []domain.Candidate{}
	}

	pool := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Scores.Final > 0 {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		if r.enableDebugLogging {
			log.Printf("[RANK] No positive scores among %d candidates, ranking unfiltered", len(candidates))
		}
		pool = append(pool, candidates...)
	}

	switch strategy {
	case domain.StrategyPrice:
		sort.SliceStable(pool, func(i, j int) bool {
			return priceSortKey(pool[i].Price) < priceSortKey(pool[j].Price)
		})
	case domain.StrategyRating:
		sort.SliceStable(pool, func(i, j int) bool {
			if pool[i].Rating != pool[j].Rating {
				return pool[i].Rating > pool[j].Rating
			}
			return priceSortKey(pool[i].Price) < priceSortKey(pool[j].Price)
		})
	default:
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].Scores.Final > pool[j].Scores.Final
		})
	}

	limit := r.normalizeTopK(topK)
	if len(pool) > limit {
		pool = pool[:limit]
	}

	if r.enableDebugLogging && len(pool) > 0 {
		log.Printf("[RANK] Strategy=%s top choice: %q (score=%.2f)", strategy, pool[0].Title, pool[0].Scores.Final)
	}

	return pool
}

// normalizeTopK applies the configured default and ceiling to a requested K.
func (r *Ranker) normalizeTopK(topK int) int {
	if topK <= 0 {
		return r.defaultTopK
	}
	if topK > r.maxTopK {
		return r.maxTopK
	}
	return topK
}

// priceSortKey pushes unknown prices to the end of ascending price order.
func priceSortKey(price float64) float64 {
	if price <= 0 {
		return math.MaxFloat64
	}
	return price
}
