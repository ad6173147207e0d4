package domain

import (
	"fmt"
	"time"
)

// Candidate represents a single scraped product record being evaluated
// against a requirement. Price 0 means unknown/unavailable; Rating 0 means
// no rating was scraped.
type Candidate struct {
	Title     string          `json:"title"`
	Price     float64         `json:"price"`
	Rating    float64         `json:"rating,omitempty"` // 0-5
	SourceRef string          `json:"sourceRef,omitempty"`
	Scores    CandidateScores `json:"scores"`
}

// CandidateScores holds the computed scoring breakdown for a candidate.
// Recomputed on every scoring pass, never persisted across queries.
type CandidateScores struct {
	Relevance    float64 `json:"relevance"`    // textual similarity to the query, 0-1
	FeatureBonus float64 `json:"featureBonus"` // weighted non-price contributions
	Final        float64 `json:"final"`        // composite score, 0-1
}

// Strategy selects the ordering applied by the ranker.
type Strategy string

const (
	// StrategyRelevance orders by descending composite score.
	StrategyRelevance Strategy = "relevance"
	// StrategyPrice orders by ascending price; unknown prices sort last.
	StrategyPrice Strategy = "price"
	// StrategyRating orders by descending rating, then ascending price.
	StrategyRating Strategy = "rating"
)

// ParseStrategy validates a strategy name from a request. An empty name
// selects the relevance strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return StrategyRelevance, nil
	case StrategyRelevance, StrategyPrice, StrategyRating:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("%w: unknown strategy %q", ErrInvalidRequest, s)
	}
}

// SearchStats summarizes the candidate set behind a satisfaction verdict.
type SearchStats struct {
	Total           int     `json:"total"`
	BudgetCompliant int     `json:"budgetCompliant"`
	AvgPrice        float64 `json:"avgPrice"`
}

// SatisfactionResult is the final output of the analysis pipeline: whether
// the ranked candidates satisfy the requirement, the best pick, diverse
// alternatives and human-readable guidance for the caller.
type SatisfactionResult struct {
	AnalysisID      string      `json:"analysisId"`
	Satisfied       bool        `json:"satisfied"`
	Score           float64     `json:"score"` // 0-1
	Reason          string      `json:"reason"`
	Best            *Candidate  `json:"best,omitempty"`
	Alternatives    []Candidate `json:"alternatives"`
	Recommendations []string    `json:"recommendations"`
	Explanations    []string    `json:"explanations,omitempty"`
	Stats           SearchStats `json:"stats"`
	EvaluatedAt     time.Time   `json:"evaluatedAt"`
}
