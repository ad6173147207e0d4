package usecase

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cartlens/backend/internal/domain"
)

// Verdict thresholds and score shaping
const (
	defaultExcellentThreshold = 0.7
	defaultGoodThreshold      = 0.5

	// baseScoreCap limits how much sheer result count can contribute;
	// ten results saturate the quantity signal.
	baseScoreCap     = 0.8
	baseScoreDivisor = 10.0

	maxAlternatives = 3

	// weakCoverageCutoff flags a result set where fewer than half the
	// candidates carry any requested feature.
	weakCoverageCutoff = 0.5

	// relevanceExplainCutoff marks a candidate as a good textual match
	// when explaining picks.
	relevanceExplainCutoff = 0.3
)

// knownBrands marks titles that carry a recognizable brand name when
// explaining picks. Wider than the query brand vocabulary on purpose: the
// scraper surfaces marketplace brands a query rarely names.
var knownBrands = []string{
	"sony", "jbl", "boat", "realme", "samsung", "apple", "oneplus", "mi",
	"redmi", "poco", "oppo", "vivo", "noise", "zebronics", "boult", "ptron",
	"fire-boltt", "amazfit", "fossil",
}

// SatisfactionConfig holds configuration for the satisfaction evaluator
type SatisfactionConfig struct {
	ExcellentThreshold float64
	GoodThreshold      float64
	EnableDebugLogging bool
}

// SatisfactionEvaluator decides whether a ranked candidate set adequately
// satisfies a requirement, picks the best candidate plus price-diverse
// alternatives, and generates human-readable guidance. Pure function of its
// inputs apart from the stamped analysis id and timestamp.
type SatisfactionEvaluator struct {
	excellentThreshold float64
	goodThreshold      float64
	enableDebugLogging bool
}

// NewSatisfactionEvaluator creates a new evaluator with the given configuration
func NewSatisfactionEvaluator(config SatisfactionConfig) *SatisfactionEvaluator {
	excellent := config.ExcellentThreshold
	if excellent <= 0 {
		excellent = defaultExcellentThreshold
	}

	good := config.GoodThreshold
	if good <= 0 {
		good = defaultGoodThreshold
	}

	return &SatisfactionEvaluator{
		excellentThreshold: excellent,
		goodThreshold:      good,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Evaluate turns a ranked candidate list into a satisfaction verdict.
// The satisfaction score averages a quantity signal (more results up to ten)
// with a budget-compliance ratio. An empty list yields the defined
// unsatisfied result, never an error.
func (e *SatisfactionEvaluator) Evaluate(ranked []domain.Candidate, req domain.Requirement) domain.SatisfactionResult {
	result := domain.SatisfactionResult{
		AnalysisID:      uuid.New().String(),
		Alternatives:    []domain.Candidate{},
		Recommendations: []string{},
		EvaluatedAt:     time.Now().UTC(),
	}

	if len(ranked) == 0 {
		result.Reason = "No products found matching your requirements"
		return result
	}

	total := len(ranked)
	compliant := countBudgetCompliant(ranked, req)

	baseScore := math.Min(baseScoreCap, float64(total)/baseScoreDivisor)
	budgetScore := float64(compliant) / float64(total)
	result.Score = (baseScore + budgetScore) / 2

	switch {
	case result.Score >= e.excellentThreshold:
		result.Satisfied = true
		result.Reason = fmt.Sprintf("Excellent match! Found %d products, %d within budget", total, compliant)
	case result.Score >= e.goodThreshold:
		result.Satisfied = true
		result.Reason = fmt.Sprintf("Good selection found: %d products, %d within budget range", total, compliant)
	default:
		result.Reason = fmt.Sprintf("Limited options: %d products found, consider adjusting budget", total)
	}

	best := ranked[0]
	result.Best = &best
	result.Alternatives = selectDiverseAlternatives(ranked[1:])
	result.Recommendations = e.buildRecommendations(ranked, req)
	result.Explanations = buildExplanations(best, result.Alternatives, req)

	var priceSum float64
	for _, c := range ranked {
		priceSum += c.Price
	}
	result.Stats = domain.SearchStats{
		Total:           total,
		BudgetCompliant: compliant,
		AvgPrice:        priceSum / float64(total),
	}

	if e.enableDebugLogging {
		log.Printf("[SATISFY] score=%.2f satisfied=%t total=%d compliant=%d alternatives=%d",
			result.Score, result.Satisfied, total, compliant, len(result.Alternatives))
	}

	return result
}

// selectDiverseAlternatives picks up to three runners-up at distinct price
// tiers: the cheapest, a mid-priced entry when more than two remain, and the
// most expensive. Duplicates by title and price are skipped so the caller
// never sees the same listing twice.
func selectDiverseAlternatives(remainder []domain.Candidate) []domain.Candidate {
	if len(remainder) == 0 {
		return []domain.Candidate{}
	}

	byPrice := make([]domain.Candidate, len(remainder))
	copy(byPrice, remainder)
	sort.SliceStable(byPrice, func(i, j int) bool {
		return byPrice[i].Price < byPrice[j].Price
	})

	picks := []domain.Candidate{byPrice[0]}
	if len(byPrice) > 2 {
		mid := byPrice[len(byPrice)/2]
		if !containsListing(picks, mid) {
			picks = append(picks, mid)
		}
	}
	if len(byPrice) > 1 && len(picks) < maxAlternatives {
		high := byPrice[len(byPrice)-1]
		if !containsListing(picks, high) {
			picks = append(picks, high)
		}
	}

	if len(picks) > maxAlternatives {
		picks = picks[:maxAlternatives]
	}
	return picks
}

// buildRecommendations generates actionable hints independent of the
// satisfied verdict: budget pressure, weak feature coverage and missing
// preferred brands.
func (e *SatisfactionEvaluator) buildRecommendations(ranked []domain.Candidate, req domain.Requirement) []string {
	recommendations := []string{}

	var priceSum float64
	for _, c := range ranked {
		priceSum += c.Price
	}
	avgPrice := priceSum / float64(len(ranked))

	if req.BudgetMax != nil && avgPrice > *req.BudgetMax {
		recommendations = append(recommendations,
			fmt.Sprintf("Consider increasing budget - average price is ₹%.0f", avgPrice))
	} else if req.BudgetMin != nil && avgPrice < *req.BudgetMin {
		recommendations = append(recommendations,
			"Great value options available within your budget")
	}

	if len(req.Features) > 0 && featureCoverage(ranked, req.Features) < weakCoverageCutoff {
		recommendations = append(recommendations,
			"Consider adjusting feature requirements for more options")
	}

	if len(req.Brands) > 0 && !brandAvailable(ranked, req.Brands) {
		recommendations = append(recommendations,
			"Preferred brands not found - consider alternative brands")
	}

	return recommendations
}

// buildExplanations produces one "Recommended because" line per pick,
// index-aligned with the best candidate followed by the alternatives.
func buildExplanations(best domain.Candidate, alternatives []domain.Candidate, req domain.Requirement) []string {
	explanations := make([]string, 0, 1+len(alternatives))
	explanations = append(explanations, explainCandidate(best, req))
	for _, c := range alternatives {
		explanations = append(explanations, explainCandidate(c, req))
	}
	return explanations
}

// explainCandidate builds the human-readable justification for one pick.
func explainCandidate(c domain.Candidate, req domain.Requirement) string {
	title := strings.ToLower(c.Title)
	var reasons []string

	if hasKnownBrand(title) {
		reasons = append(reasons, "trusted brand")
	}

	switch {
	case c.Rating >= highRatingCutoff:
		reasons = append(reasons, fmt.Sprintf("high rating (%.1f★)", c.Rating))
	case c.Rating > 0:
		reasons = append(reasons, fmt.Sprintf("rated %.1f★", c.Rating))
	}

	if c.Scores.Relevance > relevanceExplainCutoff {
		reasons = append(reasons, "good match for your search")
	}

	if strings.Contains(title, "wireless") || strings.Contains(title, "bluetooth") {
		reasons = append(reasons, "wireless/bluetooth")
	}

	if req.HasBudget() && req.WithinBudget(c.Price) {
		reasons = append(reasons, "within your budget")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "good value option")
	}

	return "Recommended because: " + strings.Join(reasons, ", ")
}

// countBudgetCompliant counts candidates inside the stated bounds. Unknown
// prices count as compliant when no lower bound exists, which keeps the
// satisfaction ratio lenient compared to the scorer's hard filter.
func countBudgetCompliant(candidates []domain.Candidate, req domain.Requirement) int {
	count := 0
	for _, c := range candidates {
		if req.InBudgetRange(c.Price) {
			count++
		}
	}
	return count
}

// featureCoverage returns the fraction of candidates whose title carries at
// least one requested feature.
func featureCoverage(candidates []domain.Candidate, features []string) float64 {
	if len(features) == 0 {
		return 1.0
	}

	matches := 0
	for _, c := range candidates {
		title := strings.ToLower(c.Title)
		for _, feature := range features {
			if strings.Contains(title, strings.ToLower(feature)) {
				matches++
				break
			}
		}
	}
	return float64(matches) / float64(len(candidates))
}

// brandAvailable reports whether any candidate title carries any preferred
// brand.
func brandAvailable(candidates []domain.Candidate, brands []string) bool {
	for _, c := range candidates {
		title := strings.ToLower(c.Title)
		for _, brand := range brands {
			if strings.Contains(title, strings.ToLower(brand)) {
				return true
			}
		}
	}
	return false
}

// hasKnownBrand reports whether a lowercased title contains a recognizable
// brand as a standalone word.
func hasKnownBrand(title string) bool {
	words := strings.Fields(title)
	for _, w := range words {
		w = strings.Trim(w, ",.()[]|:;!")
		for _, brand := range knownBrands {
			if w == brand {
				return true
			}
		}
	}
	return false
}

// containsListing reports whether an equal listing (same title and price)
// was already picked.
func containsListing(picks []domain.Candidate, c domain.Candidate) bool {
	for _, p := range picks {
		if p.Title == c.Title && p.Price == c.Price {
			return true
		}
	}
	return false
}
