package usecase

import (
	"log"
	"math"
	"strings"

	"github.com/cartlens/backend/internal/domain"
)

// Default scoring weights. Price fit dominates; textual relevance and the
// smaller signals refine ordering within the budget band.
const (
	defaultPriceWeight     = 0.40
	defaultBrandWeight     = 0.25
	defaultFeatureWeight   = 0.20
	defaultRatingWeight    = 0.10
	defaultSourceWeight    = 0.05
	defaultRelevanceWeight = 0.15

	// defaultMinCompliantScore floors budget-compliant candidates so they
	// always outrank excluded ones.
	defaultMinCompliantScore = 0.3
)

// Sub-score constants
const (
	noBudgetPriceScore = 0.5 // neutral price fit when no budget was stated

	ratingKnownScore = 0.5 // any scraped rating beats none
	ratingHighScore  = 1.0 // 4.0 and above
	highRatingCutoff = 4.0

	badgeCredit    = 0.1 // per quality badge found in the title
	badgeCreditCap = 0.5
)

// qualityBadges are source-reported quality markers worth a small additive
// bonus when they appear in a scraped title.
var qualityBadges = []string{"choice", "bestseller", "prime", "highly rated", "top rated"}

// categoryPreferences lists per-category keywords that mark a desirable
// listing. Hits contribute at the feature weight.
var categoryPreferences = map[domain.Category][]string{
	domain.CategoryElectronics: {"latest", "warranty", "certified", "genuine"},
	domain.CategoryClothing:    {"size", "material", "brand", "style"},
	domain.CategoryBooks:       {"edition", "author", "reviews", "bestseller"},
	domain.CategoryHome:        {"quality", "durable", "easy", "assembly"},
}

// ScoringWeights holds the relative weight of each scoring signal.
type ScoringWeights struct {
	PriceMatch   float64
	BrandMatch   float64
	FeatureMatch float64
	RatingBoost  float64
	SourceBonus  float64
	Relevance    float64
}

// ScoringConfig holds configuration for the candidate scorer
type ScoringConfig struct {
	Weights            ScoringWeights
	MinCompliantScore  float64
	EnableDebugLogging bool
}

// CandidateScorer computes a composite fit score for each candidate against
// a requirement. Scoring is deterministic and side-effect-free: the same
// (candidates, requirement) pair always yields the same scores.
type CandidateScorer struct {
	weights            ScoringWeights
	minCompliantScore  float64
	similarity         TextSimilarity
	enableDebugLogging bool
}

// NewCandidateScorer creates a new scorer with the given configuration.
// Missing weights fall back to the documented defaults; a nil similarity
// strategy degrades to keyword overlap.
func NewCandidateScorer(config ScoringConfig, similarity TextSimilarity) *CandidateScorer {
	weights := config.Weights
	if weights.PriceMatch <= 0 {
		weights.PriceMatch = defaultPriceWeight
	}
	if weights.BrandMatch <= 0 {
		weights.BrandMatch = defaultBrandWeight
	}
	if weights.FeatureMatch <= 0 {
		weights.FeatureMatch = defaultFeatureWeight
	}
	if weights.RatingBoost <= 0 {
		weights.RatingBoost = defaultRatingWeight
	}
	if weights.SourceBonus <= 0 {
		weights.SourceBonus = defaultSourceWeight
	}
	if weights.Relevance <= 0 {
		weights.Relevance = defaultRelevanceWeight
	}

	floor := config.MinCompliantScore
	if floor <= 0 {
		floor = defaultMinCompliantScore
	}

	if similarity == nil {
		similarity = &KeywordOverlapSimilarity{}
	}

	return &CandidateScorer{
		weights:            weights,
		minCompliantScore:  floor,
		similarity:         similarity,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Score populates Scores on every candidate and returns the same slice.
// Budget compliance is a hard filter: when a budget exists, out-of-budget or
// unknown prices force the final score to 0 no matter what the other signals
// say. Candidates are never dropped here; the ranker excludes zero scores.
func (s *CandidateScorer) Score(candidates []domain.Candidate, req domain.Requirement) []domain.Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	titles := make([]string, len(candidates))
	for i := range candidates {
		titles[i] = candidates[i].Title
	}

	queryText := req.ProductQuery
	if queryText == "" {
		queryText = req.RawQuery
	}

	relevance, err := s.similarity.Score(queryText, titles)
	if err != nil {
		// Similarity must never sink a scoring pass; relevance just
		// contributes nothing for this batch.
		if s.enableDebugLogging {
			log.Printf("[SCORE] Similarity unavailable (%v), relevance contributes nothing", err)
		}
		relevance = make([]float64, len(candidates))
	}

	for i := range candidates {
		s.scoreCandidate(&candidates[i], req, relevance[i])
	}

	return candidates
}

// scoreCandidate computes the weighted composite for a single candidate.
func (s *CandidateScorer) scoreCandidate(c *domain.Candidate, req domain.Requirement, relevance float64) {
	title := strings.ToLower(c.Title)

	priceScore := s.priceMatchScore(c.Price, req)

	var bonus float64
	if len(req.Brands) > 0 {
		bonus += brandMatchScore(title, req.Brands) * s.weights.BrandMatch
	}
	if len(req.Features) > 0 {
		bonus += featureMatchScore(title, req.Features) * s.weights.FeatureMatch
	}
	bonus += categoryMatchScore(title, req.Category) * s.weights.FeatureMatch
	bonus += ratingBoostScore(c.Rating) * s.weights.RatingBoost
	bonus += sourceBonusScore(title) * s.weights.SourceBonus
	bonus += relevance * s.weights.Relevance

	final := clamp(0, priceScore*s.weights.PriceMatch+bonus, 1)

	withinBudget := req.WithinBudget(c.Price)
	if final > 0 && withinBudget {
		final = math.Max(final, s.minCompliantScore)
	}
	if req.HasBudget() && !withinBudget {
		final = 0
	}

	c.Scores = domain.CandidateScores{
		Relevance:    relevance,
		FeatureBonus: bonus,
		Final:        final,
	}

	if s.enableDebugLogging {
		log.Printf("[SCORE] %q | price=%.2f priceScore=%.2f bonus=%.2f final=%.2f",
			c.Title, c.Price, priceScore, bonus, final)
	}
}

// priceMatchScore rates how well a price fits the stated budget.
// Unknown prices score 0. With no budget every known price gets a neutral
// 0.5. With only a cap the score falls off linearly toward the cap. With a
// full range the score peaks at the midpoint and reaches 0 at either edge.
// With only a floor, pricier listings rate higher up to twice the floor.
func (s *CandidateScorer) priceMatchScore(price float64, req domain.Requirement) float64 {
	if price <= 0 {
		return 0
	}
	if !req.HasBudget() {
		return noBudgetPriceScore
	}
	if !req.InBudgetRange(price) {
		return 0
	}

	switch {
	case req.BudgetMin != nil && req.BudgetMax != nil:
		mid := (*req.BudgetMin + *req.BudgetMax) / 2
		halfwidth := (*req.BudgetMax - *req.BudgetMin) / 2
		if halfwidth == 0 {
			return 1
		}
		return 1 - math.Abs(price-mid)/halfwidth
	case req.BudgetMax != nil:
		return 1 - price/(*req.BudgetMax)
	default:
		if *req.BudgetMin <= 0 {
			return noBudgetPriceScore
		}
		return math.Min(1, price/(*req.BudgetMin*2))
	}
}

// brandMatchScore returns 1 when any preferred brand appears in the
// lowercased title.
func brandMatchScore(title string, brands []string) float64 {
	for _, brand := range brands {
		if strings.Contains(title, strings.ToLower(brand)) {
			return 1
		}
	}
	return 0
}

// featureMatchScore returns the fraction of requested features present in
// the lowercased title.
func featureMatchScore(title string, features []string) float64 {
	if len(features) == 0 {
		return 0
	}

	matched := 0
	for _, feature := range features {
		if strings.Contains(title, strings.ToLower(feature)) {
			matched++
		}
	}
	return float64(matched) / float64(len(features))
}

// categoryMatchScore returns the fraction of category-preference keywords
// present in the lowercased title. Categories without preferences score 0.
func categoryMatchScore(title string, category domain.Category) float64 {
	keywords := categoryPreferences[category]
	if len(keywords) == 0 {
		return 0
	}

	matched := 0
	for _, keyword := range keywords {
		if strings.Contains(title, keyword) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

// ratingBoostScore rewards any known rating over none and high ratings over
// low ones.
func ratingBoostScore(rating float64) float64 {
	switch {
	case rating >= highRatingCutoff:
		return ratingHighScore
	case rating > 0:
		return ratingKnownScore
	default:
		return 0
	}
}

// sourceBonusScore credits quality badges found in the lowercased title,
// capped so badges can never dominate the composite.
func sourceBonusScore(title string) float64 {
	var score float64
	for _, badge := range qualityBadges {
		if strings.Contains(title, badge) {
			score += badgeCredit
		}
	}
	return math.Min(score, badgeCreditCap)
}

// clamp bounds v to [lo, hi].
func clamp(lo, v, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
