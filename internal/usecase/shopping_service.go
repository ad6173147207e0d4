package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/cartlens/backend/internal/domain"
	"github.com/cartlens/backend/internal/infrastructure/scrapefeed"
)

// nonAlphanumericPattern strips cache-key-hostile characters.
var nonAlphanumericPattern = regexp.MustCompile(`[^a-z0-9\s]`)

// Service defaults
const (
	defaultFeedCacheTTL   = 15 * time.Minute // scraped listings go stale fast
	defaultFeedFetchLimit = 20
)

// ShoppingServiceConfig holds configuration for the shopping analysis service
type ShoppingServiceConfig struct {
	Scoring            ScoringConfig
	Ranking            RankerConfig
	Satisfaction       SatisfactionConfig
	SimilarityMode     string
	CacheTTL           time.Duration
	FeedFetchLimit     int
	DefaultStrategy    domain.Strategy
	EnableDebugLogging bool
}

// AnalyzeOptions carries per-request knobs and pre-parsed overrides from the
// caller. Explicitly supplied budget bounds take precedence over whatever
// the extractor parses out of the query text.
type AnalyzeOptions struct {
	BudgetMin *float64
	BudgetMax *float64
	Strategy  domain.Strategy
	TopK      int
}

// ShoppingService runs the analysis pipeline: requirement extraction,
// candidate scoring, ranking and satisfaction evaluation. It also glues the
// pipeline to the scrape feed with caching for callers that bring no
// candidates of their own.
type ShoppingService struct {
	cache              domain.CacheRepository
	feedClient         domain.FeedClient
	extractor          *RequirementExtractor
	scorer             *CandidateScorer
	ranker             *Ranker
	evaluator          *SatisfactionEvaluator
	cacheTTL           time.Duration
	feedFetchLimit     int
	defaultStrategy    domain.Strategy
	enableDebugLogging bool
}

// NewShoppingService creates a new shopping service with dependencies.
// The cache is optional; nil disables feed-response caching.
func NewShoppingService(
	cache domain.CacheRepository,
	feedClient domain.FeedClient,
	config ShoppingServiceConfig,
) *ShoppingService {
	similarity := NewTextSimilarity(config.SimilarityMode, config.EnableDebugLogging)

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = defaultFeedCacheTTL
	}

	fetchLimit := config.FeedFetchLimit
	if fetchLimit <= 0 {
		fetchLimit = defaultFeedFetchLimit
	}

	strategy := config.DefaultStrategy
	if strategy == "" {
		strategy = domain.StrategyRelevance
	}

	return &ShoppingService{
		cache:              cache,
		feedClient:         feedClient,
		extractor:          NewRequirementExtractor(config.EnableDebugLogging),
		scorer:             NewCandidateScorer(config.Scoring, similarity),
		ranker:             NewRanker(config.Ranking),
		evaluator:          NewSatisfactionEvaluator(config.Satisfaction),
		cacheTTL:           cacheTTL,
		feedFetchLimit:     fetchLimit,
		defaultStrategy:    strategy,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// ParseRequirement extracts the structured requirement for a raw query.
func (s *ShoppingService) ParseRequirement(query string) (domain.Requirement, error) {
	if strings.TrimSpace(query) == "" {
		return domain.Requirement{}, domain.ErrEmptyQuery
	}
	return s.extractor.Extract(query), nil
}

// Analyze runs the pipeline over caller-supplied candidates.
// Flow: extract requirement -> apply overrides -> score -> rank -> evaluate
func (s *ShoppingService) Analyze(
	ctx context.Context,
	query string,
	candidates []domain.Candidate,
	opts AnalyzeOptions,
) (*domain.SatisfactionResult, error) {
	req, err := s.ParseRequirement(query)
	if err != nil {
		return nil, err
	}
	applyBudgetOverrides(&req, opts)

	result := s.run(req, candidates, opts)
	return result, nil
}

// Search fetches candidates from the scrape feed and runs the pipeline.
// Flow: extract requirement -> check cache -> fetch feed -> map -> score ->
// rank -> evaluate. An empty feed result is not an error; it produces the
// defined "no products found" verdict.
func (s *ShoppingService) Search(
	ctx context.Context,
	query string,
	opts AnalyzeOptions,
) (*domain.SatisfactionResult, error) {
	req, err := s.ParseRequirement(query)
	if err != nil {
		return nil, err
	}
	applyBudgetOverrides(&req, opts)

	feedQuery := req.ProductQuery
	if feedQuery == "" {
		feedQuery = req.RawQuery
	}

	response, err := s.fetchFeed(ctx, feedQuery)
	if err != nil {
		return nil, err
	}

	candidates := scrapefeed.MapToCandidates(response)
	result := s.run(req, candidates, opts)
	return result, nil
}

// run scores, ranks and evaluates a candidate set against a requirement.
func (s *ShoppingService) run(req domain.Requirement, candidates []domain.Candidate, opts AnalyzeOptions) *domain.SatisfactionResult {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = s.defaultStrategy
	}

	scored := s.scorer.Score(candidates, req)
	ranked := s.ranker.Rank(scored, strategy, opts.TopK)
	result := s.evaluator.Evaluate(ranked, req)

	if s.enableDebugLogging {
		log.Printf("[SHOP] %q: %d candidates -> %d ranked, satisfied=%t score=%.2f",
			req.RawQuery, len(candidates), len(ranked), result.Satisfied, result.Score)
	}

	return &result
}

// fetchFeed returns the cached feed response for a query or fetches a fresh
// one from the collaborator and caches it.
func (s *ShoppingService) fetchFeed(ctx context.Context, query string) (*domain.FeedSearchResponse, error) {
	cacheKey := feedCacheKey(query)

	if cached, err := s.getCachedFeed(ctx, cacheKey); err == nil && cached != nil {
		if s.enableDebugLogging {
			log.Printf("[SHOP] Feed cache hit for %q", query)
		}
		return cached, nil
	}

	response, err := s.feedClient.SearchProducts(ctx, query, s.feedFetchLimit)
	if err != nil {
		return nil, err
	}

	if err := s.cacheFeed(ctx, cacheKey, response); err != nil && s.enableDebugLogging {
		log.Printf("[SHOP] Failed to cache feed response for %q: %v", query, err)
	}

	return response, nil
}

// getCachedFeed rebuilds a typed feed response from the cache's generic JSON
// structures.
func (s *ShoppingService) getCachedFeed(ctx context.Context, key string) (*domain.FeedSearchResponse, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, domain.ErrCacheMiss
	}
	var response domain.FeedSearchResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, domain.ErrCacheMiss
	}
	return &response, nil
}

// cacheFeed stores a feed response under the normalized query key.
func (s *ShoppingService) cacheFeed(ctx context.Context, key string, response *domain.FeedSearchResponse) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Set(ctx, key, response, s.cacheTTL)
}

// applyBudgetOverrides lets explicitly supplied bounds win over parsed ones.
// An inverted pair after overriding is dropped, same as an inverted parse.
func applyBudgetOverrides(req *domain.Requirement, opts AnalyzeOptions) {
	if opts.BudgetMin != nil {
		req.BudgetMin = opts.BudgetMin
	}
	if opts.BudgetMax != nil {
		req.BudgetMax = opts.BudgetMax
	}
	if req.BudgetMin != nil && req.BudgetMax != nil && *req.BudgetMin > *req.BudgetMax {
		req.BudgetMin = nil
		req.BudgetMax = nil
	}
}

// feedCacheKey creates a normalized cache key for a feed query.
// Format: "feed:{normalized query}"
func feedCacheKey(query string) string {
	normalized := strings.ToLower(query)
	normalized = nonAlphanumericPattern.ReplaceAllString(normalized, "")
	normalized = multiSpacePattern.ReplaceAllString(normalized, " ")
	return fmt.Sprintf("feed:%s", strings.TrimSpace(normalized))
}
