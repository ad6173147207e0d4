package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cartlens/backend/config"
	httpDelivery "github.com/cartlens/backend/internal/delivery/http"
	"github.com/cartlens/backend/internal/domain"
	"github.com/cartlens/backend/internal/infrastructure/cache"
	"github.com/cartlens/backend/internal/infrastructure/scrapefeed"
	"github.com/cartlens/backend/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting CartLens Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// Initialize infrastructure dependencies
	var cacheRepo domain.CacheRepository
	if cfg.Cache.Enabled {
		cacheRepo = cache.NewMemoryCache(cfg.Cache.CleanupInterval)
		log.Printf("Feed cache enabled: ttl=%s, cleanup=%s", cfg.Cache.TTL, cfg.Cache.CleanupInterval)
	} else {
		log.Printf("Feed cache disabled")
	}

	feedClient := scrapefeed.NewClient(scrapefeed.ClientConfig{
		BaseURL:    cfg.Feed.BaseURL,
		APIKey:     cfg.Feed.APIKey,
		Timeout:    cfg.Feed.Timeout,
		RateLimit:  cfg.Feed.RateLimit,
		MaxRetries: cfg.Feed.MaxRetries,
	})

	if cfg.Feed.APIKey != "" {
		log.Printf("Scrape feed configured: %s (authenticated)", cfg.Feed.BaseURL)
	} else {
		log.Printf("Scrape feed configured: %s (no API key)", cfg.Feed.BaseURL)
	}

	defaultStrategy, err := domain.ParseStrategy(cfg.Ranking.DefaultStrategy)
	if err != nil {
		log.Fatalf("Invalid default strategy: %v", err)
	}

	// Initialize usecase layer
	shoppingService := usecase.NewShoppingService(
		cacheRepo,
		feedClient,
		usecase.ShoppingServiceConfig{
			Scoring: usecase.ScoringConfig{
				Weights: usecase.ScoringWeights{
					PriceMatch:   cfg.Scoring.PriceWeight,
					BrandMatch:   cfg.Scoring.BrandWeight,
					FeatureMatch: cfg.Scoring.FeatureWeight,
					RatingBoost:  cfg.Scoring.RatingWeight,
					SourceBonus:  cfg.Scoring.SourceWeight,
					Relevance:    cfg.Scoring.RelevanceWeight,
				},
				MinCompliantScore:  cfg.Scoring.MinCompliantScore,
				EnableDebugLogging: cfg.Logging.Debug,
			},
			Ranking: usecase.RankerConfig{
				DefaultTopK:        cfg.Ranking.DefaultTopK,
				MaxTopK:            cfg.Ranking.MaxTopK,
				EnableDebugLogging: cfg.Logging.Debug,
			},
			Satisfaction: usecase.SatisfactionConfig{
				ExcellentThreshold: cfg.Satisfaction.ExcellentThreshold,
				GoodThreshold:      cfg.Satisfaction.GoodThreshold,
				EnableDebugLogging: cfg.Logging.Debug,
			},
			SimilarityMode:     cfg.Similarity.Mode,
			CacheTTL:           cfg.Cache.TTL,
			FeedFetchLimit:     cfg.Feed.FetchLimit,
			DefaultStrategy:    defaultStrategy,
			EnableDebugLogging: cfg.Logging.Debug,
		},
	)

	log.Printf("Pipeline: similarity=%s, strategy=%s, topK=%d",
		cfg.Similarity.Mode, cfg.Ranking.DefaultStrategy, cfg.Ranking.DefaultTopK)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(shoppingService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Block until interrupted, then drain in-flight requests
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Printf("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Printf("Server stopped")
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
