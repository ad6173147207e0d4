package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig
	Feed         FeedConfig
	Cache        CacheConfig
	Scoring      ScoringConfig
	Ranking      RankingConfig
	Satisfaction SatisfactionConfig
	Similarity   SimilarityConfig
	Logging      LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port              string   `mapstructure:"port"`
	Environment       string   `mapstructure:"environment"`
	AllowedOrigins    []string `mapstructure:"allowed_origins"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second"`
	RequestBurst      int      `mapstructure:"request_burst"`
}

// FeedConfig holds scrape feed client configuration. The API key is never
// embedded in source; it arrives through CARTLENS_FEED_API_KEY or the
// config file.
type FeedConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  float64       `mapstructure:"rate_limit"`
	MaxRetries int           `mapstructure:"max_retries"`
	FetchLimit int           `mapstructure:"fetch_limit"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// ScoringConfig holds the weighted-sum knobs for candidate scoring
type ScoringConfig struct {
	PriceWeight       float64 `mapstructure:"price_weight"`
	BrandWeight       float64 `mapstructure:"brand_weight"`
	FeatureWeight     float64 `mapstructure:"feature_weight"`
	RatingWeight      float64 `mapstructure:"rating_weight"`
	SourceWeight      float64 `mapstructure:"source_weight"`
	RelevanceWeight   float64 `mapstructure:"relevance_weight"`
	MinCompliantScore float64 `mapstructure:"min_compliant_score"`
}

// RankingConfig holds ranking configuration
type RankingConfig struct {
	DefaultTopK     int    `mapstructure:"default_top_k"`
	MaxTopK         int    `mapstructure:"max_top_k"`
	DefaultStrategy string `mapstructure:"default_strategy"`
}

// SatisfactionConfig holds the verdict thresholds
type SatisfactionConfig struct {
	ExcellentThreshold float64 `mapstructure:"excellent_threshold"`
	GoodThreshold      float64 `mapstructure:"good_threshold"`
}

// SimilarityConfig selects the text similarity strategy
type SimilarityConfig struct {
	Mode string `mapstructure:"mode"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Debug bool `mapstructure:"debug"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cartlens/")

	// Environment variable settings
	v.SetEnvPrefix("CARTLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*", "http://localhost:3000"})
	v.SetDefault("server.requests_per_second", 10.0)
	v.SetDefault("server.request_burst", 20)

	// Feed defaults; the scrape feed normally runs as a local sidecar
	v.SetDefault("feed.base_url", "http://localhost:9700")
	v.SetDefault("feed.api_key", "")
	v.SetDefault("feed.timeout", "30s")
	v.SetDefault("feed.rate_limit", 2.0)
	v.SetDefault("feed.max_retries", 3)
	v.SetDefault("feed.fetch_limit", 20)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "15m")
	v.SetDefault("cache.cleanup_interval", "10m")

	// Scoring defaults
	v.SetDefault("scoring.price_weight", 0.40)
	v.SetDefault("scoring.brand_weight", 0.25)
	v.SetDefault("scoring.feature_weight", 0.20)
	v.SetDefault("scoring.rating_weight", 0.10)
	v.SetDefault("scoring.source_weight", 0.05)
	v.SetDefault("scoring.relevance_weight", 0.15)
	v.SetDefault("scoring.min_compliant_score", 0.3)

	// Ranking defaults
	v.SetDefault("ranking.default_top_k", 5)
	v.SetDefault("ranking.max_top_k", 20)
	v.SetDefault("ranking.default_strategy", "relevance")

	// Satisfaction defaults
	v.SetDefault("satisfaction.excellent_threshold", 0.7)
	v.SetDefault("satisfaction.good_threshold", 0.5)

	// Similarity defaults
	v.SetDefault("similarity.mode", "auto")

	// Logging defaults
	v.SetDefault("logging.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Feed.BaseURL == "" {
		return fmt.Errorf("feed base URL is required (set CARTLENS_FEED_BASE_URL)")
	}

	switch config.Similarity.Mode {
	case "auto", "tfidf", "keyword":
	default:
		return fmt.Errorf("similarity mode must be 'auto', 'tfidf' or 'keyword', got: %s", config.Similarity.Mode)
	}

	switch config.Ranking.DefaultStrategy {
	case "relevance", "price", "rating":
	default:
		return fmt.Errorf("default strategy must be 'relevance', 'price' or 'rating', got: %s", config.Ranking.DefaultStrategy)
	}

	if config.Satisfaction.ExcellentThreshold < config.Satisfaction.GoodThreshold {
		return fmt.Errorf("excellent threshold (%.2f) must not be below good threshold (%.2f)",
			config.Satisfaction.ExcellentThreshold, config.Satisfaction.GoodThreshold)
	}

	return nil
}
