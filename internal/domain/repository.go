package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// FeedClient defines the interface for fetching candidates from the
// scraping collaborator's feed API
type FeedClient interface {
	SearchProducts(ctx context.Context, query string, limit int) (*FeedSearchResponse, error)
}
