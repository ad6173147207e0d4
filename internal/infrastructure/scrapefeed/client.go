package scrapefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/cartlens/backend/internal/domain"
)

// Client defaults
const (
	defaultTimeout   = 30 * time.Second
	defaultRateLimit = 2.0 // requests per second against the feed collaborator
	defaultBurst     = 5
	defaultRetries   = 3
)

// ClientConfig holds configuration for the scrape feed client
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RateLimit  float64 // requests per second
	MaxRetries int
}

// Client handles communication with the scraping collaborator's feed API.
// The feed exposes scraped marketplace listings over plain JSON; this client
// adds rate limiting, bounded retries and sentinel error wrapping.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	maxRetries  int
	rateLimiter *rate.Limiter
}

// NewClient creates a new scrape feed client
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rateLimit := config.RateLimit
	if rateLimit <= 0 {
		rateLimit = defaultRateLimit
	}

	maxRetries := config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultRetries
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      config.APIKey,
		baseURL:     config.BaseURL,
		maxRetries:  maxRetries,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), defaultBurst),
	}
}

// doRequest executes an HTTP GET request with proper headers and error wrapping
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "CartLens/1.0")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}

	return resp, nil
}

// SearchProducts fetches scraped listings matching a query. An empty item
// list is a valid response, not an error; the pipeline turns it into the
// defined "no products found" verdict.
func (c *Client) SearchProducts(ctx context.Context, query string, limit int) (*domain.FeedSearchResponse, error) {
	log.Printf("[FEED] SearchProducts called with query: %q limit: %d", query, limit)

	endpoint := fmt.Sprintf("%s/v1/products/search", c.baseURL)
	params := url.Values{}
	params.Add("q", query)
	if limit > 0 {
		params.Add("limit", strconv.Itoa(limit))
	}

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	// Retry transient failures with a linear backoff
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			log.Printf("[FEED] Request error (attempt %d): %v", attempt, err)
			lastErr = err
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			log.Printf("[FEED] Throttled by feed (attempt %d)", attempt)
			lastErr = fmt.Errorf("%w: feed returned 429", domain.ErrRateLimited)
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			log.Printf("[FEED] API error (attempt %d) - Status: %d, Body: %s", attempt, resp.StatusCode, string(body))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrFeedAPIFailure, resp.StatusCode)
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		var searchResp domain.FeedSearchResponse
		if err := json.Unmarshal(body, &searchResp); err != nil {
			log.Printf("[FEED] JSON decode error: %v", err)
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}

		log.Printf("[FEED] Found %d items for query: %q", len(searchResp.Items), query)
		return &searchResp, nil
	}

	log.Printf("[FEED] All retries failed for query: %q", query)
	return nil, lastErr
}
