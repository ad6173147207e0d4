package domain

import "errors"

var (
	// ErrEmptyQuery is returned when a request carries no query text
	ErrEmptyQuery = errors.New("query text is empty")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrFeedUnavailable is returned when the scrape feed cannot be reached
	ErrFeedUnavailable = errors.New("scrape feed unavailable")

	// ErrFeedAPIFailure is returned when the scrape feed request fails
	ErrFeedAPIFailure = errors.New("scrape feed request failed")
)
