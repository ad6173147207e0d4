package domain

// FeedItem represents a raw product record as delivered by the scraping
// collaborator's feed API. Prices arrive as scraped display strings
// (e.g., "₹1,299") and are normalized by the mapper.
type FeedItem struct {
	ID     string  `json:"id,omitempty"`
	Title  string  `json:"title"`
	Price  string  `json:"price"`
	Rating float64 `json:"rating,omitempty"`
	URL    string  `json:"url,omitempty"`
}

// FeedSearchResponse represents the response from the scrape feed search API
type FeedSearchResponse struct {
	Query     string     `json:"query,omitempty"`
	Items     []FeedItem `json:"items"`
	TotalHits int        `json:"totalHits"`
}
