package scrapefeed

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cartlens/backend/internal/domain"
)

// pricePattern pulls the first numeric group out of a scraped price string
// like "₹1,299", "Rs. 999.00" or "1299".
var pricePattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// MapToCandidates converts a feed response into domain candidates.
// Records without a title carry no signal and are dropped; everything else
// is kept, with unparseable prices mapped to 0 (unknown) so the scorer can
// penalize rather than reject them.
func MapToCandidates(response *domain.FeedSearchResponse) []domain.Candidate {
	if response == nil || len(response.Items) == 0 {
		return []domain.Candidate{}
	}

	candidates := make([]domain.Candidate, 0, len(response.Items))
	for _, item := range response.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}

		candidates = append(candidates, domain.Candidate{
			Title:     title,
			Price:     ParsePrice(item.Price),
			Rating:    clampRating(item.Rating),
			SourceRef: sourceRef(item),
		})
	}

	return candidates
}

// ParsePrice normalizes a scraped price display string to a number.
// Returns 0 when no usable numeric part exists.
func ParsePrice(s string) float64 {
	match := pricePattern.FindString(s)
	if match == "" {
		return 0
	}

	match = strings.ReplaceAll(match, ",", "")
	value, err := strconv.ParseFloat(match, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// clampRating bounds scraped ratings to the 0-5 scale.
func clampRating(rating float64) float64 {
	if rating < 0 {
		return 0
	}
	if rating > 5 {
		return 5
	}
	return rating
}

// sourceRef picks the opaque handle the automation layer uses to find the
// listing again: the feed item id when present, otherwise its URL.
func sourceRef(item domain.FeedItem) string {
	if item.ID != "" {
		return item.ID
	}
	return item.URL
}
