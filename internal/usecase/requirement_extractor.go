package usecase

import (
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/cartlens/backend/internal/domain"
)

// boundKind discriminates which budget bounds a pattern sets.
type boundKind int

const (
	boundRange boundKind = iota // sets both bounds
	boundMax                    // sets only the upper bound
	boundMin                    // sets only the lower bound
)

// budgetPattern pairs a compiled expression with the bounds it sets.
type budgetPattern struct {
	re   *regexp.Regexp
	kind boundKind
}

// amount matches price literals like "2000", "1,999" or "20k"
const amount = `(\d[\d,]*(?:\.\d+)?[kK]?)`

// Budget patterns in priority order: range phrases first, then upper-bound
// triggers, then bare amount mentions that imply a lower bound.
// The first pattern that matches wins; the rest are skipped.
var budgetPatterns = []budgetPattern{
	{regexp.MustCompile(`\bbetween\s+` + amount + `\s+and\s+` + amount), boundRange},
	{regexp.MustCompile(`\bfrom\s+` + amount + `\s+to\s+` + amount), boundRange},
	{regexp.MustCompile(`\b(?:under|below|less\s+than|up\s*to)\s*₹?\s*` + amount), boundMax},
	{regexp.MustCompile(`\bbudget\s+₹?\s*` + amount), boundMin},
	{regexp.MustCompile(amount + `\s*rupees?\b`), boundMin},
	{regexp.MustCompile(`\brs\.?\s*` + amount), boundMin},
	{regexp.MustCompile(`₹\s*` + amount), boundMin},
}

// platformPattern matches marketplace mentions so the automation layer knows
// which site to drive. Detection only; the pipeline never branches on it.
var platformPattern = regexp.MustCompile(`\b(flipkart|amazon|myntra|zomato|swiggy)\b`)

// productNoisePattern strips command verbs, filler words, platform names,
// currency words and amount literals when deriving the product query.
var productNoisePattern = regexp.MustCompile(`\b(?:find|search|show|for|under|below|less than|upto|up to|between|from|and|to|on|in|buy|order|please|want|need|get|budget|rs|rupees|flipkart|amazon|myntra|zomato|swiggy)\b|₹|\d[\d,]*(?:\.\d+)?[kK]?`)

// multiSpacePattern collapses runs of whitespace left behind by stripping.
var multiSpacePattern = regexp.MustCompile(`\s+`)

// categoryTable maps categories to their trigger keywords. Slice order is
// priority order: the first category with a keyword hit wins, so queries
// mixing hints ("laptop bag for books") resolve deterministically.
var categoryTable = []struct {
	category domain.Category
	keywords []string
}{
	{domain.CategoryElectronics, []string{"laptop", "phone", "mobile", "computer", "tablet", "headphones", "camera"}},
	{domain.CategoryGrocery, []string{"rice", "milk", "bread", "fruit", "vegetable", "oil", "sugar", "food"}},
	{domain.CategoryClothing, []string{"shirt", "pants", "dress", "shoes", "jacket", "clothes"}},
	{domain.CategoryBooks, []string{"book", "novel", "textbook", "magazine"}},
	{domain.CategoryHome, []string{"furniture", "chair", "table", "bed", "sofa"}},
}

// featureVocabulary lists the feature keywords recognized in queries.
// Every hit is kept, unlike categories where the first hit wins.
var featureVocabulary = []string{"wireless", "bluetooth", "fast", "organic", "premium", "latest", "new"}

// brandVocabulary lists the brand names recognized in queries.
var brandVocabulary = []string{"apple", "samsung", "hp", "dell", "nike", "adidas", "sony", "lg"}

// RequirementExtractor parses free-text shopping queries into structured
// requirements. Extraction never fails: a signal absent from the query
// yields a nil or empty field, not an error.
type RequirementExtractor struct {
	enableDebugLogging bool
}

// NewRequirementExtractor creates a new requirement extractor
func NewRequirementExtractor(enableDebugLogging bool) *RequirementExtractor {
	return &RequirementExtractor{
		enableDebugLogging: enableDebugLogging,
	}
}

// Extract parses a free-text query into a Requirement.
// Budget bounds come from the first matching pattern only; the category
// resolves by table order; every feature and brand match is kept.
func (e *RequirementExtractor) Extract(query string) domain.Requirement {
	lower := strings.ToLower(query)

	req := domain.Requirement{
		RawQuery: query,
		Category: domain.CategoryGeneral,
	}

	e.extractBudget(lower, &req)

	if cat, ok := detectCategory(lower); ok {
		req.Category = cat
	}

	for _, feature := range featureVocabulary {
		if strings.Contains(lower, feature) {
			req.Features = append(req.Features, feature)
		}
	}

	for _, brand := range brandVocabulary {
		if strings.Contains(lower, brand) {
			req.Brands = append(req.Brands, brand)
		}
	}

	if m := platformPattern.FindStringSubmatch(lower); m != nil {
		req.Platform = m[1]
	}

	req.ProductQuery = cleanProductQuery(lower)
	if req.ProductQuery == "" {
		req.ProductQuery = strings.TrimSpace(lower)
	}

	if e.enableDebugLogging {
		log.Printf("[EXTRACT] Query %q -> category=%s budget=%s features=%v brands=%v platform=%q",
			query, req.Category, formatBudget(req), req.Features, req.Brands, req.Platform)
	}

	return req
}

// extractBudget applies the ordered budget patterns and stops at the first
// hit. A range parsed in reverse (min > max) is dropped entirely and the
// requirement stays unconstrained.
func (e *RequirementExtractor) extractBudget(query string, req *domain.Requirement) {
	for _, p := range budgetPatterns {
		m := p.re.FindStringSubmatch(query)
		if m == nil {
			continue
		}

		switch p.kind {
		case boundRange:
			lo, okLo := parseAmount(m[1])
			hi, okHi := parseAmount(m[2])
			if !okLo || !okHi {
				return
			}
			if lo > hi {
				if e.enableDebugLogging {
					log.Printf("[EXTRACT] Dropping inverted budget range %.0f-%.0f in %q", lo, hi, query)
				}
				return
			}
			req.BudgetMin = &lo
			req.BudgetMax = &hi
		case boundMax:
			if v, ok := parseAmount(m[1]); ok {
				req.BudgetMax = &v
			}
		case boundMin:
			if v, ok := parseAmount(m[1]); ok {
				req.BudgetMin = &v
			}
		}
		return
	}
}

// detectCategory scans the category table in priority order and returns the
// first category with a keyword hit.
func detectCategory(query string) (domain.Category, bool) {
	for _, entry := range categoryTable {
		for _, keyword := range entry.keywords {
			if strings.Contains(query, keyword) {
				return entry.category, true
			}
		}
	}
	return domain.CategoryGeneral, false
}

// cleanProductQuery strips command noise, platform names and price phrases
// from a lowercased query, leaving the product terms used for similarity
// matching.
func cleanProductQuery(lower string) string {
	cleaned := productNoisePattern.ReplaceAllString(lower, " ")
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// parseAmount converts an amount literal like "1,999", "20k" or "2.5k" into
// its numeric value. Comma grouping is stripped; a k suffix multiplies by 1000.
func parseAmount(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", "")

	multiplier := 1.0
	if strings.HasSuffix(s, "k") {
		multiplier = 1000
		s = strings.TrimSuffix(s, "k")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v * multiplier, true
}

// formatBudget renders the parsed bounds for debug logs.
func formatBudget(req domain.Requirement) string {
	switch {
	case req.BudgetMin != nil && req.BudgetMax != nil:
		return strconv.FormatFloat(*req.BudgetMin, 'f', 0, 64) + "-" + strconv.FormatFloat(*req.BudgetMax, 'f', 0, 64)
	case req.BudgetMax != nil:
		return "max " + strconv.FormatFloat(*req.BudgetMax, 'f', 0, 64)
	case req.BudgetMin != nil:
		return "min " + strconv.FormatFloat(*req.BudgetMin, 'f', 0, 64)
	default:
		return "none"
	}
}
