package usecase

import (
	"errors"
	"log"
	"math"
	"regexp"
	"strings"
)

// errEmptyVocabulary signals that no usable terms exist to vectorize, so the
// tf-idf strategy cannot produce meaningful scores for this batch.
var errEmptyVocabulary = errors.New("tf-idf vocabulary is empty")

// wordPattern extracts alphanumeric tokens of length >= 2 for vectorizing.
var wordPattern = regexp.MustCompile(`[a-z0-9]{2,}`)

// TextSimilarity scores how well candidate titles match the query text.
// Scores are in [0,1], one per title, in input order. An error means the
// strategy could not score this batch at all; callers degrade rather than
// propagate.
type TextSimilarity interface {
	Name() string
	Score(query string, titles []string) ([]float64, error)
}

// NewTextSimilarity selects the similarity strategy for the given mode:
// "tfidf", "keyword", or "auto" (tf-idf with keyword-overlap fallback).
// Unknown modes behave like "auto".
func NewTextSimilarity(mode string, enableDebugLogging bool) TextSimilarity {
	switch strings.ToLower(mode) {
	case "tfidf":
		return &TFIDFSimilarity{}
	case "keyword":
		return &KeywordOverlapSimilarity{}
	default:
		return &FallbackSimilarity{
			primary:            &TFIDFSimilarity{},
			fallback:           &KeywordOverlapSimilarity{},
			enableDebugLogging: enableDebugLogging,
		}
	}
}

// FallbackSimilarity delegates to a primary strategy and silently falls back
// to a simpler one when the primary cannot score a batch.
type FallbackSimilarity struct {
	primary            TextSimilarity
	fallback           TextSimilarity
	enableDebugLogging bool
}

// Name identifies the active strategy pair.
func (s *FallbackSimilarity) Name() string {
	return s.primary.Name() + "+" + s.fallback.Name()
}

// Score tries the primary strategy first and degrades to the fallback on error.
func (s *FallbackSimilarity) Score(query string, titles []string) ([]float64, error) {
	scores, err := s.primary.Score(query, titles)
	if err == nil {
		return scores, nil
	}

	if s.enableDebugLogging {
		log.Printf("[SIMILARITY] %s failed (%v), falling back to %s", s.primary.Name(), err, s.fallback.Name())
	}
	return s.fallback.Score(query, titles)
}

// TFIDFSimilarity scores titles by cosine similarity between tf-idf vectors
// built over the query and the candidate titles themselves. The corpus is
// rebuilt on every scoring pass, which is cheap at scraper batch sizes.
type TFIDFSimilarity struct{}

// Name identifies the strategy.
func (s *TFIDFSimilarity) Name() string { return "tfidf" }

// Score vectorizes the query and titles and returns their cosine similarities.
func (s *TFIDFSimilarity) Score(query string, titles []string) ([]float64, error) {
	docs := make([][]string, 0, len(titles)+1)
	docs = append(docs, splitWords(query))
	for _, title := range titles {
		docs = append(docs, splitWords(title))
	}

	// Document frequency per term
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool, len(doc))
		for _, w := range doc {
			if !seen[w] {
				df[w]++
				seen[w] = true
			}
		}
	}

	if len(df) == 0 || len(docs[0]) == 0 {
		return nil, errEmptyVocabulary
	}

	// Smoothed idf so terms present in every document still contribute
	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log((1+n)/(1+float64(count))) + 1
	}

	queryVec := tfidfVector(docs[0], idf)
	scores := make([]float64, len(titles))
	for i := range titles {
		scores[i] = cosine(queryVec, tfidfVector(docs[i+1], idf))
	}
	return scores, nil
}

// KeywordOverlapSimilarity scores titles by the fraction of query words that
// appear in the title. The degradation target when vectorizing is pointless.
type KeywordOverlapSimilarity struct{}

// Name identifies the strategy.
func (s *KeywordOverlapSimilarity) Name() string { return "keyword" }

// Score returns |query words ∩ title words| / |query words| per title.
func (s *KeywordOverlapSimilarity) Score(query string, titles []string) ([]float64, error) {
	queryWords := wordSet(query)
	scores := make([]float64, len(titles))
	if len(queryWords) == 0 {
		return scores, nil
	}

	for i, title := range titles {
		titleWords := wordSet(title)
		matched := 0
		for w := range queryWords {
			if titleWords[w] {
				matched++
			}
		}
		scores[i] = float64(matched) / float64(len(queryWords))
	}
	return scores, nil
}

// splitWords lowercases s and extracts its word tokens for vectorizing.
func splitWords(s string) []string {
	return wordPattern.FindAllString(strings.ToLower(s), -1)
}

// wordSet builds a lowercase word-membership set split on whitespace.
func wordSet(s string) map[string]bool {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// tfidfVector builds an l2-normalized tf-idf vector for one document.
// Term frequency accumulates by repeated idf addition, so tf * idf falls out
// of the loop directly.
func tfidfVector(words []string, idf map[string]float64) map[string]float64 {
	vec := make(map[string]float64, len(words))
	for _, w := range words {
		vec[w] += idf[w]
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for w := range vec {
		vec[w] /= norm
	}
	return vec
}

// cosine computes the dot product of two l2-normalized sparse vectors,
// clamped into [0,1] against floating point drift.
func cosine(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}

	var dot float64
	for w, av := range a {
		if bv, ok := b[w]; ok {
			dot += av * bv
		}
	}

	if dot > 1 {
		dot = 1
	}
	if dot < 0 {
		dot = 0
	}
	return dot
}
