package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/cartlens/backend/config"
	"github.com/cartlens/backend/internal/domain"
	"github.com/cartlens/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	exitCode := m.Run()

	os.Exit(exitCode)
}

// stubFeedClient is a stub implementation of domain.FeedClient
type stubFeedClient struct {
	response  *domain.FeedSearchResponse
	err       error
	lastQuery string
	callCount int
}

func (s *stubFeedClient) SearchProducts(ctx context.Context, query string, limit int) (*domain.FeedSearchResponse, error) {
	s.callCount++
	s.lastQuery = query
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

// testConfig builds a config literal with generous rate limits so the
// limiter never interferes with unrelated assertions.
func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:              "8080",
			Environment:       "test",
			AllowedOrigins:    []string{"chrome-extension://*", "http://localhost:3000"},
			RequestsPerSecond: 100,
			RequestBurst:      100,
		},
	}
}

// setupTestRouter creates a test router backed by the given feed stub
func setupTestRouter(feed domain.FeedClient) *gin.Engine {
	service := usecase.NewShoppingService(nil, feed, usecase.ShoppingServiceConfig{})

	handler := NewHandler(service)
	if handler == nil {
		panic("setupTestRouter: NewHandler returned nil")
	}

	router := SetupRouter(testConfig(), handler)
	if router == nil {
		panic("setupTestRouter: SetupRouter returned nil *gin.Engine")
	}

	return router
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		if err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "cartlens-backend" {
			t.Errorf("service = %v, want cartlens-backend", response["service"])
		}
		version, ok := response["version"].(string)
		if !ok || strings.TrimSpace(version) == "" {
			t.Errorf("version = %v, want non-empty string", response["version"])
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		methods := []string{"POST", "PUT", "DELETE", "PATCH"}

		for _, method := range methods {
			req, _ := http.NewRequest(method, "/health", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

// TestAnalyzeEndpoint tests the inline analysis endpoint
func TestAnalyzeEndpoint(t *testing.T) {
	t.Run("returns a verdict for a valid request", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		payload := `{
			"query": "find wireless earphones under 2000",
			"candidates": [
				{"title": "boAt wireless earphones", "price": 1500, "rating": 4.5},
				{"title": "sony wireless earphones pro", "price": 4990, "rating": 4.7}
			]
		}`
		req, _ := http.NewRequest("POST", "/api/v1/shopping/analyze", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if response["satisfied"] != true {
			t.Errorf("satisfied = %v, want true", response["satisfied"])
		}

		best, ok := response["best"].(map[string]interface{})
		if !ok {
			t.Fatalf("best = %v, want an object", response["best"])
		}
		if best["title"] != "boAt wireless earphones" {
			t.Errorf("best.title = %v, want the in-budget candidate", best["title"])
		}

		stats, ok := response["stats"].(map[string]interface{})
		if !ok {
			t.Fatalf("stats = %v, want an object", response["stats"])
		}
		if stats["total"] != float64(1) {
			t.Errorf("stats.total = %v, want 1 after the budget filter", stats["total"])
		}

		analysisID, ok := response["analysisId"].(string)
		if !ok || analysisID == "" {
			t.Errorf("analysisId = %v, want non-empty string", response["analysisId"])
		}
	})

	t.Run("explicit budget override widens the pool", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		payload := `{
			"query": "find wireless earphones under 2000",
			"budgetMax": 6000,
			"candidates": [
				{"title": "boAt wireless earphones", "price": 1500, "rating": 4.5},
				{"title": "sony wireless earphones pro", "price": 4990, "rating": 4.7}
			]
		}`
		req, _ := http.NewRequest("POST", "/api/v1/shopping/analyze", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		stats := response["stats"].(map[string]interface{})
		if stats["total"] != float64(2) {
			t.Errorf("stats.total = %v, want 2 with the raised cap", stats["total"])
		}
	})

	t.Run("empty candidate list yields the unsatisfied verdict", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		payload := `{"query": "find wireless earphones under 2000", "candidates": []}`
		req, _ := http.NewRequest("POST", "/api/v1/shopping/analyze", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if response["satisfied"] != false {
			t.Errorf("satisfied = %v, want false", response["satisfied"])
		}
		if response["reason"] != "No products found matching your requirements" {
			t.Errorf("reason = %v", response["reason"])
		}
	})

	t.Run("returns 400 for missing query", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		payload := `{"candidates": []}`
		req, _ := http.NewRequest("POST", "/api/v1/shopping/analyze", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		errorMsg, ok := response["error"].(string)
		if !ok || !strings.Contains(errorMsg, "invalid request body") {
			t.Errorf("error = %v, want to contain 'invalid request body'", response["error"])
		}
	})

	t.Run("returns 400 for invalid JSON", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		req, _ := http.NewRequest("POST", "/api/v1/shopping/analyze", strings.NewReader(`{invalid json}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 400 for unknown strategy", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		payload := `{"query": "earphones", "strategy": "cheapest"}`
		req, _ := http.NewRequest("POST", "/api/v1/shopping/analyze", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		errorMsg, ok := response["error"].(string)
		if !ok || !strings.Contains(errorMsg, "unknown strategy") {
			t.Errorf("error = %v, want to contain 'unknown strategy'", response["error"])
		}
	})
}

// TestRequirementsEndpoint tests the parse-only endpoint
func TestRequirementsEndpoint(t *testing.T) {
	t.Run("returns the structured requirement", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		payload := `{"query": "find wireless earphones under 2000 on flipkart"}`
		req, _ := http.NewRequest("POST", "/api/v1/shopping/requirements", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if response["budgetMax"] != float64(2000) {
			t.Errorf("budgetMax = %v, want 2000", response["budgetMax"])
		}
		if response["platform"] != "flipkart" {
			t.Errorf("platform = %v, want flipkart", response["platform"])
		}
		if response["productQuery"] != "wireless earphones" {
			t.Errorf("productQuery = %v, want 'wireless earphones'", response["productQuery"])
		}
		if response["category"] != "electronics" {
			t.Errorf("category = %v, want electronics", response["category"])
		}
	})

	t.Run("returns 400 for missing query", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		req, _ := http.NewRequest("POST", "/api/v1/shopping/requirements", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 400 for whitespace query", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		req, _ := http.NewRequest("POST", "/api/v1/shopping/requirements", strings.NewReader(`{"query": "   "}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if response["error"] != domain.ErrEmptyQuery.Error() {
			t.Errorf("error = %v, want %q", response["error"], domain.ErrEmptyQuery.Error())
		}
	})
}

// TestSearchEndpoint tests the feed-backed search endpoint
func TestSearchEndpoint(t *testing.T) {
	feedItems := []domain.FeedItem{
		{ID: "p1", Title: "boAt wireless earphones", Price: "₹1,499", Rating: 4.5},
		{ID: "p2", Title: "JBL wired headset", Price: "₹899", Rating: 4.0},
	}

	t.Run("runs the pipeline over the feed", func(t *testing.T) {
		feed := &stubFeedClient{response: &domain.FeedSearchResponse{Items: feedItems}}
		router := setupTestRouter(feed)

		req, _ := http.NewRequest("GET", "/api/v1/shopping/search?q=wireless+earphones+under+2000", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
		}

		if feed.lastQuery != "wireless earphones" {
			t.Errorf("feed query = %q, want the cleaned product query", feed.lastQuery)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		best, ok := response["best"].(map[string]interface{})
		if !ok {
			t.Fatalf("best = %v, want an object", response["best"])
		}
		if best["title"] != "boAt wireless earphones" {
			t.Errorf("best.title = %v, want the wireless match", best["title"])
		}
		if best["price"] != float64(1499) {
			t.Errorf("best.price = %v, want 1499 parsed from the scraped string", best["price"])
		}
	})

	t.Run("returns 400 when q is missing", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		req, _ := http.NewRequest("GET", "/api/v1/shopping/search", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if response["error"] != "missing required query parameter: q" {
			t.Errorf("error = %v", response["error"])
		}
	})

	t.Run("returns 400 for a bad topK", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		for _, raw := range []string{"abc", "-1", "1.5"} {
			req, _ := http.NewRequest("GET", "/api/v1/shopping/search?q=earphones&topK="+raw, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("topK=%s: Status = %d, want %d", raw, w.Code, http.StatusBadRequest)
			}
		}
	})

	t.Run("returns 400 for unknown strategy", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		req, _ := http.NewRequest("GET", "/api/v1/shopping/search?q=earphones&strategy=banana", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("maps feed unavailability to 502", func(t *testing.T) {
		feed := &stubFeedClient{err: domain.ErrFeedUnavailable}
		router := setupTestRouter(feed)

		req, _ := http.NewRequest("GET", "/api/v1/shopping/search?q=earphones", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadGateway {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadGateway)
		}
	})

	t.Run("maps feed rate limiting to 429", func(t *testing.T) {
		feed := &stubFeedClient{err: domain.ErrRateLimited}
		router := setupTestRouter(feed)

		req, _ := http.NewRequest("GET", "/api/v1/shopping/search?q=earphones", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusTooManyRequests {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusTooManyRequests)
		}
	})

	t.Run("empty feed yields the unsatisfied verdict", func(t *testing.T) {
		feed := &stubFeedClient{response: &domain.FeedSearchResponse{Items: []domain.FeedItem{}}}
		router := setupTestRouter(feed)

		req, _ := http.NewRequest("GET", "/api/v1/shopping/search?q=earphones", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if response["satisfied"] != false {
			t.Errorf("satisfied = %v, want false", response["satisfied"])
		}
	})
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	t.Run("health endpoint has CORS for the browser extension", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		req, _ := http.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "chrome-extension://abcdefghijklmnop")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		gotOrigin := w.Header().Get("Access-Control-Allow-Origin")
		if gotOrigin != "chrome-extension://abcdefghijklmnop" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", gotOrigin, "chrome-extension://abcdefghijklmnop")
		}

		gotCreds := w.Header().Get("Access-Control-Allow-Credentials")
		if gotCreds != "true" {
			t.Errorf("Access-Control-Allow-Credentials = %q, want %q", gotCreds, "true")
		}
	})

	t.Run("shopping endpoint has CORS for localhost", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		req, _ := http.NewRequest("POST", "/api/v1/shopping/requirements", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		gotOrigin := w.Header().Get("Access-Control-Allow-Origin")
		if gotOrigin != "http://localhost:3000" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", gotOrigin, "http://localhost:3000")
		}
	})
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	t.Run("recovers from panic without crashing server", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		// Add a test route that panics
		router.GET("/panic", func(c *gin.Context) {
			panic("test panic")
		})

		req, _ := http.NewRequest("GET", "/panic", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		// Gin's default recovery returns 500
		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})
}

// TestAPIVersioning tests that API v1 routes are correctly versioned
func TestAPIVersioning(t *testing.T) {
	t.Run("v1 routes are accessible", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		req, _ := http.NewRequest("POST", "/api/v1/shopping/requirements", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		// An empty body fails binding, but the route itself resolves
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("non-versioned routes return 404", func(t *testing.T) {
		router := setupTestRouter(&stubFeedClient{})

		req, _ := http.NewRequest("POST", "/api/shopping/requirements", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestJSONResponses tests that all responses are valid JSON
func TestJSONResponses(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"POST", "/api/v1/shopping/analyze"},
		{"GET", "/api/v1/shopping/search"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			router := setupTestRouter(&stubFeedClient{})

			req, _ := http.NewRequest(endpoint.method, endpoint.path, nil)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gotContentType := w.Header().Get("Content-Type")
			wantContentType := "application/json; charset=utf-8"
			if gotContentType != wantContentType {
				t.Errorf("Content-Type = %q, want %q", gotContentType, wantContentType)
			}

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			if err != nil {
				t.Errorf("Response should be valid JSON, got error: %v", err)
			}
		})
	}
}
