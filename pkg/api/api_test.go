package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rubiojr/pkgsearch/pkg/search"
	"github.com/rubiojr/pkgsearch/pkg/version"
)

type mockBackend struct {
	mu           sync.Mutex
	matchCalls   int
	lastPageSize int
	err          error
}

func (b *mockBackend) Matches(ctx context.Context, q search.Query) ([]search.RawMatch, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.matchCalls++
	b.lastPageSize = q.PageSize
	if b.err != nil {
		return nil, false, b.err
	}

	keyword := "http"
	name := "Alamofire"
	owner := "Alamofire"
	return []search.RawMatch{
		{Kind: search.MatchKeyword, Keyword: &keyword},
		{Kind: search.MatchPackage, PackageName: &name, RepositoryOwner: &owner},
	}, true, nil
}

func (b *mockBackend) Authors(ctx context.Context, q search.Query) ([]search.AuthorResult, error) {
	return []search.AuthorResult{{Name: "Alamofire"}}, nil
}

func (b *mockBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.matchCalls
}

func setupTestAPIServer(t *testing.T, backend *mockBackend) (*Server, *http.ServeMux) {
	t.Helper()

	server := NewServer(backend, Options{PageSize: 10, CacheSize: 16, CacheTTL: time.Minute})
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	return server, mux
}

func doGet(mux http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestAPISearch(t *testing.T) {
	_, mux := setupTestAPIServer(t, &mockBackend{})

	w := doGet(mux, "/api/search?query=http+stars%3A%3E10")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if contentType := w.Header().Get("Content-Type"); contentType != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %s", contentType)
	}

	var resp struct {
		SearchResponse
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.State != "results" {
		t.Errorf("Expected state results, got %s", resp.State)
	}
	if resp.Term != "http" {
		t.Errorf("Expected term http, got %q", resp.Term)
	}
	if len(resp.Filters) != 1 || resp.Filters[0] != (FilterResponse{Key: "stars", Comparison: "is greater than", Value: "10"}) {
		t.Errorf("Unexpected filters: %+v", resp.Filters)
	}
	if len(resp.PackageResults) != 1 || resp.PackageResults[0].DisplayName() != "Alamofire" {
		t.Errorf("Unexpected package results: %+v", resp.PackageResults)
	}
	if len(resp.KeywordResults) != 1 || resp.KeywordResults[0].Keyword != "http" {
		t.Errorf("Unexpected keyword results: %+v", resp.KeywordResults)
	}
	if len(resp.AuthorResults) != 1 || resp.AuthorResults[0].Name != "Alamofire" {
		t.Errorf("Unexpected author results: %+v", resp.AuthorResults)
	}

	if len(resp.Results) != 2 {
		t.Fatalf("Expected 2 wire results, got %d", len(resp.Results))
	}
	if got := string(resp.Results[0]); got != `{"keyword":{"_0":{"keyword":"http"}}}` {
		t.Errorf("Unexpected wire result: %s", got)
	}
	if got := string(resp.Results[1]); got != `{"package":{"_0":{"packageName":"Alamofire","repositoryOwner":"Alamofire"}}}` {
		t.Errorf("Unexpected wire result: %s", got)
	}

	if resp.Previous != nil {
		t.Errorf("Expected no previous link on the first page, got %+v", resp.Previous)
	}
	if resp.Next == nil {
		t.Fatal("Expected a next link")
	}
	if resp.Next.Page != 2 || resp.Next.URL != "/api/search?page=2&query=http+stars%3A%3E10" {
		t.Errorf("Unexpected next link: %+v", resp.Next)
	}
}

func TestAPISearchNoQuery(t *testing.T) {
	backend := &mockBackend{}
	_, mux := setupTestAPIServer(t, backend)

	for _, target := range []string{"/api/search", "/api/search?query=%20%20"} {
		w := doGet(mux, target)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200 for %s, got %d", target, w.Code)
		}

		var resp SearchResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.State != "no_query" {
			t.Errorf("Expected state no_query, got %s", resp.State)
		}
		if !strings.Contains(w.Body.String(), `"results":[]`) {
			t.Errorf("Expected empty results array, got %s", w.Body.String())
		}
	}

	if backend.calls() != 0 {
		t.Errorf("Expected no backend calls, got %d", backend.calls())
	}
}

func TestAPISearchShortQueryParam(t *testing.T) {
	_, mux := setupTestAPIServer(t, &mockBackend{})

	w := doGet(mux, "/api/search?q=http&page=3")

	var resp SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Query != "http" || resp.Page != 3 {
		t.Errorf("Expected query http page 3, got %q page %d", resp.Query, resp.Page)
	}
	if resp.Previous == nil || resp.Previous.URL != "/api/search?page=2&query=http" {
		t.Errorf("Unexpected previous link: %+v", resp.Previous)
	}
}

func TestAPISearchIsCached(t *testing.T) {
	backend := &mockBackend{}
	_, mux := setupTestAPIServer(t, backend)

	first := doGet(mux, "/api/search?query=http")
	second := doGet(mux, "/api/search?query=http")

	if backend.calls() != 1 {
		t.Errorf("Expected 1 backend call, got %d", backend.calls())
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("Cached response differs:\n%s\n%s", first.Body.String(), second.Body.String())
	}

	doGet(mux, "/api/search?query=http&page=2")
	if backend.calls() != 2 {
		t.Errorf("Expected another page to miss the cache, got %d calls", backend.calls())
	}

	w := doGet(mux, "/api/cache")
	var stats CacheStatsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Failed to decode cache stats: %v", err)
	}
	if !stats.Enabled || stats.Hits != 1 || stats.Misses != 2 || stats.Entries != 2 {
		t.Errorf("Unexpected cache stats: %+v", stats)
	}
}

func TestAPISearchBackendError(t *testing.T) {
	_, mux := setupTestAPIServer(t, &mockBackend{err: errors.New("database is locked")})

	w := doGet(mux, "/api/search?query=http")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error: %v", err)
	}
	if resp.Error != "Search failed" || !strings.Contains(resp.Message, "database is locked") {
		t.Errorf("Unexpected error response: %+v", resp)
	}
}

func TestAPIReconfigure(t *testing.T) {
	backend := &mockBackend{}
	server, mux := setupTestAPIServer(t, backend)

	doGet(mux, "/api/search?query=http")
	server.Reconfigure(Options{PageSize: 5, CacheSize: 16, CacheTTL: time.Minute})
	doGet(mux, "/api/search?query=http")

	if server.PageSize() != 5 {
		t.Errorf("Expected page size 5, got %d", server.PageSize())
	}
	if backend.calls() != 2 {
		t.Errorf("Expected the cache to be dropped on reconfigure, got %d calls", backend.calls())
	}
	if backend.lastPageSize != 5 {
		t.Errorf("Expected backend to receive page size 5, got %d", backend.lastPageSize)
	}
}

func TestAPIHealth(t *testing.T) {
	_, mux := setupTestAPIServer(t, &mockBackend{})

	w := doGet(mux, "/health")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	var health HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("Failed to decode health: %v", err)
	}
	if health.Status != "ok" || health.Version != version.APIVersion() {
		t.Errorf("Unexpected health response: %+v", health)
	}
}

func TestAPIMethodNotAllowed(t *testing.T) {
	_, mux := setupTestAPIServer(t, &mockBackend{})

	testCases := []struct {
		method   string
		endpoint string
	}{
		{"POST", "/api/search"},
		{"PUT", "/api/search"},
		{"DELETE", "/api/search"},
		{"POST", "/health"},
		{"DELETE", "/api/cache"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+"_"+tc.endpoint, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.endpoint, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected status 405 for %s %s, got %d", tc.method, tc.endpoint, w.Code)
			}
		})
	}
}

func TestAPIInvalidPaths(t *testing.T) {
	_, mux := setupTestAPIServer(t, &mockBackend{})

	for _, path := range []string{"/api/nonexistent", "/api/search/extra", "/nonexistent"} {
		t.Run(path, func(t *testing.T) {
			w := doGet(mux, path)
			if w.Code != http.StatusNotFound {
				t.Errorf("Expected status 404 for %s, got %d", path, w.Code)
			}
		})
	}
}

func TestCorsMiddleware(t *testing.T) {
	_, mux := setupTestAPIServer(t, &mockBackend{})
	handler := CorsMiddleware(mux)

	req := httptest.NewRequest("OPTIONS", "/api/search", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for preflight, got %d", w.Code)
	}
	if origin := w.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("Expected wildcard origin, got %q", origin)
	}
}
