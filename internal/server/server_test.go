// file: internal/server/server_test.go
// version: 1.1.0
// guid: 4b6c8d0e-2f3a-4b5c-9d7e-1f3a5b7c9d1e

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmeta/metadata-server/internal/database"
	"github.com/absmeta/metadata-server/internal/metadata"
	"github.com/absmeta/metadata-server/internal/provider"
)

type stubProvider struct {
	cfg     provider.Config
	calls   atomic.Int64
	results []metadata.BookMetadata
	err     error
}

func (p *stubProvider) Config() provider.Config { return p.cfg }

func (p *stubProvider) Search(ctx context.Context, title, author string, params provider.ParsedParameters) ([]metadata.BookMetadata, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return p.results, nil
}

func newTestServer(t *testing.T, providers ...provider.Provider) (*Server, database.CacheStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := database.NewPebbleStore(filepath.Join(t.TempDir(), "cache.pebble"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	registry := provider.NewRegistry()
	for _, p := range providers {
		registry.Register(p)
	}

	return NewServer(registry, store, GetDefaultServerConfig()), store
}

func demoProvider() *stubProvider {
	return &stubProvider{
		cfg: provider.Config{
			ID:   "demo",
			Name: "Demo",
			Parameters: []provider.Parameter{
				{
					Name:     "lang",
					Required: true,
					Validation: provider.ValidationRule{
						Type:   "enum",
						Values: []string{"en", "de"},
					},
				},
				{
					Name:       "limit",
					Validation: provider.ValidationRule{Type: "int"},
				},
			},
		},
		results: []metadata.BookMetadata{{Title: "The Time Machine", Author: "H. G. Wells"}},
	}
}

func doRequest(s *Server, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	s.router.ServeHTTP(w, req)
	return w
}

func decodeMatches(t *testing.T, w *httptest.ResponseRecorder) []metadata.BookMetadata {
	t.Helper()
	var result metadata.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result.Matches
}

func TestSearchCachesResults(t *testing.T) {
	p := demoProvider()
	s, _ := newTestServer(t, p)

	w := doRequest(s, http.MethodGet, "/demo/lang:en/search?title=Time+Machine")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	matches := decodeMatches(t, w)
	require.Len(t, matches, 1)
	assert.Equal(t, "The Time Machine", matches[0].Title)
	assert.Equal(t, int64(1), p.calls.Load())

	// Identical request is served from cache without a second invocation.
	w = doRequest(s, http.MethodGet, "/demo/lang:en/search?title=Time+Machine")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeMatches(t, w), 1)
	assert.Equal(t, int64(1), p.calls.Load())

	// A different parameter value is a different cache key.
	w = doRequest(s, http.MethodGet, "/demo/lang:de/search?title=Time+Machine")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), p.calls.Load())
}

func TestSearchCacheBypass(t *testing.T) {
	p := demoProvider()
	s, _ := newTestServer(t, p)

	w := doRequest(s, http.MethodGet, "/demo/lang:en/search?title=X")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(1), p.calls.Load())

	// cache=false skips the read but the provider is still invoked and the
	// result re-cached.
	w = doRequest(s, http.MethodGet, "/demo/lang:en/search?title=X&cache=false")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), p.calls.Load())

	// Subsequent plain request hits the cache again.
	w = doRequest(s, http.MethodGet, "/demo/lang:en/search?title=X")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), p.calls.Load())
}

func TestSearchParameterErrors(t *testing.T) {
	p := demoProvider()
	s, _ := newTestServer(t, p)

	tests := []struct {
		name   string
		target string
		status int
		errMsg string
	}{
		{"missing required", "/demo/search?title=X", http.StatusBadRequest, "Missing required parameter: lang"},
		{"invalid value", "/demo/lang:fr/search?title=X", http.StatusBadRequest, "Invalid parameter lang: Value must be one of: en, de"},
		{"unknown parameter", "/demo/lang:en/format:mp3/search?title=X", http.StatusBadRequest, "Unknown parameter: format"},
		{"missing title", "/demo/lang:en/search", http.StatusBadRequest, "Missing required query parameter: title"},
		{"unknown provider", "/nope/search?title=X", http.StatusNotFound, "Provider not found: nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(s, http.MethodGet, tt.target)
			assert.Equal(t, tt.status, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.errMsg, resp.Error)
			assert.Equal(t, int64(0), p.calls.Load())
		})
	}
}

func TestSearchProviderError(t *testing.T) {
	p := demoProvider()
	p.err = assert.AnError
	s, _ := newTestServer(t, p)

	w := doRequest(s, http.MethodGet, "/demo/lang:en/search?title=X")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, assert.AnError.Error(), resp.Error)
}

func TestSearchEmptyResultIsNonNil(t *testing.T) {
	p := demoProvider()
	p.results = nil
	s, _ := newTestServer(t, p)

	w := doRequest(s, http.MethodGet, "/demo/lang:en/search?title=X")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"matches":[]`)
}

func TestOptionalParameterParsed(t *testing.T) {
	p := demoProvider()
	s, _ := newTestServer(t, p)

	w := doRequest(s, http.MethodGet, "/demo/lang:en/limit:10/search?title=X")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), p.calls.Load())
}

func TestListProviders(t *testing.T) {
	s, _ := newTestServer(t, demoProvider())

	w := doRequest(s, http.MethodGet, "/providers")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Providers []provider.Config `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Providers, 1)
	assert.Equal(t, "demo", resp.Providers[0].ID)
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(t, demoProvider())

	w := doRequest(s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestClearCache(t *testing.T) {
	p := demoProvider()
	s, _ := newTestServer(t, p)

	w := doRequest(s, http.MethodGet, "/demo/lang:en/search?title=X")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(1), p.calls.Load())

	w = doRequest(s, http.MethodDelete, "/cache/demo")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodGet, "/demo/lang:en/search?title=X")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), p.calls.Load())

	w = doRequest(s, http.MethodDelete, "/cache")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cleared":"all"`)
}

func TestRequestIDHeader(t *testing.T) {
	s, _ := newTestServer(t, demoProvider())

	w := doRequest(s, http.MethodGet, "/health")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
