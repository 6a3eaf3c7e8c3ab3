// file: internal/providers/librivox/librivox_test.go
// version: 1.0.0
// guid: 1a3b5c7d-9e0f-4a2b-8c4d-6e8f0a2b4c5d

package librivox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmeta/metadata-server/internal/database"
	"github.com/absmeta/metadata-server/internal/provider"
)

const feedPayload = `{
  "books": [
    {
      "id": "52",
      "title": "The Time Machine",
      "description": "<p>A <b>classic</b> of science fiction.</p><script>alert(1)</script>",
      "language": "English",
      "copyright_year": "1895",
      "totaltimesecs": 13560,
      "authors": [{"id": "3", "first_name": "H. G.", "last_name": "Wells"}],
      "coverart_jpg": "https://archive.org/time_machine.jpg",
      "sections": [
        {"id": "1", "title": "Chapter 1", "readers": [{"reader_id": "7", "display_name": "Mark Nelson"}]},
        {"id": "2", "title": "Chapter 2", "readers": [{"reader_id": "7", "display_name": "Mark Nelson"}, {"reader_id": "9", "display_name": "Kara Shallenberg"}]}
      ],
      "genres": [{"id": "1", "name": "Science Fiction"}]
    }
  ]
}`

func newTestStore(t *testing.T) database.CacheStore {
	t.Helper()
	store, err := database.NewPebbleStore(filepath.Join(t.TempDir(), "cache.pebble"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestProvider(t *testing.T, upstream http.Handler) (*Provider, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		upstream.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	p := New(provider.Config{ID: "librivox", Name: "LibriVox"},
		WithBaseURL(srv.URL), WithStore(newTestStore(t)))
	return p, &hits
}

func TestSearchMapsFeedResponse(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "^The Time Machine", r.URL.Query().Get("title"))
		assert.Equal(t, "^H. G. Wells", r.URL.Query().Get("author"))
		w.Write([]byte(feedPayload))
	}))

	books, err := p.Search(context.Background(), "The Time Machine", "H. G. Wells", provider.ParsedParameters{})
	require.NoError(t, err)
	require.Len(t, books, 1)

	book := books[0]
	assert.Equal(t, "The Time Machine", book.Title)
	assert.Equal(t, "H. G. Wells", book.Author)
	assert.Equal(t, "Mark Nelson, Kara Shallenberg", book.Narrator)
	assert.Equal(t, []string{"Science Fiction"}, book.Genres)
	assert.Equal(t, "English", book.Language)
	assert.Equal(t, "1895", book.PublishedYear)
	assert.Equal(t, "https://archive.org/time_machine.jpg", book.Cover)
	require.NotNil(t, book.Duration)
	assert.Equal(t, float64(13560), *book.Duration)
	assert.NotContains(t, book.Description, "<script>")
	assert.Contains(t, book.Description, "<b>classic</b>")
}

func TestSearchCachesUpstreamPayload(t *testing.T) {
	p, hits := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedPayload))
	}))

	ctx := context.Background()
	_, err := p.Search(ctx, "The Time Machine", "", provider.ParsedParameters{})
	require.NoError(t, err)
	require.Equal(t, int64(1), hits.Load())

	books, err := p.Search(ctx, "The Time Machine", "", provider.ParsedParameters{})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, int64(1), hits.Load(), "second search should be served from cache")

	// A different limit is a different request URL and therefore a miss.
	_, err = p.Search(ctx, "The Time Machine", "", provider.ParsedParameters{"limit": float64(5)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestSearchNotFoundIsEmpty(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	books, err := p.Search(context.Background(), "No Such Book", "", provider.ParsedParameters{})
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestSearchUpstreamErrorPropagates(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := p.Search(context.Background(), "X", "", provider.ParsedParameters{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LibriVox API error: 502")
}

func TestSearchEmptyResultNotCached(t *testing.T) {
	p, hits := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"books": []}`))
	}))

	ctx := context.Background()
	_, err := p.Search(ctx, "X", "", provider.ParsedParameters{})
	require.NoError(t, err)
	_, err = p.Search(ctx, "X", "", provider.ParsedParameters{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestGetBookByID(t *testing.T) {
	p, hits := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "52", r.URL.Query().Get("id"))
		w.Write([]byte(feedPayload))
	}))

	ctx := context.Background()
	book, err := p.GetBookByID(ctx, "52", provider.ParsedParameters{})
	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Equal(t, "The Time Machine", book.Title)

	// Second lookup hits the book cache namespace.
	book, err = p.GetBookByID(ctx, "52", provider.ParsedParameters{})
	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Equal(t, int64(1), hits.Load())
}

func TestGetBookByIDMissing(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"books": []}`))
	}))

	book, err := p.GetBookByID(context.Background(), "999999", provider.ParsedParameters{})
	require.NoError(t, err)
	assert.Nil(t, book)
}

func TestProviderImplementsBookLookup(t *testing.T) {
	var p provider.Provider = New(provider.Config{ID: "librivox"})
	_, ok := p.(provider.BookLookup)
	assert.True(t, ok)
}
