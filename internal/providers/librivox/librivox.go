// file: internal/providers/librivox/librivox.go
// version: 1.0.0
// guid: 0f2a4b6c-8d9e-4f1a-8b3c-5d7e9f1a3b4c

package librivox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/absmeta/metadata-server/internal/database"
	"github.com/absmeta/metadata-server/internal/metadata"
	"github.com/absmeta/metadata-server/internal/provider"
)

const defaultBaseURL = "https://librivox.org/api/feed/audiobooks"

// Provider queries the LibriVox audiobook feed API. The raw upstream
// payload is memoized in the cache store keyed by the full request URL, so
// a mapping change doesn't require refetching.
type Provider struct {
	cfg     provider.Config
	baseURL string
	client  *http.Client
	store   database.CacheStore
}

// Option adjusts a Provider, mainly for tests.
type Option func(*Provider)

// WithBaseURL points the provider at an alternate API endpoint.
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.baseURL = u }
}

// WithStore overrides the cache store the provider memoizes into.
func WithStore(s database.CacheStore) Option {
	return func(p *Provider) { p.store = s }
}

// New builds the LibriVox provider. LIBRIVOX_BASE_URL overrides the API
// endpoint when set.
func New(cfg provider.Config, opts ...Option) *Provider {
	p := &Provider{
		cfg:     cfg,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	if v := os.Getenv("LIBRIVOX_BASE_URL"); v != "" {
		p.baseURL = v
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Config() provider.Config { return p.cfg }

func (p *Provider) cacheStore() database.CacheStore {
	if p.store != nil {
		return p.store
	}
	return database.GlobalStore
}

type apiAuthor struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type apiReader struct {
	ReaderID    string `json:"reader_id"`
	DisplayName string `json:"display_name"`
}

type apiSection struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Readers []apiReader `json:"readers"`
}

type apiGenre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type apiBook struct {
	ID                string       `json:"id"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	Language          string       `json:"language"`
	CopyrightYear     string       `json:"copyright_year"`
	TotalTimeSecs     any          `json:"totaltimesecs"`
	Authors           []apiAuthor  `json:"authors"`
	CoverartJPG       string       `json:"coverart_jpg"`
	CoverartPDF       string       `json:"coverart_pdf"`
	CoverartThumbnail string       `json:"coverart_thumbnail"`
	Sections          []apiSection `json:"sections"`
	Genres            []apiGenre   `json:"genres"`
}

type apiResponse struct {
	Books []apiBook `json:"books"`
}

func (p *Provider) Search(ctx context.Context, title, author string, params provider.ParsedParameters) ([]metadata.BookMetadata, error) {
	limit := "10"
	if n, ok := params["limit"].(float64); ok {
		limit = strconv.Itoa(int(n))
	}

	query := url.Values{}
	query.Set("format", "json")
	query.Set("extended", "1")
	query.Set("coverart", "1")
	query.Set("limit", limit)
	if title != "" {
		query.Set("title", "^"+title)
	}
	if author != "" {
		query.Set("author", "^"+author)
	}
	if genre, ok := params["genre"].(string); ok && genre != "" {
		query.Set("genre", genre)
	}

	searchURL := p.baseURL + "?" + query.Encode()

	var authorKey *string
	if author != "" {
		authorKey = &author
	}

	// The upstream payload itself is cached, keyed by the request URL.
	if store := p.cacheStore(); store != nil {
		if payload, ok, err := store.GetSearchCache(ctx, p.cfg.ID, title, authorKey, searchURL); err != nil {
			log.Printf("[WARN] librivox: cache read failed: %v", err)
		} else if ok {
			var books []apiBook
			if err := json.Unmarshal([]byte(payload), &books); err == nil {
				return p.mapBooks(books), nil
			}
		}
	}

	var decoded apiResponse
	status, err := p.getJSON(ctx, searchURL, &decoded)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return []metadata.BookMetadata{}, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("LibriVox API error: %d", status)
	}

	books := decoded.Books
	if store := p.cacheStore(); store != nil && len(books) > 0 {
		if payload, err := json.Marshal(books); err == nil {
			if err := store.SetSearchCache(p.cfg.ID, title, authorKey, searchURL, string(payload)); err != nil {
				log.Printf("[WARN] librivox: cache write failed: %v", err)
			}
		}
	}

	return p.mapBooks(books), nil
}

// GetBookByID looks a single book up by its LibriVox id. A missing book is
// (nil, nil), not an error.
func (p *Provider) GetBookByID(ctx context.Context, bookID string, _ provider.ParsedParameters) (*metadata.BookMetadata, error) {
	bookURL := fmt.Sprintf("%s?id=%s&format=json&extended=1&coverart=1", p.baseURL, url.QueryEscape(bookID))

	if store := p.cacheStore(); store != nil {
		if payload, ok, err := store.GetBookCache(ctx, p.cfg.ID, bookURL); err != nil {
			log.Printf("[WARN] librivox: book cache read failed: %v", err)
		} else if ok {
			var book apiBook
			if err := json.Unmarshal([]byte(payload), &book); err == nil {
				meta := p.mapBook(book)
				return &meta, nil
			}
		}
	}

	var decoded apiResponse
	status, err := p.getJSON(ctx, bookURL, &decoded)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK || len(decoded.Books) == 0 {
		return nil, nil
	}

	book := decoded.Books[0]
	if store := p.cacheStore(); store != nil {
		if payload, err := json.Marshal(book); err == nil {
			if err := store.SetBookCache(p.cfg.ID, bookURL, string(payload)); err != nil {
				log.Printf("[WARN] librivox: book cache write failed: %v", err)
			}
		}
	}

	meta := p.mapBook(book)
	return &meta, nil
}

// getJSON fetches target and decodes the body on a 200. The status code is
// always returned so callers can distinguish 404 from other failures.
func (p *Provider) getJSON(ctx context.Context, target string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decoding LibriVox response: %w", err)
	}
	return resp.StatusCode, nil
}

func (p *Provider) mapBooks(books []apiBook) []metadata.BookMetadata {
	out := make([]metadata.BookMetadata, 0, len(books))
	for _, book := range books {
		out = append(out, p.mapBook(book))
	}
	return out
}

func (p *Provider) mapBook(book apiBook) metadata.BookMetadata {
	authors := make([]string, 0, len(book.Authors))
	for _, a := range book.Authors {
		name := strings.TrimSpace(a.FirstName + " " + a.LastName)
		if name != "" {
			authors = append(authors, name)
		}
	}

	// Readers are collected across sections, deduplicated, in first-seen
	// order.
	seen := map[string]bool{}
	var readers []string
	for _, section := range book.Sections {
		for _, reader := range section.Readers {
			if reader.DisplayName == "" || seen[reader.DisplayName] {
				continue
			}
			seen[reader.DisplayName] = true
			readers = append(readers, reader.DisplayName)
		}
	}

	var genres []any
	for _, g := range book.Genres {
		if g.Name != "" {
			genres = append(genres, g.Name)
		}
	}

	cover := book.CoverartJPG
	if cover == "" {
		cover = book.CoverartThumbnail
	}
	if cover == "" {
		cover = book.CoverartPDF
	}

	record := map[string]any{
		"title":         book.Title,
		"author":        strings.Join(authors, ", "),
		"description":   book.Description,
		"cover":         cover,
		"language":      book.Language,
		"publishedYear": book.CopyrightYear,
	}
	if len(readers) > 0 {
		record["narrator"] = strings.Join(readers, ", ")
	}
	if len(genres) > 0 {
		record["genres"] = genres
	}
	// Upstream reports totaltimesecs as a number or a numeric string
	// depending on the endpoint; the normalizer coerces both.
	if book.TotalTimeSecs != nil {
		record["duration"] = book.TotalTimeSecs
	}

	return metadata.Normalize(record)
}
