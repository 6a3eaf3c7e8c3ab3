// file: internal/providers/audioteka/audioteka.go
// version: 1.0.0
// guid: 4d6e8f0a-2b3c-4d5e-9f7a-1b3c5d7e9f0a

package audioteka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/absmeta/metadata-server/internal/database"
	"github.com/absmeta/metadata-server/internal/metadata"
	"github.com/absmeta/metadata-server/internal/provider"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const maxResults = 20

// Provider scrapes the Audioteka regional storefronts. There is no public
// API: results come from the search page, then each match's detail page.
// A detail fetch failure degrades that match to its search-card data
// instead of failing the whole search.
type Provider struct {
	cfg       provider.Config
	client    *http.Client
	store     database.CacheStore
	languages map[string]langConfig
}

// Option adjusts a Provider, mainly for tests.
type Option func(*Provider)

// WithStore overrides the cache store the provider memoizes into.
func WithStore(s database.CacheStore) Option {
	return func(p *Provider) { p.store = s }
}

// WithLanguage installs or replaces one storefront config.
func WithLanguage(lang string, lc langConfig) Option {
	return func(p *Provider) { p.languages[lang] = lc }
}

// New builds the Audioteka provider.
func New(cfg provider.Config, opts ...Option) *Provider {
	p := &Provider{
		cfg:       cfg,
		client:    &http.Client{Timeout: 30 * time.Second},
		languages: make(map[string]langConfig, len(languages)),
	}
	for k, v := range languages {
		p.languages[k] = v
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

func (p *Provider) Search(ctx context.Context, title, author string, params provider.ParsedParameters) ([]metadata.BookMetadata, error) {
	lang, _ := params["lang"].(string)
	lc, ok := p.languages[lang]
	if !ok {
		return nil, fmt.Errorf("Unsupported language: %s", lang)
	}

	limit := 5
	if n, ok := params["limit"].(float64); ok && n > 0 {
		limit = int(n)
	}
	if limit > maxResults {
		limit = maxResults
	}

	searchURL := lc.SearchURL + "?phrase=" + url.QueryEscape(title)
	cacheKey := searchURL + "_" + lang

	var authorKey *string
	if author != "" {
		authorKey = &author
	}

	var matches []searchMatch
	if store := p.cacheStore(); store != nil {
		if payload, hit, err := store.GetSearchCache(ctx, p.cfg.ID, title, authorKey, cacheKey); err != nil {
			log.Printf("[WARN] audioteka: cache read failed: %v", err)
		} else if hit {
			_ = json.Unmarshal([]byte(payload), &matches)
		}
	}

	if len(matches) == 0 {
		doc, status, err := p.fetchPage(ctx, searchURL, lc)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			log.Printf("[WARN] audioteka: search returned status %d for query %q", status, title)
			return []metadata.BookMetadata{}, nil
		}
		matches = parseSearchResults(doc)

		if store := p.cacheStore(); store != nil && len(matches) > 0 {
			if payload, err := json.Marshal(matches); err == nil {
				if err := store.SetSearchCache(p.cfg.ID, title, authorKey, cacheKey, string(payload)); err != nil {
					log.Printf("[WARN] audioteka: cache write failed: %v", err)
				}
			}
		}
	}

	if len(matches) > limit {
		matches = matches[:limit]
	}

	books := make([]metadata.BookMetadata, 0, len(matches))
	for _, match := range matches {
		full, err := p.fetchBookDetails(ctx, match, lc)
		if err != nil {
			log.Printf("[WARN] audioteka: detail fetch failed for %q: %v", match.Title, err)
			full = fullMetadata{searchMatch: match, Language: lc.LanguageName}
		}
		book := mapToBookMetadata(full)
		if book.Title != "" {
			books = append(books, book)
		}
	}

	return books, nil
}

// fetchBookDetails loads a match's detail page, memoized per URL in the
// search-cache namespace.
func (p *Provider) fetchBookDetails(ctx context.Context, match searchMatch, lc langConfig) (fullMetadata, error) {
	cacheKey := "detail_" + match.URL

	if store := p.cacheStore(); store != nil {
		if payload, hit, err := store.GetSearchCache(ctx, p.cfg.ID, match.ID, nil, cacheKey); err == nil && hit {
			var full fullMetadata
			if err := json.Unmarshal([]byte(payload), &full); err == nil {
				return full, nil
			}
		}
	}

	doc, status, err := p.fetchPage(ctx, match.URL, lc)
	if err != nil {
		return fullMetadata{}, err
	}
	if status != http.StatusOK {
		return fullMetadata{}, fmt.Errorf("failed to fetch book details: %d", status)
	}

	full := parseBookDetails(doc, match, lc)

	if store := p.cacheStore(); store != nil {
		if payload, err := json.Marshal(full); err == nil {
			if err := store.SetSearchCache(p.cfg.ID, match.ID, nil, cacheKey, string(payload)); err != nil {
				log.Printf("[WARN] audioteka: detail cache write failed: %v", err)
			}
		}
	}

	return full, nil
}

func (p *Provider) fetchPage(ctx context.Context, target string, lc langConfig) (*goquery.Document, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", lc.AcceptLanguage)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("parsing page: %w", err)
	}
	return doc, resp.StatusCode, nil
}

func mapToBookMetadata(full fullMetadata) metadata.BookMetadata {
	record := map[string]any{
		"title":       full.Title,
		"author":      strings.Join(full.Authors, ", "),
		"narrator":    full.Narrator,
		"publisher":   full.Publisher,
		"description": full.Description,
		"cover":       full.Cover,
		"language":    full.Language,
	}
	if len(full.Genres) > 0 {
		record["genres"] = full.Genres
	}
	// Series names double as tags, matching what the storefront exposes.
	if len(full.Series) > 0 {
		record["tags"] = full.Series
	}
	if full.Duration != nil {
		record["duration"] = *full.Duration
	}
	return metadata.Normalize(record)
}
