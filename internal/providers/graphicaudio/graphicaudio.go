// file: internal/providers/graphicaudio/graphicaudio.go
// version: 1.0.0
// guid: 6f8a0b2c-4d5e-4f7a-9b1c-3d5e7f9a1b2c

package graphicaudio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/absmeta/metadata-server/internal/cache"
	"github.com/absmeta/metadata-server/internal/metadata"
	"github.com/absmeta/metadata-server/internal/provider"
)

const defaultCatalogURL = "https://github.com/binyaminyblatt/graphicaudio_scraper/raw/refs/heads/main/results.json"

const (
	catalogFileName = "graphicaudio_catalog.json"
	catalogMaxAge   = 24 * time.Hour
	catalogCacheKey = "catalog"
)

// book is one catalog entry. The upstream scrape is loosely typed, so every
// string field is trimmed and empty values dropped on load.
type book struct {
	Link          string   `json:"link,omitempty"`
	Cover         string   `json:"cover,omitempty"`
	SeriesName    string   `json:"seriesName,omitempty"`
	Title         string   `json:"title,omitempty"`
	RawTitle      string   `json:"rawtitle,omitempty"`
	EpisodeNumber *float64 `json:"episodeNumber,omitempty"`
	EpisodePart   string   `json:"episodePart,omitempty"`
	EpisodeCode   string   `json:"episodeCode,omitempty"`
	TotalParts    string   `json:"totalParts,omitempty"`
	Subtitle      string   `json:"subtitle,omitempty"`
	Author        string   `json:"author,omitempty"`
	ReleaseDate   string   `json:"releaseDate,omitempty"`
	ISBN          string   `json:"isbn,omitempty"`
	Genre         string   `json:"genre,omitempty"`
	Description   string   `json:"description,omitempty"`
	Copyright     string   `json:"copyright,omitempty"`
	Cast          []string `json:"cast,omitempty"`
	ASIN          string   `json:"asin,omitempty"`
}

// Provider serves GraphicAudio dramatized audiobooks from a periodically
// refreshed full-catalog dump. The catalog lives in memory with a 24h
// max-age, backed by an on-disk copy that survives restarts; when a refresh
// fails, the last good catalog (disk or stale memory) keeps serving.
type Provider struct {
	cfg        provider.Config
	client     *http.Client
	catalogURL string
	dataDir    string
	mem        *cache.Cache[[]book]
}

// Option adjusts a Provider, mainly for tests.
type Option func(*Provider)

// WithCatalogURL points the provider at an alternate catalog dump.
func WithCatalogURL(u string) Option {
	return func(p *Provider) { p.catalogURL = u }
}

// New builds the GraphicAudio provider. dataDir is where the on-disk
// catalog copy is kept.
func New(cfg provider.Config, dataDir string, opts ...Option) *Provider {
	p := &Provider{
		cfg:        cfg,
		client:     &http.Client{Timeout: 60 * time.Second},
		catalogURL: defaultCatalogURL,
		dataDir:    dataDir,
		mem:        cache.New[[]book](catalogMaxAge),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Config() provider.Config { return p.cfg }

func (p *Provider) catalogPath() string {
	return filepath.Join(p.dataDir, catalogFileName)
}

// loadCatalog returns a usable catalog, refreshing it when the in-memory
// copy is older than the max age. Freshness order: memory, disk file
// younger than max age, download. A failed download falls back to whatever
// older copy exists.
func (p *Provider) loadCatalog(ctx context.Context) ([]book, error) {
	if books, present, fresh := p.mem.GetStale(catalogCacheKey); present && fresh {
		return books, nil
	}

	if err := os.MkdirAll(p.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	path := p.catalogPath()
	if info, err := os.Stat(path); err == nil && time.Since(info.ModTime()) < catalogMaxAge {
		if books, err := p.readCatalogFile(path); err == nil {
			p.mem.Set(catalogCacheKey, books)
			return books, nil
		} else {
			log.Printf("[WARN] graphicaudio: unreadable catalog file, redownloading: %v", err)
		}
	}

	books, err := p.downloadCatalog(ctx)
	if err != nil {
		// Any older copy beats failing the search.
		if fallback, readErr := p.readCatalogFile(path); readErr == nil {
			log.Printf("[WARN] graphicaudio: catalog refresh failed, using on-disk copy: %v", err)
			p.mem.Set(catalogCacheKey, fallback)
			return fallback, nil
		}
		if stale, present, _ := p.mem.GetStale(catalogCacheKey); present {
			log.Printf("[WARN] graphicaudio: catalog refresh failed, using stale catalog: %v", err)
			return stale, nil
		}
		return nil, err
	}

	if encoded, err := json.Marshal(books); err == nil {
		if err := os.WriteFile(path, encoded, 0o644); err != nil {
			log.Printf("[WARN] graphicaudio: cannot persist catalog: %v", err)
		}
	}
	p.mem.Set(catalogCacheKey, books)
	return books, nil
}

func (p *Provider) downloadCatalog(ctx context.Context) ([]book, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.catalogURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("failed to download GraphicAudio catalog: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return parseCatalog(raw)
}

func (p *Provider) readCatalogFile(path string) ([]book, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseCatalog(raw)
}

// parseCatalog decodes and scrubs the catalog dump. A non-array payload is
// rejected outright; individual entries are trimmed field by field.
func parseCatalog(raw []byte) ([]book, error) {
	var books []book
	if err := json.Unmarshal(raw, &books); err != nil {
		return nil, fmt.Errorf("invalid GraphicAudio catalog: %w", err)
	}
	for i := range books {
		books[i].scrub()
	}
	return books, nil
}

func (b *book) scrub() {
	b.Link = strings.TrimSpace(b.Link)
	b.Cover = strings.TrimSpace(b.Cover)
	b.SeriesName = strings.TrimSpace(b.SeriesName)
	b.Title = strings.TrimSpace(b.Title)
	b.RawTitle = strings.TrimSpace(b.RawTitle)
	b.EpisodePart = strings.TrimSpace(b.EpisodePart)
	b.EpisodeCode = strings.TrimSpace(b.EpisodeCode)
	b.TotalParts = strings.TrimSpace(b.TotalParts)
	b.Subtitle = strings.TrimSpace(b.Subtitle)
	b.Author = strings.TrimSpace(b.Author)
	b.ReleaseDate = strings.TrimSpace(b.ReleaseDate)
	b.ISBN = strings.TrimSpace(b.ISBN)
	b.Genre = strings.TrimSpace(b.Genre)
	b.Description = strings.TrimSpace(b.Description)
	b.Copyright = strings.TrimSpace(b.Copyright)
	b.ASIN = strings.TrimSpace(b.ASIN)
}

func (p *Provider) Search(ctx context.Context, title, author string, params provider.ParsedParameters) ([]metadata.BookMetadata, error) {
	limit := 10
	if n, ok := params["limit"].(float64); ok && n > 0 {
		limit = int(n)
	}

	catalog, err := p.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	titleLower := strings.ToLower(title)
	authorLower := strings.ToLower(author)

	var out []metadata.BookMetadata
	for i := range catalog {
		b := &catalog[i]
		if b.Title == "" || !matchesTitle(b, titleLower) {
			continue
		}
		if authorLower != "" && !strings.Contains(strings.ToLower(b.Author), authorLower) {
			continue
		}
		out = append(out, mapToMetadata(b))
		if len(out) >= limit {
			break
		}
	}
	if out == nil {
		out = []metadata.BookMetadata{}
	}
	return out, nil
}

// matchesTitle accepts substring hits on title, raw title or series name,
// plus fuzzy subsequence hits on the title for typo tolerance.
func matchesTitle(b *book, titleLower string) bool {
	if strings.Contains(strings.ToLower(b.Title), titleLower) ||
		strings.Contains(strings.ToLower(b.RawTitle), titleLower) ||
		strings.Contains(strings.ToLower(b.SeriesName), titleLower) {
		return true
	}
	return fuzzy.MatchNormalizedFold(titleLower, b.Title)
}

// GetBookByID resolves a catalog entry by ISBN or ASIN.
func (p *Provider) GetBookByID(ctx context.Context, bookID string, _ provider.ParsedParameters) (*metadata.BookMetadata, error) {
	catalog, err := p.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	for i := range catalog {
		b := &catalog[i]
		if (b.ISBN != "" && b.ISBN == bookID) || (b.ASIN != "" && b.ASIN == bookID) {
			meta := mapToMetadata(b)
			return &meta, nil
		}
	}
	return nil, nil
}

// releaseDateLayouts covers the formats seen in catalog dumps.
var releaseDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/2006",
}

func publishedYear(releaseDate string) string {
	for _, layout := range releaseDateLayouts {
		if ts, err := time.Parse(layout, releaseDate); err == nil {
			return fmt.Sprintf("%d", ts.Year())
		}
	}
	return ""
}

func mapToMetadata(b *book) metadata.BookMetadata {
	var narrators []string
	for _, c := range b.Cast {
		if c == "Narrator" {
			continue
		}
		narrators = append(narrators, c)
		if len(narrators) == 10 {
			break
		}
	}

	record := map[string]any{
		"title":       b.Title,
		"subtitle":    b.Subtitle,
		"author":      b.Author,
		"narrator":    strings.Join(narrators, ", "),
		"description": b.Description,
		"cover":       b.Cover,
		"isbn":        b.ISBN,
		"asin":        b.ASIN,
	}
	if b.Genre != "" {
		record["genres"] = []string{b.Genre}
	}
	if b.ReleaseDate != "" {
		record["publishedYear"] = publishedYear(b.ReleaseDate)
	}
	if b.SeriesName != "" {
		entry := map[string]any{"series": b.SeriesName}
		if b.EpisodeNumber != nil {
			entry["sequence"] = fmt.Sprintf("%g", *b.EpisodeNumber)
		}
		record["series"] = []any{entry}
	}

	return metadata.Normalize(record)
}
