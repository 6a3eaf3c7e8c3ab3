// file: internal/providers/example/example.go
// version: 1.0.0
// guid: 8d0e2f4a-6b7c-4d9e-8f1a-3b5c7d9e1f2a

package example

import (
	"context"
	"fmt"

	"github.com/absmeta/metadata-server/internal/metadata"
	"github.com/absmeta/metadata-server/internal/provider"
)

// Provider is a deterministic mock source. It fabricates up to three
// results from the query itself, exercising every canonical metadata field
// without touching the network. Useful as the reference implementation and
// in tests.
type Provider struct {
	cfg provider.Config
}

// New builds the mock provider from its config document.
func New(cfg provider.Config) *Provider {
	return &Provider{cfg: cfg}
}

func (p *Provider) Config() provider.Config { return p.cfg }

func (p *Provider) Search(_ context.Context, title, author string, params provider.ParsedParameters) ([]metadata.BookMetadata, error) {
	lang, _ := params["lang"].(string)

	limit := 10
	if n, ok := params["limit"].(float64); ok && n > 0 {
		limit = int(n)
	}
	if limit > 3 {
		limit = 3
	}

	books := make([]metadata.BookMetadata, 0, limit)
	for i := 0; i < limit; i++ {
		books = append(books, metadata.Normalize(p.mockBook(title, author, lang, i)))
	}
	return books, nil
}

func (p *Provider) mockBook(title, author, lang string, i int) map[string]any {
	bookTitle := title
	if i > 0 {
		bookTitle = fmt.Sprintf("%s %d", title, i+1)
	}
	if author == "" {
		author = "Unknown Author"
	}

	narrator := "Jane Narrator"
	genre := "Fantasy"
	if i%2 != 0 {
		narrator = "John Narrator"
		genre = "Science Fiction"
	}

	book := map[string]any{
		"title":         bookTitle,
		"author":        author,
		"narrator":      narrator,
		"publisher":     "Example Publishing House",
		"publishedYear": fmt.Sprintf("%d", 2020+i),
		"description":   fmt.Sprintf("<p>This is a <strong>mock description</strong> for %s. Language: %s</p>", title, lang),
		"cover":         fmt.Sprintf("https://example.com/covers/%d.jpg", i),
		"isbn":          fmt.Sprintf("978%09d", 100000007*(i+1)),
		"asin":          fmt.Sprintf("B%09dX", 42+i),
		"genres":        []any{"Fiction", genre},
		"tags":          []any{"bestseller", "award-winning"},
		"language":      lang,
		"duration":      float64(3600 * (8 + i)),
	}
	if i == 0 {
		book["subtitle"] = "The Beginning"
		book["series"] = []any{map[string]any{"series": title + " Series", "sequence": "1"}}
	}
	return book
}
