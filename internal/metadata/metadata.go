// file: internal/metadata/metadata.go
// version: 1.0.0
// guid: 3f8a1b2c-9d4e-4f6a-8b0c-5d7e2f1a6b3c

package metadata

// SeriesEntry is one series membership of a book. Sequence stays a string so
// entries like "1.5" or "Book One" survive untouched.
type SeriesEntry struct {
	Series   string `json:"series"`
	Sequence string `json:"sequence,omitempty"`
}

// BookMetadata is the canonical, source-agnostic shape every provider maps
// its results into. Title is always present (possibly empty); every other
// field is either a validated non-empty value or omitted entirely.
type BookMetadata struct {
	Title         string        `json:"title"`
	Subtitle      string        `json:"subtitle,omitempty"`
	Author        string        `json:"author,omitempty"`
	Narrator      string        `json:"narrator,omitempty"`
	Publisher     string        `json:"publisher,omitempty"`
	PublishedYear string        `json:"publishedYear,omitempty"`
	Description   string        `json:"description,omitempty"`
	Cover         string        `json:"cover,omitempty"`
	ISBN          string        `json:"isbn,omitempty"`
	ASIN          string        `json:"asin,omitempty"`
	Genres        []string      `json:"genres,omitempty"`
	Tags          []string      `json:"tags,omitempty"`
	Series        []SeriesEntry `json:"series,omitempty"`
	Language      string        `json:"language,omitempty"`
	Duration      *float64      `json:"duration,omitempty"`
}

// SearchResult is the wire shape of a successful search response.
type SearchResult struct {
	Matches []BookMetadata `json:"matches"`
}
