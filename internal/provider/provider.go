// file: internal/provider/provider.go
// version: 1.0.0
// guid: 5a8b1c3d-7e9f-4a2b-8c4d-6e0f2a9b5c7d

package provider

import (
	"context"

	"github.com/absmeta/metadata-server/internal/metadata"
)

// ValidationRule is a tagged union over the supported parameter validation
// types. Exactly one tag is active; which payload fields matter depends on
// it. Bounds are inclusive and optional on either side.
type ValidationRule struct {
	Type    string   `json:"type"` // "enum", "regex", "number", "int" or "string"
	Values  []string `json:"values,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
}

// Parameter declares one path parameter a provider accepts.
type Parameter struct {
	Name        string         `json:"name"`
	Required    bool           `json:"required"`
	Validation  ValidationRule `json:"validation"`
	Description string         `json:"description,omitempty"`
}

// Config is the immutable descriptor loaded from a provider directory's
// config.json. It is read once at load time and never mutated.
type Config struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Available      *bool       `json:"available,omitempty"`
	Description    string      `json:"description"`
	URL            string      `json:"url"`
	Parameters     []Parameter `json:"parameters"`
	ReturnedFields []string    `json:"returnedFields"`
	Comments       []string    `json:"comments"`
	RequiredEnv    []string    `json:"requiredEnv,omitempty"`
}

// IsAvailable reports whether the config is marked usable. Absence of the
// flag means available.
func (c Config) IsAvailable() bool {
	return c.Available == nil || *c.Available
}

// ParsedParameters maps parameter names to their typed values: string for
// enum/regex/string rules, float64 for number/int rules. It only ever
// contains names declared in the provider's parameter list.
type ParsedParameters map[string]any

// Provider is the capability contract each metadata source implements.
type Provider interface {
	// Config returns the provider's descriptor. Pure accessor.
	Config() Config

	// Search queries the upstream source. author is empty when the caller
	// supplied none. Transport and upstream-status failures are returned
	// as-is for the caller to surface.
	Search(ctx context.Context, title, author string, params ParsedParameters) ([]metadata.BookMetadata, error)
}

// BookLookup is the optional direct-lookup capability. Callers probe for it
// with a type assertion; a provider not implementing it is "unsupported",
// not an error. A nil result with nil error means no such book.
type BookLookup interface {
	GetBookByID(ctx context.Context, bookID string, params ParsedParameters) (*metadata.BookMetadata, error)
}
