// file: internal/docsgen/docsgen_test.go
// version: 1.0.0
// guid: 9c1d3e5f-7a8b-4c0d-9e2f-4a6b8c0d2e3f

package docsgen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmeta/metadata-server/internal/provider"
)

func writeConfig(t *testing.T, root, dir, content string) {
	t.Helper()
	full := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(full, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(full, "config.json"), []byte(content), 0o644))
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "zeta", `{
		"id": "zeta",
		"name": "Zeta Books",
		"description": "Test provider.",
		"url": "https://zeta.example",
		"parameters": [
			{"name": "lang", "required": true, "validation": {"type": "enum", "values": ["en", "de"]}, "description": "Language"},
			{"name": "limit", "required": false, "validation": {"type": "int", "min": 1, "max": 50}}
		],
		"returnedFields": ["title", "author"],
		"comments": ["A comment."]
	}`)
	writeConfig(t, root, "alpha", `{
		"id": "alpha",
		"name": "Alpha Audio",
		"description": "Another provider.",
		"url": "https://alpha.example",
		"parameters": [],
		"returnedFields": [],
		"comments": []
	}`)
	writeConfig(t, root, "hidden", `{
		"id": "hidden",
		"name": "Hidden",
		"available": false,
		"description": "Disabled.",
		"url": "https://hidden.example",
		"parameters": [],
		"returnedFields": [],
		"comments": []
	}`)
	writeConfig(t, root, "broken", `{not json`)

	out := filepath.Join(t.TempDir(), "Providers.md")
	count, err := Generate(root, out)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	doc := string(raw)

	assert.Contains(t, doc, "# Metadata Providers")
	assert.Contains(t, doc, "Total Providers: 2")

	// Sorted by name: Alpha before Zeta.
	assert.Less(t,
		strings.Index(doc, "## Alpha Audio"),
		strings.Index(doc, "## Zeta Books"))

	assert.Contains(t, doc, "- [Alpha Audio](#alpha)")
	assert.Contains(t, doc, "| `lang` | enum | [en, de] | Language |")
	assert.Contains(t, doc, "| `limit` | int | 1-50 | - |")
	assert.Contains(t, doc, "GET /zeta/lang:en/search?title=example&author=author")
	assert.Contains(t, doc, "GET /alpha/search?title=example&author=author")
	assert.Contains(t, doc, "No parameters required.")
	assert.Contains(t, doc, "- A comment.")
	assert.NotContains(t, doc, "Hidden")
}

func TestGenerateMissingDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "Providers.md")
	_, err := Generate(filepath.Join(t.TempDir(), "missing"), out)
	require.Error(t, err)
}

func TestFormatValidation(t *testing.T) {
	min, max := 1.0, 10.5

	assert.Equal(t, "≥ 1", formatValidation(provider.ValidationRule{Type: "int", Min: &min}))
	assert.Equal(t, "≤ 10.5", formatValidation(provider.ValidationRule{Type: "number", Max: &max}))
	assert.Equal(t, "1-10.5 chars", formatValidation(provider.ValidationRule{Type: "string", Min: &min, Max: &max}))
	assert.Equal(t, "-", formatValidation(provider.ValidationRule{Type: "enum"}))
	assert.Equal(t, "`^[a-z]+$`", formatValidation(provider.ValidationRule{Type: "regex", Pattern: "^[a-z]+$"}))
}
