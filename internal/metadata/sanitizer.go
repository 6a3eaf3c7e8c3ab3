// file: internal/metadata/sanitizer.go
// version: 1.0.0
// guid: 7c2d9e4f-1a6b-4c8d-9e0f-3b5a7d1c8e2f

package metadata

import "github.com/microcosm-cc/bluemonday"

// descriptionPolicy keeps basic inline and structural markup and nothing
// else. Disallowed tags are stripped, their text content kept. No attributes
// survive on any tag.
var descriptionPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "i", "em", "strong", "p", "br", "ul", "ol", "li")
	return p
}()

// SanitizeDescription reduces provider HTML to the allowed tag set.
func SanitizeDescription(html string) string {
	return descriptionPolicy.Sanitize(html)
}
