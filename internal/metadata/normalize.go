// file: internal/metadata/normalize.go
// version: 1.1.0
// guid: 9b4c7d2e-5f8a-4b1c-a3d6-0e9f4c2b7a5d

package metadata

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Normalize turns an arbitrary provider-shaped record into BookMetadata.
// It never fails: each field that cannot be validated degrades to absent.
// Title is the one exception and falls back to the empty string, since
// downstream consumers key on a truthy title to decide whether a result is
// usable.
func Normalize(data map[string]any) BookMetadata {
	meta := BookMetadata{
		Title:         stringOrEmpty(data["title"]),
		Subtitle:      stringOrEmpty(data["subtitle"]),
		Author:        stringOrEmpty(data["author"]),
		Narrator:      stringOrEmpty(data["narrator"]),
		Publisher:     stringOrEmpty(data["publisher"]),
		PublishedYear: stringOrEmpty(data["publishedYear"]),
		Cover:         stringOrEmpty(data["cover"]),
		ISBN:          stringOrEmpty(data["isbn"]),
		ASIN:          stringOrEmpty(data["asin"]),
		Language:      stringOrEmpty(data["language"]),
		Genres:        stringSlice(data["genres"]),
		Tags:          stringSlice(data["tags"]),
		Series:        seriesEntries(data["series"]),
		Duration:      finiteNumber(data["duration"]),
	}

	if desc, ok := data["description"].(string); ok {
		meta.Description = strings.TrimSpace(SanitizeDescription(desc))
	}

	return meta
}

// stringOrEmpty trims string values; anything else, or an empty trim result,
// collapses to "".
func stringOrEmpty(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// stringSlice accepts only homogeneous string arrays. A single non-string
// element invalidates the whole array.
func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		return nil
	}
}

// seriesEntries validates each entry independently and drops invalid ones.
// An empty remainder means the whole field is absent.
func seriesEntries(v any) []SeriesEntry {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]SeriesEntry, 0, len(items))
	for _, item := range items {
		switch e := item.(type) {
		case SeriesEntry:
			if name := strings.TrimSpace(e.Series); name != "" {
				out = append(out, SeriesEntry{Series: name, Sequence: strings.TrimSpace(e.Sequence)})
			}
		case map[string]any:
			name := stringOrEmpty(e["series"])
			if name == "" {
				continue
			}
			out = append(out, SeriesEntry{Series: name, Sequence: stringOrEmpty(e["sequence"])})
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// finiteNumber coerces numeric-looking values to seconds. NaN, infinities
// and anything non-numeric drop the field.
func finiteNumber(v any) *float64 {
	var n float64
	switch vv := v.(type) {
	case float64:
		n = vv
	case float32:
		n = float64(vv)
	case int:
		n = float64(vv)
	case int64:
		n = float64(vv)
	case json.Number:
		f, err := vv.Float64()
		if err != nil {
			return nil
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(vv), 64)
		if err != nil {
			return nil
		}
		n = f
	default:
		return nil
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}

// ParamsHash produces the content-addressed identity of a parsed parameter
// set: keys sorted, joined as k=v with &, md5 over the result. Numeric
// values render without a trailing ".0" so 5 and "5" collide the same way
// they did before parsing.
func ParamsHash(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+paramValueString(params[k]))
	}
	return fmt.Sprintf("%x", md5.Sum([]byte(strings.Join(parts, "&"))))
}

func paramValueString(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case int:
		return strconv.Itoa(vv)
	default:
		return fmt.Sprintf("%v", vv)
	}
}
