// file: internal/providers/audioteka/utils.go
// version: 1.0.0
// guid: 3c5d7e9f-1a2b-4c4d-8e6f-0a2b4c6d8e9f

package audioteka

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// baseURL prefixes the relative hrefs on search cards. Variable so tests
// can point it at a local server.
var baseURL = "https://audioteka.com"

// cleanCoverURL drops resize query parameters from a cover image URL.
func cleanCoverURL(u string) string {
	if i := strings.Index(u, "?"); i >= 0 {
		return u[:i]
	}
	return u
}

// durationPattern matches "10 godz. 30 min" style strings: an optional
// hours group and an optional minutes group, each a number followed by a
// localized unit word.
var durationPattern = regexp.MustCompile(`^(?:(\d+)\s+[^\d\s]+)?\s*(?:(\d+)\s+[^\d\s]+)?$`)

// parseDuration converts a localized "N unit M unit" string to minutes.
func parseDuration(s string) *float64 {
	if s == "" {
		return nil
	}
	m := durationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	total := float64(hours*60 + minutes)
	if total <= 0 {
		return nil
	}
	return &total
}

// extractLabeledValue pulls the value cell matching one of the given
// labels. The detail page has shipped three different layouts over time
// (tables, definition lists, labeled divs), so all are probed in order.
// With findLinks set, anchor texts inside the value win over its full text.
func extractLabeledValue(doc *goquery.Document, labels []string, findLinks bool) string {
	for _, label := range labels {
		var value string
		doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			if strings.TrimSpace(row.Find("td:first-child").Text()) != label {
				return true
			}
			cell := row.Find("td:last-child")
			value = cellText(cell, findLinks)
			return value == ""
		})
		if value != "" {
			return value
		}
	}

	for _, label := range labels {
		var value string
		doc.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
			if strings.TrimSpace(dt.Text()) != label {
				return true
			}
			value = cellText(dt.Next(), findLinks)
			return value == ""
		})
		if value != "" {
			return value
		}
	}

	for _, label := range labels {
		var value string
		doc.Find(".product-detail-item").EachWithBreak(func(_ int, item *goquery.Selection) bool {
			if strings.TrimSpace(item.Find(".label").Text()) != label {
				return true
			}
			value = cellText(item.Find(".value"), findLinks)
			return value == ""
		})
		if value != "" {
			return value
		}
	}

	return ""
}

func cellText(cell *goquery.Selection, findLinks bool) string {
	if findLinks {
		links := cell.Find("a")
		if links.Length() > 0 {
			return joinTexts(links)
		}
	}
	return strings.TrimSpace(cell.Text())
}

func joinTexts(sel *goquery.Selection) string {
	parts := sel.Map(func(_ int, s *goquery.Selection) string {
		return strings.TrimSpace(s.Text())
	})
	return strings.Join(parts, ", ")
}

// extractLabeledArray collects the anchor texts of the value cell matching
// one of the labels, probing the same three layouts.
func extractLabeledArray(doc *goquery.Document, labels []string) []string {
	for _, label := range labels {
		var values []string
		doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
			if strings.TrimSpace(row.Find("td:first-child").Text()) != label {
				return
			}
			values = append(values, anchorTexts(row.Find("td:last-child a"))...)
		})
		if len(values) > 0 {
			return values
		}
	}

	for _, label := range labels {
		var values []string
		doc.Find("dt").Each(func(_ int, dt *goquery.Selection) {
			if strings.TrimSpace(dt.Text()) != label {
				return
			}
			values = anchorTexts(dt.Next().Find("a"))
		})
		if len(values) > 0 {
			return values
		}
	}

	for _, label := range labels {
		var values []string
		doc.Find(".product-detail-item").Each(func(_ int, item *goquery.Selection) {
			if strings.TrimSpace(item.Find(".label").Text()) != label {
				return
			}
			values = append(values, anchorTexts(item.Find(".value a"))...)
		})
		if len(values) > 0 {
			return values
		}
	}

	return nil
}

func anchorTexts(sel *goquery.Selection) []string {
	return sel.Map(func(_ int, s *goquery.Selection) string {
		return strings.TrimSpace(s.Text())
	})
}

// parseSearchResults extracts the book cards from a search results page.
// Cards missing a title, link or author are skipped.
func parseSearchResults(doc *goquery.Document) []searchMatch {
	var matches []searchMatch

	doc.Find(".adtk-item.teaser_teaser__FDajW").Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find(".teaser_title__hDeCG").Text())
		bookPath, _ := card.Find(".teaser_link__fxVFQ").Attr("href")
		bookURL := ""
		if bookPath != "" {
			bookURL = baseURL + bookPath
		}
		author := strings.TrimSpace(card.Find(".teaser_author__LWTRi").Text())
		cover, _ := card.Find(".teaser_coverImage__YMrBt").Attr("src")

		var rating *float64
		if r, err := strconv.ParseFloat(strings.TrimSpace(card.Find(".teaser-footer_rating__TeVOA").Text()), 64); err == nil && r > 0 {
			rating = &r
		}

		id, ok := card.Attr("data-item-id")
		if !ok || id == "" {
			segments := strings.Split(bookURL, "/")
			id = segments[len(segments)-1]
		}

		if title == "" || bookURL == "" || author == "" {
			return
		}
		matches = append(matches, searchMatch{
			ID:      id,
			Title:   title,
			Authors: []string{author},
			URL:     bookURL,
			Cover:   cleanCoverURL(cover),
			Rating:  rating,
		})
	})

	return matches
}

// narratorRunPattern finds a lowercase letter glued to an uppercase one,
// the artifact of anchor texts concatenated without separators.
var narratorRunPattern = regexp.MustCompile(`(\p{Ll})(\p{Lu})`)

// splitNarratorRuns inserts ", " between concatenated narrator names. Only
// applied when the value carries no separator already.
func splitNarratorRuns(narrator string) string {
	if strings.Contains(narrator, ",") {
		return narrator
	}
	return narratorRunPattern.ReplaceAllString(narrator, "$1, $2")
}

// parseBookDetails enriches a search match from its detail page.
func parseBookDetails(doc *goquery.Document, match searchMatch, lc langConfig) fullMetadata {
	labels := lc.Labels

	narrator := splitNarratorRuns(extractLabeledValue(doc, labels.Narrator, true))
	duration := parseDuration(extractLabeledValue(doc, labels.Duration, false))

	publisher := extractLabeledValue(doc, labels.Publisher, true)
	if publisher == "" {
		publisher = extractLabeledValue(doc, labels.Publisher, false)
	}

	genres := extractLabeledArray(doc, labels.Category)

	series := anchorTexts(doc.Find(".collections_list__09q3I li a, .product-series a, .series-info a"))

	description := ""
	if html, err := doc.Find(".description_description__6gcfq, .product-description, .book-description, .product-desc").Html(); err == nil {
		description = html
	}

	cover := match.Cover
	if src, ok := doc.Find(".product-top_cover__Pth8B, .product-cover img, .book-cover img, .product-image img").Attr("src"); ok {
		if cleaned := cleanCoverURL(src); cleaned != "" {
			cover = cleaned
		}
	}

	full := fullMetadata{
		searchMatch: match,
		Narrator:    narrator,
		Duration:    duration,
		Publisher:   publisher,
		Description: description,
		Genres:      genres,
		Series:      series,
		Language:    lc.LanguageName,
	}
	full.Cover = cover
	return full
}
