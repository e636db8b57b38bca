package descriptions

import (
	"bytes"
	"encoding/json"
	"html"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
)

const (
	// minDescLength filters out snippets and cookie banners that match
	// description selectors.
	minDescLength = 200
	// minBodyLength is the floor for the whole-page fallback.
	minBodyLength = 500
)

// siteSelectors are the per-board description containers, most specific
// first. Boards restyle often, so each list carries current and legacy
// markup.
var siteSelectors = map[string][]string{
	"totaljobs": {
		`[data-at="job-description"]`,
		`[data-genesis-element="TEXT"]`,
		`span[data-genesis-element="TEXT"]`,
		`[class*="job-ad-display"]`,
	},
	"reed": {
		`[data-qa="job-description"]`,
		".job-description",
		".description",
		`[itemprop="description"]`,
		".job-details-description",
		"#job-description",
	},
	"indeed": {
		"#jobDescriptionText",
		".jobsearch-jobDescriptionText",
		`[data-testid="jobDescriptionText"]`,
		".job-description",
		"#jobDescription",
	},
	"cvlibrary": {
		".job-description",
		".job__description",
		`[class*="job-description"]`,
		".vacancy-description",
		"#job-description",
	},
}

// genericSelectors run after the site-specific list, for boards the URL
// does not identify.
var genericSelectors = []string{
	`[data-at="job-description"]`,
	`[class*="job-description"]`,
	`[class*="jobDescription"]`,
	".description",
	"#description",
}

// ExtractDescription pulls the job description out of a detail page.
// Extraction order: JSON-LD JobPosting markup, site-specific selectors,
// generic selectors, then the page body stripped of chrome. Each stage has
// a length floor so navigation fragments never win. Empty means the page
// holds no usable description.
func ExtractDescription(body []byte, source string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	if desc := fromJSONLD(doc); desc != "" {
		return desc
	}

	selectors := append([]string(nil), siteSelectors[source]...)
	for _, g := range genericSelectors {
		if !slices.Contains(selectors, g) {
			selectors = append(selectors, g)
		}
	}
	for _, sel := range selectors {
		if text := largestText(doc, sel); len(text) > minDescLength {
			return text
		}
	}

	return bodyText(doc)
}

// fromJSONLD scans schema.org structured data for a JobPosting description.
// Boards that obfuscate their visible markup usually still ship this block
// intact for search engines, which makes it the most reliable stage.
func fromJSONLD(doc *goquery.Document) string {
	var found string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		if desc := postingDescription(data); desc != "" {
			found = desc
			return false
		}
		return true
	})
	return found
}

// postingDescription walks the JSON-LD shapes boards actually emit: a bare
// object, an array of objects, or a @graph envelope.
func postingDescription(v any) string {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			if desc := postingDescription(item); desc != "" {
				return desc
			}
		}
	case map[string]any:
		if t, _ := node["@type"].(string); t == "JobPosting" {
			if raw, _ := node["description"].(string); raw != "" {
				if desc := cleanDescription(raw); len(desc) > minDescLength {
					return desc
				}
			}
		}
		if graph, ok := node["@graph"]; ok {
			return postingDescription(graph)
		}
	}
	return ""
}

// largestText returns the longest text among selector matches. Where a page
// repeats the selector, the longest block is the actual description.
func largestText(doc *goquery.Document, selector string) string {
	var largest string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if text := textContent(s); len(text) > len(largest) {
			largest = text
		}
	})
	return largest
}

// bodyText is the last resort: the whole page minus scripts, styles, and
// navigation chrome.
func bodyText(doc *goquery.Document) string {
	body := doc.Find("body")
	if body.Length() == 0 {
		return ""
	}
	body.Find("script, style, nav, header, footer").Remove()
	if text := textContent(body); len(text) > minBodyLength {
		return text
	}
	return ""
}

// cleanDescription strips markup and entities from an HTML fragment, such
// as a JSON-LD description value.
func cleanDescription(raw string) string {
	if raw == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html.UnescapeString(raw)))
	if err != nil {
		return ""
	}
	return textContent(doc.Selection)
}

// textContent joins an element's text nodes with single spaces, collapsing
// internal whitespace.
func textContent(sel *goquery.Selection) string {
	var parts []string
	for _, node := range sel.Nodes {
		collectText(node, &parts)
	}
	return strings.Join(parts, " ")
}

func collectText(n *xhtml.Node, parts *[]string) {
	if n.Type == xhtml.TextNode {
		if fields := strings.Fields(n.Data); len(fields) > 0 {
			*parts = append(*parts, strings.Join(fields, " "))
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// detectSource recognizes which board a job URL belongs to, so the fetch
// can use that board's selector list without being told.
func detectSource(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "totaljobs"):
		return "totaljobs"
	case strings.Contains(host, "reed"):
		return "reed"
	case strings.Contains(host, "indeed"):
		return "indeed"
	case strings.Contains(host, "cv-library"), strings.Contains(host, "cvlibrary"):
		return "cvlibrary"
	}
	return ""
}
