// internal/fetch/dynamic/digest.go
package dynamic

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	urlutil "github.com/pagelift/pagelift/internal/utils/url"
	"github.com/pagelift/pagelift/pkg/models"
)

// Limits applied while assembling the digest. The pipeline's renderer
// relies on these holding.
const (
	maxContentBlocks = 20
	maxBlockLen      = 500
	maxLinks         = 50
	maxFullTextLen   = 5000
	minBlockLen      = 50
)

// BuildDigest assembles a structured PageDigest from rendered page HTML.
// It is a pure function over the DOM snapshot so it can be unit-tested
// without a browser.
func BuildDigest(pageURL, renderedHTML string) (*models.PageDigest, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(renderedHTML))
	if err != nil {
		return nil, fmt.Errorf("parse rendered HTML: %w", err)
	}

	digest := &models.PageDigest{
		URL:   pageURL,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	doc.Find("meta").Each(func(i int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		content, _ := sel.Attr("content")
		switch strings.ToLower(name) {
		case "description":
			digest.Description = strings.TrimSpace(content)
		case "keywords":
			digest.Keywords = strings.TrimSpace(content)
		}
	})

	digest.EventContent = extractEventContent(doc)
	digest.Headings = extractHeadings(doc)
	digest.ContentBlocks = extractContentBlocks(doc)
	digest.Links = extractLinks(doc, pageURL)
	digest.Stats = pageStats(doc)

	if fullText := normalizeSpace(doc.Find("body").Text()); fullText != "" {
		digest.FullText = truncate(fullText, maxFullTextLen)
	}

	return digest, nil
}

// extractEventContent finds the event-like block: a container whose class
// or id mentions "event", with card/schedule/session/speaker/time sub-lists.
func extractEventContent(doc *goquery.Document) *models.EventContent {
	container := doc.Find(`[class*="event"], [id*="event"]`).First()
	if container.Length() == 0 {
		return nil
	}

	ec := &models.EventContent{
		Cards:    collectTexts(container, `[class*="card"]`),
		Schedule: collectTexts(container, `[class*="schedule"], [class*="agenda"]`),
		Sessions: collectTexts(container, `[class*="session"], [class*="talk"]`),
		Speakers: collectTexts(container, `[class*="speaker"], [class*="presenter"]`),
		Times:    collectTexts(container, `time, [class*="time"], [class*="date"]`),
	}

	if ec.IsEmpty() {
		// An "event" container with nothing structured inside still gets
		// its own text as a single card.
		if text := normalizeSpace(container.Text()); text != "" {
			ec.Cards = []string{truncate(text, maxBlockLen)}
		} else {
			return nil
		}
	}

	return ec
}

func collectTexts(sel *goquery.Selection, selector string) []string {
	var out []string
	seen := make(map[string]bool)
	sel.Find(selector).Each(func(i int, s *goquery.Selection) {
		text := normalizeSpace(s.Text())
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		out = append(out, truncate(text, maxBlockLen))
	})
	return out
}

func extractHeadings(doc *goquery.Document) map[string][]string {
	headings := make(map[string][]string)
	for _, level := range []string{"h1", "h2", "h3", "h4", "h5", "h6"} {
		doc.Find(level).Each(func(i int, sel *goquery.Selection) {
			if text := normalizeSpace(sel.Text()); text != "" {
				headings[level] = append(headings[level], text)
			}
		})
	}
	if len(headings) == 0 {
		return nil
	}
	return headings
}

// extractContentBlocks collects substantial text blocks in document order,
// skipping duplicates and nested repeats.
func extractContentBlocks(doc *goquery.Document) []string {
	var blocks []string
	seen := make(map[string]bool)

	doc.Find("article, section, p, li, blockquote, td").Each(func(i int, sel *goquery.Selection) {
		if len(blocks) >= maxContentBlocks {
			return
		}
		text := normalizeSpace(sel.Text())
		if len(text) < minBlockLen {
			return
		}
		text = truncate(text, maxBlockLen)
		if seen[text] {
			return
		}
		seen[text] = true
		blocks = append(blocks, text)
	})

	return blocks
}

func extractLinks(doc *goquery.Document, pageURL string) []models.Link {
	var links []models.Link
	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		if len(links) >= maxLinks {
			return
		}
		href, _ := sel.Attr("href")
		if href == "" || strings.HasPrefix(href, "javascript:") {
			return
		}
		href = urlutil.ResolveURL(pageURL, href)
		text := normalizeSpace(sel.Text())
		if text == "" {
			text = href
		}
		links = append(links, models.Link{Text: truncate(text, 100), Href: href})
	})
	return links
}

func pageStats(doc *goquery.Document) map[string]int {
	return map[string]int{
		"headings":    doc.Find("h1, h2, h3, h4, h5, h6").Length(),
		"paragraphs":  doc.Find("p").Length(),
		"links":       doc.Find("a[href]").Length(),
		"images":      doc.Find("img").Length(),
		"tables":      doc.Find("table").Length(),
		"text_length": len(normalizeSpace(doc.Find("body").Text())),
	}
}

// normalizeSpace collapses runs of whitespace into single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
