// internal/pipeline/digest.go
package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pagelift/pagelift/pkg/models"
)

const maxSubListItems = 10

// RenderDigest serializes a structured page digest into the plain-text
// document handed to the extractor. The section headers and layout are a
// contract: the extraction prompts and their tests depend on this exact
// shape. Sections with no source data are omitted entirely.
func RenderDigest(d *models.PageDigest) string {
	var b strings.Builder

	b.WriteString("=== PAGE INFORMATION ===\n")
	fmt.Fprintf(&b, "Title: %s\n", d.Title)
	fmt.Fprintf(&b, "URL: %s\n", d.URL)

	if d.Description != "" || d.Keywords != "" {
		b.WriteString("\n=== META DATA ===\n")
		if d.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", d.Description)
		}
		if d.Keywords != "" {
			fmt.Fprintf(&b, "Keywords: %s\n", d.Keywords)
		}
	}

	if ec := d.EventContent; ec != nil && !ec.IsEmpty() {
		b.WriteString("\n=== EVENT CONTENT ===\n")
		writeSubList(&b, "Cards", ec.Cards)
		writeSubList(&b, "Schedule", ec.Schedule)
		writeSubList(&b, "Sessions", ec.Sessions)
		writeSubList(&b, "Speakers", ec.Speakers)
		writeSubList(&b, "Times", ec.Times)
	}

	if len(d.Headings) > 0 {
		b.WriteString("\n=== HEADINGS ===\n")
		for _, level := range []string{"h1", "h2", "h3", "h4", "h5", "h6"} {
			writeSubList(&b, strings.ToUpper(level), d.Headings[level])
		}
	}

	if len(d.ContentBlocks) > 0 {
		b.WriteString("\n=== CONTENT SECTIONS ===\n")
		for _, block := range d.ContentBlocks {
			fmt.Fprintf(&b, "  - %s\n", block)
		}
	}

	if len(d.Links) > 0 {
		b.WriteString("\n=== LINKS ===\n")
		for _, link := range d.Links {
			fmt.Fprintf(&b, "  - %s -> %s\n", link.Text, link.Href)
		}
	}

	if len(d.Stats) > 0 {
		b.WriteString("\n=== PAGE STATISTICS ===\n")
		keys := make([]string, 0, len(d.Stats))
		for k := range d.Stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "%s: %d\n", k, d.Stats[k])
		}
	}

	if d.FullText != "" {
		b.WriteString("\n=== FULL PAGE TEXT ===\n")
		b.WriteString(d.FullText)
		b.WriteString("\n")
	}

	return b.String()
}

// writeSubList renders "Title:\n  - item" bullets, capped at the first 10
// entries. Empty lists are skipped.
func writeSubList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	if len(items) > maxSubListItems {
		items = items[:maxSubListItems]
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}
