package static

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// cleanHTML strips non-content elements and attribute noise from the body
// before markdown conversion. Only href/title on anchors and src/alt/title
// on images survive.
func cleanHTML(doc *goquery.Document) (string, error) {
	body := doc.Find("body").Clone()
	if body.Length() == 0 {
		body = doc.Selection
	}

	body.Find("script, style, link, meta, noscript, iframe, svg, form, input, button, select, textarea, canvas").Remove()

	body.Find("*").Each(func(i int, s *goquery.Selection) {
		if len(s.Nodes) == 0 {
			return
		}
		node := s.Nodes[0]
		var newAttrs []html.Attribute
		for _, attr := range node.Attr {
			keep := false
			switch node.Data {
			case "a":
				if attr.Key == "href" || attr.Key == "title" {
					keep = true
				}
			case "img":
				if attr.Key == "src" || attr.Key == "alt" || attr.Key == "title" {
					keep = true
				}
			default:
				// keep no attributes by default
			}
			if keep {
				newAttrs = append(newAttrs, attr)
			}
		}
		node.Attr = newAttrs
	})

	return goquery.OuterHtml(body)
}
