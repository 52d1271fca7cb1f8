package source

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// stripHTML reduces an HTML fragment to its visible text. Feed
// summaries and scraped blocks arrive as markup; messages want plain
// text with whitespace runs collapsed.
func stripHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapseSpace(fragment)
	}
	return collapseSpace(doc.Text())
}

// collapseSpace trims s and squeezes internal whitespace to single
// spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// capRunes hard-truncates s to at most n runes.
func capRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// ellipsize caps s at n runes, marking the cut.
func ellipsize(s string, n int) string {
	capped := capRunes(s, n)
	if capped != s {
		capped += "…"
	}
	return capped
}
