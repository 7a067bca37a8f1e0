package ingest

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// normalizeText trims and collapses whitespace runs to single spaces.
func normalizeText(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}

// htmlToText strips markup from feed content, keeping only the readable text.
// Feed bodies are frequently HTML fragments; on parse failure the input passes
// through unchanged.
func htmlToText(html string) string {
	if !strings.ContainsAny(html, "<>") {
		return normalizeText(html)
	}
	// Pad tags so adjacent blocks do not run together once markup is gone;
	// normalizeText collapses the extra spaces afterwards.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(strings.ReplaceAll(html, "<", " <")))
	if err != nil {
		return normalizeText(html)
	}
	doc.Find("script, style").Remove()
	return normalizeText(doc.Text())
}
