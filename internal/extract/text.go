// Package extract derives structured staff fields and cleaned text from
// profile HTML. Every rule degrades to an empty string; nothing here fails
// on malformed or missing markup.
package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CleanText collapses all whitespace runs to single spaces and trims.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Hash returns the stable content hash of cleaned text: hex-encoded SHA-256.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Text produces the cleaned text used for change detection and chunking:
// page title, then h1-h3 heading texts, then the full visible body with
// non-content tags removed, whitespace-collapsed.
func Text(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, noscript, header, footer, nav, aside").Remove()

	title := CleanText(doc.Find("title").First().Text())

	var headings []string
	doc.Find("h1, h2, h3").Each(func(_ int, sel *goquery.Selection) {
		if t := CleanText(sel.Text()); t != "" {
			headings = append(headings, t)
		}
	})

	body := CleanText(doc.Text())

	return CleanText(strings.Join([]string{title, strings.Join(headings, " "), body}, " "))
}
