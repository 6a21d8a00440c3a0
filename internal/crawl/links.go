package crawl

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractLinks returns every anchor target in html resolved against baseURL.
// mailto: and tel: anchors are dropped. Fragments are preserved so callers
// can recognize tab-fragment links; the frontier normalizer strips them.
func ExtractLinks(html, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		seen[base.ResolveReference(ref).String()] = struct{}{}
	})

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	sort.Strings(links)
	return links, nil
}

// tabFragment marks secondary profile sub-pages whose content belongs to the
// primary page (e.g. /people/jane-doe/research#tabbed-content).
const tabFragment = "#tabbed-content"

// TabLinks filters links down to the de-fragmented URLs of tabbed sub-pages,
// preserving first-seen order and deduplicating.
func TabLinks(links []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, link := range links {
		if !strings.Contains(link, tabFragment) {
			continue
		}
		stripped := link[:strings.Index(link, "#")]
		if _, dup := seen[stripped]; dup {
			continue
		}
		seen[stripped] = struct{}{}
		out = append(out, stripped)
	}
	return out
}
