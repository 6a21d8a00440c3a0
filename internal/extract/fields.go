package extract

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fields holds the structured values recovered from a staff profile page.
// Any field may be empty when the page lacks the corresponding markup.
type Fields struct {
	Name       string
	Title      string
	Suffix     string
	Faculty    string
	Institute  string
	Department string
}

var (
	institutePattern = regexp.MustCompile(`(?i)\bInstitute\b`)
	facultyPattern   = regexp.MustCompile(`(?i)\bFaculty\b`)
)

// FromHTML runs the ordered extraction rule chain over profile HTML.
// Rules never override a field that an earlier rule already resolved, and
// every rule degrades to an empty string on missing markup.
func FromHTML(html, baseURL string) Fields {
	var f Fields
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return f
	}

	nameLine := CleanText(doc.Find("h1").First().Text())
	f.Title, f.Name, f.Suffix = SplitNameLine(nameLine)

	if content, ok := doc.Find(`meta[name="uol.deptschool"]`).Attr("content"); ok {
		f.Department = CleanText(content)
	}

	if letters := CleanText(doc.Find(".rb-people__letters").First().Text()); letters != "" {
		f.Suffix = letters
	}

	if jsonldSuffix := personSuffixFromJSONLD(doc); jsonldSuffix != "" && len(jsonldSuffix) > len(f.Suffix) {
		f.Suffix = jsonldSuffix
	}

	if f.Faculty == "" {
		f.Faculty = firstLabeledValue(doc, "Faculty")
	}
	if f.Institute == "" {
		f.Institute = firstLabeledValue(doc, "Institute")
	}
	if f.Department == "" {
		f.Department = firstLabeledValue(doc, "Department")
	}

	if f.Faculty == "" || f.Institute == "" || f.Department == "" {
		resolveFromHeaderCard(doc, &f)
	}

	f.Name = stripSuffixFromName(f.Name, f.Suffix)
	f.Name, f.Suffix = reconcileSuffixWithSlug(doc, f.Name, f.Suffix, baseURL)

	return f
}

// personSuffixFromJSONLD pulls honorificSuffix from embedded Person metadata.
func personSuffixFromJSONLD(doc *goquery.Document) string {
	var found string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return true
		}
		items, ok := data.([]any)
		if !ok {
			items = []any{data}
		}
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if obj["@type"] != "Person" {
				continue
			}
			if suffix, ok := obj["honorificSuffix"].(string); ok && suffix != "" {
				found = CleanText(suffix)
				return false
			}
		}
		return true
	})
	return found
}

// firstLabeledValue finds "label: value" definitions: a <dt> matching the
// label followed by its <dd>, or a paragraph starting with "Label:".
func firstLabeledValue(doc *goquery.Document, label string) string {
	var value string
	lower := strings.ToLower(label)

	doc.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		if strings.ToLower(CleanText(dt.Text())) != lower {
			return true
		}
		dd := dt.NextAllFiltered("dd").First()
		if dd.Length() > 0 {
			value = CleanText(dd.Text())
			return false
		}
		return true
	})
	if value != "" {
		return value
	}

	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := CleanText(p.Text())
		if !strings.HasPrefix(strings.ToLower(text), lower+":") {
			return true
		}
		value = CleanText(text[len(lower)+1:])
		return false
	})
	return value
}

// resolveFromHeaderCard walks the profile header card: the block whose
// <strong> reads "part of" lists the institute link first and the faculty
// link second; sibling blocks carry the department as their first link or
// first text line. Any still-missing field falls back to the first header
// link whose text mentions Institute/Faculty.
func resolveFromHeaderCard(doc *goquery.Document, f *Fields) {
	header := doc.Find(".rb-people__header__card").First()
	if header.Length() == 0 {
		return
	}

	header.Find(".rb-card__text").Each(func(_ int, block *goquery.Selection) {
		strong := block.Find("strong").First()
		strongText := CleanText(strong.Text())

		if strings.EqualFold(strongText, "part of") {
			links := block.Find("a")
			if f.Institute == "" && links.Length() > 0 {
				f.Institute = CleanText(links.Eq(0).Text())
			}
			if f.Faculty == "" && links.Length() > 1 {
				f.Faculty = CleanText(links.Eq(1).Text())
			}
			return
		}

		if f.Department == "" {
			if link := block.Find("a").First(); link.Length() > 0 {
				f.Department = CleanText(link.Text())
			}
		}
		if f.Department == "" {
			raw := block.Text()
			if strongText != "" {
				raw = strings.Replace(raw, strongText, "", 1)
			}
			for _, line := range strings.Split(raw, "\n") {
				if cleaned := CleanText(line); cleaned != "" {
					f.Department = cleaned
					break
				}
			}
		}
	})

	if f.Institute == "" {
		f.Institute = firstMatchingLink(header, institutePattern)
	}
	if f.Faculty == "" {
		f.Faculty = firstMatchingLink(header, facultyPattern)
	}
}

func firstMatchingLink(sel *goquery.Selection, pattern *regexp.Regexp) string {
	var value string
	sel.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := CleanText(a.Text())
		if !pattern.MatchString(text) {
			return true
		}
		value = text
		return false
	})
	return value
}

// stripSuffixFromName removes a trailing occurrence of the suffix tokens from
// the name; the letters marker or JSON-LD may have produced a suffix that the
// token pass left attached.
func stripSuffixFromName(name, suffix string) string {
	if suffix == "" {
		return name
	}
	var tokens []string
	for _, t := range strings.Split(suffix, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, regexp.QuoteMeta(t))
		}
	}
	if len(tokens) == 0 {
		return name
	}
	pattern, err := regexp.Compile(`(?i)(,?\s+)` + strings.Join(tokens, `\s*,\s*`) + `\s*$`)
	if err != nil {
		return name
	}
	return CleanText(pattern.ReplaceAllString(name, ""))
}

// reconcileSuffixWithSlug merges the suffix back into the name when the
// page's canonical (or fetch) URL slug contains the suffix text: in that
// case the "credential" is really part of the name. A heuristic for one
// observed naming pattern; kept as-is rather than generalized.
func reconcileSuffixWithSlug(doc *goquery.Document, name, suffix, baseURL string) (string, string) {
	if suffix == "" {
		return name, suffix
	}

	canonical, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
	slug := slugFromURL(canonical)
	if slug == "" {
		slug = slugFromURL(baseURL)
	}
	suffixText := strings.ToLower(CleanText(strings.ReplaceAll(suffix, ",", " ")))
	if slug != "" && suffixText != "" && strings.Contains(strings.ToLower(slug), suffixText) {
		return CleanText(name + " " + suffix), ""
	}
	return name, suffix
}

func slugFromURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return ""
	}
	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]
	return CleanText(strings.ReplaceAll(last, "-", " "))
}
