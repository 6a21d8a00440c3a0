package crawl

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Normalize standardizes a URL so the frontier can dedup by string equality.
// It forces https, lowercases the host, strips a trailing path slash (except
// for the root path), and drops query and fragment.
func Normalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	if u.Scheme == "" || u.Scheme == "http" {
		u.Scheme = "https"
	}
	u.Host = strings.ToLower(u.Host)

	if u.Path == "" {
		u.Path = "/"
	}
	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	u.RawQuery = ""
	u.Fragment = ""

	return u.String(), nil
}

// Default skip lists mirror the sections of the crawled site that never hold
// staff profiles (media, news, listings) or that serve binary assets.
var (
	defaultSkipPrefixes = []string{
		"/media/",
		"/news/",
		"/events/",
		"/courses/",
		"/search/",
		"/rb/",
		"/assets/",
		"/student",
		"/study/",
		"/cgi/stats/report/",
	}
	defaultSkipExtensions = []string{
		".pdf", ".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg",
		".zip", ".rar", ".7z",
		".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
		".mp4", ".mp3", ".mov", ".avi",
		".css", ".js", ".ico",
	}
)

// Rules decides URL admission and profile-candidate classification. Both
// decisions are pure functions of the URL string.
type Rules struct {
	allowDomain    string
	skipHosts      map[string]struct{}
	skipPrefixes   []string
	skipExtensions []string
	keepPath       *regexp.Regexp
}

// NewRules builds admission rules for the given allow-domain and keep-path
// pattern. skipHosts may be nil.
func NewRules(allowDomain, keepPathRegex string, skipHosts []string) (*Rules, error) {
	keep, err := regexp.Compile(keepPathRegex)
	if err != nil {
		return nil, fmt.Errorf("compile keep path regex: %w", err)
	}
	hosts := make(map[string]struct{}, len(skipHosts))
	for _, h := range skipHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			hosts[h] = struct{}{}
		}
	}
	return &Rules{
		allowDomain:    strings.ToLower(strings.TrimSpace(allowDomain)),
		skipHosts:      hosts,
		skipPrefixes:   defaultSkipPrefixes,
		skipExtensions: defaultSkipExtensions,
		keepPath:       keep,
	}, nil
}

// Admitted reports whether the URL may enter the frontier: the host must be
// the allow-domain or a subdomain of it, and the path must not match any
// skip prefix or extension.
func (r *Rules) Admitted(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Host)
	if host != r.allowDomain && !strings.HasSuffix(host, "."+r.allowDomain) {
		return false
	}
	if _, skip := r.skipHosts[host]; skip {
		return false
	}
	path := strings.ToLower(u.Path)
	if path == "" {
		path = "/"
	}
	for _, prefix := range r.skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	for _, ext := range r.skipExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}
	return true
}

// IsProfilePath reports whether path matches the configured keep pattern,
// marking the URL as a staff-profile candidate.
func (r *Rules) IsProfilePath(path string) bool {
	return r.keepPath.MatchString(path)
}

// IsProfileURL is IsProfilePath applied to a full URL.
func (r *Rules) IsProfileURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return r.IsProfilePath(u.Path)
}
