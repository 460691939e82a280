package urlx

import (
	"net/url"
	"strings"

	"github.com/elliotchance/pie/v2"
)

// Domain returns the host of rawURL without a leading "www.", or "" when it does not parse.
func Domain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	return strings.TrimPrefix(u.Hostname(), "www.")
}

// IsValid reports whether rawURL is an absolute http(s) URL with a host.
func IsValid(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return u.Host != ""
}

// FilterValid keeps valid URLs in their original order.
func FilterValid(urls []string) []string {
	return pie.Filter(urls, IsValid)
}

// Absolute resolves maybe against base. Absolute http(s) values pass through unchanged;
// empty or unresolvable values yield "".
func Absolute(base, maybe string) string {
	maybe = strings.TrimSpace(maybe)
	if maybe == "" {
		return ""
	}

	if strings.HasPrefix(maybe, "http://") || strings.HasPrefix(maybe, "https://") {
		return maybe
	}

	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return ""
	}

	ref, err := url.Parse(maybe)
	if err != nil {
		return ""
	}

	resolved := baseURL.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	return resolved.String()
}
