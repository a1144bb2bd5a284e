package app

import (
	"net/url"
	"strings"
)

// originMatcher reports whether a browser Origin is allowed. Patterns are
// hosts ("app.example.com"), subdomain wildcards ("*.example.com"), any-port
// hosts ("localhost:*") or full origins ("https://app.example.com").
func originMatcher(patterns []string) func(origin string) bool {
	return func(origin string) bool {
		host := extractOriginHost(origin)
		for _, p := range patterns {
			if strings.Contains(p, "://") {
				if strings.EqualFold(strings.TrimRight(p, "/"), origin) {
					return true
				}
				continue
			}
			if matchOriginPattern(p, host) {
				return true
			}
		}
		return false
	}
}

func extractOriginHost(origin string) string {
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		return u.Host
	}
	return origin
}

func matchOriginPattern(pattern, host string) bool {
	switch {
	case strings.EqualFold(pattern, host):
		return true
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(host, pattern[1:])
	case strings.HasSuffix(pattern, ":*"):
		name, _, _ := strings.Cut(host, ":")
		return strings.EqualFold(name, strings.TrimSuffix(pattern, ":*"))
	}
	return false
}

func isHTTPS(appURL string) bool {
	u, err := url.Parse(appURL)
	return err == nil && u.Scheme == "https"
}
