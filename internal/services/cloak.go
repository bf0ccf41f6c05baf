package services

import (
	"net/url"
	"strings"
)

// trackedParams are stripped from destinations when the owner has cloaking
// enabled: the affiliate tag, generic affiliate markers and the UTM family.
var trackedParams = map[string]struct{}{
	"tag":          {},
	"ref":          {},
	"affid":        {},
	"aff_id":       {},
	"aff":          {},
	"affiliate":    {},
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
}

// CloakURL removes known tracking parameters from a destination URL unless
// they are on the preserve list. Best effort: a URL that fails to parse is
// returned unchanged, cloaking must never break a redirect.
func CloakURL(rawURL string, preserve []string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	keep := make(map[string]struct{}, len(preserve))
	for _, p := range preserve {
		keep[strings.ToLower(p)] = struct{}{}
	}

	query := parsed.Query()
	changed := false
	for name := range query {
		lowered := strings.ToLower(name)
		if _, tracked := trackedParams[lowered]; !tracked {
			continue
		}
		if _, preserved := keep[lowered]; preserved {
			continue
		}
		query.Del(name)
		changed = true
	}

	if !changed {
		return rawURL
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
