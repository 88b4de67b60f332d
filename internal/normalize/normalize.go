// Package normalize turns raw provider replies into typed content.
// Every function here is total: malformed input yields empty or "no result" values.
package normalize

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/ashureev/sportsdesk/internal/domain"
	"github.com/ashureev/sportsdesk/internal/provider"
)

// UnknownSource titles a citation that has neither a title nor a URI.
const UnknownSource = "Unknown Source"

// fenceRe matches a whole reply wrapped in a fenced block with an optional language hint.
var fenceRe = regexp.MustCompile("(?s)^```(?:[\\w+.-]*[ \\t]*\\n|json\\s*)?(.*?)\\n?\\s*```$")

// Sources converts raw citations into content sources, keeping order.
// Entries without a URI are dropped and missing titles fall back to the URI.
func Sources(citations []provider.Citation) []domain.ContentSource {
	out := make([]domain.ContentSource, 0, len(citations))
	for _, c := range citations {
		if c.URI == "" {
			continue
		}
		title := c.Title
		if title == "" {
			title = c.URI
		}
		if title == "" {
			title = UnknownSource
		}
		out = append(out, domain.ContentSource{URI: c.URI, Title: title})
	}
	return out
}

// StripFence removes a surrounding code fence if the whole text is fenced.
func StripFence(text string) string {
	s := strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(s); m != nil && m[1] != "" {
		return strings.TrimSpace(m[1])
	}
	return s
}

// ParseJSON strips an optional fence and strictly decodes the remainder.
// It returns false instead of an error when decoding fails.
func ParseJSON[T any](text string) (T, bool) {
	var out T
	if err := json.Unmarshal([]byte(StripFence(text)), &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

// RelatedSources filters a decoded groundingLinks value down to entries that
// carry both a non-empty uri and title.
func RelatedSources(raw any) []domain.ContentSource {
	items, ok := raw.([]any)
	if !ok {
		return []domain.ContentSource{}
	}
	out := make([]domain.ContentSource, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		uri, _ := obj["uri"].(string)
		title, _ := obj["title"].(string)
		if uri == "" || title == "" {
			continue
		}
		out = append(out, domain.ContentSource{URI: uri, Title: title})
	}
	return out
}
