package normalize

import (
	"testing"

	"github.com/ashureev/sportsdesk/internal/domain"
	"github.com/ashureev/sportsdesk/internal/provider"
)

func TestSourcesEmpty(t *testing.T) {
	got := Sources(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("Expected empty non-nil slice, got %#v", got)
	}
}

func TestSourcesFiltersAndDefaults(t *testing.T) {
	got := Sources([]provider.Citation{
		{URI: "https://a.example", Title: "A"},
		{Title: "orphan title"},
		{URI: "https://b.example"},
		{},
	})
	want := []domain.ContentSource{
		{URI: "https://a.example", Title: "A"},
		{URI: "https://b.example", Title: "https://b.example"},
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d sources, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("source %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `[1,2]`, `[1,2]`},
		{"json fence", "```json\n[1,2]\n```", `[1,2]`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"other tag", "```javascript\n[\"x\"]\n```", `["x"]`},
		{"inline json tag", "```json [3]```", `[3]`},
		{"surrounding space", "  \n```json\n[1]\n```\n  ", `[1]`},
		{"not fully fenced", "here you go ```json\n[1]\n```", "here you go ```json\n[1]\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFence(tt.in); got != tt.want {
				t.Errorf("StripFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseJSON(t *testing.T) {
	got, ok := ParseJSON[[]any]("```json\n[{\"title\":\"x\"},{\"title\":\"y\"}]\n```")
	if !ok {
		t.Fatal("Expected fenced JSON to decode")
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 items, got %d", len(got))
	}

	for _, bad := range []string{"", "not json", "```json\n[1,\n```", "{\"a\":", "```\n```"} {
		if v, ok := ParseJSON[[]any](bad); ok || v != nil {
			t.Errorf("ParseJSON(%q) = %v, %v; want nil, false", bad, v, ok)
		}
	}
}

func TestParseJSONTypeMismatch(t *testing.T) {
	if _, ok := ParseJSON[[]any](`{"articles": []}`); ok {
		t.Error("Expected object to fail decoding into a slice")
	}
}

func TestRelatedSources(t *testing.T) {
	raw := []any{
		map[string]any{"uri": "https://a", "title": "A"},
		map[string]any{"uri": "https://b"},
		map[string]any{"uri": "", "title": "C"},
		map[string]any{"uri": 7, "title": "D"},
		"junk",
	}
	got := RelatedSources(raw)
	if len(got) != 1 || got[0].URI != "https://a" {
		t.Fatalf("Expected only the complete entry, got %+v", got)
	}
	if got := RelatedSources("nope"); got == nil || len(got) != 0 {
		t.Errorf("Expected empty slice for non-array, got %#v", got)
	}
}
