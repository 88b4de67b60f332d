// Package domain contains core domain types for the sportsdesk application.
package domain

import "slices"

// Category is the fixed set of feed sections an article can belong to.
type Category string

const (
	CategoryPeru     Category = "Peru, Indiana Sports"
	CategoryKokomo   Category = "Kokomo, Indiana Sports"
	CategoryIndiana  Category = "Indiana State Sports"
	CategoryNational Category = "National Sports News"

	// CategoryAll is a filter value only. Articles never carry it.
	CategoryAll Category = "All Categories"
)

// DefaultCategory is assigned to articles whose category is missing or unknown.
const DefaultCategory = CategoryNational

// Categories lists every category an article may carry, in display order.
var Categories = []Category{CategoryPeru, CategoryKokomo, CategoryIndiana, CategoryNational}

// ParseCategory returns the recognized category for s.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	if slices.Contains(Categories, c) {
		return c, true
	}
	return "", false
}

// Team is a team the feed is tuned toward.
type Team string

const (
	TeamColts   Team = "Indianapolis Colts"
	TeamThunder Team = "Oklahoma City Thunder"

	// TeamAll is a filter value only. Articles never carry it.
	TeamAll Team = "All Teams"
)

// Teams lists the recognized team tags.
var Teams = []Team{TeamColts, TeamThunder}

// ParseTeam returns the recognized team for s.
func ParseTeam(s string) (Team, bool) {
	t := Team(s)
	if slices.Contains(Teams, t) {
		return t, true
	}
	return "", false
}

// ContentSource is a citation reported by the provider.
type ContentSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Article is one item of the news feed.
type Article struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Summary         string          `json:"summary"`
	SourceName      string          `json:"sourceName"`
	Category        Category        `json:"category"`
	PublicationDate string          `json:"publicationDate"`
	TeamTags        []Team          `json:"teamTags"`
	ArticleURL      *string         `json:"articleUrl"`
	RelatedSources  []ContentSource `json:"groundingLinks"`
}

// HasTeam reports whether the article is tagged with team.
func (a *Article) HasTeam(team Team) bool {
	return slices.Contains(a.TeamTags, team)
}
