package feed

import "github.com/ashureev/sportsdesk/internal/domain"

// Pagination defaults for the article listing.
const (
	InitialDisplayCount = 10
	PageSize            = 10
)

// Filter selects a page of articles. Empty Category and Team match everything,
// as do CategoryAll and TeamAll.
type Filter struct {
	Category domain.Category
	Team     domain.Team
	Offset   int
	Limit    int
}

// Page is one slice of a filtered article list.
type Page struct {
	Articles  []domain.Article `json:"articles"`
	Total     int              `json:"total"`
	Offset    int              `json:"offset"`
	Remaining int              `json:"remaining"`
	HasMore   bool             `json:"hasMore"`
}

// Query filters articles and returns the requested page.
func Query(articles []domain.Article, f Filter) Page {
	matched := make([]domain.Article, 0, len(articles))
	for i := range articles {
		a := &articles[i]
		if f.Category != "" && f.Category != domain.CategoryAll && a.Category != f.Category {
			continue
		}
		if f.Team != "" && f.Team != domain.TeamAll && !a.HasTeam(f.Team) {
			continue
		}
		matched = append(matched, *a)
	}

	offset := max(f.Offset, 0)
	limit := f.Limit
	if limit <= 0 {
		limit = PageSize
		if offset == 0 {
			limit = InitialDisplayCount
		}
	}

	start := min(offset, len(matched))
	end := min(start+limit, len(matched))
	return Page{
		Articles:  matched[start:end],
		Total:     len(matched),
		Offset:    start,
		Remaining: len(matched) - end,
		HasMore:   end < len(matched),
	}
}
