package feed

import (
	"fmt"
	"testing"

	"github.com/ashureev/sportsdesk/internal/domain"
)

func sampleArticles(n int) []domain.Article {
	out := make([]domain.Article, n)
	for i := range out {
		out[i] = domain.Article{ID: fmt.Sprintf("a-%d", i), Category: domain.CategoryNational}
		if i%2 == 0 {
			out[i].Category = domain.CategoryKokomo
			out[i].TeamTags = []domain.Team{domain.TeamColts}
		}
	}
	return out
}

func TestQueryDefaultsToInitialPage(t *testing.T) {
	p := Query(sampleArticles(25), Filter{})
	if len(p.Articles) != InitialDisplayCount {
		t.Fatalf("Expected %d articles, got %d", InitialDisplayCount, len(p.Articles))
	}
	if p.Total != 25 || p.Remaining != 15 || !p.HasMore {
		t.Errorf("Unexpected page meta: %+v", p)
	}
}

func TestQueryLoadMore(t *testing.T) {
	p := Query(sampleArticles(25), Filter{Offset: 20})
	if len(p.Articles) != 5 || p.HasMore || p.Remaining != 0 {
		t.Errorf("Unexpected last page: %+v", p)
	}
	if p.Articles[0].ID != "a-20" {
		t.Errorf("Expected page to start at a-20, got %s", p.Articles[0].ID)
	}

	p = Query(sampleArticles(5), Filter{Offset: 50})
	if len(p.Articles) != 0 || p.Offset != 5 {
		t.Errorf("Expected empty page past the end, got %+v", p)
	}
}

func TestQueryFilters(t *testing.T) {
	articles := sampleArticles(10)

	p := Query(articles, Filter{Category: domain.CategoryKokomo})
	if p.Total != 5 {
		t.Errorf("Expected 5 Kokomo articles, got %d", p.Total)
	}
	p = Query(articles, Filter{Category: domain.CategoryAll, Team: domain.TeamAll})
	if p.Total != 10 {
		t.Errorf("Expected All filters to match everything, got %d", p.Total)
	}
	p = Query(articles, Filter{Team: domain.TeamThunder})
	if p.Total != 0 {
		t.Errorf("Expected no Thunder articles, got %d", p.Total)
	}
	p = Query(articles, Filter{Category: domain.CategoryNational, Team: domain.TeamColts})
	if p.Total != 0 {
		t.Errorf("Expected combined filter to exclude all, got %d", p.Total)
	}
}
