package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/sportsdesk/internal/domain"
	"github.com/ashureev/sportsdesk/internal/feed"
	"github.com/ashureev/sportsdesk/internal/shared"
)

func TestGetFeedInitialState(t *testing.T) {
	f := newFixture(t, "")
	w := f.do(t, httptest.NewRequest(http.MethodGet, "/api/feed", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	s := decode[feed.State](t, w)
	if s.HourlySummaryText != feed.MissingCredentialRoundup || s.IsCredentialValid {
		t.Errorf("Expected missing-credential state, got %+v", s)
	}
}

func TestRefreshFeed(t *testing.T) {
	f := newFixture(t, "key-1")
	w := f.do(t, httptest.NewRequest(http.MethodPost, "/api/feed/refresh", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-Refresh-Applied"); got != "true" {
		t.Errorf("Expected refresh to be applied, got %q", got)
	}

	s := decode[feed.State](t, w)
	if s.HourlySummaryText != "Colts on a heater" {
		t.Errorf("Unexpected summary %q", s.HourlySummaryText)
	}
	if len(s.Articles) != 3 || s.Articles[0].Title != "Colts clinch" {
		t.Errorf("Unexpected articles: %+v", s.Articles)
	}
	if len(s.GlobalSources) != 1 || s.GlobalSources[0].URI != "https://espn.example" {
		t.Errorf("Unexpected global sources: %+v", s.GlobalSources)
	}
	if s.LastError != nil || !s.IsCredentialValid || s.Generation != 1 {
		t.Errorf("Unexpected status fields: %+v", s)
	}
}

func TestRefreshFeedCredentialRejected(t *testing.T) {
	f := newFixture(t, "key-1")
	f.fake.SetErr(errors.New("googleapi: Error 400: API key not valid. Please pass a valid API key."))

	s := decode[feed.State](t, f.do(t, httptest.NewRequest(http.MethodPost, "/api/feed/refresh", nil)))
	if s.IsCredentialValid {
		t.Error("Expected credential to be invalid")
	}
	if s.LastError == nil || *s.LastError != shared.APIKeyErrorMessage {
		t.Errorf("Expected api key message, got %v", s.LastError)
	}
	if len(s.Articles) != 1 || s.Articles[0].ID != feed.PlaceholderArticleID {
		t.Errorf("Expected placeholder article, got %+v", s.Articles)
	}
	if f.gate.Valid() {
		t.Error("Expected gate to be invalidated")
	}
}

func TestListArticles(t *testing.T) {
	f := newFixture(t, "key-1")
	f.loader.Refresh(context.Background())

	tests := []struct {
		name      string
		query     url.Values
		wantCode  int
		wantTotal int
	}{
		{"all", url.Values{}, http.StatusOK, 3},
		{"by team", url.Values{"team": {string(domain.TeamColts)}}, http.StatusOK, 1},
		{"all teams", url.Values{"team": {string(domain.TeamAll)}}, http.StatusOK, 3},
		{"by category", url.Values{"category": {string(domain.CategoryKokomo)}}, http.StatusOK, 1},
		{"unknown category", url.Values{"category": {"Curling"}}, http.StatusBadRequest, 0},
		{"unknown team", url.Values{"team": {"Pacers"}}, http.StatusBadRequest, 0},
		{"bad offset", url.Values{"offset": {"-1"}}, http.StatusBadRequest, 0},
		{"bad limit", url.Values{"limit": {"ten"}}, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/feed/articles?"+tt.query.Encode(), nil)
			w := f.do(t, req)
			if w.Code != tt.wantCode {
				t.Fatalf("Expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			page := decode[feed.Page](t, w)
			if page.Total != tt.wantTotal {
				t.Errorf("Expected total %d, got %d", tt.wantTotal, page.Total)
			}
		})
	}
}

func TestListArticlesPagination(t *testing.T) {
	f := newFixture(t, "key-1")
	f.loader.Refresh(context.Background())

	page := decode[feed.Page](t, f.do(t, httptest.NewRequest(http.MethodGet, "/api/feed/articles?offset=1&limit=1", nil)))
	if len(page.Articles) != 1 || page.Articles[0].Title != "Thunder roll" {
		t.Errorf("Unexpected page: %+v", page.Articles)
	}
	if page.Remaining != 1 || !page.HasMore {
		t.Errorf("Expected one remaining article, got %+v", page)
	}
}

type sseEvent struct {
	id    string
	event string
	data  string
}

func readEvent(t *testing.T, sc *bufio.Scanner, want string) sseEvent {
	t.Helper()
	var ev sseEvent
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if ev.event == want {
				return ev
			}
			ev = sseEvent{}
		case strings.HasPrefix(line, "id: "):
			ev.id = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			ev.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
	t.Fatalf("Stream ended before %q event: %v", want, sc.Err())
	return sseEvent{}
}

func TestStreamFeed(t *testing.T) {
	f := newFixture(t, "key-1")
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/feed/stream", nil)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Stream request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Expected text/event-stream, got %q", ct)
	}
	sc := bufio.NewScanner(resp.Body)

	initial := readEvent(t, sc, "feed")
	if initial.id != "0" {
		t.Errorf("Expected initial generation 0, got %q", initial.id)
	}

	readEvent(t, sc, "ping")

	go f.loader.Refresh(context.Background())
	updated := readEvent(t, sc, "feed")
	var s feed.State
	if err := json.Unmarshal([]byte(updated.data), &s); err != nil {
		t.Fatalf("Failed to decode streamed state: %v", err)
	}
	if updated.id != "1" || s.HourlySummaryText != "Colts on a heater" {
		t.Errorf("Unexpected streamed state id=%s summary=%q", updated.id, s.HourlySummaryText)
	}
}
