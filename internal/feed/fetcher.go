// Package feed fetches the roundup and article batch and keeps the feed state.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/sportsdesk/internal/domain"
	"github.com/ashureev/sportsdesk/internal/metrics"
	"github.com/ashureev/sportsdesk/internal/normalize"
	"github.com/ashureev/sportsdesk/internal/provider"
	"github.com/ashureev/sportsdesk/internal/shared"
)

// Outcome tags a fetch result.
type Outcome int

const (
	// OutcomeSuccess carries live content.
	OutcomeSuccess Outcome = iota
	// OutcomeDegraded carries fallback content and a human-readable detail.
	OutcomeDegraded
	// OutcomeCredentialInvalid means AI features must be treated as unavailable.
	OutcomeCredentialInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeCredentialInvalid:
		return "credential_invalid"
	default:
		return "unknown"
	}
}

// Result is the outcome of one fetch. Value is always usable, even when
// Outcome is not OutcomeSuccess. Err is set only for OutcomeCredentialInvalid
// and wraps shared.ErrCredentialMissingOrInvalid.
type Result[T any] struct {
	Outcome Outcome
	Value   T
	Detail  string
	Err     error
}

// Roundup is the hourly summary text and its citations.
type Roundup struct {
	Text    string                 `json:"text"`
	Sources []domain.ContentSource `json:"sources"`
}

// ArticleBatch is a parsed article list and the response-level citations.
type ArticleBatch struct {
	Articles []domain.Article       `json:"articles"`
	Sources  []domain.ContentSource `json:"sources"`
}

// ClientSource hands out the active provider client.
type ClientSource interface {
	ActiveClient(ctx context.Context) (provider.Provider, error)
	Invalidate()
	Confirm()
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	Model      string
	Classifier shared.Classifier
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	Now        func() time.Time
}

// Fetcher issues the roundup and article batch provider calls.
type Fetcher struct {
	gate     ClientSource
	model    string
	classify shared.Classifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewFetcher creates a fetcher bound to gate.
func NewFetcher(gate ClientSource, cfg FetcherConfig) *Fetcher {
	f := &Fetcher{
		gate:     gate,
		model:    cfg.Model,
		classify: cfg.Classifier,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
	if f.classify == nil {
		f.classify = shared.DefaultClassifier
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.now == nil {
		f.now = time.Now
	}
	return f
}

func searchConfig() provider.GenerateConfig {
	return provider.GenerateConfig{Tools: []provider.Tool{{Search: true}}}
}

// generate performs one provider call and classifies its failure. A non-nil
// error with credential == true has already invalidated the gate.
func (f *Fetcher) generate(ctx context.Context, op, prompt string) (*provider.Response, bool, error) {
	client, err := f.gate.ActiveClient(ctx)
	if err != nil {
		f.metrics.ObserveProviderCall(op, shared.ClassCredentialInvalid.String(), 0)
		return nil, true, err
	}

	start := time.Now()
	resp, err := client.GenerateContent(ctx, provider.Request{
		Model:  f.model,
		Prompt: prompt,
		Config: searchConfig(),
	})
	class := f.classify(err)
	if err == nil {
		f.metrics.ObserveProviderCall(op, "ok", time.Since(start))
		f.gate.Confirm()
		return resp, false, nil
	}
	f.metrics.ObserveProviderCall(op, class.String(), time.Since(start))
	if class == shared.ClassCredentialInvalid {
		f.gate.Invalidate()
		return nil, true, err
	}
	return nil, false, err
}

func credentialInvalid[T any](value T, cause error) Result[T] {
	err := cause
	if !errors.Is(cause, shared.ErrCredentialMissingOrInvalid) {
		err = fmt.Errorf("%w: %v", shared.ErrCredentialMissingOrInvalid, cause)
	}
	return Result[T]{
		Outcome: OutcomeCredentialInvalid,
		Value:   value,
		Detail:  shared.APIKeyErrorMessage,
		Err:     err,
	}
}

// FetchRoundup fetches the hourly roundup. Non-credential failures degrade to
// DefaultRoundup annotated with the error detail.
func (f *Fetcher) FetchRoundup(ctx context.Context) Result[Roundup] {
	resp, credential, err := f.generate(ctx, "roundup", HourlySummaryPrompt)
	if err != nil {
		if credential {
			f.logger.Warn("Roundup fetch rejected: credential invalid", "error", err)
			f.metrics.FetchOutcome("roundup", OutcomeCredentialInvalid.String())
			return credentialInvalid(Roundup{Text: DefaultRoundup, Sources: []domain.ContentSource{}}, err)
		}
		detail := err.Error()
		if detail == "" {
			detail = "Unknown error fetching summary"
		}
		f.logger.Error("Roundup fetch failed, using default", "error", err)
		f.metrics.FetchOutcome("roundup", OutcomeDegraded.String())
		return Result[Roundup]{
			Outcome: OutcomeDegraded,
			Value: Roundup{
				Text:    fmt.Sprintf("%s (Error: %s)", DefaultRoundup, detail),
				Sources: []domain.ContentSource{},
			},
			Detail: detail,
		}
	}

	f.metrics.FetchOutcome("roundup", OutcomeSuccess.String())
	return Result[Roundup]{
		Outcome: OutcomeSuccess,
		Value:   Roundup{Text: resp.Text, Sources: normalize.Sources(resp.Citations)},
	}
}

// FetchArticles fetches and maps the article batch. Non-credential failures,
// including unparseable or empty replies, degrade to DefaultArticles.
func (f *Fetcher) FetchArticles(ctx context.Context) Result[ArticleBatch] {
	now := f.now()
	fallback := ArticleBatch{Articles: DefaultArticles(now), Sources: []domain.ContentSource{}}

	resp, credential, err := f.generate(ctx, "articles", NewsFetchPrompt)
	if err != nil {
		if credential {
			f.logger.Warn("Article fetch rejected: credential invalid", "error", err)
			f.metrics.FetchOutcome("articles", OutcomeCredentialInvalid.String())
			return credentialInvalid(fallback, err)
		}
		f.logger.Error("Article fetch failed, using default", "error", err)
		f.metrics.FetchOutcome("articles", OutcomeDegraded.String())
		return Result[ArticleBatch]{Outcome: OutcomeDegraded, Value: fallback, Detail: err.Error()}
	}

	items, ok := normalize.ParseJSON[[]any](resp.Text)
	if !ok || len(items) == 0 {
		f.logger.Error("Failed to parse article batch, using default",
			"error", shared.ErrParseFailure,
			"response_length", len(resp.Text),
		)
		f.metrics.FetchOutcome("articles", OutcomeDegraded.String())
		return Result[ArticleBatch]{Outcome: OutcomeDegraded, Value: fallback, Detail: shared.ErrParseFailure.Error()}
	}

	articles := make([]domain.Article, 0, len(items))
	for i, item := range items {
		articles = append(articles, mapArticle(item, i, now))
	}

	f.metrics.FetchOutcome("articles", OutcomeSuccess.String())
	return Result[ArticleBatch]{
		Outcome: OutcomeSuccess,
		Value: ArticleBatch{
			Articles: articles,
			Sources:  normalize.Sources(resp.Citations),
		},
	}
}

// mapArticle converts one decoded array element. Anything that is not a JSON
// object maps to an article made entirely of defaults.
func mapArticle(item any, index int, now time.Time) domain.Article {
	obj, _ := item.(map[string]any)

	a := domain.Article{
		ID:              stringField(obj, "id"),
		Title:           stringField(obj, "title"),
		Summary:         stringField(obj, "summary"),
		SourceName:      stringField(obj, "sourceName"),
		Category:        domain.DefaultCategory,
		PublicationDate: stringField(obj, "publicationDate"),
		TeamTags:        []domain.Team{},
		RelatedSources:  normalize.RelatedSources(obj["groundingLinks"]),
	}
	if a.ID == "" {
		a.ID = fmt.Sprintf("article-%d-%d", now.UnixMilli(), index)
	}
	if a.Title == "" {
		a.Title = UntitledArticle
	}
	if a.Summary == "" {
		a.Summary = NoSummary
	}
	if a.SourceName == "" {
		a.SourceName = UnknownSourceTag
	}
	if a.PublicationDate == "" {
		a.PublicationDate = isoTime(now)
	}
	if c, ok := domain.ParseCategory(stringField(obj, "category")); ok {
		a.Category = c
	}
	if tags, ok := obj["teamTags"].([]any); ok {
		for _, raw := range tags {
			s, _ := raw.(string)
			if team, ok := domain.ParseTeam(s); ok {
				a.TeamTags = append(a.TeamTags, team)
			}
		}
	}
	if u := stringField(obj, "articleUrl"); u != "" {
		a.ArticleURL = &u
	}
	return a
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
