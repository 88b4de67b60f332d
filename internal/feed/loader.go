package feed

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ashureev/sportsdesk/internal/domain"
	"github.com/ashureev/sportsdesk/internal/metrics"
	"github.com/ashureev/sportsdesk/internal/shared"
)

// Source is the pair of fetches a refresh runs.
type Source interface {
	FetchRoundup(ctx context.Context) Result[Roundup]
	FetchArticles(ctx context.Context) Result[ArticleBatch]
}

// State is the feed as exposed to clients.
type State struct {
	HourlySummaryText string                 `json:"hourlySummaryText"`
	Articles          []domain.Article       `json:"articles"`
	GlobalSources     []domain.ContentSource `json:"globalSources"`
	IsCredentialValid bool                   `json:"isCredentialValid"`
	LastError         *string                `json:"lastError"`
	Loading           bool                   `json:"loading"`
	Generation        uint64                 `json:"generation"`
	UpdatedAt         time.Time              `json:"updatedAt"`
}

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	// CredentialConfigured is false when no credential was supplied at all.
	CredentialConfigured bool
	Metrics              *metrics.Metrics
	Logger               *slog.Logger
	Now                  func() time.Time
}

// Loader runs refreshes and holds the latest applied State. Refresh results
// are applied under a monotonic generation guard: a refresh that settles after
// a newer one has already been applied is discarded.
type Loader struct {
	src     Source
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time

	mu         sync.Mutex
	state      State
	nextGen    uint64
	appliedGen uint64
	inflight   int
	subs       map[int]chan State
	nextSub    int
}

// NewLoader creates a loader with its initial state.
func NewLoader(src Source, cfg LoaderConfig) *Loader {
	l := &Loader{
		src:     src,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		now:     cfg.Now,
		subs:    make(map[int]chan State),
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.now == nil {
		l.now = time.Now
	}

	now := l.now()
	if cfg.CredentialConfigured {
		l.state = State{
			HourlySummaryText: DefaultRoundup,
			Articles:          DefaultArticles(now),
			GlobalSources:     []domain.ContentSource{},
			IsCredentialValid: true,
			UpdatedAt:         now,
		}
	} else {
		msg := shared.APIKeyErrorMessage
		l.state = State{
			HourlySummaryText: MissingCredentialRoundup,
			Articles:          []domain.Article{},
			GlobalSources:     []domain.ContentSource{},
			IsCredentialValid: false,
			LastError:         &msg,
			UpdatedAt:         now,
		}
	}
	return l
}

// Snapshot returns the current state.
func (l *Loader) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Refresh runs both fetches concurrently, waits for both, and applies the
// combined state unless a newer refresh already applied. It returns the state
// in effect afterwards and whether this refresh's result was applied.
func (l *Loader) Refresh(ctx context.Context) (State, bool) {
	l.mu.Lock()
	l.nextGen++
	gen := l.nextGen
	l.inflight++
	l.state.Loading = true
	l.mu.Unlock()

	var (
		roundup Result[Roundup]
		batch   Result[ArticleBatch]
		g       errgroup.Group
	)
	g.Go(func() error {
		roundup = l.src.FetchRoundup(ctx)
		return nil
	})
	g.Go(func() error {
		batch = l.src.FetchArticles(ctx)
		return nil
	})
	_ = g.Wait()

	next := compose(roundup, batch, l.now())

	l.mu.Lock()
	l.inflight--
	if gen <= l.appliedGen {
		l.state.Loading = l.inflight > 0
		current := l.state
		l.mu.Unlock()
		l.metrics.RefreshDropped()
		l.logger.Info("Discarding stale feed refresh", "generation", gen, "applied_generation", current.Generation)
		return current, false
	}
	l.appliedGen = gen
	next.Generation = gen
	next.Loading = l.inflight > 0
	l.state = next
	subs := make([]chan State, 0, len(l.subs))
	for _, ch := range l.subs {
		subs = append(subs, ch)
	}
	l.mu.Unlock()

	l.metrics.FeedApplied(len(next.Articles), next.IsCredentialValid)
	l.logger.Info("Feed refreshed",
		"generation", gen,
		"articles", len(next.Articles),
		"credential_valid", next.IsCredentialValid,
		"degraded", next.LastError != nil,
	)
	for _, ch := range subs {
		publish(ch, next)
	}
	return next, true
}

func compose(roundup Result[Roundup], batch Result[ArticleBatch], now time.Time) State {
	if roundup.Outcome == OutcomeCredentialInvalid || batch.Outcome == OutcomeCredentialInvalid {
		msg := shared.APIKeyErrorMessage
		return State{
			HourlySummaryText: DefaultRoundup,
			Articles:          DefaultArticles(now),
			GlobalSources:     []domain.ContentSource{},
			IsCredentialValid: false,
			LastError:         &msg,
			UpdatedAt:         now,
		}
	}

	s := State{
		HourlySummaryText: roundup.Value.Text,
		Articles:          batch.Value.Articles,
		GlobalSources:     batch.Value.Sources,
		IsCredentialValid: true,
		UpdatedAt:         now,
	}
	var details []string
	if roundup.Outcome == OutcomeDegraded {
		details = append(details, roundup.Detail)
	}
	if batch.Outcome == OutcomeDegraded {
		details = append(details, batch.Detail)
	}
	if len(details) > 0 {
		msg := shared.GeneralErrorMessage + ": " + strings.Join(details, "; ")
		s.LastError = &msg
	}
	return s
}

// Subscribe registers for applied states. The channel holds only the latest
// undelivered state. Call the returned func to unsubscribe.
func (l *Loader) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch
	l.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (l *Loader) Subscribers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

func publish(ch chan State, s State) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
