// Package api provides HTTP handlers for the sportsdesk API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/sportsdesk/internal/chat"
	"github.com/ashureev/sportsdesk/internal/feed"
	"github.com/ashureev/sportsdesk/internal/metrics"
)

const (
	defaultMaxRequestBodySize = 64 << 10
	defaultKeepalive          = 15 * time.Second
	defaultRetryDelay         = 5 * time.Second
)

// CredentialStatus reports whether the provider credential is currently usable.
type CredentialStatus interface {
	Valid() bool
}

// Options wires a Handler to the services it exposes.
type Options struct {
	Credential    CredentialStatus
	Feed          *feed.Loader
	Conversations *chat.Registry
	Metrics       *metrics.Metrics
	Logger        *slog.Logger

	ChatModel string
	TextModel string

	AllowedOrigin   string
	IsDev           bool
	RateLimitCount  int
	RateLimitWindow time.Duration
	SSEKeepalive    time.Duration
	SSERetryDelay   time.Duration
	MaxRequestBody  int64
}

// Handler serves the feed, chat and status endpoints.
type Handler struct {
	cred          CredentialStatus
	feed          *feed.Loader
	conversations *chat.Registry
	metrics       *metrics.Metrics
	logger        *slog.Logger
	limiter       *RateLimiter
	sockets       *SocketRegistry

	chatModel      string
	textModel      string
	allowedOrigin  string
	isDev          bool
	keepalive      time.Duration
	retryDelay     time.Duration
	maxRequestBody int64
}

// NewHandler creates a Handler. Call Close to stop its background work.
func NewHandler(opts Options) *Handler {
	h := &Handler{
		cred:           opts.Credential,
		feed:           opts.Feed,
		conversations:  opts.Conversations,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		chatModel:      opts.ChatModel,
		textModel:      opts.TextModel,
		allowedOrigin:  opts.AllowedOrigin,
		isDev:          opts.IsDev,
		keepalive:      opts.SSEKeepalive,
		retryDelay:     opts.SSERetryDelay,
		maxRequestBody: opts.MaxRequestBody,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.keepalive <= 0 {
		h.keepalive = defaultKeepalive
	}
	if h.retryDelay <= 0 {
		h.retryDelay = defaultRetryDelay
	}
	if h.maxRequestBody <= 0 {
		h.maxRequestBody = defaultMaxRequestBodySize
	}

	limit, window := opts.RateLimitCount, opts.RateLimitWindow
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	h.limiter = NewRateLimiter(limit, window)
	h.sockets = NewSocketRegistry(h.logger)
	return h
}

// RegisterRoutes registers every API route on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/config", h.GetConfig)
		r.Route("/feed", func(r chi.Router) {
			r.Get("/", h.GetFeed)
			r.Post("/refresh", h.RefreshFeed)
			r.Get("/articles", h.ListArticles)
			r.Get("/stream", h.StreamFeed)
		})
		r.Route("/chat", func(r chi.Router) {
			r.Get("/", h.GetChat)
			r.Post("/", h.PostChat)
		})
	})
	r.Get("/ws/chat", h.ChatSocket)
	r.Handle("/metrics", h.metrics.Handler())
}

// Close releases handler resources.
func (h *Handler) Close() {
	h.limiter.Stop()
	h.sockets.CloseAll("server shutting down")
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// RateLimiter implements a sliding-window limiter keyed by client.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

// NewRateLimiter creates a new rate limiter and starts the background eviction goroutine.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	rl.startEviction()
	return rl
}

// Allow checks if a request is allowed for the given key.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	recent := r.freshLocked(key, now.Add(-r.window))
	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}

	r.requests[key] = append(recent, now)
	return true
}

// Stop ends the eviction goroutine.
func (r *RateLimiter) Stop() {
	r.once.Do(func() { close(r.stop) })
}

func (r *RateLimiter) freshLocked(key string, cutoff time.Time) []time.Time {
	var fresh []time.Time
	for _, t := range r.requests[key] {
		if t.After(cutoff) {
			fresh = append(fresh, t)
		}
	}
	return fresh
}

// startEviction periodically removes expired keys so the map stays bounded.
func (r *RateLimiter) startEviction() {
	go func() {
		ticker := time.NewTicker(r.window)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				r.mu.Lock()
				cutoff := r.now().Add(-r.window)
				for key := range r.requests {
					if fresh := r.freshLocked(key, cutoff); len(fresh) == 0 {
						delete(r.requests, key)
					} else {
						r.requests[key] = fresh
					}
				}
				r.mu.Unlock()
			}
		}
	}()
}
