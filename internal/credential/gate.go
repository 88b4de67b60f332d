// Package credential holds the single active provider credential and client.
package credential

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ashureev/sportsdesk/internal/provider"
	"github.com/ashureev/sportsdesk/internal/shared"
)

// Source yields the externally configured credential, e.g. from the environment.
type Source func() string

// Gate owns at most one credential and the provider client built from it.
// All methods are safe for concurrent use.
type Gate struct {
	factory provider.Factory
	source  Source
	logger  *slog.Logger

	mu       sync.Mutex
	token    string
	client   provider.Provider
	rejected string
}

// NewGate creates a gate. source may be nil when no fallback credential exists.
func NewGate(factory provider.Factory, source Source, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{factory: factory, source: source, logger: logger}
}

// SetCredential installs token. An empty token records the invalid state; the
// token that is already active is a no-op. A client construction failure
// clears both the client and the token. A token other than the last rejected
// one clears the rejection.
func (g *Gate) SetCredential(ctx context.Context, token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setLocked(ctx, token)
}

func (g *Gate) setLocked(ctx context.Context, token string) {
	if token != g.rejected {
		g.rejected = ""
	}
	if token == "" {
		g.logger.Warn("Provider credential is empty, AI features disabled")
		g.client = nil
		g.token = ""
		return
	}
	if g.client != nil && g.token == token {
		return
	}

	client, err := g.factory(ctx, token)
	if err != nil {
		g.logger.Error("Failed to initialize provider client", "error", err)
		g.client = nil
		g.token = ""
		return
	}
	g.client = client
	g.token = token
	g.logger.Info("Provider client initialized")
}

// ActiveClient returns the active client. When none is active it re-initializes
// once from the fallback source; if that also fails it returns
// shared.ErrCredentialMissingOrInvalid. No network I/O happens here.
func (g *Gate) ActiveClient(ctx context.Context) (provider.Provider, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}
	if g.source != nil {
		if token := g.source(); token != "" {
			g.logger.Info("Re-initializing provider client from configured credential")
			g.setLocked(ctx, token)
		}
	}
	if g.client == nil {
		return nil, shared.ErrCredentialMissingOrInvalid
	}
	return g.client, nil
}

// Invalidate drops the active credential after the provider rejected it. The
// token stays rejected until a different one is set or Confirm is called.
func (g *Gate) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		g.logger.Warn("Provider rejected credential, clearing client")
	}
	if g.token != "" {
		g.rejected = g.token
	}
	g.client = nil
	g.token = ""
}

// Confirm records a successful provider call with the active client and lifts
// any rejection.
func (g *Gate) Confirm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client == nil || g.rejected == "" {
		return
	}
	g.rejected = ""
	g.logger.Info("Provider accepted credential again")
}

// Rejected reports whether the configured credential was rejected by the
// provider and has not been replaced or confirmed since.
func (g *Gate) Rejected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rejected != ""
}

// Valid reports whether a client is active and its credential is not rejected.
func (g *Gate) Valid() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.client != nil && g.rejected == ""
}
