package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ashureev/sportsdesk/internal/chat"
	"github.com/ashureev/sportsdesk/internal/config"
	"github.com/ashureev/sportsdesk/internal/credential"
	"github.com/ashureev/sportsdesk/internal/feed"
	"github.com/ashureev/sportsdesk/internal/metrics"
	"github.com/ashureev/sportsdesk/internal/provider"
)

// app holds the wired services shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	gate    *credential.Gate
	fetcher *feed.Fetcher
}

func newApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.LoadFile(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.New()
	factory := provider.GeminiFactory(provider.GeminiConfig{
		BaseURL:    cfg.ProviderBaseURL,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
		Logger:     logger,
	})
	gate := credential.NewGate(factory, func() string { return cfg.APIKey }, logger)
	gate.SetCredential(ctx, cfg.APIKey)
	if !cfg.HasCredential() {
		logger.Warn("No API key configured, AI features disabled")
	}

	fetcher := feed.NewFetcher(gate, feed.FetcherConfig{
		Model:   cfg.TextModel,
		Metrics: m,
		Logger:  logger,
	})

	return &app{cfg: cfg, logger: logger, metrics: m, gate: gate, fetcher: fetcher}, nil
}

func (a *app) newLoader() *feed.Loader {
	return feed.NewLoader(a.fetcher, feed.LoaderConfig{
		CredentialConfigured: a.cfg.HasCredential(),
		Metrics:              a.metrics,
		Logger:               a.logger,
	})
}

func (a *app) newRegistry(log chat.ConversationLogger) *chat.Registry {
	managerCfg := chat.ManagerConfig{Metrics: a.metrics, Logger: a.logger}
	opts := chat.DefaultSessionOptions(a.cfg.ChatModel)
	return chat.NewRegistry(func(id string) *chat.Conversation {
		return chat.NewConversation(id, chat.NewManager(a.gate, managerCfg), opts, log)
	}, a.logger)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
