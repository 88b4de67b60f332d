package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/ashureev/sportsdesk/internal/api"
	"github.com/ashureev/sportsdesk/internal/chat"
	"github.com/ashureev/sportsdesk/internal/identity"
	"github.com/ashureev/sportsdesk/internal/middleware"
	"github.com/ashureev/sportsdesk/internal/schedule"
)

const sweepInterval = 5 * time.Minute

func serveCMD(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server with scheduled feed refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *cfgPath)
		},
	}
}

//nolint:funlen // Startup wiring is intentionally sequential to keep dependency setup explicit.
func serve(parent context.Context, cfgPath string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfgPath)
	if err != nil {
		return err
	}
	cfg, logger := a.cfg, a.logger
	logger.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "ai_enabled", a.gate.Valid())

	conversationLogger, err := chat.NewConversationLogger(chat.ConversationLogConfig{
		Enabled:       cfg.ConversationLog.Enabled,
		Dir:           cfg.ConversationLog.Dir,
		GlobalEnabled: cfg.ConversationLog.GlobalEnabled,
		GlobalPath:    cfg.ConversationLog.GlobalPath,
		QueueSize:     cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize conversation logger: %w", err)
	}
	defer func() {
		if closeErr := conversationLogger.Close(); closeErr != nil {
			logger.Warn("Failed to close conversation logger", "error", closeErr)
		}
	}()

	loader := a.newLoader()
	registry := a.newRegistry(conversationLogger)

	handler := api.NewHandler(api.Options{
		Credential:      a.gate,
		Feed:            loader,
		Conversations:   registry,
		Metrics:         a.metrics,
		Logger:          logger,
		ChatModel:       cfg.ChatModel,
		TextModel:       cfg.TextModel,
		AllowedOrigin:   cfg.FrontendURL,
		IsDev:           cfg.IsDevelopment(),
		RateLimitCount:  cfg.RateLimitCount,
		RateLimitWindow: cfg.RateLimitWindow,
		SSEKeepalive:    cfg.SSEKeepalive,
		MaxRequestBody:  cfg.MaxRequestBody,
	})
	defer handler.Close()

	allowedOrigins := []string{"*"}
	if !cfg.IsDevelopment() {
		allowedOrigins = []string{cfg.FrontendURL}
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(identity.Middleware(cfg.IsDevelopment()))
	handler.RegisterRoutes(r)

	// SSE and websocket connections are long-lived, so no WriteTimeout. Request
	// contexts derive from ctx so open streams end when shutdown starts.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	refresh := func(ctx context.Context) {
		loader.Refresh(ctx)
	}
	worker, err := schedule.NewCronWorker("feed-refresh", cfg.RefreshCron, refresh, logger)
	if err != nil {
		return err
	}
	worker.Start(ctx)
	if cfg.RefreshOnStart {
		go refresh(ctx)
	}

	schedule.StartInterval(ctx, "conversation-sweep", sweepInterval, func(context.Context) {
		registry.Sweep(time.Now(), cfg.ConversationTTL)
	}, logger)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}
	stop()

	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	handler.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped successfully")
	return nil
}
