// Package chat manages provider chat sessions and conversation transcripts.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/sportsdesk/internal/domain"
	"github.com/ashureev/sportsdesk/internal/metrics"
	"github.com/ashureev/sportsdesk/internal/normalize"
	"github.com/ashureev/sportsdesk/internal/provider"
	"github.com/ashureev/sportsdesk/internal/shared"
)

// ThinkingModel is the only model that accepts a reasoning budget.
const ThinkingModel = "gemini-2.5-flash-preview-04-17"

// EmptyReply replaces an assistant turn that came back without text.
const EmptyReply = "Got nothing, fam. Try again?"

// ClientSource hands out the active provider client.
type ClientSource interface {
	ActiveClient(ctx context.Context) (provider.Provider, error)
	Invalidate()
	Confirm()
	Rejected() bool
}

// SessionOptions fixes a session's model, persona and tooling at creation.
type SessionOptions struct {
	Model          string
	Instruction    string
	Tools          []provider.Tool
	ThinkingBudget *int32
}

// SessionConfig applies the configuration policy: search augmentation excludes
// safety overrides and reasoning budget. Without search every harm category is
// set to BLOCK_NONE and the budget is applied only for ThinkingModel.
func SessionConfig(opts SessionOptions) provider.ChatConfig {
	cfg := provider.ChatConfig{
		Model: opts.Model,
		Config: provider.GenerateConfig{
			SystemInstruction: opts.Instruction,
			Tools:             opts.Tools,
		},
	}
	if provider.HasSearch(opts.Tools) {
		return cfg
	}
	for _, c := range provider.HarmCategories {
		cfg.Config.SafetySettings = append(cfg.Config.SafetySettings, provider.SafetySetting{
			Category:  c,
			Threshold: provider.BlockNone,
		})
	}
	if opts.ThinkingBudget != nil && opts.Model == ThinkingModel {
		budget := *opts.ThinkingBudget
		cfg.Config.ThinkingBudget = &budget
	}
	return cfg
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Classifier shared.Classifier
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	Now        func() time.Time
	NewID      func() string
}

// Manager owns one provider chat session. It moves from Uninitialized to
// Active on the first successful CreateSession and never back.
type Manager struct {
	gate     ClientSource
	classify shared.Classifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	mu      sync.Mutex
	session provider.ChatSession
}

// NewManager creates an uninitialized manager.
func NewManager(gate ClientSource, cfg ManagerConfig) *Manager {
	m := &Manager{
		gate:     gate,
		classify: cfg.Classifier,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		now:      cfg.Now,
		newID:    cfg.NewID,
	}
	if m.classify == nil {
		m.classify = shared.DefaultClassifier
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	return m
}

// Active reports whether a session exists.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

// CreateSession opens the session. Once Active it returns the existing handle
// and ignores opts.
func (m *Manager) CreateSession(ctx context.Context, opts SessionOptions) (provider.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		return m.session, nil
	}
	if m.gate.Rejected() {
		return nil, fmt.Errorf("create chat session: %w", shared.ErrCredentialMissingOrInvalid)
	}

	client, err := m.gate.ActiveClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create chat session: %w", err)
	}

	session, err := client.CreateChat(ctx, SessionConfig(opts))
	if err != nil {
		return nil, m.classified(err)
	}
	m.session = session
	m.logger.Info("Chat session created", "model", opts.Model, "search", provider.HasSearch(opts.Tools))
	return session, nil
}

// SendTurn sends text through the active session and returns the assistant
// turn. Every error is returned to the caller; credential rejections wrap
// shared.ErrCredentialMissingOrInvalid.
func (m *Manager) SendTurn(ctx context.Context, text string) (domain.ChatTurn, error) {
	m.mu.Lock()
	session := m.session
	m.mu.Unlock()

	if session == nil {
		return domain.ChatTurn{}, shared.ErrSessionNotInitialized
	}

	start := time.Now()
	resp, err := session.Send(ctx, text)
	if err != nil {
		class := m.classify(err)
		m.metrics.ObserveProviderCall("chat", class.String(), time.Since(start))
		m.metrics.ChatTurn("error")
		return domain.ChatTurn{}, m.classified(err)
	}
	m.metrics.ObserveProviderCall("chat", "ok", time.Since(start))
	m.metrics.ChatTurn("ok")
	m.gate.Confirm()

	reply := resp.Text
	if reply == "" {
		reply = EmptyReply
	}
	return domain.ChatTurn{
		ID:        m.newID(),
		Text:      reply,
		Sender:    domain.SenderAssistant,
		Timestamp: m.now(),
		Sources:   normalize.Sources(resp.Citations),
	}, nil
}

func (m *Manager) classified(err error) error {
	if m.classify(err) != shared.ClassCredentialInvalid {
		return err
	}
	m.gate.Invalidate()
	if errors.Is(err, shared.ErrCredentialMissingOrInvalid) {
		return err
	}
	return fmt.Errorf("%w: %v", shared.ErrCredentialMissingOrInvalid, err)
}
