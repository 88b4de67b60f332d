package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ashureev/sportsdesk/internal/credential"
	"github.com/ashureev/sportsdesk/internal/domain"
	"github.com/ashureev/sportsdesk/internal/provider"
	"github.com/ashureev/sportsdesk/internal/provider/providertest"
	"github.com/ashureev/sportsdesk/internal/shared"
)

var testNow = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T, fake *providertest.Fake, key string) (*Manager, *credential.Gate) {
	t.Helper()
	gate := credential.NewGate(providertest.Factory(fake, nil), nil, nil)
	gate.SetCredential(context.Background(), key)
	n := 0
	m := NewManager(gate, ManagerConfig{
		Now: func() time.Time { return testNow },
		NewID: func() string {
			n++
			return "turn-" + string(rune('0'+n))
		},
	})
	return m, gate
}

func budget(v int32) *int32 { return &v }

func TestSessionConfigSearchExcludesTuning(t *testing.T) {
	cfg := SessionConfig(SessionOptions{
		Model:          ThinkingModel,
		Instruction:    "persona",
		Tools:          []provider.Tool{{Search: true}},
		ThinkingBudget: budget(0),
	})
	if len(cfg.Config.SafetySettings) != 0 {
		t.Errorf("Expected no safety overrides with search, got %v", cfg.Config.SafetySettings)
	}
	if cfg.Config.ThinkingBudget != nil {
		t.Error("Expected no thinking budget with search")
	}
	if cfg.Config.SystemInstruction != "persona" || !provider.HasSearch(cfg.Config.Tools) {
		t.Errorf("Expected instruction and search tool to be kept, got %+v", cfg.Config)
	}
}

func TestSessionConfigWithoutSearch(t *testing.T) {
	cfg := SessionConfig(SessionOptions{Model: ThinkingModel, ThinkingBudget: budget(512)})
	if len(cfg.Config.SafetySettings) != len(provider.HarmCategories) {
		t.Fatalf("Expected an override per harm category, got %d", len(cfg.Config.SafetySettings))
	}
	for _, s := range cfg.Config.SafetySettings {
		if s.Threshold != provider.BlockNone {
			t.Errorf("Expected BLOCK_NONE, got %s for %s", s.Threshold, s.Category)
		}
	}
	if cfg.Config.ThinkingBudget == nil || *cfg.Config.ThinkingBudget != 512 {
		t.Errorf("Expected thinking budget 512, got %v", cfg.Config.ThinkingBudget)
	}

	other := SessionConfig(SessionOptions{Model: "gemini-2.0-flash", ThinkingBudget: budget(512)})
	if other.Config.ThinkingBudget != nil {
		t.Error("Expected thinking budget only for the supported model")
	}
	if len(other.Config.SafetySettings) == 0 {
		t.Error("Expected safety overrides for any model without search")
	}
}

func TestSendTurnBeforeSession(t *testing.T) {
	m, _ := newTestManager(t, &providertest.Fake{}, "key")
	_, err := m.SendTurn(context.Background(), "hello")
	if !errors.Is(err, shared.ErrSessionNotInitialized) {
		t.Fatalf("Expected ErrSessionNotInitialized, got %v", err)
	}
}

func TestCreateSessionIsIdempotent(t *testing.T) {
	fake := &providertest.Fake{}
	m, _ := newTestManager(t, fake, "key")

	s1, err := m.CreateSession(context.Background(), DefaultSessionOptions(ThinkingModel))
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	s2, err := m.CreateSession(context.Background(), SessionOptions{Model: "other"})
	if err != nil {
		t.Fatalf("second CreateSession failed: %v", err)
	}
	if s1 != s2 {
		t.Error("Expected the existing session handle to be returned")
	}
	if len(fake.ChatConfigs) != 1 {
		t.Errorf("Expected one provider session, got %d", len(fake.ChatConfigs))
	}
	if !m.Active() {
		t.Error("Expected manager to be active")
	}
}

func TestCreateSessionWithoutCredential(t *testing.T) {
	m, _ := newTestManager(t, &providertest.Fake{}, "")
	_, err := m.CreateSession(context.Background(), DefaultSessionOptions(ThinkingModel))
	if !errors.Is(err, shared.ErrCredentialMissingOrInvalid) {
		t.Fatalf("Expected ErrCredentialMissingOrInvalid, got %v", err)
	}
	if m.Active() {
		t.Error("Expected manager to remain uninitialized")
	}
}

func TestCreateSessionProviderRejectsKey(t *testing.T) {
	fake := &providertest.Fake{ChatErr: errors.New("API key not valid")}
	m, gate := newTestManager(t, fake, "key")
	_, err := m.CreateSession(context.Background(), DefaultSessionOptions(ThinkingModel))
	if !errors.Is(err, shared.ErrCredentialMissingOrInvalid) {
		t.Fatalf("Expected ErrCredentialMissingOrInvalid, got %v", err)
	}
	if gate.Valid() {
		t.Error("Expected gate to be invalidated")
	}
}

func TestSendTurnSuccess(t *testing.T) {
	fake := &providertest.Fake{Reply: provider.Response{
		Text:      "Thunder up, Hank.",
		Citations: []provider.Citation{{URI: "https://nba.com"}, {Title: "no uri"}},
	}}
	m, _ := newTestManager(t, fake, "key")
	if _, err := m.CreateSession(context.Background(), DefaultSessionOptions(ThinkingModel)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	turn, err := m.SendTurn(context.Background(), "OKC?")
	if err != nil {
		t.Fatalf("SendTurn failed: %v", err)
	}
	if turn.Text != "Thunder up, Hank." || turn.Sender != domain.SenderAssistant {
		t.Errorf("Unexpected turn %+v", turn)
	}
	if len(turn.Sources) != 1 || turn.Sources[0].Title != "https://nba.com" {
		t.Errorf("Unexpected sources %+v", turn.Sources)
	}
	if !turn.Timestamp.Equal(testNow) || turn.ID == "" {
		t.Errorf("Expected id and timestamp to be set, got %+v", turn)
	}
	if len(fake.Sent) != 1 || fake.Sent[0] != "OKC?" {
		t.Errorf("Expected text to be sent through session, got %v", fake.Sent)
	}
}

func TestSendTurnEmptyReply(t *testing.T) {
	m, _ := newTestManager(t, &providertest.Fake{}, "key")
	if _, err := m.CreateSession(context.Background(), DefaultSessionOptions(ThinkingModel)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	turn, err := m.SendTurn(context.Background(), "hi")
	if err != nil {
		t.Fatalf("SendTurn failed: %v", err)
	}
	if turn.Text != EmptyReply {
		t.Errorf("Expected %q, got %q", EmptyReply, turn.Text)
	}
}

func TestSendTurnPropagatesErrors(t *testing.T) {
	fake := &providertest.Fake{}
	m, gate := newTestManager(t, fake, "key")
	if _, err := m.CreateSession(context.Background(), DefaultSessionOptions(ThinkingModel)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	fake.SetErr(errors.New("quota exceeded"))
	_, err := m.SendTurn(context.Background(), "hi")
	if err == nil || errors.Is(err, shared.ErrCredentialMissingOrInvalid) {
		t.Fatalf("Expected plain provider error, got %v", err)
	}

	fake.SetErr(errors.New("API_KEY_INVALID"))
	_, err = m.SendTurn(context.Background(), "hi")
	if !errors.Is(err, shared.ErrCredentialMissingOrInvalid) {
		t.Fatalf("Expected credential error, got %v", err)
	}
	if gate.Valid() {
		t.Error("Expected gate to be invalidated")
	}
}
