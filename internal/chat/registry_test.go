package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/sportsdesk/internal/credential"
	"github.com/ashureev/sportsdesk/internal/provider/providertest"
)

func newTestRegistry(fake *providertest.Fake, now *time.Time) *Registry {
	gate := credential.NewGate(providertest.Factory(fake, nil), nil, nil)
	gate.SetCredential(context.Background(), "key")
	return NewRegistry(func(id string) *Conversation {
		m := NewManager(gate, ManagerConfig{Now: func() time.Time { return *now }})
		return NewConversation(id, m, DefaultSessionOptions(ThinkingModel), nil)
	}, nil)
}

func TestRegistryGetOrCreate(t *testing.T) {
	now := testNow
	r := newTestRegistry(&providertest.Fake{}, &now)

	c1 := r.GetOrCreate("tab-1")
	if r.GetOrCreate("tab-1") != c1 {
		t.Error("Expected the same conversation for the same id")
	}
	if r.GetOrCreate("tab-2") == c1 {
		t.Error("Expected a separate conversation per id")
	}
	if r.Len() != 2 {
		t.Errorf("Expected 2 conversations, got %d", r.Len())
	}

	r.Remove("tab-1")
	if r.Get("tab-1") != nil {
		t.Error("Expected removed conversation to be gone")
	}
}

func TestRegistryOneSessionPerConversation(t *testing.T) {
	now := testNow
	fake := &providertest.Fake{}
	r := newTestRegistry(fake, &now)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Start(context.Background(), "tab-1")
		}()
	}
	wg.Wait()

	if len(fake.ChatConfigs) != 1 {
		t.Errorf("Expected exactly one provider session, got %d", len(fake.ChatConfigs))
	}
	if got := len(r.Get("tab-1").Transcript()); got != 1 {
		t.Errorf("Expected a single greeting, got %d turns", got)
	}
}

func TestRegistrySweep(t *testing.T) {
	now := testNow
	r := newTestRegistry(&providertest.Fake{}, &now)
	r.GetOrCreate("old")

	now = testNow.Add(2 * time.Hour)
	r.GetOrCreate("fresh")

	if removed := r.Sweep(now, time.Hour); removed != 1 {
		t.Fatalf("Expected 1 idle conversation removed, got %d", removed)
	}
	if r.Get("old") != nil || r.Get("fresh") == nil {
		t.Error("Expected only the idle conversation to be swept")
	}
}
