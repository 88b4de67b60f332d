package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ConversationFactory builds a new conversation for id.
type ConversationFactory func(id string) *Conversation

// Registry maps conversation IDs to conversations, one session each.
type Registry struct {
	mu      sync.RWMutex
	active  map[string]*Conversation
	factory ConversationFactory
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(factory ConversationFactory, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		active:  make(map[string]*Conversation),
		factory: factory,
		logger:  logger,
	}
}

// Get returns the conversation for id, or nil.
func (r *Registry) Get(id string) *Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active[id]
}

// GetOrCreate returns the conversation for id, creating it on first use.
func (r *Registry) GetOrCreate(id string) *Conversation {
	if c := r.Get(id); c != nil {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.active[id]; ok {
		return c
	}
	c := r.factory(id)
	r.active[id] = c
	r.logger.Info("Conversation registered", "conversation_id", id)
	return c
}

// Start returns the started conversation for id.
func (r *Registry) Start(ctx context.Context, id string) *Conversation {
	c := r.GetOrCreate(id)
	c.Start(ctx)
	return c
}

// Remove drops the conversation for id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[id]; ok {
		delete(r.active, id)
		r.logger.Info("Conversation removed", "conversation_id", id)
	}
}

// Len returns the number of registered conversations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}

// Sweep removes conversations idle for longer than ttl and returns how many.
func (r *Registry) Sweep(now time.Time, ttl time.Duration) int {
	r.mu.RLock()
	candidates := make(map[string]*Conversation, len(r.active))
	for id, c := range r.active {
		candidates[id] = c
	}
	r.mu.RUnlock()

	var expired []string
	for id, c := range candidates {
		if now.Sub(c.LastSeen()) > ttl {
			expired = append(expired, id)
		}
	}
	if len(expired) == 0 {
		return 0
	}

	r.mu.Lock()
	removed := 0
	for _, id := range expired {
		if r.active[id] == candidates[id] {
			delete(r.active, id)
			removed++
		}
	}
	remaining := len(r.active)
	r.mu.Unlock()

	r.logger.Info("Idle conversations swept", "removed", removed, "remaining", remaining)
	return removed
}
