package api

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// SocketRegistry tracks the live chat websocket of each conversation. A newer
// connection for the same conversation replaces and closes the older one.
type SocketRegistry struct {
	mu     sync.RWMutex
	active map[string]*websocket.Conn
	logger *slog.Logger
}

// NewSocketRegistry creates an empty registry.
func NewSocketRegistry(logger *slog.Logger) *SocketRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &SocketRegistry{
		active: make(map[string]*websocket.Conn),
		logger: logger,
	}
}

// Get returns the active connection for a conversation.
func (m *SocketRegistry) Get(conversationID string) *websocket.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[conversationID]
}

// Register makes conn the active connection for conversationID.
func (m *SocketRegistry) Register(conversationID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.active[conversationID]; ok && existing != conn {
		// Close waits for the peer's close frame; never block the registry on it.
		go func() { _ = existing.Close(websocket.StatusNormalClosure, "conversation opened elsewhere") }()
	}
	m.active[conversationID] = conn
	m.logger.Info("Chat socket registered", "conversation_id", conversationID)
}

// Unregister removes conn if it is still the active connection.
func (m *SocketRegistry) Unregister(conversationID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.active[conversationID]; ok && current == conn {
		delete(m.active, conversationID)
		m.logger.Info("Chat socket unregistered", "conversation_id", conversationID)
	}
}

// Len returns the number of live sockets.
func (m *SocketRegistry) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// CloseAll closes every live socket.
func (m *SocketRegistry) CloseAll(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, conn := range m.active {
		go func() { _ = conn.Close(websocket.StatusGoingAway, reason) }()
		delete(m.active, id)
	}
}
