package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"

	"github.com/ashureev/sportsdesk/internal/chat"
	"github.com/ashureev/sportsdesk/internal/domain"
	"github.com/ashureev/sportsdesk/internal/identity"
	"github.com/ashureev/sportsdesk/internal/shared"
)

// wsMessage is both the inbound and outbound frame of the chat socket.
type wsMessage struct {
	Type      string            `json:"type"`
	Content   string            `json:"content,omitempty"`
	Active    *bool             `json:"active,omitempty"`
	LastError string            `json:"last_error,omitempty"`
	Turns     []domain.ChatTurn `json:"turns,omitempty"`
}

// ChatSocket serves a conversation over a websocket. The transcript is sent on
// connect; each inbound "turn" frame answers with a "turns" frame holding the
// appended turns, and "ping" answers "pong".
func (h *Handler) ChatSocket(w http.ResponseWriter, r *http.Request) {
	id := identity.ConversationIDFromContext(r.Context())
	h.logger.Info("Chat socket request", "conversation_id", id, "ip", r.RemoteAddr)
	if id == "" {
		Error(w, http.StatusBadRequest, "missing conversation id")
		return
	}

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("Failed to accept WebSocket", "error", err, "conversation_id", id)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "conversation ended"); closeErr != nil {
			h.logger.Debug("Failed to close websocket", "error", closeErr, "conversation_id", id)
		}
	}()

	h.sockets.Register(id, ws)
	defer h.sockets.Unregister(id, ws)

	ctx := r.Context()
	clientIP := identity.IPFromRequest(r)
	c := h.conversations.Start(ctx, id)
	if err := h.writeFrame(ctx, ws, frameFor(c, "transcript", c.Transcript())); err != nil {
		h.logger.Debug("Failed to send transcript", "error", err)
		return
	}

	h.readLoop(ctx, ws, c, clientIP)
	h.logger.Info("Chat socket ended", "conversation_id", id)
}

func (h *Handler) readLoop(ctx context.Context, ws *websocket.Conn, c *chat.Conversation, clientIP string) {
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Debug("WebSocket closed by client", "conversation_id", c.ID)
			} else if ctx.Err() == nil {
				h.logger.Warn("WebSocket read error", "error", err, "conversation_id", c.ID)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			msg = wsMessage{Type: "turn", Content: string(message)}
		}

		var reply wsMessage
		switch msg.Type {
		case "turn":
			reply = h.socketTurn(ctx, c, clientIP, msg.Content)
		case "ping":
			reply = wsMessage{Type: "pong"}
		default:
			reply = wsMessage{Type: "error", Content: "unknown message type"}
		}
		if err := h.writeFrame(ctx, ws, reply); err != nil {
			h.logger.Debug("Failed to write socket frame", "error", err, "conversation_id", c.ID)
			return
		}
	}
}

// socketTurn shares the HTTP limiter, keyed by the client address captured at
// accept time.
func (h *Handler) socketTurn(ctx context.Context, c *chat.Conversation, clientIP, text string) wsMessage {
	if !h.limiter.Allow(clientIP) {
		return wsMessage{Type: "error", Content: "rate limit exceeded"}
	}

	turns, err := c.Send(ctx, text)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return wsMessage{Type: "error", Content: err.Error()}
	case errors.Is(err, shared.ErrSessionNotInitialized):
		return frameFor(c, "error", nil)
	case err != nil:
		h.logger.Warn("Chat turn failed", "conversation_id", c.ID, "error", err)
	}
	return frameFor(c, "turns", turns)
}

func frameFor(c *chat.Conversation, typ string, turns []domain.ChatTurn) wsMessage {
	active := c.Active()
	return wsMessage{
		Type:      typ,
		Active:    &active,
		LastError: c.LastError(),
		Turns:     turns,
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	h.logger.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *Handler) writeFrame(ctx context.Context, ws *websocket.Conn, v wsMessage) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
