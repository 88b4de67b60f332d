package api

import (
	"encoding/json"
	"errors"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ashureev/sportsdesk/internal/chat"
	"github.com/ashureev/sportsdesk/internal/domain"
	"github.com/ashureev/sportsdesk/internal/identity"
	"github.com/ashureev/sportsdesk/internal/shared"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries a conversation's status and the turns relevant to the call.
type ChatResponse struct {
	ConversationID string            `json:"conversation_id"`
	Active         bool              `json:"active"`
	LastError      string            `json:"last_error,omitempty"`
	Turns          []domain.ChatTurn `json:"turns"`
}

func newChatResponse(c *chat.Conversation, turns []domain.ChatTurn) ChatResponse {
	if turns == nil {
		turns = []domain.ChatTurn{}
	}
	return ChatResponse{
		ConversationID: c.ID,
		Active:         c.Active(),
		LastError:      c.LastError(),
		Turns:          turns,
	}
}

// GetChat starts the caller's conversation if needed and returns its transcript.
func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	id := identity.ConversationIDFromContext(r.Context())
	if id == "" {
		Error(w, http.StatusBadRequest, "missing conversation id")
		return
	}

	c := h.conversations.Start(r.Context(), id)
	JSON(w, http.StatusOK, newChatResponse(c, c.Transcript()))
}

// PostChat sends one requester message and returns the turns it appended.
// A credential rejection answers 503 and a missing session 409; any other
// provider failure is reported inline as a bot turn.
func (h *Handler) PostChat(w http.ResponseWriter, r *http.Request) {
	id := identity.ConversationIDFromContext(r.Context())
	if id == "" {
		Error(w, http.StatusBadRequest, "missing conversation id")
		return
	}

	// Keyed by client address so rotating conversation IDs does not bypass throttling.
	if !h.limiter.Allow(identity.IPFromRequest(r)) {
		Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBody)
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := h.conversations.Start(r.Context(), id)
	h.logger.Info("Chat request",
		"conversation_id", id,
		"request_id", chiMiddleware.GetReqID(r.Context()),
		"message_length", len(req.Message),
	)

	turns, err := c.Send(r.Context(), req.Message)
	switch {
	case err == nil:
		JSON(w, http.StatusOK, newChatResponse(c, turns))
	case errors.Is(err, chat.ErrEmptyMessage):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrSessionNotInitialized):
		JSON(w, http.StatusConflict, newChatResponse(c, turns))
	case errors.Is(err, shared.ErrCredentialMissingOrInvalid):
		h.logger.Warn("Chat rejected by provider credential", "conversation_id", id)
		JSON(w, http.StatusServiceUnavailable, newChatResponse(c, turns))
	default:
		h.logger.Warn("Chat turn failed", "conversation_id", id, "error", err)
		JSON(w, http.StatusOK, newChatResponse(c, turns))
	}
}
