package api

import (
	"net/http"
)

// GetConfig returns the server configuration for the frontend.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"ai_enabled": h.credentialValid(),
		"chat_model": h.chatModel,
		"text_model": h.textModel,
	})
}

// Health reports liveness plus the credential and feed status. An invalid
// credential degrades the status but the service itself stays up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"api": "ok", "credential": "ok", "feed": "ok"}
	status := "healthy"

	if !h.credentialValid() {
		checks["credential"] = "invalid"
		status = "degraded"
	}
	if h.feed != nil {
		if s := h.feed.Snapshot(); s.LastError != nil {
			checks["feed"] = "degraded"
			status = "degraded"
		}
	}

	body := map[string]interface{}{
		"status": status,
		"checks": checks,
	}
	if h.conversations != nil {
		body["conversations"] = h.conversations.Len()
	}
	JSON(w, http.StatusOK, body)
}

func (h *Handler) credentialValid() bool {
	return h.cred != nil && h.cred.Valid()
}
