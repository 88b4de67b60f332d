// Package identity assigns each client a conversation ID.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	ConversationCookieName = "sportsdesk_conversation"
	ConversationHeaderName = "X-Conversation-ID"
	conversationCookieAge  = 30 * 24 * time.Hour
)

type contextKey int

const conversationIDKey contextKey = iota

var (
	generatedIDPattern    = regexp.MustCompile(`^conv_[a-f0-9]{32}$`)
	conversationIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)
)

// ConversationIDFromContext extracts the conversation ID from the request context.
func ConversationIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(conversationIDKey).(string); ok {
		return v
	}
	return ""
}

// WithConversationID returns ctx carrying id.
func WithConversationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationIDKey, id)
}

func generateConversationID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate conversation id: %w", err)
	}
	return "conv_" + hex.EncodeToString(buf), nil
}

func sanitizeConversationID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || !conversationIDPattern.MatchString(id) {
		return ""
	}
	return id
}

func setCookie(w http.ResponseWriter, id string, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     ConversationCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(conversationCookieAge.Seconds()),
		Expires:  time.Now().Add(conversationCookieAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
}

// conversationIDFromRequest prefers an explicit header or query value, then
// the cookie, and finally mints a new ID stored in the cookie.
func conversationIDFromRequest(w http.ResponseWriter, r *http.Request, isDev bool) (string, error) {
	id := r.Header.Get(ConversationHeaderName)
	if id == "" {
		id = r.URL.Query().Get("conversation_id")
	}
	if id = sanitizeConversationID(id); id != "" {
		return id, nil
	}

	if c, err := r.Cookie(ConversationCookieName); err == nil && generatedIDPattern.MatchString(c.Value) {
		setCookie(w, c.Value, isDev)
		return c.Value, nil
	}

	id, err := generateConversationID()
	if err != nil {
		return "", err
	}
	setCookie(w, id, isDev)
	return id, nil
}

// Middleware injects the conversation ID into every request context.
func Middleware(isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := conversationIDFromRequest(w, r, isDev)
			if err != nil {
				http.Error(w, `{"error":"failed to establish conversation"}`, http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithConversationID(r.Context(), id)))
		})
	}
}

// IPFromRequest returns a normalized remote IP for rate limiting.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
