package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ashureev/sportsdesk/internal/domain"
	"github.com/ashureev/sportsdesk/internal/feed"
)

// GetFeed returns the current feed state.
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.feed.Snapshot())
}

// RefreshFeed runs a refresh and returns the state in effect once it settles.
// The refresh is detached from the request so a client disconnect does not
// cancel it halfway.
func (h *Handler) RefreshFeed(w http.ResponseWriter, r *http.Request) {
	state, applied := h.feed.Refresh(context.WithoutCancel(r.Context()))
	w.Header().Set("X-Refresh-Applied", strconv.FormatBool(applied))
	JSON(w, http.StatusOK, state)
}

// ListArticles returns one filtered page of the current articles.
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f feed.Filter

	if v := q.Get("category"); v != "" {
		c, ok := domain.ParseCategory(v)
		if !ok {
			Error(w, http.StatusBadRequest, "unknown category")
			return
		}
		f.Category = c
	}
	if v := q.Get("team"); v != "" {
		t, ok := domain.ParseTeam(v)
		if !ok {
			Error(w, http.StatusBadRequest, "unknown team")
			return
		}
		f.Team = t
	}

	var err error
	if f.Offset, err = intParam(q.Get("offset")); err != nil {
		Error(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}
	if f.Limit, err = intParam(q.Get("limit")); err != nil {
		Error(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	JSON(w, http.StatusOK, feed.Query(h.feed.Snapshot().Articles, f))
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}

// StreamFeed pushes the feed state over SSE: the current state on connect,
// then every newly applied state, with keepalive pings in between.
func (h *Handler) StreamFeed(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates, unsubscribe := h.feed.Subscribe()
	defer unsubscribe()

	if _, err := io.WriteString(w, fmt.Sprintf("retry: %d\n\n", h.retryDelay.Milliseconds())); err != nil {
		h.logger.Warn("failed to write SSE retry header", "error", err)
		return
	}
	if err := writeState(w, h.feed.Snapshot()); err != nil {
		h.logger.Warn("failed to write initial feed state", "error", err)
		return
	}
	flusher.Flush()
	h.logger.Info("Feed stream connected", "remote", r.RemoteAddr)

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("Feed stream disconnected", "remote", r.RemoteAddr)
			return
		case state := <-updates:
			if err := writeState(w, state); err != nil {
				h.logger.Warn("failed to write feed state", "error", err)
				return
			}
			flusher.Flush()
		case <-keepalive.C:
			if err := writeSSE(w, "ping", `{"status":"alive"}`); err != nil {
				h.logger.Warn("failed to write SSE keepalive ping", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeState(w io.Writer, s feed.State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal feed state: %w", err)
	}
	return writeSSEWithID(w, s.Generation, "feed", string(data))
}

func writeSSE(w io.Writer, event, data string) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

func writeSSEWithID(w io.Writer, id uint64, event, data string) error {
	_, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", id, event, data)
	return err
}
