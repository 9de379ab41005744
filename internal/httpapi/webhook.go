package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nextlevelbuilder/leadline/internal/relay"
)

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var ev relay.WebhookEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	if !s.limiter.Allow(ev.From) {
		slog.Warn("webhook.rate_limited", "sender_hint", tail(ev.From))
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		return
	}

	result, err := s.pipeline.Handle(r.Context(), &ev)
	if err != nil {
		if errors.Is(err, relay.ErrBadRequest) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		// The pipeline contains everything else; reaching here means the
		// containment itself failed. Still answer with a body.
		slog.Error("webhook.unhandled", "error", err)
		writeJSON(w, http.StatusOK, map[string]string{"response": relay.CriticalFailureReply})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"response": result.Reply})
}

func tail(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}
