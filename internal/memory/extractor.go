package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nextlevelbuilder/leadline/internal/providers"
	"github.com/nextlevelbuilder/leadline/internal/store"
)

// Extractor pulls durable facts out of each exchange and upserts them
// keyed on (contact_phone, key). It runs detached after the reply is
// computed; its failures are logged and never reach the turn.
type Extractor struct {
	memories store.MemoryStore
	log      store.ConversationLogStore
	provider providers.Provider
	model    string
	timeout  time.Duration
}

func NewExtractor(memories store.MemoryStore, log store.ConversationLogStore, provider providers.Provider, model string) *Extractor {
	return &Extractor{
		memories: memories,
		log:      log,
		provider: provider,
		model:    model,
		timeout:  30 * time.Second,
	}
}

// ExtractDetached launches extraction in its own goroutine with its own
// error boundary. The caller holds no reference to wait on.
func (e *Extractor) ExtractDetached(phone, inbound, reply string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("memory.extract_panic", "recovered", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		if err := e.extract(ctx, phone, inbound, reply); err != nil {
			slog.Warn("memory.extract_failed", "sender_hint", tail(phone), "error", err)
		}
	}()
}

type fact struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

func (e *Extractor) extract(ctx context.Context, phone, inbound, reply string) error {
	prompt := fmt.Sprintf(
		"Extract durable facts about the person from this SMS exchange (preferences, names, dates, constraints). "+
			"Skip small talk. Respond with JSON only: {\"facts\": [{\"key\": \"snake_case\", \"value\": \"...\", \"confidence\": 0.0}]}\n\n"+
			"Them: %s\nUs: %s", inbound, reply)

	resp, err := e.provider.Chat(ctx, providers.ChatRequest{
		Model:     e.model,
		Messages:  []providers.Message{{Role: "user", Content: prompt}},
		MaxTokens: 400,
		JSONMode:  true,
	})
	if err != nil {
		return err
	}

	var parsed struct {
		Facts []fact `json:"facts"`
	}
	payload := resp.Content
	if start := strings.IndexByte(payload, '{'); start >= 0 {
		if end := strings.LastIndexByte(payload, '}'); end > start {
			payload = payload[start : end+1]
		}
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return fmt.Errorf("decode facts: %w", err)
	}

	for _, f := range parsed.Facts {
		if f.Key == "" || f.Value == "" {
			continue
		}
		if err := e.memories.Upsert(ctx, &store.MemoryFact{
			ContactPhone: phone,
			Key:          f.Key,
			Value:        f.Value,
			Confidence:   f.Confidence,
		}); err != nil {
			slog.Warn("memory.upsert_failed", "key", f.Key, "error", err)
		}
	}
	if len(parsed.Facts) > 0 {
		slog.Debug("memory.extracted", "sender_hint", tail(phone), "facts", len(parsed.Facts))
	}
	return nil
}

func tail(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}
