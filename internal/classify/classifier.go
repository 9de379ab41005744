package classify

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

// followUpWindow treats a message arriving this soon after a
// contact-management exchange as a continuation of it.
const followUpWindow = 10 * time.Minute

// CallProfile describes a registered call-capable profile offered to the
// semantic classifier for voice_call routing.
type CallProfile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Classifier produces (intent, sentiment) for inbound messages:
// deterministic rules first, then a semantic fallback call.
type Classifier struct {
	provider providers.Provider
	model    string
	log      store.ConversationLogStore
	profiles []CallProfile
}

func New(provider providers.Provider, model string, log store.ConversationLogStore, profiles []CallProfile) *Classifier {
	return &Classifier{provider: provider, model: model, log: log, profiles: profiles}
}

// Classify never fails the turn: any semantic-service or parse problem
// degrades to IntentGeneral with neutral sentiment.
func (c *Classifier) Classify(ctx context.Context, sender, body string, hasAttachment bool) Result {
	followUp := c.recentContactExchange(ctx, sender)
	if res, ok := MatchRules(body, hasAttachment, followUp); ok {
		return res
	}

	res, err := c.semantic(ctx, body)
	if err != nil {
		slog.Warn("classify.fallback", "sender_hint", tail(sender), "error", err)
		return Result{Intent: IntentGeneral, Sentiment: SentimentNeutral}
	}
	return res
}

func (c *Classifier) recentContactExchange(ctx context.Context, sender string) bool {
	if c.log == nil {
		return false
	}
	last, err := c.log.LastAgentTurn(ctx, sender, string(IntentContacts))
	if err != nil || last.IsZero() {
		return false
	}
	return time.Since(last) < followUpWindow
}

func (c *Classifier) semantic(ctx context.Context, body string) (Result, error) {
	var sb strings.Builder
	sb.WriteString("Classify the user message.\n\nIntents:\n")
	for _, it := range AllIntents() {
		fmt.Fprintf(&sb, "- %s\n", it)
	}
	sb.WriteString("\nSentiments: positive, neutral, negative, frustrated.\n")
	if len(c.profiles) > 0 {
		sb.WriteString("\nCall-capable profiles (set profile_id only for voice_call):\n")
		for _, p := range c.profiles {
			fmt.Fprintf(&sb, "- %s: %s (%s)\n", p.ID, p.Name, p.Description)
		}
	}
	sb.WriteString("\nRespond with JSON only: {\"intent\": \"...\", \"sentiment\": \"...\", \"profile_id\": \"\"}")

	resp, err := c.provider.Chat(ctx, providers.ChatRequest{
		Model: c.model,
		Messages: []providers.Message{
			{Role: "system", Content: sb.String()},
			{Role: "user", Content: body},
		},
		MaxTokens: 200,
		JSONMode:  true,
	})
	if err != nil {
		return Result{}, err
	}
	return ParseSemantic(resp.Content)
}

// ParseSemantic decodes a classification response, tolerating code
// fences and leading prose around the JSON object.
func ParseSemantic(raw string) (Result, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return Result{}, fmt.Errorf("no JSON object in classification response")
	}

	var parsed struct {
		Intent    string `json:"intent"`
		Sentiment string `json:"sentiment"`
		ProfileID string `json:"profile_id"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return Result{}, fmt.Errorf("decode classification: %w", err)
	}

	res := Result{
		Intent:    Intent(strings.ToLower(strings.TrimSpace(parsed.Intent))),
		Sentiment: Sentiment(strings.ToLower(strings.TrimSpace(parsed.Sentiment))),
		ProfileID: parsed.ProfileID,
	}
	if !res.Intent.Valid() {
		res.Intent = IntentGeneral
	}
	switch res.Sentiment {
	case SentimentPositive, SentimentNeutral, SentimentNegative, SentimentFrustrated:
	default:
		res.Sentiment = SentimentNeutral
	}
	return res, nil
}

// extractJSON returns the first balanced {...} block in s, or "".
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '"':
			if i == 0 || s[i-1] != '\\' {
				inString = !inString
			}
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

// tail returns the last 4 characters for log redaction.
func tail(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}
