package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/leadline/internal/dispatch"
	"github.com/nextlevelbuilder/leadline/internal/providers"
	"github.com/nextlevelbuilder/leadline/internal/store"
)

// Knowledge is the default Q&A handler. It answers with the LLM,
// seeding the prompt with the active goal and remembered facts so the
// reply stays on-purpose and personal.
type Knowledge struct {
	provider providers.Provider
	model    string
	memories store.MemoryStore
	persona  string
}

func NewKnowledge(provider providers.Provider, model, persona string, memories store.MemoryStore) *Knowledge {
	if persona == "" {
		persona = "You are a helpful assistant texting on behalf of a business. Keep replies short and SMS-friendly."
	}
	return &Knowledge{provider: provider, model: model, memories: memories, persona: persona}
}

func (h *Knowledge) Name() string { return "knowledge" }

func (h *Knowledge) Handle(ctx context.Context, tc *dispatch.TurnContext) (string, error) {
	var sb strings.Builder
	sb.WriteString(h.persona)

	if tc.Goal != nil {
		fmt.Fprintf(&sb, "\n\nThe current conversation goal: %s", tc.Goal.Description)
		if tc.Goal.ProgressNotes != "" {
			fmt.Fprintf(&sb, "\nProgress so far: %s", tc.Goal.ProgressNotes)
		}
	}
	if tc.DisplayName != "" {
		fmt.Fprintf(&sb, "\nYou are talking to %s.", tc.DisplayName)
	}

	if h.memories != nil {
		if facts, err := h.memories.ByPhone(ctx, tc.Sender); err == nil && len(facts) > 0 {
			sb.WriteString("\n\nKnown about this person:")
			for _, f := range facts {
				fmt.Fprintf(&sb, "\n- %s: %s", f.Key, f.Value)
			}
		}
	}

	resp, err := h.provider.Chat(ctx, providers.ChatRequest{
		Model: h.model,
		Messages: []providers.Message{
			{Role: "system", Content: sb.String()},
			{Role: "user", Content: tc.Body},
		},
		MaxTokens: 400,
	})
	if err != nil {
		return "", fmt.Errorf("knowledge: %w", err)
	}
	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return "", fmt.Errorf("knowledge: empty completion")
	}
	return reply, nil
}
