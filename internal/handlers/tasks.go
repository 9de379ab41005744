package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/leadline/internal/dispatch"
	"github.com/nextlevelbuilder/leadline/internal/providers"
)

// Tasks turns a numbered dump of items into a tidy confirmation. The
// actual task backend is external; this handler shapes the reply and
// stores nothing itself.
type Tasks struct {
	provider providers.Provider
	model    string
}

func NewTasks(provider providers.Provider, model string) *Tasks {
	return &Tasks{provider: provider, model: model}
}

func (h *Tasks) Name() string { return "tasks" }

func (h *Tasks) Handle(ctx context.Context, tc *dispatch.TurnContext) (string, error) {
	resp, err := h.provider.Chat(ctx, providers.ChatRequest{
		Model: h.model,
		Messages: []providers.Message{
			{Role: "system", Content: "The user sent a task list. Restate the items back as a clean numbered list, confirm they were captured, and keep it SMS-short."},
			{Role: "user", Content: tc.Body},
		},
		MaxTokens: 300,
	})
	if err != nil {
		return "", fmt.Errorf("tasks: %w", err)
	}
	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return "", fmt.Errorf("tasks: empty completion")
	}
	return reply, nil
}
