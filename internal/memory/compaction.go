package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nextlevelbuilder/leadline/internal/providers"
	"github.com/nextlevelbuilder/leadline/internal/store"
)

// compactionThreshold is how many outbound turns a contact needs before
// their history is worth folding into a summary.
const compactionThreshold = 20

// Compactor periodically folds long conversation histories into a
// single conversation_summary memory fact per contact, so prompts stay
// small without losing continuity.
type Compactor struct {
	contacts store.ContactStore
	log      store.ConversationLogStore
	memories store.MemoryStore
	provider providers.Provider
	model    string
	orgID    string
}

func NewCompactor(contacts store.ContactStore, log store.ConversationLogStore, memories store.MemoryStore, provider providers.Provider, model, orgID string) *Compactor {
	return &Compactor{contacts: contacts, log: log, memories: memories, provider: provider, model: model, orgID: orgID}
}

// Run performs one compaction sweep. Per-contact failures are logged
// and skipped; the sweep itself only fails on a listing error.
func (c *Compactor) Run(ctx context.Context) error {
	contacts, err := c.contacts.List(ctx, c.orgID)
	if err != nil {
		return fmt.Errorf("list contacts: %w", err)
	}

	compacted := 0
	for _, contact := range contacts {
		n, err := c.log.CountOutbound(ctx, contact.Phone)
		if err != nil || n < compactionThreshold {
			continue
		}
		if err := c.compactOne(ctx, contact.Phone); err != nil {
			slog.Warn("memory.compact_failed", "sender_hint", tail(contact.Phone), "error", err)
			continue
		}
		compacted++
	}
	if compacted > 0 {
		slog.Info("memory.compacted", "contacts", compacted)
	}
	return nil
}

func (c *Compactor) compactOne(ctx context.Context, phone string) error {
	history, err := c.log.Recent(ctx, phone, 30)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("Summarize this SMS conversation in 3-4 sentences, keeping names, commitments and open items:\n\n")
	for _, e := range history {
		fmt.Fprintf(&sb, "[%s] %s\n", e.Direction, e.Content)
	}

	resp, err := c.provider.Chat(ctx, providers.ChatRequest{
		Model:     c.model,
		Messages:  []providers.Message{{Role: "user", Content: sb.String()}},
		MaxTokens: 300,
	})
	if err != nil {
		return err
	}
	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		return fmt.Errorf("empty summary")
	}

	return c.memories.Upsert(ctx, &store.MemoryFact{
		ContactPhone: phone,
		Key:          "conversation_summary",
		Value:        summary,
		Confidence:   0.8,
	})
}
