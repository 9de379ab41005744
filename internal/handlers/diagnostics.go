package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/nextlevelbuilder/leadline/internal/dispatch"
	"github.com/nextlevelbuilder/leadline/internal/store"
)

// Diagnostics reports basic system health. Admin-only in practice: the
// classifier routes here from operator chatter like "status check".
type Diagnostics struct {
	stores  *store.Stores
	started time.Time
	version string
}

func NewDiagnostics(stores *store.Stores, version string) *Diagnostics {
	return &Diagnostics{stores: stores, started: time.Now(), version: version}
}

func (h *Diagnostics) Name() string { return "diagnostics" }

func (h *Diagnostics) Handle(ctx context.Context, tc *dispatch.TurnContext) (string, error) {
	if tc.Role != dispatch.RoleAdmin {
		return "System diagnostics are only available to the team.", nil
	}

	contacts, err := h.stores.Contacts.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("diagnostics: count contacts: %w", err)
	}
	activeGoals, err := h.stores.Goals.CountActive(ctx)
	if err != nil {
		return "", fmt.Errorf("diagnostics: count goals: %w", err)
	}
	unsent, err := h.stores.Notifications.CountUnsent(ctx)
	if err != nil {
		return "", fmt.Errorf("diagnostics: count notifications: %w", err)
	}

	return fmt.Sprintf(
		"All systems go (v%s). Uptime %s. %d contacts, %d active goals, %d pending notifications.",
		h.version, time.Since(h.started).Round(time.Minute), contacts, activeGoals, unsent), nil
}
