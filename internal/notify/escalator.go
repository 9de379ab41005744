package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nextlevelbuilder/leadline/internal/outbound"
	"github.com/nextlevelbuilder/leadline/internal/store"
)

// dedupeWindow suppresses duplicate unsent alerts of the same type for
// the same contact.
const dedupeWindow = 15 * time.Minute

// Escalator creates operator notifications and pushes high/urgent ones
// immediately through the outbound gateway. Lower priorities wait for
// the periodic Flush sweep. Sending is idempotent per notification id.
type Escalator struct {
	notifications store.NotificationStore
	admins        store.AdminStore
	push          *outbound.Client
	orgID         string
}

func NewEscalator(notifications store.NotificationStore, admins store.AdminStore, push *outbound.Client, orgID string) *Escalator {
	return &Escalator{notifications: notifications, admins: admins, push: push, orgID: orgID}
}

// Notify inserts the notification and, for high/urgent priority, sends
// it right away. Duplicate unsent alerts inside the dedupe window are
// dropped silently.
func (e *Escalator) Notify(ctx context.Context, n *store.Notification) error {
	if n.ContactPhone != "" {
		dup, err := e.notifications.PendingExists(ctx, n.Type, n.ContactPhone, time.Now().Add(-dedupeWindow))
		if err != nil {
			return fmt.Errorf("dedupe check: %w", err)
		}
		if dup {
			slog.Debug("notify.deduped", "type", n.Type)
			return nil
		}
	}

	if err := e.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	slog.Info("notify.created", "type", n.Type, "priority", n.Priority)

	if n.Priority == store.PriorityHigh || n.Priority == store.PriorityUrgent {
		e.send(ctx, n)
	}
	return nil
}

// Flush sends every still-unsent high/urgent notification. Run from
// the periodic sweep; safe to run concurrently with Notify because
// MarkSent is a conditional flip.
func (e *Escalator) Flush(ctx context.Context) error {
	pending, err := e.notifications.ListUnsent(ctx, store.PriorityHigh)
	if err != nil {
		return fmt.Errorf("list unsent: %w", err)
	}
	for i := range pending {
		e.send(ctx, &pending[i])
	}
	if len(pending) > 0 {
		slog.Info("notify.flushed", "count", len(pending))
	}
	return nil
}

// send claims the notification first, then delivers. Claiming first
// keeps delivery idempotent: a notification id is sent at most once
// even when Notify and Flush race.
func (e *Escalator) send(ctx context.Context, n *store.Notification) {
	claimed, err := e.notifications.MarkSent(ctx, n.ID)
	if err != nil {
		slog.Warn("notify.claim_failed", "id", n.ID, "error", err)
		return
	}
	if !claimed {
		return // already sent
	}

	if !e.push.Configured() {
		slog.Warn("notify.no_gateway", "id", n.ID)
		return
	}

	admins, err := e.admins.List(ctx, e.orgID)
	if err != nil {
		slog.Warn("notify.admin_lookup_failed", "error", err)
		return
	}
	text := formatAlert(n)
	for _, a := range admins {
		// Delivery failure is logged inside the client, never re-thrown.
		e.push.SendDetached(a.Phone, text)
	}
}

func formatAlert(n *store.Notification) string {
	prefix := "FYI"
	switch n.Priority {
	case store.PriorityUrgent:
		prefix = "URGENT"
	case store.PriorityHigh:
		prefix = "ALERT"
	}
	if n.ContactName != "" {
		return fmt.Sprintf("[%s] %s — %s", prefix, n.ContactName, n.Message)
	}
	return fmt.Sprintf("[%s] %s", prefix, n.Message)
}
