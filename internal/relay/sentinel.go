package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nextlevelbuilder/leadline/internal/classify"
	"github.com/nextlevelbuilder/leadline/internal/store"
)

// DeEscalationReply is the fixed reply sent when the sentinel fires.
const DeEscalationReply = "I hear you — I'm connecting you to a human manager right now. Someone will be with you shortly."

// Sentinel intercepts hostile sentiment before dispatch. It pauses the
// contact's automation, records a system alert in the log, and raises
// an operator notification. The check is unconditional: no intent can
// override it, and no handler runs after it fires.
type Sentinel struct {
	contacts store.ContactStore
	log      store.ConversationLogStore
	alerter  Alerter
}

// Alerter raises operator notifications (satisfied by notify.Escalator).
type Alerter interface {
	Notify(ctx context.Context, n *store.Notification) error
}

func NewSentinel(contacts store.ContactStore, log store.ConversationLogStore, alerter Alerter) *Sentinel {
	return &Sentinel{contacts: contacts, log: log, alerter: alerter}
}

// Check runs after classification on lead turns. Returns (reply, true)
// when it fires; the dispatch table is never reached for that turn.
func (s *Sentinel) Check(ctx context.Context, contact *store.Contact, sentiment classify.Sentiment) (string, bool) {
	if !sentiment.Hostile() {
		return "", false
	}

	slog.Warn("sentinel.triggered", "sender_hint", tail(contact.Phone), "sentiment", sentiment)

	if err := s.contacts.SetAIStatus(ctx, contact.Phone, store.AIStatusPaused); err != nil {
		slog.Error("sentinel.pause_failed", "sender_hint", tail(contact.Phone), "error", err)
	}

	if err := s.log.Append(ctx, &store.LogEntry{
		ContactPhone: contact.Phone,
		Direction:    store.DirectionOutbound,
		Content:      fmt.Sprintf("[system] automation paused: %s sentiment detected", sentiment),
		AgentUsed:    "sentinel",
	}); err != nil {
		slog.Warn("sentinel.log_failed", "error", err)
	}

	if s.alerter != nil {
		err := s.alerter.Notify(ctx, &store.Notification{
			Type:         "sentinel_pause",
			ContactPhone: contact.Phone,
			ContactName:  contact.Name,
			Message:      fmt.Sprintf("Automation paused for %s (%s sentiment). A human should take over.", name(contact), sentiment),
			Priority:     store.PriorityUrgent,
		})
		if err != nil {
			slog.Warn("sentinel.alert_failed", "error", err)
		}
	}

	return DeEscalationReply, true
}

func name(c *store.Contact) string {
	if c.Name != "" {
		return c.Name
	}
	return c.Phone
}

func tail(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}
