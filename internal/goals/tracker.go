package goals

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nextlevelbuilder/leadline/internal/providers"
	"github.com/nextlevelbuilder/leadline/internal/store"
)

// historyDepth is how many log entries the advance evaluation sees.
const historyDepth = 10

// Alerter raises operator notifications. Satisfied by notify.Escalator;
// an interface here keeps the tracker testable without the escalator.
type Alerter interface {
	Notify(ctx context.Context, n *store.Notification) error
}

// Tracker advances the per-contact goal state machine after each turn.
//
// Transitions: active→completed and active→abandoned, both terminal.
// Every transition is conditioned on status='active' at the store, so a
// concurrent manual complete/abandon and an automatic advance cannot
// both win — the loser's update is a no-op.
type Tracker struct {
	goals    store.GoalStore
	log      store.ConversationLogStore
	provider providers.Provider
	model    string
	alerter  Alerter
}

func NewTracker(goals store.GoalStore, log store.ConversationLogStore, provider providers.Provider, model string, alerter Alerter) *Tracker {
	return &Tracker{goals: goals, log: log, provider: provider, model: model, alerter: alerter}
}

// Create opens a new active goal, atomically abandoning any prior
// active goal for the phone.
func (t *Tracker) Create(ctx context.Context, phone, description, goalType string) (*store.ConversationGoal, error) {
	g := &store.ConversationGoal{
		ContactPhone: phone,
		Description:  description,
		Type:         goalType,
	}
	if err := t.goals.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	slog.Info("goal.created", "sender_hint", tail(phone), "type", goalType)
	return g, nil
}

// Complete is the operator-triggered terminal transition.
func (t *Tracker) Complete(ctx context.Context, goal *store.ConversationGoal, summary string) (bool, error) {
	changed, err := t.goals.Complete(ctx, goal.ID, summary)
	if err != nil {
		return false, err
	}
	if changed {
		slog.Info("goal.completed", "sender_hint", tail(goal.ContactPhone), "manual", true)
	}
	return changed, nil
}

// Abandon is the operator-triggered terminal transition.
func (t *Tracker) Abandon(ctx context.Context, goal *store.ConversationGoal) (bool, error) {
	changed, err := t.goals.Abandon(ctx, goal.ID)
	if err != nil {
		return false, err
	}
	if changed {
		slog.Info("goal.abandoned", "sender_hint", tail(goal.ContactPhone))
	}
	return changed, nil
}

type evaluation struct {
	OnTrack           bool   `json:"on_track"`
	Satisfied         bool   `json:"satisfied"`
	AlertOperator     bool   `json:"alert_operator"`
	ProgressNote      string `json:"progress_note"`
	CompletionSummary string `json:"completion_summary"`
}

// Advance runs once per gated-lead turn, after the reply is produced.
// It is best-effort: any service or parse failure leaves the goal
// active and untouched. A progress-tracking outage must never block
// message delivery, so Advance returns nothing to the turn.
func (t *Tracker) Advance(ctx context.Context, goal *store.ConversationGoal, contactName, inbound, reply string) {
	eval, err := t.evaluate(ctx, goal, inbound, reply)
	if err != nil {
		slog.Warn("goal.advance_skipped", "sender_hint", tail(goal.ContactPhone), "error", err)
		return
	}

	if eval.Satisfied {
		summary := eval.CompletionSummary
		if summary == "" {
			summary = "Goal satisfied: " + goal.Description
		}
		changed, err := t.goals.Complete(ctx, goal.ID, summary)
		if err != nil {
			slog.Warn("goal.complete_failed", "sender_hint", tail(goal.ContactPhone), "error", err)
			return
		}
		if !changed {
			// A manual terminal transition committed first; nothing to do.
			return
		}
		slog.Info("goal.completed", "sender_hint", tail(goal.ContactPhone))
		t.alert(ctx, &store.Notification{
			Type:         "goal_completed",
			ContactPhone: goal.ContactPhone,
			ContactName:  contactName,
			Message:      fmt.Sprintf("Goal completed for %s: %s", displayName(contactName, goal.ContactPhone), summary),
			Priority:     store.PriorityHigh,
		})
		return
	}

	if eval.ProgressNote != "" {
		if err := t.goals.UpdateProgress(ctx, goal.ID, eval.ProgressNote); err != nil {
			slog.Warn("goal.progress_failed", "sender_hint", tail(goal.ContactPhone), "error", err)
		}
	}

	if !eval.OnTrack || eval.AlertOperator {
		slog.Info("goal.drift", "sender_hint", tail(goal.ContactPhone))
		t.alert(ctx, &store.Notification{
			Type:         "goal_drift",
			ContactPhone: goal.ContactPhone,
			ContactName:  contactName,
			Message:      fmt.Sprintf("Conversation with %s is drifting off its goal (%s). Latest: %q", displayName(contactName, goal.ContactPhone), goal.Description, truncate(inbound, 120)),
			Priority:     store.PriorityNormal,
		})
	}
}

func (t *Tracker) evaluate(ctx context.Context, goal *store.ConversationGoal, inbound, reply string) (*evaluation, error) {
	history, err := t.log.Recent(ctx, goal.ContactPhone, historyDepth)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Goal: %s\n", goal.Description)
	if goal.ProgressNotes != "" {
		fmt.Fprintf(&sb, "Progress so far: %s\n", goal.ProgressNotes)
	}
	sb.WriteString("\nConversation:\n")
	for _, e := range history {
		fmt.Fprintf(&sb, "[%s] %s\n", e.Direction, truncate(e.Content, 300))
	}
	fmt.Fprintf(&sb, "[inbound] %s\n[outbound] %s\n", truncate(inbound, 300), truncate(reply, 300))
	sb.WriteString("\nEvaluate whether the conversation is progressing toward the goal. Respond with JSON only: " +
		`{"on_track": bool, "satisfied": bool, "alert_operator": bool, "progress_note": "", "completion_summary": ""}`)

	resp, err := t.provider.Chat(ctx, providers.ChatRequest{
		Model: t.model,
		Messages: []providers.Message{
			{Role: "system", Content: "You track goal progress for SMS conversations. Be conservative: satisfied only when the goal is clearly done."},
			{Role: "user", Content: sb.String()},
		},
		MaxTokens: 300,
		JSONMode:  true,
	})
	if err != nil {
		return nil, err
	}

	payload := resp.Content
	if start := strings.IndexByte(payload, '{'); start >= 0 {
		if end := strings.LastIndexByte(payload, '}'); end > start {
			payload = payload[start : end+1]
		}
	}
	var eval evaluation
	if err := json.Unmarshal([]byte(payload), &eval); err != nil {
		return nil, fmt.Errorf("decode evaluation: %w", err)
	}
	return &eval, nil
}

func (t *Tracker) alert(ctx context.Context, n *store.Notification) {
	if t.alerter == nil {
		return
	}
	if err := t.alerter.Notify(ctx, n); err != nil {
		slog.Warn("goal.alert_failed", "type", n.Type, "error", err)
	}
}

func displayName(name, phone string) string {
	if name != "" {
		return name
	}
	return phone
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func tail(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}
