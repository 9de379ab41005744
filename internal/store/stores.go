package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get-style lookups when no row matches.
var ErrNotFound = errors.New("store: not found")

// ContactStore manages address-book contacts.
type ContactStore interface {
	Create(ctx context.Context, c *Contact) error
	// GetByPhone matches the exact normalized phone first, then falls back
	// to a trailing-10-digit match to tolerate formatting noise.
	GetByPhone(ctx context.Context, phone string) (*Contact, error)
	SetAIStatus(ctx context.Context, phone string, status AIStatus) error
	List(ctx context.Context, orgID string) ([]Contact, error)
	Count(ctx context.Context) (int, error)
}

// AdminStore manages trusted operator principals.
type AdminStore interface {
	Create(ctx context.Context, a *AdminPrincipal) error
	GetByPhone(ctx context.Context, phone string) (*AdminPrincipal, error)
	List(ctx context.Context, orgID string) ([]AdminPrincipal, error)
}

// GoalStore manages conversation goals. All terminal transitions are
// conditional on status='active' so concurrent writers cannot race a
// goal out of a terminal state.
type GoalStore interface {
	// Create atomically abandons any active goal for the phone, then
	// inserts the new goal as active.
	Create(ctx context.Context, g *ConversationGoal) error
	ActiveByPhone(ctx context.Context, phone string) (*ConversationGoal, error)
	// Complete transitions active→completed. Returns false if the goal
	// was no longer active (a concurrent terminal transition won).
	Complete(ctx context.Context, id uuid.UUID, summary string) (bool, error)
	// Abandon transitions active→abandoned with the same guard.
	Abandon(ctx context.Context, id uuid.UUID) (bool, error)
	// UpdateProgress records progress notes and bumps last_activity_at,
	// only while the goal is still active.
	UpdateProgress(ctx context.Context, id uuid.UUID, notes string) error
	ListByPhone(ctx context.Context, phone string) ([]ConversationGoal, error)
	CountActive(ctx context.Context) (int, error)
}

// ConversationLogStore is append-only; the single permitted mutation is
// a one-shot sentiment backfill.
type ConversationLogStore interface {
	Append(ctx context.Context, e *LogEntry) error
	BackfillSentiment(ctx context.Context, id uuid.UUID, sentiment string) error
	Recent(ctx context.Context, phone string, limit int) ([]LogEntry, error)
	// LastAgentTurn returns the time of the most recent outbound entry
	// produced by the named agent for the phone, or zero time if none.
	LastAgentTurn(ctx context.Context, phone, agent string) (time.Time, error)
	CountOutbound(ctx context.Context, phone string) (int, error)
}

// NotificationStore manages operator alerts.
type NotificationStore interface {
	Create(ctx context.Context, n *Notification) error
	// MarkSent flips sent_to_admin false→true. Returns false when the
	// notification was already sent (idempotent send guard).
	MarkSent(ctx context.Context, id uuid.UUID) (bool, error)
	// PendingExists reports whether an unsent notification of the same
	// type for the same phone was created after the cutoff (dedupe).
	PendingExists(ctx context.Context, ntype, phone string, since time.Time) (bool, error)
	ListUnsent(ctx context.Context, minPriority Priority) ([]Notification, error)
	CountUnsent(ctx context.Context) (int, error)
}

// MemoryStore upserts extracted facts, latest write wins.
type MemoryStore interface {
	Upsert(ctx context.Context, f *MemoryFact) error
	ByPhone(ctx context.Context, phone string) ([]MemoryFact, error)
}

// SpanStore persists per-turn pipeline spans.
type SpanStore interface {
	Insert(ctx context.Context, s *TurnSpan) error
}

// Stores is the top-level container for all storage backends.
type Stores struct {
	Contacts      ContactStore
	Admins        AdminStore
	Goals         GoalStore
	Log           ConversationLogStore
	Notifications NotificationStore
	Memories      MemoryStore
	Spans         SpanStore

	closer func() error
}

// SetCloser registers the backend close hook.
func (s *Stores) SetCloser(fn func() error) { s.closer = fn }

// Close releases the underlying database handle.
func (s *Stores) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// StoreConfig selects and configures a backend.
type StoreConfig struct {
	Mode        string // "standalone" (sqlite) or "managed" (postgres)
	PostgresDSN string
	SQLitePath  string
}
