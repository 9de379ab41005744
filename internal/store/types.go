package store

import (
	"time"

	"github.com/google/uuid"
)

// AIStatus controls whether automation may reply to a principal.
type AIStatus string

const (
	AIStatusActive AIStatus = "active"
	AIStatusPaused AIStatus = "paused"
)

// GoalStatus is the lifecycle state of a conversation goal.
// completed and abandoned are terminal; no transition leaves them.
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusAbandoned GoalStatus = "abandoned"
)

// Priority orders admin notifications. high and urgent are pushed immediately.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Direction of a conversation log entry.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Contact is an address-book entry (a lead). Contacts are only created
// explicitly — never auto-created from an unknown inbound sender.
type Contact struct {
	ID            uuid.UUID `json:"id"`
	Phone         string    `json:"phone"` // E.164, unique
	Name          string    `json:"name"`
	OrgID         string    `json:"org_id"`
	Tags          []string  `json:"tags,omitempty"`
	AIStatus      AIStatus  `json:"ai_status"`
	AddedBySystem bool      `json:"added_by_system"`
	CreatedAt     time.Time `json:"created_at"`
}

// AdminPrincipal is a fully trusted operator phone number. Admins bypass
// goal gating entirely and take precedence over a Contact with the same phone.
type AdminPrincipal struct {
	ID       uuid.UUID `json:"id"`
	Phone    string    `json:"phone"` // unique
	OrgID    string    `json:"org_id"`
	Role     string    `json:"role"` // "admin" or "member"
	AIStatus AIStatus  `json:"ai_status"`
}

// ConversationGoal is the unit of purpose gating for a contact.
// At most one active goal exists per contact_phone at any time.
type ConversationGoal struct {
	ID                uuid.UUID  `json:"id"`
	ContactPhone      string     `json:"contact_phone"`
	Description       string     `json:"description"`
	Type              string     `json:"type"`
	Status            GoalStatus `json:"status"`
	ProgressNotes     string     `json:"progress_notes,omitempty"`
	CompletionSummary string     `json:"completion_summary,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	LastActivityAt    time.Time  `json:"last_activity_at"`
}

// LogEntry is one row of the append-only conversation log. The only
// permitted mutation is a single later backfill of Sentiment.
type LogEntry struct {
	ID           uuid.UUID `json:"id"`
	ContactPhone string    `json:"contact_phone"`
	Direction    string    `json:"direction"` // inbound | outbound
	Content      string    `json:"content"`
	AgentUsed    string    `json:"agent_used,omitempty"`
	Sentiment    string    `json:"sentiment,omitempty"` // empty until backfilled
	CreatedAt    time.Time `json:"created_at"`
}

// Notification is an operator alert. SentToAdmin transitions once,
// false→true, and never reverses.
type Notification struct {
	ID           uuid.UUID  `json:"id"`
	Type         string     `json:"type"`
	ContactPhone string     `json:"contact_phone,omitempty"`
	ContactName  string     `json:"contact_name,omitempty"`
	Message      string     `json:"message"`
	Priority     Priority   `json:"priority"`
	SentToAdmin  bool       `json:"sent_to_admin"`
	CreatedAt    time.Time  `json:"created_at"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
}

// MemoryFact is one extracted fact about a contact, unique on
// (contact_phone, key). Upserts win; no history is kept.
type MemoryFact struct {
	ContactPhone string  `json:"contact_phone"`
	Key          string  `json:"key"`
	Value        string  `json:"value"`
	Confidence   float64 `json:"confidence"`
}

// TurnSpan records one pipeline stage of one webhook turn for later
// inspection (classify, sentinel, dispatch, goal_advance, ...).
type TurnSpan struct {
	ID         uuid.UUID `json:"id"`
	TurnID     uuid.UUID `json:"turn_id"`
	Stage      string    `json:"stage"`
	SenderHint string    `json:"sender_hint,omitempty"` // trailing digits only
	Status     string    `json:"status"`                // completed | error
	Error      string    `json:"error,omitempty"`
	DurationMS int       `json:"duration_ms"`
	StartedAt  time.Time `json:"started_at"`
}

// GenNewID returns a new time-ordered row id.
func GenNewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}
