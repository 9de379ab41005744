package dispatch

import (
	"context"

	"github.com/nextlevelbuilder/leadline/internal/store"
)

// Role of the sender for this turn, as resolved by access control.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleLead  Role = "lead"
)

// TurnContext carries everything a handler may need for one turn.
// Tenant configuration is passed here explicitly rather than read from
// ambient state.
type TurnContext struct {
	Sender      string
	Body        string
	DisplayName string
	OrgID       string
	Role        Role

	NumMedia int
	MediaURL string

	// Goal is the lead's active conversation goal; nil for admin turns.
	Goal *store.ConversationGoal

	// ProfileID is the call-capable profile selected by classification,
	// when present.
	ProfileID string
}

// Handler is the uniform capability contract every dispatch-table entry
// implements. A returned string is the outbound reply text; an error is
// subject to the entry's retry/fallback policy and never reaches the
// end user raw.
type Handler interface {
	Name() string
	Handle(ctx context.Context, tc *TurnContext) (string, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc struct {
	HandlerName string
	Fn          func(ctx context.Context, tc *TurnContext) (string, error)
}

func (h HandlerFunc) Name() string { return h.HandlerName }

func (h HandlerFunc) Handle(ctx context.Context, tc *TurnContext) (string, error) {
	return h.Fn(ctx, tc)
}
