package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/nextlevelbuilder/leadline/internal/store"
)

// Outcome is the access-control decision for one normalized sender.
type Outcome string

const (
	// Continue outcomes.
	OutcomeAdmin Outcome = "admin"
	OutcomeLead  Outcome = "lead"

	// Terminal outcomes: the inbound is logged and acknowledged, but no
	// automation reply is produced.
	OutcomePausedForAdmin  Outcome = "paused_for_admin"
	OutcomePausedForLead   Outcome = "paused_for_lead"
	OutcomeNoActiveGoal    Outcome = "no_active_goal"
	OutcomeContactNotFound Outcome = "contact_not_found"
)

// Terminal reports whether the outcome stops the turn before dispatch.
func (o Outcome) Terminal() bool {
	return o != OutcomeAdmin && o != OutcomeLead
}

// Access is a resolved sender: who they are and, for leads, the active
// goal attached to the turn.
type Access struct {
	Outcome Outcome
	Admin   *store.AdminPrincipal // set for admin outcomes
	Contact *store.Contact        // set for lead outcomes
	Goal    *store.ConversationGoal
}

// Resolver classifies senders into Admin / Gated-Lead / Unknown and
// enforces goal gating for leads. Admin lookup takes precedence over a
// Contact row with the same phone.
type Resolver struct {
	admins   store.AdminStore
	contacts store.ContactStore
	goals    store.GoalStore
}

func NewResolver(admins store.AdminStore, contacts store.ContactStore, goals store.GoalStore) *Resolver {
	return &Resolver{admins: admins, contacts: contacts, goals: goals}
}

// Resolve never auto-creates a Contact: an unknown sender is terminal.
func (r *Resolver) Resolve(ctx context.Context, phone string) (*Access, error) {
	admin, err := r.admins.GetByPhone(ctx, phone)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("admin lookup: %w", err)
	}
	if admin != nil {
		if admin.AIStatus == store.AIStatusPaused {
			return &Access{Outcome: OutcomePausedForAdmin, Admin: admin}, nil
		}
		return &Access{Outcome: OutcomeAdmin, Admin: admin}, nil
	}

	contact, err := r.contacts.GetByPhone(ctx, phone)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("contact lookup: %w", err)
	}
	if contact == nil {
		return &Access{Outcome: OutcomeContactNotFound}, nil
	}

	if contact.AIStatus == store.AIStatusPaused {
		return &Access{Outcome: OutcomePausedForLead, Contact: contact}, nil
	}

	goal, err := r.goals.ActiveByPhone(ctx, contact.Phone)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("goal lookup: %w", err)
	}
	if goal == nil {
		// A lead may never converse with automation absent an active goal.
		return &Access{Outcome: OutcomeNoActiveGoal, Contact: contact}, nil
	}

	return &Access{Outcome: OutcomeLead, Contact: contact, Goal: goal}, nil
}
