package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nextlevelbuilder/leadline/internal/classify"
)

const defaultBaseDelay = 500 * time.Millisecond

// Entry binds one intent to a handler with its failure policy.
type Entry struct {
	Handler Handler
	// Retryable entries run through RetryWithBackoff with Attempts tries.
	Retryable bool
	Attempts  int
	// Fallback is the static user-facing sentence returned when the
	// handler exhausts its attempts. Raw errors never reach the user.
	Fallback string
}

// Registry is the intent→handler table, built once at startup.
type Registry struct {
	entries   map[classify.Intent]Entry
	baseDelay time.Duration
}

func NewRegistry() *Registry {
	return &Registry{
		entries:   make(map[classify.Intent]Entry),
		baseDelay: defaultBaseDelay,
	}
}

// Register binds an intent. Re-registering an intent replaces it.
func (r *Registry) Register(intent classify.Intent, e Entry) {
	if e.Attempts <= 0 {
		e.Attempts = 1
	}
	if e.Fallback == "" {
		e.Fallback = FallbackFor(intent)
	}
	r.entries[intent] = e
}

// Validate returns an error unless every known intent has an entry.
// Called at startup so a missing binding fails fast, not mid-turn.
func (r *Registry) Validate() error {
	for _, intent := range classify.AllIntents() {
		if _, ok := r.entries[intent]; !ok {
			return fmt.Errorf("dispatch: no handler registered for intent %q", intent)
		}
	}
	return nil
}

// Dispatch runs the handler for the intent and always returns reply
// text: the handler's on success, the entry's fallback on exhausted
// failure. Unknown intents route to the general entry.
func (r *Registry) Dispatch(ctx context.Context, intent classify.Intent, tc *TurnContext) string {
	entry, ok := r.entries[intent]
	if !ok {
		entry = r.entries[classify.IntentGeneral]
		intent = classify.IntentGeneral
	}

	attempts := 1
	if entry.Retryable {
		attempts = entry.Attempts
	}

	reply, err := RetryWithBackoff(ctx, attempts, r.baseDelay, func() (string, error) {
		return entry.Handler.Handle(ctx, tc)
	})
	if err != nil {
		slog.Error("dispatch.fallback",
			"intent", intent,
			"handler", entry.Handler.Name(),
			"sender_hint", tailDigits(tc.Sender),
			"error", err)
		return entry.Fallback
	}
	return reply
}

// FallbackFor returns the documented static fallback sentence for an intent.
func FallbackFor(intent classify.Intent) string {
	switch intent {
	case classify.IntentCalendar:
		return "I'm having trouble accessing the calendar right now. I'll have someone follow up with you shortly."
	case classify.IntentDocument:
		return "I couldn't put that document together just now. Let me flag it for the team."
	case classify.IntentVoiceCall:
		return "I wasn't able to place that call. I'll make sure someone reaches out to you."
	case classify.IntentImage, classify.IntentVision:
		return "I'm having trouble with images at the moment. Could you describe what you need?"
	case classify.IntentCampaign:
		return "I couldn't start that send right now. The team has been notified."
	case classify.IntentPlaces:
		return "I'm having trouble looking up locations right now. Please try again in a bit."
	case classify.IntentDiagnostics:
		return "I couldn't run a system check just now."
	case classify.IntentScheduledSend:
		return "I couldn't schedule that message. I'll have someone confirm it for you."
	case classify.IntentZoom:
		return "I couldn't set up the video call. I'll have someone send you a link directly."
	case classify.IntentPayment:
		return "I couldn't generate that payment link. The team has been notified."
	case classify.IntentContacts:
		return "I couldn't reach out to that contact right now. I'll make sure it gets handled."
	case classify.IntentTasks:
		return "I couldn't update the task list just now. Your items weren't lost — I'll retry shortly."
	default:
		return "Sorry, I'm having a little trouble right now. Could you try that again?"
	}
}

func tailDigits(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}
