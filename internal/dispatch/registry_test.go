package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/nextlevelbuilder/leadline/internal/classify"
)

type stubHandler struct {
	name  string
	reply string
	err   error
	calls int
}

func (h *stubHandler) Name() string { return h.name }

func (h *stubHandler) Handle(ctx context.Context, tc *TurnContext) (string, error) {
	h.calls++
	return h.reply, h.err
}

func fullRegistry(general Handler) *Registry {
	r := NewRegistry()
	r.baseDelay = 0
	for _, intent := range classify.AllIntents() {
		r.Register(intent, Entry{Handler: &stubHandler{name: string(intent), reply: "from " + string(intent)}})
	}
	if general != nil {
		r.Register(classify.IntentGeneral, Entry{Handler: general})
	}
	return r
}

func TestValidateRequiresEveryIntent(t *testing.T) {
	r := NewRegistry()
	if err := r.Validate(); err == nil {
		t.Error("empty registry must fail validation")
	}

	r = fullRegistry(nil)
	if err := r.Validate(); err != nil {
		t.Errorf("complete registry failed validation: %v", err)
	}
}

func TestDispatchReturnsHandlerReply(t *testing.T) {
	r := fullRegistry(nil)
	got := r.Dispatch(context.Background(), classify.IntentTasks, &TurnContext{Sender: "+15551230001"})
	if got != "from tasks" {
		t.Errorf("reply = %q, want handler reply", got)
	}
}

func TestDispatchFallbackOnFailure(t *testing.T) {
	r := fullRegistry(nil)
	broken := &stubHandler{name: "calendar", err: errors.New("upstream down")}
	r.Register(classify.IntentCalendar, Entry{Handler: broken})

	got := r.Dispatch(context.Background(), classify.IntentCalendar, &TurnContext{Sender: "+15551230001"})
	if got == "" {
		t.Fatal("fallback reply must be non-empty")
	}
	if got != FallbackFor(classify.IntentCalendar) {
		t.Errorf("reply = %q, want calendar fallback", got)
	}
}

func TestDispatchRetriesRetryableEntries(t *testing.T) {
	r := fullRegistry(nil)
	flaky := &stubHandler{name: "contacts", err: errors.New("transient")}
	r.Register(classify.IntentContacts, Entry{Handler: flaky, Retryable: true, Attempts: 3})

	r.Dispatch(context.Background(), classify.IntentContacts, &TurnContext{Sender: "+15551230001"})
	if flaky.calls != 3 {
		t.Errorf("calls = %d, want 3", flaky.calls)
	}
}

func TestDispatchUnknownIntentRoutesToGeneral(t *testing.T) {
	general := &stubHandler{name: "general", reply: "general reply"}
	r := fullRegistry(general)

	got := r.Dispatch(context.Background(), classify.Intent("bogus"), &TurnContext{Sender: "+15551230001"})
	if got != "general reply" {
		t.Errorf("reply = %q, want general handler reply", got)
	}
	if general.calls != 1 {
		t.Errorf("general calls = %d, want 1", general.calls)
	}
}

func TestFallbackForAlwaysNonEmpty(t *testing.T) {
	for _, intent := range classify.AllIntents() {
		if FallbackFor(intent) == "" {
			t.Errorf("empty fallback for %q", intent)
		}
	}
}
