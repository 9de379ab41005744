package relay

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nextlevelbuilder/leadline/internal/classify"
	"github.com/nextlevelbuilder/leadline/internal/dispatch"
	"github.com/nextlevelbuilder/leadline/internal/goals"
	"github.com/nextlevelbuilder/leadline/internal/store"
)

type turnFixture struct {
	pipeline *Pipeline
	contacts *memContacts
	goals    *memGoals
	log      *memLog
	alerter  *recordingAlerter
	calls    *handlerCalls
}

type handlerCalls struct {
	mu sync.Mutex
	n  map[classify.Intent]int
}

func (c *handlerCalls) inc(intent classify.Intent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n[intent]++
}

func (c *handlerCalls) get(intent classify.Intent) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[intent]
}

// newTurnFixture wires a full pipeline over in-memory stores. The
// provider is scripted: responses are consumed in call order (the
// classifier calls first, the goal tracker second).
func newTurnFixture(t *testing.T, provider *scriptedProvider) *turnFixture {
	t.Helper()
	ctx := context.Background()

	contacts := newMemContacts()
	admins := newMemAdmins()
	goalStore := newMemGoals()
	log := newMemLog()
	alerter := &recordingAlerter{}

	if err := admins.Create(ctx, &store.AdminPrincipal{Phone: "+15550000001", Role: "admin", AIStatus: store.AIStatusActive}); err != nil {
		t.Fatal(err)
	}
	if err := contacts.Create(ctx, &store.Contact{Phone: "+15551230001", Name: "Dana", AIStatus: store.AIStatusActive}); err != nil {
		t.Fatal(err)
	}
	if err := goalStore.Create(ctx, &store.ConversationGoal{ContactPhone: "+15551230001", Description: "schedule a roof inspection"}); err != nil {
		t.Fatal(err)
	}

	calls := &handlerCalls{n: make(map[classify.Intent]int)}
	registry := dispatch.NewRegistry()
	for _, intent := range classify.AllIntents() {
		intent := intent
		registry.Register(intent, dispatch.Entry{Handler: dispatch.HandlerFunc{
			HandlerName: string(intent),
			Fn: func(ctx context.Context, tc *dispatch.TurnContext) (string, error) {
				calls.inc(intent)
				return "reply from " + string(intent), nil
			},
		}})
	}
	if err := registry.Validate(); err != nil {
		t.Fatal(err)
	}

	pipeline := NewPipeline(PipelineConfig{
		Tenant:     TenantConfig{OrgID: "org-1", CountryCode: "1"},
		Log:        log,
		Resolver:   NewResolver(admins, contacts, goalStore),
		Classifier: classify.New(provider, "scripted", log, nil),
		Sentinel:   NewSentinel(contacts, log, alerter),
		Registry:   registry,
		Tracker:    goals.NewTracker(goalStore, log, provider, "scripted", alerter),
		Alerter:    alerter,
	})

	return &turnFixture{
		pipeline: pipeline,
		contacts: contacts,
		goals:    goalStore,
		log:      log,
		alerter:  alerter,
		calls:    calls,
	}
}

func neutralClassification() string {
	return `{"intent": "general", "sentiment": "neutral"}`
}

func onTrackEvaluation() string {
	return `{"on_track": true, "satisfied": false, "alert_operator": false, "progress_note": "", "completion_summary": ""}`
}

func TestHandleRejectsMissingFields(t *testing.T) {
	f := newTurnFixture(t, &scriptedProvider{})
	tests := []struct {
		name string
		ev   WebhookEvent
	}{
		{"missing from", WebhookEvent{Body: "hello"}},
		{"missing body", WebhookEvent{From: "+15551230001"}},
		{"whitespace body", WebhookEvent{From: "+15551230001", Body: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.pipeline.Handle(context.Background(), &tt.ev)
			if !errors.Is(err, ErrBadRequest) {
				t.Errorf("err = %v, want ErrBadRequest", err)
			}
		})
	}
}

func TestHandleUnknownSenderSilentDrop(t *testing.T) {
	f := newTurnFixture(t, &scriptedProvider{responses: []string{neutralClassification()}})

	result, err := f.pipeline.Handle(context.Background(), &WebhookEvent{From: "+19998887777", Body: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Reply != "" {
		t.Errorf("reply = %q, want empty (silent drop)", result.Reply)
	}
	if result.Outcome != OutcomeContactNotFound {
		t.Errorf("outcome = %q, want contact_not_found", result.Outcome)
	}

	// The inbound is still logged; nothing goes out.
	if got := len(f.log.byDirection(store.DirectionInbound)); got != 1 {
		t.Errorf("inbound entries = %d, want 1", got)
	}
	if got := len(f.log.byDirection(store.DirectionOutbound)); got != 0 {
		t.Errorf("outbound entries = %d, want 0", got)
	}
	for _, intent := range classify.AllIntents() {
		if f.calls.get(intent) != 0 {
			t.Errorf("handler %q ran for a terminal turn", intent)
		}
	}
}

func TestHandleNoActiveGoalSilentDrop(t *testing.T) {
	f := newTurnFixture(t, &scriptedProvider{responses: []string{neutralClassification()}})
	ctx := context.Background()

	g, err := f.goals.ActiveByPhone(ctx, "+15551230001")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.goals.Abandon(ctx, g.ID); err != nil {
		t.Fatal(err)
	}

	result, err := f.pipeline.Handle(ctx, &WebhookEvent{From: "+15551230001", Body: "hello?"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Reply != "" || result.Outcome != OutcomeNoActiveGoal {
		t.Errorf("got (%q, %q), want silent no_active_goal", result.Reply, result.Outcome)
	}
}

func TestHandleAdminTurn(t *testing.T) {
	f := newTurnFixture(t, &scriptedProvider{responses: []string{neutralClassification()}})

	result, err := f.pipeline.Handle(context.Background(), &WebhookEvent{From: "+15550000001", Body: "how many leads today?"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeAdmin {
		t.Errorf("outcome = %q, want admin", result.Outcome)
	}
	if result.Reply != "reply from general" {
		t.Errorf("reply = %q", result.Reply)
	}

	inbound := f.log.byDirection(store.DirectionInbound)
	if len(inbound) != 1 {
		t.Fatalf("inbound entries = %d, want 1", len(inbound))
	}
	if inbound[0].Sentiment != "neutral" {
		t.Errorf("sentiment = %q, want backfilled neutral", inbound[0].Sentiment)
	}
	outbound := f.log.byDirection(store.DirectionOutbound)
	if len(outbound) != 1 {
		t.Fatalf("outbound entries = %d, want 1", len(outbound))
	}
	if outbound[0].AgentUsed != "general" {
		t.Errorf("agent_used = %q, want general", outbound[0].AgentUsed)
	}
}

func TestHandleTenDigitSenderIsNormalized(t *testing.T) {
	f := newTurnFixture(t, &scriptedProvider{responses: []string{neutralClassification(), onTrackEvaluation()}})

	// The contact is stored as +15551230001; the gateway sends bare digits.
	result, err := f.pipeline.Handle(context.Background(), &WebhookEvent{From: "5551230001", Body: "sounds good"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeLead {
		t.Errorf("outcome = %q, want lead", result.Outcome)
	}
}

func TestHandleFrustratedLeadTriggersSentinel(t *testing.T) {
	f := newTurnFixture(t, &scriptedProvider{responses: []string{`{"intent": "general", "sentiment": "frustrated"}`}})
	ctx := context.Background()

	result, err := f.pipeline.Handle(ctx, &WebhookEvent{From: "+15551230001", Body: "this is ridiculous, stop texting me"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Reply != DeEscalationReply {
		t.Errorf("reply = %q, want de-escalation reply", result.Reply)
	}

	// No handler may run after the sentinel fires.
	for _, intent := range classify.AllIntents() {
		if f.calls.get(intent) != 0 {
			t.Errorf("handler %q ran after sentinel", intent)
		}
	}

	c, err := f.contacts.GetByPhone(ctx, "+15551230001")
	if err != nil {
		t.Fatal(err)
	}
	if c.AIStatus != store.AIStatusPaused {
		t.Errorf("ai_status = %q, want paused", c.AIStatus)
	}

	alerts := f.alerter.byType("sentinel_pause")
	if len(alerts) != 1 {
		t.Fatalf("sentinel_pause alerts = %d, want 1", len(alerts))
	}
	if alerts[0].Priority != store.PriorityUrgent {
		t.Errorf("priority = %q, want urgent", alerts[0].Priority)
	}
}

func TestHandleAdminHostileSentimentSkipsSentinel(t *testing.T) {
	f := newTurnFixture(t, &scriptedProvider{responses: []string{`{"intent": "general", "sentiment": "frustrated"}`}})

	result, err := f.pipeline.Handle(context.Background(), &WebhookEvent{From: "+15550000001", Body: "why is this thing so slow"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Reply != "reply from general" {
		t.Errorf("reply = %q, admin turns must still dispatch", result.Reply)
	}
	if got := len(f.alerter.byType("sentinel_pause")); got != 0 {
		t.Errorf("sentinel fired on an admin turn (%d alerts)", got)
	}
}

func TestHandleHandlerFailureReturnsFallback(t *testing.T) {
	f := newTurnFixture(t, &scriptedProvider{responses: []string{neutralClassification(), onTrackEvaluation()}})
	f.pipeline.registry.Register(classify.IntentGeneral, dispatch.Entry{Handler: dispatch.HandlerFunc{
		HandlerName: "general",
		Fn: func(ctx context.Context, tc *dispatch.TurnContext) (string, error) {
			return "", errors.New("knowledge service down")
		},
	}})

	result, err := f.pipeline.Handle(context.Background(), &WebhookEvent{From: "+15551230001", Body: "do you have openings?"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Reply == "" {
		t.Fatal("reply must be non-empty even when the handler fails")
	}
	if result.Reply != dispatch.FallbackFor(classify.IntentGeneral) {
		t.Errorf("reply = %q, want static general fallback", result.Reply)
	}
}

func TestHandleGoalSatisfiedCompletesAndAlerts(t *testing.T) {
	f := newTurnFixture(t, &scriptedProvider{responses: []string{
		`{"intent": "general", "sentiment": "positive"}`,
		`{"on_track": true, "satisfied": true, "alert_operator": false, "progress_note": "", "completion_summary": "Inspection booked for Tuesday."}`,
	}})
	ctx := context.Background()

	result, err := f.pipeline.Handle(ctx, &WebhookEvent{From: "+15551230001", Body: "Tuesday works, see you then"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeLead {
		t.Fatalf("outcome = %q, want lead", result.Outcome)
	}

	if _, err := f.goals.ActiveByPhone(ctx, "+15551230001"); !errors.Is(err, store.ErrNotFound) {
		t.Error("goal should no longer be active")
	}
	list, err := f.goals.ListByPhone(ctx, "+15551230001")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Status != store.GoalStatusCompleted {
		t.Fatalf("goal not completed: %+v", list)
	}
	if list[0].CompletionSummary != "Inspection booked for Tuesday." {
		t.Errorf("summary = %q", list[0].CompletionSummary)
	}

	alerts := f.alerter.byType("goal_completed")
	if len(alerts) != 1 {
		t.Fatalf("goal_completed alerts = %d, want 1", len(alerts))
	}
	if alerts[0].Priority != store.PriorityHigh {
		t.Errorf("priority = %q, want high", alerts[0].Priority)
	}
}

func TestHandleEvaluationFailureLeavesGoalActive(t *testing.T) {
	f := newTurnFixture(t, &scriptedProvider{responses: []string{
		neutralClassification(),
		"sorry, I had trouble with that",
	}})
	ctx := context.Background()

	if _, err := f.pipeline.Handle(ctx, &WebhookEvent{From: "+15551230001", Body: "maybe next week"}); err != nil {
		t.Fatal(err)
	}

	g, err := f.goals.ActiveByPhone(ctx, "+15551230001")
	if err != nil {
		t.Fatalf("goal must remain active after a bad evaluation: %v", err)
	}
	if g.ProgressNotes != "" {
		t.Errorf("progress notes mutated: %q", g.ProgressNotes)
	}
}

func TestHandlePanicIsContained(t *testing.T) {
	f := newTurnFixture(t, &scriptedProvider{responses: []string{neutralClassification()}})
	f.pipeline.registry.Register(classify.IntentGeneral, dispatch.Entry{Handler: dispatch.HandlerFunc{
		HandlerName: "general",
		Fn: func(ctx context.Context, tc *dispatch.TurnContext) (string, error) {
			panic("boom")
		},
	}})

	result, err := f.pipeline.Handle(context.Background(), &WebhookEvent{From: "+15550000001", Body: "hello"})
	if err != nil {
		t.Fatalf("panics must not surface as errors: %v", err)
	}
	if result.Reply != CriticalFailureReply {
		t.Errorf("reply = %q, want critical failure reply", result.Reply)
	}
	if got := len(f.alerter.byType("critical_error")); got != 1 {
		t.Errorf("critical_error alerts = %d, want 1", got)
	}
}
