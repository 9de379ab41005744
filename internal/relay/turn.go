package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nextlevelbuilder/leadline/internal/classify"
	"github.com/nextlevelbuilder/leadline/internal/dispatch"
	"github.com/nextlevelbuilder/leadline/internal/goals"
	"github.com/nextlevelbuilder/leadline/internal/memory"
	"github.com/nextlevelbuilder/leadline/internal/store"
	"github.com/nextlevelbuilder/leadline/internal/trace"
)

// TenantConfig is the per-tenant configuration threaded explicitly
// through each turn instead of read from ambient state.
type TenantConfig struct {
	OrgID       string
	CountryCode string
}

// Pipeline runs one webhook event through the full turn:
// normalize → log → access → classify → sentinel → dispatch →
// goal advance → detached memory extraction.
type Pipeline struct {
	tenant     TenantConfig
	log        store.ConversationLogStore
	resolver   *Resolver
	classifier *classify.Classifier
	sentinel   *Sentinel
	registry   *dispatch.Registry
	tracker    *goals.Tracker
	extractor  *memory.Extractor
	alerter    Alerter
	collector  *trace.Collector
}

// PipelineConfig wires a Pipeline. Tracker, Extractor and Collector may
// be nil (their stages are skipped).
type PipelineConfig struct {
	Tenant     TenantConfig
	Log        store.ConversationLogStore
	Resolver   *Resolver
	Classifier *classify.Classifier
	Sentinel   *Sentinel
	Registry   *dispatch.Registry
	Tracker    *goals.Tracker
	Extractor  *memory.Extractor
	Alerter    Alerter
	Collector  *trace.Collector
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		tenant:     cfg.Tenant,
		log:        cfg.Log,
		resolver:   cfg.Resolver,
		classifier: cfg.Classifier,
		sentinel:   cfg.Sentinel,
		registry:   cfg.Registry,
		tracker:    cfg.Tracker,
		extractor:  cfg.Extractor,
		alerter:    cfg.Alerter,
		collector:  cfg.Collector,
	}
}

// Handle processes one inbound event. The only returned errors are
// validation rejections (ErrBadRequest); everything past validation is
// contained — an unexpected failure raises an urgent alert and yields
// the generic failure reply, never an empty-handed caller.
func (p *Pipeline) Handle(ctx context.Context, ev *WebhookEvent) (result *TurnResult, err error) {
	if strings.TrimSpace(ev.From) == "" || strings.TrimSpace(ev.Body) == "" {
		return nil, fmt.Errorf("%w: From and Body are required", ErrBadRequest)
	}

	sender := NormalizePhone(ev.From, p.tenant.CountryCode)
	turn := p.collector.StartTurn(tail(sender))

	defer func() {
		if r := recover(); r != nil {
			slog.Error("turn.panic", "sender_hint", tail(sender), "recovered", r)
			result = p.contain(ctx, sender, fmt.Errorf("panic: %v", r))
			err = nil
		}
	}()

	result, turnErr := p.run(ctx, turn, sender, ev)
	if turnErr != nil {
		return p.contain(ctx, sender, turnErr), nil
	}
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, turn *trace.Turn, sender string, ev *WebhookEvent) (*TurnResult, error) {
	// Inbound is logged before any access decision so every event is
	// observable, rejected or not.
	inboundEntry := &store.LogEntry{
		ContactPhone: sender,
		Direction:    store.DirectionInbound,
		Content:      ev.Body,
	}
	if err := p.log.Append(ctx, inboundEntry); err != nil {
		return nil, fmt.Errorf("log inbound: %w", err)
	}

	start := time.Now()
	access, err := p.resolver.Resolve(ctx, sender)
	turn.Stage("access", start, err)
	if err != nil {
		return nil, fmt.Errorf("resolve access: %w", err)
	}

	if access.Outcome.Terminal() {
		slog.Info("turn.rejected", "sender_hint", tail(sender), "outcome", access.Outcome)
		return &TurnResult{Reply: "", Outcome: access.Outcome}, nil
	}

	start = time.Now()
	cls := p.classifier.Classify(ctx, sender, ev.Body, ev.NumMedia > 0)
	turn.Stage("classify", start, nil)
	slog.Debug("turn.classified", "sender_hint", tail(sender), "intent", cls.Intent, "sentiment", cls.Sentiment, "fast_path", cls.FastPath)

	// Sentiment backfill is the log's single permitted mutation.
	if err := p.log.BackfillSentiment(ctx, inboundEntry.ID, string(cls.Sentiment)); err != nil {
		slog.Warn("turn.sentiment_backfill_failed", "error", err)
	}

	// Safety override: runs strictly before any handler, lead turns only
	// (admins are the humans the sentinel hands off to).
	if access.Outcome == OutcomeLead {
		start = time.Now()
		if reply, fired := p.sentinel.Check(ctx, access.Contact, cls.Sentiment); fired {
			turn.Stage("sentinel", start, nil)
			p.logOutbound(ctx, sender, reply, "sentinel")
			return &TurnResult{Reply: reply, Outcome: access.Outcome}, nil
		}
	}

	tc := &dispatch.TurnContext{
		Sender:      sender,
		Body:        ev.Body,
		DisplayName: displayName(ev, access),
		OrgID:       p.tenant.OrgID,
		NumMedia:    ev.NumMedia,
		MediaURL:    ev.MediaURL0,
		ProfileID:   cls.ProfileID,
		Goal:        access.Goal,
	}
	if access.Outcome == OutcomeAdmin {
		tc.Role = dispatch.RoleAdmin
	} else {
		tc.Role = dispatch.RoleLead
	}

	start = time.Now()
	reply := p.registry.Dispatch(ctx, cls.Intent, tc)
	turn.Stage("dispatch", start, nil)

	p.logOutbound(ctx, sender, reply, string(cls.Intent))

	// Goal advance is synchronous but best-effort: its failures never
	// block the reply.
	if access.Outcome == OutcomeLead && access.Goal != nil && p.tracker != nil {
		start = time.Now()
		p.tracker.Advance(ctx, access.Goal, access.Contact.Name, ev.Body, reply)
		turn.Stage("goal_advance", start, nil)
	}

	// Fire-and-forget: the turn holds no reference to wait on.
	if p.extractor != nil {
		p.extractor.ExtractDetached(sender, ev.Body, reply)
	}

	return &TurnResult{Reply: reply, Outcome: access.Outcome}, nil
}

// contain is the critical-error path: log, raise an urgent alert, and
// still hand the gateway a response body.
func (p *Pipeline) contain(ctx context.Context, sender string, cause error) *TurnResult {
	slog.Error("turn.critical", "sender_hint", tail(sender), "error", cause)

	if p.alerter != nil {
		alertErr := p.alerter.Notify(ctx, &store.Notification{
			Type:         "critical_error",
			ContactPhone: sender,
			Message:      fmt.Sprintf("Turn failed for %s: %v", tail(sender), cause),
			Priority:     store.PriorityUrgent,
		})
		if alertErr != nil {
			slog.Error("turn.alert_failed", "error", alertErr)
		}
	}

	return &TurnResult{Reply: CriticalFailureReply}
}

func (p *Pipeline) logOutbound(ctx context.Context, sender, content, agent string) {
	if err := p.log.Append(ctx, &store.LogEntry{
		ContactPhone: sender,
		Direction:    store.DirectionOutbound,
		Content:      content,
		AgentUsed:    agent,
	}); err != nil {
		slog.Warn("turn.log_outbound_failed", "error", err)
	}
}

func displayName(ev *WebhookEvent, access *Access) string {
	if ev.ContactName != "" {
		return ev.ContactName
	}
	if access.Contact != nil {
		return access.Contact.Name
	}
	return ""
}
