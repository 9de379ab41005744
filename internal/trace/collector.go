package trace

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/leadline/internal/store"
)

// Collector persists per-turn pipeline spans. Nil collectors are valid
// and record nothing, so the pipeline never branches on tracing.
type Collector struct {
	spans store.SpanStore
}

func NewCollector(spans store.SpanStore) *Collector {
	if spans == nil {
		return nil
	}
	return &Collector{spans: spans}
}

// Turn is the span context for one webhook turn.
type Turn struct {
	c          *Collector
	id         uuid.UUID
	senderHint string
}

// StartTurn opens span recording for one turn. senderHint should be a
// redacted fragment (trailing digits), never the full address.
func (c *Collector) StartTurn(senderHint string) *Turn {
	if c == nil {
		return nil
	}
	return &Turn{c: c, id: store.GenNewID(), senderHint: senderHint}
}

// Stage records one pipeline stage. Persist failures are logged and
// dropped; tracing must never affect the turn.
func (t *Turn) Stage(stage string, start time.Time, err error) {
	if t == nil {
		return
	}
	span := &store.TurnSpan{
		TurnID:     t.id,
		Stage:      stage,
		SenderHint: t.senderHint,
		Status:     "completed",
		DurationMS: int(time.Since(start).Milliseconds()),
		StartedAt:  start,
	}
	if err != nil {
		span.Status = "error"
		span.Error = err.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if insertErr := t.c.spans.Insert(ctx, span); insertErr != nil {
		slog.Debug("trace.span_dropped", "stage", stage, "error", insertErr)
	}
}
