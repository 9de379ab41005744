package pg

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/leadline/internal/store"
)

// SpanStore implements store.SpanStore backed by Postgres.
type SpanStore struct {
	db *sql.DB
}

func NewSpanStore(db *sql.DB) *SpanStore {
	return &SpanStore{db: db}
}

func (s *SpanStore) Insert(ctx context.Context, sp *store.TurnSpan) error {
	if sp.ID == uuid.Nil {
		sp.ID = store.GenNewID()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turn_spans (id, turn_id, stage, sender_hint, status, error, duration_ms, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sp.ID, sp.TurnID, sp.Stage, sp.SenderHint, sp.Status, sp.Error, sp.DurationMS, sp.StartedAt,
	)
	return err
}
