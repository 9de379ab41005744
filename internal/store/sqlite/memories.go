package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/leadline/internal/store"
)

// MemoryStore implements store.MemoryStore backed by sqlite.
type MemoryStore struct {
	db *sql.DB
}

func NewMemoryStore(db *sql.DB) *MemoryStore {
	return &MemoryStore{db: db}
}

func (s *MemoryStore) Upsert(ctx context.Context, f *store.MemoryFact) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memory_facts (contact_phone, key, value, confidence, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (contact_phone, key)
		 DO UPDATE SET value = excluded.value, confidence = excluded.confidence, updated_at = excluded.updated_at`,
		f.ContactPhone, f.Key, f.Value, f.Confidence, time.Now(),
	)
	return err
}

func (s *MemoryStore) ByPhone(ctx context.Context, phone string) ([]store.MemoryFact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT contact_phone, key, value, confidence FROM memory_facts
		 WHERE contact_phone = ? ORDER BY key`, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.MemoryFact
	for rows.Next() {
		var f store.MemoryFact
		if err := rows.Scan(&f.ContactPhone, &f.Key, &f.Value, &f.Confidence); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// SpanStore implements store.SpanStore backed by sqlite.
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
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sp.ID, sp.TurnID, sp.Stage, sp.SenderHint, sp.Status, sp.Error, sp.DurationMS, sp.StartedAt,
	)
	return err
}
