package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/leadline/internal/store"
)

// ConversationLogStore implements store.ConversationLogStore backed by sqlite.
type ConversationLogStore struct {
	db *sql.DB
}

func NewConversationLogStore(db *sql.DB) *ConversationLogStore {
	return &ConversationLogStore{db: db}
}

func (s *ConversationLogStore) Append(ctx context.Context, e *store.LogEntry) error {
	if e.ID == uuid.Nil {
		e.ID = store.GenNewID()
	}
	e.CreatedAt = time.Now()

	var sentiment any
	if e.Sentiment != "" {
		sentiment = e.Sentiment
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_log (id, contact_phone, direction, content, agent_used, sentiment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ContactPhone, e.Direction, e.Content, e.AgentUsed, sentiment, e.CreatedAt,
	)
	return err
}

func (s *ConversationLogStore) BackfillSentiment(ctx context.Context, id uuid.UUID, sentiment string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE conversation_log SET sentiment = ? WHERE id = ? AND sentiment IS NULL`,
		sentiment, id)
	return err
}

func (s *ConversationLogStore) Recent(ctx context.Context, phone string, limit int) ([]store.LogEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, contact_phone, direction, content, agent_used, sentiment, created_at
		 FROM conversation_log WHERE contact_phone = ?
		 ORDER BY created_at DESC LIMIT ?`, phone, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.LogEntry
	for rows.Next() {
		var e store.LogEntry
		var agent, sentiment sql.NullString
		if err := rows.Scan(&e.ID, &e.ContactPhone, &e.Direction, &e.Content, &agent, &sentiment, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.AgentUsed = agent.String
		e.Sentiment = sentiment.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *ConversationLogStore) LastAgentTurn(ctx context.Context, phone, agent string) (time.Time, error) {
	var t time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at FROM conversation_log
		 WHERE contact_phone = ? AND direction = 'outbound' AND agent_used = ?
		 ORDER BY created_at DESC LIMIT 1`, phone, agent).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	return t, err
}

func (s *ConversationLogStore) CountOutbound(ctx context.Context, phone string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversation_log WHERE contact_phone = ? AND direction = 'outbound'`,
		phone).Scan(&n)
	return n, err
}
