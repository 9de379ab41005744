package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/leadline/internal/store"
)

// GoalStore implements store.GoalStore backed by Postgres.
//
// Terminal transitions are guarded with `WHERE status = 'active'` so two
// concurrent writers can never both move a goal out of active, and a
// terminal row is never modified again.
type GoalStore struct {
	db *sql.DB
}

func NewGoalStore(db *sql.DB) *GoalStore {
	return &GoalStore{db: db}
}

func (s *GoalStore) Create(ctx context.Context, g *store.ConversationGoal) error {
	if g.ID == uuid.Nil {
		g.ID = store.GenNewID()
	}
	now := time.Now()
	g.Status = store.GoalStatusActive
	g.CreatedAt = now
	g.LastActivityAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Abandon any prior active goal first so the one-active-per-phone
	// invariant holds even under concurrent creates.
	if _, err := tx.ExecContext(ctx,
		`UPDATE conversation_goals SET status = 'abandoned'
		 WHERE contact_phone = $1 AND status = 'active'`, g.ContactPhone); err != nil {
		return fmt.Errorf("abandon prior goal: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO conversation_goals
		 (id, contact_phone, description, type, status, progress_notes, completion_summary, created_at, last_activity_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		g.ID, g.ContactPhone, g.Description, g.Type, g.Status,
		g.ProgressNotes, g.CompletionSummary, g.CreatedAt, g.LastActivityAt,
	); err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}

	return tx.Commit()
}

func (s *GoalStore) ActiveByPhone(ctx context.Context, phone string) (*store.ConversationGoal, error) {
	return s.scanOne(ctx,
		`SELECT id, contact_phone, description, type, status, progress_notes, completion_summary,
		        created_at, completed_at, last_activity_at
		 FROM conversation_goals WHERE contact_phone = $1 AND status = 'active'`, phone)
}

func (s *GoalStore) Complete(ctx context.Context, id uuid.UUID, summary string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversation_goals
		 SET status = 'completed', completion_summary = $1, completed_at = $2, last_activity_at = $2
		 WHERE id = $3 AND status = 'active'`,
		summary, time.Now(), id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *GoalStore) Abandon(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversation_goals SET status = 'abandoned', last_activity_at = $1
		 WHERE id = $2 AND status = 'active'`,
		time.Now(), id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *GoalStore) UpdateProgress(ctx context.Context, id uuid.UUID, notes string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE conversation_goals SET progress_notes = $1, last_activity_at = $2
		 WHERE id = $3 AND status = 'active'`,
		notes, time.Now(), id)
	return err
}

func (s *GoalStore) ListByPhone(ctx context.Context, phone string) ([]store.ConversationGoal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, contact_phone, description, type, status, progress_notes, completion_summary,
		        created_at, completed_at, last_activity_at
		 FROM conversation_goals WHERE contact_phone = $1 ORDER BY created_at DESC`, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.ConversationGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (s *GoalStore) CountActive(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversation_goals WHERE status = 'active'`).Scan(&n)
	return n, err
}

func (s *GoalStore) scanOne(ctx context.Context, query string, args ...any) (*store.ConversationGoal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, store.ErrNotFound
	}
	return scanGoal(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(r rowScanner) (*store.ConversationGoal, error) {
	var g store.ConversationGoal
	var notes, summary sql.NullString
	var completedAt sql.NullTime
	err := r.Scan(&g.ID, &g.ContactPhone, &g.Description, &g.Type, &g.Status,
		&notes, &summary, &g.CreatedAt, &completedAt, &g.LastActivityAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	g.ProgressNotes = notes.String
	g.CompletionSummary = summary.String
	if completedAt.Valid {
		t := completedAt.Time
		g.CompletedAt = &t
	}
	return &g, nil
}
