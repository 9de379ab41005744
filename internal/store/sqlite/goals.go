package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/leadline/internal/store"
)

// GoalStore implements store.GoalStore backed by sqlite, with the same
// status='active' conditional guards as the Postgres store.
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

	if _, err := tx.ExecContext(ctx,
		`UPDATE conversation_goals SET status = 'abandoned'
		 WHERE contact_phone = ? AND status = 'active'`, g.ContactPhone); err != nil {
		return fmt.Errorf("abandon prior goal: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO conversation_goals
		 (id, contact_phone, description, type, status, progress_notes, completion_summary, created_at, last_activity_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.ContactPhone, g.Description, g.Type, g.Status,
		g.ProgressNotes, g.CompletionSummary, g.CreatedAt, g.LastActivityAt,
	); err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}

	return tx.Commit()
}

func (s *GoalStore) ActiveByPhone(ctx context.Context, phone string) (*store.ConversationGoal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, contact_phone, description, type, status, progress_notes, completion_summary,
		        created_at, completed_at, last_activity_at
		 FROM conversation_goals WHERE contact_phone = ? AND status = 'active'`, phone)
	return scanGoal(row)
}

func (s *GoalStore) Complete(ctx context.Context, id uuid.UUID, summary string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversation_goals
		 SET status = 'completed', completion_summary = ?, completed_at = ?, last_activity_at = ?
		 WHERE id = ? AND status = 'active'`,
		summary, time.Now(), time.Now(), id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *GoalStore) Abandon(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversation_goals SET status = 'abandoned', last_activity_at = ?
		 WHERE id = ? AND status = 'active'`,
		time.Now(), id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *GoalStore) UpdateProgress(ctx context.Context, id uuid.UUID, notes string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE conversation_goals SET progress_notes = ?, last_activity_at = ?
		 WHERE id = ? AND status = 'active'`,
		notes, time.Now(), id)
	return err
}

func (s *GoalStore) ListByPhone(ctx context.Context, phone string) ([]store.ConversationGoal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, contact_phone, description, type, status, progress_notes, completion_summary,
		        created_at, completed_at, last_activity_at
		 FROM conversation_goals WHERE contact_phone = ? ORDER BY created_at DESC`, phone)
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
