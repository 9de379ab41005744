package pg

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/leadline/internal/store"
)

// NotificationStore implements store.NotificationStore backed by Postgres.
type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) Create(ctx context.Context, n *store.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = store.GenNewID()
	}
	if n.Priority == "" {
		n.Priority = store.PriorityNormal
	}
	n.SentToAdmin = false
	n.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admin_notifications
		 (id, type, contact_phone, contact_name, message, priority, sent_to_admin, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)`,
		n.ID, n.Type, n.ContactPhone, n.ContactName, n.Message, n.Priority, n.CreatedAt,
	)
	return err
}

func (s *NotificationStore) MarkSent(ctx context.Context, id uuid.UUID) (bool, error) {
	// Conditional flip makes sending idempotent per notification id.
	res, err := s.db.ExecContext(ctx,
		`UPDATE admin_notifications SET sent_to_admin = TRUE, sent_at = $1
		 WHERE id = $2 AND sent_to_admin = FALSE`,
		time.Now(), id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *NotificationStore) PendingExists(ctx context.Context, ntype, phone string, since time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM admin_notifications
		   WHERE type = $1 AND contact_phone = $2 AND sent_to_admin = FALSE AND created_at > $3
		 )`, ntype, phone, since).Scan(&exists)
	return exists, err
}

func (s *NotificationStore) ListUnsent(ctx context.Context, minPriority store.Priority) ([]store.Notification, error) {
	rank := `CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'normal' THEN 2 ELSE 1 END`
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, contact_phone, contact_name, message, priority, sent_to_admin, created_at, sent_at
		 FROM admin_notifications
		 WHERE sent_to_admin = FALSE
		   AND `+rank+` >= CASE $1 WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'normal' THEN 2 ELSE 1 END
		 ORDER BY `+rank+` DESC, created_at`, string(minPriority))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Notification
	for rows.Next() {
		var n store.Notification
		var phone, name sql.NullString
		var sentAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.Type, &phone, &name, &n.Message, &n.Priority, &n.SentToAdmin, &n.CreatedAt, &sentAt); err != nil {
			return nil, err
		}
		n.ContactPhone = phone.String
		n.ContactName = name.String
		if sentAt.Valid {
			t := sentAt.Time
			n.SentAt = &t
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *NotificationStore) CountUnsent(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM admin_notifications WHERE sent_to_admin = FALSE`).Scan(&n)
	return n, err
}
