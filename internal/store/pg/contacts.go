package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/nextlevelbuilder/leadline/internal/store"
)

// ContactStore implements store.ContactStore backed by Postgres.
type ContactStore struct {
	db *sql.DB
}

func NewContactStore(db *sql.DB) *ContactStore {
	return &ContactStore{db: db}
}

func (s *ContactStore) Create(ctx context.Context, c *store.Contact) error {
	if c.ID == uuid.Nil {
		c.ID = store.GenNewID()
	}
	if c.AIStatus == "" {
		c.AIStatus = store.AIStatusActive
	}
	c.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (id, phone, name, org_id, tags, ai_status, added_by_system, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Phone, c.Name, c.OrgID, pq.Array(c.Tags), c.AIStatus, c.AddedBySystem, c.CreatedAt,
	)
	return err
}

func (s *ContactStore) GetByPhone(ctx context.Context, phone string) (*store.Contact, error) {
	c, err := s.scanOne(ctx,
		`SELECT id, phone, name, org_id, tags, ai_status, added_by_system, created_at
		 FROM contacts WHERE phone = $1`, phone)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	// Fuzzy fallback: trailing 10 digits, tolerates gateway formatting noise.
	digits := trailingDigits(phone, 10)
	if digits == "" {
		return nil, store.ErrNotFound
	}
	return s.scanOne(ctx,
		`SELECT id, phone, name, org_id, tags, ai_status, added_by_system, created_at
		 FROM contacts WHERE RIGHT(regexp_replace(phone, '\D', '', 'g'), 10) = $1
		 ORDER BY created_at LIMIT 1`, digits)
}

func (s *ContactStore) scanOne(ctx context.Context, query string, args ...any) (*store.Contact, error) {
	var c store.Contact
	var tags pq.StringArray
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&c.ID, &c.Phone, &c.Name, &c.OrgID, &tags, &c.AIStatus, &c.AddedBySystem, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Tags = tags
	return &c, nil
}

func (s *ContactStore) SetAIStatus(ctx context.Context, phone string, status store.AIStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET ai_status = $1 WHERE phone = $2`, status, phone)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *ContactStore) List(ctx context.Context, orgID string) ([]store.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, phone, name, org_id, tags, ai_status, added_by_system, created_at
		 FROM contacts WHERE org_id = $1 ORDER BY created_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Contact
	for rows.Next() {
		var c store.Contact
		var tags pq.StringArray
		if err := rows.Scan(&c.ID, &c.Phone, &c.Name, &c.OrgID, &tags, &c.AIStatus, &c.AddedBySystem, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Tags = tags
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *ContactStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n)
	return n, err
}

// trailingDigits strips non-digits and returns the last n digits,
// or "" if fewer than n remain.
func trailingDigits(phone string, n int) string {
	var digits []byte
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) < n {
		return ""
	}
	return string(digits[len(digits)-n:])
}
