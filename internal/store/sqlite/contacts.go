package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/leadline/internal/store"
)

// ContactStore implements store.ContactStore backed by sqlite.
// Tags are stored as a JSON array; phone_digits carries the stripped
// number for the trailing-10 fuzzy lookup.
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

	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO contacts (id, phone, phone_digits, name, org_id, tags, ai_status, added_by_system, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Phone, stripNonDigits(c.Phone), c.Name, c.OrgID, string(tags), c.AIStatus, c.AddedBySystem, c.CreatedAt,
	)
	return err
}

func (s *ContactStore) GetByPhone(ctx context.Context, phone string) (*store.Contact, error) {
	c, err := s.scanOne(ctx,
		`SELECT id, phone, name, org_id, tags, ai_status, added_by_system, created_at
		 FROM contacts WHERE phone = ?`, phone)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	digits := stripNonDigits(phone)
	if len(digits) < 10 {
		return nil, store.ErrNotFound
	}
	return s.scanOne(ctx,
		`SELECT id, phone, name, org_id, tags, ai_status, added_by_system, created_at
		 FROM contacts WHERE substr(phone_digits, -10) = ?
		 ORDER BY created_at LIMIT 1`, digits[len(digits)-10:])
}

func (s *ContactStore) scanOne(ctx context.Context, query string, args ...any) (*store.Contact, error) {
	var c store.Contact
	var tags string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&c.ID, &c.Phone, &c.Name, &c.OrgID, &tags, &c.AIStatus, &c.AddedBySystem, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		c.Tags = nil
	}
	return &c, nil
}

func (s *ContactStore) SetAIStatus(ctx context.Context, phone string, status store.AIStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET ai_status = ? WHERE phone = ?`, status, phone)
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
		 FROM contacts WHERE org_id = ? ORDER BY created_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Contact
	for rows.Next() {
		var c store.Contact
		var tags string
		if err := rows.Scan(&c.ID, &c.Phone, &c.Name, &c.OrgID, &tags, &c.AIStatus, &c.AddedBySystem, &c.CreatedAt); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(tags), &c.Tags)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *ContactStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n)
	return n, err
}

func stripNonDigits(s string) string {
	var b []byte
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b = append(b, s[i])
		}
	}
	return string(b)
}
