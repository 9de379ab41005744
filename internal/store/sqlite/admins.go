package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/leadline/internal/store"
)

// AdminStore implements store.AdminStore backed by sqlite.
type AdminStore struct {
	db *sql.DB
}

func NewAdminStore(db *sql.DB) *AdminStore {
	return &AdminStore{db: db}
}

func (s *AdminStore) Create(ctx context.Context, a *store.AdminPrincipal) error {
	if a.ID == uuid.Nil {
		a.ID = store.GenNewID()
	}
	if a.Role == "" {
		a.Role = "member"
	}
	if a.AIStatus == "" {
		a.AIStatus = store.AIStatusActive
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admin_principals (id, phone, org_id, role, ai_status)
		 VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Phone, a.OrgID, a.Role, a.AIStatus,
	)
	return err
}

func (s *AdminStore) GetByPhone(ctx context.Context, phone string) (*store.AdminPrincipal, error) {
	var a store.AdminPrincipal
	err := s.db.QueryRowContext(ctx,
		`SELECT id, phone, org_id, role, ai_status FROM admin_principals WHERE phone = ?`,
		phone,
	).Scan(&a.ID, &a.Phone, &a.OrgID, &a.Role, &a.AIStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AdminStore) List(ctx context.Context, orgID string) ([]store.AdminPrincipal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, phone, org_id, role, ai_status FROM admin_principals
		 WHERE org_id = ? ORDER BY role, phone`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.AdminPrincipal
	for rows.Next() {
		var a store.AdminPrincipal
		if err := rows.Scan(&a.ID, &a.Phone, &a.OrgID, &a.Role, &a.AIStatus); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
