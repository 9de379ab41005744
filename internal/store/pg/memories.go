package pg

import (
	"context"
	"database/sql"

	"github.com/nextlevelbuilder/leadline/internal/store"
)

// MemoryStore implements store.MemoryStore backed by Postgres.
type MemoryStore struct {
	db *sql.DB
}

func NewMemoryStore(db *sql.DB) *MemoryStore {
	return &MemoryStore{db: db}
}

func (s *MemoryStore) Upsert(ctx context.Context, f *store.MemoryFact) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memory_facts (contact_phone, key, value, confidence, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (contact_phone, key)
		 DO UPDATE SET value = EXCLUDED.value, confidence = EXCLUDED.confidence, updated_at = now()`,
		f.ContactPhone, f.Key, f.Value, f.Confidence,
	)
	return err
}

func (s *MemoryStore) ByPhone(ctx context.Context, phone string) ([]store.MemoryFact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT contact_phone, key, value, confidence FROM memory_facts
		 WHERE contact_phone = $1 ORDER BY key`, phone)
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
