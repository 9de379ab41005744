package pg

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/nextlevelbuilder/leadline/internal/store"
)

// OpenDB opens a pooled Postgres handle via the pgx stdlib driver.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewStores creates all stores backed by Postgres (managed mode).
func NewStores(cfg store.StoreConfig) (*store.Stores, error) {
	db, err := OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	s := &store.Stores{
		Contacts:      NewContactStore(db),
		Admins:        NewAdminStore(db),
		Goals:         NewGoalStore(db),
		Log:           NewConversationLogStore(db),
		Notifications: NewNotificationStore(db),
		Memories:      NewMemoryStore(db),
		Spans:         NewSpanStore(db),
	}
	s.SetCloser(db.Close)
	return s, nil
}
