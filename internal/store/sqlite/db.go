package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/nextlevelbuilder/leadline/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	phone TEXT NOT NULL UNIQUE,
	phone_digits TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL DEFAULT '',
	org_id TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '[]',
	ai_status TEXT NOT NULL DEFAULT 'active',
	added_by_system INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS admin_principals (
	id TEXT PRIMARY KEY,
	phone TEXT NOT NULL UNIQUE,
	org_id TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'member',
	ai_status TEXT NOT NULL DEFAULT 'active'
);

CREATE TABLE IF NOT EXISTS conversation_goals (
	id TEXT PRIMARY KEY,
	contact_phone TEXT NOT NULL,
	description TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'active',
	progress_notes TEXT,
	completion_summary TEXT,
	created_at DATETIME NOT NULL,
	completed_at DATETIME,
	last_activity_at DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_goals_one_active
	ON conversation_goals (contact_phone) WHERE status = 'active';
CREATE INDEX IF NOT EXISTS idx_goals_phone ON conversation_goals (contact_phone);

CREATE TABLE IF NOT EXISTS conversation_log (
	id TEXT PRIMARY KEY,
	contact_phone TEXT NOT NULL,
	direction TEXT NOT NULL,
	content TEXT NOT NULL,
	agent_used TEXT,
	sentiment TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_log_phone_created ON conversation_log (contact_phone, created_at);

CREATE TABLE IF NOT EXISTS admin_notifications (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	contact_phone TEXT,
	contact_name TEXT,
	message TEXT NOT NULL,
	priority TEXT NOT NULL DEFAULT 'normal',
	sent_to_admin INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	sent_at DATETIME
);

CREATE TABLE IF NOT EXISTS memory_facts (
	contact_phone TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (contact_phone, key)
);

CREATE TABLE IF NOT EXISTS turn_spans (
	id TEXT PRIMARY KEY,
	turn_id TEXT NOT NULL,
	stage TEXT NOT NULL,
	sender_hint TEXT,
	status TEXT NOT NULL,
	error TEXT,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL
);
`

// OpenDB opens (and bootstraps) the standalone sqlite database.
func OpenDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// database/sql pooling + sqlite writers don't mix well; serialize.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return db, nil
}

// NewStores creates all stores backed by sqlite (standalone mode).
func NewStores(cfg store.StoreConfig) (*store.Stores, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = "leadline.db"
	}
	db, err := OpenDB(path)
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
