// Package store provides the SQLite-backed user, note, link, task and tag stores.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/singleflight"
)

const schemaVersion = 1

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id   INTEGER NOT NULL,
	username      TEXT NOT NULL DEFAULT '',
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	language_code TEXT NOT NULL DEFAULT '',
	timezone      TEXT NOT NULL DEFAULT '',
	is_active     BOOLEAN NOT NULL DEFAULT 1,
	is_staff      BOOLEAN NOT NULL DEFAULT 0,
	date_joined   DATETIME NOT NULL,
	last_login    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_external_id ON users(external_id);

CREATE TABLE IF NOT EXISTS notes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	content     TEXT NOT NULL DEFAULT '',
	note_type   TEXT NOT NULL DEFAULT 'note' CHECK (note_type IN ('note', 'task', 'project')),
	is_archived BOOLEAN NOT NULL DEFAULT 0,
	is_deleted  BOOLEAN NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_owner_type     ON notes(owner_id, note_type);
CREATE INDEX IF NOT EXISTS idx_notes_owner_created  ON notes(owner_id, created_at);
CREATE INDEX IF NOT EXISTS idx_notes_owner_updated  ON notes(owner_id, updated_at);
CREATE INDEX IF NOT EXISTS idx_notes_type_created   ON notes(note_type, created_at);
CREATE INDEX IF NOT EXISTS idx_notes_archived_deleted ON notes(is_archived, is_deleted);
CREATE INDEX IF NOT EXISTS idx_notes_owner_status   ON notes(owner_id, is_deleted, is_archived);
CREATE INDEX IF NOT EXISTS idx_notes_title          ON notes(title);

CREATE TABLE IF NOT EXISTS note_links (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	source_note_id INTEGER NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	target_note_id INTEGER NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	link_type      TEXT NOT NULL DEFAULT 'reference' CHECK (link_type IN ('reference', 'parent', 'child', 'related')),
	created_at     DATETIME NOT NULL,
	UNIQUE (source_note_id, target_note_id, link_type)
);

CREATE INDEX IF NOT EXISTS idx_links_source_type   ON note_links(source_note_id, link_type);
CREATE INDEX IF NOT EXISTS idx_links_target_type   ON note_links(target_note_id, link_type);
CREATE INDEX IF NOT EXISTS idx_links_source_target ON note_links(source_note_id, target_note_id);

CREATE TABLE IF NOT EXISTS task_meta (
	note_id      INTEGER PRIMARY KEY REFERENCES notes(id) ON DELETE CASCADE,
	priority     TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high', 'urgent')),
	status       TEXT NOT NULL DEFAULT 'todo' CHECK (status IN ('todo', 'in_progress', 'blocked', 'completed', 'cancelled')),
	due_date     DATETIME,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_task_status_priority ON task_meta(status, priority);
CREATE INDEX IF NOT EXISTS idx_task_due_status      ON task_meta(due_date, status);
CREATE INDEX IF NOT EXISTS idx_task_priority_due    ON task_meta(priority, due_date);

CREATE TABLE IF NOT EXISTS tags (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	color      TEXT NOT NULL DEFAULT '#808080',
	created_at DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_tags_name ON tags(name);

CREATE TABLE IF NOT EXISTS note_tags (
	note_id    INTEGER NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	tag_id     INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (note_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_note_tags_tag ON note_tags(tag_id);
`

// DB wraps a sql.DB with the store operations.
type DB struct {
	conn *sql.DB
	now  func() time.Time

	allowSelfLinks        bool
	autoCompleteTimestamp bool

	tagCreate singleflight.Group
}

// Option configures a DB.
type Option func(*DB)

// WithClock overrides the time source. Times are always stored in UTC.
func WithClock(now func() time.Time) Option {
	return func(db *DB) {
		db.now = now
	}
}

// WithSelfLinks controls whether a note may link to itself.
func WithSelfLinks(allow bool) Option {
	return func(db *DB) {
		db.allowSelfLinks = allow
	}
}

// WithAutoCompleteTimestamp controls whether completed_at follows status
// transitions automatically. When off, callers supply it.
func WithAutoCompleteTimestamp(auto bool) Option {
	return func(db *DB) {
		db.autoCompleteTimestamp = auto
	}
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string, opts ...Option) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}

	db := &DB{
		conn:                  conn,
		now:                   time.Now,
		allowSelfLinks:        true,
		autoCompleteTimestamp: true,
	}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// migrate applies the core schema once per schema version.
func migrate(conn *sql.DB) error {
	var version int
	if err := conn.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("store: read schema version: %w", err)
	}
	if version == schemaVersion {
		return nil
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(coreSchemaSQL); err != nil {
		return fmt.Errorf("store: apply core schema: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
		return fmt.Errorf("store: set schema version: %w", err)
	}
	return tx.Commit()
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) timestamp() time.Time {
	return db.now().UTC()
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx runs fn inside a transaction, committing when it returns nil.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// pageBounds normalises limit/offset the way every listing does.
func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
