package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/telenote/internal/apperr"
	"github.com/starford/telenote/internal/models"
)

const userColumns = `id, external_id, username, first_name, last_name, language_code, timezone,
	is_active, is_staff, date_joined, last_login`

func scanUser(s scanner) (*models.User, error) {
	var (
		u         models.User
		lastLogin sql.NullTime
	)
	err := s.Scan(&u.ID, &u.ExternalID, &u.Username, &u.FirstName, &u.LastName, &u.LanguageCode,
		&u.Timezone, &u.IsActive, &u.IsStaff, &u.DateJoined, &lastLogin)
	if err != nil {
		return nil, err
	}
	u.DateJoined = u.DateJoined.UTC()
	u.LastLogin = timePtr(lastLogin)
	return &u, nil
}

// GetOrCreateUser returns the user for id.ExternalID, creating it on first
// sight. Non-empty profile fields overwrite stored ones and last_login is
// bumped. The upsert is a single statement, so concurrent first logins
// converge on one row.
func (db *DB) GetOrCreateUser(ctx context.Context, id models.Identity) (*models.User, error) {
	if err := id.Validate(); err != nil {
		return nil, fmt.Errorf("store: get or create user: %w", apperr.Validation(err))
	}
	now := db.timestamp()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO users (external_id, username, first_name, last_name, language_code, timezone, date_joined, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			username      = COALESCE(NULLIF(excluded.username, ''), users.username),
			first_name    = COALESCE(NULLIF(excluded.first_name, ''), users.first_name),
			last_name     = COALESCE(NULLIF(excluded.last_name, ''), users.last_name),
			language_code = COALESCE(NULLIF(excluded.language_code, ''), users.language_code),
			timezone      = COALESCE(NULLIF(excluded.timezone, ''), users.timezone),
			last_login    = excluded.last_login
	`, id.ExternalID, id.Username, id.FirstName, id.LastName, id.LanguageCode, id.Timezone, now, now)
	if err != nil {
		return nil, fmt.Errorf("store: get or create user: %w", classify(err))
	}
	return db.GetUserByExternalID(ctx, id.ExternalID)
}

// GetUser returns the user with the given primary key.
func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("store: get user: %w", notFound(err, "user"))
	}
	return u, nil
}

// GetUserByExternalID looks a user up by messaging-platform id.
func (db *DB) GetUserByExternalID(ctx context.Context, externalID int64) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = ?`, externalID)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("store: get user by external id: %w", notFound(err, "user"))
	}
	return u, nil
}

// SetUserActive enables or soft-disables a user.
func (db *DB) SetUserActive(ctx context.Context, id int64, active bool) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE users SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("store: set user active: %w", err)
	}
	if err := expectOne(res, "user"); err != nil {
		return fmt.Errorf("store: set user active: %w", err)
	}
	return nil
}
