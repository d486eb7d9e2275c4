package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"outlay/internal/core"
)

// Session is a persisted login session.
type Session struct {
	Token        string
	UserID       int64
	ExpiresAt    time.Time
	LastActivity time.Time
}

// CreateSession stores a new session token for the user.
func (r *Repository) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)`,
		token, userID, expiresAt, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession returns the unexpired session for token, or core.ErrNotFound.
func (r *Repository) GetSession(ctx context.Context, token string) (Session, error) {
	var s Session
	err := r.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at, last_activity FROM sessions WHERE token = ? AND expires_at > ?`,
		token, time.Now(),
	).Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.LastActivity)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, core.ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("scan session: %w", err)
	}
	return s, nil
}

// RenewSession extends the session's expiry and records activity.
func (r *Repository) RenewSession(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET expires_at = ?, last_activity = ? WHERE token = ?`,
		expiresAt, time.Now(), token,
	)
	if err != nil {
		return fmt.Errorf("renew session: %w", err)
	}
	return nil
}

// DeleteSession removes a session by token.
func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions and reports how many
// were removed.
func (r *Repository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired sessions rows affected: %w", err)
	}
	return n, nil
}
