package store

import (
	"context"
	"time"

	"securevault/internal/models"
)

type SessionStore struct {
	db DB
}

func NewSessionStore(db DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(ctx context.Context, tx Execer, token, userID string, issuedAt, expiresAt time.Time) error {
	query := `
		INSERT INTO sessions (token, user_id, issued_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := tx.ExecContext(ctx, query, token, userID, issuedAt, expiresAt)
	return err
}

func (s *SessionStore) Get(ctx context.Context, q Getter, token string) (models.Session, error) {
	var session models.Session
	err := q.GetContext(ctx, &session, `
		SELECT token, user_id, issued_at, expires_at, revoked FROM sessions WHERE token = $1
	`, token)
	return session, err
}

// Revoke marks a session terminal. The row is retained so replay of a
// logged-out token stays distinguishable from a token that never existed.
func (s *SessionStore) Revoke(ctx context.Context, tx Execer, token string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sessions SET revoked = TRUE WHERE token = $1
	`, token)
	return err
}

func (s *SessionStore) RevokeAllForUser(ctx context.Context, tx Execer, userID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sessions SET revoked = TRUE WHERE user_id = $1 AND NOT revoked
	`, userID)
	return err
}

// ExtendExpiry implements optional sliding renewal. Session identity never
// changes; only expires_at moves.
func (s *SessionStore) ExtendExpiry(ctx context.Context, tx Execer, token string, expiresAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sessions SET expires_at = $2 WHERE token = $1 AND NOT revoked
	`, token, expiresAt)
	return err
}

// DeleteExpired is storage hygiene only; correctness never depends on it.
func (s *SessionStore) DeleteExpired(ctx context.Context, tx Execer, olderThan time.Time) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM sessions WHERE expires_at < $1
	`, olderThan)
	return err
}
