package store

import (
	"context"
	"time"

	"securevault/internal/models"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, username, email, password_hash, failed_attempts, locked_until, is_active, last_login, created_at`

func (s *UserStore) Create(ctx context.Context, tx Execer, id, username, email, passwordHash string) error {
	query := `
		INSERT INTO users (id, username, email, password_hash)
		VALUES ($1, $2, $3, $4)
	`
	_, err := tx.ExecContext(ctx, query, id, username, email, passwordHash)
	return err
}

// GetByIdentifier looks up by username or email. Identifiers are stored
// case-normalized, so the caller passes a lowercased value.
func (s *UserStore) GetByIdentifier(ctx context.Context, q Getter, identifier string) (models.User, error) {
	var user models.User
	err := q.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`, identifier)
	return user, err
}

// GetForUpdate locks the user row so concurrent failed-attempt increments
// serialize rather than losing updates.
func (s *UserStore) GetForUpdate(ctx context.Context, tx Getter, identifier string) (models.User, error) {
	var user models.User
	err := tx.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1 FOR UPDATE`, identifier)
	return user, err
}

func (s *UserStore) GetByID(ctx context.Context, q Getter, userID string) (models.User, error) {
	var user models.User
	err := q.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return user, err
}

func (s *UserStore) GetByUsername(ctx context.Context, q Getter, username string) (models.User, error) {
	var user models.User
	err := q.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return user, err
}

func (s *UserStore) RecordFailure(ctx context.Context, tx Execer, userID string, attempts int, lockedUntil *time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users SET failed_attempts = $2, locked_until = $3 WHERE id = $1
	`, userID, attempts, lockedUntil)
	return err
}

func (s *UserStore) RecordSuccess(ctx context.Context, tx Execer, userID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users SET failed_attempts = 0, locked_until = NULL, last_login = now() WHERE id = $1
	`, userID)
	return err
}

func (s *UserStore) UpdatePasswordHash(ctx context.Context, tx Execer, userID, passwordHash string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users SET password_hash = $2 WHERE id = $1
	`, userID, passwordHash)
	return err
}

// Deactivate soft-disables an account. Users are never hard-deleted.
func (s *UserStore) Deactivate(ctx context.Context, tx Execer, userID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users SET is_active = FALSE WHERE id = $1
	`, userID)
	return err
}
