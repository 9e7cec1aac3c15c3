package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"securevault/internal/alert"
	"securevault/internal/auth"
	"securevault/internal/errs"
	"securevault/internal/models"
	"securevault/internal/store"
)

// SessionService issues and validates opaque session tokens. Sessions move
// Issued -> Active -> {Expired, Revoked}; the terminal rows are retained so
// a replayed token is rejected as revoked rather than unknown.
type SessionService struct {
	db       store.DB
	sessions SessionStore
	users    UserStore
	audit    Recorder
	alerts   alert.Sink
	timeout  time.Duration
	sliding  bool
}

func NewSessionService(database store.DB, sessions SessionStore, users UserStore, audit Recorder, alerts alert.Sink, timeout time.Duration, sliding bool) *SessionService {
	return &SessionService{
		db:       database,
		sessions: sessions,
		users:    users,
		audit:    audit,
		alerts:   alerts,
		timeout:  timeout,
		sliding:  sliding,
	}
}

// Issue creates a session for an authenticated user.
func (s *SessionService) Issue(ctx context.Context, userID string) (models.Session, error) {
	token, err := auth.NewSessionToken()
	if err != nil {
		return models.Session{}, err
	}
	now := time.Now()
	session := models.Session{
		Token:     token,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.timeout),
	}
	if err := s.sessions.Create(ctx, s.db, session.Token, session.UserID, session.IssuedAt, session.ExpiresAt); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// Validate resolves a token to its user. Unknown, revoked and expired tokens
// all fail with the same error. Expiry is evaluated lazily, no sweeper
// required; only a token revoked before its natural expiry counts as replay.
func (s *SessionService) Validate(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, errs.ErrSessionInvalid
	}
	session, err := s.sessions.Get(ctx, s.db, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, errs.ErrSessionInvalid
		}
		return models.User{}, &errs.ResourceError{Op: "session lookup", Err: err}
	}
	now := time.Now()
	if now.After(session.ExpiresAt) {
		// A timed-out session is merely expired, never replay, even on
		// repeat attempts from a stale client.
		if !session.Revoked {
			// Transition to the terminal state; keep the row.
			_ = s.sessions.Revoke(ctx, s.db, token)
		}
		return models.User{}, errs.ErrSessionInvalid
	}
	if session.Revoked {
		s.audit.Record(ctx, store.AuditEntryInput{
			ActorUserID: &session.UserID,
			Action:      models.AuditSuspicious,
			Detail:      "revoked session token replayed",
			Status:      models.AuditFailed,
		})
		s.alerts.Broadcast(alert.Alert{
			Kind:   alert.KindSuspicious,
			Entity: "session",
			Detail: "revoked token replayed",
		})
		return models.User{}, errs.ErrSessionInvalid
	}
	user, err := s.users.GetByID(ctx, s.db, session.UserID)
	if err != nil {
		return models.User{}, errs.ErrSessionInvalid
	}
	if !user.IsActive {
		return models.User{}, errs.ErrSessionInvalid
	}
	if s.sliding {
		// Activity refresh moves expiry, never session identity.
		_ = s.sessions.ExtendExpiry(ctx, s.db, token, now.Add(s.timeout))
	}
	return user, nil
}

// Logout revokes a token. Revoking an already-invalid token is a no-op.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	session, err := s.sessions.Get(ctx, s.db, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return &errs.ResourceError{Op: "session lookup", Err: err}
	}
	if err := s.sessions.Revoke(ctx, s.db, token); err != nil {
		return &errs.ResourceError{Op: "session revoke", Err: err}
	}
	user, err := s.users.GetByID(ctx, s.db, session.UserID)
	username := ""
	if err == nil {
		username = user.Username
	}
	s.audit.Record(ctx, store.AuditEntryInput{
		ActorUserID: &session.UserID,
		Username:    username,
		Action:      models.AuditLogout,
		Detail:      "session revoked on logout",
	})
	return nil
}

// RevokeAllForUser force-invalidates every live session of a user.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID string) error {
	return s.sessions.RevokeAllForUser(ctx, s.db, userID)
}
