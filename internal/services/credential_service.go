package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"securevault/internal/alert"
	"securevault/internal/auth"
	"securevault/internal/config"
	"securevault/internal/db"
	"securevault/internal/errs"
	"securevault/internal/models"
	"securevault/internal/store"
	"securevault/internal/validator"
	"securevault/internal/vault"
)

// CredentialService owns password credentials and lockout bookkeeping.
// Lockout counters live in the users table and are only ever mutated here,
// inside row-locked transactions.
type CredentialService struct {
	txRunner db.TxRunner
	db       store.DB
	users    UserStore
	wallets  WalletStore
	keys     KeyStore
	sessions SessionStore
	audit    Recorder
	alerts   alert.Sink
	logger   *zap.Logger
	cfg      config.Config
}

func NewCredentialService(txRunner db.TxRunner, database store.DB, users UserStore, wallets WalletStore, keys KeyStore, sessions SessionStore, audit Recorder, alerts alert.Sink, logger *zap.Logger, cfg config.Config) *CredentialService {
	return &CredentialService{
		txRunner: txRunner,
		db:       database,
		users:    users,
		wallets:  wallets,
		keys:     keys,
		sessions: sessions,
		audit:    audit,
		alerts:   alerts,
		logger:   logger,
		cfg:      cfg,
	}
}

// Register creates a user with a hashed password plus a wallet provisioned
// with its own encryption key and an encrypted zero balance, all atomically.
func (s *CredentialService) Register(ctx context.Context, username, email, password, confirmPassword string) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	if validator.DetectInjection(username) || validator.DetectInjection(email) {
		s.audit.Record(ctx, store.AuditEntryInput{
			Username: username,
			Action:   models.AuditSuspicious,
			Detail:   "injection pattern in registration input",
			Status:   models.AuditFailed,
		})
		return models.User{}, errs.Validation("username", "contains invalid characters")
	}
	if err := validator.ValidateUsername(username); err != nil {
		return models.User{}, err
	}
	if err := validator.ValidateEmail(email); err != nil {
		return models.User{}, err
	}
	if err := validator.ValidatePassword(password, s.cfg.MinPasswordLength); err != nil {
		return models.User{}, err
	}
	if password != confirmPassword {
		return models.User{}, errs.Validation("confirm_password", "passwords do not match")
	}

	// Cheap non-locking pre-check before hashing and key generation. The
	// unique constraint stays authoritative under concurrent registrations.
	for _, identifier := range []string{username, email} {
		if _, err := s.users.GetByIdentifier(ctx, s.db, identifier); err == nil {
			return models.User{}, errs.ErrDuplicateIdentity
		} else if !errors.Is(err, sql.ErrNoRows) {
			return models.User{}, &errs.ResourceError{Op: "user lookup", Err: err}
		}
	}

	passwordHash, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return models.User{}, err
	}
	key, err := vault.GenerateKey()
	if err != nil {
		return models.User{}, err
	}
	zeroBalance, err := vault.Encrypt(key, "0.00")
	if err != nil {
		return models.User{}, err
	}

	userID := uuid.NewString()
	walletID := uuid.NewString()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.users.Create(ctx, tx, userID, username, email, passwordHash); err != nil {
			return err
		}
		if err := s.wallets.Create(ctx, tx, walletID, userID, zeroBalance); err != nil {
			return err
		}
		if err := s.keys.Put(ctx, tx, walletID, vault.EncodeKey(key)); err != nil {
			return err
		}
		s.audit.RecordInTx(ctx, tx, store.AuditEntryInput{
			ActorUserID: &userID,
			Username:    username,
			Action:      models.AuditRegister,
			Detail:      "user registered",
		})
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			// Deliberately generic: does not disclose which field collided.
			return models.User{}, errs.ErrDuplicateIdentity
		}
		return models.User{}, err
	}
	return models.User{ID: userID, Username: username, Email: email, IsActive: true}, nil
}

// Authenticate verifies credentials for a username or email. The lockout
// check runs before password verification, and every rejection path performs
// a bcrypt comparison so outcomes stay on comparable timing.
func (s *CredentialService) Authenticate(ctx context.Context, identifier, password string) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	identifier = strings.ToLower(strings.TrimSpace(identifier))

	var authenticated models.User
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.users.GetForUpdate(ctx, tx, identifier)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				auth.BurnCompare(password)
				s.audit.RecordInTx(ctx, tx, store.AuditEntryInput{
					Username: identifier,
					Action:   models.AuditLoginFailed,
					Detail:   "unknown identifier",
					Status:   models.AuditFailed,
				})
				return errs.ErrInvalidCredentials
			}
			return err
		}
		if !user.IsActive {
			auth.BurnCompare(password)
			s.audit.RecordInTx(ctx, tx, store.AuditEntryInput{
				ActorUserID: &user.ID,
				Username:    user.Username,
				Action:      models.AuditLoginFailed,
				Detail:      "account inactive",
				Status:      models.AuditFailed,
			})
			return errs.ErrInvalidCredentials
		}
		now := time.Now()
		if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
			// The real password is never checked while locked.
			auth.BurnCompare(password)
			s.audit.RecordInTx(ctx, tx, store.AuditEntryInput{
				ActorUserID: &user.ID,
				Username:    user.Username,
				Action:      models.AuditLoginFailed,
				Detail:      "account locked",
				Status:      models.AuditFailed,
			})
			return &errs.LockoutError{Until: *user.LockedUntil}
		}
		if !auth.CheckPassword(user.PasswordHash, password) {
			attempts := user.FailedAttempts + 1
			var lockedUntil *time.Time
			if attempts >= s.cfg.MaxLoginAttempts {
				until := now.Add(s.cfg.LockoutDuration)
				lockedUntil = &until
			}
			if err := s.users.RecordFailure(ctx, tx, user.ID, attempts, lockedUntil); err != nil {
				return err
			}
			if lockedUntil != nil {
				s.audit.RecordInTx(ctx, tx, store.AuditEntryInput{
					ActorUserID: &user.ID,
					Username:    user.Username,
					Action:      models.AuditAccountLocked,
					Detail:      fmt.Sprintf("account locked after %d failed attempts", attempts),
					Status:      models.AuditFailed,
				})
				s.alerts.Broadcast(alert.Alert{
					Kind:   alert.KindAccountLocked,
					Entity: "user",
					Detail: "account locked after repeated failures",
				})
			} else {
				s.audit.RecordInTx(ctx, tx, store.AuditEntryInput{
					ActorUserID: &user.ID,
					Username:    user.Username,
					Action:      models.AuditLoginFailed,
					Detail:      fmt.Sprintf("wrong password (attempt %d)", attempts),
					Status:      models.AuditFailed,
				})
			}
			return errs.ErrInvalidCredentials
		}
		if err := s.users.RecordSuccess(ctx, tx, user.ID); err != nil {
			return err
		}
		s.audit.RecordInTx(ctx, tx, store.AuditEntryInput{
			ActorUserID: &user.ID,
			Username:    user.Username,
			Action:      models.AuditLoginSuccess,
			Detail:      "login successful",
		})
		user.FailedAttempts = 0
		user.LockedUntil = nil
		authenticated = user
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return authenticated, nil
}

// ChangePassword re-verifies the old password before accepting the new one.
func (s *CredentialService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	if err := validator.ValidatePassword(newPassword, s.cfg.MinPasswordLength); err != nil {
		return err
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.users.GetByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !auth.CheckPassword(user.PasswordHash, oldPassword) {
			s.audit.RecordInTx(ctx, tx, store.AuditEntryInput{
				ActorUserID: &user.ID,
				Username:    user.Username,
				Action:      models.AuditPasswordChange,
				Detail:      "old password mismatch",
				Status:      models.AuditFailed,
			})
			return errs.ErrInvalidCredentials
		}
		passwordHash, err := auth.HashPassword(newPassword, s.cfg.BcryptCost)
		if err != nil {
			return err
		}
		if err := s.users.UpdatePasswordHash(ctx, tx, user.ID, passwordHash); err != nil {
			return err
		}
		s.audit.RecordInTx(ctx, tx, store.AuditEntryInput{
			ActorUserID: &user.ID,
			Username:    user.Username,
			Action:      models.AuditPasswordChange,
			Detail:      "password changed",
		})
		return nil
	})
}

// Deactivate soft-disables an account and revokes all of its sessions.
func (s *CredentialService) Deactivate(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.users.GetByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := s.users.Deactivate(ctx, tx, user.ID); err != nil {
			return err
		}
		if err := s.sessions.RevokeAllForUser(ctx, tx, user.ID); err != nil {
			return err
		}
		s.audit.RecordInTx(ctx, tx, store.AuditEntryInput{
			ActorUserID: &user.ID,
			Username:    user.Username,
			Action:      models.AuditAccountDisabled,
			Detail:      "account disabled, sessions revoked",
		})
		return nil
	})
}
