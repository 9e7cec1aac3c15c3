package services

import (
	"context"
	"time"

	"securevault/internal/models"
	"securevault/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	GetByIdentifier(ctx context.Context, q store.Getter, identifier string) (models.User, error)
	GetForUpdate(ctx context.Context, tx store.Getter, identifier string) (models.User, error)
	GetByID(ctx context.Context, q store.Getter, userID string) (models.User, error)
	GetByUsername(ctx context.Context, q store.Getter, username string) (models.User, error)
	RecordFailure(ctx context.Context, tx store.Execer, userID string, attempts int, lockedUntil *time.Time) error
	RecordSuccess(ctx context.Context, tx store.Execer, userID string) error
	UpdatePasswordHash(ctx context.Context, tx store.Execer, userID, passwordHash string) error
	Deactivate(ctx context.Context, tx store.Execer, userID string) error
}

type WalletStore interface {
	Create(ctx context.Context, tx store.Execer, id, userID, balanceEncrypted string) error
	GetByUserID(ctx context.Context, q store.Getter, userID string) (models.Wallet, error)
	GetForUpdate(ctx context.Context, tx store.Getter, walletID string) (models.Wallet, error)
	UpdateBalance(ctx context.Context, tx store.Execer, walletID, balanceEncrypted string) error
}

type KeyStore interface {
	Put(ctx context.Context, tx store.Execer, walletID, encodedKey string) error
	Get(ctx context.Context, q store.Getter, walletID string) (string, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	ListByWallet(ctx context.Context, q store.Selecter, walletID string, limit, offset int) ([]models.Transaction, error)
	ListAllByWallet(ctx context.Context, q store.Selecter, walletID string) ([]models.Transaction, error)
}

type SessionStore interface {
	Create(ctx context.Context, tx store.Execer, token, userID string, issuedAt, expiresAt time.Time) error
	Get(ctx context.Context, q store.Getter, token string) (models.Session, error)
	Revoke(ctx context.Context, tx store.Execer, token string) error
	RevokeAllForUser(ctx context.Context, tx store.Execer, userID string) error
	ExtendExpiry(ctx context.Context, tx store.Execer, token string, expiresAt time.Time) error
}

type AuditStore interface {
	Insert(ctx context.Context, tx store.Execer, input store.AuditEntryInput) error
	List(ctx context.Context, q store.Selecter, filter store.AuditFilter) ([]models.AuditEntry, error)
}

// Recorder is the audit surface the other services depend on. Record never
// fails the caller.
type Recorder interface {
	RecordInTx(ctx context.Context, tx store.Execer, input store.AuditEntryInput)
	Record(ctx context.Context, input store.AuditEntryInput)
}
