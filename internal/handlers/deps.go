package handlers

import (
	"context"

	"github.com/shopspring/decimal"

	"securevault/internal/models"
	"securevault/internal/services"
	"securevault/internal/store"
)

type CredentialService interface {
	Register(ctx context.Context, username, email, password, confirmPassword string) (models.User, error)
	Authenticate(ctx context.Context, identifier, password string) (models.User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

type SessionService interface {
	Issue(ctx context.Context, userID string) (models.Session, error)
	Validate(ctx context.Context, token string) (models.User, error)
	Logout(ctx context.Context, token string) error
}

type LedgerService interface {
	Deposit(ctx context.Context, userID, amountInput, description string) (string, error)
	Transfer(ctx context.Context, userID, recipientUsername, amountInput, description string) (string, error)
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	History(ctx context.Context, userID string, limit, offset int) ([]services.HistoryEntry, error)
	Reconcile(ctx context.Context, userID string) (bool, error)
}

type AuditService interface {
	Query(ctx context.Context, filter store.AuditFilter) ([]models.AuditEntry, error)
	Record(ctx context.Context, input store.AuditEntryInput)
}

type UploadStore interface {
	Create(ctx context.Context, tx store.Execer, input store.UploadInput) error
	ListByUser(ctx context.Context, q store.Selecter, userID string, limit, offset int) ([]models.UploadedFile, error)
}
