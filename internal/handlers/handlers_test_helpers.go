package handlers

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/shopspring/decimal"

	"securevault/internal/alert"
	"securevault/internal/config"
	"securevault/internal/middleware"
	"securevault/internal/models"
	"securevault/internal/services"
	"securevault/internal/store"
)

type stubHandlerDB struct{}

func (stubHandlerDB) GetContext(context.Context, any, string, ...any) error    { return nil }
func (stubHandlerDB) SelectContext(context.Context, any, string, ...any) error { return nil }
func (stubHandlerDB) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, nil
}

type stubCredentials struct {
	registerFn       func(ctx context.Context, username, email, password, confirmPassword string) (models.User, error)
	authenticateFn   func(ctx context.Context, identifier, password string) (models.User, error)
	changePasswordFn func(ctx context.Context, userID, oldPassword, newPassword string) error
}

func (s stubCredentials) Register(ctx context.Context, username, email, password, confirmPassword string) (models.User, error) {
	return s.registerFn(ctx, username, email, password, confirmPassword)
}

func (s stubCredentials) Authenticate(ctx context.Context, identifier, password string) (models.User, error) {
	return s.authenticateFn(ctx, identifier, password)
}

func (s stubCredentials) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	return s.changePasswordFn(ctx, userID, oldPassword, newPassword)
}

type stubSessions struct {
	issueFn    func(ctx context.Context, userID string) (models.Session, error)
	validateFn func(ctx context.Context, token string) (models.User, error)
	logoutFn   func(ctx context.Context, token string) error
}

func (s stubSessions) Issue(ctx context.Context, userID string) (models.Session, error) {
	return s.issueFn(ctx, userID)
}

func (s stubSessions) Validate(ctx context.Context, token string) (models.User, error) {
	return s.validateFn(ctx, token)
}

func (s stubSessions) Logout(ctx context.Context, token string) error {
	return s.logoutFn(ctx, token)
}

type stubLedger struct {
	depositFn   func(ctx context.Context, userID, amountInput, description string) (string, error)
	transferFn  func(ctx context.Context, userID, recipientUsername, amountInput, description string) (string, error)
	balanceFn   func(ctx context.Context, userID string) (decimal.Decimal, error)
	historyFn   func(ctx context.Context, userID string, limit, offset int) ([]services.HistoryEntry, error)
	reconcileFn func(ctx context.Context, userID string) (bool, error)
}

func (s stubLedger) Deposit(ctx context.Context, userID, amountInput, description string) (string, error) {
	return s.depositFn(ctx, userID, amountInput, description)
}

func (s stubLedger) Transfer(ctx context.Context, userID, recipientUsername, amountInput, description string) (string, error) {
	return s.transferFn(ctx, userID, recipientUsername, amountInput, description)
}

func (s stubLedger) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return s.balanceFn(ctx, userID)
}

func (s stubLedger) History(ctx context.Context, userID string, limit, offset int) ([]services.HistoryEntry, error) {
	return s.historyFn(ctx, userID, limit, offset)
}

func (s stubLedger) Reconcile(ctx context.Context, userID string) (bool, error) {
	return s.reconcileFn(ctx, userID)
}

type stubAudit struct {
	queryFn  func(ctx context.Context, filter store.AuditFilter) ([]models.AuditEntry, error)
	recordFn func(ctx context.Context, input store.AuditEntryInput)
}

func (s stubAudit) Query(ctx context.Context, filter store.AuditFilter) ([]models.AuditEntry, error) {
	if s.queryFn == nil {
		return nil, nil
	}
	return s.queryFn(ctx, filter)
}

func (s stubAudit) Record(ctx context.Context, input store.AuditEntryInput) {
	if s.recordFn != nil {
		s.recordFn(ctx, input)
	}
}

type stubUploads struct {
	createFn func(ctx context.Context, tx store.Execer, input store.UploadInput) error
	listFn   func(ctx context.Context, q store.Selecter, userID string, limit, offset int) ([]models.UploadedFile, error)
}

func (s stubUploads) Create(ctx context.Context, tx store.Execer, input store.UploadInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubUploads) ListByUser(ctx context.Context, q store.Selecter, userID string, limit, offset int) ([]models.UploadedFile, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, q, userID, limit, offset)
}

func testHandlerConfig() config.Config {
	return config.Config{
		AllowedOrigins: "*",
		MaxUploadBytes: 5 * 1024 * 1024,
	}
}

func newTestHandler(credentials stubCredentials, sessions stubSessions, ledger stubLedger, audit stubAudit, uploads stubUploads) *Handler {
	return New(testHandlerConfig(), stubHandlerDB{}, credentials, sessions, ledger, audit, uploads, alert.NewHub())
}

// asUser runs a handler with an authenticated user already in context, the
// way the auth middleware would leave it.
func asUser(user models.User, next http.HandlerFunc) http.Handler {
	sessions := stubSessions{
		validateFn: func(context.Context, string) (models.User, error) {
			return user, nil
		},
	}
	return middleware.Auth(sessions)(next)
}
