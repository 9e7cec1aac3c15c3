package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"securevault/internal/alert"
	"securevault/internal/models"
	"securevault/internal/store"
)

var errNoRows = sql.ErrNoRows

type fakeTxRunner struct {
	err error
	// mu serializes bodies the way the row locks would in Postgres.
	mu *sync.Mutex
}

func (f fakeTxRunner) WithTx(_ context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	if f.mu != nil {
		f.mu.Lock()
		defer f.mu.Unlock()
	}
	return fn(nil)
}

type stubStoreDB struct{}

func (stubStoreDB) GetContext(context.Context, any, string, ...any) error    { return nil }
func (stubStoreDB) SelectContext(context.Context, any, string, ...any) error { return nil }
func (stubStoreDB) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, nil
}

type stubUserStore struct {
	createFn           func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	getByIdentifierFn  func(ctx context.Context, q store.Getter, identifier string) (models.User, error)
	getForUpdateFn     func(ctx context.Context, tx store.Getter, identifier string) (models.User, error)
	getByIDFn          func(ctx context.Context, q store.Getter, userID string) (models.User, error)
	getByUsernameFn    func(ctx context.Context, q store.Getter, username string) (models.User, error)
	recordFailureFn    func(ctx context.Context, tx store.Execer, userID string, attempts int, lockedUntil *time.Time) error
	recordSuccessFn    func(ctx context.Context, tx store.Execer, userID string) error
	updatePasswordFn   func(ctx context.Context, tx store.Execer, userID, passwordHash string) error
	deactivateFn       func(ctx context.Context, tx store.Execer, userID string) error
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, passwordHash)
}

func (s stubUserStore) GetByIdentifier(ctx context.Context, q store.Getter, identifier string) (models.User, error) {
	if s.getByIdentifierFn == nil {
		return models.User{}, sql.ErrNoRows
	}
	return s.getByIdentifierFn(ctx, q, identifier)
}

func (s stubUserStore) GetForUpdate(ctx context.Context, tx store.Getter, identifier string) (models.User, error) {
	if s.getForUpdateFn == nil {
		return models.User{}, sql.ErrNoRows
	}
	return s.getForUpdateFn(ctx, tx, identifier)
}

func (s stubUserStore) GetByID(ctx context.Context, q store.Getter, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{}, sql.ErrNoRows
	}
	return s.getByIDFn(ctx, q, userID)
}

func (s stubUserStore) GetByUsername(ctx context.Context, q store.Getter, username string) (models.User, error) {
	if s.getByUsernameFn == nil {
		return models.User{}, sql.ErrNoRows
	}
	return s.getByUsernameFn(ctx, q, username)
}

func (s stubUserStore) RecordFailure(ctx context.Context, tx store.Execer, userID string, attempts int, lockedUntil *time.Time) error {
	if s.recordFailureFn == nil {
		return nil
	}
	return s.recordFailureFn(ctx, tx, userID, attempts, lockedUntil)
}

func (s stubUserStore) RecordSuccess(ctx context.Context, tx store.Execer, userID string) error {
	if s.recordSuccessFn == nil {
		return nil
	}
	return s.recordSuccessFn(ctx, tx, userID)
}

func (s stubUserStore) UpdatePasswordHash(ctx context.Context, tx store.Execer, userID, passwordHash string) error {
	if s.updatePasswordFn == nil {
		return nil
	}
	return s.updatePasswordFn(ctx, tx, userID, passwordHash)
}

func (s stubUserStore) Deactivate(ctx context.Context, tx store.Execer, userID string) error {
	if s.deactivateFn == nil {
		return nil
	}
	return s.deactivateFn(ctx, tx, userID)
}

type stubWalletStore struct {
	createFn        func(ctx context.Context, tx store.Execer, id, userID, balanceEncrypted string) error
	getByUserIDFn   func(ctx context.Context, q store.Getter, userID string) (models.Wallet, error)
	getForUpdateFn  func(ctx context.Context, tx store.Getter, walletID string) (models.Wallet, error)
	updateBalanceFn func(ctx context.Context, tx store.Execer, walletID, balanceEncrypted string) error
}

func (s stubWalletStore) Create(ctx context.Context, tx store.Execer, id, userID, balanceEncrypted string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, userID, balanceEncrypted)
}

func (s stubWalletStore) GetByUserID(ctx context.Context, q store.Getter, userID string) (models.Wallet, error) {
	if s.getByUserIDFn == nil {
		return models.Wallet{}, sql.ErrNoRows
	}
	return s.getByUserIDFn(ctx, q, userID)
}

func (s stubWalletStore) GetForUpdate(ctx context.Context, tx store.Getter, walletID string) (models.Wallet, error) {
	if s.getForUpdateFn == nil {
		return models.Wallet{}, sql.ErrNoRows
	}
	return s.getForUpdateFn(ctx, tx, walletID)
}

func (s stubWalletStore) UpdateBalance(ctx context.Context, tx store.Execer, walletID, balanceEncrypted string) error {
	if s.updateBalanceFn == nil {
		return nil
	}
	return s.updateBalanceFn(ctx, tx, walletID, balanceEncrypted)
}

type stubKeyStore struct {
	putFn func(ctx context.Context, tx store.Execer, walletID, encodedKey string) error
	getFn func(ctx context.Context, q store.Getter, walletID string) (string, error)
}

func (s stubKeyStore) Put(ctx context.Context, tx store.Execer, walletID, encodedKey string) error {
	if s.putFn == nil {
		return nil
	}
	return s.putFn(ctx, tx, walletID, encodedKey)
}

func (s stubKeyStore) Get(ctx context.Context, q store.Getter, walletID string) (string, error) {
	if s.getFn == nil {
		return "", sql.ErrNoRows
	}
	return s.getFn(ctx, q, walletID)
}

type stubTransactionStore struct {
	createFn          func(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	listByWalletFn    func(ctx context.Context, q store.Selecter, walletID string, limit, offset int) ([]models.Transaction, error)
	listAllByWalletFn func(ctx context.Context, q store.Selecter, walletID string) ([]models.Transaction, error)
}

func (s stubTransactionStore) Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubTransactionStore) ListByWallet(ctx context.Context, q store.Selecter, walletID string, limit, offset int) ([]models.Transaction, error) {
	if s.listByWalletFn == nil {
		return nil, nil
	}
	return s.listByWalletFn(ctx, q, walletID, limit, offset)
}

func (s stubTransactionStore) ListAllByWallet(ctx context.Context, q store.Selecter, walletID string) ([]models.Transaction, error) {
	if s.listAllByWalletFn == nil {
		return nil, nil
	}
	return s.listAllByWalletFn(ctx, q, walletID)
}

type stubSessionStore struct {
	createFn       func(ctx context.Context, tx store.Execer, token, userID string, issuedAt, expiresAt time.Time) error
	getFn          func(ctx context.Context, q store.Getter, token string) (models.Session, error)
	revokeFn       func(ctx context.Context, tx store.Execer, token string) error
	revokeAllFn    func(ctx context.Context, tx store.Execer, userID string) error
	extendExpiryFn func(ctx context.Context, tx store.Execer, token string, expiresAt time.Time) error
}

func (s stubSessionStore) Create(ctx context.Context, tx store.Execer, token, userID string, issuedAt, expiresAt time.Time) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, token, userID, issuedAt, expiresAt)
}

func (s stubSessionStore) Get(ctx context.Context, q store.Getter, token string) (models.Session, error) {
	if s.getFn == nil {
		return models.Session{}, sql.ErrNoRows
	}
	return s.getFn(ctx, q, token)
}

func (s stubSessionStore) Revoke(ctx context.Context, tx store.Execer, token string) error {
	if s.revokeFn == nil {
		return nil
	}
	return s.revokeFn(ctx, tx, token)
}

func (s stubSessionStore) RevokeAllForUser(ctx context.Context, tx store.Execer, userID string) error {
	if s.revokeAllFn == nil {
		return nil
	}
	return s.revokeAllFn(ctx, tx, userID)
}

func (s stubSessionStore) ExtendExpiry(ctx context.Context, tx store.Execer, token string, expiresAt time.Time) error {
	if s.extendExpiryFn == nil {
		return nil
	}
	return s.extendExpiryFn(ctx, tx, token, expiresAt)
}

type stubAuditLogStore struct {
	insertFn func(ctx context.Context, tx store.Execer, input store.AuditEntryInput) error
	listFn   func(ctx context.Context, q store.Selecter, filter store.AuditFilter) ([]models.AuditEntry, error)
}

func (s stubAuditLogStore) Insert(ctx context.Context, tx store.Execer, input store.AuditEntryInput) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, tx, input)
}

func (s stubAuditLogStore) List(ctx context.Context, q store.Selecter, filter store.AuditFilter) ([]models.AuditEntry, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, q, filter)
}

// stubRecorder collects audit entries without persisting anything.
type stubRecorder struct {
	mu      sync.Mutex
	entries []store.AuditEntryInput
}

func (s *stubRecorder) RecordInTx(_ context.Context, _ store.Execer, input store.AuditEntryInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, input)
}

func (s *stubRecorder) Record(_ context.Context, input store.AuditEntryInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, input)
}

func (s *stubRecorder) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	actions := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

// stubSink collects operational alerts.
type stubSink struct {
	mu     sync.Mutex
	alerts []alert.Alert
}

func (s *stubSink) Broadcast(a alert.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
}

func (s *stubSink) kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]string, 0, len(s.alerts))
	for _, a := range s.alerts {
		kinds = append(kinds, a.Kind)
	}
	return kinds
}
