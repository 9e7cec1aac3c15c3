package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"securevault/internal/alert"
	"securevault/internal/config"
	"securevault/internal/db"
	"securevault/internal/errs"
	"securevault/internal/models"
	"securevault/internal/money"
	"securevault/internal/store"
	"securevault/internal/validator"
	"securevault/internal/vault"
)

var errUnknownRecipient = errs.Validation("recipient", "recipient not found")

// LedgerService performs all balance and transaction mutations. Every
// mutating operation is one serializable transaction: decrypt, check, write
// new ciphertext, append the transaction record, append the audit entry.
type LedgerService struct {
	txRunner     db.TxRunner
	db           store.DB
	users        UserStore
	wallets      WalletStore
	keys         KeyStore
	transactions TransactionStore
	audit        Recorder
	alerts       alert.Sink
	logger       *zap.Logger
	cfg          config.Config
}

func NewLedgerService(txRunner db.TxRunner, database store.DB, users UserStore, wallets WalletStore, keys KeyStore, transactions TransactionStore, audit Recorder, alerts alert.Sink, logger *zap.Logger, cfg config.Config) *LedgerService {
	return &LedgerService{
		txRunner:     txRunner,
		db:           database,
		users:        users,
		wallets:      wallets,
		keys:         keys,
		transactions: transactions,
		audit:        audit,
		alerts:       alerts,
		logger:       logger,
		cfg:          cfg,
	}
}

// HistoryEntry is one decrypted transaction, ready for presentation.
type HistoryEntry struct {
	Reference    string    `json:"reference"`
	Type         string    `json:"type"`
	Amount       string    `json:"amount"`
	Description  string    `json:"description"`
	BalanceAfter string    `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// Deposit credits the caller's wallet.
func (s *LedgerService) Deposit(ctx context.Context, userID, amountInput, description string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	amount, err := money.Parse(amountInput, s.cfg.MinAmount, s.cfg.MaxAmount)
	if err != nil {
		return "", err
	}
	description, err = s.cleanDescription(ctx, userID, description)
	if err != nil {
		return "", err
	}

	reference := newTransactionRef()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		wallet, key, balance, err := s.lockAndDecrypt(ctx, tx, userID)
		if err != nil {
			return err
		}
		newBalance := balance.Add(amount)
		return s.applyMutation(ctx, tx, mutation{
			wallet:      wallet,
			key:         key,
			newBalance:  newBalance,
			txType:      models.TxDeposit,
			amount:      amount,
			description: description,
			reference:   reference,
			actorID:     userID,
			auditAction: models.AuditDeposit,
		})
	})
	if err != nil {
		return "", err
	}
	return reference, nil
}

// Transfer debits the caller and credits the recipient atomically. Both
// wallet rows are locked in a fixed global order so opposite-direction
// transfers cannot deadlock.
func (s *LedgerService) Transfer(ctx context.Context, userID, recipientUsername, amountInput, description string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	amount, err := money.Parse(amountInput, s.cfg.MinAmount, s.cfg.MaxAmount)
	if err != nil {
		return "", err
	}
	description, err = s.cleanDescription(ctx, userID, description)
	if err != nil {
		return "", err
	}

	recipient, err := s.users.GetByUsername(ctx, s.db, strings.ToLower(strings.TrimSpace(recipientUsername)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", errUnknownRecipient
		}
		return "", &errs.ResourceError{Op: "recipient lookup", Err: err}
	}
	if recipient.ID == userID {
		return "", errs.Validation("recipient", "cannot transfer to yourself")
	}
	if !recipient.IsActive {
		return "", errUnknownRecipient
	}

	reference := newTransactionRef()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		fromWallet, err := s.wallets.GetByUserID(ctx, tx, userID)
		if err != nil {
			return err
		}
		toWallet, err := s.wallets.GetByUserID(ctx, tx, recipient.ID)
		if err != nil {
			return err
		}
		fromWallet, toWallet, err = s.lockTwoWallets(ctx, tx, fromWallet.ID, toWallet.ID)
		if err != nil {
			return err
		}
		fromKey, fromBalance, err := s.decryptWallet(ctx, tx, fromWallet)
		if err != nil {
			return err
		}
		toKey, toBalance, err := s.decryptWallet(ctx, tx, toWallet)
		if err != nil {
			return err
		}
		if fromBalance.LessThan(amount) {
			return errs.ErrInsufficientFunds
		}
		if err := s.applyMutation(ctx, tx, mutation{
			wallet:       fromWallet,
			key:          fromKey,
			newBalance:   fromBalance.Sub(amount),
			txType:       models.TxTransferOut,
			amount:       amount,
			description:  description,
			reference:    reference,
			counterparty: &toWallet.ID,
			actorID:      userID,
			auditAction:  models.AuditTransfer,
		}); err != nil {
			return err
		}
		return s.applyMutation(ctx, tx, mutation{
			wallet:       toWallet,
			key:          toKey,
			newBalance:   toBalance.Add(amount),
			txType:       models.TxTransferIn,
			amount:       amount,
			description:  description,
			reference:    reference,
			counterparty: &fromWallet.ID,
			actorID:      userID,
			skipAudit:    true,
		})
	})
	if err != nil {
		return "", err
	}
	return reference, nil
}

// Balance decrypts and returns the caller's current balance.
func (s *LedgerService) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	wallet, err := s.wallets.GetByUserID(ctx, s.db, userID)
	if err != nil {
		return decimal.Zero, &errs.ResourceError{Op: "wallet lookup", Err: err}
	}
	_, balance, err := s.decryptWallet(ctx, s.db, wallet)
	if err != nil {
		return decimal.Zero, err
	}
	s.audit.Record(ctx, store.AuditEntryInput{
		ActorUserID: &userID,
		Action:      models.AuditBalanceInquiry,
		Detail:      "balance inquiry",
	})
	return balance, nil
}

// History returns a decrypted page of the caller's transactions, newest
// first.
func (s *LedgerService) History(ctx context.Context, userID string, limit, offset int) ([]HistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 10
	}
	wallet, err := s.wallets.GetByUserID(ctx, s.db, userID)
	if err != nil {
		return nil, &errs.ResourceError{Op: "wallet lookup", Err: err}
	}
	key, err := s.walletKey(ctx, s.db, wallet.ID)
	if err != nil {
		return nil, err
	}
	rows, err := s.transactions.ListByWallet(ctx, s.db, wallet.ID, limit, offset)
	if err != nil {
		return nil, &errs.ResourceError{Op: "history scan", Err: err}
	}
	entries := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := s.decryptTransaction(key, row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Reconcile checks that the sum of signed transaction deltas reproduces the
// stored balance.
func (s *LedgerService) Reconcile(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	wallet, err := s.wallets.GetByUserID(ctx, s.db, userID)
	if err != nil {
		return false, &errs.ResourceError{Op: "wallet lookup", Err: err}
	}
	key, balance, err := s.decryptWallet(ctx, s.db, wallet)
	if err != nil {
		return false, err
	}
	rows, err := s.transactions.ListAllByWallet(ctx, s.db, wallet.ID)
	if err != nil {
		return false, &errs.ResourceError{Op: "history scan", Err: err}
	}
	sum := decimal.Zero
	for _, row := range rows {
		entry, err := s.decryptTransaction(key, row)
		if err != nil {
			return false, err
		}
		amount, ok := money.ParseStored(entry.Amount)
		if !ok {
			return false, &errs.IntegrityError{Entity: "transaction", ID: row.ID}
		}
		if row.Type == models.TxTransferOut {
			sum = sum.Sub(amount)
		} else {
			sum = sum.Add(amount)
		}
	}
	return sum.Equal(balance), nil
}

type mutation struct {
	wallet       models.Wallet
	key          []byte
	newBalance   decimal.Decimal
	txType       string
	amount       decimal.Decimal
	description  string
	reference    string
	counterparty *string
	actorID      string
	auditAction  string
	skipAudit    bool
}

func (s *LedgerService) applyMutation(ctx context.Context, tx store.Tx, m mutation) error {
	if m.newBalance.IsNegative() {
		return errs.ErrInsufficientFunds
	}
	balanceToken, err := vault.Encrypt(m.key, money.Format(m.newBalance))
	if err != nil {
		return err
	}
	amountToken, err := vault.Encrypt(m.key, money.Format(m.amount))
	if err != nil {
		return err
	}
	descriptionToken, err := vault.Encrypt(m.key, m.description)
	if err != nil {
		return err
	}
	if err := s.wallets.UpdateBalance(ctx, tx, m.wallet.ID, balanceToken); err != nil {
		return err
	}
	if err := s.transactions.Create(ctx, tx, store.TransactionInput{
		ID:                    uuid.NewString(),
		Reference:             m.reference,
		WalletID:              m.wallet.ID,
		CounterpartyWalletID:  m.counterparty,
		Type:                  m.txType,
		AmountEncrypted:       amountToken,
		DescriptionEncrypted:  descriptionToken,
		BalanceAfterEncrypted: balanceToken,
	}); err != nil {
		return err
	}
	if !m.skipAudit {
		s.audit.RecordInTx(ctx, tx, store.AuditEntryInput{
			ActorUserID: &m.actorID,
			Action:      m.auditAction,
			Detail:      m.txType + " " + m.reference,
		})
	}
	return nil
}

func (s *LedgerService) lockAndDecrypt(ctx context.Context, tx store.Tx, userID string) (models.Wallet, []byte, decimal.Decimal, error) {
	wallet, err := s.wallets.GetByUserID(ctx, tx, userID)
	if err != nil {
		return models.Wallet{}, nil, decimal.Zero, err
	}
	wallet, err = s.wallets.GetForUpdate(ctx, tx, wallet.ID)
	if err != nil {
		return models.Wallet{}, nil, decimal.Zero, err
	}
	key, balance, err := s.decryptWallet(ctx, tx, wallet)
	if err != nil {
		return models.Wallet{}, nil, decimal.Zero, err
	}
	return wallet, key, balance, nil
}

// lockTwoWallets acquires both rows ordered by wallet id.
func (s *LedgerService) lockTwoWallets(ctx context.Context, tx store.Getter, firstID, secondID string) (models.Wallet, models.Wallet, error) {
	leftID, rightID := orderedIDs(firstID, secondID)
	left, err := s.wallets.GetForUpdate(ctx, tx, leftID)
	if err != nil {
		return models.Wallet{}, models.Wallet{}, err
	}
	right, err := s.wallets.GetForUpdate(ctx, tx, rightID)
	if err != nil {
		return models.Wallet{}, models.Wallet{}, err
	}
	if firstID == leftID {
		return left, right, nil
	}
	return right, left, nil
}

func (s *LedgerService) decryptWallet(ctx context.Context, q store.Getter, wallet models.Wallet) ([]byte, decimal.Decimal, error) {
	key, err := s.walletKey(ctx, q, wallet.ID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	plaintext, err := vault.Decrypt(key, wallet.BalanceEncrypted)
	if err != nil {
		return nil, decimal.Zero, s.integrityFailure("wallet", wallet.ID)
	}
	balance, ok := money.ParseStored(plaintext)
	if !ok {
		return nil, decimal.Zero, s.integrityFailure("wallet", wallet.ID)
	}
	return key, balance, nil
}

func (s *LedgerService) decryptTransaction(key []byte, row models.Transaction) (HistoryEntry, error) {
	amount, err := vault.Decrypt(key, row.AmountEncrypted)
	if err != nil {
		return HistoryEntry{}, s.integrityFailure("transaction", row.ID)
	}
	description, err := vault.Decrypt(key, row.DescriptionEncrypted)
	if err != nil {
		return HistoryEntry{}, s.integrityFailure("transaction", row.ID)
	}
	balanceAfter, err := vault.Decrypt(key, row.BalanceAfterEncrypted)
	if err != nil {
		return HistoryEntry{}, s.integrityFailure("transaction", row.ID)
	}
	return HistoryEntry{
		Reference:    row.Reference,
		Type:         row.Type,
		Amount:       amount,
		Description:  description,
		BalanceAfter: balanceAfter,
		CreatedAt:    row.CreatedAt,
	}, nil
}

func (s *LedgerService) walletKey(ctx context.Context, q store.Getter, walletID string) ([]byte, error) {
	encoded, err := s.keys.Get(ctx, q, walletID)
	if err != nil {
		return nil, &errs.ResourceError{Op: "key lookup", Err: err}
	}
	key, err := vault.DecodeKey(encoded)
	if err != nil {
		return nil, s.integrityFailure("wallet_key", walletID)
	}
	return key, nil
}

// integrityFailure escalates a failed ciphertext authentication: structured
// log, operational alert, typed error. Never a default value.
func (s *LedgerService) integrityFailure(entity, id string) error {
	s.logger.Error("stored ciphertext failed authentication",
		zap.String("entity", entity),
		zap.String("id", id))
	s.alerts.Broadcast(alert.Alert{
		Kind:   alert.KindIntegrityFailure,
		Entity: entity,
		Detail: "ciphertext failed authentication for " + entity + " " + id,
	})
	return &errs.IntegrityError{Entity: entity, ID: id}
}

func (s *LedgerService) cleanDescription(ctx context.Context, userID, description string) (string, error) {
	if validator.DetectInjection(description) {
		s.audit.Record(ctx, store.AuditEntryInput{
			ActorUserID: &userID,
			Action:      models.AuditValidationFailed,
			Detail:      "injection pattern in description",
			Status:      models.AuditFailed,
		})
		return "", errs.Validation("description", "contains invalid characters")
	}
	sanitized, err := validator.SanitizeText(description, validator.MaxDescriptionLen)
	if err != nil {
		return "", err
	}
	return sanitized, nil
}

func newTransactionRef() string {
	random := make([]byte, 8)
	_, _ = rand.Read(random)
	return "TXN" + time.Now().Format("20060102150405") + strings.ToUpper(hex.EncodeToString(random))
}

func orderedIDs(firstID, secondID string) (string, string) {
	if firstID <= secondID {
		return firstID, secondID
	}
	return secondID, firstID
}
