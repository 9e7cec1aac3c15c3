package store

import (
	"context"

	"securevault/internal/models"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

type TransactionInput struct {
	ID                    string
	Reference             string
	WalletID              string
	CounterpartyWalletID  *string
	Type                  string
	AmountEncrypted       string
	DescriptionEncrypted  string
	BalanceAfterEncrypted string
}

// Create appends an immutable transaction record. There is no update or
// delete path.
func (s *TransactionStore) Create(ctx context.Context, tx Execer, input TransactionInput) error {
	query := `
		INSERT INTO transactions (id, reference, wallet_id, counterparty_wallet_id, type,
			amount_encrypted, description_encrypted, balance_after_encrypted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.Reference, input.WalletID, input.CounterpartyWalletID, input.Type,
		input.AmountEncrypted, input.DescriptionEncrypted, input.BalanceAfterEncrypted)
	return err
}

func (s *TransactionStore) ListByWallet(ctx context.Context, q Selecter, walletID string, limit, offset int) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := q.SelectContext(ctx, &rows, `
		SELECT id, reference, wallet_id, counterparty_wallet_id, type,
			amount_encrypted, description_encrypted, balance_after_encrypted, created_at
		FROM transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	return rows, err
}

// ListAllByWallet returns the full signed history oldest-first, used for
// balance reconciliation.
func (s *TransactionStore) ListAllByWallet(ctx context.Context, q Selecter, walletID string) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := q.SelectContext(ctx, &rows, `
		SELECT id, reference, wallet_id, counterparty_wallet_id, type,
			amount_encrypted, description_encrypted, balance_after_encrypted, created_at
		FROM transactions
		WHERE wallet_id = $1
		ORDER BY created_at ASC, id ASC
	`, walletID)
	return rows, err
}
