package store

import (
	"context"

	"securevault/internal/models"
)

type WalletStore struct {
	db DB
}

func NewWalletStore(db DB) *WalletStore {
	return &WalletStore{db: db}
}

func (s *WalletStore) Create(ctx context.Context, tx Execer, id, userID, balanceEncrypted string) error {
	query := `
		INSERT INTO wallets (id, user_id, balance_encrypted)
		VALUES ($1, $2, $3)
	`
	_, err := tx.ExecContext(ctx, query, id, userID, balanceEncrypted)
	return err
}

func (s *WalletStore) GetByUserID(ctx context.Context, q Getter, userID string) (models.Wallet, error) {
	var wallet models.Wallet
	err := q.GetContext(ctx, &wallet, `
		SELECT id, user_id, balance_encrypted, updated_at FROM wallets WHERE user_id = $1
	`, userID)
	return wallet, err
}

// GetForUpdate locks the wallet row for the duration of the transaction.
func (s *WalletStore) GetForUpdate(ctx context.Context, tx Getter, walletID string) (models.Wallet, error) {
	var wallet models.Wallet
	err := tx.GetContext(ctx, &wallet, `
		SELECT id, user_id, balance_encrypted, updated_at FROM wallets WHERE id = $1 FOR UPDATE
	`, walletID)
	return wallet, err
}

func (s *WalletStore) UpdateBalance(ctx context.Context, tx Execer, walletID, balanceEncrypted string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallets SET balance_encrypted = $2, updated_at = now() WHERE id = $1
	`, walletID, balanceEncrypted)
	return err
}
