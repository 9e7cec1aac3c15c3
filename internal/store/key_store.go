package store

import "context"

// KeyStore holds per-wallet encryption keys away from the ciphertext they
// protect. It is the only access path to key material, which keeps the
// security boundary explicit and leaves room for rotation.
type KeyStore struct {
	db DB
}

func NewKeyStore(db DB) *KeyStore {
	return &KeyStore{db: db}
}

func (s *KeyStore) Put(ctx context.Context, tx Execer, walletID, encodedKey string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_keys (wallet_id, enc_key) VALUES ($1, $2)
	`, walletID, encodedKey)
	return err
}

func (s *KeyStore) Get(ctx context.Context, q Getter, walletID string) (string, error) {
	var encodedKey string
	err := q.GetContext(ctx, &encodedKey, `
		SELECT enc_key FROM wallet_keys WHERE wallet_id = $1
	`, walletID)
	return encodedKey, err
}
