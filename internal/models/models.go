package models

import "time"

type User struct {
	ID             string     `db:"id" json:"id"`
	Username       string     `db:"username" json:"username"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	FailedAttempts int        `db:"failed_attempts" json:"-"`
	LockedUntil    *time.Time `db:"locked_until" json:"-"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	LastLogin      *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

type Wallet struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"user_id"`
	BalanceEncrypted string    `db:"balance_encrypted" json:"-"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

type Transaction struct {
	ID                    string    `db:"id" json:"id"`
	Reference             string    `db:"reference" json:"reference"`
	WalletID              string    `db:"wallet_id" json:"wallet_id"`
	CounterpartyWalletID  *string   `db:"counterparty_wallet_id" json:"counterparty_wallet_id,omitempty"`
	Type                  string    `db:"type" json:"type"`
	AmountEncrypted       string    `db:"amount_encrypted" json:"-"`
	DescriptionEncrypted  string    `db:"description_encrypted" json:"-"`
	BalanceAfterEncrypted string    `db:"balance_after_encrypted" json:"-"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
}

type Session struct {
	Token     string    `db:"token" json:"-"`
	UserID    string    `db:"user_id" json:"user_id"`
	IssuedAt  time.Time `db:"issued_at" json:"issued_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	Revoked   bool      `db:"revoked" json:"-"`
}

type AuditEntry struct {
	ID          string    `db:"id" json:"id"`
	ActorUserID *string   `db:"actor_user_id" json:"actor_user_id,omitempty"`
	Username    string    `db:"username" json:"username"`
	Action      string    `db:"action" json:"action"`
	Detail      string    `db:"detail" json:"detail"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type UploadedFile struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	StoredName   string    `db:"stored_name" json:"stored_name"`
	OriginalName string    `db:"original_name" json:"original_name"`
	Extension    string    `db:"extension" json:"extension"`
	SizeBytes    int64     `db:"size_bytes" json:"size_bytes"`
	SHA256       string    `db:"sha256" json:"sha256"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Transaction types.
const (
	TxDeposit     = "deposit"
	TxTransferIn  = "transfer_in"
	TxTransferOut = "transfer_out"
)

// Audit actions.
const (
	AuditRegister         = "register"
	AuditLoginSuccess     = "login_success"
	AuditLoginFailed      = "login_failed"
	AuditLogout           = "logout"
	AuditPasswordChange   = "password_change"
	AuditAccountLocked    = "account_locked"
	AuditAccountDisabled  = "account_disabled"
	AuditDeposit          = "deposit"
	AuditTransfer         = "transfer"
	AuditBalanceInquiry   = "balance_inquiry"
	AuditValidationFailed = "validation_failed"
	AuditSuspicious       = "suspicious_activity"
	AuditFileUpload       = "file_upload"
)

// Audit statuses.
const (
	AuditSuccess = "SUCCESS"
	AuditFailed  = "FAILED"
)
