package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds the principal balance for a user, one per account.
// Balance is mutated only through ledger operations.
type Wallet struct {
	ID        uint64          `db:"id" json:"id"`
	UserID    uint64          `db:"user_id" json:"userId"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	Currency  string          `db:"currency" json:"currency"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// WalletWithUser joins the owner's name onto a wallet for admin listings
type WalletWithUser struct {
	Wallet
	UserName  string `db:"user_name" json:"userName"`
	UserEmail string `db:"user_email" json:"userEmail"`
}

// Gains tracks withdrawable earnings separate from the principal balance.
// Funds move from Amount to PendingWithdrawals on a withdrawal request and
// back on rejection.
type Gains struct {
	ID                 uint64          `db:"id" json:"id"`
	UserID             uint64          `db:"user_id" json:"userId"`
	Amount             decimal.Decimal `db:"amount" json:"amount"`
	PendingWithdrawals decimal.Decimal `db:"pending_withdrawals" json:"pendingWithdrawals"`
	CreatedAt          time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updatedAt"`
}
