package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeInvestment = "investment"
)

// Transaction statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Payment methods
const (
	PaymentMethodBitcoin = "bitcoin"
	PaymentMethodUSDT    = "usdt"
	PaymentMethodBalance = "balance"
)

// Networks
const (
	NetworkBTC   = "BTC"
	NetworkTRC20 = "TRC20"
)

// Transaction is a ledger event record. Once completed, amount and type are
// immutable; only status and tx hash may change.
type Transaction struct {
	ID             string           `db:"id" json:"id"` // VARCHAR PK like TRX-20241029-A1B2C3
	UserID         uint64           `db:"user_id" json:"userId"`
	Type           string           `db:"type" json:"type"`
	Amount         decimal.Decimal  `db:"amount" json:"amount"`
	Currency       string           `db:"currency" json:"currency"`
	Status         string           `db:"status" json:"status"`
	PaymentMethod  string           `db:"payment_method" json:"paymentMethod"`
	CryptoAmount   *decimal.Decimal `db:"crypto_amount" json:"cryptoAmount,omitempty"`
	BitcoinAddress *string          `db:"bitcoin_address" json:"bitcoinAddress,omitempty"`
	USDTAddress    *string          `db:"usdt_address" json:"usdtAddress,omitempty"`
	TxHash         *string          `db:"tx_hash" json:"txHash,omitempty"`
	Network        *string          `db:"network" json:"network,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updatedAt"`
}

// TransactionWithUser joins the owning user's name onto a transaction for
// admin listings
type TransactionWithUser struct {
	Transaction
	UserName  string `db:"user_name" json:"userName"`
	UserEmail string `db:"user_email" json:"userEmail"`
}

// Withdrawal request statuses
const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusRejected = "rejected"
)

// WithdrawalRequest is the approval-workflow record parallel to a withdrawal
// Transaction. Rejection reverses the Gains reservation exactly.
type WithdrawalRequest struct {
	ID             uint64           `db:"id" json:"id"`
	UserID         uint64           `db:"user_id" json:"userId"`
	Amount         decimal.Decimal  `db:"amount" json:"amount"`
	PaymentMethod  string           `db:"payment_method" json:"paymentMethod"`
	BitcoinAddress *string          `db:"bitcoin_address" json:"bitcoinAddress,omitempty"`
	USDTAddress    *string          `db:"usdt_address" json:"usdtAddress,omitempty"`
	Network        *string          `db:"network" json:"network,omitempty"`
	CryptoAmount   *decimal.Decimal `db:"crypto_amount" json:"cryptoAmount,omitempty"`
	Status         string           `db:"status" json:"status"`
	TransactionID  *string          `db:"transaction_id" json:"transactionId,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updatedAt"`
}
