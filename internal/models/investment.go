package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Investment holds a principal and its accruing current value. Value grows by
// a daily rate applied lazily on read, never twice for the same elapsed day.
type Investment struct {
	ID           uint64          `db:"id" json:"id"`
	UserID       uint64          `db:"user_id" json:"userId"`
	ProductID    string          `db:"product_id" json:"productId"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	CurrentValue decimal.Decimal `db:"current_value" json:"currentValue"`
	StartDate    time.Time       `db:"start_date" json:"startDate"`
	LastUpdated  time.Time       `db:"last_updated" json:"lastUpdated"`
}
