package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Referral statuses
const (
	ReferralStatusPending   = "pending"
	ReferralStatusCompleted = "completed"
	ReferralStatusInactive  = "inactive"
)

// Referral links a referred account to its referrer. Each referred account
// has at most one non-inactive referrer; Commission records the level-1
// payout made on the referred account's first completed deposit.
type Referral struct {
	ID         uint64          `db:"id" json:"id"`
	ReferrerID uint64          `db:"referrer_id" json:"referrerId"`
	ReferredID uint64          `db:"referred_id" json:"referredId"`
	Code       string          `db:"code" json:"code"`
	Status     string          `db:"status" json:"status"`
	Commission decimal.Decimal `db:"commission" json:"commission"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updatedAt"`
}

// ReferralWithUsers joins referrer and referred names for listings
type ReferralWithUsers struct {
	Referral
	ReferrerName  string `db:"referrer_name" json:"referrerName"`
	ReferrerEmail string `db:"referrer_email" json:"referrerEmail"`
	ReferredName  string `db:"referred_name" json:"referredName"`
	ReferredEmail string `db:"referred_email" json:"referredEmail"`
}

// ReferralEarning records a single commission payout at a given level of the
// chain. Level 1 is the direct referrer.
type ReferralEarning struct {
	ID         uint64          `db:"id" json:"id"`
	ReferrerID uint64          `db:"referrer_id" json:"referrerId"`
	ReferredID uint64          `db:"referred_id" json:"referredId"`
	Level      int             `db:"level" json:"level"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// ReferralSetting holds the commission rate (percent) for one level of the
// chain
type ReferralSetting struct {
	ID               uint64          `db:"id" json:"id"`
	Level            int             `db:"level" json:"level"`
	CommissionRate   decimal.Decimal `db:"commission_rate" json:"commissionRate"`
	MinDepositAmount decimal.Decimal `db:"min_deposit_amount" json:"minDepositAmount"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updatedAt"`
}

// ReferralStats aggregates a referrer's link history
type ReferralStats struct {
	TotalReferrals  int             `json:"totalReferrals"`
	ActiveReferrals int             `json:"activeReferrals"`
	TotalCommission decimal.Decimal `json:"totalCommission"`
}

// ReferralTreeNode is one node of the derived referral tree. Children are the
// accounts this node referred, populated down to the requested depth.
type ReferralTreeNode struct {
	UserID        uint64              `json:"userId"`
	Name          string              `json:"name"`
	Email         string              `json:"email"`
	Status        string              `json:"status"`
	TotalEarnings decimal.Decimal     `json:"totalEarnings"`
	Children      []*ReferralTreeNode `json:"children,omitempty"`
}
