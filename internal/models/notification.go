package models

import "time"

// Notification categories
const (
	NotificationCategoryDeposit    = "deposit"
	NotificationCategoryWithdrawal = "withdrawal"
	NotificationCategorySystem     = "system"
	NotificationCategorySupport    = "support"
)

// Notification is a fire-and-forget user-facing message. The engine creates
// them and never mutates them afterwards.
type Notification struct {
	ID        uint64     `db:"id" json:"id"`
	UserID    uint64     `db:"user_id" json:"userId"`
	Title     string     `db:"title" json:"title"`
	Message   string     `db:"message" json:"message"`
	Category  string     `db:"category" json:"category"`
	ReadAt    *time.Time `db:"read_at" json:"readAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

// EmailPayload contains the minimal information required to send an email
type EmailPayload struct {
	To      string
	Subject string
	Body    string
}
