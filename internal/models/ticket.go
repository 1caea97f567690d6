package models

import "time"

// Ticket statuses
const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in_progress"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
)

// Ticket priorities
const (
	TicketPriorityLow    = "low"
	TicketPriorityMedium = "medium"
	TicketPriorityHigh   = "high"
)

// Ticket categories
const (
	TicketCategoryGeneral   = "general"
	TicketCategoryTechnical = "technical"
	TicketCategoryBilling   = "billing"
	TicketCategoryAccount   = "account"
)

// SupportTicket represents a support ticket
type SupportTicket struct {
	ID          uint64    `db:"id" json:"id"`
	UserID      uint64    `db:"user_id" json:"userId"`
	Subject     string    `db:"subject" json:"subject"`
	Status      string    `db:"status" json:"status"`
	Priority    string    `db:"priority" json:"priority"`
	Category    string    `db:"category" json:"category"`
	AssignedTo  *uint64   `db:"assigned_to" json:"assignedTo,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	LastUpdated time.Time `db:"last_updated" json:"lastUpdated"`
}

// IsClosed reports whether the ticket is in a terminal state
func (t *SupportTicket) IsClosed() bool {
	return t.Status == TicketStatusResolved || t.Status == TicketStatusClosed
}

// ValidTicketStatus reports whether s is one of the known ticket states
func ValidTicketStatus(s string) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// SupportMessage is one entry of a ticket's message thread
type SupportMessage struct {
	ID         uint64    `db:"id" json:"id"`
	TicketID   uint64    `db:"ticket_id" json:"ticketId"`
	SenderID   uint64    `db:"sender_id" json:"senderId"`
	SenderName string    `db:"sender_name" json:"senderName"`
	Content    string    `db:"content" json:"content"`
	IsAgent    bool      `db:"is_agent" json:"isAgent"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`

	Attachments []SupportAttachment `json:"attachments,omitempty"`
}

// SupportAttachment is stored file metadata attached to a message. The storage
// path stays server-side.
type SupportAttachment struct {
	ID        uint64 `db:"id" json:"id"`
	MessageID uint64 `db:"message_id" json:"messageId"`
	Filename  string `db:"filename" json:"filename"`
	Path      string `db:"path" json:"-"`
	Mimetype  string `db:"mimetype" json:"mimetype"`
}
