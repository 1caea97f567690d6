package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"algobank/backend/internal/models"
)

type TicketRepository interface {
	Create(ctx context.Context, ticket *models.SupportTicket) error
	FindByID(ctx context.Context, id uint64) (*models.SupportTicket, error)
	ListByUser(ctx context.Context, userID uint64) ([]*models.SupportTicket, error)
	ListAll(ctx context.Context, status string) ([]*models.SupportTicket, error)
	UpdateStatus(ctx context.Context, id uint64, status string, assignedTo *uint64) (bool, error)
	CreateMessage(ctx context.Context, msg *models.SupportMessage) error
	ListMessages(ctx context.Context, ticketID uint64) ([]*models.SupportMessage, error)
	AddAttachment(ctx context.Context, att *models.SupportAttachment) error
}

type ticketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, user_id, subject, status, priority, category, assigned_to, created_at, last_updated`

func scanTicket(row interface{ Scan(...interface{}) error }) (*models.SupportTicket, error) {
	t := &models.SupportTicket{}
	err := row.Scan(&t.ID, &t.UserID, &t.Subject, &t.Status, &t.Priority,
		&t.Category, &t.AssignedTo, &t.CreatedAt, &t.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ticket: %w", err)
	}
	return t, nil
}

func (r *ticketRepository) Create(ctx context.Context, ticket *models.SupportTicket) error {
	query := `
		INSERT INTO support_tickets (user_id, subject, status, priority, category, created_at, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		ticket.UserID, ticket.Subject, models.TicketStatusOpen,
		ticket.Priority, ticket.Category, now, now)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		ticket.ID = uint64(id)
	}
	ticket.Status = models.TicketStatusOpen
	ticket.CreatedAt = now
	ticket.LastUpdated = now

	return nil
}

func (r *ticketRepository) FindByID(ctx context.Context, id uint64) (*models.SupportTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM support_tickets WHERE id = ?`
	return scanTicket(r.db.QueryRowContext(ctx, query, id))
}

func (r *ticketRepository) ListByUser(ctx context.Context, userID uint64) ([]*models.SupportTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM support_tickets
		WHERE user_id = ? ORDER BY last_updated DESC`
	return r.list(ctx, query, userID)
}

func (r *ticketRepository) ListAll(ctx context.Context, status string) ([]*models.SupportTicket, error) {
	if status != "" {
		query := `SELECT ` + ticketColumns + ` FROM support_tickets
			WHERE status = ? ORDER BY last_updated DESC`
		return r.list(ctx, query, status)
	}
	query := `SELECT ` + ticketColumns + ` FROM support_tickets ORDER BY last_updated DESC`
	return r.list(ctx, query)
}

func (r *ticketRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.SupportTicket, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*models.SupportTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id uint64, status string, assignedTo *uint64) (bool, error) {
	query := `UPDATE support_tickets SET status = ?, assigned_to = COALESCE(?, assigned_to), last_updated = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, status, assignedTo, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to update ticket status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check ticket update: %w", err)
	}
	return affected > 0, nil
}

func (r *ticketRepository) CreateMessage(ctx context.Context, msg *models.SupportMessage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO support_messages (ticket_id, sender_id, sender_name, content, is_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.TicketID, msg.SenderID, msg.SenderName, msg.Content, msg.IsAgent, now)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE support_tickets SET last_updated = ? WHERE id = ?`, now, msg.TicketID)
	if err != nil {
		return fmt.Errorf("failed to touch ticket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit message: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		msg.ID = uint64(id)
	}
	msg.CreatedAt = now

	return nil
}

func (r *ticketRepository) ListMessages(ctx context.Context, ticketID uint64) ([]*models.SupportMessage, error) {
	query := `
		SELECT id, ticket_id, sender_id, sender_name, content, is_agent, created_at
		FROM support_messages WHERE ticket_id = ? ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var msgs []*models.SupportMessage
	byID := make(map[uint64]*models.SupportMessage)
	for rows.Next() {
		m := &models.SupportMessage{}
		err := rows.Scan(&m.ID, &m.TicketID, &m.SenderID, &m.SenderName,
			&m.Content, &m.IsAgent, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, m)
		byID[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return msgs, nil
	}

	attRows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.message_id, a.filename, a.path, a.mimetype
		FROM support_attachments a
		JOIN support_messages m ON m.id = a.message_id
		WHERE m.ticket_id = ?
	`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer attRows.Close()

	for attRows.Next() {
		var a models.SupportAttachment
		err := attRows.Scan(&a.ID, &a.MessageID, &a.Filename, &a.Path, &a.Mimetype)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		if m, ok := byID[a.MessageID]; ok {
			m.Attachments = append(m.Attachments, a)
		}
	}
	return msgs, attRows.Err()
}

func (r *ticketRepository) AddAttachment(ctx context.Context, att *models.SupportAttachment) error {
	query := `
		INSERT INTO support_attachments (message_id, filename, path, mimetype)
		VALUES (?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		att.MessageID, att.Filename, att.Path, att.Mimetype)
	if err != nil {
		return fmt.Errorf("failed to add attachment: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		att.ID = uint64(id)
	}
	return nil
}
