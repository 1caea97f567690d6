package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"algobank/backend/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uint64) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID uint64) (int64, error)
	MarkRead(ctx context.Context, id, userID uint64) (bool, error)
	MarkAllRead(ctx context.Context, userID uint64) error
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, title, message, category, read_at, created_at)
		VALUES (?, ?, ?, ?, NULL, ?)
	`
	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		n.UserID, n.Title, n.Message, n.Category, now)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		n.ID = uint64(id)
	}
	n.CreatedAt = now

	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uint64) ([]*models.Notification, error) {
	query := `
		SELECT id, user_id, title, message, category, read_at, created_at
		FROM notifications WHERE user_id = ? ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var items []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Category,
			&n.ReadAt, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read_at IS NULL`,
		userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uint64) (bool, error) {
	query := `UPDATE notifications SET read_at = ? WHERE id = ? AND user_id = ?`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check notification update: %w", err)
	}
	return affected > 0, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uint64) error {
	query := `UPDATE notifications SET read_at = ? WHERE user_id = ? AND read_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), userID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
