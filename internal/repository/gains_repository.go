package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"algobank/backend/internal/models"
)

type GainsRepository interface {
	Create(ctx context.Context, gains *models.Gains) error
	FindByUserID(ctx context.Context, userID uint64) (*models.Gains, error)
	Add(ctx context.Context, userID uint64, amount decimal.Decimal) error
	// SetAmount overwrites the withdrawable amount with the recomputed total
	// unrealized growth across the user's positions.
	SetAmount(ctx context.Context, userID uint64, amount decimal.Decimal) error
}

type gainsRepository struct {
	db *sql.DB
}

func NewGainsRepository(db *sql.DB) GainsRepository {
	return &gainsRepository{db: db}
}

func (r *gainsRepository) Create(ctx context.Context, gains *models.Gains) error {
	query := `
		INSERT INTO gains (user_id, amount, pending_withdrawals, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		gains.UserID, gains.Amount.StringFixed(2),
		gains.PendingWithdrawals.StringFixed(2), now, now)
	if err != nil {
		return fmt.Errorf("failed to create gains record: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		gains.ID = uint64(id)
	}
	gains.CreatedAt = now
	gains.UpdatedAt = now

	return nil
}

func (r *gainsRepository) FindByUserID(ctx context.Context, userID uint64) (*models.Gains, error) {
	query := `
		SELECT id, user_id, amount, pending_withdrawals, created_at, updated_at
		FROM gains WHERE user_id = ?
	`
	gains := &models.Gains{}
	var amount, pending string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&gains.ID, &gains.UserID, &amount, &pending,
		&gains.CreatedAt, &gains.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find gains record: %w", err)
	}

	if gains.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse gains amount: %w", err)
	}
	if gains.PendingWithdrawals, err = decimal.NewFromString(pending); err != nil {
		return nil, fmt.Errorf("failed to parse pending withdrawals: %w", err)
	}
	return gains, nil
}

func (r *gainsRepository) Add(ctx context.Context, userID uint64, amount decimal.Decimal) error {
	query := `UPDATE gains SET amount = amount + ?, updated_at = ? WHERE user_id = ?`
	result, err := r.db.ExecContext(ctx, query, amount.StringFixed(2), time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to add gains: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check gains update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("gains record not found for user %d", userID)
	}
	return nil
}

func (r *gainsRepository) SetAmount(ctx context.Context, userID uint64, amount decimal.Decimal) error {
	query := `UPDATE gains SET amount = ?, updated_at = ? WHERE user_id = ?`
	_, err := r.db.ExecContext(ctx, query, amount.StringFixed(2), time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to set gains amount: %w", err)
	}
	return nil
}
