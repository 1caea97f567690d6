package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"algobank/backend/internal/models"
)

type InvestmentRepository interface {
	// CreateWithDebit debits the wallet and opens the position atomically,
	// recording an investment transaction. Returns false when the balance does
	// not cover the amount.
	CreateWithDebit(ctx context.Context, inv *models.Investment, txn *models.Transaction) (bool, error)
	FindByID(ctx context.Context, id uint64) (*models.Investment, error)
	ListByUser(ctx context.Context, userID uint64) ([]*models.Investment, error)
	ListAll(ctx context.Context) ([]*models.Investment, error)
	// Accrue writes the new value guarded on the previous accrual timestamp so
	// two concurrent recalculations never apply the same days twice.
	Accrue(ctx context.Context, id uint64, newValue decimal.Decimal, prevUpdated, newUpdated time.Time) (bool, error)
	SumInvested(ctx context.Context) (decimal.Decimal, error)
}

type investmentRepository struct {
	db *sql.DB
}

func NewInvestmentRepository(db *sql.DB) InvestmentRepository {
	return &investmentRepository{db: db}
}

const investmentColumns = `id, user_id, product_id, amount, current_value, start_date, last_updated`

func scanInvestment(row interface{ Scan(...interface{}) error }) (*models.Investment, error) {
	inv := &models.Investment{}
	var amount, current string
	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.ProductID, &amount, &current,
		&inv.StartDate, &inv.LastUpdated,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan investment: %w", err)
	}

	if inv.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse investment amount: %w", err)
	}
	if inv.CurrentValue, err = decimal.NewFromString(current); err != nil {
		return nil, fmt.Errorf("failed to parse current value: %w", err)
	}
	return inv, nil
}

func (r *investmentRepository) CreateWithDebit(ctx context.Context, inv *models.Investment, txn *models.Transaction) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	amt := inv.Amount.StringFixed(2)

	result, err := tx.ExecContext(ctx, `
		UPDATE wallets SET balance = balance - ?, updated_at = ?
		WHERE user_id = ? AND balance >= ?
	`, amt, now, inv.UserID, amt)
	if err != nil {
		return false, fmt.Errorf("failed to debit wallet: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check wallet debit: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO investments (user_id, product_id, amount, current_value, start_date, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
	`, inv.UserID, inv.ProductID, amt, amt, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to create investment: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount, currency, status, payment_method,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, txn.ID, inv.UserID, models.TransactionTypeInvestment, amt, txn.Currency,
		models.TransactionStatusCompleted, models.PaymentMethodBalance, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to create investment transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit investment: %w", err)
	}

	id, err := res.LastInsertId()
	if err == nil {
		inv.ID = uint64(id)
	}
	inv.CurrentValue = inv.Amount
	inv.StartDate = now
	inv.LastUpdated = now

	return true, nil
}

func (r *investmentRepository) FindByID(ctx context.Context, id uint64) (*models.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE id = ?`
	return scanInvestment(r.db.QueryRowContext(ctx, query, id))
}

func (r *investmentRepository) ListByUser(ctx context.Context, userID uint64) ([]*models.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments
		WHERE user_id = ? ORDER BY start_date DESC`
	return r.list(ctx, query, userID)
}

func (r *investmentRepository) ListAll(ctx context.Context) ([]*models.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments ORDER BY start_date DESC`
	return r.list(ctx, query)
}

func (r *investmentRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Investment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	defer rows.Close()

	var invs []*models.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

func (r *investmentRepository) Accrue(ctx context.Context, id uint64, newValue decimal.Decimal, prevUpdated, newUpdated time.Time) (bool, error) {
	query := `
		UPDATE investments SET current_value = ?, last_updated = ?
		WHERE id = ? AND last_updated = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		newValue.StringFixed(2), newUpdated, id, prevUpdated)
	if err != nil {
		return false, fmt.Errorf("failed to accrue investment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check accrual: %w", err)
	}
	return affected > 0, nil
}

func (r *investmentRepository) SumInvested(ctx context.Context) (decimal.Decimal, error) {
	var total string
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM investments`).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum investments: %w", err)
	}
	return decimal.NewFromString(total)
}
