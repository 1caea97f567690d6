package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"algobank/backend/internal/models"
)

type WithdrawalRepository interface {
	// CreateWithReservation moves the amount from gains to pending and records
	// both the request and its ledger transaction atomically. Returns false
	// when the gains balance does not cover the amount.
	CreateWithReservation(ctx context.Context, req *models.WithdrawalRequest, txn *models.Transaction) (bool, error)
	FindByID(ctx context.Context, id uint64) (*models.WithdrawalRequest, error)
	ListByUser(ctx context.Context, userID uint64) ([]*models.WithdrawalRequest, error)
	ListAll(ctx context.Context) ([]*models.WithdrawalRequest, error)
	// Reject flips a pending request to rejected, returns the reserved amount
	// to gains and fails the ledger transaction. Returns false when the request
	// was not pending.
	Reject(ctx context.Context, id uint64) (bool, error)
	// Approve flips a pending request to approved, settles the reservation and
	// completes the ledger transaction. Returns false when the request was not
	// pending.
	Approve(ctx context.Context, id uint64, txHash string) (bool, error)
	SumPending(ctx context.Context) (decimal.Decimal, error)
}

type withdrawalRepository struct {
	db *sql.DB
}

func NewWithdrawalRepository(db *sql.DB) WithdrawalRepository {
	return &withdrawalRepository{db: db}
}

const withdrawalColumns = `id, user_id, amount, payment_method, bitcoin_address,
	usdt_address, network, crypto_amount, status, transaction_id, created_at, updated_at`

func scanWithdrawal(row interface{ Scan(...interface{}) error }) (*models.WithdrawalRequest, error) {
	req := &models.WithdrawalRequest{}
	var amount string
	var cryptoAmount sql.NullString
	err := row.Scan(
		&req.ID, &req.UserID, &amount, &req.PaymentMethod, &req.BitcoinAddress,
		&req.USDTAddress, &req.Network, &cryptoAmount, &req.Status,
		&req.TransactionID, &req.CreatedAt, &req.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan withdrawal request: %w", err)
	}

	if req.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse withdrawal amount: %w", err)
	}
	if cryptoAmount.Valid {
		d, err := decimal.NewFromString(cryptoAmount.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse crypto amount: %w", err)
		}
		req.CryptoAmount = &d
	}
	return req, nil
}

func (r *withdrawalRepository) CreateWithReservation(ctx context.Context, req *models.WithdrawalRequest, txn *models.Transaction) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	amt := req.Amount.StringFixed(2)

	// Single guarded statement: reserve only if gains cover the amount.
	result, err := tx.ExecContext(ctx, `
		UPDATE gains
		SET amount = amount - ?, pending_withdrawals = pending_withdrawals + ?, updated_at = ?
		WHERE user_id = ? AND amount >= ?
	`, amt, amt, now, req.UserID, amt)
	if err != nil {
		return false, fmt.Errorf("failed to reserve gains: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check reservation: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	var cryptoAmount interface{}
	if req.CryptoAmount != nil {
		cryptoAmount = req.CryptoAmount.String()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount, currency, status, payment_method,
			crypto_amount, bitcoin_address, usdt_address, network, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, txn.ID, req.UserID, models.TransactionTypeWithdrawal, amt, txn.Currency,
		models.TransactionStatusPending, req.PaymentMethod, cryptoAmount,
		req.BitcoinAddress, req.USDTAddress, req.Network, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to create withdrawal transaction: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO withdrawal_requests (user_id, amount, payment_method, bitcoin_address,
			usdt_address, network, crypto_amount, status, transaction_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, req.UserID, amt, req.PaymentMethod, req.BitcoinAddress, req.USDTAddress,
		req.Network, cryptoAmount, models.WithdrawalStatusPending, txn.ID, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to create withdrawal request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit withdrawal request: %w", err)
	}

	id, err := res.LastInsertId()
	if err == nil {
		req.ID = uint64(id)
	}
	req.Status = models.WithdrawalStatusPending
	req.TransactionID = &txn.ID
	req.CreatedAt = now
	req.UpdatedAt = now

	return true, nil
}

func (r *withdrawalRepository) FindByID(ctx context.Context, id uint64) (*models.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = ?`
	return scanWithdrawal(r.db.QueryRowContext(ctx, query, id))
}

func (r *withdrawalRepository) ListByUser(ctx context.Context, userID uint64) ([]*models.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests
		WHERE user_id = ? ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *withdrawalRepository) ListAll(ctx context.Context) ([]*models.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests ORDER BY created_at DESC`
	return r.list(ctx, query)
}

func (r *withdrawalRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.WithdrawalRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawal requests: %w", err)
	}
	defer rows.Close()

	var reqs []*models.WithdrawalRequest
	for rows.Next() {
		req, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *withdrawalRepository) Reject(ctx context.Context, id uint64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.ExecContext(ctx, `
		UPDATE withdrawal_requests SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, models.WithdrawalStatusRejected, now, id, models.WithdrawalStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to reject withdrawal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rejection: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	var userID uint64
	var amount string
	var txnID sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, amount, transaction_id FROM withdrawal_requests WHERE id = ?`,
		id).Scan(&userID, &amount, &txnID)
	if err != nil {
		return false, fmt.Errorf("failed to read withdrawal request: %w", err)
	}

	// Exact reversal of the reservation.
	_, err = tx.ExecContext(ctx, `
		UPDATE gains
		SET amount = amount + ?, pending_withdrawals = pending_withdrawals - ?, updated_at = ?
		WHERE user_id = ? AND pending_withdrawals >= ?
	`, amount, amount, now, userID, amount)
	if err != nil {
		return false, fmt.Errorf("failed to reverse reservation: %w", err)
	}

	if txnID.Valid {
		_, err = tx.ExecContext(ctx,
			`UPDATE transactions SET status = ?, updated_at = ? WHERE id = ?`,
			models.TransactionStatusFailed, now, txnID.String)
		if err != nil {
			return false, fmt.Errorf("failed to fail withdrawal transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit rejection: %w", err)
	}
	return true, nil
}

func (r *withdrawalRepository) Approve(ctx context.Context, id uint64, txHash string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.ExecContext(ctx, `
		UPDATE withdrawal_requests SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, models.WithdrawalStatusApproved, now, id, models.WithdrawalStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to approve withdrawal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check approval: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	var userID uint64
	var amount string
	var txnID sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, amount, transaction_id FROM withdrawal_requests WHERE id = ?`,
		id).Scan(&userID, &amount, &txnID)
	if err != nil {
		return false, fmt.Errorf("failed to read withdrawal request: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE gains SET pending_withdrawals = pending_withdrawals - ?, updated_at = ?
		WHERE user_id = ? AND pending_withdrawals >= ?
	`, amount, now, userID, amount)
	if err != nil {
		return false, fmt.Errorf("failed to settle reservation: %w", err)
	}

	if txnID.Valid {
		_, err = tx.ExecContext(ctx, `
			UPDATE transactions SET status = ?, tx_hash = ?, updated_at = ? WHERE id = ?
		`, models.TransactionStatusCompleted, txHash, now, txnID.String)
		if err != nil {
			return false, fmt.Errorf("failed to complete withdrawal transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit approval: %w", err)
	}
	return true, nil
}

func (r *withdrawalRepository) SumPending(ctx context.Context) (decimal.Decimal, error) {
	var total string
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM withdrawal_requests WHERE status = ?
	`, models.WithdrawalStatusPending).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum pending withdrawals: %w", err)
	}
	return decimal.NewFromString(total)
}
