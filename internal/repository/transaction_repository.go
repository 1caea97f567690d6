package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"algobank/backend/internal/models"
)

type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	FindByIDForUser(ctx context.Context, id string, userID uint64) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID uint64) ([]*models.Transaction, error)
	ListAll(ctx context.Context) ([]*models.TransactionWithUser, error)
	// CompleteDeposit flips a pending deposit to completed and credits the
	// owner's wallet in one transaction. Returns false when the deposit was not
	// pending, so a second completion never credits twice.
	CompleteDeposit(ctx context.Context, id string, userID uint64, txHash string) (bool, error)
	SetTxHash(ctx context.Context, id string, userID uint64, txHash string) (bool, error)
	// MarkStatus flips a pending transaction to the given terminal status.
	MarkStatus(ctx context.Context, id, status string) (bool, error)
	CountCompletedDeposits(ctx context.Context, userID uint64, excludeID string) (int64, error)
	SumCompletedByType(ctx context.Context, txType string) (decimal.Decimal, error)
	SumCompletedDepositsBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `id, user_id, type, amount, currency, status, payment_method,
	crypto_amount, bitcoin_address, usdt_address, tx_hash, network, created_at, updated_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (*models.Transaction, error) {
	txn := &models.Transaction{}
	var amount string
	var cryptoAmount sql.NullString
	err := row.Scan(
		&txn.ID, &txn.UserID, &txn.Type, &amount, &txn.Currency, &txn.Status,
		&txn.PaymentMethod, &cryptoAmount, &txn.BitcoinAddress, &txn.USDTAddress,
		&txn.TxHash, &txn.Network, &txn.CreatedAt, &txn.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse transaction amount: %w", err)
	}
	if cryptoAmount.Valid {
		d, err := decimal.NewFromString(cryptoAmount.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse crypto amount: %w", err)
		}
		txn.CryptoAmount = &d
	}
	return txn, nil
}

func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, type, amount, currency, status, payment_method,
			crypto_amount, bitcoin_address, usdt_address, tx_hash, network, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	var cryptoAmount interface{}
	if txn.CryptoAmount != nil {
		cryptoAmount = txn.CryptoAmount.String()
	}
	_, err := r.db.ExecContext(ctx, query,
		txn.ID, txn.UserID, txn.Type, txn.Amount.StringFixed(2), txn.Currency,
		txn.Status, txn.PaymentMethod, cryptoAmount, txn.BitcoinAddress,
		txn.USDTAddress, txn.TxHash, txn.Network, now, now)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	txn.CreatedAt = now
	txn.UpdatedAt = now
	return nil
}

func (r *transactionRepository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`
	return scanTransaction(r.db.QueryRowContext(ctx, query, id))
}

func (r *transactionRepository) FindByIDForUser(ctx context.Context, id string, userID uint64) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ? AND user_id = ?`
	return scanTransaction(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID uint64) ([]*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

func (r *transactionRepository) ListAll(ctx context.Context) ([]*models.TransactionWithUser, error) {
	query := `
		SELECT t.id, t.user_id, t.type, t.amount, t.currency, t.status, t.payment_method,
			t.crypto_amount, t.bitcoin_address, t.usdt_address, t.tx_hash, t.network,
			t.created_at, t.updated_at, u.name, u.email
		FROM transactions t
		JOIN users u ON u.id = t.user_id
		ORDER BY t.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.TransactionWithUser
	for rows.Next() {
		item := &models.TransactionWithUser{}
		var amount string
		var cryptoAmount sql.NullString
		err := rows.Scan(
			&item.ID, &item.UserID, &item.Type, &amount, &item.Currency,
			&item.Status, &item.PaymentMethod, &cryptoAmount,
			&item.BitcoinAddress, &item.USDTAddress, &item.TxHash, &item.Network,
			&item.CreatedAt, &item.UpdatedAt, &item.UserName, &item.UserEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if item.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("failed to parse transaction amount: %w", err)
		}
		if cryptoAmount.Valid {
			d, err := decimal.NewFromString(cryptoAmount.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse crypto amount: %w", err)
			}
			item.CryptoAmount = &d
		}
		txns = append(txns, item)
	}
	return txns, rows.Err()
}

func (r *transactionRepository) CompleteDeposit(ctx context.Context, id string, userID uint64, txHash string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = ?, tx_hash = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND type = ? AND status = ?
	`, models.TransactionStatusCompleted, txHash, now,
		id, userID, models.TransactionTypeDeposit, models.TransactionStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to complete deposit: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check deposit completion: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	var amount string
	err = tx.QueryRowContext(ctx,
		`SELECT amount FROM transactions WHERE id = ?`, id).Scan(&amount)
	if err != nil {
		return false, fmt.Errorf("failed to read deposit amount: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE wallets SET balance = balance + ?, updated_at = ? WHERE user_id = ?`,
		amount, now, userID)
	if err != nil {
		return false, fmt.Errorf("failed to credit wallet: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit deposit completion: %w", err)
	}
	return true, nil
}

func (r *transactionRepository) SetTxHash(ctx context.Context, id string, userID uint64, txHash string) (bool, error) {
	query := `
		UPDATE transactions SET tx_hash = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND status = ?
	`
	result, err := r.db.ExecContext(ctx, query, txHash, time.Now(),
		id, userID, models.TransactionStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to set tx hash: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check tx hash update: %w", err)
	}
	return affected > 0, nil
}

func (r *transactionRepository) MarkStatus(ctx context.Context, id, status string) (bool, error) {
	query := `UPDATE transactions SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(),
		id, models.TransactionStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to mark transaction status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check status update: %w", err)
	}
	return affected > 0, nil
}

func (r *transactionRepository) CountCompletedDeposits(ctx context.Context, userID uint64, excludeID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions
		WHERE user_id = ? AND type = ? AND status = ? AND id != ?
	`, userID, models.TransactionTypeDeposit, models.TransactionStatusCompleted,
		excludeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed deposits: %w", err)
	}
	return count, nil
}

func (r *transactionRepository) SumCompletedByType(ctx context.Context, txType string) (decimal.Decimal, error) {
	var total string
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE type = ? AND status = ?
	`, txType, models.TransactionStatusCompleted).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return decimal.NewFromString(total)
}

func (r *transactionRepository) SumCompletedDepositsBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var total string
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE type = ? AND status = ? AND created_at >= ? AND created_at < ?
	`, models.TransactionTypeDeposit, models.TransactionStatusCompleted,
		from, to).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum deposits: %w", err)
	}
	return decimal.NewFromString(total)
}
