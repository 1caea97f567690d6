package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"algobank/backend/internal/models"
)

// WalletRepository reads and provisions wallets. Balance movements happen
// inside the transaction, investment and referral repositories, each as part
// of a larger atomic write; there is no standalone credit or debit.
type WalletRepository interface {
	Create(ctx context.Context, wallet *models.Wallet) error
	FindByUserID(ctx context.Context, userID uint64) (*models.Wallet, error)
	SumBalances(ctx context.Context) (decimal.Decimal, error)
	ListAll(ctx context.Context) ([]*models.WalletWithUser, error)
}

type walletRepository struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	query := `
		INSERT INTO wallets (user_id, balance, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		wallet.UserID, wallet.Balance.StringFixed(2), wallet.Currency, now, now)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		wallet.ID = uint64(id)
	}
	wallet.CreatedAt = now
	wallet.UpdatedAt = now

	return nil
}

func (r *walletRepository) FindByUserID(ctx context.Context, userID uint64) (*models.Wallet, error) {
	query := `
		SELECT id, user_id, balance, currency, created_at, updated_at
		FROM wallets WHERE user_id = ?
	`
	wallet := &models.Wallet{}
	var balance string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&wallet.ID, &wallet.UserID, &balance, &wallet.Currency,
		&wallet.CreatedAt, &wallet.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}

	wallet.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("failed to parse wallet balance: %w", err)
	}
	return wallet, nil
}

func (r *walletRepository) ListAll(ctx context.Context) ([]*models.WalletWithUser, error) {
	query := `
		SELECT w.id, w.user_id, w.balance, w.currency, w.created_at, w.updated_at,
			u.name, u.email
		FROM wallets w
		JOIN users u ON u.id = w.user_id
		ORDER BY w.balance DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*models.WalletWithUser
	for rows.Next() {
		item := &models.WalletWithUser{}
		var balance string
		err := rows.Scan(&item.ID, &item.UserID, &balance, &item.Currency,
			&item.CreatedAt, &item.UpdatedAt, &item.UserName, &item.UserEmail)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		if item.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("failed to parse wallet balance: %w", err)
		}
		wallets = append(wallets, item)
	}
	return wallets, rows.Err()
}

func (r *walletRepository) SumBalances(ctx context.Context) (decimal.Decimal, error) {
	var total string
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(balance), 0) FROM wallets`).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum balances: %w", err)
	}
	return decimal.NewFromString(total)
}
