package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"algobank/backend/internal/models"
)

type ReferralRepository interface {
	CreateLink(ctx context.Context, ref *models.Referral) error
	FindByReferred(ctx context.Context, referredID uint64) (*models.Referral, error)
	// CompleteLink flips a pending link to completed and records the level-1
	// commission. Returns false when the link was not pending; callers use
	// that as the idempotency guard for the whole payout chain.
	CompleteLink(ctx context.Context, id uint64, commission decimal.Decimal) (bool, error)
	// PayCommission credits the referrer's wallet and records the earning row
	// atomically.
	PayCommission(ctx context.Context, earning *models.ReferralEarning) error
	FindByID(ctx context.Context, id uint64) (*models.Referral, error)
	ListByReferrer(ctx context.Context, referrerID uint64) ([]*models.ReferralWithUsers, error)
	ListAll(ctx context.Context) ([]*models.ReferralWithUsers, error)
	Stats(ctx context.Context, referrerID uint64) (*models.ReferralStats, error)
	SumEarnings(ctx context.Context, referrerID uint64) (decimal.Decimal, error)
	// Children returns tree nodes for the accounts directly referred by
	// referrerID, excluding inactive links.
	Children(ctx context.Context, referrerID uint64) ([]*models.ReferralTreeNode, error)
	UpdateStatus(ctx context.Context, id uint64, status string) (bool, error)
	Settings(ctx context.Context) ([]*models.ReferralSetting, error)
	UpdateSetting(ctx context.Context, level int, rate, minDeposit decimal.Decimal) error
}

type referralRepository struct {
	db *sql.DB
}

func NewReferralRepository(db *sql.DB) ReferralRepository {
	return &referralRepository{db: db}
}

func (r *referralRepository) CreateLink(ctx context.Context, ref *models.Referral) error {
	query := `
		INSERT INTO referrals (referrer_id, referred_id, code, status, commission, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		ref.ReferrerID, ref.ReferredID, ref.Code, models.ReferralStatusPending,
		"0.00", now, now)
	if err != nil {
		return fmt.Errorf("failed to create referral link: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		ref.ID = uint64(id)
	}
	ref.Status = models.ReferralStatusPending
	ref.CreatedAt = now
	ref.UpdatedAt = now

	return nil
}

func (r *referralRepository) FindByReferred(ctx context.Context, referredID uint64) (*models.Referral, error) {
	query := `
		SELECT id, referrer_id, referred_id, code, status, commission, created_at, updated_at
		FROM referrals WHERE referred_id = ? AND status != ?
	`
	return scanReferral(r.db.QueryRowContext(ctx, query, referredID, models.ReferralStatusInactive))
}

func (r *referralRepository) FindByID(ctx context.Context, id uint64) (*models.Referral, error) {
	query := `
		SELECT id, referrer_id, referred_id, code, status, commission, created_at, updated_at
		FROM referrals WHERE id = ?
	`
	return scanReferral(r.db.QueryRowContext(ctx, query, id))
}

func scanReferral(row interface{ Scan(...interface{}) error }) (*models.Referral, error) {
	ref := &models.Referral{}
	var commission string
	err := row.Scan(
		&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.Code, &ref.Status,
		&commission, &ref.CreatedAt, &ref.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find referral: %w", err)
	}

	if ref.Commission, err = decimal.NewFromString(commission); err != nil {
		return nil, fmt.Errorf("failed to parse commission: %w", err)
	}
	return ref, nil
}

func (r *referralRepository) CompleteLink(ctx context.Context, id uint64, commission decimal.Decimal) (bool, error) {
	query := `
		UPDATE referrals SET status = ?, commission = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		models.ReferralStatusCompleted, commission.StringFixed(2), time.Now(),
		id, models.ReferralStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to complete referral link: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check link completion: %w", err)
	}
	return affected > 0, nil
}

func (r *referralRepository) PayCommission(ctx context.Context, earning *models.ReferralEarning) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	amt := earning.Amount.StringFixed(2)

	_, err = tx.ExecContext(ctx,
		`UPDATE wallets SET balance = balance + ?, updated_at = ? WHERE user_id = ?`,
		amt, now, earning.ReferrerID)
	if err != nil {
		return fmt.Errorf("failed to credit commission: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO referral_earnings (referrer_id, referred_id, level, amount, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, earning.ReferrerID, earning.ReferredID, earning.Level, amt, now)
	if err != nil {
		return fmt.Errorf("failed to record earning: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit commission: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		earning.ID = uint64(id)
	}
	earning.CreatedAt = now

	return nil
}

const referralWithUsersQuery = `
	SELECT r.id, r.referrer_id, r.referred_id, r.code, r.status, r.commission,
		r.created_at, r.updated_at,
		rer.name, rer.email, red.name, red.email
	FROM referrals r
	JOIN users rer ON rer.id = r.referrer_id
	JOIN users red ON red.id = r.referred_id
`

func (r *referralRepository) ListByReferrer(ctx context.Context, referrerID uint64) ([]*models.ReferralWithUsers, error) {
	query := referralWithUsersQuery + ` WHERE r.referrer_id = ? ORDER BY r.created_at DESC`
	return r.listWithUsers(ctx, query, referrerID)
}

func (r *referralRepository) ListAll(ctx context.Context) ([]*models.ReferralWithUsers, error) {
	query := referralWithUsersQuery + ` ORDER BY r.created_at DESC`
	return r.listWithUsers(ctx, query)
}

func (r *referralRepository) listWithUsers(ctx context.Context, query string, args ...interface{}) ([]*models.ReferralWithUsers, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	defer rows.Close()

	var refs []*models.ReferralWithUsers
	for rows.Next() {
		item := &models.ReferralWithUsers{}
		var commission string
		err := rows.Scan(
			&item.ID, &item.ReferrerID, &item.ReferredID, &item.Code, &item.Status,
			&commission, &item.CreatedAt, &item.UpdatedAt,
			&item.ReferrerName, &item.ReferrerEmail, &item.ReferredName, &item.ReferredEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan referral: %w", err)
		}
		if item.Commission, err = decimal.NewFromString(commission); err != nil {
			return nil, fmt.Errorf("failed to parse commission: %w", err)
		}
		refs = append(refs, item)
	}
	return refs, rows.Err()
}

func (r *referralRepository) Stats(ctx context.Context, referrerID uint64) (*models.ReferralStats, error) {
	stats := &models.ReferralStats{TotalCommission: decimal.Zero}
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(status = ?), 0)
		FROM referrals WHERE referrer_id = ? AND status != ?
	`, models.ReferralStatusCompleted, referrerID, models.ReferralStatusInactive).Scan(
		&stats.TotalReferrals, &stats.ActiveReferrals)
	if err != nil {
		return nil, fmt.Errorf("failed to count referrals: %w", err)
	}

	total, err := r.SumEarnings(ctx, referrerID)
	if err != nil {
		return nil, err
	}
	stats.TotalCommission = total

	return stats, nil
}

func (r *referralRepository) SumEarnings(ctx context.Context, referrerID uint64) (decimal.Decimal, error) {
	var total string
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM referral_earnings WHERE referrer_id = ?
	`, referrerID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum earnings: %w", err)
	}
	return decimal.NewFromString(total)
}

func (r *referralRepository) Children(ctx context.Context, referrerID uint64) ([]*models.ReferralTreeNode, error) {
	query := `
		SELECT r.referred_id, u.name, u.email, r.status,
			COALESCE((SELECT SUM(e.amount) FROM referral_earnings e
				WHERE e.referrer_id = r.referred_id), 0)
		FROM referrals r
		JOIN users u ON u.id = r.referred_id
		WHERE r.referrer_id = ? AND r.status != ?
		ORDER BY r.created_at
	`
	rows, err := r.db.QueryContext(ctx, query, referrerID, models.ReferralStatusInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list referral children: %w", err)
	}
	defer rows.Close()

	var nodes []*models.ReferralTreeNode
	for rows.Next() {
		node := &models.ReferralTreeNode{}
		var earnings string
		err := rows.Scan(&node.UserID, &node.Name, &node.Email, &node.Status, &earnings)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tree node: %w", err)
		}
		if node.TotalEarnings, err = decimal.NewFromString(earnings); err != nil {
			return nil, fmt.Errorf("failed to parse earnings: %w", err)
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

func (r *referralRepository) UpdateStatus(ctx context.Context, id uint64, status string) (bool, error) {
	query := `UPDATE referrals SET status = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to update referral status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check status update: %w", err)
	}
	return affected > 0, nil
}

func (r *referralRepository) Settings(ctx context.Context) ([]*models.ReferralSetting, error) {
	query := `
		SELECT id, level, commission_rate, min_deposit_amount, updated_at
		FROM referral_settings ORDER BY level
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load referral settings: %w", err)
	}
	defer rows.Close()

	var settings []*models.ReferralSetting
	for rows.Next() {
		s := &models.ReferralSetting{}
		var rate, minDeposit string
		err := rows.Scan(&s.ID, &s.Level, &rate, &minDeposit, &s.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan referral setting: %w", err)
		}
		if s.CommissionRate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("failed to parse commission rate: %w", err)
		}
		if s.MinDepositAmount, err = decimal.NewFromString(minDeposit); err != nil {
			return nil, fmt.Errorf("failed to parse min deposit: %w", err)
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

func (r *referralRepository) UpdateSetting(ctx context.Context, level int, rate, minDeposit decimal.Decimal) error {
	query := `
		UPDATE referral_settings SET commission_rate = ?, min_deposit_amount = ?, updated_at = ?
		WHERE level = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		rate.StringFixed(2), minDeposit.StringFixed(2), time.Now(), level)
	if err != nil {
		return fmt.Errorf("failed to update referral setting: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check setting update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("referral level %d not configured", level)
	}
	return nil
}
