package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"algobank/backend/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByReferralCode(ctx context.Context, code string) (*models.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetReferralCode(ctx context.Context, userID uint64, code string) error
	List(ctx context.Context) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
	DeleteWithData(ctx context.Context, userID uint64) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, phone, is_admin, is_verified,
	verification_token, verification_expires, referral_code, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Phone,
		&user.IsAdmin, &user.IsVerified, &user.VerificationToken,
		&user.VerificationExpires, &user.ReferralCode,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, phone, is_admin, is_verified,
			verification_token, verification_expires, referral_code, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Phone,
		user.IsAdmin, user.IsVerified, user.VerificationToken,
		user.VerificationExpires, user.ReferralCode, now, now)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		user.ID = uint64(id)
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepository) FindByReferralCode(ctx context.Context, code string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE referral_code = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, code))
}

func (r *userRepository) FindByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE verification_token = ? AND verification_expires > ?`
	return scanUser(r.db.QueryRowContext(ctx, query, token, time.Now()))
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = ?, phone = ?, is_verified = ?, verification_token = ?,
			verification_expires = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		user.Name, user.Phone, user.IsVerified, user.VerificationToken,
		user.VerificationExpires, time.Now(), user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *userRepository) SetReferralCode(ctx context.Context, userID uint64, code string) error {
	query := `UPDATE users SET referral_code = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, code, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to set referral code: %w", err)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// DeleteWithData removes a user and all owned ledger data. Referral links are
// marked inactive rather than deleted so the referrer's history survives.
func (r *userRepository) DeleteWithData(ctx context.Context, userID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deletes := []string{
		`DELETE FROM wallets WHERE user_id = ?`,
		`DELETE FROM gains WHERE user_id = ?`,
		`DELETE FROM transactions WHERE user_id = ?`,
		`DELETE FROM withdrawal_requests WHERE user_id = ?`,
		`DELETE FROM investments WHERE user_id = ?`,
		`DELETE FROM notifications WHERE user_id = ?`,
	}
	for _, q := range deletes {
		if _, err := tx.ExecContext(ctx, q, userID); err != nil {
			return fmt.Errorf("failed to delete user data: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE referrals SET status = ?, updated_at = ? WHERE referrer_id = ? OR referred_id = ?`,
		models.ReferralStatusInactive, time.Now(), userID, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate referrals: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return tx.Commit()
}
