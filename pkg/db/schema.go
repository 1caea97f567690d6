package db

import (
	"database/sql"
	"fmt"
)

// statements are ordered so that referenced tables exist before the tables
// that point at them.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		phone VARCHAR(32) NOT NULL,
		is_admin TINYINT(1) NOT NULL DEFAULT 0,
		is_verified TINYINT(1) NOT NULL DEFAULT 0,
		verification_token VARCHAR(64) NULL,
		verification_expires DATETIME NULL,
		referral_code VARCHAR(16) NULL UNIQUE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS wallets (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL UNIQUE,
		balance DECIMAL(15,2) NOT NULL DEFAULT 0.00,
		currency VARCHAR(8) NOT NULL DEFAULT 'USD',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS gains (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL UNIQUE,
		amount DECIMAL(15,2) NOT NULL DEFAULT 0.00,
		pending_withdrawals DECIMAL(15,2) NOT NULL DEFAULT 0.00,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id VARCHAR(32) PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		type VARCHAR(16) NOT NULL,
		amount DECIMAL(15,2) NOT NULL,
		currency VARCHAR(8) NOT NULL DEFAULT 'USD',
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		payment_method VARCHAR(16) NOT NULL,
		crypto_amount DECIMAL(20,8) NULL,
		bitcoin_address VARCHAR(128) NULL,
		usdt_address VARCHAR(128) NULL,
		tx_hash VARCHAR(128) NULL,
		network VARCHAR(8) NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_transactions_user (user_id),
		INDEX idx_transactions_user_type_status (user_id, type, status)
	)`,
	`CREATE TABLE IF NOT EXISTS withdrawal_requests (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		amount DECIMAL(15,2) NOT NULL,
		payment_method VARCHAR(16) NOT NULL,
		bitcoin_address VARCHAR(128) NULL,
		usdt_address VARCHAR(128) NULL,
		network VARCHAR(8) NULL,
		crypto_amount DECIMAL(20,8) NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		transaction_id VARCHAR(32) NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_withdrawal_requests_user (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS investments (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		product_id VARCHAR(64) NOT NULL,
		amount DECIMAL(15,2) NOT NULL,
		current_value DECIMAL(15,2) NOT NULL,
		start_date DATETIME NOT NULL,
		last_updated DATETIME NOT NULL,
		INDEX idx_investments_user (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS referrals (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		referrer_id BIGINT UNSIGNED NOT NULL,
		referred_id BIGINT UNSIGNED NOT NULL,
		code VARCHAR(16) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		commission DECIMAL(15,2) NOT NULL DEFAULT 0.00,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_referrals_referrer (referrer_id),
		INDEX idx_referrals_referred (referred_id)
	)`,
	`CREATE TABLE IF NOT EXISTS referral_earnings (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		referrer_id BIGINT UNSIGNED NOT NULL,
		referred_id BIGINT UNSIGNED NOT NULL,
		level INT NOT NULL,
		amount DECIMAL(15,2) NOT NULL,
		created_at DATETIME NOT NULL,
		INDEX idx_referral_earnings_referrer (referrer_id)
	)`,
	`CREATE TABLE IF NOT EXISTS referral_settings (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		level INT NOT NULL UNIQUE,
		commission_rate DECIMAL(5,2) NOT NULL,
		min_deposit_amount DECIMAL(15,2) NOT NULL DEFAULT 10.00,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		title VARCHAR(255) NOT NULL,
		message TEXT NOT NULL,
		category VARCHAR(32) NOT NULL DEFAULT 'system',
		read_at DATETIME NULL,
		created_at DATETIME NOT NULL,
		INDEX idx_notifications_user (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS support_tickets (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		subject VARCHAR(255) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'open',
		priority VARCHAR(8) NOT NULL DEFAULT 'medium',
		category VARCHAR(16) NOT NULL DEFAULT 'general',
		assigned_to BIGINT UNSIGNED NULL,
		created_at DATETIME NOT NULL,
		last_updated DATETIME NOT NULL,
		INDEX idx_support_tickets_user (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS support_messages (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		ticket_id BIGINT UNSIGNED NOT NULL,
		sender_id BIGINT UNSIGNED NOT NULL,
		content TEXT NOT NULL,
		is_agent TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		INDEX idx_support_messages_ticket (ticket_id)
	)`,
	`CREATE TABLE IF NOT EXISTS support_attachments (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		message_id BIGINT UNSIGNED NOT NULL,
		filename VARCHAR(255) NOT NULL,
		path VARCHAR(255) NOT NULL,
		mimetype VARCHAR(64) NOT NULL,
		INDEX idx_support_attachments_message (message_id)
	)`,
}

// commission schedule seeded once; level 1 is the flat rate older revisions used
var seedStatements = []string{
	`INSERT INTO referral_settings (level, commission_rate, min_deposit_amount, updated_at)
	 VALUES (1, 3.00, 10.00, NOW()), (2, 1.50, 10.00, NOW()), (3, 0.75, 10.00, NOW())
	 ON DUPLICATE KEY UPDATE level = level`,
}

// Bootstrap creates the schema if it does not exist and seeds defaults.
func Bootstrap(db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	for _, stmt := range seedStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to seed schema: %w", err)
		}
	}
	return nil
}
