package config

import (
	"os"
)

// Config holds all configuration for the backend
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	JWT      JWTConfig
	SMTP     SMTPConfig
	Uploads  UploadConfig
	Deposit  DepositConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	HTTPPort    string
	Mode        string
	FrontendURL string
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// SMTPConfig holds outgoing mail configuration
type SMTPConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	From         string
	SupportEmail string
}

// DepositConfig holds the platform's receiving addresses shown to users
type DepositConfig struct {
	BitcoinAddress string
	USDTAddress    string
}

// UploadConfig holds attachment storage configuration
type UploadConfig struct {
	Dir         string
	MaxFileSize int64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_DATABASE", "algobank"),
		},
		Server: ServerConfig{
			HTTPPort:    getEnv("HTTP_PORT", "8080"),
			Mode:        getEnv("GIN_MODE", "release"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", ""),
			ExpireHours: 1,
		},
		SMTP: SMTPConfig{
			Host:         getEnv("SMTP_HOST", ""),
			Port:         getEnv("SMTP_PORT", "465"),
			User:         getEnv("SMTP_USER", ""),
			Password:     getEnv("SMTP_PASS", ""),
			From:         getEnv("SMTP_FROM", ""),
			SupportEmail: getEnv("SUPPORT_EMAIL", ""),
		},
		Uploads: UploadConfig{
			Dir:         getEnv("UPLOAD_DIR", "uploads"),
			MaxFileSize: 5 * 1024 * 1024,
		},
		Deposit: DepositConfig{
			BitcoinAddress: getEnv("DEPOSIT_BTC_ADDRESS", ""),
			USDTAddress:    getEnv("DEPOSIT_USDT_ADDRESS", ""),
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
