package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Pool sizing for a single-service deployment.
const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute

	connectAttempts = 5
)

// Config identifies the MySQL instance to connect to.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

func (c Config) dsn() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Connection wraps the sql.DB pool.
type Connection struct {
	DB *sql.DB
}

// NewConnection opens the pool and waits for the database to answer a ping,
// backing off between attempts so the service survives a database container
// that starts slower than it does.
func NewConnection(cfg Config) (*Connection, error) {
	db, err := sql.Open("mysql", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	for attempt := 1; ; attempt++ {
		if err = db.Ping(); err == nil {
			break
		}
		if attempt == connectAttempts {
			db.Close()
			return nil, fmt.Errorf("database unreachable after %d attempts: %w", connectAttempts, err)
		}
		time.Sleep(time.Duration(attempt) * time.Second)
	}

	return &Connection{DB: db}, nil
}

// Close closes the pool.
func (c *Connection) Close() error {
	return c.DB.Close()
}

// Ping reports whether the database currently answers.
func (c *Connection) Ping() error {
	return c.DB.Ping()
}
