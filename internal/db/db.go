package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bitebuddy-be/internal/config"
	"bitebuddy-be/internal/logger"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

func buildDSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)
}

// Open connects to Postgres and verifies the connection.
func Open(cfg *config.Config) (*sql.DB, error) {
	conn, err := sql.Open("postgres", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}
	if err := Prepare(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// Prepare applies pool limits and pings the database.
func Prepare(conn *sql.DB) error {
	// Every order mutation holds a row lock for the length of one short transaction.
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping DB: %w", err)
	}
	return nil
}

// InitDB is Open for process startup: any failure is fatal.
func InitDB(cfg *config.Config) *sql.DB {
	conn, err := Open(cfg)
	if err != nil {
		logger.L().Fatal("database unavailable", zap.String("host", cfg.DBHost), zap.Error(err))
	}

	logger.L().Info("database connection established", zap.String("host", cfg.DBHost))
	return conn
}
