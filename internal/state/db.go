// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// ErrNotInitialized is returned by every store function before InitDB succeeds.
var ErrNotInitialized = errors.New("database not initialized")

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// DSN renders the lib/pq connection string.
func (cfg DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	var err error
	DB, err = sql.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		DB = nil
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("host", cfg.Host).Str("db", cfg.DBName).Msg("Successfully connected to the PostgreSQL database")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
		DB = nil
	}
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS controller_parameters (
		params_id SERIAL PRIMARY KEY,
		version INTEGER NOT NULL,
		config_name VARCHAR(255) NOT NULL DEFAULT 'default',
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		activated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		direction_mode VARCHAR(32) NOT NULL,
		classifier_mode VARCHAR(32) NOT NULL,
		base_fee_bps INTEGER NOT NULL,
		parameters JSONB NOT NULL,
		CONSTRAINT uq_controller_parameters_config_version UNIQUE (config_name, version)
	);
	CREATE INDEX IF NOT EXISTS idx_controller_parameters_config_active ON controller_parameters(config_name, is_active, activated_at DESC);

	CREATE TABLE IF NOT EXISTS match_runs (
		id BIGSERIAL PRIMARY KEY,
		run_id UUID NOT NULL UNIQUE,
		params_id INTEGER REFERENCES controller_parameters(params_id),
		strategy_name VARCHAR(255) NOT NULL,
		seed BIGINT NOT NULL, -- uint64 seed stored bit for bit
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,

		-- Headline numbers, duplicated from summary for querying
		simulations INTEGER NOT NULL,
		wins INTEGER NOT NULL,
		draws INTEGER NOT NULL,
		losses INTEGER NOT NULL,
		mean_edge DOUBLE PRECISION NOT NULL,
		std_edge DOUBLE PRECISION NOT NULL,
		mean_normalizer_edge DOUBLE PRECISION NOT NULL,
		retail_share DOUBLE PRECISION NOT NULL,

		edges DOUBLE PRECISION[] NOT NULL,
		summary JSONB NOT NULL,
		parameters JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_match_runs_finished ON match_runs(finished_at DESC);
	CREATE INDEX IF NOT EXISTS idx_match_runs_strategy ON match_runs(strategy_name);
`

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return ErrNotInitialized
	}

	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// ResetSchema drops every table and recreates the schema. All stored data is lost.
func ResetSchema() error {
	if DB == nil {
		return ErrNotInitialized
	}

	dropSQL := `
		DROP TABLE IF EXISTS match_runs CASCADE;
		DROP TABLE IF EXISTS controller_parameters CASCADE;
	`
	if _, err := DB.Exec(dropSQL); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	log.Warn().Msg("Dropped all tables")
	return EnsureSchema()
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return ErrNotInitialized
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := DB.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
