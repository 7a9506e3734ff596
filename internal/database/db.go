// Package database provides the Postgres-backed implementation of the guard
// store: thresholds, whitelist, guild settings and the capped punishment
// history.
package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Database implements guard.Store on top of Postgres.
type Database struct {
	db *sql.DB
}

// PostgresConfig holds connection settings, loaded from config.json.
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode"`
}

const schema = `
-- Per-action trigger thresholds
CREATE TABLE IF NOT EXISTS antinuke_thresholds (
    guild_id TEXT NOT NULL,
    action_type TEXT NOT NULL,
    limit_count INTEGER NOT NULL,
    window_hours INTEGER NOT NULL,
    updated_at BIGINT NOT NULL,
    PRIMARY KEY (guild_id, action_type)
);

-- Exempt users and roles (shared ID namespace)
CREATE TABLE IF NOT EXISTS antinuke_whitelist (
    id SERIAL PRIMARY KEY,
    guild_id TEXT NOT NULL,
    target_id TEXT NOT NULL,
    target_type TEXT NOT NULL, -- 'user' or 'role'
    added_by TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    UNIQUE(guild_id, target_id)
);

-- Guild-level settings
CREATE TABLE IF NOT EXISTS guild_settings (
    guild_id TEXT PRIMARY KEY,
    punishment TEXT NOT NULL DEFAULT 'jail',
    jail_role TEXT NOT NULL DEFAULT ''
);

-- Log channel registry, per category
CREATE TABLE IF NOT EXISTS log_channels (
    guild_id TEXT NOT NULL,
    category TEXT NOT NULL,
    channel_id TEXT NOT NULL,
    PRIMARY KEY (guild_id, category)
);

-- Punishment history, capped at 50 newest rows per guild on insert
CREATE TABLE IF NOT EXISTS antinuke_history (
    id SERIAL PRIMARY KEY,
    guild_id TEXT NOT NULL,
    ts BIGINT NOT NULL,
    action_type TEXT NOT NULL,
    actor_id TEXT NOT NULL,
    actor_tag TEXT NOT NULL,
    punishment TEXT NOT NULL,
    reason TEXT NOT NULL,
    details TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_whitelist_guild_target ON antinuke_whitelist(guild_id, target_id);
CREATE INDEX IF NOT EXISTS idx_history_guild_id ON antinuke_history(guild_id, id);
`

// NewDatabase opens the connection pool and applies the schema.
func NewDatabase(cfg PostgresConfig) (*Database, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, sslMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(1 * time.Hour)

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return &Database{db: db}, nil
}

// Close releases the connection pool.
func (d *Database) Close() error {
	return d.db.Close()
}

// Ping verifies the connection is alive.
func (d *Database) Ping() error {
	return d.db.Ping()
}
