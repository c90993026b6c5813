// internal/db/schema.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/unclebandit/membercast/internal/model"
)

// {{id}} is replaced with the driver's autoincrement primary key.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id {{id}},
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		phone_number TEXT NOT NULL UNIQUE,
		city TEXT NOT NULL DEFAULT '',
		social_number TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_members_name ON members(first_name, last_name)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS campaigns (
		id {{id}},
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		scheduled_at TIMESTAMP NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		sent_count INTEGER NOT NULL DEFAULT 0,
		total_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_campaigns_status ON campaigns(status, scheduled_at)`,
	`CREATE TABLE IF NOT EXISTS outbound_messages (
		id {{id}},
		campaign_id BIGINT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		phone_number TEXT NOT NULL,
		status TEXT NOT NULL,
		last_error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outbound_campaign ON outbound_messages(campaign_id, status)`,
}

// EnsureSchema creates any missing tables and indexes.
func EnsureSchema(ctx context.Context, conn *sql.DB, driver string) error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if driver == DriverPostgres {
		id = "BIGSERIAL PRIMARY KEY"
	}
	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, strings.ReplaceAll(stmt, "{{id}}", id)); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// SeedDefaultSettings inserts the known settings keys with empty values,
// leaving existing values alone.
func SeedDefaultSettings(ctx context.Context, conn *sql.DB) error {
	for _, key := range model.DefaultSettings {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES ($1, '') ON CONFLICT (key) DO NOTHING`, key)
		if err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", key, err)
		}
	}
	return nil
}
