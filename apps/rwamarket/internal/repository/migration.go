package repository

import (
	"database/sql"
	"fmt"
)

// InitMigration initializes the database. In production, this would use a proper migration
// library like go-migrate
func InitMigration(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS activity_outbox (
			digest VARCHAR(64) NOT NULL,
			event_type VARCHAR(32) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'unsent',
			wallet_address VARCHAR(66) NOT NULL,
			asset_id VARCHAR(66) NOT NULL DEFAULT '',
			amount VARCHAR(40) NOT NULL DEFAULT '',
			quantity NUMERIC(20,0) NOT NULL DEFAULT 0,
			event_blob JSONB NOT NULL DEFAULT '{}',
			occurred_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (digest, event_type)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_outbox_status_created ON activity_outbox (status, created_at)`,
		`CREATE TABLE IF NOT EXISTS activities (
			activity_id UUID PRIMARY KEY,
			digest VARCHAR(64) NOT NULL,
			activity_type VARCHAR(32) NOT NULL,
			event_type VARCHAR(32) NOT NULL,
			status VARCHAR(20) NOT NULL,
			wallet_address VARCHAR(66) NOT NULL,
			asset_id VARCHAR(66),
			amount NUMERIC(39,0),
			quantity NUMERIC(20,0) NOT NULL DEFAULT 0,
			occurred_at TIMESTAMP NOT NULL,
			details JSONB,
			UNIQUE(digest, event_type)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_wallet_date ON activities (wallet_address, occurred_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_asset_type_status ON activities (asset_id, activity_type, status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}

	return nil
}
