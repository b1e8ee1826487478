package database

import (
	"context"
	"database/sql"
)

// Migrate creates the tables when they do not exist yet. Idempotent, safe
// to run on every boot.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS leads (
			id                TEXT PRIMARY KEY,
			version           INT NOT NULL DEFAULT 1,
			first_name        TEXT NOT NULL DEFAULT '',
			last_name         TEXT NOT NULL DEFAULT '',
			full_name         TEXT NOT NULL DEFAULT '',
			email             TEXT NOT NULL DEFAULT '',
			country_code      TEXT NOT NULL DEFAULT '',
			phone_raw         TEXT NOT NULL DEFAULT '',
			phone_normalized  TEXT NOT NULL,
			status            TEXT NOT NULL,
			status_updated_at TIMESTAMPTZ,
			rejection_reason  TEXT NOT NULL DEFAULT '',
			source            TEXT NOT NULL DEFAULT '',
			source_details    JSONB,
			assigned_to       TEXT NOT NULL DEFAULT '',
			tags              JSONB NOT NULL DEFAULT '[]',
			custom_fields     JSONB,
			payment_details   JSONB,
			merged_identities JSONB,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_by        TEXT NOT NULL DEFAULT '',
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at        TIMESTAMPTZ,
			deleted_by        TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_phone_active
			ON leads (phone_normalized) WHERE deleted_at IS NULL`,
		`CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			email      TEXT NOT NULL UNIQUE,
			full_name  TEXT NOT NULL DEFAULT '',
			role       TEXT NOT NULL,
			is_active  BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_login TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS assignment_rotation (
			id                    INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			last_assigned_user_id TEXT NOT NULL DEFAULT '',
			eligible_user_ids     JSONB NOT NULL DEFAULT '[]',
			updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id           TEXT PRIMARY KEY,
			lead_id      TEXT NOT NULL,
			event_type   TEXT NOT NULL,
			event_data   JSONB,
			performed_by TEXT NOT NULL DEFAULT '',
			ts           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_lead ON activities (lead_id, ts DESC)`,
		`CREATE TABLE IF NOT EXISTS tag_registry (
			id   INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			tags JSONB NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS webhooks (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			webhook_url    TEXT NOT NULL,
			triggers       JSONB NOT NULL DEFAULT '[]',
			is_active      BOOLEAN NOT NULL DEFAULT TRUE,
			last_triggered TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS email_templates (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			status_trigger TEXT NOT NULL DEFAULT '',
			subject        TEXT NOT NULL DEFAULT '',
			body           TEXT NOT NULL DEFAULT '',
			is_active      BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS whatsapp_templates (
			id               TEXT PRIMARY KEY,
			name             TEXT NOT NULL,
			status_trigger   TEXT NOT NULL DEFAULT '',
			template_id      TEXT NOT NULL DEFAULT '',
			template_preview TEXT NOT NULL DEFAULT '',
			variable_mapping JSONB,
			is_active        BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`INSERT INTO assignment_rotation (id) VALUES (1) ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO tag_registry (id) VALUES (1) ON CONFLICT (id) DO NOTHING`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
