package postgres

import (
	"github.com/hivetool/apiaryhub/internal/database"
	"github.com/hivetool/apiaryhub/internal/errors"
)

// InitSchema creates the application tables if they do not exist.
// Serial and remote carry global unique indexes; the member primary key
// makes duplicate memberships impossible at the storage level.
func InitSchema(db database.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS apiaries (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL CONSTRAINT apiaries_name_key UNIQUE,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			formatted_address TEXT NOT NULL DEFAULT '',
			place_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS apiary_members (
			apiary_id TEXT NOT NULL REFERENCES apiaries(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			CONSTRAINT apiary_members_pkey PRIMARY KEY (apiary_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_apiary_members_user
			ON apiary_members(user_id)`,
		`CREATE TABLE IF NOT EXISTS devices (
			id TEXT PRIMARY KEY,
			apiary_id TEXT NOT NULL REFERENCES apiaries(id) ON DELETE CASCADE,
			serial TEXT NOT NULL CONSTRAINT devices_serial_key UNIQUE,
			name TEXT NOT NULL,
			remote TEXT NOT NULL CONSTRAINT devices_remote_key UNIQUE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_devices_apiary
			ON devices(apiary_id)`,
	}

	for _, query := range queries {
		if _, err := db.GetDB().Exec(query); err != nil {
			return errors.NewDatabaseError("failed to initialize schema", err)
		}
	}
	return nil
}
