package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,

	// One row per vehicle stay. At most one PARKING session per
	// normalized plate is enforced by the partial unique index.
	`CREATE TABLE IF NOT EXISTS parking_sessions (
		id               UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		plate            TEXT,
		normalized_plate TEXT,
		checkin_time     TIMESTAMPTZ NOT NULL,
		checkout_time    TIMESTAMPTZ,
		status           TEXT NOT NULL DEFAULT 'PARKING',
		fee              NUMERIC(12,2) NOT NULL DEFAULT 0,
		checkin_img      TEXT,
		checkout_img     TEXT,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_parking_sessions_normalized_plate ON parking_sessions(normalized_plate);`,
	`CREATE INDEX IF NOT EXISTS idx_parking_sessions_checkin_time ON parking_sessions(checkin_time);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_parking_sessions_open_plate
		ON parking_sessions(normalized_plate)
		WHERE status = 'PARKING' AND normalized_plate IS NOT NULL;`,

	`CREATE TABLE IF NOT EXISTS whitelist_entries (
		id               UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		plate            TEXT NOT NULL,
		normalized_plate TEXT NOT NULL,
		owner_name       TEXT NOT NULL,
		car_img          TEXT,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_whitelist_entries_normalized_plate ON whitelist_entries(normalized_plate);`,

	// Audit log of every processed gate event, accepted or rejected.
	`CREATE TABLE IF NOT EXISTS gate_events (
		id               UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		session_id       UUID REFERENCES parking_sessions(id) ON DELETE SET NULL,
		status           TEXT NOT NULL,
		raw_plate        TEXT NOT NULL,
		corrected_plate  TEXT,
		normalized_plate TEXT,
		decision         TEXT NOT NULL,
		message          TEXT,
		snapshot_url     TEXT,
		event_time       TIMESTAMPTZ NOT NULL,
		raw_payload      JSONB,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_gate_events_session_id ON gate_events(session_id);`,
	`CREATE INDEX IF NOT EXISTS idx_gate_events_normalized_plate ON gate_events(normalized_plate);`,
	`CREATE INDEX IF NOT EXISTS idx_gate_events_event_time ON gate_events(event_time DESC);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
