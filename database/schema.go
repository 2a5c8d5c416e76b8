package database

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// InitSchema creates the service's tables if they don't exist.
func InitSchema(db *sql.DB) error {
	log.Info("Initializing incident dashboard schema...")

	incidentsSQL := `
	CREATE TABLE IF NOT EXISTS incidents(
		seq BIGINT NOT NULL AUTO_INCREMENT,
		id VARCHAR(36) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		incident_type VARCHAR(64) NOT NULL,
		county VARCHAR(64) NOT NULL,
		sub_county VARCHAR(64),
		location VARCHAR(255) NOT NULL,
		incident_date DATETIME NOT NULL,
		reported_date DATETIME NOT NULL,
		priority ENUM('low', 'medium', 'high', 'critical') NOT NULL DEFAULT 'medium',
		status ENUM('reported', 'verified', 'investigating', 'resolved', 'closed') NOT NULL DEFAULT 'reported',
		description TEXT NOT NULL,
		actions_taken TEXT,
		deaths INT NOT NULL DEFAULT 0,
		injuries INT NOT NULL DEFAULT 0,
		missing INT NOT NULL DEFAULT 0,
		cattle INT NOT NULL DEFAULT 0,
		goats INT NOT NULL DEFAULT 0,
		sheep INT NOT NULL DEFAULT 0,
		camels INT NOT NULL DEFAULT 0,
		other_livestock INT NOT NULL DEFAULT 0,
		reporter_name VARCHAR(255),
		reporter_phone VARCHAR(32),
		is_anonymous BOOL NOT NULL DEFAULT false,
		is_verified BOOL NOT NULL DEFAULT false,
		responding_agencies TEXT,
		response_time_ms BIGINT,
		PRIMARY KEY (seq),
		UNIQUE INDEX id_index (id),
		INDEX county_index (county),
		INDEX status_index (status),
		INDEX priority_index (priority),
		INDEX incident_date_index (incident_date)
	)`
	if _, err := db.Exec(incidentsSQL); err != nil {
		return fmt.Errorf("failed to create incidents table: %w", err)
	}
	log.Info("Incidents table created/verified")

	reportersSQL := `
	CREATE TABLE IF NOT EXISTS reporters(
		reporter_id VARCHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		org_type VARCHAR(32) NOT NULL DEFAULT 'unknown',
		status VARCHAR(16) NOT NULL DEFAULT 'active',
		last_seen_at TIMESTAMP NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (reporter_id)
	)`
	if _, err := db.Exec(reportersSQL); err != nil {
		return fmt.Errorf("failed to create reporters table: %w", err)
	}
	log.Info("Reporters table created/verified")

	reporterKeysSQL := `
	CREATE TABLE IF NOT EXISTS reporter_keys(
		key_id VARCHAR(36) NOT NULL,
		reporter_id VARCHAR(36) NOT NULL,
		key_prefix VARCHAR(32) NOT NULL,
		key_hash VARCHAR(100) NOT NULL,
		scopes VARCHAR(255) NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL DEFAULT 'active',
		last_used_at TIMESTAMP NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (key_id),
		INDEX reporter_id_index (reporter_id)
	)`
	if _, err := db.Exec(reporterKeysSQL); err != nil {
		return fmt.Errorf("failed to create reporter_keys table: %w", err)
	}
	log.Info("Reporter keys table created/verified")

	return nil
}
