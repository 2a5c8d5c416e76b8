package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"incident-dashboard/models"

	"github.com/apex/log"
)

// Reporter and key lifecycle states.
const (
	ReporterStatusActive    = "active"
	ReporterStatusSuspended = "suspended"
	KeyStatusActive         = "active"
	KeyStatusRevoked        = "revoked"
)

// InsertReporter registers a new reporter in the active state.
func (s *Service) InsertReporter(ctx context.Context, reporterID, name, orgType string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reporters (reporter_id, name, org_type, status) VALUES (?, ?, ?, ?)`,
		reporterID, name, orgType, ReporterStatusActive)
	if err != nil {
		return fmt.Errorf("failed to insert reporter: %w", err)
	}
	return nil
}

// InsertReporterKey stores a new API key credential. Only the bcrypt
// hash of the secret is persisted.
func (s *Service) InsertReporterKey(ctx context.Context, keyID, reporterID, keyPrefix, keyHash string, scopes []string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reporter_keys (key_id, reporter_id, key_prefix, key_hash, scopes, status) VALUES (?, ?, ?, ?, ?, ?)`,
		keyID, reporterID, keyPrefix, keyHash, strings.Join(scopes, ","), KeyStatusActive)
	if err != nil {
		return fmt.Errorf("failed to insert reporter key: %w", err)
	}
	return nil
}

// GetReporterKey loads a key row and its owning reporter, or ErrNotFound.
func (s *Service) GetReporterKey(ctx context.Context, keyID string) (*models.ReporterKey, *models.Reporter, error) {
	query := `SELECT k.key_id, k.reporter_id, k.key_prefix, k.key_hash, k.scopes, k.status, k.created_at,
		r.name, r.org_type, r.status, r.last_seen_at, r.created_at
		FROM reporter_keys k
		INNER JOIN reporters r ON r.reporter_id = k.reporter_id
		WHERE k.key_id = ?`

	rows, err := s.db.QueryContext(ctx, query, keyID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query reporter key: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to read reporter key: %w", err)
		}
		return nil, nil, ErrNotFound
	}

	var key models.ReporterKey
	var reporter models.Reporter
	var scopes string
	var lastSeen sql.NullTime
	err = rows.Scan(
		&key.KeyID, &key.ReporterID, &key.KeyPrefix, &key.KeyHash, &scopes, &key.Status, &key.CreatedAt,
		&reporter.Name, &reporter.OrgType, &reporter.Status, &lastSeen, &reporter.CreatedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan reporter key: %w", err)
	}

	key.Scopes = splitScopes(scopes)
	reporter.ReporterID = key.ReporterID
	if lastSeen.Valid {
		reporter.LastSeenAt = &lastSeen.Time
	}
	return &key, &reporter, nil
}

// TouchReporterKey updates the last-seen marks. Best effort: failures
// are logged and swallowed because they must never fail a request.
func (s *Service) TouchReporterKey(ctx context.Context, reporterID, keyID string) {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE reporters SET last_seen_at = NOW() WHERE reporter_id = ?`, reporterID); err != nil {
		log.Debugf("Failed to touch reporter %s: %v", reporterID, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE reporter_keys SET last_used_at = NOW() WHERE key_id = ?`, keyID); err != nil {
		log.Debugf("Failed to touch reporter key %s: %v", keyID, err)
	}
}

// SetReporterStatus gates a reporter. Setting the stored value again is
// a successful no-op.
func (s *Service) SetReporterStatus(ctx context.Context, reporterID, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reporters SET status = ? WHERE reporter_id = ?`, status, reporterID)
	if err != nil {
		return fmt.Errorf("failed to update reporter status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return s.reporterExists(ctx, reporterID)
	}
	return nil
}

func (s *Service) reporterExists(ctx context.Context, reporterID string) error {
	rows, err := s.db.QueryContext(ctx, `SELECT 1 FROM reporters WHERE reporter_id = ?`, reporterID)
	if err != nil {
		return fmt.Errorf("failed to check reporter %s: %w", reporterID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to check reporter %s: %w", reporterID, err)
		}
		return ErrNotFound
	}
	return nil
}

func splitScopes(joined string) []string {
	if joined == "" {
		return []string{}
	}
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
