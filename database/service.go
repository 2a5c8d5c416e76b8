package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"incident-dashboard/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Service runs all incident store queries on an established connection.
type Service struct {
	db *sql.DB
}

// NewService wraps an open database handle.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Close closes the underlying database handle.
func (s *Service) Close() error {
	return s.db.Close()
}

const incidentColumns = `seq, id, created_at, incident_type, county, sub_county, location,
	incident_date, reported_date, priority, status, description, actions_taken,
	deaths, injuries, missing, cattle, goats, sheep, camels, other_livestock,
	reporter_name, reporter_phone, is_anonymous, is_verified, responding_agencies, response_time_ms`

// StoreFilter narrows snapshot reads on the database side. It is a
// row-count optimization only; filtering semantics live in the engine
// package.
type StoreFilter struct {
	County   string
	Status   string
	Priority string
	Limit    int
}

// GetIncidents returns the newest incidents first, optionally narrowed
// by the filter. A non-positive limit returns the whole table.
func (s *Service) GetIncidents(ctx context.Context, filter StoreFilter) ([]models.IncidentRecord, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents`

	var conds []string
	var args []interface{}
	if filter.County != "" {
		conds = append(conds, "county = ?")
		args = append(args, filter.County)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		conds = append(conds, "priority = ?")
		args = append(args, filter.Priority)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY incident_date DESC, seq DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents: %w", err)
	}
	defer rows.Close()

	return scanIncidents(rows)
}

// GetIncidentByID returns one incident or ErrNotFound.
func (s *Service) GetIncidentByID(ctx context.Context, id string) (*models.IncidentRecord, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = ?`

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query incident %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read incident %s: %w", id, err)
		}
		return nil, ErrNotFound
	}

	rec, err := scanIncident(rows)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetIncidentsSince returns incidents with a sequence greater than the
// cursor, in insertion order. The broadcast loop polls this.
func (s *Service) GetIncidentsSince(ctx context.Context, seq int64) ([]models.IncidentRecord, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE seq > ? ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, seq)
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents since seq %d: %w", seq, err)
	}
	defer rows.Close()

	return scanIncidents(rows)
}

// GetLatestSeq returns the highest assigned sequence, zero for an empty
// table.
func (s *Service) GetLatestSeq(ctx context.Context) (int64, error) {
	var seq int64
	row := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM incidents`)
	if err := row.Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to get latest seq: %w", err)
	}
	return seq, nil
}

// CreateIncidents inserts a batch inside one transaction. The database
// assigns sequences; callers re-read records to observe them.
func (s *Service) CreateIncidents(ctx context.Context, records []models.IncidentRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertSQL := `INSERT INTO incidents (id, created_at, incident_type, county, sub_county, location,
		incident_date, reported_date, priority, status, description, actions_taken,
		deaths, injuries, missing, cattle, goats, sheep, camels, other_livestock,
		reporter_name, reporter_phone, is_anonymous, is_verified, responding_agencies, response_time_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, rec := range records {
		_, err := tx.ExecContext(ctx, insertSQL,
			rec.ID, rec.CreatedAt, rec.IncidentType, rec.County, nullableString(rec.SubCounty),
			rec.Location, rec.IncidentDate, rec.ReportedDate, rec.Priority, rec.Status,
			rec.Description, nullableString(rec.ActionsTaken),
			rec.Casualties.Deaths, rec.Casualties.Injuries, rec.Casualties.Missing,
			rec.LivestockStolen.Cattle, rec.LivestockStolen.Goats, rec.LivestockStolen.Sheep,
			rec.LivestockStolen.Camels, rec.LivestockStolen.Other,
			nullableString(rec.ReporterName), nullableString(rec.ReporterPhone),
			rec.IsAnonymous, rec.IsVerified,
			joinAgencies(rec.RespondingAgencies), nullableInt64(rec.ResponseTimeMs),
		)
		if err != nil {
			return fmt.Errorf("failed to insert incident %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit incidents: %w", err)
	}
	return nil
}

// UpdateStatus sets the workflow status of one incident. Setting the
// value already stored is a successful no-op.
func (s *Service) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	res, err := s.db.ExecContext(ctx, `UPDATE incidents SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		// MySQL also reports zero when the stored value did not change,
		// so distinguish a no-op update from a missing row.
		return s.incidentExists(ctx, id)
	}
	return nil
}

// SetVerified sets the verification flag of one incident. Setting the
// value already stored is a successful no-op.
func (s *Service) SetVerified(ctx context.Context, id string, verified bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE incidents SET is_verified = ? WHERE id = ?`, verified, id)
	if err != nil {
		return fmt.Errorf("failed to update verification for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return s.incidentExists(ctx, id)
	}
	return nil
}

func (s *Service) incidentExists(ctx context.Context, id string) error {
	rows, err := s.db.QueryContext(ctx, `SELECT 1 FROM incidents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to check incident %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to check incident %s: %w", id, err)
		}
		return ErrNotFound
	}
	return nil
}

func scanIncidents(rows *sql.Rows) ([]models.IncidentRecord, error) {
	incidents := []models.IncidentRecord{}
	for rows.Next() {
		rec, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating incidents: %w", err)
	}
	return incidents, nil
}

func scanIncident(rows *sql.Rows) (models.IncidentRecord, error) {
	var rec models.IncidentRecord
	var subCounty, actionsTaken, reporterName, reporterPhone, agencies sql.NullString
	var responseTime sql.NullInt64

	err := rows.Scan(
		&rec.Seq, &rec.ID, &rec.CreatedAt, &rec.IncidentType, &rec.County,
		&subCounty, &rec.Location, &rec.IncidentDate, &rec.ReportedDate,
		&rec.Priority, &rec.Status, &rec.Description, &actionsTaken,
		&rec.Casualties.Deaths, &rec.Casualties.Injuries, &rec.Casualties.Missing,
		&rec.LivestockStolen.Cattle, &rec.LivestockStolen.Goats, &rec.LivestockStolen.Sheep,
		&rec.LivestockStolen.Camels, &rec.LivestockStolen.Other,
		&reporterName, &reporterPhone, &rec.IsAnonymous, &rec.IsVerified,
		&agencies, &responseTime,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan incident: %w", err)
	}

	if subCounty.Valid {
		rec.SubCounty = &subCounty.String
	}
	if actionsTaken.Valid {
		rec.ActionsTaken = &actionsTaken.String
	}
	if reporterName.Valid {
		rec.ReporterName = &reporterName.String
	}
	if reporterPhone.Valid {
		rec.ReporterPhone = &reporterPhone.String
	}
	rec.RespondingAgencies = splitAgencies(agencies.String)
	if responseTime.Valid {
		rec.ResponseTimeMs = &responseTime.Int64
	}
	return rec, nil
}

// Agencies are stored as one comma-separated column.
func joinAgencies(list []string) string {
	cleaned := make([]string, 0, len(list))
	for _, a := range list {
		if a = strings.TrimSpace(a); a != "" {
			cleaned = append(cleaned, a)
		}
	}
	return strings.Join(cleaned, ",")
}

func splitAgencies(joined string) []string {
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

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullableInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
