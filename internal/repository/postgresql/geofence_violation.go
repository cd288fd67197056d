package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const violationSelect = `
	SELECT v.id, v.timesheet_entry_id, v.zone_id, v.latitude, v.longitude, v.distance_meters,
		   v.reason, v.status, v.acknowledged_by, v.acknowledged_at, v.occurred_at, v.created_at,
		   z.name, e.employee_id, e.project_id, e.date
	FROM geofence_violations v
	JOIN timesheet_entries e ON e.id = v.timesheet_entry_id
	LEFT JOIN geofence_zones z ON z.id = v.zone_id`

type geofenceViolationRepository struct {
	db *database.DB
}

func NewGeofenceViolationRepository(db *database.DB) geofence.ViolationRepository {
	return &geofenceViolationRepository{db: db}
}

func scanViolation(row pgx.Row) (geofence.Violation, error) {
	var v geofence.Violation
	err := row.Scan(
		&v.ID, &v.TimesheetEntryID, &v.ZoneID, &v.Coordinate.Latitude, &v.Coordinate.Longitude, &v.DistanceMeters,
		&v.Reason, &v.Status, &v.AcknowledgedBy, &v.AcknowledgedAt, &v.OccurredAt, &v.CreatedAt,
		&v.ZoneName, &v.EmployeeID, &v.ProjectID, &v.EntryDate,
	)
	return v, err
}

// entryScope appends the shared project/employee/date filters on timesheet_entries e.
func entryScope(baseWhere string, args []interface{}, argIdx int, projectID, employeeID, dateFrom, dateTo *string) (string, []interface{}, int) {
	if projectID != nil && *projectID != "" {
		baseWhere += fmt.Sprintf(" AND e.project_id = $%d", argIdx)
		args = append(args, *projectID)
		argIdx++
	}

	if employeeID != nil && *employeeID != "" {
		baseWhere += fmt.Sprintf(" AND e.employee_id = $%d", argIdx)
		args = append(args, *employeeID)
		argIdx++
	}

	if dateFrom != nil && *dateFrom != "" {
		baseWhere += fmt.Sprintf(" AND e.date >= $%d::date", argIdx)
		args = append(args, *dateFrom)
		argIdx++
	}

	if dateTo != nil && *dateTo != "" {
		baseWhere += fmt.Sprintf(" AND e.date <= $%d::date", argIdx)
		args = append(args, *dateTo)
		argIdx++
	}

	return baseWhere, args, argIdx
}

// Create implements geofence.ViolationRepository.
func (r *geofenceViolationRepository) Create(ctx context.Context, violation geofence.Violation) (geofence.Violation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH v AS (
			INSERT INTO geofence_violations (
				id, timesheet_entry_id, zone_id, latitude, longitude, distance_meters,
				reason, status, occurred_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9
			) RETURNING *
		)
		SELECT v.id, v.timesheet_entry_id, v.zone_id, v.latitude, v.longitude, v.distance_meters,
			   v.reason, v.status, v.acknowledged_by, v.acknowledged_at, v.occurred_at, v.created_at,
			   z.name, e.employee_id, e.project_id, e.date
		FROM v
		JOIN timesheet_entries e ON e.id = v.timesheet_entry_id
		LEFT JOIN geofence_zones z ON z.id = v.zone_id
	`

	created, err := scanViolation(q.QueryRow(ctx, query,
		violation.ID, violation.TimesheetEntryID, violation.ZoneID,
		violation.Coordinate.Latitude, violation.Coordinate.Longitude, violation.DistanceMeters,
		violation.Reason, violation.Status, violation.OccurredAt,
	))
	if err != nil {
		return geofence.Violation{}, fmt.Errorf("failed to create geofence violation: %w", err)
	}

	return created, nil
}

// GetByID implements geofence.ViolationRepository.
func (r *geofenceViolationRepository) GetByID(ctx context.Context, id string) (geofence.Violation, error) {
	q := GetQuerier(ctx, r.db)

	violation, err := scanViolation(q.QueryRow(ctx, violationSelect+` WHERE v.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return geofence.Violation{}, geofence.ErrViolationNotFound
		}
		return geofence.Violation{}, fmt.Errorf("failed to get geofence violation: %w", err)
	}

	return violation, nil
}

// Acknowledge implements geofence.ViolationRepository.
func (r *geofenceViolationRepository) Acknowledge(ctx context.Context, id string, actorID string, at time.Time) (geofence.Violation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE geofence_violations
		SET status = $2, acknowledged_by = $3, acknowledged_at = $4
		WHERE id = $1 AND status = $5
	`

	commandTag, err := q.Exec(ctx, query, id, geofence.ViolationAcknowledged, actorID, at, geofence.ViolationOpen)
	if err != nil {
		return geofence.Violation{}, fmt.Errorf("failed to acknowledge geofence violation: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return geofence.Violation{}, err
		}
		return geofence.Violation{}, geofence.ErrViolationAlreadyAcknowledged
	}

	return r.GetByID(ctx, id)
}

// ListRecent implements geofence.ViolationRepository.
func (r *geofenceViolationRepository) ListRecent(ctx context.Context, limit int, projectID *string) ([]geofence.Violation, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere, args, argIdx := entryScope("1=1", []interface{}{}, 1, projectID, nil, nil, nil)
	query := fmt.Sprintf(`%s
		WHERE %s
		ORDER BY v.occurred_at DESC, v.created_at DESC
		LIMIT $%d
	`, violationSelect, baseWhere, argIdx)
	args = append(args, limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list geofence violations: %w", err)
	}
	defer rows.Close()

	violations := []geofence.Violation{}
	for rows.Next() {
		v, err := scanViolation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan geofence violation: %w", err)
		}
		violations = append(violations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate geofence violations: %w", err)
	}

	return violations, nil
}

// CountChecks implements geofence.ViolationRepository.
func (r *geofenceViolationRepository) CountChecks(ctx context.Context, filter geofence.StatisticsFilter) (geofence.CheckCounts, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere, args, _ := entryScope("e.start_latitude IS NOT NULL", []interface{}{}, 1,
		filter.ProjectID, filter.EmployeeID, filter.DateFrom, filter.DateTo)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE e.geofence_status = 'inside'),
			COUNT(*) FILTER (WHERE e.geofence_status = 'outside'),
			COUNT(*) FILTER (WHERE e.geofence_status = 'no_zones_defined'),
			COUNT(*) FILTER (WHERE e.geofence_status IS NULL)
		FROM timesheet_entries e
		WHERE ` + baseWhere

	var c geofence.CheckCounts
	if err := q.QueryRow(ctx, query, args...).Scan(&c.Total, &c.Inside, &c.Outside, &c.NoZone, &c.Unchecked); err != nil {
		return geofence.CheckCounts{}, fmt.Errorf("failed to count geofence checks: %w", err)
	}

	return c, nil
}

// CountViolations implements geofence.ViolationRepository.
func (r *geofenceViolationRepository) CountViolations(ctx context.Context, filter geofence.StatisticsFilter) (geofence.ViolationCounts, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere, args, argIdx := entryScope("1=1", []interface{}{}, 1,
		filter.ProjectID, filter.EmployeeID, filter.DateFrom, filter.DateTo)

	query := fmt.Sprintf(`
		SELECT COUNT(*), COUNT(*) FILTER (WHERE v.status = $%d)
		FROM geofence_violations v
		JOIN timesheet_entries e ON e.id = v.timesheet_entry_id
		WHERE %s
	`, argIdx, baseWhere)
	args = append(args, geofence.ViolationOpen)

	var c geofence.ViolationCounts
	if err := q.QueryRow(ctx, query, args...).Scan(&c.Total, &c.Open); err != nil {
		return geofence.ViolationCounts{}, fmt.Errorf("failed to count geofence violations: %w", err)
	}

	return c, nil
}

// CountByZone implements geofence.ViolationRepository.
func (r *geofenceViolationRepository) CountByZone(ctx context.Context, filter geofence.StatisticsFilter) ([]geofence.ZoneViolationCount, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere, args, _ := entryScope("1=1", []interface{}{}, 1,
		filter.ProjectID, filter.EmployeeID, filter.DateFrom, filter.DateTo)

	query := `
		SELECT v.zone_id, z.name, COUNT(*)
		FROM geofence_violations v
		JOIN timesheet_entries e ON e.id = v.timesheet_entry_id
		LEFT JOIN geofence_zones z ON z.id = v.zone_id
		WHERE ` + baseWhere + `
		GROUP BY v.zone_id, z.name
		ORDER BY COUNT(*) DESC, z.name ASC NULLS LAST
	`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count geofence violations by zone: %w", err)
	}
	defer rows.Close()

	counts := []geofence.ZoneViolationCount{}
	for rows.Next() {
		var c geofence.ZoneViolationCount
		if err := rows.Scan(&c.ZoneID, &c.ZoneName, &c.ViolationCount); err != nil {
			return nil, fmt.Errorf("failed to scan zone violation count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate zone violation counts: %w", err)
	}

	return counts, nil
}

// DeleteAcknowledgedBefore implements geofence.ViolationRepository.
func (r *geofenceViolationRepository) DeleteAcknowledgedBefore(ctx context.Context, before time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx,
		`DELETE FROM geofence_violations WHERE status = $1 AND occurred_at < $2`,
		geofence.ViolationAcknowledged, before,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge geofence violations: %w", err)
	}

	return commandTag.RowsAffected(), nil
}
