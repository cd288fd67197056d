package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/database"
)

// entryHours is the time an entry accounts for: regular plus overtime.
const entryHours = "(e.hours_worked + COALESCE(e.overtime_hours, 0))"

type coverageRepository struct {
	db *database.DB
}

func NewCoverageRepository(db *database.DB) geofence.CoverageRepository {
	return &coverageRepository{db: db}
}

// Totals implements geofence.CoverageRepository.
func (r *coverageRepository) Totals(ctx context.Context, filter geofence.CoverageFilter) (geofence.CoverageTotals, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere, args, _ := entryScope("e.start_latitude IS NOT NULL", []interface{}{}, 1,
		filter.ProjectID, nil, filter.DateFrom, filter.DateTo)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE e.geofence_status = 'inside'),
			COUNT(*) FILTER (WHERE e.geofence_status = 'outside'),
			COUNT(*) FILTER (WHERE e.geofence_status = 'no_zones_defined'),
			COUNT(*) FILTER (WHERE e.geofence_status IS NULL),
			COALESCE(SUM(` + entryHours + `), 0),
			COALESCE(SUM(` + entryHours + `) FILTER (WHERE e.geofence_status = 'inside'), 0),
			COALESCE(SUM(` + entryHours + `) FILTER (WHERE e.geofence_status = 'outside'), 0)
		FROM timesheet_entries e
		WHERE ` + baseWhere

	var t geofence.CoverageTotals
	err := q.QueryRow(ctx, query, args...).Scan(
		&t.Counts.Total, &t.Counts.Inside, &t.Counts.Outside, &t.Counts.NoZone, &t.Counts.Unchecked,
		&t.TotalHours, &t.InsideHours, &t.OutsideHours,
	)
	if err != nil {
		return geofence.CoverageTotals{}, fmt.Errorf("failed to aggregate work area coverage: %w", err)
	}

	return t, nil
}

// ZoneUtilization implements geofence.CoverageRepository.
func (r *coverageRepository) ZoneUtilization(ctx context.Context, filter geofence.CoverageFilter) ([]geofence.ZoneUtilization, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere, args, _ := entryScope("e.start_latitude IS NOT NULL", []interface{}{}, 1,
		filter.ProjectID, nil, filter.DateFrom, filter.DateTo)

	query := `
		SELECT z.id, z.name,
			COUNT(*) FILTER (WHERE e.geofence_status = 'inside'),
			COALESCE(SUM(` + entryHours + `) FILTER (WHERE e.geofence_status = 'inside'), 0),
			COUNT(*) FILTER (WHERE e.geofence_status = 'outside')
		FROM timesheet_entries e
		JOIN geofence_zones z ON z.id = e.geofence_zone_id
		WHERE ` + baseWhere + `
		GROUP BY z.id, z.name
		ORDER BY z.name ASC
	`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate zone utilization: %w", err)
	}
	defer rows.Close()

	zones := []geofence.ZoneUtilization{}
	for rows.Next() {
		var u geofence.ZoneUtilization
		if err := rows.Scan(&u.ZoneID, &u.ZoneName, &u.EntryCount, &u.Hours, &u.ViolationCount); err != nil {
			return nil, fmt.Errorf("failed to scan zone utilization: %w", err)
		}
		zones = append(zones, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate zone utilization: %w", err)
	}

	return zones, nil
}
