package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/geo"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const zoneColumns = `
	id, name, description, project_id, shape_type,
	center_latitude, center_longitude, radius_meters, vertices,
	zone_purpose, time_restrictions, is_active, created_at, updated_at`

type geofenceZoneRepository struct {
	db *database.DB
}

func NewGeofenceZoneRepository(db *database.DB) geofence.ZoneRepository {
	return &geofenceZoneRepository{db: db}
}

// zoneRow is the flattened column layout of geofence_zones.
type zoneRow struct {
	centerLat, centerLon, radius *float64
	vertices                     []byte
	timeRestriction              []byte
}

func newZoneRow(z geofence.Zone) (zoneRow, error) {
	var row zoneRow
	switch z.Shape.Kind {
	case geo.KindCircle:
		row.centerLat = &z.Shape.Circle.Center.Latitude
		row.centerLon = &z.Shape.Circle.Center.Longitude
		row.radius = &z.Shape.Circle.RadiusMeters
	case geo.KindPolygon:
		b, err := json.Marshal(z.Shape.Polygon.Vertices)
		if err != nil {
			return row, fmt.Errorf("failed to encode zone vertices: %w", err)
		}
		row.vertices = b
	}
	if z.TimeRestriction != nil {
		b, err := json.Marshal(z.TimeRestriction)
		if err != nil {
			return row, fmt.Errorf("failed to encode zone time restriction: %w", err)
		}
		row.timeRestriction = b
	}
	return row, nil
}

func scanZone(row pgx.Row) (geofence.Zone, error) {
	var (
		z     geofence.Zone
		kind  string
		shape zoneRow
	)
	err := row.Scan(
		&z.ID, &z.Name, &z.Description, &z.ProjectID, &kind,
		&shape.centerLat, &shape.centerLon, &shape.radius, &shape.vertices,
		&z.Purpose, &shape.timeRestriction, &z.IsActive, &z.CreatedAt, &z.UpdatedAt,
	)
	if err != nil {
		return geofence.Zone{}, err
	}

	switch geo.ShapeKind(kind) {
	case geo.KindCircle:
		if shape.centerLat == nil || shape.centerLon == nil || shape.radius == nil {
			return geofence.Zone{}, fmt.Errorf("zone %s: circle without center or radius", z.ID)
		}
		z.Shape = geo.NewCircle(geo.Point{Latitude: *shape.centerLat, Longitude: *shape.centerLon}, *shape.radius)
	case geo.KindPolygon:
		var vertices []geo.Point
		if err := json.Unmarshal(shape.vertices, &vertices); err != nil {
			return geofence.Zone{}, fmt.Errorf("zone %s: decode vertices: %w", z.ID, err)
		}
		z.Shape = geo.NewPolygon(vertices)
	default:
		return geofence.Zone{}, fmt.Errorf("zone %s: unknown shape type %q", z.ID, kind)
	}

	if len(shape.timeRestriction) > 0 {
		var tr geofence.TimeRestriction
		if err := json.Unmarshal(shape.timeRestriction, &tr); err != nil {
			return geofence.Zone{}, fmt.Errorf("zone %s: decode time restriction: %w", z.ID, err)
		}
		z.TimeRestriction = &tr
	}

	return z, nil
}

func collectZones(rows pgx.Rows) ([]geofence.Zone, error) {
	defer rows.Close()

	var zones []geofence.Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan geofence zone: %w", err)
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate geofence zones: %w", err)
	}

	return zones, nil
}

func zoneWriteError(err error, action string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return geofence.ErrZoneNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
		return geofence.ErrZoneNameExists
	}
	return fmt.Errorf("failed to %s geofence zone: %w", action, err)
}

// Create implements geofence.ZoneRepository.
func (r *geofenceZoneRepository) Create(ctx context.Context, zone geofence.Zone) (geofence.Zone, error) {
	q := GetQuerier(ctx, r.db)

	row, err := newZoneRow(zone)
	if err != nil {
		return geofence.Zone{}, err
	}

	query := `
		INSERT INTO geofence_zones (
			id, name, description, project_id, shape_type,
			center_latitude, center_longitude, radius_meters, vertices,
			zone_purpose, time_restrictions, is_active
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		) RETURNING ` + zoneColumns

	created, err := scanZone(q.QueryRow(ctx, query,
		zone.ID, zone.Name, zone.Description, zone.ProjectID, string(zone.Shape.Kind),
		row.centerLat, row.centerLon, row.radius, row.vertices,
		zone.Purpose, row.timeRestriction, zone.IsActive,
	))
	if err != nil {
		return geofence.Zone{}, zoneWriteError(err, "create")
	}

	return created, nil
}

// GetByID implements geofence.ZoneRepository.
func (r *geofenceZoneRepository) GetByID(ctx context.Context, id string) (geofence.Zone, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + zoneColumns + ` FROM geofence_zones WHERE id = $1`

	zone, err := scanZone(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return geofence.Zone{}, geofence.ErrZoneNotFound
		}
		return geofence.Zone{}, fmt.Errorf("failed to get geofence zone: %w", err)
	}

	return zone, nil
}

// Update implements geofence.ZoneRepository.
func (r *geofenceZoneRepository) Update(ctx context.Context, zone geofence.Zone) (geofence.Zone, error) {
	q := GetQuerier(ctx, r.db)

	row, err := newZoneRow(zone)
	if err != nil {
		return geofence.Zone{}, err
	}

	query := `
		UPDATE geofence_zones SET
			name = $2, description = $3, project_id = $4, shape_type = $5,
			center_latitude = $6, center_longitude = $7, radius_meters = $8, vertices = $9,
			zone_purpose = $10, time_restrictions = $11, is_active = $12,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + zoneColumns

	updated, err := scanZone(q.QueryRow(ctx, query,
		zone.ID, zone.Name, zone.Description, zone.ProjectID, string(zone.Shape.Kind),
		row.centerLat, row.centerLon, row.radius, row.vertices,
		zone.Purpose, row.timeRestriction, zone.IsActive,
	))
	if err != nil {
		return geofence.Zone{}, zoneWriteError(err, "update")
	}

	return updated, nil
}

// Delete implements geofence.ZoneRepository.
func (r *geofenceZoneRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM geofence_zones WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete geofence zone: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return geofence.ErrZoneNotFound
	}

	return nil
}

// ToggleActive implements geofence.ZoneRepository.
func (r *geofenceZoneRepository) ToggleActive(ctx context.Context, id string) (geofence.Zone, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE geofence_zones SET is_active = NOT is_active, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + zoneColumns

	zone, err := scanZone(q.QueryRow(ctx, query, id))
	if err != nil {
		return geofence.Zone{}, zoneWriteError(err, "toggle")
	}

	return zone, nil
}

// List implements geofence.ZoneRepository.
func (r *geofenceZoneRepository) List(ctx context.Context, filter geofence.ZoneFilter) ([]geofence.Zone, int64, error) {
	q := GetQuerier(ctx, r.db)

	// Build WHERE clause
	baseWhere := "1=1"
	args := []interface{}{}
	argIdx := 1

	if filter.ProjectID != nil && *filter.ProjectID != "" {
		baseWhere += fmt.Sprintf(" AND project_id = $%d", argIdx)
		args = append(args, *filter.ProjectID)
		argIdx++
	}

	if filter.IsActive != nil {
		baseWhere += fmt.Sprintf(" AND is_active = $%d", argIdx)
		args = append(args, *filter.IsActive)
		argIdx++
	}

	if filter.ZoneType != nil && *filter.ZoneType != "" {
		baseWhere += fmt.Sprintf(" AND shape_type = $%d", argIdx)
		args = append(args, *filter.ZoneType)
		argIdx++
	}

	if filter.ZonePurpose != nil && *filter.ZonePurpose != "" {
		baseWhere += fmt.Sprintf(" AND zone_purpose = $%d", argIdx)
		args = append(args, *filter.ZonePurpose)
		argIdx++
	}

	if filter.Search != nil && *filter.Search != "" {
		baseWhere += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}

	// Count total
	var total int64
	countQuery := "SELECT COUNT(*) FROM geofence_zones WHERE " + baseWhere
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count geofence zones: %w", err)
	}

	// Pagination
	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`
		SELECT %s FROM geofence_zones
		WHERE %s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d
	`, zoneColumns, baseWhere, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list geofence zones: %w", err)
	}

	zones, err := collectZones(rows)
	if err != nil {
		return nil, 0, err
	}

	return zones, total, nil
}

// ListActive implements geofence.ZoneRepository.
func (r *geofenceZoneRepository) ListActive(ctx context.Context, projectID *string) ([]geofence.Zone, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + zoneColumns + ` FROM geofence_zones
		WHERE is_active = TRUE AND project_id IS NULL
		ORDER BY name ASC`
	args := []interface{}{}
	if projectID != nil {
		query = `SELECT ` + zoneColumns + ` FROM geofence_zones
			WHERE is_active = TRUE AND project_id = $1
			ORDER BY name ASC`
		args = append(args, *projectID)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list active geofence zones: %w", err)
	}

	return collectZones(rows)
}
