package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const entryColumns = `
	id, employee_id, project_id, date, hours_worked, overtime_hours,
	start_time, end_time, start_latitude, start_longitude, description, status,
	geofence_status, geofence_zone_id, geofence_checked_at,
	created_at, updated_at`

type timesheetEntryRepository struct {
	db *database.DB
}

func NewTimesheetEntryRepository(db *database.DB) timesheet.EntryRepository {
	return &timesheetEntryRepository{db: db}
}

func scanEntry(row pgx.Row) (timesheet.Entry, error) {
	var e timesheet.Entry
	err := row.Scan(
		&e.ID, &e.EmployeeID, &e.ProjectID, &e.Date, &e.HoursWorked, &e.OvertimeHours,
		&e.StartTime, &e.EndTime, &e.StartLatitude, &e.StartLongitude, &e.Description, &e.Status,
		&e.GeofenceStatus, &e.GeofenceZoneID, &e.GeofenceCheckedAt,
		&e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// Create implements timesheet.EntryRepository.
func (r *timesheetEntryRepository) Create(ctx context.Context, entry timesheet.Entry) (timesheet.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO timesheet_entries (
			id, employee_id, project_id, date, hours_worked, overtime_hours,
			start_time, end_time, start_latitude, start_longitude, description, status,
			geofence_status, geofence_zone_id, geofence_checked_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		) RETURNING ` + entryColumns

	created, err := scanEntry(q.QueryRow(ctx, query,
		entry.ID, entry.EmployeeID, entry.ProjectID, entry.Date, entry.HoursWorked, entry.OvertimeHours,
		entry.StartTime, entry.EndTime, entry.StartLatitude, entry.StartLongitude, entry.Description, entry.Status,
		entry.GeofenceStatus, entry.GeofenceZoneID, entry.GeofenceCheckedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return timesheet.Entry{}, timesheet.ErrDuplicateEntry
		}
		return timesheet.Entry{}, fmt.Errorf("failed to create timesheet entry: %w", err)
	}

	return created, nil
}

// GetByID implements timesheet.EntryRepository.
func (r *timesheetEntryRepository) GetByID(ctx context.Context, id string) (timesheet.Entry, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate implements timesheet.EntryRepository.
func (r *timesheetEntryRepository) GetByIDForUpdate(ctx context.Context, id string) (timesheet.Entry, error) {
	return r.get(ctx, id, true)
}

func (r *timesheetEntryRepository) get(ctx context.Context, id string, forUpdate bool) (timesheet.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + entryColumns + ` FROM timesheet_entries WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	entry, err := scanEntry(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timesheet.Entry{}, timesheet.ErrEntryNotFound
		}
		return timesheet.Entry{}, fmt.Errorf("failed to get timesheet entry: %w", err)
	}

	return entry, nil
}

// Update implements timesheet.EntryRepository.
func (r *timesheetEntryRepository) Update(ctx context.Context, entry timesheet.Entry) (timesheet.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE timesheet_entries SET
			employee_id = $2, project_id = $3, date = $4, hours_worked = $5, overtime_hours = $6,
			start_time = $7, end_time = $8, start_latitude = $9, start_longitude = $10,
			description = $11, status = $12,
			geofence_status = $13, geofence_zone_id = $14, geofence_checked_at = $15,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + entryColumns

	updated, err := scanEntry(q.QueryRow(ctx, query,
		entry.ID, entry.EmployeeID, entry.ProjectID, entry.Date, entry.HoursWorked, entry.OvertimeHours,
		entry.StartTime, entry.EndTime, entry.StartLatitude, entry.StartLongitude,
		entry.Description, entry.Status,
		entry.GeofenceStatus, entry.GeofenceZoneID, entry.GeofenceCheckedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timesheet.Entry{}, timesheet.ErrEntryNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return timesheet.Entry{}, timesheet.ErrDuplicateEntry
		}
		return timesheet.Entry{}, fmt.Errorf("failed to update timesheet entry: %w", err)
	}

	return updated, nil
}

// ExistsForEmployeeOnDate implements timesheet.EntryRepository.
func (r *timesheetEntryRepository) ExistsForEmployeeOnDate(ctx context.Context, employeeID string, date time.Time, excludeID *string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM timesheet_entries
			WHERE employee_id = $1 AND date = $2
			  AND ($3::uuid IS NULL OR id <> $3::uuid)
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, date, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existing timesheet entry: %w", err)
	}

	return exists, nil
}

// SumHoursWorked implements timesheet.EntryRepository.
func (r *timesheetEntryRepository) SumHoursWorked(ctx context.Context, employeeID string, from, to time.Time, excludeID *string) (decimal.Decimal, error) {
	return r.sum(ctx, "hours_worked", employeeID, from, to, excludeID)
}

// SumOvertimeHours implements timesheet.EntryRepository.
func (r *timesheetEntryRepository) SumOvertimeHours(ctx context.Context, employeeID string, from, to time.Time, excludeID *string) (decimal.Decimal, error) {
	return r.sum(ctx, "overtime_hours", employeeID, from, to, excludeID)
}

// column is a fixed column name, never user input.
func (r *timesheetEntryRepository) sum(ctx context.Context, column, employeeID string, from, to time.Time, excludeID *string) (decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(%s), 0)
		FROM timesheet_entries
		WHERE employee_id = $1
		  AND date BETWEEN $2 AND $3
		  AND ($4::uuid IS NULL OR id <> $4::uuid)
	`, column)

	var total decimal.Decimal
	if err := q.QueryRow(ctx, query, employeeID, from, to, excludeID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum %s: %w", column, err)
	}

	return total, nil
}
