package http

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/timesheet"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// The wrappers below reject non-uuid keys the way PostgreSQL does for uuid
// columns, so handler tests over the memory store see the same failures.

func uuidColumns(ids ...*string) error {
	for _, id := range ids {
		if id == nil {
			continue
		}
		if _, err := uuid.Parse(*id); err != nil {
			return &pgconn.PgError{
				Severity: "ERROR",
				Code:     "22P02",
				Message:  fmt.Sprintf("invalid input syntax for type uuid: %q", *id),
			}
		}
	}
	return nil
}

type uuidEntries struct {
	timesheet.EntryRepository
}

func (r uuidEntries) Create(ctx context.Context, entry timesheet.Entry) (timesheet.Entry, error) {
	if err := uuidColumns(&entry.ID, &entry.EmployeeID, entry.ProjectID); err != nil {
		return timesheet.Entry{}, err
	}
	return r.EntryRepository.Create(ctx, entry)
}

func (r uuidEntries) GetByID(ctx context.Context, id string) (timesheet.Entry, error) {
	if err := uuidColumns(&id); err != nil {
		return timesheet.Entry{}, err
	}
	return r.EntryRepository.GetByID(ctx, id)
}

func (r uuidEntries) GetByIDForUpdate(ctx context.Context, id string) (timesheet.Entry, error) {
	if err := uuidColumns(&id); err != nil {
		return timesheet.Entry{}, err
	}
	return r.EntryRepository.GetByIDForUpdate(ctx, id)
}

func (r uuidEntries) Update(ctx context.Context, entry timesheet.Entry) (timesheet.Entry, error) {
	if err := uuidColumns(&entry.ID, &entry.EmployeeID, entry.ProjectID); err != nil {
		return timesheet.Entry{}, err
	}
	return r.EntryRepository.Update(ctx, entry)
}

func (r uuidEntries) ExistsForEmployeeOnDate(ctx context.Context, employeeID string, date time.Time, excludeID *string) (bool, error) {
	if err := uuidColumns(&employeeID, excludeID); err != nil {
		return false, err
	}
	return r.EntryRepository.ExistsForEmployeeOnDate(ctx, employeeID, date, excludeID)
}

func (r uuidEntries) SumHoursWorked(ctx context.Context, employeeID string, from, to time.Time, excludeID *string) (decimal.Decimal, error) {
	if err := uuidColumns(&employeeID, excludeID); err != nil {
		return decimal.Zero, err
	}
	return r.EntryRepository.SumHoursWorked(ctx, employeeID, from, to, excludeID)
}

func (r uuidEntries) SumOvertimeHours(ctx context.Context, employeeID string, from, to time.Time, excludeID *string) (decimal.Decimal, error) {
	if err := uuidColumns(&employeeID, excludeID); err != nil {
		return decimal.Zero, err
	}
	return r.EntryRepository.SumOvertimeHours(ctx, employeeID, from, to, excludeID)
}

type uuidZones struct {
	geofence.ZoneRepository
}

func (r uuidZones) Create(ctx context.Context, zone geofence.Zone) (geofence.Zone, error) {
	if err := uuidColumns(&zone.ID, zone.ProjectID); err != nil {
		return geofence.Zone{}, err
	}
	return r.ZoneRepository.Create(ctx, zone)
}

func (r uuidZones) GetByID(ctx context.Context, id string) (geofence.Zone, error) {
	if err := uuidColumns(&id); err != nil {
		return geofence.Zone{}, err
	}
	return r.ZoneRepository.GetByID(ctx, id)
}

func (r uuidZones) Update(ctx context.Context, zone geofence.Zone) (geofence.Zone, error) {
	if err := uuidColumns(&zone.ID, zone.ProjectID); err != nil {
		return geofence.Zone{}, err
	}
	return r.ZoneRepository.Update(ctx, zone)
}

func (r uuidZones) Delete(ctx context.Context, id string) error {
	if err := uuidColumns(&id); err != nil {
		return err
	}
	return r.ZoneRepository.Delete(ctx, id)
}

func (r uuidZones) ToggleActive(ctx context.Context, id string) (geofence.Zone, error) {
	if err := uuidColumns(&id); err != nil {
		return geofence.Zone{}, err
	}
	return r.ZoneRepository.ToggleActive(ctx, id)
}

func (r uuidZones) List(ctx context.Context, filter geofence.ZoneFilter) ([]geofence.Zone, int64, error) {
	if err := uuidColumns(filter.ProjectID); err != nil {
		return nil, 0, err
	}
	return r.ZoneRepository.List(ctx, filter)
}

func (r uuidZones) ListActive(ctx context.Context, projectID *string) ([]geofence.Zone, error) {
	if err := uuidColumns(projectID); err != nil {
		return nil, err
	}
	return r.ZoneRepository.ListActive(ctx, projectID)
}

type uuidViolations struct {
	geofence.ViolationRepository
}

func (r uuidViolations) Acknowledge(ctx context.Context, id string, actorID string, at time.Time) (geofence.Violation, error) {
	if err := uuidColumns(&id, &actorID); err != nil {
		return geofence.Violation{}, err
	}
	return r.ViolationRepository.Acknowledge(ctx, id, actorID, at)
}

func (r uuidViolations) ListRecent(ctx context.Context, limit int, projectID *string) ([]geofence.Violation, error) {
	if err := uuidColumns(projectID); err != nil {
		return nil, err
	}
	return r.ViolationRepository.ListRecent(ctx, limit, projectID)
}

func (r uuidViolations) CountChecks(ctx context.Context, filter geofence.StatisticsFilter) (geofence.CheckCounts, error) {
	if err := uuidColumns(filter.ProjectID, filter.EmployeeID); err != nil {
		return geofence.CheckCounts{}, err
	}
	return r.ViolationRepository.CountChecks(ctx, filter)
}

type uuidCoverage struct {
	geofence.CoverageRepository
}

func (r uuidCoverage) Totals(ctx context.Context, filter geofence.CoverageFilter) (geofence.CoverageTotals, error) {
	if err := uuidColumns(filter.ProjectID); err != nil {
		return geofence.CoverageTotals{}, err
	}
	return r.CoverageRepository.Totals(ctx, filter)
}
