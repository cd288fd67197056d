package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry(employeeID string, date time.Time, hours int64) timesheet.Entry {
	return timesheet.Entry{
		ID:          uuid.Must(uuid.NewV7()).String(),
		EmployeeID:  employeeID,
		Date:        date,
		HoursWorked: decimal.NewFromInt(hours),
		Status:      timesheet.StatusDraft,
	}
}

func TestTimesheetEntryRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewTimesheetEntryRepository(setup.DB)
	employeeID := uuid.Must(uuid.NewV7()).String()
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	t.Run("create and read back", func(t *testing.T) {
		entry := newEntry(employeeID, monday, 8)
		overtime := decimal.RequireFromString("1.5")
		entry.OvertimeHours = &overtime

		created, err := repo.Create(ctx, entry)
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, got.HoursWorked.Equal(decimal.NewFromInt(8)))
		require.NotNil(t, got.OvertimeHours)
		assert.True(t, got.OvertimeHours.Equal(overtime))
		assert.Nil(t, got.GeofenceStatus)
	})

	t.Run("unique employee and date maps to duplicate", func(t *testing.T) {
		_, err := repo.Create(ctx, newEntry(employeeID, monday, 2))
		assert.ErrorIs(t, err, timesheet.ErrDuplicateEntry)
	})

	t.Run("sums exclude the given entry", func(t *testing.T) {
		second, err := repo.Create(ctx, newEntry(employeeID, monday.AddDate(0, 0, 1), 10))
		require.NoError(t, err)

		total, err := repo.SumHoursWorked(ctx, employeeID, monday, monday.AddDate(0, 0, 6), nil)
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromInt(18)), total.String())

		total, err = repo.SumHoursWorked(ctx, employeeID, monday, monday.AddDate(0, 0, 6), &second.ID)
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromInt(8)), total.String())

		exists, err := repo.ExistsForEmployeeOnDate(ctx, employeeID, monday.AddDate(0, 0, 1), &second.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.Must(uuid.NewV7()).String())
		assert.ErrorIs(t, err, timesheet.ErrEntryNotFound)
	})
}

func TestTransactorRollsBackAndNests(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewTimesheetEntryRepository(setup.DB)
	tx := postgresql.NewTransactor(setup.DB)
	employeeID := uuid.Must(uuid.NewV7()).String()
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	boom := errors.New("boom")

	kept := newEntry(employeeID, day, 8)
	dropped := newEntry(employeeID, day.AddDate(0, 0, 1), 8)

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := repo.Create(ctx, kept); err != nil {
			return err
		}
		// A failing savepoint must not abort the outer transaction.
		nestedErr := tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if _, err := repo.Create(ctx, dropped); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, nestedErr, boom)
		return nil
	})
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, kept.ID)
	assert.NoError(t, err)
	_, err = repo.GetByID(ctx, dropped.ID)
	assert.ErrorIs(t, err, timesheet.ErrEntryNotFound)

	err = tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := repo.Create(ctx, newEntry(employeeID, day.AddDate(0, 0, 2), 8)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	total, err := repo.SumHoursWorked(ctx, employeeID, day, day.AddDate(0, 0, 6), nil)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(8)), total.String())
}

func TestGeofenceZoneRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewGeofenceZoneRepository(setup.DB)
	projectID := uuid.Must(uuid.NewV7()).String()

	circle := geofence.Zone{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Name:      "Site A",
		ProjectID: &projectID,
		Shape:     geo.NewCircle(geo.Point{Latitude: -6.2, Longitude: 106.8}, 200),
		Purpose:   geofence.PurposeProjectSite,
		IsActive:  true,
	}
	polygon := geofence.Zone{
		ID:   uuid.Must(uuid.NewV7()).String(),
		Name: "HQ",
		Shape: geo.NewPolygon([]geo.Point{
			{Latitude: 0, Longitude: 0}, {Latitude: 0, Longitude: 1}, {Latitude: 1, Longitude: 1},
		}),
		Purpose:         geofence.PurposeOffice,
		TimeRestriction: &geofence.TimeRestriction{StartTime: "08:00", EndTime: "17:00", DaysOfWeek: []int{1, 2, 3, 4, 5}},
		IsActive:        true,
	}

	_, err := repo.Create(ctx, circle)
	require.NoError(t, err)
	_, err = repo.Create(ctx, polygon)
	require.NoError(t, err)

	dup := circle
	dup.ID = uuid.Must(uuid.NewV7()).String()
	_, err = repo.Create(ctx, dup)
	assert.ErrorIs(t, err, geofence.ErrZoneNameExists)

	got, err := repo.GetByID(ctx, polygon.ID)
	require.NoError(t, err)
	assert.Equal(t, polygon.Shape, got.Shape)
	assert.Equal(t, polygon.TimeRestriction, got.TimeRestriction)

	project, err := repo.ListActive(ctx, &projectID)
	require.NoError(t, err)
	require.Len(t, project, 1)
	assert.Equal(t, circle.Shape, project[0].Shape)

	global, err := repo.ListActive(ctx, nil)
	require.NoError(t, err)
	require.Len(t, global, 1)
	assert.Equal(t, "HQ", global[0].Name)

	toggled, err := repo.ToggleActive(ctx, circle.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	search := "site"
	zones, total, err := repo.List(ctx, geofence.ZoneFilter{Search: &search, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, zones, 1)

	require.NoError(t, repo.Delete(ctx, circle.ID))
	assert.ErrorIs(t, repo.Delete(ctx, circle.ID), geofence.ErrZoneNotFound)
}

func TestGeofenceViolationRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	entries := postgresql.NewTimesheetEntryRepository(setup.DB)
	violations := postgresql.NewGeofenceViolationRepository(setup.DB)
	employeeID := uuid.Must(uuid.NewV7()).String()
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	lat, lon := -6.2, 106.8
	outside := geofence.StatusOutside
	entry := newEntry(employeeID, day, 8)
	entry.StartLatitude, entry.StartLongitude = &lat, &lon
	entry.GeofenceStatus = &outside
	entry, err := entries.Create(ctx, entry)
	require.NoError(t, err)

	distance := 42.5
	created, err := violations.Create(ctx, geofence.Violation{
		ID:               uuid.Must(uuid.NewV7()).String(),
		TimesheetEntryID: entry.ID,
		Coordinate:       geo.Point{Latitude: lat, Longitude: lon},
		DistanceMeters:   &distance,
		Reason:           geofence.ReasonOutsideZone,
		Status:           geofence.ViolationOpen,
		OccurredAt:       time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, employeeID, created.EmployeeID)

	checks, err := violations.CountChecks(ctx, geofence.StatisticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, geofence.CheckCounts{Total: 1, Outside: 1}, checks)

	acked, err := violations.Acknowledge(ctx, created.ID, employeeID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, geofence.ViolationAcknowledged, acked.Status)

	_, err = violations.Acknowledge(ctx, created.ID, employeeID, time.Now().UTC())
	assert.ErrorIs(t, err, geofence.ErrViolationAlreadyAcknowledged)

	counts, err := violations.CountViolations(ctx, geofence.StatisticsFilter{EmployeeID: &employeeID})
	require.NoError(t, err)
	assert.Equal(t, geofence.ViolationCounts{Total: 1, Open: 0}, counts)

	purged, err := violations.DeleteAcknowledgedBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestCoverageRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	zones := postgresql.NewGeofenceZoneRepository(setup.DB)
	entries := postgresql.NewTimesheetEntryRepository(setup.DB)
	coverage := postgresql.NewCoverageRepository(setup.DB)
	projectID := uuid.Must(uuid.NewV7()).String()
	otherProjectID := uuid.Must(uuid.NewV7()).String()
	employeeID := uuid.Must(uuid.NewV7()).String()
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	zone, err := zones.Create(ctx, geofence.Zone{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Name:      "Site A",
		ProjectID: &projectID,
		Shape:     geo.NewCircle(geo.Point{Latitude: -6.2, Longitude: 106.8}, 200),
		Purpose:   geofence.PurposeProjectSite,
		IsActive:  true,
	})
	require.NoError(t, err)

	lat, lon := -6.2, 106.8
	add := func(offset int, hours int64, project string, status *geofence.ValidationStatus, located bool) {
		t.Helper()
		entry := newEntry(employeeID, day.AddDate(0, 0, offset), hours)
		entry.ProjectID = &project
		if located {
			entry.StartLatitude, entry.StartLongitude = &lat, &lon
		}
		if status != nil {
			entry.GeofenceStatus = status
			entry.GeofenceZoneID = &zone.ID
		}
		_, err := entries.Create(ctx, entry)
		require.NoError(t, err)
	}

	inside, outside := geofence.StatusInside, geofence.StatusOutside
	overtime := decimal.RequireFromString("1.5")
	insideEntry := newEntry(employeeID, day, 8)
	insideEntry.ProjectID = &projectID
	insideEntry.StartLatitude, insideEntry.StartLongitude = &lat, &lon
	insideEntry.GeofenceStatus, insideEntry.GeofenceZoneID = &inside, &zone.ID
	insideEntry.OvertimeHours = &overtime
	_, err = entries.Create(ctx, insideEntry)
	require.NoError(t, err)

	add(1, 6, projectID, &outside, true)
	add(2, 4, projectID, nil, true)
	add(3, 7, projectID, nil, false)
	add(4, 5, otherProjectID, &inside, true)

	t.Run("totals cover located entries in scope", func(t *testing.T) {
		totals, err := coverage.Totals(ctx, geofence.CoverageFilter{ProjectID: &projectID})
		require.NoError(t, err)
		assert.Equal(t, geofence.CheckCounts{Total: 3, Inside: 1, Outside: 1, Unchecked: 1}, totals.Counts)
		assert.True(t, totals.TotalHours.Equal(decimal.RequireFromString("19.5")), totals.TotalHours.String())
		assert.True(t, totals.InsideHours.Equal(decimal.RequireFromString("9.5")), totals.InsideHours.String())
		assert.True(t, totals.OutsideHours.Equal(decimal.NewFromInt(6)), totals.OutsideHours.String())
	})

	t.Run("date range narrows totals", func(t *testing.T) {
		from, to := "2024-03-05", "2024-03-06"
		totals, err := coverage.Totals(ctx, geofence.CoverageFilter{ProjectID: &projectID, DateFrom: &from, DateTo: &to})
		require.NoError(t, err)
		assert.Equal(t, geofence.CheckCounts{Total: 2, Outside: 1, Unchecked: 1}, totals.Counts)
		assert.True(t, totals.InsideHours.IsZero())
	})

	t.Run("zone utilization", func(t *testing.T) {
		usage, err := coverage.ZoneUtilization(ctx, geofence.CoverageFilter{ProjectID: &projectID})
		require.NoError(t, err)
		require.Len(t, usage, 1)
		assert.Equal(t, zone.ID, usage[0].ZoneID)
		assert.Equal(t, "Site A", usage[0].ZoneName)
		assert.Equal(t, int64(1), usage[0].EntryCount)
		assert.True(t, usage[0].Hours.Equal(decimal.RequireFromString("9.5")), usage[0].Hours.String())
		assert.Equal(t, int64(1), usage[0].ViolationCount)

		all, err := coverage.ZoneUtilization(ctx, geofence.CoverageFilter{})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, int64(2), all[0].EntryCount)
	})

	t.Run("empty scope", func(t *testing.T) {
		unknown := uuid.Must(uuid.NewV7()).String()
		totals, err := coverage.Totals(ctx, geofence.CoverageFilter{ProjectID: &unknown})
		require.NoError(t, err)
		assert.Equal(t, geofence.CheckCounts{}, totals.Counts)
		assert.True(t, totals.TotalHours.IsZero())

		usage, err := coverage.ZoneUtilization(ctx, geofence.CoverageFilter{ProjectID: &unknown})
		require.NoError(t, err)
		assert.Empty(t, usage)
	})
}
