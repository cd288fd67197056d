package geofence_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/repository/memory"
	geofenceService "github.com/cmlabs-hris/hris-timesheet-go/internal/service/geofence"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	limits = geofence.ZoneLimits{MinRadiusMeters: 1, MaxRadiusMeters: 50000, MaxPolygonPoints: 50}
	site   = geo.Point{Latitude: -6.2, Longitude: 106.8}
)

const managerID = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"

// metersPerDegree matches the earth radius used by the geo package.
const metersPerDegree = 6371000 * 3.141592653589793 / 180

func north(p geo.Point, meters float64) geo.Point {
	return geo.Point{Latitude: p.Latitude + meters/metersPerDegree, Longitude: p.Longitude}
}

func managerContext(t *testing.T) context.Context {
	t.Helper()
	svc := jwt.NewJWTService("test-secret", "1h")
	token, _, err := svc.GenerateAccessToken(managerID, nil, user.RoleManager)
	require.NoError(t, err)
	tok, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), tok, nil)
}

func ptr[T any](v T) *T {
	return &v
}

type recordingAudit struct {
	mu      sync.Mutex
	actions []string
	actors  []string
}

func (a *recordingAudit) ZoneChanged(_ context.Context, action string, _ geofence.Zone, actorID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, "zone."+action)
	a.actors = append(a.actors, actorID)
}

func (a *recordingAudit) ViolationAcknowledged(_ context.Context, _ geofence.Violation, actorID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, "violation.acknowledged")
	a.actors = append(a.actors, actorID)
}

type countingCache struct {
	invalidations int
	failures      int
}

func (c *countingCache) GetOrLoad(ctx context.Context, _ *string, load func(ctx context.Context) ([]geofence.Zone, error)) ([]geofence.Zone, error) {
	return load(ctx)
}

func (c *countingCache) Invalidate(context.Context) error {
	c.invalidations++
	if c.failures > 0 {
		c.failures--
		return errors.New("redis: connection refused")
	}
	return nil
}

func circleRequest(name string, projectID *string, purpose geofence.ZonePurpose, center geo.Point, radius float64) geofence.CreateZoneRequest {
	return geofence.CreateZoneRequest{
		Name:            name,
		ProjectID:       projectID,
		ZoneType:        string(geo.KindCircle),
		ZonePurpose:     string(purpose),
		CenterLatitude:  ptr(center.Latitude),
		CenterLongitude: ptr(center.Longitude),
		RadiusMeters:    ptr(radius),
	}
}

func TestZoneService(t *testing.T) {
	ctx := managerContext(t)

	t.Run("create applies defaults and audits the actor", func(t *testing.T) {
		audit := &recordingAudit{}
		cache := &countingCache{}
		svc := geofenceService.NewZoneService(memory.NewGeofenceZoneRepository(memory.NewStore()), cache, audit, limits)

		zone, err := svc.CreateZone(ctx, circleRequest("Site A", nil, geofence.PurposeProjectSite, site, 200))
		require.NoError(t, err)

		assert.True(t, validator.IsValidUUID(zone.ID))
		assert.True(t, zone.IsActive)
		assert.Equal(t, "circle", zone.ZoneType)
		require.NotNil(t, zone.RadiusMeters)
		assert.Equal(t, 200.0, *zone.RadiusMeters)
		assert.Equal(t, []string{"zone.created"}, audit.actions)
		assert.Equal(t, []string{managerID}, audit.actors)
		assert.Equal(t, 1, cache.invalidations)
	})

	t.Run("duplicate name is rejected", func(t *testing.T) {
		svc := geofenceService.NewZoneService(memory.NewGeofenceZoneRepository(memory.NewStore()), nil, nil, limits)

		_, err := svc.CreateZone(ctx, circleRequest("Site A", nil, geofence.PurposeOffice, site, 200))
		require.NoError(t, err)
		_, err = svc.CreateZone(ctx, circleRequest("Site A", nil, geofence.PurposeOffice, site, 300))
		assert.ErrorIs(t, err, geofence.ErrZoneNameExists)
	})

	t.Run("invalid geometry is a validation error", func(t *testing.T) {
		svc := geofenceService.NewZoneService(memory.NewGeofenceZoneRepository(memory.NewStore()), nil, nil, limits)

		_, err := svc.CreateZone(ctx, circleRequest("Tiny", nil, geofence.PurposeOffice, site, 0.5))
		var verrs validator.ValidationErrors
		assert.ErrorAs(t, err, &verrs)
	})

	t.Run("writes require an authenticated caller", func(t *testing.T) {
		svc := geofenceService.NewZoneService(memory.NewGeofenceZoneRepository(memory.NewStore()), nil, nil, limits)

		_, err := svc.CreateZone(context.Background(), circleRequest("Site A", nil, geofence.PurposeOffice, site, 200))
		assert.ErrorIs(t, err, user.ErrInvalidToken)
	})

	t.Run("update toggle delete", func(t *testing.T) {
		audit := &recordingAudit{}
		cache := &countingCache{}
		svc := geofenceService.NewZoneService(memory.NewGeofenceZoneRepository(memory.NewStore()), cache, audit, limits)

		created, err := svc.CreateZone(ctx, circleRequest("Site A", nil, geofence.PurposeOffice, site, 200))
		require.NoError(t, err)

		updated, err := svc.UpdateZone(ctx, geofence.UpdateZoneRequest{
			ID:                created.ID,
			CreateZoneRequest: circleRequest("Site A (north)", nil, geofence.PurposeOffice, north(site, 50), 300),
		})
		require.NoError(t, err)
		assert.Equal(t, "Site A (north)", updated.Name)
		assert.True(t, updated.IsActive)

		toggled, err := svc.ToggleZoneActive(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, toggled.IsActive)

		require.NoError(t, svc.DeleteZone(ctx, created.ID))
		_, err = svc.GetZone(ctx, created.ID)
		assert.ErrorIs(t, err, geofence.ErrZoneNotFound)

		assert.Equal(t, []string{"zone.created", "zone.updated", "zone.deactivated", "zone.deleted"}, audit.actions)
		assert.Equal(t, 4, cache.invalidations)
	})

	t.Run("missing zone", func(t *testing.T) {
		svc := geofenceService.NewZoneService(memory.NewGeofenceZoneRepository(memory.NewStore()), nil, nil, limits)

		for _, id := range []string{"0195f3a1-8c2e-7d4b-9a61-3e5f7b9d1c24", "missing"} {
			_, err := svc.GetZone(ctx, id)
			assert.ErrorIs(t, err, geofence.ErrZoneNotFound)
			_, err = svc.ToggleZoneActive(ctx, id)
			assert.ErrorIs(t, err, geofence.ErrZoneNotFound)
			assert.ErrorIs(t, svc.DeleteZone(ctx, id), geofence.ErrZoneNotFound)

			update := geofence.UpdateZoneRequest{ID: id, CreateZoneRequest: circleRequest("Site", nil, geofence.PurposeOffice, site, 100)}
			_, err = svc.UpdateZone(ctx, update)
			assert.ErrorIs(t, err, geofence.ErrZoneNotFound)
		}
	})

	t.Run("project id must be a uuid", func(t *testing.T) {
		svc := geofenceService.NewZoneService(memory.NewGeofenceZoneRepository(memory.NewStore()), nil, nil, limits)

		_, err := svc.CreateZone(ctx, circleRequest("Site", ptr("project-1"), geofence.PurposeProjectSite, site, 200))
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.ToMap(), "project_id")

		_, err = svc.ListZones(ctx, geofence.ZoneFilter{ProjectID: ptr("project-1")})
		assert.ErrorAs(t, err, &verrs)
	})

	t.Run("failed cache invalidation is retried once", func(t *testing.T) {
		cache := &countingCache{failures: 1}
		svc := geofenceService.NewZoneService(memory.NewGeofenceZoneRepository(memory.NewStore()), cache, nil, limits)

		_, err := svc.CreateZone(ctx, circleRequest("Site", nil, geofence.PurposeOffice, site, 100))
		require.NoError(t, err)
		assert.Equal(t, 2, cache.invalidations)

		cache.failures = 5
		_, err = svc.CreateZone(ctx, circleRequest("Depot", nil, geofence.PurposeWarehouse, site, 100))
		require.NoError(t, err, "cache trouble never fails the write")
		assert.Equal(t, 4, cache.invalidations)
	})
}

func TestZoneServiceListPagination(t *testing.T) {
	ctx := managerContext(t)
	svc := geofenceService.NewZoneService(memory.NewGeofenceZoneRepository(memory.NewStore()), nil, nil, limits)

	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		_, err := svc.CreateZone(ctx, circleRequest(name, nil, geofence.PurposeOffice, site, 100))
		require.NoError(t, err)
	}

	tests := []struct {
		name      string
		filter    geofence.ZoneFilter
		wantNames []string
		showing   string
		pages     int
	}{
		{
			name:      "first page",
			filter:    geofence.ZoneFilter{Page: 1, Limit: 2},
			wantNames: []string{"Alpha", "Bravo"},
			showing:   "1-2 of 3",
			pages:     2,
		},
		{
			name:      "last page",
			filter:    geofence.ZoneFilter{Page: 2, Limit: 2},
			wantNames: []string{"Charlie"},
			showing:   "3-3 of 3",
			pages:     2,
		},
		{
			name:      "page past the end",
			filter:    geofence.ZoneFilter{Page: 3, Limit: 2},
			wantNames: []string{},
			showing:   "0 of 3",
			pages:     2,
		},
		{
			name:      "search without match",
			filter:    geofence.ZoneFilter{Page: 1, Limit: 2, Search: ptr("zulu")},
			wantNames: []string{},
			showing:   "0 of 0",
			pages:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.ListZones(ctx, tt.filter)
			require.NoError(t, err)

			names := make([]string, 0, len(resp.Zones))
			for _, z := range resp.Zones {
				names = append(names, z.Name)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.showing, resp.Showing)
			assert.Equal(t, tt.pages, resp.TotalPages)
		})
	}
}

func TestLocationValidator(t *testing.T) {
	ctx := managerContext(t)
	projectID := "7c9e6679-7425-40de-944b-e07fc1f90ae7"

	newValidator := func(t *testing.T, reqs ...geofence.CreateZoneRequest) geofence.LocationValidator {
		t.Helper()
		repo := memory.NewGeofenceZoneRepository(memory.NewStore())
		zones := geofenceService.NewZoneService(repo, nil, nil, limits)
		for _, req := range reqs {
			_, err := zones.CreateZone(ctx, req)
			require.NoError(t, err)
		}
		return geofenceService.NewLocationValidator(repo, nil)
	}

	check := func(p geo.Point, projectID *string) geofence.Check {
		return geofence.Check{Coordinate: p, ProjectID: projectID, At: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)}
	}

	t.Run("inside and outside a circle", func(t *testing.T) {
		v := newValidator(t, circleRequest("Site", &projectID, geofence.PurposeProjectSite, site, 200))

		inside, err := v.Validate(ctx, check(north(site, 150), &projectID))
		require.NoError(t, err)
		assert.Equal(t, geofence.StatusInside, inside.Status)
		require.NotNil(t, inside.MatchedZone)
		assert.Equal(t, "Site", inside.MatchedZone.Name)
		assert.Nil(t, inside.DistanceMeters)
		assert.Equal(t, 1, inside.ZonesEvaluated)

		outside, err := v.Validate(ctx, check(north(site, 250), &projectID))
		require.NoError(t, err)
		assert.Equal(t, geofence.StatusOutside, outside.Status)
		require.NotNil(t, outside.Reason)
		assert.Equal(t, geofence.ReasonOutsideZone, *outside.Reason)
		require.NotNil(t, outside.NearestZone)
		require.NotNil(t, outside.DistanceMeters)
		assert.InDelta(t, 50, *outside.DistanceMeters, 0.5)
	})

	t.Run("restricted zone wins over an authorized one", func(t *testing.T) {
		v := newValidator(t,
			circleRequest("Site", &projectID, geofence.PurposeProjectSite, site, 500),
			circleRequest("Blast area", &projectID, geofence.PurposeRestricted, site, 50),
		)

		result, err := v.Validate(ctx, check(north(site, 10), &projectID))
		require.NoError(t, err)
		assert.Equal(t, geofence.StatusOutside, result.Status)
		require.NotNil(t, result.Reason)
		assert.Equal(t, geofence.ReasonRestrictedZone, *result.Reason)
		assert.Equal(t, "Blast area", result.NearestZone.Name)
		assert.Equal(t, 0.0, *result.DistanceMeters)
	})

	t.Run("only restricted zones means nothing to match", func(t *testing.T) {
		v := newValidator(t, circleRequest("Blast area", &projectID, geofence.PurposeRestricted, site, 50))

		result, err := v.Validate(ctx, check(north(site, 1000), &projectID))
		require.NoError(t, err)
		assert.Equal(t, geofence.StatusNoZonesDefined, result.Status)
	})

	t.Run("project without zones falls back to global zones", func(t *testing.T) {
		v := newValidator(t, circleRequest("HQ", nil, geofence.PurposeOffice, site, 200))

		result, err := v.Validate(ctx, check(site, ptr("project-without-zones")))
		require.NoError(t, err)
		assert.Equal(t, geofence.StatusInside, result.Status)
		assert.Equal(t, "HQ", result.MatchedZone.Name)
	})

	t.Run("no zones anywhere", func(t *testing.T) {
		v := newValidator(t)

		result, err := v.Validate(ctx, check(site, &projectID))
		require.NoError(t, err)
		assert.Equal(t, geofence.StatusNoZonesDefined, result.Status)
		assert.Equal(t, 0, result.ZonesEvaluated)
	})

	t.Run("time restricted zone outside its window is skipped", func(t *testing.T) {
		req := circleRequest("Night shift", &projectID, geofence.PurposeProjectSite, site, 200)
		req.TimeRestriction = &geofence.TimeRestriction{StartTime: "22:00", EndTime: "06:00"}
		v := newValidator(t, req)

		day, err := v.Validate(ctx, check(site, &projectID))
		require.NoError(t, err)
		assert.Equal(t, geofence.StatusNoZonesDefined, day.Status)

		night := check(site, &projectID)
		night.At = time.Date(2024, 3, 4, 23, 0, 0, 0, time.UTC)
		result, err := v.Validate(ctx, night)
		require.NoError(t, err)
		assert.Equal(t, geofence.StatusInside, result.Status)
	})

	t.Run("request validation", func(t *testing.T) {
		v := newValidator(t)

		_, err := v.ValidateLocation(ctx, geofence.ValidateLocationRequest{Latitude: ptr(91.0), Longitude: ptr(0.0)})
		var verrs validator.ValidationErrors
		assert.ErrorAs(t, err, &verrs)

		_, err = v.ValidateLocation(ctx, geofence.ValidateLocationRequest{Latitude: ptr(site.Latitude), Longitude: ptr(site.Longitude), ProjectID: ptr("abc")})
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "project_id must be a valid UUID", verrs.ToMap()["project_id"])
	})
}

func TestViolationService(t *testing.T) {
	ctx := managerContext(t)
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) (*memory.Store, timesheet.EntryRepository, geofence.ViolationService, *recordingAudit) {
		t.Helper()
		store := memory.NewStore()
		audit := &recordingAudit{}
		return store, memory.NewTimesheetEntryRepository(store), geofenceService.NewViolationService(memory.NewGeofenceViolationRepository(store), audit), audit
	}

	located := func(id string, date time.Time, status geofence.ValidationStatus) timesheet.Entry {
		p := north(site, 10)
		return timesheet.Entry{
			ID:             id,
			EmployeeID:     "emp-1",
			Date:           date,
			HoursWorked:    decimal.NewFromInt(8),
			StartLatitude:  ptr(p.Latitude),
			StartLongitude: ptr(p.Longitude),
			Status:         timesheet.StatusDraft,
			GeofenceStatus: &status,
		}
	}

	outsideResult := func() geofence.ValidationResult {
		reason := geofence.ReasonOutsideZone
		return geofence.ValidationResult{
			Status:         geofence.StatusOutside,
			Reason:         &reason,
			Coordinate:     north(site, 250),
			DistanceMeters: ptr(50.0),
			Timestamp:      day.Add(9 * time.Hour),
		}
	}

	t.Run("record rejects non-violations", func(t *testing.T) {
		_, _, svc, _ := setup(t)

		_, err := svc.Record(ctx, "entry", geofence.ValidationResult{Status: geofence.StatusInside})
		assert.ErrorIs(t, err, geofence.ErrNotAViolation)
	})

	t.Run("statistics over one inside and one outside entry", func(t *testing.T) {
		_, entries, svc, _ := setup(t)

		_, err := entries.Create(ctx, located("in", day, geofence.StatusInside))
		require.NoError(t, err)
		_, err = entries.Create(ctx, located("out", day.AddDate(0, 0, 1), geofence.StatusOutside))
		require.NoError(t, err)
		_, err = svc.Record(ctx, "out", outsideResult())
		require.NoError(t, err)

		stats, err := svc.Statistics(ctx, geofence.StatisticsFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.TotalChecks)
		assert.Equal(t, int64(1), stats.InsideCount)
		assert.Equal(t, int64(1), stats.OutsideCount)
		assert.Equal(t, int64(0), stats.NoZoneCount)
		assert.Equal(t, int64(1), stats.ViolationCount)
		assert.Equal(t, int64(1), stats.OpenViolations)
		assert.Equal(t, 50.0, stats.ViolationRate)
		assert.Equal(t, 50.0, stats.ComplianceRate)
	})

	t.Run("statistics with no data", func(t *testing.T) {
		_, _, svc, _ := setup(t)

		stats, err := svc.Statistics(ctx, geofence.StatisticsFilter{})
		require.NoError(t, err)
		assert.Equal(t, 0.0, stats.ViolationRate)
		assert.Equal(t, 0.0, stats.ComplianceRate)
		assert.NotNil(t, stats.ByZone)
	})

	t.Run("acknowledge once", func(t *testing.T) {
		_, entries, svc, audit := setup(t)

		_, err := entries.Create(ctx, located("out", day, geofence.StatusOutside))
		require.NoError(t, err)
		recorded, err := svc.Record(ctx, "out", outsideResult())
		require.NoError(t, err)

		acked, err := svc.Acknowledge(ctx, recorded.ID)
		require.NoError(t, err)
		assert.Equal(t, string(geofence.ViolationAcknowledged), acked.Status)
		require.NotNil(t, acked.AcknowledgedBy)
		assert.Equal(t, managerID, *acked.AcknowledgedBy)
		assert.Equal(t, []string{"violation.acknowledged"}, audit.actions)

		_, err = svc.Acknowledge(ctx, recorded.ID)
		assert.ErrorIs(t, err, geofence.ErrViolationAlreadyAcknowledged)

		_, err = svc.Acknowledge(ctx, "missing")
		assert.ErrorIs(t, err, geofence.ErrViolationNotFound)
		_, err = svc.Acknowledge(ctx, "0195f3a1-8c2e-7d4b-9a61-3e5f7b9d1c24")
		assert.ErrorIs(t, err, geofence.ErrViolationNotFound)
	})

	t.Run("recent violations newest first", func(t *testing.T) {
		_, entries, svc, _ := setup(t)

		for i, id := range []string{"a", "b", "c"} {
			_, err := entries.Create(ctx, located(id, day.AddDate(0, 0, i), geofence.StatusOutside))
			require.NoError(t, err)
			result := outsideResult()
			result.Timestamp = day.Add(time.Duration(i) * time.Hour)
			_, err = svc.Record(ctx, id, result)
			require.NoError(t, err)
		}

		recent, err := svc.RecentViolations(ctx, geofence.RecentViolationsFilter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "c", recent[0].TimesheetEntryID)
		assert.Equal(t, "b", recent[1].TimesheetEntryID)
		assert.Equal(t, "emp-1", recent[0].EmployeeID)
	})

	t.Run("purge only removes old acknowledged violations", func(t *testing.T) {
		_, entries, svc, _ := setup(t)

		_, err := entries.Create(ctx, located("a", day, geofence.StatusOutside))
		require.NoError(t, err)
		_, err = entries.Create(ctx, located("b", day.AddDate(0, 0, 1), geofence.StatusOutside))
		require.NoError(t, err)

		acked, err := svc.Record(ctx, "a", outsideResult())
		require.NoError(t, err)
		_, err = svc.Record(ctx, "b", outsideResult())
		require.NoError(t, err)
		_, err = svc.Acknowledge(ctx, acked.ID)
		require.NoError(t, err)

		deleted, err := svc.PurgeAcknowledged(ctx, day.AddDate(0, 0, 30))
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		stats, err := svc.Statistics(ctx, geofence.StatisticsFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.ViolationCount)
		assert.Equal(t, int64(1), stats.OpenViolations)
	})
}

func TestCoverageService(t *testing.T) {
	ctx := managerContext(t)
	store := memory.NewStore()
	entries := memory.NewTimesheetEntryRepository(store)
	zones := memory.NewGeofenceZoneRepository(store)
	svc := geofenceService.NewCoverageService(memory.NewCoverageRepository(store))
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	zone, err := zones.Create(ctx, geofence.Zone{ID: "zone-1", Name: "Site", Shape: geo.NewCircle(site, 200), Purpose: geofence.PurposeProjectSite, IsActive: true})
	require.NoError(t, err)

	add := func(id string, offset int, hours, overtime int64, status *geofence.ValidationStatus, located bool) {
		e := timesheet.Entry{
			ID:             id,
			EmployeeID:     "emp-1",
			Date:           day.AddDate(0, 0, offset),
			HoursWorked:    decimal.NewFromInt(hours),
			Status:         timesheet.StatusDraft,
			GeofenceStatus: status,
		}
		if overtime > 0 {
			e.OvertimeHours = ptr(decimal.NewFromInt(overtime))
		}
		if located {
			e.StartLatitude, e.StartLongitude = ptr(site.Latitude), ptr(site.Longitude)
			e.GeofenceZoneID = &zone.ID
		}
		_, err := entries.Create(ctx, e)
		require.NoError(t, err)
	}

	add("in-1", 0, 8, 2, ptr(geofence.StatusInside), true)
	add("in-2", 1, 8, 0, ptr(geofence.StatusInside), true)
	add("out-1", 2, 6, 0, ptr(geofence.StatusOutside), true)
	add("unchecked", 3, 8, 0, nil, true)
	add("no-location", 4, 8, 0, nil, false)

	resp, err := svc.WorkAreaCoverage(ctx, geofence.CoverageFilter{})
	require.NoError(t, err)

	assert.Equal(t, int64(4), resp.TotalEntries)
	assert.Equal(t, int64(2), resp.InsideCount)
	assert.Equal(t, int64(1), resp.OutsideCount)
	assert.Equal(t, int64(1), resp.UncheckedCount)
	assert.Equal(t, 66.67, resp.CoverageRate)
	assert.True(t, decimal.NewFromInt(18).Equal(resp.InsideHours), resp.InsideHours.String())
	assert.True(t, decimal.NewFromInt(6).Equal(resp.OutsideHours), resp.OutsideHours.String())
	assert.Equal(t, 75.0, resp.TimeCoverageRate)

	require.Len(t, resp.PerZoneBreakdown, 1)
	assert.Equal(t, int64(2), resp.PerZoneBreakdown[0].EntryCount)

	_, err = svc.WorkAreaCoverage(ctx, geofence.CoverageFilter{DateFrom: ptr("2024-03-10"), DateTo: ptr("2024-03-01")})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}
