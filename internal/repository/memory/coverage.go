package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/timesheet"
	"github.com/shopspring/decimal"
)

type coverageRepository struct {
	s *Store
}

func NewCoverageRepository(s *Store) geofence.CoverageRepository {
	return &coverageRepository{s: s}
}

func entryHours(e timesheet.Entry) decimal.Decimal {
	return e.HoursWorked.Add(e.Overtime())
}

func (r *coverageRepository) eachLocated(filter geofence.CoverageFilter, fn func(timesheet.Entry)) {
	r.s.read(func() {
		for _, e := range r.s.entries {
			if _, ok := e.Coordinate(); ok && entryInScope(e, filter.ProjectID, nil, filter.DateFrom, filter.DateTo) {
				fn(e)
			}
		}
	})
}

// Totals implements geofence.CoverageRepository.
func (r *coverageRepository) Totals(ctx context.Context, filter geofence.CoverageFilter) (geofence.CoverageTotals, error) {
	t := geofence.CoverageTotals{TotalHours: decimal.Zero, InsideHours: decimal.Zero, OutsideHours: decimal.Zero}
	r.eachLocated(filter, func(e timesheet.Entry) {
		tally(&t.Counts, e)
		hours := entryHours(e)
		t.TotalHours = t.TotalHours.Add(hours)
		if e.GeofenceStatus == nil {
			return
		}
		switch *e.GeofenceStatus {
		case geofence.StatusInside:
			t.InsideHours = t.InsideHours.Add(hours)
		case geofence.StatusOutside:
			t.OutsideHours = t.OutsideHours.Add(hours)
		}
	})
	return t, nil
}

// ZoneUtilization implements geofence.CoverageRepository.
func (r *coverageRepository) ZoneUtilization(ctx context.Context, filter geofence.CoverageFilter) ([]geofence.ZoneUtilization, error) {
	byZone := map[string]*geofence.ZoneUtilization{}
	r.eachLocated(filter, func(e timesheet.Entry) {
		if e.GeofenceZoneID == nil || e.GeofenceStatus == nil {
			return
		}
		zone, ok := r.s.zones[*e.GeofenceZoneID]
		if !ok {
			return
		}
		u, ok := byZone[zone.ID]
		if !ok {
			u = &geofence.ZoneUtilization{ZoneID: zone.ID, ZoneName: zone.Name, Hours: decimal.Zero}
			byZone[zone.ID] = u
		}
		switch *e.GeofenceStatus {
		case geofence.StatusInside:
			u.EntryCount++
			u.Hours = u.Hours.Add(entryHours(e))
		case geofence.StatusOutside:
			u.ViolationCount++
		}
	})

	zones := make([]geofence.ZoneUtilization, 0, len(byZone))
	for _, u := range byZone {
		zones = append(zones, *u)
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].ZoneName < zones[j].ZoneName })
	return zones, nil
}
