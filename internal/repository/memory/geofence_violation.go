package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/timesheet"
)

type geofenceViolationRepository struct {
	s *Store
}

func NewGeofenceViolationRepository(s *Store) geofence.ViolationRepository {
	return &geofenceViolationRepository{s: s}
}

// joinLocked fills the entry and zone columns the SQL repository joins in.
func (r *geofenceViolationRepository) joinLocked(v geofence.Violation) (geofence.Violation, timesheet.Entry) {
	entry := r.s.entries[v.TimesheetEntryID]
	v.EmployeeID = entry.EmployeeID
	v.ProjectID = entry.ProjectID
	v.EntryDate = entry.Date
	v.ZoneName = nil
	if v.ZoneID != nil {
		if z, ok := r.s.zones[*v.ZoneID]; ok {
			name := z.Name
			v.ZoneName = &name
		}
	}
	return v, entry
}

// Create implements geofence.ViolationRepository.
func (r *geofenceViolationRepository) Create(ctx context.Context, violation geofence.Violation) (geofence.Violation, error) {
	err := r.s.write(ctx, func() error {
		if _, ok := r.s.entries[violation.TimesheetEntryID]; !ok {
			return timesheet.ErrEntryNotFound
		}
		violation.CreatedAt = r.s.now()
		r.s.violations[violation.ID] = violation
		violation, _ = r.joinLocked(violation)
		return nil
	})
	if err != nil {
		return geofence.Violation{}, err
	}
	return violation, nil
}

// GetByID implements geofence.ViolationRepository.
func (r *geofenceViolationRepository) GetByID(ctx context.Context, id string) (geofence.Violation, error) {
	var (
		v  geofence.Violation
		ok bool
	)
	r.s.read(func() {
		if v, ok = r.s.violations[id]; ok {
			v, _ = r.joinLocked(v)
		}
	})
	if !ok {
		return geofence.Violation{}, geofence.ErrViolationNotFound
	}
	return v, nil
}

// Acknowledge implements geofence.ViolationRepository.
func (r *geofenceViolationRepository) Acknowledge(ctx context.Context, id string, actorID string, at time.Time) (geofence.Violation, error) {
	var v geofence.Violation
	err := r.s.write(ctx, func() error {
		current, ok := r.s.violations[id]
		if !ok {
			return geofence.ErrViolationNotFound
		}
		if current.Status != geofence.ViolationOpen {
			return geofence.ErrViolationAlreadyAcknowledged
		}
		current.Status = geofence.ViolationAcknowledged
		current.AcknowledgedBy = &actorID
		current.AcknowledgedAt = &at
		r.s.violations[id] = current
		v, _ = r.joinLocked(current)
		return nil
	})
	if err != nil {
		return geofence.Violation{}, err
	}
	return v, nil
}

// ListRecent implements geofence.ViolationRepository.
func (r *geofenceViolationRepository) ListRecent(ctx context.Context, limit int, projectID *string) ([]geofence.Violation, error) {
	violations := []geofence.Violation{}
	r.s.read(func() {
		for _, v := range r.s.violations {
			joined, entry := r.joinLocked(v)
			if entryInScope(entry, projectID, nil, nil, nil) {
				violations = append(violations, joined)
			}
		}
	})

	sort.Slice(violations, func(i, j int) bool {
		if !violations[i].OccurredAt.Equal(violations[j].OccurredAt) {
			return violations[i].OccurredAt.After(violations[j].OccurredAt)
		}
		return violations[i].CreatedAt.After(violations[j].CreatedAt)
	})
	if len(violations) > limit {
		violations = violations[:limit]
	}
	return violations, nil
}

// CountChecks implements geofence.ViolationRepository.
func (r *geofenceViolationRepository) CountChecks(ctx context.Context, filter geofence.StatisticsFilter) (geofence.CheckCounts, error) {
	var counts geofence.CheckCounts
	r.s.read(func() {
		for _, e := range r.s.entries {
			if _, ok := e.Coordinate(); !ok || !entryInScope(e, filter.ProjectID, filter.EmployeeID, filter.DateFrom, filter.DateTo) {
				continue
			}
			tally(&counts, e)
		}
	})
	return counts, nil
}

func tally(counts *geofence.CheckCounts, e timesheet.Entry) {
	counts.Total++
	if e.GeofenceStatus == nil {
		counts.Unchecked++
		return
	}
	switch *e.GeofenceStatus {
	case geofence.StatusInside:
		counts.Inside++
	case geofence.StatusOutside:
		counts.Outside++
	case geofence.StatusNoZonesDefined:
		counts.NoZone++
	}
}

// CountViolations implements geofence.ViolationRepository.
func (r *geofenceViolationRepository) CountViolations(ctx context.Context, filter geofence.StatisticsFilter) (geofence.ViolationCounts, error) {
	var counts geofence.ViolationCounts
	r.s.read(func() {
		for _, v := range r.s.violations {
			if !entryInScope(r.s.entries[v.TimesheetEntryID], filter.ProjectID, filter.EmployeeID, filter.DateFrom, filter.DateTo) {
				continue
			}
			counts.Total++
			if v.Status == geofence.ViolationOpen {
				counts.Open++
			}
		}
	})
	return counts, nil
}

// CountByZone implements geofence.ViolationRepository.
func (r *geofenceViolationRepository) CountByZone(ctx context.Context, filter geofence.StatisticsFilter) ([]geofence.ZoneViolationCount, error) {
	byZone := map[string]*geofence.ZoneViolationCount{}
	r.s.read(func() {
		for _, v := range r.s.violations {
			joined, entry := r.joinLocked(v)
			if !entryInScope(entry, filter.ProjectID, filter.EmployeeID, filter.DateFrom, filter.DateTo) {
				continue
			}
			key := ""
			if joined.ZoneID != nil {
				key = *joined.ZoneID
			}
			c, ok := byZone[key]
			if !ok {
				c = &geofence.ZoneViolationCount{ZoneID: joined.ZoneID, ZoneName: joined.ZoneName}
				byZone[key] = c
			}
			c.ViolationCount++
		}
	})

	counts := make([]geofence.ZoneViolationCount, 0, len(byZone))
	for _, c := range byZone {
		counts = append(counts, *c)
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].ViolationCount != counts[j].ViolationCount {
			return counts[i].ViolationCount > counts[j].ViolationCount
		}
		// unnamed zones last
		if (counts[i].ZoneName == nil) != (counts[j].ZoneName == nil) {
			return counts[j].ZoneName == nil
		}
		return counts[i].ZoneName != nil && *counts[i].ZoneName < *counts[j].ZoneName
	})
	return counts, nil
}

// DeleteAcknowledgedBefore implements geofence.ViolationRepository.
func (r *geofenceViolationRepository) DeleteAcknowledgedBefore(ctx context.Context, before time.Time) (int64, error) {
	var purged int64
	err := r.s.write(ctx, func() error {
		for id, v := range r.s.violations {
			if v.Status == geofence.ViolationAcknowledged && v.OccurredAt.Before(before) {
				delete(r.s.violations, id)
				purged++
			}
		}
		return nil
	})
	return purged, err
}
