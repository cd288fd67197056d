package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
)

type geofenceZoneRepository struct {
	s *Store
}

func NewGeofenceZoneRepository(s *Store) geofence.ZoneRepository {
	return &geofenceZoneRepository{s: s}
}

func (r *geofenceZoneRepository) nameTakenLocked(name, excludeID string) bool {
	for id, z := range r.s.zones {
		if id != excludeID && z.Name == name {
			return true
		}
	}
	return false
}

// Create implements geofence.ZoneRepository.
func (r *geofenceZoneRepository) Create(ctx context.Context, zone geofence.Zone) (geofence.Zone, error) {
	err := r.s.write(ctx, func() error {
		if r.nameTakenLocked(zone.Name, "") {
			return geofence.ErrZoneNameExists
		}
		now := r.s.now()
		zone.CreatedAt, zone.UpdatedAt = now, now
		r.s.zones[zone.ID] = zone
		return nil
	})
	if err != nil {
		return geofence.Zone{}, err
	}
	return zone, nil
}

// GetByID implements geofence.ZoneRepository.
func (r *geofenceZoneRepository) GetByID(ctx context.Context, id string) (geofence.Zone, error) {
	var (
		zone geofence.Zone
		ok   bool
	)
	r.s.read(func() { zone, ok = r.s.zones[id] })
	if !ok {
		return geofence.Zone{}, geofence.ErrZoneNotFound
	}
	return zone, nil
}

// Update implements geofence.ZoneRepository.
func (r *geofenceZoneRepository) Update(ctx context.Context, zone geofence.Zone) (geofence.Zone, error) {
	err := r.s.write(ctx, func() error {
		current, ok := r.s.zones[zone.ID]
		if !ok {
			return geofence.ErrZoneNotFound
		}
		if r.nameTakenLocked(zone.Name, zone.ID) {
			return geofence.ErrZoneNameExists
		}
		zone.CreatedAt = current.CreatedAt
		zone.UpdatedAt = r.s.now()
		r.s.zones[zone.ID] = zone
		return nil
	})
	if err != nil {
		return geofence.Zone{}, err
	}
	return zone, nil
}

// Delete implements geofence.ZoneRepository. References from entries and
// violations are cleared the way the foreign keys do it.
func (r *geofenceZoneRepository) Delete(ctx context.Context, id string) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.zones[id]; !ok {
			return geofence.ErrZoneNotFound
		}
		delete(r.s.zones, id)

		for entryID, e := range r.s.entries {
			if e.GeofenceZoneID != nil && *e.GeofenceZoneID == id {
				e.GeofenceZoneID = nil
				r.s.entries[entryID] = e
			}
		}
		for violationID, v := range r.s.violations {
			if v.ZoneID != nil && *v.ZoneID == id {
				v.ZoneID = nil
				r.s.violations[violationID] = v
			}
		}
		return nil
	})
}

// ToggleActive implements geofence.ZoneRepository.
func (r *geofenceZoneRepository) ToggleActive(ctx context.Context, id string) (geofence.Zone, error) {
	var zone geofence.Zone
	err := r.s.write(ctx, func() error {
		current, ok := r.s.zones[id]
		if !ok {
			return geofence.ErrZoneNotFound
		}
		current.IsActive = !current.IsActive
		current.UpdatedAt = r.s.now()
		r.s.zones[id] = current
		zone = current
		return nil
	})
	if err != nil {
		return geofence.Zone{}, err
	}
	return zone, nil
}

// List implements geofence.ZoneRepository.
func (r *geofenceZoneRepository) List(ctx context.Context, filter geofence.ZoneFilter) ([]geofence.Zone, int64, error) {
	var matched []geofence.Zone
	r.s.read(func() {
		for _, z := range r.s.zones {
			if zoneMatches(z, filter) {
				matched = append(matched, z)
			}
		}
	})
	sortZones(matched)

	total := int64(len(matched))
	offset := (filter.Page - 1) * filter.Limit
	if offset >= len(matched) {
		return []geofence.Zone{}, total, nil
	}
	end := offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func zoneMatches(z geofence.Zone, f geofence.ZoneFilter) bool {
	if f.ProjectID != nil && *f.ProjectID != "" && (z.ProjectID == nil || *z.ProjectID != *f.ProjectID) {
		return false
	}
	if f.IsActive != nil && z.IsActive != *f.IsActive {
		return false
	}
	if f.ZoneType != nil && *f.ZoneType != "" && string(z.Shape.Kind) != *f.ZoneType {
		return false
	}
	if f.ZonePurpose != nil && *f.ZonePurpose != "" && string(z.Purpose) != *f.ZonePurpose {
		return false
	}
	if f.Search != nil && *f.Search != "" {
		needle := strings.ToLower(*f.Search)
		inName := strings.Contains(strings.ToLower(z.Name), needle)
		inDescription := z.Description != nil && strings.Contains(strings.ToLower(*z.Description), needle)
		if !inName && !inDescription {
			return false
		}
	}
	return true
}

// ListActive implements geofence.ZoneRepository.
func (r *geofenceZoneRepository) ListActive(ctx context.Context, projectID *string) ([]geofence.Zone, error) {
	zones := []geofence.Zone{}
	r.s.read(func() {
		for _, z := range r.s.zones {
			if !z.IsActive {
				continue
			}
			if projectID == nil && z.ProjectID == nil ||
				projectID != nil && z.ProjectID != nil && *z.ProjectID == *projectID {
				zones = append(zones, z)
			}
		}
	})
	sortZones(zones)
	return zones, nil
}

func sortZones(zones []geofence.Zone) {
	sort.Slice(zones, func(i, j int) bool {
		if zones[i].Name != zones[j].Name {
			return zones[i].Name < zones[j].Name
		}
		return zones[i].ID < zones[j].ID
	})
}
