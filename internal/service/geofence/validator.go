package geofence

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/validator"
)

type locationValidatorImpl struct {
	zoneRepo geofence.ZoneRepository
	cache    geofence.ZoneCache
	now      func() time.Time
}

// NewLocationValidator returns the geofence validator. cache may be nil, in
// which case zones are read from zoneRepo on every call.
func NewLocationValidator(zoneRepo geofence.ZoneRepository, cache geofence.ZoneCache) geofence.LocationValidator {
	return &locationValidatorImpl{
		zoneRepo: zoneRepo,
		cache:    cache,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ValidateLocation implements geofence.LocationValidator.
func (v *locationValidatorImpl) ValidateLocation(ctx context.Context, req geofence.ValidateLocationRequest) (geofence.ValidationResult, error) {
	if err := req.Validate(); err != nil {
		return geofence.ValidationResult{}, err
	}

	at := v.now()
	if req.Timestamp != nil {
		at, _ = validator.IsValidDateTime(*req.Timestamp)
	}

	return v.Validate(ctx, geofence.Check{
		Coordinate: geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude},
		ProjectID:  req.ProjectID,
		EmployeeID: req.EmployeeID,
		At:         at,
	})
}

// Validate implements geofence.LocationValidator.
func (v *locationValidatorImpl) Validate(ctx context.Context, check geofence.Check) (geofence.ValidationResult, error) {
	zones, err := v.activeZones(ctx, check.ProjectID)
	if err != nil {
		return geofence.ValidationResult{}, fmt.Errorf("failed to load geofence zones: %w", err)
	}

	applicable := make([]geofence.Zone, 0, len(zones))
	for _, z := range zones {
		if z.AppliesAt(check.At) {
			applicable = append(applicable, z)
		}
	}

	return classify(check, applicable, v.now()), nil
}

// activeZones returns the project's active zones, or the global ones when the
// project has none.
func (v *locationValidatorImpl) activeZones(ctx context.Context, projectID *string) ([]geofence.Zone, error) {
	if projectID != nil {
		zones, err := v.load(ctx, projectID)
		if err != nil || len(zones) > 0 {
			return zones, err
		}
	}
	return v.load(ctx, nil)
}

func (v *locationValidatorImpl) load(ctx context.Context, projectID *string) ([]geofence.Zone, error) {
	if v.cache == nil {
		return v.zoneRepo.ListActive(ctx, projectID)
	}
	return v.cache.GetOrLoad(ctx, projectID, func(ctx context.Context) ([]geofence.Zone, error) {
		return v.zoneRepo.ListActive(ctx, projectID)
	})
}

// classify evaluates restricted zones first; a hit there is a violation even
// when the point is also inside an authorized zone.
func classify(check geofence.Check, zones []geofence.Zone, now time.Time) geofence.ValidationResult {
	result := geofence.ValidationResult{
		Coordinate:     check.Coordinate,
		ProjectID:      check.ProjectID,
		EmployeeID:     check.EmployeeID,
		Timestamp:      now,
		ZonesEvaluated: len(zones),
	}

	var authorized []geofence.Zone
	for _, z := range zones {
		if !z.IsRestricted() {
			authorized = append(authorized, z)
			continue
		}
		if geo.Contains(z.Shape, check.Coordinate) {
			reason := geofence.ReasonRestrictedZone
			distance := 0.0
			result.Status = geofence.StatusOutside
			result.Reason = &reason
			result.NearestZone = z.Ref()
			result.DistanceMeters = &distance
			return result
		}
	}

	if len(authorized) == 0 {
		result.Status = geofence.StatusNoZonesDefined
		return result
	}

	for _, z := range authorized {
		if geo.Contains(z.Shape, check.Coordinate) {
			result.Status = geofence.StatusInside
			result.MatchedZone = z.Ref()
			return result
		}
	}

	nearest := authorized[0]
	best := geo.DistanceToBoundary(nearest.Shape, check.Coordinate)
	for _, z := range authorized[1:] {
		if d := geo.DistanceToBoundary(z.Shape, check.Coordinate); d < best {
			nearest, best = z, d
		}
	}

	reason := geofence.ReasonOutsideZone
	distance := round2(best)
	result.Status = geofence.StatusOutside
	result.Reason = &reason
	result.NearestZone = nearest.Ref()
	result.DistanceMeters = &distance
	return result
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
