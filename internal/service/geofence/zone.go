package geofence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/validator"
	"github.com/google/uuid"
)

type zoneServiceImpl struct {
	geofence.ZoneRepository
	cache  geofence.ZoneCache
	audit  geofence.AuditLogger
	limits geofence.ZoneLimits
}

// NewZoneService returns the zone registry. cache and audit may be nil.
func NewZoneService(zoneRepo geofence.ZoneRepository, cache geofence.ZoneCache, audit geofence.AuditLogger, limits geofence.ZoneLimits) geofence.ZoneService {
	return &zoneServiceImpl{
		ZoneRepository: zoneRepo,
		cache:          cache,
		audit:          audit,
		limits:         limits,
	}
}

// ListZones implements geofence.ZoneService.
func (s *zoneServiceImpl) ListZones(ctx context.Context, filter geofence.ZoneFilter) (geofence.ListZoneResponse, error) {
	if err := filter.Validate(); err != nil {
		return geofence.ListZoneResponse{}, err
	}

	zones, total, err := s.ZoneRepository.List(ctx, filter)
	if err != nil {
		return geofence.ListZoneResponse{}, fmt.Errorf("failed to list geofence zones: %w", err)
	}

	responses := make([]geofence.ZoneResponse, 0, len(zones))
	for _, z := range zones {
		responses = append(responses, toZoneResponse(z))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	first := (filter.Page-1)*filter.Limit + 1
	showing := fmt.Sprintf("%d-%d of %d", first, min(filter.Page*filter.Limit, int(total)), total)
	if first > int(total) {
		showing = fmt.Sprintf("0 of %d", total)
	}

	return geofence.ListZoneResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Zones:      responses,
	}, nil
}

// GetZone implements geofence.ZoneService.
func (s *zoneServiceImpl) GetZone(ctx context.Context, id string) (geofence.ZoneResponse, error) {
	if !validator.IsValidID(id) {
		return geofence.ZoneResponse{}, geofence.ErrZoneNotFound
	}

	zone, err := s.ZoneRepository.GetByID(ctx, id)
	if err != nil {
		return geofence.ZoneResponse{}, err
	}
	return toZoneResponse(zone), nil
}

// CreateZone implements geofence.ZoneService.
func (s *zoneServiceImpl) CreateZone(ctx context.Context, req geofence.CreateZoneRequest) (geofence.ZoneResponse, error) {
	if err := req.Validate(s.limits); err != nil {
		return geofence.ZoneResponse{}, err
	}

	actorID, err := jwt.UserIDFromContext(ctx)
	if err != nil {
		return geofence.ZoneResponse{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return geofence.ZoneResponse{}, fmt.Errorf("failed to generate zone id: %w", err)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	created, err := s.ZoneRepository.Create(ctx, geofence.Zone{
		ID:              id.String(),
		Name:            req.Name,
		Description:     req.Description,
		ProjectID:       req.ProjectID,
		Shape:           req.Shape(),
		Purpose:         geofence.ZonePurpose(req.ZonePurpose),
		TimeRestriction: req.TimeRestriction,
		IsActive:        isActive,
	})
	if err != nil {
		if errors.Is(err, geofence.ErrZoneNameExists) {
			return geofence.ZoneResponse{}, err
		}
		return geofence.ZoneResponse{}, fmt.Errorf("failed to create geofence zone: %w", err)
	}

	s.changed(ctx, "created", created, actorID)
	return toZoneResponse(created), nil
}

// UpdateZone implements geofence.ZoneService.
func (s *zoneServiceImpl) UpdateZone(ctx context.Context, req geofence.UpdateZoneRequest) (geofence.ZoneResponse, error) {
	if !validator.IsValidID(req.ID) {
		return geofence.ZoneResponse{}, geofence.ErrZoneNotFound
	}
	if err := req.Validate(s.limits); err != nil {
		return geofence.ZoneResponse{}, err
	}

	actorID, err := jwt.UserIDFromContext(ctx)
	if err != nil {
		return geofence.ZoneResponse{}, err
	}

	existing, err := s.ZoneRepository.GetByID(ctx, req.ID)
	if err != nil {
		return geofence.ZoneResponse{}, err
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.ProjectID = req.ProjectID
	existing.Shape = req.Shape()
	existing.Purpose = geofence.ZonePurpose(req.ZonePurpose)
	existing.TimeRestriction = req.TimeRestriction
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	updated, err := s.ZoneRepository.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, geofence.ErrZoneNotFound) || errors.Is(err, geofence.ErrZoneNameExists) {
			return geofence.ZoneResponse{}, err
		}
		return geofence.ZoneResponse{}, fmt.Errorf("failed to update geofence zone: %w", err)
	}

	s.changed(ctx, "updated", updated, actorID)
	return toZoneResponse(updated), nil
}

// DeleteZone implements geofence.ZoneService. Violations keep their facts; the
// zone reference is cleared.
func (s *zoneServiceImpl) DeleteZone(ctx context.Context, id string) error {
	if !validator.IsValidID(id) {
		return geofence.ErrZoneNotFound
	}

	actorID, err := jwt.UserIDFromContext(ctx)
	if err != nil {
		return err
	}

	zone, err := s.ZoneRepository.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.ZoneRepository.Delete(ctx, id); err != nil {
		if errors.Is(err, geofence.ErrZoneNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete geofence zone: %w", err)
	}

	s.changed(ctx, "deleted", zone, actorID)
	return nil
}

// ToggleZoneActive implements geofence.ZoneService.
func (s *zoneServiceImpl) ToggleZoneActive(ctx context.Context, id string) (geofence.ZoneResponse, error) {
	if !validator.IsValidID(id) {
		return geofence.ZoneResponse{}, geofence.ErrZoneNotFound
	}

	actorID, err := jwt.UserIDFromContext(ctx)
	if err != nil {
		return geofence.ZoneResponse{}, err
	}

	zone, err := s.ZoneRepository.ToggleActive(ctx, id)
	if err != nil {
		if errors.Is(err, geofence.ErrZoneNotFound) {
			return geofence.ZoneResponse{}, err
		}
		return geofence.ZoneResponse{}, fmt.Errorf("failed to toggle geofence zone: %w", err)
	}

	action := "deactivated"
	if zone.IsActive {
		action = "activated"
	}
	s.changed(ctx, action, zone, actorID)
	return toZoneResponse(zone), nil
}

// changed runs after a zone write: cached zone sets are dropped and the change is audited.
// A failed version bump is retried once; after that, stale sets live until the cache TTL.
func (s *zoneServiceImpl) changed(ctx context.Context, action string, zone geofence.Zone, actorID string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			slog.WarnContext(ctx, "zone cache invalidation failed, retrying", "zone_id", zone.ID, "error", err)
			if err := s.cache.Invalidate(ctx); err != nil {
				slog.ErrorContext(ctx, "failed to invalidate zone cache", "zone_id", zone.ID, "error", err)
			}
		}
	}
	if s.audit != nil {
		s.audit.ZoneChanged(ctx, action, zone, actorID)
	}
}

func toZoneResponse(z geofence.Zone) geofence.ZoneResponse {
	resp := geofence.ZoneResponse{
		ID:              z.ID,
		Name:            z.Name,
		Description:     z.Description,
		ProjectID:       z.ProjectID,
		ZoneType:        string(z.Shape.Kind),
		ZonePurpose:     string(z.Purpose),
		TimeRestriction: z.TimeRestriction,
		IsActive:        z.IsActive,
		CreatedAt:       z.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       z.UpdatedAt.UTC().Format(time.RFC3339),
	}
	switch z.Shape.Kind {
	case geo.KindCircle:
		center := z.Shape.Circle.Center
		radius := z.Shape.Circle.RadiusMeters
		resp.CenterLatitude = &center.Latitude
		resp.CenterLongitude = &center.Longitude
		resp.RadiusMeters = &radius
	case geo.KindPolygon:
		resp.Vertices = z.Shape.Polygon.Vertices
	}
	return resp
}
