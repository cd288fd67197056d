package geofence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/validator"
	"github.com/google/uuid"
)

type violationServiceImpl struct {
	geofence.ViolationRepository
	audit geofence.AuditLogger
	now   func() time.Time
}

func NewViolationService(violationRepo geofence.ViolationRepository, audit geofence.AuditLogger) geofence.ViolationService {
	return &violationServiceImpl{
		ViolationRepository: violationRepo,
		audit:               audit,
		now:                 func() time.Time { return time.Now().UTC() },
	}
}

// Record implements geofence.ViolationService.
func (s *violationServiceImpl) Record(ctx context.Context, entryID string, result geofence.ValidationResult) (geofence.Violation, error) {
	if !result.IsViolation() {
		return geofence.Violation{}, geofence.ErrNotAViolation
	}

	id, err := uuid.NewV7()
	if err != nil {
		return geofence.Violation{}, fmt.Errorf("failed to generate violation id: %w", err)
	}

	reason := geofence.ReasonOutsideZone
	if result.Reason != nil {
		reason = *result.Reason
	}

	violation, err := s.ViolationRepository.Create(ctx, geofence.Violation{
		ID:               id.String(),
		TimesheetEntryID: entryID,
		ZoneID:           result.ZoneID(),
		Coordinate:       result.Coordinate,
		DistanceMeters:   result.DistanceMeters,
		Reason:           reason,
		Status:           geofence.ViolationOpen,
		OccurredAt:       result.Timestamp,
	})
	if err != nil {
		return geofence.Violation{}, fmt.Errorf("failed to record geofence violation: %w", err)
	}
	return violation, nil
}

// RecentViolations implements geofence.ViolationService.
func (s *violationServiceImpl) RecentViolations(ctx context.Context, filter geofence.RecentViolationsFilter) ([]geofence.ViolationResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	violations, err := s.ViolationRepository.ListRecent(ctx, filter.Limit, filter.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list geofence violations: %w", err)
	}

	responses := make([]geofence.ViolationResponse, 0, len(violations))
	for _, v := range violations {
		responses = append(responses, geofence.ToViolationResponse(v))
	}
	return responses, nil
}

// Statistics implements geofence.ViolationService. Rates are taken over entries
// that went through validation; unchecked entries are excluded.
func (s *violationServiceImpl) Statistics(ctx context.Context, filter geofence.StatisticsFilter) (geofence.StatisticsResponse, error) {
	if err := filter.Validate(); err != nil {
		return geofence.StatisticsResponse{}, err
	}

	checks, err := s.ViolationRepository.CountChecks(ctx, filter)
	if err != nil {
		return geofence.StatisticsResponse{}, fmt.Errorf("failed to count geofence checks: %w", err)
	}
	violations, err := s.ViolationRepository.CountViolations(ctx, filter)
	if err != nil {
		return geofence.StatisticsResponse{}, fmt.Errorf("failed to count geofence violations: %w", err)
	}
	byZone, err := s.ViolationRepository.CountByZone(ctx, filter)
	if err != nil {
		return geofence.StatisticsResponse{}, fmt.Errorf("failed to count violations by zone: %w", err)
	}
	if byZone == nil {
		byZone = []geofence.ZoneViolationCount{}
	}

	total := checks.Checked()
	return geofence.StatisticsResponse{
		TotalChecks:    total,
		InsideCount:    checks.Inside,
		OutsideCount:   checks.Outside,
		NoZoneCount:    checks.NoZone,
		ViolationCount: violations.Total,
		OpenViolations: violations.Open,
		ViolationRate:  percentage(checks.Outside, total),
		ComplianceRate: percentage(checks.Inside, total),
		ByZone:         byZone,
	}, nil
}

// Acknowledge implements geofence.ViolationService.
func (s *violationServiceImpl) Acknowledge(ctx context.Context, id string) (geofence.ViolationResponse, error) {
	if !validator.IsValidID(id) {
		return geofence.ViolationResponse{}, geofence.ErrViolationNotFound
	}

	actorID, err := jwt.UserIDFromContext(ctx)
	if err != nil {
		return geofence.ViolationResponse{}, err
	}

	violation, err := s.ViolationRepository.Acknowledge(ctx, id, actorID, s.now())
	if err != nil {
		if errors.Is(err, geofence.ErrViolationNotFound) || errors.Is(err, geofence.ErrViolationAlreadyAcknowledged) {
			return geofence.ViolationResponse{}, err
		}
		return geofence.ViolationResponse{}, fmt.Errorf("failed to acknowledge geofence violation: %w", err)
	}

	if s.audit != nil {
		s.audit.ViolationAcknowledged(ctx, violation, actorID)
	}
	return geofence.ToViolationResponse(violation), nil
}

// PurgeAcknowledged implements geofence.ViolationService. Open violations are never purged.
func (s *violationServiceImpl) PurgeAcknowledged(ctx context.Context, before time.Time) (int64, error) {
	deleted, err := s.ViolationRepository.DeleteAcknowledgedBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge acknowledged violations: %w", err)
	}
	return deleted, nil
}
