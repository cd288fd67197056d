package geofence

import (
	"context"
	"time"
)

// ZoneService manages zone definitions.
type ZoneService interface {
	ListZones(ctx context.Context, filter ZoneFilter) (ListZoneResponse, error)
	GetZone(ctx context.Context, id string) (ZoneResponse, error)
	CreateZone(ctx context.Context, req CreateZoneRequest) (ZoneResponse, error)
	UpdateZone(ctx context.Context, req UpdateZoneRequest) (ZoneResponse, error)
	DeleteZone(ctx context.Context, id string) error
	ToggleZoneActive(ctx context.Context, id string) (ZoneResponse, error)
}

// LocationValidator classifies coordinates against the zones of a project.
type LocationValidator interface {
	// ValidateLocation is the read-only check exposed to callers. It never records violations.
	ValidateLocation(ctx context.Context, req ValidateLocationRequest) (ValidationResult, error)

	// Validate classifies a single check. Errors are infrastructure failures only.
	Validate(ctx context.Context, check Check) (ValidationResult, error)
}

type ViolationService interface {
	// Record appends a violation for an outside result.
	Record(ctx context.Context, entryID string, result ValidationResult) (Violation, error)
	RecentViolations(ctx context.Context, filter RecentViolationsFilter) ([]ViolationResponse, error)
	Statistics(ctx context.Context, filter StatisticsFilter) (StatisticsResponse, error)
	Acknowledge(ctx context.Context, id string) (ViolationResponse, error)
	PurgeAcknowledged(ctx context.Context, before time.Time) (int64, error)
}

type CoverageService interface {
	WorkAreaCoverage(ctx context.Context, filter CoverageFilter) (CoverageResponse, error)
}

// ViolationNotifier is told about violations once the recording transaction has committed.
type ViolationNotifier interface {
	ViolationRecorded(ctx context.Context, violation Violation)
}

// AuditLogger records structural changes with the acting user.
type AuditLogger interface {
	ZoneChanged(ctx context.Context, action string, zone Zone, actorID string)
	ViolationAcknowledged(ctx context.Context, violation Violation, actorID string)
}
