package geofence

import (
	"context"
	"time"
)

// ZoneRepository defines data access for geofence zone definitions.
type ZoneRepository interface {
	Create(ctx context.Context, zone Zone) (Zone, error)
	GetByID(ctx context.Context, id string) (Zone, error)
	Update(ctx context.Context, zone Zone) (Zone, error)
	Delete(ctx context.Context, id string) error
	ToggleActive(ctx context.Context, id string) (Zone, error)
	List(ctx context.Context, filter ZoneFilter) ([]Zone, int64, error)

	// ListActive returns active zones ordered by name. A nil projectID selects global zones.
	ListActive(ctx context.Context, projectID *string) ([]Zone, error)
}

// ZoneCache stores ListActive results between calls.
type ZoneCache interface {
	// GetOrLoad returns the cached set for projectID, calling load on a miss. A
	// set loaded before an Invalidate is never served after it.
	GetOrLoad(ctx context.Context, projectID *string, load func(ctx context.Context) ([]Zone, error)) ([]Zone, error)

	// Invalidate makes every previously cached set unreachable.
	Invalidate(ctx context.Context) error
}

// ViolationRepository is append-only apart from acknowledgment and retention purge.
type ViolationRepository interface {
	Create(ctx context.Context, violation Violation) (Violation, error)
	GetByID(ctx context.Context, id string) (Violation, error)

	// Acknowledge moves an open violation to acknowledged. Returns ErrViolationAlreadyAcknowledged otherwise.
	Acknowledge(ctx context.Context, id string, actorID string, at time.Time) (Violation, error)

	// ListRecent returns violations newest first, joined with their entry.
	ListRecent(ctx context.Context, limit int, projectID *string) ([]Violation, error)

	CountChecks(ctx context.Context, filter StatisticsFilter) (CheckCounts, error)
	CountViolations(ctx context.Context, filter StatisticsFilter) (ViolationCounts, error)
	CountByZone(ctx context.Context, filter StatisticsFilter) ([]ZoneViolationCount, error)

	DeleteAcknowledgedBefore(ctx context.Context, before time.Time) (int64, error)
}

// CoverageRepository aggregates timesheet entries with coordinates against their stored geofence status.
type CoverageRepository interface {
	Totals(ctx context.Context, filter CoverageFilter) (CoverageTotals, error)
	ZoneUtilization(ctx context.Context, filter CoverageFilter) ([]ZoneUtilization, error)
}
