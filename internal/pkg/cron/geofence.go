package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
)

type GeofenceJobs struct {
	violationSvc  geofence.ViolationService
	retentionDays int
	interval      time.Duration
	now           func() time.Time
}

// NewGeofenceJobs builds the geofence maintenance jobs. retentionDays of 0 keeps violations forever.
func NewGeofenceJobs(violationSvc geofence.ViolationService, retentionDays int, interval time.Duration) *GeofenceJobs {
	return &GeofenceJobs{
		violationSvc:  violationSvc,
		retentionDays: retentionDays,
		interval:      interval,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (j *GeofenceJobs) RegisterJobs(scheduler *Scheduler) {
	if j.retentionDays <= 0 {
		slog.Info("Cron: geofence violation retention disabled")
		return
	}
	scheduler.AddJob("cleanup_geofence_data", j.interval, j.CleanupGeofenceData)
}

// CleanupGeofenceData purges acknowledged violations older than the retention window.
func (j *GeofenceJobs) CleanupGeofenceData(ctx context.Context) error {
	cutoff := j.now().AddDate(0, 0, -j.retentionDays)

	purged, err := j.violationSvc.PurgeAcknowledged(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge geofence violations: %w", err)
	}

	slog.Info("Cron: Purged acknowledged geofence violations", "count", purged, "cutoff", cutoff.Format(time.RFC3339))
	return nil
}
