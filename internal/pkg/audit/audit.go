// Package audit records structural changes as structured log lines tagged audit=true.
package audit

import (
	"context"
	"log/slog"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
)

type Logger struct {
	log *slog.Logger
}

// New returns an audit logger writing through log. A nil log uses slog.Default().
func New(log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{log: log.With("audit", true)}
}

func (l *Logger) ZoneChanged(ctx context.Context, action string, zone geofence.Zone, actorID string) {
	l.log.InfoContext(ctx, "geofence zone "+action,
		"action", "zone."+action,
		"zone_id", zone.ID,
		"zone_name", zone.Name,
		"actor_id", actorID,
	)
}

func (l *Logger) ViolationAcknowledged(ctx context.Context, violation geofence.Violation, actorID string) {
	l.log.InfoContext(ctx, "geofence violation acknowledged",
		"action", "violation.acknowledge",
		"violation_id", violation.ID,
		"entry_id", violation.TimesheetEntryID,
		"actor_id", actorID,
	)
}
