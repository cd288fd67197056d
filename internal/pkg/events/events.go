// Package events delivers recorded geofence violations to live consumers.
package events

import (
	"context"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
)

// EventViolation is the SSE event name for a recorded violation.
const EventViolation = "geofence.violation"

// AllViolationsTopic carries every violation. Project topics carry one project each.
const AllViolationsTopic = "violations"

func ProjectViolationsTopic(projectID string) string {
	return "violations:project:" + projectID
}

// Fanout forwards each violation to every notifier in order.
type Fanout []geofence.ViolationNotifier

func (f Fanout) ViolationRecorded(ctx context.Context, violation geofence.Violation) {
	for _, n := range f {
		if n != nil {
			n.ViolationRecorded(ctx, violation)
		}
	}
}
