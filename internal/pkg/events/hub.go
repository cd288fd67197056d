package events

import (
	"context"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/sse"
)

// HubNotifier pushes violations to SSE subscribers.
type HubNotifier struct {
	hub *sse.Hub
}

func NewHubNotifier(hub *sse.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) ViolationRecorded(ctx context.Context, violation geofence.Violation) {
	topics := []string{AllViolationsTopic}
	if violation.ProjectID != nil {
		topics = append(topics, ProjectViolationsTopic(*violation.ProjectID))
	}
	n.hub.PublishToMany(topics, sse.Event{
		Event: EventViolation,
		Data:  geofence.ToViolationResponse(violation),
	})
}
