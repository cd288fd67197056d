package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/nats-io/nats.go"
)

// Publisher is the part of *nats.Conn the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier publishes violations to <prefix>.<project id> or <prefix>.global.
type NATSNotifier struct {
	conn   Publisher
	prefix string
}

func NewNATSNotifier(conn Publisher, subjectPrefix string) *NATSNotifier {
	return &NATSNotifier{conn: conn, prefix: subjectPrefix}
}

// Connect dials the NATS server with reconnects enabled.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("hris-timesheet"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return conn, nil
}

func (n *NATSNotifier) Subject(violation geofence.Violation) string {
	if violation.ProjectID != nil {
		return n.prefix + "." + *violation.ProjectID
	}
	return n.prefix + ".global"
}

// ViolationRecorded publishes the violation. Failures are logged; the
// violation is already committed.
func (n *NATSNotifier) ViolationRecorded(ctx context.Context, violation geofence.Violation) {
	data, err := json.Marshal(geofence.ToViolationResponse(violation))
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode violation event", "violation_id", violation.ID, "error", err)
		return
	}

	subject := n.Subject(violation)
	if err := n.conn.Publish(subject, data); err != nil {
		slog.ErrorContext(ctx, "failed to publish violation event",
			"violation_id", violation.ID,
			"subject", subject,
			"error", err,
		)
	}
}
