package timesheet

import (
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/geo"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// IsEditable reports whether entries in this status may still be changed.
func (s Status) IsEditable() bool {
	return s == StatusDraft || s == StatusRejected
}

type Entry struct {
	ID             string
	EmployeeID     string
	ProjectID      *string
	Date           time.Time
	HoursWorked    decimal.Decimal
	OvertimeHours  *decimal.Decimal
	StartTime      *time.Time
	EndTime        *time.Time
	StartLatitude  *float64
	StartLongitude *float64
	Description    *string
	Status         Status

	// Latest geofence verdict for the entry's coordinates. Nil status means unchecked.
	GeofenceStatus    *geofence.ValidationStatus
	GeofenceZoneID    *string
	GeofenceCheckedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Coordinate returns the logged start location, if any.
func (e Entry) Coordinate() (geo.Point, bool) {
	if e.StartLatitude == nil || e.StartLongitude == nil {
		return geo.Point{}, false
	}
	return geo.Point{Latitude: *e.StartLatitude, Longitude: *e.StartLongitude}, true
}

func (e Entry) Overtime() decimal.Decimal {
	if e.OvertimeHours == nil {
		return decimal.Zero
	}
	return *e.OvertimeHours
}

// CheckTime is the instant used for zone time restrictions.
func (e Entry) CheckTime() time.Time {
	if e.StartTime != nil {
		return *e.StartTime
	}
	return time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), 12, 0, 0, 0, time.UTC)
}

// SameLocation reports whether two revisions carry the same coordinates.
func (e Entry) SameLocation(other Entry) bool {
	a, okA := e.Coordinate()
	b, okB := other.Coordinate()
	if okA != okB {
		return false
	}
	return !okA || a == b
}

func (e *Entry) ApplyGeofenceResult(result *geofence.ValidationResult) {
	if result == nil {
		e.GeofenceStatus = nil
		e.GeofenceZoneID = nil
		e.GeofenceCheckedAt = nil
		return
	}
	status := result.Status
	checkedAt := result.Timestamp
	e.GeofenceStatus = &status
	e.GeofenceZoneID = result.ZoneID()
	e.GeofenceCheckedAt = &checkedAt
}
