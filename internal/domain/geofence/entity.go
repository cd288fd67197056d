package geofence

import (
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/geo"
	"github.com/shopspring/decimal"
)

type ZonePurpose string

const (
	PurposeProjectSite ZonePurpose = "project_site"
	PurposeOffice      ZonePurpose = "office"
	PurposeWarehouse   ZonePurpose = "warehouse"
	PurposeRestricted  ZonePurpose = "restricted" // exclusion zone
	PurposeCustom      ZonePurpose = "custom"
)

var validPurposes = []string{
	string(PurposeProjectSite),
	string(PurposeOffice),
	string(PurposeWarehouse),
	string(PurposeRestricted),
	string(PurposeCustom),
}

type ValidationStatus string

const (
	StatusInside         ValidationStatus = "inside"
	StatusOutside        ValidationStatus = "outside"
	StatusNoZonesDefined ValidationStatus = "no_zones_defined"
)

type ViolationReason string

const (
	ReasonOutsideZone    ViolationReason = "outside_zone"
	ReasonRestrictedZone ViolationReason = "restricted_zone"
)

type ViolationStatus string

const (
	ViolationOpen         ViolationStatus = "open"
	ViolationAcknowledged ViolationStatus = "acknowledged"
)

// TimeRestriction limits when a zone is enforced. Times are "HH:MM" and days use 0 for Sunday.
type TimeRestriction struct {
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	DaysOfWeek []int  `json:"days_of_week,omitempty"`
}

// Allows reports whether t falls inside the restriction window. Windows where
// end is before start wrap past midnight.
func (r TimeRestriction) Allows(t time.Time) bool {
	if len(r.DaysOfWeek) > 0 {
		day := int(t.Weekday())
		found := false
		for _, d := range r.DaysOfWeek {
			if d == day {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	start, okStart := clockMinutes(r.StartTime)
	end, okEnd := clockMinutes(r.EndTime)
	if !okStart || !okEnd {
		return true
	}

	now := t.Hour()*60 + t.Minute()
	if start <= end {
		return now >= start && now <= end
	}
	return now >= start || now <= end
}

func clockMinutes(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

type Zone struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Description     *string          `json:"description,omitempty"`
	ProjectID       *string          `json:"project_id,omitempty"`
	Shape           geo.Shape        `json:"shape"`
	Purpose         ZonePurpose      `json:"purpose"`
	TimeRestriction *TimeRestriction `json:"time_restriction,omitempty"`
	IsActive        bool             `json:"is_active"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func (z Zone) IsRestricted() bool {
	return z.Purpose == PurposeRestricted
}

func (z Zone) IsGlobal() bool {
	return z.ProjectID == nil
}

// AppliesAt reports whether the zone is enforced at t.
func (z Zone) AppliesAt(t time.Time) bool {
	if !z.IsActive {
		return false
	}
	if z.TimeRestriction == nil {
		return true
	}
	return z.TimeRestriction.Allows(t)
}

func (z Zone) Ref() *ZoneRef {
	return &ZoneRef{ID: z.ID, Name: z.Name}
}

type ZoneRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Check is one coordinate to classify against the zone set of a project.
type Check struct {
	Coordinate geo.Point
	ProjectID  *string
	EmployeeID *string
	At         time.Time
}

// ValidationResult is the verdict for a single Check. It is not persisted directly.
type ValidationResult struct {
	Status         ValidationStatus `json:"status"`
	Reason         *ViolationReason `json:"reason,omitempty"`
	MatchedZone    *ZoneRef         `json:"matched_zone,omitempty"`
	NearestZone    *ZoneRef         `json:"nearest_zone,omitempty"`
	DistanceMeters *float64         `json:"distance_meters,omitempty"`
	Coordinate     geo.Point        `json:"coordinate"`
	ProjectID      *string          `json:"project_id,omitempty"`
	EmployeeID     *string          `json:"employee_id,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
	ZonesEvaluated int              `json:"zones_evaluated"`
}

func (r ValidationResult) IsViolation() bool {
	return r.Status == StatusOutside
}

// ZoneID is the zone an entry is attributed to: the matched zone when inside, the nearest otherwise.
func (r ValidationResult) ZoneID() *string {
	if r.MatchedZone != nil {
		return &r.MatchedZone.ID
	}
	if r.NearestZone != nil {
		return &r.NearestZone.ID
	}
	return nil
}

type Violation struct {
	ID               string
	TimesheetEntryID string
	ZoneID           *string
	Coordinate       geo.Point
	DistanceMeters   *float64
	Reason           ViolationReason
	Status           ViolationStatus
	AcknowledgedBy   *string
	AcknowledgedAt   *time.Time
	OccurredAt       time.Time
	CreatedAt        time.Time

	// DTO / Join
	ZoneName   *string
	EmployeeID string
	ProjectID  *string
	EntryDate  time.Time
}

// CheckCounts tallies entries with coordinates by their stored geofence status.
type CheckCounts struct {
	Total     int64
	Inside    int64
	Outside   int64
	NoZone    int64
	Unchecked int64
}

// Checked is the number of entries that went through validation.
func (c CheckCounts) Checked() int64 {
	return c.Inside + c.Outside + c.NoZone
}

type ViolationCounts struct {
	Total int64
	Open  int64
}

type ZoneViolationCount struct {
	ZoneID         *string `json:"zone_id"`
	ZoneName       *string `json:"zone_name"`
	ViolationCount int64   `json:"violation_count"`
}

type CoverageTotals struct {
	Counts       CheckCounts
	TotalHours   decimal.Decimal
	InsideHours  decimal.Decimal
	OutsideHours decimal.Decimal
}

type ZoneUtilization struct {
	ZoneID         string          `json:"zone_id"`
	ZoneName       string          `json:"zone_name"`
	EntryCount     int64           `json:"entry_count"`
	Hours          decimal.Decimal `json:"hours"`
	ViolationCount int64           `json:"violation_count"`
}
