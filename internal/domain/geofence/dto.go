package geofence

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// ZONE DTOs
// ========================================

// ZoneLimits bounds zone geometry on create and update.
type ZoneLimits struct {
	MinRadiusMeters  float64
	MaxRadiusMeters  float64
	MaxPolygonPoints int
}

var DefaultZoneLimits = ZoneLimits{
	MinRadiusMeters:  1,
	MaxRadiusMeters:  50000,
	MaxPolygonPoints: 50,
}

type CreateZoneRequest struct {
	Name            string           `json:"name"`
	Description     *string          `json:"description,omitempty"`
	ProjectID       *string          `json:"project_id,omitempty"`
	ZoneType        string           `json:"zone_type"` // circle, polygon
	ZonePurpose     string           `json:"zone_purpose"`
	CenterLatitude  *float64         `json:"center_latitude,omitempty"`
	CenterLongitude *float64         `json:"center_longitude,omitempty"`
	RadiusMeters    *float64         `json:"radius_meters,omitempty"`
	Vertices        []geo.Point      `json:"vertices,omitempty"`
	TimeRestriction *TimeRestriction `json:"time_restrictions,omitempty"`
	IsActive        *bool            `json:"is_active,omitempty"`
}

func (r *CreateZoneRequest) Validate(limits ZoneLimits) error {
	var errs validator.ValidationErrors

	r.Name = strings.TrimSpace(r.Name)
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	} else if len(r.Name) > 255 {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name must not exceed 255 characters",
		})
	}

	if r.ProjectID != nil && validator.IsEmpty(*r.ProjectID) {
		r.ProjectID = nil
	}
	errs = append(errs, validateID("project_id", r.ProjectID)...)

	if r.ZonePurpose == "" {
		r.ZonePurpose = string(PurposeProjectSite)
	}
	if !validator.IsInSlice(r.ZonePurpose, validPurposes) {
		errs = append(errs, validator.ValidationError{
			Field:   "zone_purpose",
			Message: "zone_purpose must be one of: " + strings.Join(validPurposes, ", "),
		})
	}

	switch geo.ShapeKind(r.ZoneType) {
	case geo.KindCircle:
		errs = append(errs, r.validateCircle(limits)...)
	case geo.KindPolygon:
		errs = append(errs, r.validatePolygon(limits)...)
	default:
		errs = append(errs, validator.ValidationError{
			Field:   "zone_type",
			Message: "zone_type must be either 'circle' or 'polygon'",
		})
	}

	if r.TimeRestriction != nil {
		errs = append(errs, validateTimeRestriction(*r.TimeRestriction)...)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (r *CreateZoneRequest) validateCircle(limits ZoneLimits) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if r.CenterLatitude == nil || r.CenterLongitude == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "center",
			Message: "center_latitude and center_longitude are required for circle zones",
		})
	} else {
		errs = append(errs, validateCoordinate("center", *r.CenterLatitude, *r.CenterLongitude)...)
	}

	if r.RadiusMeters == nil || *r.RadiusMeters <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "radius_meters",
			Message: "radius_meters must be greater than 0 for circle zones",
		})
	} else if *r.RadiusMeters < limits.MinRadiusMeters || *r.RadiusMeters > limits.MaxRadiusMeters {
		errs = append(errs, validator.ValidationError{
			Field:   "radius_meters",
			Message: fmt.Sprintf("radius_meters must be between %g and %g", limits.MinRadiusMeters, limits.MaxRadiusMeters),
		})
	}

	return errs
}

func (r *CreateZoneRequest) validatePolygon(limits ZoneLimits) validator.ValidationErrors {
	var errs validator.ValidationErrors

	// The ring is implicit; drop an explicit closing vertex.
	if n := len(r.Vertices); n > 1 && r.Vertices[0] == r.Vertices[n-1] {
		r.Vertices = r.Vertices[:n-1]
	}

	if len(r.Vertices) < 3 {
		errs = append(errs, validator.ValidationError{
			Field:   "vertices",
			Message: "polygon zones require at least 3 vertices",
		})
		return errs
	}

	if limits.MaxPolygonPoints > 0 && len(r.Vertices) > limits.MaxPolygonPoints {
		errs = append(errs, validator.ValidationError{
			Field:   "vertices",
			Message: fmt.Sprintf("polygon zones may have at most %d vertices", limits.MaxPolygonPoints),
		})
	}

	for i, v := range r.Vertices {
		errs = append(errs, validateCoordinate(fmt.Sprintf("vertices[%d]", i), v.Latitude, v.Longitude)...)
	}

	return errs
}

// Shape builds the zone geometry. Call after Validate.
func (r *CreateZoneRequest) Shape() geo.Shape {
	if geo.ShapeKind(r.ZoneType) == geo.KindPolygon {
		vertices := make([]geo.Point, len(r.Vertices))
		copy(vertices, r.Vertices)
		return geo.NewPolygon(vertices)
	}
	return geo.NewCircle(geo.Point{Latitude: *r.CenterLatitude, Longitude: *r.CenterLongitude}, *r.RadiusMeters)
}

type UpdateZoneRequest struct {
	ID string `json:"-"`
	CreateZoneRequest
}

type ZoneResponse struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Description     *string          `json:"description,omitempty"`
	ProjectID       *string          `json:"project_id"`
	ZoneType        string           `json:"zone_type"`
	ZonePurpose     string           `json:"zone_purpose"`
	CenterLatitude  *float64         `json:"center_latitude,omitempty"`
	CenterLongitude *float64         `json:"center_longitude,omitempty"`
	RadiusMeters    *float64         `json:"radius_meters,omitempty"`
	Vertices        []geo.Point      `json:"vertices,omitempty"`
	TimeRestriction *TimeRestriction `json:"time_restrictions,omitempty"`
	IsActive        bool             `json:"is_active"`
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at"`
}

type ZoneFilter struct {
	ProjectID   *string `json:"project_id,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	ZoneType    *string `json:"zone_type,omitempty"`
	ZonePurpose *string `json:"zone_purpose,omitempty"`
	Search      *string `json:"search,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *ZoneFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 15
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	errs = append(errs, validateID("project_id", f.ProjectID)...)

	if f.ZoneType != nil {
		if *f.ZoneType != string(geo.KindCircle) && *f.ZoneType != string(geo.KindPolygon) {
			errs = append(errs, validator.ValidationError{
				Field:   "zone_type",
				Message: "zone_type must be either 'circle' or 'polygon'",
			})
		}
	}

	if f.ZonePurpose != nil && !validator.IsInSlice(*f.ZonePurpose, validPurposes) {
		errs = append(errs, validator.ValidationError{
			Field:   "zone_purpose",
			Message: "zone_purpose must be one of: " + strings.Join(validPurposes, ", "),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListZoneResponse struct {
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
	Showing    string         `json:"showing"`
	Zones      []ZoneResponse `json:"zones"`
}

// ========================================
// VALIDATION DTOs
// ========================================

type ValidateLocationRequest struct {
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	ProjectID  *string  `json:"project_id,omitempty"`
	EmployeeID *string  `json:"employee_id,omitempty"`
	Timestamp  *string  `json:"timestamp,omitempty"` // RFC3339
}

func (r *ValidateLocationRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Latitude == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude is required",
		})
	}
	if r.Longitude == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude is required",
		})
	}
	if r.Latitude != nil && r.Longitude != nil {
		errs = append(errs, validateCoordinate("", *r.Latitude, *r.Longitude)...)
	}

	errs = append(errs, validateID("project_id", r.ProjectID)...)
	errs = append(errs, validateID("employee_id", r.EmployeeID)...)

	if r.Timestamp != nil {
		if _, ok := validator.IsValidDateTime(*r.Timestamp); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "timestamp",
				Message: "timestamp must be an ISO8601 datetime",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// VIOLATION & STATISTICS DTOs
// ========================================

type RecentViolationsFilter struct {
	Limit     int     `json:"limit"`
	ProjectID *string `json:"project_id,omitempty"`
}

func (f *RecentViolationsFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Limit == 0 {
		f.Limit = 50
	}
	if f.Limit < 1 || f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be between 1 and 100",
		})
	}
	errs = append(errs, validateID("project_id", f.ProjectID)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ViolationResponse struct {
	ID               string   `json:"id"`
	TimesheetEntryID string   `json:"timesheet_entry_id"`
	EmployeeID       string   `json:"employee_id"`
	ProjectID        *string  `json:"project_id"`
	EntryDate        string   `json:"entry_date"`
	ZoneID           *string  `json:"zone_id"`
	ZoneName         *string  `json:"zone_name"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	DistanceMeters   *float64 `json:"distance_meters"`
	Reason           string   `json:"reason"`
	Status           string   `json:"status"`
	AcknowledgedBy   *string  `json:"acknowledged_by"`
	AcknowledgedAt   *string  `json:"acknowledged_at"`
	OccurredAt       string   `json:"occurred_at"`
}

type StatisticsFilter struct {
	ProjectID  *string `json:"project_id,omitempty"`
	EmployeeID *string `json:"employee_id,omitempty"`
	DateFrom   *string `json:"date_from,omitempty"` // YYYY-MM-DD
	DateTo     *string `json:"date_to,omitempty"`   // YYYY-MM-DD
}

func (f *StatisticsFilter) Validate() error {
	errs := validateDateRange(f.DateFrom, f.DateTo)
	errs = append(errs, validateID("project_id", f.ProjectID)...)
	errs = append(errs, validateID("employee_id", f.EmployeeID)...)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type StatisticsResponse struct {
	TotalChecks    int64                `json:"total_checks"`
	InsideCount    int64                `json:"inside_count"`
	OutsideCount   int64                `json:"outside_count"`
	NoZoneCount    int64                `json:"no_zone_count"`
	ViolationCount int64                `json:"violation_count"`
	OpenViolations int64                `json:"open_violations"`
	ViolationRate  float64              `json:"violation_rate"`
	ComplianceRate float64              `json:"compliance_rate"`
	ByZone         []ZoneViolationCount `json:"by_zone"`
}

// ========================================
// COVERAGE DTOs
// ========================================

type CoverageFilter struct {
	ProjectID *string `json:"project_id,omitempty"`
	DateFrom  *string `json:"date_from,omitempty"`
	DateTo    *string `json:"date_to,omitempty"`
}

func (f *CoverageFilter) Validate() error {
	errs := validateDateRange(f.DateFrom, f.DateTo)
	errs = append(errs, validateID("project_id", f.ProjectID)...)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// StatisticsFilter narrows the coverage filter to the shared statistics shape.
func (f CoverageFilter) StatisticsFilter() StatisticsFilter {
	return StatisticsFilter{ProjectID: f.ProjectID, DateFrom: f.DateFrom, DateTo: f.DateTo}
}

type CoverageResponse struct {
	TotalEntries     int64             `json:"total_entries"`
	InsideCount      int64             `json:"inside_count"`
	OutsideCount     int64             `json:"outside_count"`
	NoZoneCount      int64             `json:"no_zone_count"`
	UncheckedCount   int64             `json:"unchecked_count"`
	CoverageRate     float64           `json:"coverage_rate"`
	TotalHours       decimal.Decimal   `json:"total_hours"`
	InsideHours      decimal.Decimal   `json:"inside_hours"`
	OutsideHours     decimal.Decimal   `json:"outside_hours"`
	TimeCoverageRate float64           `json:"time_coverage_rate"`
	PerZoneBreakdown []ZoneUtilization `json:"per_zone_breakdown"`
}

// ========================================
// HELPERS
// ========================================

func validateCoordinate(field string, lat, lon float64) validator.ValidationErrors {
	var errs validator.ValidationErrors
	latField, lonField := "latitude", "longitude"
	if field != "" {
		latField, lonField = field+".latitude", field+".longitude"
	}

	if lat < -90 || lat > 90 {
		errs = append(errs, validator.ValidationError{
			Field:   latField,
			Message: "latitude must be between -90 and 90",
		})
	}
	if lon < -180 || lon > 180 {
		errs = append(errs, validator.ValidationError{
			Field:   lonField,
			Message: "longitude must be between -180 and 180",
		})
	}
	return errs
}

func validateTimeRestriction(r TimeRestriction) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if !validator.IsValidClock(r.StartTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "time_restrictions.start_time",
			Message: "start_time must be in HH:MM format",
		})
	}
	if !validator.IsValidClock(r.EndTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "time_restrictions.end_time",
			Message: "end_time must be in HH:MM format",
		})
	}
	for _, d := range r.DaysOfWeek {
		if d < 0 || d > 6 {
			errs = append(errs, validator.ValidationError{
				Field:   "time_restrictions.days_of_week",
				Message: "days_of_week values must be between 0 (Sunday) and 6 (Saturday)",
			})
			break
		}
	}
	return errs
}

// validateID checks an optional reference to a row keyed by uuid.
func validateID(field string, id *string) validator.ValidationErrors {
	if id == nil || validator.IsValidID(*id) {
		return nil
	}
	return validator.ValidationErrors{{
		Field:   field,
		Message: field + " must be a valid UUID",
	}}
}

func validateDateRange(from, to *string) validator.ValidationErrors {
	var errs validator.ValidationErrors
	var fromDate, toDate time.Time
	var okFrom, okTo bool

	if from != nil {
		if fromDate, okFrom = validator.IsValidDate(*from); !okFrom {
			errs = append(errs, validator.ValidationError{
				Field:   "date_from",
				Message: "date_from must be in YYYY-MM-DD format",
			})
		}
	}
	if to != nil {
		if toDate, okTo = validator.IsValidDate(*to); !okTo {
			errs = append(errs, validator.ValidationError{
				Field:   "date_to",
				Message: "date_to must be in YYYY-MM-DD format",
			})
		}
	}
	if okFrom && okTo && toDate.Before(fromDate) {
		errs = append(errs, validator.ValidationError{
			Field:   "date_to",
			Message: "date_to must be on or after date_from",
		})
	}
	return errs
}

// ToViolationResponse flattens a violation for transport.
func ToViolationResponse(v Violation) ViolationResponse {
	resp := ViolationResponse{
		ID:               v.ID,
		TimesheetEntryID: v.TimesheetEntryID,
		EmployeeID:       v.EmployeeID,
		ProjectID:        v.ProjectID,
		ZoneID:           v.ZoneID,
		ZoneName:         v.ZoneName,
		Latitude:         v.Coordinate.Latitude,
		Longitude:        v.Coordinate.Longitude,
		DistanceMeters:   v.DistanceMeters,
		Reason:           string(v.Reason),
		Status:           string(v.Status),
		AcknowledgedBy:   v.AcknowledgedBy,
		OccurredAt:       v.OccurredAt.UTC().Format(time.RFC3339),
	}
	if !v.EntryDate.IsZero() {
		resp.EntryDate = v.EntryDate.Format("2006-01-02")
	}
	if v.AcknowledgedAt != nil {
		at := v.AcknowledgedAt.UTC().Format(time.RFC3339)
		resp.AcknowledgedAt = &at
	}
	return resp
}
