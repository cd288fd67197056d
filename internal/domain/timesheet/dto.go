package timesheet

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

var maxDailyHours = decimal.NewFromInt(24)

// ========================================
// ENTRY DTOs
// ========================================

type CreateEntryRequest struct {
	EmployeeID     string           `json:"employee_id"`
	Date           string           `json:"date"` // YYYY-MM-DD
	HoursWorked    *decimal.Decimal `json:"hours_worked,omitempty"`
	OvertimeHours  *decimal.Decimal `json:"overtime_hours,omitempty"`
	ProjectID      *string          `json:"project_id,omitempty"`
	StartTime      *string          `json:"start_time,omitempty"` // RFC3339
	EndTime        *string          `json:"end_time,omitempty"`   // RFC3339
	StartLatitude  *float64         `json:"start_latitude,omitempty"`
	StartLongitude *float64         `json:"start_longitude,omitempty"`
	Description    *string          `json:"description,omitempty"`
}

func (r *CreateEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validateEmployeeID(r.EmployeeID)...)

	if validator.IsEmpty(r.Date) {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date is required",
		})
	} else if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if r.ProjectID != nil && validator.IsEmpty(*r.ProjectID) {
		r.ProjectID = nil
	}
	errs = append(errs, validateID("project_id", r.ProjectID)...)

	errs = append(errs, validateHours("hours_worked", r.HoursWorked, r.OvertimeHours)...)

	var start, end time.Time
	var okStart, okEnd bool
	if r.StartTime != nil {
		if start, okStart = validator.IsValidDateTime(*r.StartTime); !okStart {
			errs = append(errs, validator.ValidationError{
				Field:   "start_time",
				Message: "start_time must be an ISO8601 datetime",
			})
		}
	}
	if r.EndTime != nil {
		if end, okEnd = validator.IsValidDateTime(*r.EndTime); !okEnd {
			errs = append(errs, validator.ValidationError{
				Field:   "end_time",
				Message: "end_time must be an ISO8601 datetime",
			})
		}
	}
	if okStart && okEnd && !end.After(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must be after start_time",
		})
	}

	if (r.StartLatitude == nil) != (r.StartLongitude == nil) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_latitude",
			Message: "start_latitude and start_longitude must be provided together",
		})
	}
	if r.StartLatitude != nil && (*r.StartLatitude < -90 || *r.StartLatitude > 90) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_latitude",
			Message: "latitude must be between -90 and 90",
		})
	}
	if r.StartLongitude != nil && (*r.StartLongitude < -180 || *r.StartLongitude > 180) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// UpdateEntryRequest replaces the editable fields of an entry.
type UpdateEntryRequest struct {
	ID string `json:"-"`
	CreateEntryRequest
}

func (r *UpdateEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.HoursWorked == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "hours_worked",
			Message: "hours_worked is required",
		})
	}

	if err := r.CreateEntryRequest.Validate(); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			errs = append(errs, fieldErrs...)
		} else {
			return err
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type BulkCreateRequest struct {
	EmployeeID         string                     `json:"employee_id"`
	StartDate          string                     `json:"start_date"` // YYYY-MM-DD
	EndDate            string                     `json:"end_date"`   // YYYY-MM-DD
	HoursWorked        *decimal.Decimal           `json:"hours_worked,omitempty"`
	OvertimeHours      *decimal.Decimal           `json:"overtime_hours,omitempty"`
	DailyOvertimeHours map[string]decimal.Decimal `json:"daily_overtime_hours,omitempty"` // keyed by YYYY-MM-DD
	ProjectID          *string                    `json:"project_id,omitempty"`
	Description        *string                    `json:"description,omitempty"`
}

// Validate checks the request. maxDays bounds the span between start and end date.
func (r *BulkCreateRequest) Validate(maxDays int) error {
	var errs validator.ValidationErrors

	errs = append(errs, validateEmployeeID(r.EmployeeID)...)

	start, okStart := validator.IsValidDate(r.StartDate)
	if !okStart {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}
	end, okEnd := validator.IsValidDate(r.EndDate)
	if !okEnd {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}
	if okStart && okEnd {
		if end.Before(start) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be on or after start_date",
			})
		} else if int(end.Sub(start).Hours()/24) > maxDays {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: fmt.Sprintf("date range cannot exceed %d days", maxDays),
			})
		}
	}

	if r.ProjectID != nil && validator.IsEmpty(*r.ProjectID) {
		r.ProjectID = nil
	}
	errs = append(errs, validateID("project_id", r.ProjectID)...)

	errs = append(errs, validateHours("hours_worked", r.HoursWorked, r.OvertimeHours)...)

	for key, overtime := range r.DailyOvertimeHours {
		date, ok := validator.IsValidDate(key)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "daily_overtime_hours",
				Message: fmt.Sprintf("%q is not a valid YYYY-MM-DD date", key),
			})
			continue
		}
		if okStart && okEnd && (date.Before(start) || date.After(end)) {
			errs = append(errs, validator.ValidationError{
				Field:   "daily_overtime_hours",
				Message: fmt.Sprintf("%s is outside the requested date range", key),
			})
			continue
		}
		ot := overtime
		errs = append(errs, validateHours("daily_overtime_hours."+key, r.HoursWorked, &ot)...)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// OvertimeFor resolves the overtime for one date: the per-date override, then the shared value.
func (r *BulkCreateRequest) OvertimeFor(date time.Time) *decimal.Decimal {
	if ot, ok := r.DailyOvertimeHours[date.Format("2006-01-02")]; ok {
		return &ot
	}
	return r.OvertimeHours
}

type CheckDuplicateRequest struct {
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`
	ExcludeID  *string `json:"exclude_id,omitempty"`
}

func (r *CheckDuplicateRequest) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validateEmployeeID(r.EmployeeID)...)
	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}
	errs = append(errs, validateID("exclude_id", r.ExcludeID)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CheckDuplicateResponse struct {
	Exists bool `json:"exists"`
}

type EntryResponse struct {
	ID                string           `json:"id"`
	EmployeeID        string           `json:"employee_id"`
	ProjectID         *string          `json:"project_id"`
	Date              string           `json:"date"`
	HoursWorked       decimal.Decimal  `json:"hours_worked"`
	OvertimeHours     *decimal.Decimal `json:"overtime_hours"`
	StartTime         *string          `json:"start_time"`
	EndTime           *string          `json:"end_time"`
	StartLatitude     *float64         `json:"start_latitude"`
	StartLongitude    *float64         `json:"start_longitude"`
	Description       *string          `json:"description"`
	Status            string           `json:"status"`
	GeofenceStatus    *string          `json:"geofence_status"`
	GeofenceZoneID    *string          `json:"geofence_zone_id"`
	GeofenceCheckedAt *string          `json:"geofence_checked_at"`
	CreatedAt         string           `json:"created_at"`
	UpdatedAt         string           `json:"updated_at"`
}

// EntryResult is an entry after a write, with the geofence verdict when one was produced.
type EntryResult struct {
	Entry    EntryResponse              `json:"entry"`
	Geofence *geofence.ValidationResult `json:"geofence,omitempty"`
}

type BulkCreateResponse struct {
	Count   int             `json:"count"`
	Entries []EntryResponse `json:"entries"`
}

func validateEmployeeID(id string) validator.ValidationErrors {
	if validator.IsEmpty(id) {
		return validator.ValidationErrors{{
			Field:   "employee_id",
			Message: "employee_id is required",
		}}
	}
	return validateID("employee_id", &id)
}

func validateID(field string, id *string) validator.ValidationErrors {
	if id == nil || validator.IsValidID(*id) {
		return nil
	}
	return validator.ValidationErrors{{
		Field:   field,
		Message: field + " must be a valid UUID",
	}}
}

func validateHours(field string, hours, overtime *decimal.Decimal) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if hours != nil && (hours.IsNegative() || hours.GreaterThan(maxDailyHours)) {
		errs = append(errs, validator.ValidationError{
			Field:   field,
			Message: "hours_worked must be between 0 and 24",
		})
	}
	if overtime != nil && (overtime.IsNegative() || overtime.GreaterThan(maxDailyHours)) {
		errs = append(errs, validator.ValidationError{
			Field:   "overtime_hours",
			Message: "overtime_hours must be between 0 and 24",
		})
	}
	if hours != nil && overtime != nil && hours.Add(*overtime).GreaterThan(maxDailyHours) {
		errs = append(errs, validator.ValidationError{
			Field:   field,
			Message: "hours_worked plus overtime_hours must not exceed 24",
		})
	}
	return errs
}
