package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Rule violations carry their own message
	var ruleErr *timesheet.RuleViolationError
	if errors.As(err, &ruleErr) {
		if ruleErr.Rule == timesheet.RuleOverlap {
			Conflict(w, ruleErr.Message)
		} else {
			BadRequest(w, ruleErr.Message, map[string]string{"rule": string(ruleErr.Rule)})
		}
		return
	}

	switch {
	// User domain errors
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Timesheet domain errors
	case errors.Is(err, timesheet.ErrEntryNotFound):
		NotFound(w, "Timesheet entry not found")
	case errors.Is(err, timesheet.ErrEntryNotEditable):
		writeJSON(w, http.StatusUnprocessableEntity, Response{
			Success: false,
			Error: &ErrorDetail{
				Code:    "ENTRY_NOT_EDITABLE",
				Message: "Timesheet entry can no longer be edited",
			},
		})
	case errors.Is(err, timesheet.ErrDuplicateEntry):
		Conflict(w, "A timesheet already exists for this employee on this date")

	// Geofence domain errors
	case errors.Is(err, geofence.ErrZoneNotFound):
		NotFound(w, "Geofence zone not found")
	case errors.Is(err, geofence.ErrZoneNameExists):
		Conflict(w, "Geofence zone name already exists")
	case errors.Is(err, geofence.ErrViolationNotFound):
		NotFound(w, "Geofence violation not found")
	case errors.Is(err, geofence.ErrViolationAlreadyAcknowledged):
		Conflict(w, "Geofence violation has already been acknowledged")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
