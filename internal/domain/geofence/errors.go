package geofence

import "errors"

// Geofence domain errors
var (
	ErrZoneNotFound   = errors.New("geofence zone not found")
	ErrZoneNameExists = errors.New("geofence zone name already exists")

	ErrViolationNotFound            = errors.New("geofence violation not found")
	ErrViolationAlreadyAcknowledged = errors.New("geofence violation has already been acknowledged")
	ErrNotAViolation                = errors.New("validation result is not a violation")
)
