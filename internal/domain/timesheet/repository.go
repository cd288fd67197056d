package timesheet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// EntryRepository defines data access for timesheet entries.
type EntryRepository interface {
	// Create returns ErrDuplicateEntry when (employee, date) is already taken.
	Create(ctx context.Context, entry Entry) (Entry, error)

	GetByID(ctx context.Context, id string) (Entry, error)

	// GetByIDForUpdate locks the row for the rest of the surrounding transaction.
	GetByIDForUpdate(ctx context.Context, id string) (Entry, error)

	// Update writes every mutable column, including the geofence verdict.
	Update(ctx context.Context, entry Entry) (Entry, error)

	ExistsForEmployeeOnDate(ctx context.Context, employeeID string, date time.Time, excludeID *string) (bool, error)

	// SumHoursWorked and SumOvertimeHours total entries dated within [from, to].
	SumHoursWorked(ctx context.Context, employeeID string, from, to time.Time, excludeID *string) (decimal.Decimal, error)
	SumOvertimeHours(ctx context.Context, employeeID string, from, to time.Time, excludeID *string) (decimal.Decimal, error)
}
