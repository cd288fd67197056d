package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/timesheet"
	"github.com/shopspring/decimal"
)

type timesheetEntryRepository struct {
	s *Store
}

func NewTimesheetEntryRepository(s *Store) timesheet.EntryRepository {
	return &timesheetEntryRepository{s: s}
}

func (r *timesheetEntryRepository) takenLocked(employeeID string, date time.Time, excludeID string) bool {
	for id, e := range r.s.entries {
		if id != excludeID && e.EmployeeID == employeeID && sameDay(e.Date, date) {
			return true
		}
	}
	return false
}

// Create implements timesheet.EntryRepository.
func (r *timesheetEntryRepository) Create(ctx context.Context, entry timesheet.Entry) (timesheet.Entry, error) {
	err := r.s.write(ctx, func() error {
		if r.takenLocked(entry.EmployeeID, entry.Date, "") {
			return timesheet.ErrDuplicateEntry
		}
		now := r.s.now()
		entry.CreatedAt, entry.UpdatedAt = now, now
		r.s.entries[entry.ID] = entry
		return nil
	})
	if err != nil {
		return timesheet.Entry{}, err
	}
	return entry, nil
}

// GetByID implements timesheet.EntryRepository.
func (r *timesheetEntryRepository) GetByID(ctx context.Context, id string) (timesheet.Entry, error) {
	var (
		entry timesheet.Entry
		ok    bool
	)
	r.s.read(func() { entry, ok = r.s.entries[id] })
	if !ok {
		return timesheet.Entry{}, timesheet.ErrEntryNotFound
	}
	return entry, nil
}

// GetByIDForUpdate implements timesheet.EntryRepository. Transactions are
// already serialized, so no row lock is needed.
func (r *timesheetEntryRepository) GetByIDForUpdate(ctx context.Context, id string) (timesheet.Entry, error) {
	return r.GetByID(ctx, id)
}

// Update implements timesheet.EntryRepository.
func (r *timesheetEntryRepository) Update(ctx context.Context, entry timesheet.Entry) (timesheet.Entry, error) {
	err := r.s.write(ctx, func() error {
		current, ok := r.s.entries[entry.ID]
		if !ok {
			return timesheet.ErrEntryNotFound
		}
		if r.takenLocked(entry.EmployeeID, entry.Date, entry.ID) {
			return timesheet.ErrDuplicateEntry
		}
		entry.CreatedAt = current.CreatedAt
		entry.UpdatedAt = r.s.now()
		r.s.entries[entry.ID] = entry
		return nil
	})
	if err != nil {
		return timesheet.Entry{}, err
	}
	return entry, nil
}

// ExistsForEmployeeOnDate implements timesheet.EntryRepository.
func (r *timesheetEntryRepository) ExistsForEmployeeOnDate(ctx context.Context, employeeID string, date time.Time, excludeID *string) (bool, error) {
	exclude := ""
	if excludeID != nil {
		exclude = *excludeID
	}
	var taken bool
	r.s.read(func() { taken = r.takenLocked(employeeID, date, exclude) })
	return taken, nil
}

// SumHoursWorked implements timesheet.EntryRepository.
func (r *timesheetEntryRepository) SumHoursWorked(ctx context.Context, employeeID string, from, to time.Time, excludeID *string) (decimal.Decimal, error) {
	return r.sum(employeeID, from, to, excludeID, func(e timesheet.Entry) decimal.Decimal { return e.HoursWorked }), nil
}

// SumOvertimeHours implements timesheet.EntryRepository.
func (r *timesheetEntryRepository) SumOvertimeHours(ctx context.Context, employeeID string, from, to time.Time, excludeID *string) (decimal.Decimal, error) {
	return r.sum(employeeID, from, to, excludeID, timesheet.Entry.Overtime), nil
}

func (r *timesheetEntryRepository) sum(employeeID string, from, to time.Time, excludeID *string, value func(timesheet.Entry) decimal.Decimal) decimal.Decimal {
	lo, hi := from.Format(time.DateOnly), to.Format(time.DateOnly)
	total := decimal.Zero
	r.s.read(func() {
		for id, e := range r.s.entries {
			if e.EmployeeID != employeeID || (excludeID != nil && id == *excludeID) {
				continue
			}
			if day := e.Date.Format(time.DateOnly); day >= lo && day <= hi {
				total = total.Add(value(e))
			}
		}
	})
	return total
}
