package timesheet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/config"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/timesheet"
	"github.com/shopspring/decimal"
)

// RuleEngine enforces the per-employee business rules on a candidate entry.
type RuleEngine struct {
	entries              timesheet.EntryRepository
	weeklyLimit          decimal.Decimal
	monthlyOvertimeLimit decimal.Decimal
}

func NewRuleEngine(entries timesheet.EntryRepository, rules config.RulesConfig) *RuleEngine {
	return &RuleEngine{
		entries:              entries,
		weeklyLimit:          rules.WeeklyHoursLimit,
		monthlyOvertimeLimit: rules.MonthlyOvertimeLimit,
	}
}

// Check runs overlap, weekly and monthly rules in that order and returns the
// first failure as a *timesheet.RuleViolationError. prior is the stored
// revision when candidate is an edit.
func (e *RuleEngine) Check(ctx context.Context, candidate timesheet.Entry, prior *timesheet.Entry) error {
	var excludeID *string
	if prior != nil {
		excludeID = &prior.ID
	}

	overlap, err := e.HasOverlap(ctx, candidate.EmployeeID, candidate.Date, excludeID)
	if err != nil {
		return err
	}
	if overlap {
		return overlapError(candidate.Date)
	}

	exceeds, err := e.ExceedsWeeklyLimit(ctx, candidate.EmployeeID, candidate.Date, candidate.HoursWorked, prior)
	if err != nil {
		return err
	}
	if exceeds {
		slog.InfoContext(ctx, "timesheet rejected by weekly limit", "employee_id", candidate.EmployeeID, "date", candidate.Date.Format(time.DateOnly))
		return &timesheet.RuleViolationError{
			Rule:    timesheet.RuleWeeklyLimit,
			Date:    candidate.Date,
			Message: fmt.Sprintf("This would exceed the weekly hours limit (%s hours) on %s", e.weeklyLimit, timesheet.FormatDate(candidate.Date)),
		}
	}

	exceeds, err = e.ExceedsMonthlyOvertimeLimit(ctx, candidate.EmployeeID, candidate.Date, candidate.Overtime(), prior)
	if err != nil {
		return err
	}
	if exceeds {
		slog.InfoContext(ctx, "timesheet rejected by monthly overtime limit", "employee_id", candidate.EmployeeID, "date", candidate.Date.Format(time.DateOnly))
		return &timesheet.RuleViolationError{
			Rule:    timesheet.RuleMonthlyOvertime,
			Date:    candidate.Date,
			Message: fmt.Sprintf("This would exceed the monthly overtime limit (%s hours) on %s", e.monthlyOvertimeLimit, timesheet.FormatDate(candidate.Date)),
		}
	}

	return nil
}

// HasOverlap reports whether the employee already has an entry on date.
func (e *RuleEngine) HasOverlap(ctx context.Context, employeeID string, date time.Time, excludeID *string) (bool, error) {
	exists, err := e.entries.ExistsForEmployeeOnDate(ctx, employeeID, date, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check existing timesheet: %w", err)
	}
	return exists, nil
}

// ExceedsWeeklyLimit reports whether adding hours to the ISO week of date goes
// over the weekly ceiling. An edit that does not raise the hours of an entry
// already in that week always passes.
func (e *RuleEngine) ExceedsWeeklyLimit(ctx context.Context, employeeID string, date time.Time, hours decimal.Decimal, prior *timesheet.Entry) (bool, error) {
	from, to := weekBounds(date)
	if contributesTo(prior, employeeID, from, to) && hours.LessThanOrEqual(prior.HoursWorked) {
		return false, nil
	}

	existing, err := e.entries.SumHoursWorked(ctx, employeeID, from, to, priorID(prior))
	if err != nil {
		return false, fmt.Errorf("failed to sum weekly hours: %w", err)
	}
	return existing.Add(hours).GreaterThan(e.weeklyLimit), nil
}

// ExceedsMonthlyOvertimeLimit is the monthly counterpart of ExceedsWeeklyLimit
// for overtime hours. Zero overtime never exceeds.
func (e *RuleEngine) ExceedsMonthlyOvertimeLimit(ctx context.Context, employeeID string, date time.Time, overtime decimal.Decimal, prior *timesheet.Entry) (bool, error) {
	if !overtime.IsPositive() {
		return false, nil
	}

	from, to := monthBounds(date)
	if contributesTo(prior, employeeID, from, to) && overtime.LessThanOrEqual(prior.Overtime()) {
		return false, nil
	}

	existing, err := e.entries.SumOvertimeHours(ctx, employeeID, from, to, priorID(prior))
	if err != nil {
		return false, fmt.Errorf("failed to sum monthly overtime: %w", err)
	}
	return existing.Add(overtime).GreaterThan(e.monthlyOvertimeLimit), nil
}

func overlapError(date time.Time) error {
	return &timesheet.RuleViolationError{
		Rule:    timesheet.RuleOverlap,
		Date:    date,
		Message: fmt.Sprintf("A timesheet already exists for this employee on %s", timesheet.FormatDate(date)),
	}
}

func contributesTo(prior *timesheet.Entry, employeeID string, from, to time.Time) bool {
	return prior != nil && prior.EmployeeID == employeeID && !prior.Date.Before(from) && !prior.Date.After(to)
}

func priorID(prior *timesheet.Entry) *string {
	if prior == nil {
		return nil
	}
	return &prior.ID
}

// weekBounds returns Monday and Sunday of the ISO week containing date.
func weekBounds(date time.Time) (time.Time, time.Time) {
	day := truncateDay(date)
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 6)
}

// monthBounds returns the first and last day of the calendar month containing date.
func monthBounds(date time.Time) (time.Time, time.Time) {
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
