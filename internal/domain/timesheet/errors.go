package timesheet

import (
	"errors"
	"time"
)

// Timesheet domain errors
var (
	ErrEntryNotFound    = errors.New("timesheet entry not found")
	ErrEntryNotEditable = errors.New("timesheet entry can no longer be edited")

	// Rule errors; RuleViolationError wraps these with the offending date.
	ErrDuplicateEntry          = errors.New("a timesheet already exists for this employee on this date")
	ErrWeeklyLimitExceeded     = errors.New("weekly hours limit exceeded")
	ErrMonthlyOvertimeExceeded = errors.New("monthly overtime limit exceeded")
)

type Rule string

const (
	RuleOverlap         Rule = "overlap"
	RuleWeeklyLimit     Rule = "weekly_limit"
	RuleMonthlyOvertime Rule = "monthly_overtime_limit"
)

// RuleViolationError names the rule that rejected a write and the date it applied to.
type RuleViolationError struct {
	Rule    Rule
	Date    time.Time
	Message string
}

func (e *RuleViolationError) Error() string {
	return e.Message
}

func (e *RuleViolationError) Unwrap() error {
	switch e.Rule {
	case RuleOverlap:
		return ErrDuplicateEntry
	case RuleWeeklyLimit:
		return ErrWeeklyLimitExceeded
	case RuleMonthlyOvertime:
		return ErrMonthlyOvertimeExceeded
	}
	return nil
}

// FormatDate renders a date the way rule messages show it.
func FormatDate(d time.Time) string {
	return d.Format("Jan 02, 2006")
}
