package timesheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/config"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/validator"
	"github.com/google/uuid"
)

type timesheetServiceImpl struct {
	timesheet.EntryRepository
	tx         database.Transactor
	rules      *RuleEngine
	validator  geofence.LocationValidator
	violations geofence.ViolationService
	notifier   geofence.ViolationNotifier
	cfg        config.RulesConfig
}

// NewTimesheetService wires the write coordinator. notifier may be nil.
func NewTimesheetService(
	tx database.Transactor,
	entryRepo timesheet.EntryRepository,
	locationValidator geofence.LocationValidator,
	violationService geofence.ViolationService,
	notifier geofence.ViolationNotifier,
	cfg config.RulesConfig,
) timesheet.TimesheetService {
	return &timesheetServiceImpl{
		EntryRepository: entryRepo,
		tx:              tx,
		rules:           NewRuleEngine(entryRepo, cfg),
		validator:       locationValidator,
		violations:      violationService,
		notifier:        notifier,
		cfg:             cfg,
	}
}

// written is the outcome of one entry write inside a unit of work.
type written struct {
	entry     timesheet.Entry
	result    *geofence.ValidationResult
	violation *geofence.Violation
}

// CreateEntry implements timesheet.TimesheetService.
func (s *timesheetServiceImpl) CreateEntry(ctx context.Context, req timesheet.CreateEntryRequest) (timesheet.EntryResult, error) {
	if req.HoursWorked == nil {
		hours := s.cfg.DefaultHours
		req.HoursWorked = &hours
	}
	if err := req.Validate(); err != nil {
		return timesheet.EntryResult{}, err
	}

	entry, err := newEntry(req)
	if err != nil {
		return timesheet.EntryResult{}, err
	}

	var out written
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		out, err = s.create(ctx, entry)
		return err
	})
	if err != nil {
		return timesheet.EntryResult{}, err
	}

	s.notify(ctx, out.violation)
	return timesheet.EntryResult{Entry: toEntryResponse(out.entry), Geofence: out.result}, nil
}

// UpdateEntry implements timesheet.TimesheetService. Geofence validation reruns
// only when the coordinates changed.
func (s *timesheetServiceImpl) UpdateEntry(ctx context.Context, req timesheet.UpdateEntryRequest) (timesheet.EntryResult, error) {
	if !validator.IsValidID(req.ID) {
		return timesheet.EntryResult{}, timesheet.ErrEntryNotFound
	}

	var out written
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.EntryRepository.GetByIDForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}
		if !existing.Status.IsEditable() {
			return timesheet.ErrEntryNotEditable
		}
		if err := req.Validate(); err != nil {
			return err
		}

		next, err := applyRequest(existing, req.CreateEntryRequest)
		if err != nil {
			return err
		}
		if err := s.rules.Check(ctx, next, &existing); err != nil {
			return err
		}

		relocated := !next.SameLocation(existing)
		if relocated {
			next.ApplyGeofenceResult(nil)
		}

		updated, err := s.EntryRepository.Update(ctx, next)
		if err != nil {
			if errors.Is(err, timesheet.ErrDuplicateEntry) {
				return overlapError(next.Date)
			}
			return fmt.Errorf("failed to update timesheet entry: %w", err)
		}

		out = written{entry: updated}
		if relocated {
			out, err = s.applyGeofence(ctx, updated)
		}
		return err
	})
	if err != nil {
		return timesheet.EntryResult{}, err
	}

	s.notify(ctx, out.violation)
	return timesheet.EntryResult{Entry: toEntryResponse(out.entry), Geofence: out.result}, nil
}

// BulkCreateEntries implements timesheet.TimesheetService. The whole range is
// one unit of work; the first failing date aborts everything.
func (s *timesheetServiceImpl) BulkCreateEntries(ctx context.Context, req timesheet.BulkCreateRequest) (timesheet.BulkCreateResponse, error) {
	if req.HoursWorked == nil {
		hours := s.cfg.DefaultHours
		req.HoursWorked = &hours
	}
	if err := req.Validate(s.cfg.BulkMaxDays); err != nil {
		return timesheet.BulkCreateResponse{}, err
	}

	start, _ := validator.IsValidDate(req.StartDate)
	end, _ := validator.IsValidDate(req.EndDate)

	var entries []timesheet.Entry
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		id, err := uuid.NewV7()
		if err != nil {
			return timesheet.BulkCreateResponse{}, fmt.Errorf("failed to generate entry id: %w", err)
		}
		entries = append(entries, timesheet.Entry{
			ID:            id.String(),
			EmployeeID:    req.EmployeeID,
			ProjectID:     req.ProjectID,
			Date:          day,
			HoursWorked:   *req.HoursWorked,
			OvertimeHours: req.OvertimeFor(day),
			Description:   req.Description,
			Status:        timesheet.StatusDraft,
		})
	}

	var results []written
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		results = results[:0]
		for _, entry := range entries {
			out, err := s.create(ctx, entry)
			if err != nil {
				return err
			}
			results = append(results, out)
		}
		return nil
	})
	if err != nil {
		return timesheet.BulkCreateResponse{}, err
	}

	responses := make([]timesheet.EntryResponse, 0, len(results))
	for _, out := range results {
		s.notify(ctx, out.violation)
		responses = append(responses, toEntryResponse(out.entry))
	}

	return timesheet.BulkCreateResponse{Count: len(responses), Entries: responses}, nil
}

// CheckDuplicate implements timesheet.TimesheetService.
func (s *timesheetServiceImpl) CheckDuplicate(ctx context.Context, req timesheet.CheckDuplicateRequest) (timesheet.CheckDuplicateResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.CheckDuplicateResponse{}, err
	}

	date, _ := validator.IsValidDate(req.Date)
	exists, err := s.rules.HasOverlap(ctx, req.EmployeeID, date, req.ExcludeID)
	if err != nil {
		return timesheet.CheckDuplicateResponse{}, err
	}
	return timesheet.CheckDuplicateResponse{Exists: exists}, nil
}

// GetEntry implements timesheet.TimesheetService.
func (s *timesheetServiceImpl) GetEntry(ctx context.Context, id string) (timesheet.EntryResponse, error) {
	if !validator.IsValidID(id) {
		return timesheet.EntryResponse{}, timesheet.ErrEntryNotFound
	}

	entry, err := s.EntryRepository.GetByID(ctx, id)
	if err != nil {
		return timesheet.EntryResponse{}, err
	}
	return toEntryResponse(entry), nil
}

// create checks the rules, inserts the entry and validates its location. It
// must run inside a unit of work.
func (s *timesheetServiceImpl) create(ctx context.Context, entry timesheet.Entry) (written, error) {
	if err := s.rules.Check(ctx, entry, nil); err != nil {
		return written{}, err
	}

	created, err := s.EntryRepository.Create(ctx, entry)
	if err != nil {
		if errors.Is(err, timesheet.ErrDuplicateEntry) {
			return written{}, overlapError(entry.Date)
		}
		return written{}, fmt.Errorf("failed to create timesheet entry: %w", err)
	}

	return s.applyGeofence(ctx, created)
}

// applyGeofence validates the entry's coordinates under the configured failure policy.
func (s *timesheetServiceImpl) applyGeofence(ctx context.Context, entry timesheet.Entry) (written, error) {
	if s.cfg.GeofenceFailurePolicy != config.FailurePolicyLenient {
		return s.checkLocation(ctx, entry)
	}

	var out written
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.checkLocation(ctx, entry)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "geofence processing failed, entry left unchecked",
			"entry_id", entry.ID,
			"employee_id", entry.EmployeeID,
			"error", err,
		)
		entry.ApplyGeofenceResult(nil)
		return written{entry: entry}, nil
	}
	return out, nil
}

// checkLocation stores the geofence verdict on the entry and records a violation when outside.
func (s *timesheetServiceImpl) checkLocation(ctx context.Context, entry timesheet.Entry) (written, error) {
	point, ok := entry.Coordinate()
	if !ok {
		return written{entry: entry}, nil
	}

	employeeID := entry.EmployeeID
	result, err := s.validator.Validate(ctx, geofence.Check{
		Coordinate: point,
		ProjectID:  entry.ProjectID,
		EmployeeID: &employeeID,
		At:         entry.CheckTime(),
	})
	if err != nil {
		return written{}, err
	}

	entry.ApplyGeofenceResult(&result)
	updated, err := s.EntryRepository.Update(ctx, entry)
	if err != nil {
		return written{}, fmt.Errorf("failed to store geofence result: %w", err)
	}

	out := written{entry: updated, result: &result}
	if !result.IsViolation() {
		return out, nil
	}

	violation, err := s.violations.Record(ctx, updated.ID, result)
	if err != nil {
		return written{}, err
	}
	out.violation = &violation
	return out, nil
}

// notify runs after commit. Notifier failures never affect the write.
func (s *timesheetServiceImpl) notify(ctx context.Context, violation *geofence.Violation) {
	if s.notifier == nil || violation == nil {
		return
	}
	s.notifier.ViolationRecorded(context.WithoutCancel(ctx), *violation)
}

func newEntry(req timesheet.CreateEntryRequest) (timesheet.Entry, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return timesheet.Entry{}, fmt.Errorf("failed to generate entry id: %w", err)
	}
	return applyRequest(timesheet.Entry{ID: id.String(), Status: timesheet.StatusDraft}, req)
}

// applyRequest copies the request fields onto entry. The request must already be validated.
func applyRequest(entry timesheet.Entry, req timesheet.CreateEntryRequest) (timesheet.Entry, error) {
	date, ok := validator.IsValidDate(req.Date)
	if !ok {
		return timesheet.Entry{}, fmt.Errorf("invalid entry date %q", req.Date)
	}

	entry.EmployeeID = req.EmployeeID
	entry.ProjectID = req.ProjectID
	entry.Date = date
	entry.HoursWorked = *req.HoursWorked
	entry.OvertimeHours = req.OvertimeHours
	entry.StartLatitude = req.StartLatitude
	entry.StartLongitude = req.StartLongitude
	entry.Description = req.Description
	entry.StartTime = parseTime(req.StartTime)
	entry.EndTime = parseTime(req.EndTime)
	return entry, nil
}

func parseTime(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, ok := validator.IsValidDateTime(*s)
	if !ok {
		return nil
	}
	t = t.UTC()
	return &t
}

func toEntryResponse(e timesheet.Entry) timesheet.EntryResponse {
	resp := timesheet.EntryResponse{
		ID:             e.ID,
		EmployeeID:     e.EmployeeID,
		ProjectID:      e.ProjectID,
		Date:           e.Date.Format("2006-01-02"),
		HoursWorked:    e.HoursWorked,
		OvertimeHours:  e.OvertimeHours,
		StartTime:      formatTime(e.StartTime),
		EndTime:        formatTime(e.EndTime),
		StartLatitude:  e.StartLatitude,
		StartLongitude: e.StartLongitude,
		Description:    e.Description,
		Status:         string(e.Status),
		GeofenceZoneID: e.GeofenceZoneID,
		CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      e.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if e.GeofenceStatus != nil {
		status := string(*e.GeofenceStatus)
		resp.GeofenceStatus = &status
	}
	resp.GeofenceCheckedAt = formatTime(e.GeofenceCheckedAt)
	return resp
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
