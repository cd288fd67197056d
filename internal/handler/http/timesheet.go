package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
)

type TimesheetHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	BulkCreate(w http.ResponseWriter, r *http.Request)
	CheckDuplicate(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
}

type timesheetHandlerImpl struct {
	timesheetService timesheet.TimesheetService
}

func NewTimesheetHandler(timesheetService timesheet.TimesheetService) TimesheetHandler {
	return &timesheetHandlerImpl{timesheetService: timesheetService}
}

// scopeEmployee pins employee callers to their own employee ID. Managers and
// owners may act for anyone.
func scopeEmployee(r *http.Request, employeeID *string) error {
	actor, err := jwt.ActorFromContext(r.Context())
	if err != nil {
		return err
	}
	if actor.IsManager() {
		return nil
	}
	if actor.EmployeeID == nil {
		return user.ErrInsufficientPermissions
	}
	if *employeeID == "" {
		*employeeID = *actor.EmployeeID
		return nil
	}
	if *employeeID != *actor.EmployeeID {
		return user.ErrInsufficientPermissions
	}
	return nil
}

// Create implements TimesheetHandler.
func (h *timesheetHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req timesheet.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateTimesheet decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := scopeEmployee(r, &req.EmployeeID); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.timesheetService.CreateEntry(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Timesheet entry created successfully", result)
}

// BulkCreate implements TimesheetHandler.
func (h *timesheetHandlerImpl) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var req timesheet.BulkCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("BulkCreateTimesheet decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := scopeEmployee(r, &req.EmployeeID); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.timesheetService.BulkCreateEntries(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Timesheet entries created successfully", result)
}

// CheckDuplicate implements TimesheetHandler.
func (h *timesheetHandlerImpl) CheckDuplicate(w http.ResponseWriter, r *http.Request) {
	req := timesheet.CheckDuplicateRequest{
		EmployeeID: r.URL.Query().Get("employee_id"),
		Date:       r.URL.Query().Get("date"),
		ExcludeID:  queryString(r, "exclude_id"),
	}
	if err := scopeEmployee(r, &req.EmployeeID); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.timesheetService.CheckDuplicate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// Get implements TimesheetHandler.
func (h *timesheetHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.timesheetService.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	employeeID := entry.EmployeeID
	if err := scopeEmployee(r, &employeeID); err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, entry)
}

// Update implements TimesheetHandler.
func (h *timesheetHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req timesheet.UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("UpdateTimesheet decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	current, err := h.timesheetService.GetEntry(r.Context(), req.ID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	owner := current.EmployeeID
	if err := scopeEmployee(r, &owner); err != nil {
		response.HandleError(w, err)
		return
	}
	if err := scopeEmployee(r, &req.EmployeeID); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.timesheetService.UpdateEntry(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Timesheet entry updated successfully", result)
}
