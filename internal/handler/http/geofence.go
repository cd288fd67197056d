package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/events"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/sse"
	"github.com/go-chi/chi/v5"
)

type GeofenceHandler interface {
	// Zones
	ListZones(w http.ResponseWriter, r *http.Request)
	GetZone(w http.ResponseWriter, r *http.Request)
	CreateZone(w http.ResponseWriter, r *http.Request)
	UpdateZone(w http.ResponseWriter, r *http.Request)
	DeleteZone(w http.ResponseWriter, r *http.Request)
	ToggleZone(w http.ResponseWriter, r *http.Request)

	// Validation & reporting
	ValidateLocation(w http.ResponseWriter, r *http.Request)
	Statistics(w http.ResponseWriter, r *http.Request)
	Coverage(w http.ResponseWriter, r *http.Request)

	// Violations
	ListViolations(w http.ResponseWriter, r *http.Request)
	AcknowledgeViolation(w http.ResponseWriter, r *http.Request)
	StreamViolations(w http.ResponseWriter, r *http.Request)
}

type geofenceHandlerImpl struct {
	zoneService      geofence.ZoneService
	validator        geofence.LocationValidator
	violationService geofence.ViolationService
	coverageService  geofence.CoverageService
	hub              *sse.Hub
}

func NewGeofenceHandler(
	zoneService geofence.ZoneService,
	validator geofence.LocationValidator,
	violationService geofence.ViolationService,
	coverageService geofence.CoverageService,
	hub *sse.Hub,
) GeofenceHandler {
	return &geofenceHandlerImpl{
		zoneService:      zoneService,
		validator:        validator,
		violationService: violationService,
		coverageService:  coverageService,
		hub:              hub,
	}
}

// queryString returns a pointer to a non-empty query parameter
func queryString(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

// getIntQueryParam gets an int query parameter with a default value
func getIntQueryParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

// ListZones implements GeofenceHandler.
func (h *geofenceHandlerImpl) ListZones(w http.ResponseWriter, r *http.Request) {
	filter := geofence.ZoneFilter{
		ProjectID:   queryString(r, "project_id"),
		ZoneType:    queryString(r, "zone_type"),
		ZonePurpose: queryString(r, "zone_purpose"),
		Search:      queryString(r, "search"),
		Page:        getIntQueryParam(r, "page", 1),
		Limit:       getIntQueryParam(r, "limit", 15),
	}
	if active := r.URL.Query().Get("active"); active != "" {
		isActive, err := strconv.ParseBool(active)
		if err != nil {
			response.BadRequest(w, "active must be true or false", nil)
			return
		}
		filter.IsActive = &isActive
	}

	zones, err := h.zoneService.ListZones(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, zones.Zones, &response.Meta{
		Page:       zones.Page,
		Limit:      zones.Limit,
		TotalItems: zones.TotalCount,
		TotalPages: zones.TotalPages,
	})
}

// GetZone implements GeofenceHandler.
func (h *geofenceHandlerImpl) GetZone(w http.ResponseWriter, r *http.Request) {
	zone, err := h.zoneService.GetZone(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, zone)
}

// CreateZone implements GeofenceHandler.
func (h *geofenceHandlerImpl) CreateZone(w http.ResponseWriter, r *http.Request) {
	var req geofence.CreateZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateZone decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	zone, err := h.zoneService.CreateZone(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Geofence zone created successfully", zone)
}

// UpdateZone implements GeofenceHandler.
func (h *geofenceHandlerImpl) UpdateZone(w http.ResponseWriter, r *http.Request) {
	var req geofence.UpdateZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("UpdateZone decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	zone, err := h.zoneService.UpdateZone(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Geofence zone updated successfully", zone)
}

// DeleteZone implements GeofenceHandler.
func (h *geofenceHandlerImpl) DeleteZone(w http.ResponseWriter, r *http.Request) {
	if err := h.zoneService.DeleteZone(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Geofence zone deleted successfully", nil)
}

// ToggleZone implements GeofenceHandler.
func (h *geofenceHandlerImpl) ToggleZone(w http.ResponseWriter, r *http.Request) {
	zone, err := h.zoneService.ToggleZoneActive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Geofence zone status updated", zone)
}

// ValidateLocation implements GeofenceHandler. The check is read-only.
func (h *geofenceHandlerImpl) ValidateLocation(w http.ResponseWriter, r *http.Request) {
	var req geofence.ValidateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("ValidateLocation decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.validator.ValidateLocation(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// Statistics implements GeofenceHandler.
func (h *geofenceHandlerImpl) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.violationService.Statistics(r.Context(), geofence.StatisticsFilter{
		ProjectID:  queryString(r, "project_id"),
		EmployeeID: queryString(r, "employee_id"),
		DateFrom:   queryString(r, "date_from"),
		DateTo:     queryString(r, "date_to"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, stats)
}

// Coverage implements GeofenceHandler.
func (h *geofenceHandlerImpl) Coverage(w http.ResponseWriter, r *http.Request) {
	coverage, err := h.coverageService.WorkAreaCoverage(r.Context(), geofence.CoverageFilter{
		ProjectID: queryString(r, "project_id"),
		DateFrom:  queryString(r, "date_from"),
		DateTo:    queryString(r, "date_to"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, coverage)
}

// ListViolations implements GeofenceHandler.
func (h *geofenceHandlerImpl) ListViolations(w http.ResponseWriter, r *http.Request) {
	violations, err := h.violationService.RecentViolations(r.Context(), geofence.RecentViolationsFilter{
		Limit:     getIntQueryParam(r, "limit", 50),
		ProjectID: queryString(r, "project_id"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, violations)
}

// AcknowledgeViolation implements GeofenceHandler.
func (h *geofenceHandlerImpl) AcknowledgeViolation(w http.ResponseWriter, r *http.Request) {
	violation, err := h.violationService.Acknowledge(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Geofence violation acknowledged", violation)
}

// StreamViolations pushes violations over SSE as they are recorded. With
// ?project_id= only that project's violations are sent.
func (h *geofenceHandlerImpl) StreamViolations(w http.ResponseWriter, r *http.Request) {
	// Check if streaming is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	topic := events.AllViolationsTopic
	if projectID := r.URL.Query().Get("project_id"); projectID != "" {
		topic = events.ProjectViolationsTopic(projectID)
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	stream, cleanup := h.hub.Subscribe(topic)
	defer cleanup()

	// Send initial connection event
	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"topic\":%q}\n\n", topic)
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-stream:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Error("failed to encode violation event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
