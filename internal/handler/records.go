package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/niramoy/health-assistant/internal/middleware"
	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/internal/service"
	"github.com/niramoy/health-assistant/pkg/logger"
)

// RecordHandler handles health record endpoints. Every route requires a user.
type RecordHandler struct {
	service *service.RecordService
	logger  *logger.Logger
}

// NewRecordHandler creates a new health record handler.
func NewRecordHandler(svc *service.RecordService, log *logger.Logger) *RecordHandler {
	return &RecordHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/v1/me/health-records?type=
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	recordType := model.RecordType(r.URL.Query().Get("type"))

	resp, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()), recordType)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Recent handles GET /api/v1/me/health-records/recent?limit=
func (h *RecordHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	resp, err := h.service.Recent(r.Context(), middleware.GetUserID(r.Context()), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/v1/me/health-records
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateHealthRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.service.Add(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// Update handles PUT /api/v1/me/health-records/{recordID}
func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateHealthRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title != nil {
		if err := middleware.ValidateTitle(*req.Title); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	rec, err := h.service.Update(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "recordID"), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Delete handles DELETE /api/v1/me/health-records/{recordID}
func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "recordID")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
