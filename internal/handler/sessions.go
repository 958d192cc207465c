package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/niramoy/health-assistant/internal/middleware"
	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/internal/service"
	"github.com/niramoy/health-assistant/pkg/logger"
)

// SessionHandler serves stored conversations.
type SessionHandler struct {
	sessions *service.SessionService
	records  *service.RecordService
	logger   *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions *service.SessionService, records *service.RecordService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		records:  records,
		logger:   log,
	}
}

// Get handles GET /api/v1/sessions/{sessionID}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := middleware.ValidateID("session ID", sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := h.sessions.Get(r.Context(), middleware.GetUserID(r.Context()), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// List handles GET /api/v1/me/sessions?type=
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessionType := model.SessionType(r.URL.Query().Get("type"))

	resp, err := h.sessions.List(r.Context(), middleware.GetUserID(r.Context()), sessionType)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ExtractInsights handles POST /api/v1/me/sessions/{sessionID}/insights
func (h *SessionHandler) ExtractInsights(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := middleware.ValidateID("session ID", sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.records.ExtractInsights(r.Context(), middleware.GetUserID(r.Context()), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}
