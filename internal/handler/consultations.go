package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/niramoy/health-assistant/internal/consultation"
	"github.com/niramoy/health-assistant/internal/locale"
	"github.com/niramoy/health-assistant/internal/middleware"
	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/pkg/logger"
)

// ConsultationHandler handles the guided consultation endpoints.
type ConsultationHandler struct {
	manager *consultation.Manager
	lang    locale.Language
	logger  *logger.Logger
}

// NewConsultationHandler creates a new consultation handler. lang is used when
// a request names no language.
func NewConsultationHandler(manager *consultation.Manager, lang locale.Language, log *logger.Logger) *ConsultationHandler {
	return &ConsultationHandler{
		manager: manager,
		lang:    lang,
		logger:  log.Component("consultation_handler"),
	}
}

// consultationResponse is a snapshot plus an optional warning or error.
type consultationResponse struct {
	consultation.Snapshot
	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Create handles POST /api/v1/consultations
func (h *ConsultationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateConsultationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lang := h.lang
	if req.Language != "" {
		lang = locale.Parse(req.Language)
	}

	p := h.manager.Create(middleware.GetUserID(r.Context()), lang)
	writeJSON(w, http.StatusCreated, consultationResponse{Snapshot: p.Snapshot()})
}

// Get handles GET /api/v1/consultations/{id}
func (h *ConsultationHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.pipeline(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, consultationResponse{Snapshot: p.Snapshot()})
}

// SubmitDetails handles POST /api/v1/consultations/{id}/details
func (h *ConsultationHandler) SubmitDetails(w http.ResponseWriter, r *http.Request) {
	p, ok := h.pipeline(w, r)
	if !ok {
		return
	}

	var req model.PatientDetails
	if !decodeJSON(w, r, &req) {
		return
	}
	for _, f := range []struct {
		name, value string
		max         int
	}{
		{"patientName", req.PatientName, middleware.MaxNameLength},
		{"patientGender", req.PatientGender, middleware.MaxNameLength},
		{"symptoms", req.Symptoms, middleware.MaxTextLength},
	} {
		if err := middleware.ValidateText(f.name, f.value, f.max); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	snap, err := p.SubmitDetails(r.Context(), req)
	h.respond(w, p, snap, err)
}

// SubmitAnswer handles POST /api/v1/consultations/{id}/answers
func (h *ConsultationHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	p, ok := h.pipeline(w, r)
	if !ok {
		return
	}

	var req model.AnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.ValidateText("answer", req.Answer, middleware.MaxTextLength); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := p.SubmitAnswer(r.Context(), req.Answer)
	h.respond(w, p, snap, err)
}

// AskQuestion handles POST /api/v1/consultations/{id}/questions
func (h *ConsultationHandler) AskQuestion(w http.ResponseWriter, r *http.Request) {
	p, ok := h.pipeline(w, r)
	if !ok {
		return
	}

	var req model.QuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.ValidateText("question", req.Question, middleware.MaxTextLength); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := p.AskQuestion(r.Context(), req.Question)
	h.respond(w, p, snap, err)
}

// Reset handles POST /api/v1/consultations/{id}/reset
func (h *ConsultationHandler) Reset(w http.ResponseWriter, r *http.Request) {
	p, ok := h.pipeline(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, consultationResponse{Snapshot: p.Reset(r.Context())})
}

// Report handles GET /api/v1/consultations/{id}/report
func (h *ConsultationHandler) Report(w http.ResponseWriter, r *http.Request) {
	p, ok := h.pipeline(w, r)
	if !ok {
		return
	}

	report, err := p.Report()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="diagnosis-report.txt"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(report))
}

func (h *ConsultationHandler) pipeline(w http.ResponseWriter, r *http.Request) (*consultation.Pipeline, bool) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID("consultation ID", id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	p, err := h.manager.Get(id, middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	return p, true
}

// respond writes the snapshot of a transition. Failed transitions still carry
// the current snapshot so the client can resynchronize.
func (h *ConsultationHandler) respond(w http.ResponseWriter, p *consultation.Pipeline, snap consultation.Snapshot, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, consultationResponse{Snapshot: snap})
		return
	}

	if errors.Is(err, consultation.ErrDiagnosisUnavailable) {
		writeJSON(w, http.StatusOK, consultationResponse{Snapshot: snap, Warning: err.Error()})
		return
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Consultation transition failed",
			zap.String("consultation_id", p.ID()),
			zap.Error(err),
		)
	}
	writeJSON(w, status, consultationResponse{Snapshot: snap, Error: messageFor(err, status)})
}
