package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/niramoy/health-assistant/internal/middleware"
	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/internal/service"
	"github.com/niramoy/health-assistant/pkg/logger"
)

// AssistantHandler handles the single-shot assistant features.
type AssistantHandler struct {
	inquiry     *service.InquiryService
	drugs       *service.DrugService
	specialists *service.SpecialistService
	dictionary  *service.DictionaryService
	reports     *service.ReportService
	logger      *logger.Logger
}

// NewAssistantHandler creates a new assistant handler.
func NewAssistantHandler(
	inquiry *service.InquiryService,
	drugs *service.DrugService,
	specialists *service.SpecialistService,
	dictionary *service.DictionaryService,
	reports *service.ReportService,
	log *logger.Logger,
) *AssistantHandler {
	return &AssistantHandler{
		inquiry:     inquiry,
		drugs:       drugs,
		specialists: specialists,
		dictionary:  dictionary,
		reports:     reports,
		logger:      log,
	}
}

// Inquire handles POST /api/v1/inquiries
func (h *AssistantHandler) Inquire(w http.ResponseWriter, r *http.Request) {
	var req model.InquiryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.ValidateText("question", req.Question, middleware.MaxTextLength); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.inquiry.Ask(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Drug handles GET /api/v1/drugs/{name}
func (h *AssistantHandler) Drug(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := middleware.ValidateText("drug name", name, 200); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.drugs.Info(r.Context(), middleware.GetUserID(r.Context()), name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Specialists handles POST /api/v1/specialists/search
func (h *AssistantHandler) Specialists(w http.ResponseWriter, r *http.Request) {
	var req model.SpecialistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.ValidateText("symptoms", req.Symptoms, middleware.MaxTextLength); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.specialists.Find(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Dictionary handles GET /api/v1/dictionary/{term}
func (h *AssistantHandler) Dictionary(w http.ResponseWriter, r *http.Request) {
	term := chi.URLParam(r, "term")
	if err := middleware.ValidateText("term", term, 200); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.dictionary.Define(r.Context(), term)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// AnalyzeReport handles POST /api/v1/reports/analyze
func (h *AssistantHandler) AnalyzeReport(w http.ResponseWriter, r *http.Request) {
	var req model.ReportAnalysisRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.ImageDataURI) > middleware.MaxImageLength {
		writeError(w, http.StatusRequestEntityTooLarge, "image is too large")
		return
	}

	result, err := h.reports.Analyze(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
