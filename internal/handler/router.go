package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/niramoy/health-assistant/internal/middleware"
	"github.com/niramoy/health-assistant/pkg/logger"
)

// Handlers are the endpoint groups mounted by NewRouter.
type Handlers struct {
	Health        *HealthHandler
	Consultations *ConsultationHandler
	Sessions      *SessionHandler
	Records       *RecordHandler
	Assistant     *AssistantHandler
	Stream        *StreamHandler
}

// RouterConfig configures authentication and rate limiting.
type RouterConfig struct {
	JWTSecret         string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSOrigins       []string
}

// NewRouter builds the API router.
func NewRouter(h Handlers, cfg RouterConfig, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins...))

	// Health endpoints (no auth required)
	r.Get("/health", h.Health.Health)
	r.Get("/ready", h.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Guests and signed-in users
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWTSecret))
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

			r.Route("/consultations", func(r chi.Router) {
				r.Post("/", h.Consultations.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Consultations.Get)
					r.Post("/details", h.Consultations.SubmitDetails)
					r.Post("/answers", h.Consultations.SubmitAnswer)
					r.Post("/questions", h.Consultations.AskQuestion)
					r.Post("/reset", h.Consultations.Reset)
					r.Get("/report", h.Consultations.Report)
				})
			})

			r.Get("/sessions/{sessionID}", h.Sessions.Get)

			r.Post("/inquiries", h.Assistant.Inquire)
			r.Post("/inquiries/stream", h.Stream.Inquire)
			r.Get("/drugs/{name}", h.Assistant.Drug)
			r.Post("/specialists/search", h.Assistant.Specialists)
			r.Get("/dictionary/{term}", h.Assistant.Dictionary)
			r.Post("/reports/analyze", h.Assistant.AnalyzeReport)
		})

		// Signed-in users only
		r.Route("/me", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

			r.Get("/sessions", h.Sessions.List)
			r.Post("/sessions/{sessionID}/insights", h.Sessions.ExtractInsights)

			r.Route("/health-records", func(r chi.Router) {
				r.Get("/", h.Records.List)
				r.Post("/", h.Records.Create)
				r.Get("/recent", h.Records.Recent)
				r.Put("/{recordID}", h.Records.Update)
				r.Delete("/{recordID}", h.Records.Delete)
			})
		})
	})

	return r
}
