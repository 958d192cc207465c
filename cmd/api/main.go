// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/niramoy/health-assistant/internal/config"
	"github.com/niramoy/health-assistant/internal/consultation"
	"github.com/niramoy/health-assistant/internal/gateway"
	"github.com/niramoy/health-assistant/internal/handler"
	"github.com/niramoy/health-assistant/internal/llm"
	"github.com/niramoy/health-assistant/internal/locale"
	"github.com/niramoy/health-assistant/internal/lookup"
	natsclient "github.com/niramoy/health-assistant/internal/nats"
	"github.com/niramoy/health-assistant/internal/service"
	"github.com/niramoy/health-assistant/internal/store"
	"github.com/niramoy/health-assistant/pkg/logger"
	"github.com/niramoy/health-assistant/pkg/tracing"
)

const evictionInterval = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("Starting API server", zap.String("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "health-assistant", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("Failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	// Persistence
	var st store.Store
	if cfg.MongoURI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		mongoStore, err := store.NewMongoStore(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		st = mongoStore
		log.Info("Using MongoDB store", zap.String("database", cfg.MongoDatabase))
	} else {
		st = store.NewMemoryStore()
		log.Warn("MONGO_URI not set, sessions and health records are kept in memory")
	}
	defer st.Close(context.Background())

	// Lookup cache
	var cache *lookup.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		cache = lookup.NewCache(rdb, cfg.LookupCacheTTL, log)
	}

	// Journal stream
	var (
		natsClient *natsclient.Client
		events     consultation.EventPublisher
		publisher  service.MessagePublisher
	)
	if cfg.NATSEnabled {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsClient.Close()

		streams := natsclient.NewStreamManager(natsClient)
		if err := streams.EnsureStream(ctx); err != nil {
			return fmt.Errorf("failed to ensure stream: %w", err)
		}
		events = streams
		publisher = streams
	}

	// Models
	llmClient, err := newLLMClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	registry, err := gateway.LoadRegistry(cfg.PromptsFile)
	if err != nil {
		return err
	}

	gw := gateway.New(llmClient, registry, gateway.Config{
		Model:   cfg.LLMModel,
		Retries: cfg.GatewayRetries,
		Timeout: cfg.GatewayTimeout,
	}, log)

	visionClient := llmClient
	if cfg.VisionAPIKey != "" {
		visionClient, err = llm.NewOpenAIClientWithBaseURL(cfg.VisionAPIKey, cfg.VisionBaseURL, cfg.VisionModel)
		if err != nil {
			return fmt.Errorf("failed to create vision client: %w", err)
		}
	} else {
		log.Warn("OPENROUTER_API_KEY not set, report analysis uses the default model")
	}
	vision := gateway.NewVisionAnalyzer(visionClient, registry, cfg.VisionModel, cfg.GatewayTimeout, log)

	// Lookups
	tavily := lookup.NewCachedSearcher(lookup.NewTavily(cfg.TavilyAPIKey), cache, "tavily")
	serp := lookup.NewCachedSearcher(lookup.NewSerpAPI(cfg.SerpAPIKey), cache, "serpapi")
	dictionary := lookup.NewCachedDictionary(lookup.NewMerriamWebster(cfg.DictionaryAPIKey), cache)

	lang := locale.Parse(cfg.Language)

	// Consultations
	manager := consultation.NewManager(consultation.Deps{
		Gateway:    gw,
		Sessions:   st,
		Events:     events,
		References: lookup.NewKnowledgeBase(),
		Logger:     log,
	}, cfg.ConsultationIdleTTL)
	defer manager.Close()
	go manager.Run(ctx, evictionInterval)

	// Services
	recorder := service.NewRecorder(st, publisher, log)
	inquirySvc := service.NewInquiryService(gw, gw, recorder, lang, log)
	recordSvc := service.NewRecordService(st, st, log)

	router := handler.NewRouter(handler.Handlers{
		Health:        handler.NewHealthHandler(st, natsClient),
		Consultations: handler.NewConsultationHandler(manager, lang, log),
		Sessions:      handler.NewSessionHandler(service.NewSessionService(st), recordSvc, log),
		Records:       handler.NewRecordHandler(recordSvc, log),
		Assistant: handler.NewAssistantHandler(
			inquirySvc,
			service.NewDrugService(tavily, gw, recorder, lang, log),
			service.NewSpecialistService(serp, gw, lang, log),
			service.NewDictionaryService(dictionary, gw, lang, log),
			service.NewReportService(vision, gw, recorder, lang, log),
			log,
		),
		Stream: handler.NewStreamHandler(inquirySvc, log),
	}, handler.RouterConfig{
		JWTSecret:         cfg.JWTSecret,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		CORSOrigins:       cfg.CORSOrigins,
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
	return nil
}

func newLLMClient(cfg *config.Config) (llm.Client, error) {
	switch llm.Provider(cfg.DefaultLLM) {
	case llm.ProviderAnthropic:
		if cfg.AnthropicAPIKey != "" {
			return llm.NewAnthropicClient(cfg.AnthropicAPIKey)
		}
	case llm.ProviderOpenAI:
		if cfg.OpenAIAPIKey != "" {
			return llm.NewOpenAIClient(cfg.OpenAIAPIKey)
		}
	}

	// Fall back to whichever key is configured.
	if cfg.OpenAIAPIKey != "" {
		return llm.NewClient(llm.ProviderOpenAI, cfg.OpenAIAPIKey)
	}
	return llm.NewClient(llm.ProviderAnthropic, cfg.AnthropicAPIKey)
}
