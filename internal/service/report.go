package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/niramoy/health-assistant/internal/gateway"
	"github.com/niramoy/health-assistant/internal/locale"
	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/pkg/logger"
)

const reportPlaceholder = "[Medical report image]"

// ReportService explains a photographed medical report.
type ReportService struct {
	vision   gateway.ImageAnalyzer
	gateway  gateway.Gateway
	recorder *Recorder
	lang     locale.Language
	log      *logger.Logger
}

// NewReportService creates a report analyzer.
func NewReportService(vision gateway.ImageAnalyzer, gw gateway.Gateway, recorder *Recorder, lang locale.Language, log *logger.Logger) *ReportService {
	return &ReportService{
		vision:   vision,
		gateway:  gw,
		recorder: recorder,
		lang:     lang,
		log:      log.Component("reports"),
	}
}

// Analyze reads the report with the vision model, then explains the reading in
// plain language.
func (s *ReportService) Analyze(ctx context.Context, userID string, req *model.ReportAnalysisRequest) (*model.ReportAnalysis, error) {
	if err := gateway.ValidateImageDataURI(req.ImageDataURI); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	technical, err := s.vision.AnalyzeImage(ctx, req.ImageDataURI)
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidImage) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var out gateway.ReportExplanationOutput
	err = s.gateway.Invoke(ctx, gateway.PromptReportExplanation, &gateway.ReportExplanationInput{
		Language:          s.lang,
		TechnicalAnalysis: technical,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to explain report: %w", err)
	}

	result := &model.ReportAnalysis{Analysis: out.Analysis}
	result.SessionID, err = s.recorder.Record(ctx, userID, "", model.SessionReportAnalyzer, reportPlaceholder, out.Analysis)
	if err != nil {
		s.log.Warn("Failed to record report analysis", zap.Error(err))
	}
	return result, nil
}
