package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/niramoy/health-assistant/internal/gateway"
	"github.com/niramoy/health-assistant/internal/locale"
	"github.com/niramoy/health-assistant/internal/lookup"
	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/pkg/logger"
)

// SpecialistService suggests a specialty and lists nearby providers.
type SpecialistService struct {
	search  lookup.Searcher
	gateway gateway.Gateway
	lang    locale.Language
	log     *logger.Logger
}

// NewSpecialistService creates a specialist finder.
func NewSpecialistService(search lookup.Searcher, gw gateway.Gateway, lang locale.Language, log *logger.Logger) *SpecialistService {
	return &SpecialistService{
		search:  search,
		gateway: gw,
		lang:    lang,
		log:     log.Component("specialists"),
	}
}

// Find picks a specialty for the symptoms, searches for it in the given
// location and writes a report. An empty search still yields a report.
func (s *SpecialistService) Find(ctx context.Context, req *model.SpecialistRequest) (*model.SpecialistReport, error) {
	req = &model.SpecialistRequest{
		Symptoms: strings.TrimSpace(req.Symptoms),
		City:     strings.TrimSpace(req.City),
		State:    strings.TrimSpace(req.State),
		Country:  strings.TrimSpace(req.Country),
	}
	if req.Symptoms == "" || req.City == "" || req.State == "" || req.Country == "" {
		return nil, fmt.Errorf("%w: symptoms, city, state and country are required", ErrInvalidInput)
	}

	var kind gateway.SpecialistTypeOutput
	err := s.gateway.Invoke(ctx, gateway.PromptSpecialistType, &gateway.SpecialistTypeInput{
		Language: s.lang,
		Symptoms: req.Symptoms,
	}, &kind)
	if err != nil {
		return nil, fmt.Errorf("failed to determine specialty: %w", err)
	}
	specialty := strings.TrimSpace(kind.Specialty)

	location := fmt.Sprintf("%s, %s, %s", req.City, req.State, req.Country)
	results, err := s.search.Search(ctx, fmt.Sprintf("%s in %s", specialty, location))
	if err != nil {
		s.log.Warn("Specialist search failed", zap.String("specialty", specialty), zap.Error(err))
		results = nil
	}

	var report gateway.SpecialistReportOutput
	err = s.gateway.Invoke(ctx, gateway.PromptSpecialistReport, &gateway.SpecialistReportInput{
		Language:  s.lang,
		Symptoms:  req.Symptoms,
		Specialty: specialty,
		Location:  location,
		Results:   results,
	}, &report)
	if err != nil {
		return nil, fmt.Errorf("failed to write specialist report: %w", err)
	}

	return &model.SpecialistReport{
		Specialty: specialty,
		Report:    report.Report,
	}, nil
}
