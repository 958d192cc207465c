package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/niramoy/health-assistant/internal/gateway"
	"github.com/niramoy/health-assistant/internal/llm"
	"github.com/niramoy/health-assistant/internal/locale"
	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/pkg/logger"
)

const maxInquiryHistory = 20

// InquiryService answers standalone health questions.
type InquiryService struct {
	gateway  gateway.Gateway
	streamer gateway.Streamer
	recorder *Recorder
	lang     locale.Language
	log      *logger.Logger
}

// NewInquiryService creates an inquiry service. streamer may be nil when
// streaming is not offered.
func NewInquiryService(gw gateway.Gateway, streamer gateway.Streamer, recorder *Recorder, lang locale.Language, log *logger.Logger) *InquiryService {
	return &InquiryService{
		gateway:  gw,
		streamer: streamer,
		recorder: recorder,
		lang:     lang,
		log:      log.Component("inquiry"),
	}
}

// Ask answers a question and records the exchange in a general-inquiry session.
func (s *InquiryService) Ask(ctx context.Context, userID string, req *model.InquiryRequest) (*model.InquiryResponse, error) {
	input, err := s.input(req)
	if err != nil {
		return nil, err
	}

	var out gateway.AnswerOutput
	if err := s.gateway.Invoke(ctx, gateway.PromptGeneralInquiry, input, &out); err != nil {
		return nil, fmt.Errorf("failed to answer inquiry: %w", err)
	}

	return &model.InquiryResponse{
		Answer:    out.Answer,
		SessionID: s.record(ctx, userID, req, out.Answer),
	}, nil
}

// Stream answers a question token by token. The exchange is recorded once the
// answer is complete.
func (s *InquiryService) Stream(ctx context.Context, userID string, req *model.InquiryRequest, onToken llm.StreamCallback) (*model.InquiryResponse, error) {
	if s.streamer == nil {
		return nil, fmt.Errorf("streaming: %w", gateway.ErrUnavailable)
	}

	input, err := s.input(req)
	if err != nil {
		return nil, err
	}

	answer, err := s.streamer.Stream(ctx, gateway.PromptGeneralInquiry, input, onToken)
	if err != nil {
		return nil, fmt.Errorf("failed to stream inquiry: %w", err)
	}

	return &model.InquiryResponse{
		Answer:    answer,
		SessionID: s.record(ctx, userID, req, answer),
	}, nil
}

func (s *InquiryService) input(req *model.InquiryRequest) (*gateway.GeneralInquiryInput, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrInvalidInput)
	}

	history := req.History
	if len(history) > maxInquiryHistory {
		history = history[len(history)-maxInquiryHistory:]
	}

	return &gateway.GeneralInquiryInput{
		Language: s.lang,
		Question: question,
		History:  history,
	}, nil
}

func (s *InquiryService) record(ctx context.Context, userID string, req *model.InquiryRequest, answer string) string {
	sessionID, err := s.recorder.Record(ctx, userID, req.SessionID, model.SessionGeneralInquiry, strings.TrimSpace(req.Question), answer)
	if err != nil {
		s.log.Warn("Failed to record inquiry", zap.Error(err))
	}
	return sessionID
}
