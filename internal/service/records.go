package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/niramoy/health-assistant/internal/health"
	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/internal/store"
	"github.com/niramoy/health-assistant/pkg/logger"
)

// DefaultRecentRecords is the page size for recent health records.
const DefaultRecentRecords = 10

// RecordService manages a user's health records.
type RecordService struct {
	records  store.HealthStore
	sessions store.SessionStore
	log      *logger.Logger
}

// NewRecordService creates a health record service.
func NewRecordService(records store.HealthStore, sessions store.SessionStore, log *logger.Logger) *RecordService {
	return &RecordService{
		records:  records,
		sessions: sessions,
		log:      log.Component("records"),
	}
}

// Add stores a new record for the user.
func (s *RecordService) Add(ctx context.Context, userID string, req *model.CreateHealthRecordRequest) (*model.HealthRecord, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown record type %q", ErrInvalidInput, req.Type)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	rec := &model.HealthRecord{
		UserID:      userID,
		Type:        req.Type,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Data:        req.Data,
	}
	if _, err := s.records.AddRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to add record: %w", err)
	}
	return rec, nil
}

// Update patches a record the user owns.
func (s *RecordService) Update(ctx context.Context, userID, recordID string, req *model.UpdateHealthRecordRequest) (*model.HealthRecord, error) {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}

	rec, err := s.records.UpdateRecord(ctx, userID, recordID, req)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return rec, nil
}

// Delete removes a record the user owns.
func (s *RecordService) Delete(ctx context.Context, userID, recordID string) error {
	return mapStoreErr(s.records.DeleteRecord(ctx, userID, recordID))
}

// List returns the user's records, newest first, optionally of one type.
func (s *RecordService) List(ctx context.Context, userID string, recordType model.RecordType) (*model.ListHealthRecordsResponse, error) {
	if recordType != "" && !recordType.Valid() {
		return nil, fmt.Errorf("%w: unknown record type %q", ErrInvalidInput, recordType)
	}
	return s.list(ctx, userID, recordType, 0)
}

// Recent returns the user's newest records. limit <= 0 uses DefaultRecentRecords.
func (s *RecordService) Recent(ctx context.Context, userID string, limit int) (*model.ListHealthRecordsResponse, error) {
	if limit <= 0 {
		limit = DefaultRecentRecords
	}
	return s.list(ctx, userID, "", limit)
}

func (s *RecordService) list(ctx context.Context, userID string, recordType model.RecordType, limit int) (*model.ListHealthRecordsResponse, error) {
	records, err := s.records.ListRecords(ctx, userID, recordType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	if records == nil {
		records = []model.HealthRecord{}
	}
	return &model.ListHealthRecordsResponse{Records: records, Total: len(records)}, nil
}

// ExtractInsights scans one of the user's sessions for health information and
// saves what it finds as records.
func (s *RecordService) ExtractInsights(ctx context.Context, userID, sessionID string) (*model.ExtractInsightsResponse, error) {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if sess.UserID == "" || sess.UserID != userID {
		return nil, ErrNotFound
	}

	resp := &model.ExtractInsightsResponse{SavedRecords: []string{}}
	for _, rec := range health.Extract(sess, userID) {
		id, err := s.records.AddRecord(ctx, &rec)
		if err != nil {
			return resp, fmt.Errorf("failed to save insight: %w", err)
		}
		resp.SavedRecords = append(resp.SavedRecords, id)
		resp.ExtractedInsights++
	}

	s.log.Info("Extracted health insights",
		zap.String("session_id", sessionID),
		zap.Int("count", resp.ExtractedInsights),
	)
	return resp, nil
}

func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrRecordNotFound), errors.Is(err, store.ErrSessionNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return err
	}
}
