package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/niramoy/health-assistant/internal/model"
)

// MemoryStore is an in-process Store used for development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
	activity map[string]*model.UserSession
	records  map[string]*model.HealthRecord
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*model.Session),
		activity: make(map[string]*model.UserSession),
		records:  make(map[string]*model.HealthRecord),
		now:      time.Now,
	}
}

// CreateSession inserts an empty session.
func (s *MemoryStore) CreateSession(ctx context.Context, sessionID, userID string, sessionType model.SessionType) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; exists {
		return "", ErrSessionExists
	}

	now := s.now()
	s.sessions[sessionID] = &model.Session{
		SessionID: sessionID,
		UserID:    userID,
		Type:      sessionType,
		Messages:  []model.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.activity[sessionID] = &model.UserSession{
		SessionID:    sessionID,
		UserID:       userID,
		IsGuest:      userID == "",
		LastActivity: now,
		CreatedAt:    now,
	}

	return sessionID, nil
}

// AppendMessage appends a message. Timestamps are clamped so they never move
// backwards within a session.
func (s *MemoryStore) AppendMessage(ctx context.Context, sessionID string, msg model.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[sessionID]
	if !exists {
		return "", ErrSessionNotFound
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	if n := len(sess.Messages); n > 0 && msg.Timestamp.Before(sess.Messages[n-1].Timestamp) {
		msg.Timestamp = sess.Messages[n-1].Timestamp
	}

	sess.Messages = append(sess.Messages, msg)
	sess.UpdatedAt = s.now()

	if act, ok := s.activity[sessionID]; ok {
		act.LastActivity = sess.UpdatedAt
	}

	return sessionID, nil
}

// GetSession returns a copy of the session.
func (s *MemoryStore) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}

	return copySession(sess), nil
}

// ListUserSessions returns the user's sessions, newest first.
func (s *MemoryStore) ListUserSessions(ctx context.Context, userID string, sessionType model.SessionType) ([]model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Session
	for _, sess := range s.sessions {
		if sess.UserID != userID || userID == "" {
			continue
		}
		if sessionType != "" && sess.Type != sessionType {
			continue
		}
		out = append(out, *copySession(sess))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

// UserSession returns activity tracking for a session.
func (s *MemoryStore) UserSession(sessionID string) (*model.UserSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	act, ok := s.activity[sessionID]
	if !ok {
		return nil, false
	}
	cp := *act
	return &cp, true
}

// AddRecord stores a health record, assigning an ID and timestamps.
func (s *MemoryStore) AddRecord(ctx context.Context, rec *model.HealthRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	if cp.ID == "" {
		cp.ID = uuid.Must(uuid.NewV7()).String()
	}
	now := s.now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.records[cp.ID] = &cp

	rec.ID = cp.ID
	rec.CreatedAt = cp.CreatedAt
	rec.UpdatedAt = cp.UpdatedAt

	return cp.ID, nil
}

// UpdateRecord patches a record owned by userID.
func (s *MemoryStore) UpdateRecord(ctx context.Context, userID, recordID string, req *model.UpdateHealthRecordRequest) (*model.HealthRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[recordID]
	if !exists || rec.UserID != userID {
		return nil, ErrRecordNotFound
	}

	if req.Title != nil {
		rec.Title = *req.Title
	}
	if req.Description != nil {
		rec.Description = *req.Description
	}
	if req.Data != nil {
		rec.Data = req.Data
	}
	rec.UpdatedAt = s.now()

	cp := *rec
	return &cp, nil
}

// DeleteRecord removes a record owned by userID.
func (s *MemoryStore) DeleteRecord(ctx context.Context, userID, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[recordID]
	if !exists || rec.UserID != userID {
		return ErrRecordNotFound
	}
	delete(s.records, recordID)
	return nil
}

// ListRecords returns the user's records, newest first.
func (s *MemoryStore) ListRecords(ctx context.Context, userID string, recordType model.RecordType, limit int) ([]model.HealthRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.HealthRecord
	for _, rec := range s.records {
		if rec.UserID != userID {
			continue
		}
		if recordType != "" && rec.Type != recordType {
			continue
		}
		out = append(out, *rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

func copySession(sess *model.Session) *model.Session {
	cp := *sess
	cp.Messages = make([]model.Message, len(sess.Messages))
	copy(cp.Messages, sess.Messages)
	return &cp
}
