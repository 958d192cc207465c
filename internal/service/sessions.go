package service

import (
	"context"
	"fmt"

	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/internal/store"
)

// SessionService reads stored conversations.
type SessionService struct {
	sessions store.SessionStore
}

// NewSessionService creates a session reader.
func NewSessionService(sessions store.SessionStore) *SessionService {
	return &SessionService{sessions: sessions}
}

// Get returns a session. Guest sessions are readable by anyone holding the ID;
// owned sessions only by their owner.
func (s *SessionService) Get(ctx context.Context, userID, sessionID string) (*model.Session, error) {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if !sess.IsGuest() && sess.UserID != userID {
		return nil, ErrNotFound
	}
	return sess, nil
}

// List returns the user's sessions, newest first, optionally of one type.
func (s *SessionService) List(ctx context.Context, userID string, sessionType model.SessionType) (*model.ListSessionsResponse, error) {
	if sessionType != "" && !sessionType.Valid() {
		return nil, fmt.Errorf("%w: unknown session type %q", ErrInvalidInput, sessionType)
	}

	sessions, err := s.sessions.ListUserSessions(ctx, userID, sessionType)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	return &model.ListSessionsResponse{Sessions: sessions, Total: len(sessions)}, nil
}
