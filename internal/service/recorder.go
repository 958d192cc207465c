package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/internal/store"
	"github.com/niramoy/health-assistant/pkg/logger"
	"github.com/niramoy/health-assistant/pkg/metrics"
)

// MessagePublisher mirrors persisted messages to the event journal.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, msg *model.JournalMessage) error
}

// Recorder persists question/answer exchanges as sessions.
type Recorder struct {
	sessions  store.SessionStore
	publisher MessagePublisher
	log       *logger.Logger
	now       func() time.Time
}

// NewRecorder creates a recorder. publisher may be nil.
func NewRecorder(sessions store.SessionStore, publisher MessagePublisher, log *logger.Logger) *Recorder {
	return &Recorder{
		sessions:  sessions,
		publisher: publisher,
		log:       log.Component("recorder"),
		now:       time.Now,
	}
}

// Record appends a user message and the assistant's answer. A new session of
// sessionType is created unless sessionID names a session of that type the
// user may write to. It returns the session ID used.
func (r *Recorder) Record(ctx context.Context, userID, sessionID string, sessionType model.SessionType, question, answer string) (string, error) {
	sessionID = r.resolve(ctx, userID, sessionID, sessionType)
	if sessionID == "" {
		sessionID = uuid.Must(uuid.NewV7()).String()
		_, err := r.sessions.CreateSession(ctx, sessionID, userID, sessionType)
		metrics.RecordPersistence("create_session", err)
		if err != nil {
			return "", fmt.Errorf("failed to create session: %w", err)
		}
		metrics.SessionsTotal.WithLabelValues(string(sessionType)).Inc()
	}

	now := r.now()
	for _, msg := range []model.Message{
		{Role: model.RoleUser, Content: question, Timestamp: now},
		{Role: model.RoleAssistant, Content: answer, Timestamp: now},
	} {
		_, err := r.sessions.AppendMessage(ctx, sessionID, msg)
		metrics.RecordPersistence("append_message", err)
		if err != nil {
			return sessionID, fmt.Errorf("failed to append message: %w", err)
		}
		r.publish(ctx, sessionID, msg)
	}

	return sessionID, nil
}

func (r *Recorder) resolve(ctx context.Context, userID, sessionID string, sessionType model.SessionType) string {
	if sessionID == "" {
		return ""
	}
	sess, err := r.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return ""
	}
	if sess.Type != sessionType || sess.UserID != userID {
		return ""
	}
	return sessionID
}

func (r *Recorder) publish(ctx context.Context, sessionID string, msg model.Message) {
	if r.publisher == nil {
		return
	}
	err := r.publisher.PublishMessage(ctx, &model.JournalMessage{
		SessionID: sessionID,
		Role:      msg.Role,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	})
	if err != nil {
		metrics.JournalPublishFailures.WithLabelValues("message").Inc()
		r.log.Warn("Failed to publish message", zap.String("session_id", sessionID), zap.Error(err))
	}
}
