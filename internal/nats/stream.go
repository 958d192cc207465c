package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/niramoy/health-assistant/internal/model"
)

const (
	// StreamName is the name of the consultation journal stream.
	StreamName = "CONSULTATIONS"

	// SubjectPrefix is the prefix for all journal subjects.
	SubjectPrefix = "consult"
)

// Publisher is the part of JetStream the journal needs.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// StreamManager publishes transcript appends and pipeline events.
type StreamManager struct {
	client *Client
	js     Publisher
}

// NewStreamManager creates a stream manager on a connected client.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client, js: client.JetStream()}
}

// NewStreamManagerWithPublisher creates a stream manager that publishes through p.
func NewStreamManagerWithPublisher(p Publisher) *StreamManager {
	return &StreamManager{js: p}
}

// EnsureStream creates the journal stream when it does not exist.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour,
		MaxBytes:    10 * 1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Duplicates:  2 * time.Minute,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "Consultation transcript appends and pipeline events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// MessageSubject returns the subject for a transcript append.
func MessageSubject(sessionID string, role model.Role) string {
	return fmt.Sprintf("%s.%s.msg.%s", SubjectPrefix, sessionID, role)
}

// EventSubject returns the subject for a pipeline event.
func EventSubject(sessionID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.event.%s", SubjectPrefix, sessionID, eventType)
}

// SessionFilter matches everything journaled for a session.
func SessionFilter(sessionID string) string {
	return fmt.Sprintf("%s.%s.>", SubjectPrefix, sessionID)
}

// PublishMessage publishes a transcript append.
func (m *StreamManager) PublishMessage(ctx context.Context, msg *model.JournalMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if _, err := m.js.Publish(ctx, MessageSubject(msg.SessionID, msg.Role), data); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// PublishEvent publishes a pipeline event. The event ID is the JetStream
// message ID so redeliveries within the duplicate window are dropped.
func (m *StreamManager) PublishEvent(ctx context.Context, event *model.ConsultationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var opts []jetstream.PublishOpt
	if event.ID != "" {
		opts = append(opts, jetstream.WithMsgID(event.ID))
	}

	if _, err := m.js.Publish(ctx, EventSubject(event.SessionID, event.Type), data, opts...); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
