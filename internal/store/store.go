// Package store persists chat sessions and health records.
package store

import (
	"context"
	"errors"

	"github.com/niramoy/health-assistant/internal/model"
)

var (
	// ErrSessionNotFound is returned when no session has the given identifier.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned when a session identifier is reused.
	ErrSessionExists = errors.New("session already exists")
	// ErrRecordNotFound is returned when a health record is missing or owned by another user.
	ErrRecordNotFound = errors.New("health record not found")
)

// SessionStore is the durable record of chat sessions. Lookup by session
// identifier is unique.
type SessionStore interface {
	// CreateSession inserts an empty session and returns its identifier.
	CreateSession(ctx context.Context, sessionID, userID string, sessionType model.SessionType) (string, error)
	// AppendMessage appends msg to the session and refreshes updated_at.
	AppendMessage(ctx context.Context, sessionID string, msg model.Message) (string, error)
	// GetSession returns the session or ErrSessionNotFound.
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
	// ListUserSessions returns the user's sessions, newest first. An empty
	// sessionType matches every type.
	ListUserSessions(ctx context.Context, userID string, sessionType model.SessionType) ([]model.Session, error)
}

// HealthStore persists health records.
type HealthStore interface {
	AddRecord(ctx context.Context, rec *model.HealthRecord) (string, error)
	UpdateRecord(ctx context.Context, userID, recordID string, req *model.UpdateHealthRecordRequest) (*model.HealthRecord, error)
	DeleteRecord(ctx context.Context, userID, recordID string) error
	// ListRecords returns the user's records, newest first. An empty recordType
	// matches every type; limit <= 0 returns all.
	ListRecords(ctx context.Context, userID string, recordType model.RecordType, limit int) ([]model.HealthRecord, error)
}

// Store is the full persistence surface used by the server.
type Store interface {
	SessionStore
	HealthStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
