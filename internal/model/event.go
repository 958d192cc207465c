package model

import (
	"time"
)

// EventType represents the type of consultation event.
type EventType string

const (
	EventTypeSessionCreated EventType = "session_created"
	EventTypeTransition     EventType = "transition"
	EventTypeError          EventType = "error"
	EventTypeReset          EventType = "reset"
)

// ConsultationEvent is a journal entry describing a pipeline change.
type ConsultationEvent struct {
	ID             string         `json:"id"`
	ConsultationID string         `json:"consultation_id"`
	SessionID      string         `json:"session_id"`
	Type           EventType      `json:"type"`
	From           string         `json:"from,omitempty"`
	To             string         `json:"to,omitempty"`
	Reason         string         `json:"reason,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// JournalMessage is a transcript append as published to the event journal.
type JournalMessage struct {
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// TokenEvent represents a streaming token event.
type TokenEvent struct {
	Token string `json:"token"`
	Index int    `json:"index"`
}

// AnswerCompleteEvent is sent when a streamed answer is finished.
type AnswerCompleteEvent struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

// ErrorEvent represents an error event.
type ErrorEvent struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"`
}
