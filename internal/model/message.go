// Package model defines data structures for the health assistant.
package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a persistable role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// SessionType is the kind of conversation a session records. It is fixed at creation.
type SessionType string

const (
	SessionSymptomAnalysis SessionType = "symptom-analysis"
	SessionGeneralInquiry  SessionType = "general-inquiry"
	SessionReportAnalyzer  SessionType = "report-analyzer"
	SessionDrugInformation SessionType = "drug-information"
)

// Valid reports whether t is a known session type.
func (t SessionType) Valid() bool {
	switch t {
	case SessionSymptomAnalysis, SessionGeneralInquiry, SessionReportAnalyzer, SessionDrugInformation:
		return true
	}
	return false
}

// Message is one conversational turn. Messages are embedded in their session.
type Message struct {
	Role      Role      `json:"role" bson:"role"`
	Content   string    `json:"content" bson:"content"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Session is one persisted conversation.
type Session struct {
	SessionID string      `json:"session_id" bson:"session_id"`
	UserID    string      `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Type      SessionType `json:"type" bson:"type"`
	Messages  []Message   `json:"messages" bson:"messages"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" bson:"updated_at"`
}

// IsGuest reports whether the session has no owning user.
func (s *Session) IsGuest() bool {
	return s.UserID == ""
}

// UserSession tracks activity for a session, guest or authenticated.
type UserSession struct {
	SessionID    string    `json:"session_id" bson:"session_id"`
	UserID       string    `json:"user_id,omitempty" bson:"user_id,omitempty"`
	IsGuest      bool      `json:"is_guest" bson:"is_guest"`
	LastActivity time.Time `json:"last_activity" bson:"last_activity"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// ListSessionsResponse is the response for listing a user's sessions.
type ListSessionsResponse struct {
	Sessions []Session `json:"sessions"`
	Total    int       `json:"total"`
}
