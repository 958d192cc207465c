package model

import "time"

// RecordType classifies a health record.
type RecordType string

const (
	RecordSymptom    RecordType = "symptom"
	RecordDiagnosis  RecordType = "diagnosis"
	RecordMedication RecordType = "medication"
	RecordReport     RecordType = "report"
)

// Valid reports whether t is a known record type.
func (t RecordType) Valid() bool {
	switch t {
	case RecordSymptom, RecordDiagnosis, RecordMedication, RecordReport:
		return true
	}
	return false
}

// HealthRecord is a standalone clinical note owned by a user.
type HealthRecord struct {
	ID          string         `json:"id" bson:"record_id"`
	UserID      string         `json:"user_id" bson:"user_id"`
	Type        RecordType     `json:"type" bson:"type"`
	Title       string         `json:"title" bson:"title"`
	Description string         `json:"description" bson:"description"`
	Data        map[string]any `json:"data,omitempty" bson:"data,omitempty"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" bson:"updated_at"`
}

// CreateHealthRecordRequest is the request to add a health record.
type CreateHealthRecordRequest struct {
	Type        RecordType     `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

// UpdateHealthRecordRequest patches a health record. Nil fields are left alone.
type UpdateHealthRecordRequest struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// ListHealthRecordsResponse is the response for listing health records.
type ListHealthRecordsResponse struct {
	Records []HealthRecord `json:"records"`
	Total   int            `json:"total"`
}

// ExtractInsightsResponse reports the records saved from a session.
type ExtractInsightsResponse struct {
	ExtractedInsights int      `json:"extracted_insights"`
	SavedRecords      []string `json:"saved_records"`
}
