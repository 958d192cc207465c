package consultation

import (
	"slices"
	"time"

	"github.com/niramoy/health-assistant/internal/locale"
	"github.com/niramoy/health-assistant/internal/model"
)

// Step is the pipeline phase.
type Step string

const (
	StepDetails      Step = "details"
	StepFollowUp     Step = "followup"
	StepDiagnosis    Step = "diagnosis"
	StepConversation Step = "conversation"
	StepDone         Step = "done"
)

// State is one consultation's in-memory state. Step is the tag; the other
// fields are meaningful only in the steps that set them.
type State struct {
	Step       Step
	SessionID  string
	Generation uint64
	Language   locale.Language

	Patient              *model.PatientDetails
	Greeting             string
	Questions            []string
	Answers              []string
	CurrentQuestionIndex int
	Diagnosis            *model.Diagnosis

	Transcript []model.Message
}

func (s State) clone() State {
	next := s
	if s.Patient != nil {
		p := *s.Patient
		next.Patient = &p
	}
	if s.Diagnosis != nil {
		d := *s.Diagnosis
		next.Diagnosis = &d
	}
	next.Questions = slices.Clone(s.Questions)
	next.Answers = slices.Clone(s.Answers)
	next.Transcript = slices.Clone(s.Transcript)
	return next
}

// appendMessage adds a transcript entry. Timestamps never go backwards.
func (s *State) appendMessage(role model.Role, content string, at time.Time) {
	if n := len(s.Transcript); n > 0 && at.Before(s.Transcript[n-1].Timestamp) {
		at = s.Transcript[n-1].Timestamp
	}
	s.Transcript = append(s.Transcript, model.Message{
		Role:      role,
		Content:   content,
		Timestamp: at,
	})
}

// CurrentQuestion returns the pending follow-up question, if any.
func (s State) CurrentQuestion() string {
	if s.Step != StepFollowUp || s.CurrentQuestionIndex >= len(s.Questions) {
		return ""
	}
	return s.Questions[s.CurrentQuestionIndex]
}

// Snapshot is the read-only view of a consultation returned to clients.
type Snapshot struct {
	ConsultationID       string                `json:"consultationId"`
	SessionID            string                `json:"sessionId"`
	Step                 Step                  `json:"step"`
	Language             locale.Language       `json:"language"`
	Welcome              string                `json:"welcome"`
	Pending              bool                  `json:"pending"`
	Patient              *model.PatientDetails `json:"patient,omitempty"`
	Questions            []string              `json:"questions,omitempty"`
	Answers              []string              `json:"answers,omitempty"`
	CurrentQuestionIndex int                   `json:"currentQuestionIndex"`
	CurrentQuestion      string                `json:"currentQuestion,omitempty"`
	Diagnosis            *model.Diagnosis      `json:"diagnosis,omitempty"`
	Messages             []model.Message       `json:"messages"`
}

func (s State) snapshot(consultationID string, pending bool) Snapshot {
	c := s.clone()
	if c.Transcript == nil {
		c.Transcript = []model.Message{}
	}
	return Snapshot{
		ConsultationID:       consultationID,
		SessionID:            c.SessionID,
		Step:                 c.Step,
		Language:             c.Language,
		Welcome:              c.Language.Labels().Welcome,
		Pending:              pending,
		Patient:              c.Patient,
		Questions:            c.Questions,
		Answers:              c.Answers,
		CurrentQuestionIndex: c.CurrentQuestionIndex,
		CurrentQuestion:      c.CurrentQuestion(),
		Diagnosis:            c.Diagnosis,
		Messages:             c.Transcript,
	}
}
