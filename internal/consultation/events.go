package consultation

import (
	"time"

	"github.com/niramoy/health-assistant/internal/locale"
	"github.com/niramoy/health-assistant/internal/model"
)

// Event is an input to Reduce.
type Event interface {
	eventName() string
}

// SessionStarted (re)initializes the state on a fresh session.
type SessionStarted struct {
	SessionID string
	Language  locale.Language
}

// SessionClosed ends the current session ahead of a reset.
type SessionClosed struct{}

// DetailsAccepted records the intake form with the greeting and question batch.
// SubmittedAt stamps the user's submission; At stamps the gateway reply. A zero
// SubmittedAt falls back to At.
type DetailsAccepted struct {
	Details     model.PatientDetails
	Greeting    string
	Questions   []string
	SubmittedAt time.Time
	At          time.Time
}

// AnswerRecorded answers the pending follow-up question.
type AnswerRecorded struct {
	Answer string
	At     time.Time
}

// DiagnosisCompleted stores the diagnosis and its transcript summary.
type DiagnosisCompleted struct {
	Diagnosis model.Diagnosis
	At        time.Time
}

// DiagnosisFailed moves on to the conversation without a diagnosis.
type DiagnosisFailed struct{}

// QuestionAnswered records a free-form question and its answer.
type QuestionAnswered struct {
	Question   string
	Answer     string
	AskedAt    time.Time
	AnsweredAt time.Time
}

func (SessionStarted) eventName() string     { return "session_started" }
func (SessionClosed) eventName() string      { return "session_closed" }
func (DetailsAccepted) eventName() string    { return "details_accepted" }
func (AnswerRecorded) eventName() string     { return "answer_recorded" }
func (DiagnosisCompleted) eventName() string { return "diagnosis_completed" }
func (DiagnosisFailed) eventName() string    { return "diagnosis_failed" }
func (QuestionAnswered) eventName() string   { return "question_answered" }
