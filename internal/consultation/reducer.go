package consultation

import (
	"fmt"
	"strings"

	"github.com/niramoy/health-assistant/internal/gateway"
	"github.com/niramoy/health-assistant/internal/model"
)

// Reduce returns the state that follows s after ev. It performs no I/O and
// never mutates s; on error the returned state is s unchanged.
func Reduce(s State, ev Event) (State, error) {
	switch e := ev.(type) {
	case SessionStarted:
		if e.SessionID == "" {
			return s, fmt.Errorf("%w: session id is required", ErrValidation)
		}
		return State{
			Step:       StepDetails,
			SessionID:  e.SessionID,
			Generation: s.Generation + 1,
			Language:   e.Language,
		}, nil

	case SessionClosed:
		next := s.clone()
		next.Step = StepDone
		return next, nil

	case DetailsAccepted:
		if s.Step != StepDetails {
			return s, wrongStep(s.Step, ev)
		}
		if strings.TrimSpace(e.Greeting) == "" || len(e.Questions) < gateway.MinFollowUpQuestions {
			return s, fmt.Errorf("%w: incomplete follow-up batch", ErrValidation)
		}

		next := s.clone()
		details := e.Details
		next.Patient = &details
		next.Greeting = e.Greeting
		next.Questions = append([]string(nil), e.Questions...)
		next.Answers = []string{}
		next.CurrentQuestionIndex = 0
		submitted := e.SubmittedAt
		if submitted.IsZero() {
			submitted = e.At
		}
		next.appendMessage(model.RoleUser, DetailsMessage(details), submitted)
		next.appendMessage(model.RoleAssistant, e.Greeting, e.At)
		next.appendMessage(model.RoleAssistant, next.Questions[0], e.At)
		next.Step = StepFollowUp
		return next, nil

	case AnswerRecorded:
		if s.Step != StepFollowUp || len(s.Answers) >= len(s.Questions) {
			return s, wrongStep(s.Step, ev)
		}
		answer := strings.TrimSpace(e.Answer)
		if answer == "" {
			return s, fmt.Errorf("%w: answer is required", ErrValidation)
		}

		next := s.clone()
		next.Answers = append(next.Answers, answer)
		next.appendMessage(model.RoleUser, answer, e.At)

		if len(next.Answers) < len(next.Questions) {
			next.CurrentQuestionIndex = len(next.Answers)
			next.appendMessage(model.RoleAssistant, next.Questions[next.CurrentQuestionIndex], e.At)
			return next, nil
		}

		next.CurrentQuestionIndex = len(next.Questions)
		next.Step = StepDiagnosis
		return next, nil

	case DiagnosisCompleted:
		if s.Step != StepDiagnosis {
			return s, wrongStep(s.Step, ev)
		}
		next := s.clone()
		d := e.Diagnosis
		next.Diagnosis = &d
		next.appendMessage(model.RoleAssistant, DiagnosisSummary(d), e.At)
		next.Step = StepConversation
		return next, nil

	case DiagnosisFailed:
		if s.Step != StepDiagnosis {
			return s, wrongStep(s.Step, ev)
		}
		next := s.clone()
		next.Step = StepConversation
		return next, nil

	case QuestionAnswered:
		if s.Step != StepConversation {
			return s, wrongStep(s.Step, ev)
		}
		question := strings.TrimSpace(e.Question)
		if question == "" {
			return s, fmt.Errorf("%w: question is required", ErrValidation)
		}
		next := s.clone()
		next.appendMessage(model.RoleUser, question, e.AskedAt)
		next.appendMessage(model.RoleAssistant, e.Answer, e.AnsweredAt)
		return next, nil

	default:
		return s, fmt.Errorf("unknown event %T", ev)
	}
}

func wrongStep(step Step, ev Event) error {
	return fmt.Errorf("%w: %s during %s", ErrWrongStep, ev.eventName(), step)
}
