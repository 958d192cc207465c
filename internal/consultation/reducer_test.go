package consultation

import (
	"errors"
	"testing"
	"time"

	"github.com/niramoy/health-assistant/internal/locale"
	"github.com/niramoy/health-assistant/internal/model"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func startedState(t *testing.T) State {
	t.Helper()
	s, err := Reduce(State{}, SessionStarted{SessionID: "s1", Language: locale.English})
	if err != nil {
		t.Fatalf("Reduce(SessionStarted) error = %v", err)
	}
	return s
}

func followUpState(t *testing.T) State {
	t.Helper()
	s, err := Reduce(startedState(t), DetailsAccepted{
		Details:   model.PatientDetails{PatientName: "Karim", PatientGender: "Male", PatientAge: 30, Symptoms: "fever and headache"},
		Greeting:  "Hello Karim",
		Questions: []string{"q1", "q2", "q3", "q4"},
		At:        t0,
	})
	if err != nil {
		t.Fatalf("Reduce(DetailsAccepted) error = %v", err)
	}
	return s
}

func TestReduceSessionStarted(t *testing.T) {
	s := startedState(t)
	if s.Step != StepDetails || s.SessionID != "s1" || s.Generation != 1 {
		t.Errorf("unexpected state: %+v", s)
	}

	if _, err := Reduce(s, SessionStarted{}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty session id error = %v, want ErrValidation", err)
	}
}

func TestReduceDetailsAccepted(t *testing.T) {
	s := followUpState(t)

	if s.Step != StepFollowUp {
		t.Fatalf("Step = %s, want followup", s.Step)
	}
	if len(s.Transcript) != 3 {
		t.Fatalf("transcript length = %d, want 3", len(s.Transcript))
	}
	wantRoles := []model.Role{model.RoleUser, model.RoleAssistant, model.RoleAssistant}
	for i, r := range wantRoles {
		if s.Transcript[i].Role != r {
			t.Errorf("message %d role = %s, want %s", i, s.Transcript[i].Role, r)
		}
	}
	if s.Transcript[2].Content != "q1" {
		t.Errorf("first question = %q", s.Transcript[2].Content)
	}
	if s.CurrentQuestionIndex != 0 || s.CurrentQuestion() != "q1" {
		t.Errorf("current question = %d %q", s.CurrentQuestionIndex, s.CurrentQuestion())
	}
}

func TestReduceDetailsStampsSubmissionSeparately(t *testing.T) {
	replied := t0.Add(5 * time.Second)
	s, err := Reduce(startedState(t), DetailsAccepted{
		Details:     model.PatientDetails{PatientName: "Karim", PatientGender: "Male", PatientAge: 30, Symptoms: "fever and headache"},
		Greeting:    "Hello Karim",
		Questions:   []string{"q1", "q2", "q3", "q4"},
		SubmittedAt: t0,
		At:          replied,
	})
	if err != nil {
		t.Fatalf("Reduce(DetailsAccepted) error = %v", err)
	}

	if !s.Transcript[0].Timestamp.Equal(t0) {
		t.Errorf("submission timestamp = %v, want %v", s.Transcript[0].Timestamp, t0)
	}
	for i := 1; i < 3; i++ {
		if !s.Transcript[i].Timestamp.Equal(replied) {
			t.Errorf("message %d timestamp = %v, want %v", i, s.Transcript[i].Timestamp, replied)
		}
	}
}

func TestReduceDetailsRejectsPartialBatch(t *testing.T) {
	s := startedState(t)
	next, err := Reduce(s, DetailsAccepted{Greeting: "hi", Questions: []string{"a", "b", "c"}, At: t0})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if next.Step != StepDetails || len(next.Transcript) != 0 {
		t.Errorf("state changed on rejected batch: %+v", next)
	}
}

func TestReduceAnswersClampAtBoundary(t *testing.T) {
	s := followUpState(t)

	for i := 0; i < 3; i++ {
		var err error
		s, err = Reduce(s, AnswerRecorded{Answer: "a", At: t0})
		if err != nil {
			t.Fatalf("answer %d error = %v", i, err)
		}
		if s.Step != StepFollowUp {
			t.Fatalf("answer %d step = %s", i, s.Step)
		}
		if s.CurrentQuestionIndex != len(s.Answers) {
			t.Errorf("index = %d, answers = %d", s.CurrentQuestionIndex, len(s.Answers))
		}
	}

	s, err := Reduce(s, AnswerRecorded{Answer: "last", At: t0})
	if err != nil {
		t.Fatalf("last answer error = %v", err)
	}
	if s.Step != StepDiagnosis {
		t.Fatalf("Step = %s, want diagnosis", s.Step)
	}
	if s.CurrentQuestionIndex != 4 || len(s.Answers) != 4 {
		t.Errorf("index = %d answers = %d", s.CurrentQuestionIndex, len(s.Answers))
	}

	if _, err := Reduce(s, AnswerRecorded{Answer: "extra", At: t0}); !errors.Is(err, ErrWrongStep) {
		t.Errorf("extra answer error = %v, want ErrWrongStep", err)
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := followUpState(t)
	before := len(s.Transcript)

	if _, err := Reduce(s, AnswerRecorded{Answer: "a", At: t0}); err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	if len(s.Transcript) != before || len(s.Answers) != 0 {
		t.Error("input state was mutated")
	}
}

func TestReduceDiagnosisOutcomes(t *testing.T) {
	s := followUpState(t)
	for i := 0; i < 4; i++ {
		s, _ = Reduce(s, AnswerRecorded{Answer: "a", At: t0})
	}

	done, err := Reduce(s, DiagnosisCompleted{
		Diagnosis: model.Diagnosis{ProbableDiagnosis: "Flu", RecommendedCareActions: "Rest", SuggestedDiagnosticTests: "CBC"},
		At:        t0,
	})
	if err != nil {
		t.Fatalf("DiagnosisCompleted error = %v", err)
	}
	if done.Step != StepConversation || done.Diagnosis == nil {
		t.Errorf("unexpected state: step=%s diagnosis=%v", done.Step, done.Diagnosis)
	}
	last := done.Transcript[len(done.Transcript)-1]
	if last.Content != "Diagnosis Report: Probable Diagnosis: Flu, Recommended Care: Rest, Suggested Tests: CBC" {
		t.Errorf("summary = %q", last.Content)
	}

	failed, err := Reduce(s, DiagnosisFailed{})
	if err != nil {
		t.Fatalf("DiagnosisFailed error = %v", err)
	}
	if failed.Step != StepConversation || failed.Diagnosis != nil {
		t.Errorf("unexpected state after failure: %+v", failed)
	}
	if len(failed.Transcript) != len(s.Transcript) {
		t.Error("failure must not add transcript entries")
	}
}

func TestReduceTimestampsNeverGoBackwards(t *testing.T) {
	s := followUpState(t)
	s, err := Reduce(s, AnswerRecorded{Answer: "a", At: t0.Add(-time.Hour)})
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	for i := 1; i < len(s.Transcript); i++ {
		if s.Transcript[i].Timestamp.Before(s.Transcript[i-1].Timestamp) {
			t.Fatalf("timestamp %d goes backwards", i)
		}
	}
}

func TestReduceWrongStep(t *testing.T) {
	s := startedState(t)
	tests := []Event{
		AnswerRecorded{Answer: "a"},
		DiagnosisCompleted{},
		DiagnosisFailed{},
		QuestionAnswered{Question: "q", Answer: "a"},
	}
	for _, ev := range tests {
		if _, err := Reduce(s, ev); !errors.Is(err, ErrWrongStep) {
			t.Errorf("%T error = %v, want ErrWrongStep", ev, err)
		}
	}
}

func TestReduceSessionClosedThenRestart(t *testing.T) {
	s := followUpState(t)
	closed, _ := Reduce(s, SessionClosed{})
	if closed.Step != StepDone {
		t.Fatalf("Step = %s, want done", closed.Step)
	}
	if _, err := Reduce(closed, AnswerRecorded{Answer: "a"}); !errors.Is(err, ErrWrongStep) {
		t.Errorf("answer after close error = %v", err)
	}

	fresh, err := Reduce(closed, SessionStarted{SessionID: "s2", Language: locale.English})
	if err != nil {
		t.Fatalf("restart error = %v", err)
	}
	if fresh.Step != StepDetails || fresh.SessionID != "s2" || fresh.Generation != s.Generation+1 {
		t.Errorf("unexpected restart state: %+v", fresh)
	}
	if fresh.Patient != nil || len(fresh.Transcript) != 0 || len(fresh.Questions) != 0 {
		t.Error("restart must clear consultation data")
	}
}
