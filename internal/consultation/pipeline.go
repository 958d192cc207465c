// Package consultation implements the multi-stage diagnosis conversation:
// intake details, follow-up questions, diagnosis and open-ended follow-up.
package consultation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/niramoy/health-assistant/internal/gateway"
	"github.com/niramoy/health-assistant/internal/locale"
	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/internal/store"
	"github.com/niramoy/health-assistant/pkg/logger"
	"github.com/niramoy/health-assistant/pkg/metrics"
	"github.com/niramoy/health-assistant/pkg/tracing"
)

// ReferenceSource supplies knowledge base entries that ground a diagnosis.
type ReferenceSource interface {
	Lookup(ctx context.Context, symptoms string) ([]model.MedicalReference, error)
}

// Deps are the collaborators shared by every pipeline.
type Deps struct {
	Gateway    gateway.Gateway
	Sessions   store.SessionStore
	Events     EventPublisher
	References ReferenceSource
	Logger     *logger.Logger
	// Clock and NewSessionID are overridable for tests.
	Clock        func() time.Time
	NewSessionID func() string
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.NewSessionID == nil {
		d.NewSessionID = func() string { return uuid.Must(uuid.NewV7()).String() }
	}
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	return d
}

// Pipeline drives one consultation. At most one transition runs at a time;
// gateway calls happen outside the lock and are discarded if a reset bumped
// the generation meanwhile.
type Pipeline struct {
	id     string
	userID string
	deps   Deps
	log    *logger.Logger
	tracer trace.Tracer

	journal *journal

	mu         sync.Mutex
	state      State
	busy       bool
	lastActive time.Time
}

func newPipeline(id, userID string, lang locale.Language, deps Deps) *Pipeline {
	deps = deps.withDefaults()

	p := &Pipeline{
		id:      id,
		userID:  userID,
		deps:    deps,
		tracer:  tracing.Tracer("consultation"),
		journal: newJournal(deps.Sessions, deps.Events, deps.Logger.Component("journal")),
	}

	state, _ := Reduce(State{}, SessionStarted{SessionID: deps.NewSessionID(), Language: lang})
	p.state = state
	p.lastActive = deps.Clock()
	p.log = deps.Logger.Component("consultation").With(zap.String("consultation_id", id))

	p.journal.createSession(state.SessionID, userID)
	p.journal.publishEvent(p.event(state.SessionID, model.EventTypeSessionCreated, "", string(StepDetails), ""))

	return p
}

// ID returns the consultation identifier.
func (p *Pipeline) ID() string { return p.id }

// UserID returns the owning user, empty for guests.
func (p *Pipeline) UserID() string { return p.userID }

// Snapshot returns the current state.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.snapshot(p.id, p.busy)
}

// SubmitDetails validates the intake form, asks the gateway for a greeting and
// follow-up questions, and moves to the followup step.
func (p *Pipeline) SubmitDetails(ctx context.Context, details model.PatientDetails) (Snapshot, error) {
	details = NormalizeDetails(details)
	if err := ValidateDetails(details); err != nil {
		return p.Snapshot(), err
	}

	s, err := p.begin(StepDetails)
	if err != nil {
		return p.Snapshot(), err
	}

	ctx, span := p.tracer.Start(ctx, "consultation.SubmitDetails", trace.WithAttributes(
		attribute.String("consultation_id", p.id),
	))
	defer span.End()

	submittedAt := p.deps.Clock()

	var out gateway.SymptomAnalysisOutput
	err = p.deps.Gateway.Invoke(ctx, gateway.PromptSymptomAnalysis, gateway.SymptomAnalysisInput{
		Language:      s.Language,
		PatientName:   details.PatientName,
		PatientGender: details.PatientGender,
		PatientAge:    details.PatientAge,
		Symptoms:      details.Symptoms,
	}, &out)
	if err != nil {
		span.RecordError(err)
		return p.abort(s, StepFollowUp, err)
	}

	return p.commit(s, DetailsAccepted{
		Details:     details,
		Greeting:    strings.TrimSpace(out.InitialGreeting),
		Questions:   trimAll(out.FollowUpQuestions),
		SubmittedAt: submittedAt,
		At:          p.deps.Clock(),
	})
}

// SubmitAnswer answers the pending follow-up question. The final answer
// triggers exactly one diagnosis call; if that call fails the consultation
// still advances to the conversation step and ErrDiagnosisUnavailable is
// returned with the new snapshot.
func (p *Pipeline) SubmitAnswer(ctx context.Context, answer string) (Snapshot, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return p.Snapshot(), fmt.Errorf("%w: answer is required", ErrValidation)
	}

	s, err := p.begin(StepFollowUp)
	if err != nil {
		return p.Snapshot(), err
	}

	recorded := AnswerRecorded{Answer: answer, At: p.deps.Clock()}
	preview, err := Reduce(s, recorded)
	if err != nil {
		return p.abort(s, StepFollowUp, err)
	}
	if preview.Step == StepFollowUp {
		return p.commit(s, recorded)
	}

	ctx, span := p.tracer.Start(ctx, "consultation.Diagnose", trace.WithAttributes(
		attribute.String("consultation_id", p.id),
	))
	defer span.End()

	input := gateway.DiagnosisInput{
		Language:       preview.Language,
		PatientDetails: PatientBlock(*preview.Patient, preview.Language),
		SymptomDetails: SymptomDetails(preview.Questions, preview.Answers),
		References:     p.references(ctx, preview),
	}

	var out gateway.DiagnosisOutput
	err = p.deps.Gateway.Invoke(ctx, gateway.PromptDiagnosis, input, &out)

	// A cancelled request never reached a verdict; keep the answer pending
	// so the client can resubmit it.
	if ctx.Err() != nil {
		return p.abort(s, StepDiagnosis, ctx.Err())
	}

	if err != nil {
		span.RecordError(err)
		p.log.Warn("Diagnosis unavailable, continuing without it",
			zap.String("session_id", s.SessionID),
			zap.Error(err),
		)
		snap, cerr := p.commit(s, recorded, DiagnosisFailed{})
		if cerr != nil {
			return snap, cerr
		}
		return snap, ErrDiagnosisUnavailable
	}

	return p.commit(s, recorded, DiagnosisCompleted{
		Diagnosis: out.Diagnosis(),
		At:        p.deps.Clock(),
	})
}

// AskQuestion answers a free-form question using the whole transcript,
// including the question itself, as context.
func (p *Pipeline) AskQuestion(ctx context.Context, question string) (Snapshot, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return p.Snapshot(), fmt.Errorf("%w: question is required", ErrValidation)
	}

	s, err := p.begin(StepConversation)
	if err != nil {
		return p.Snapshot(), err
	}

	ctx, span := p.tracer.Start(ctx, "consultation.AskQuestion", trace.WithAttributes(
		attribute.String("consultation_id", p.id),
	))
	defer span.End()

	askedAt := p.deps.Clock()
	history := append(s.clone().Transcript, model.Message{
		Role:      model.RoleUser,
		Content:   question,
		Timestamp: askedAt,
	})

	var out gateway.AnswerOutput
	err = p.deps.Gateway.Invoke(ctx, gateway.PromptFollowUp, gateway.FollowUpInput{
		Language:            s.Language,
		ConversationHistory: ConversationHistory(history),
		Question:            question,
	}, &out)
	if err != nil {
		span.RecordError(err)
		return p.abort(s, StepConversation, err)
	}

	return p.commit(s, QuestionAnswered{
		Question:   question,
		Answer:     strings.TrimSpace(out.Answer),
		AskedAt:    askedAt,
		AnsweredAt: p.deps.Clock(),
	})
}

// Reset abandons the current session and starts over on a new one. A call
// still pending for the old session will fail with ErrStale.
func (p *Pipeline) Reset(ctx context.Context) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	old := p.state
	closed, _ := Reduce(old, SessionClosed{})
	next, _ := Reduce(closed, SessionStarted{SessionID: p.deps.NewSessionID(), Language: old.Language})

	p.state = next
	p.busy = false
	p.lastActive = p.deps.Clock()

	metrics.RecordTransition(string(old.Step), string(StepDone), "reset")
	p.journal.publishEvent(p.event(old.SessionID, model.EventTypeReset, string(old.Step), string(StepDone), ""))
	p.journal.createSession(next.SessionID, p.userID)
	p.journal.publishEvent(p.event(next.SessionID, model.EventTypeSessionCreated, string(StepDone), string(StepDetails), ""))

	p.log.Info("Consultation reset",
		zap.String("previous_session_id", old.SessionID),
		zap.String("session_id", next.SessionID),
	)

	return next.snapshot(p.id, false)
}

// Report renders the plain-text diagnosis report.
func (p *Pipeline) Report() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Diagnosis == nil || p.state.Patient == nil {
		return "", ErrNoDiagnosis
	}
	return FormatReport(*p.state.Patient, *p.state.Diagnosis, p.state.Language), nil
}

// Flush blocks until all persistence queued so far has been attempted.
func (p *Pipeline) Flush(ctx context.Context) error {
	return p.journal.flush(ctx)
}

// Close drains pending persistence and stops the journal.
func (p *Pipeline) Close() {
	p.journal.close()
}

func (p *Pipeline) idleSince() (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastActive, p.busy
}

// begin marks the pipeline busy and returns the state the transition starts from.
func (p *Pipeline) begin(want Step) (State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.busy {
		return State{}, ErrBusy
	}
	if p.state.Step != want {
		return State{}, fmt.Errorf("%w: expected %s, consultation is at %s", ErrWrongStep, want, p.state.Step)
	}

	p.busy = true
	p.lastActive = p.deps.Clock()
	return p.state, nil
}

// abort releases the busy flag without changing state.
func (p *Pipeline) abort(from State, to Step, cause error) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stale := p.state.Generation != from.Generation
	if !stale {
		p.busy = false
	}
	snap := p.state.snapshot(p.id, p.busy)

	if stale {
		metrics.RecordTransition(string(from.Step), string(to), "stale")
		return snap, ErrStale
	}

	metrics.RecordTransition(string(from.Step), string(to), "failed")

	if errors.Is(cause, ErrValidation) || errors.Is(cause, ErrWrongStep) {
		return snap, cause
	}

	p.log.Warn("Transition failed",
		zap.String("session_id", from.SessionID),
		zap.String("step", string(from.Step)),
		zap.Error(cause),
	)
	p.journal.publishEvent(p.event(from.SessionID, model.EventTypeError, string(from.Step), string(to), cause.Error()))
	return snap, fmt.Errorf("%w: %w", ErrGateway, cause)
}

// commit applies events to the current state if no reset happened since
// from was read, then queues the new transcript entries for persistence.
func (p *Pipeline) commit(from State, events ...Event) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Generation != from.Generation {
		metrics.RecordTransition(string(from.Step), "", "stale")
		p.log.Info("Discarding response for abandoned session", zap.String("session_id", from.SessionID))
		return p.state.snapshot(p.id, p.busy), ErrStale
	}

	next := p.state
	for _, ev := range events {
		var err error
		next, err = Reduce(next, ev)
		if err != nil {
			p.busy = false
			metrics.RecordTransition(string(from.Step), string(from.Step), "failed")
			return p.state.snapshot(p.id, false), fmt.Errorf("%w: %v", ErrGateway, err)
		}
	}

	added := next.Transcript[len(p.state.Transcript):]
	p.state = next
	p.busy = false
	p.lastActive = p.deps.Clock()

	p.journal.appendMessages(next.SessionID, added)
	if from.Step != next.Step {
		p.journal.publishEvent(p.event(next.SessionID, model.EventTypeTransition, string(from.Step), string(next.Step), ""))
	}
	metrics.RecordTransition(string(from.Step), string(next.Step), "success")

	return next.snapshot(p.id, false), nil
}

func (p *Pipeline) references(ctx context.Context, s State) []model.MedicalReference {
	if p.deps.References == nil || s.Patient == nil {
		return nil
	}

	query := s.Patient.Symptoms + " " + strings.Join(s.Answers, " ")
	refs, err := p.deps.References.Lookup(ctx, query)
	if err != nil {
		p.log.Warn("Knowledge base lookup failed", zap.Error(err))
		return nil
	}
	return refs
}

func (p *Pipeline) event(sessionID string, typ model.EventType, from, to, reason string) *model.ConsultationEvent {
	return &model.ConsultationEvent{
		ID:             uuid.New().String(),
		ConsultationID: p.id,
		SessionID:      sessionID,
		Type:           typ,
		From:           from,
		To:             to,
		Reason:         reason,
		CreatedAt:      p.deps.Clock(),
	}
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
