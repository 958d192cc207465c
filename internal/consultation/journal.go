package consultation

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/internal/store"
	"github.com/niramoy/health-assistant/pkg/logger"
	"github.com/niramoy/health-assistant/pkg/metrics"
)

const journalWriteTimeout = 10 * time.Second

var errJournalClosed = errors.New("journal closed")

// EventPublisher mirrors transcript appends and transitions to an event stream.
type EventPublisher interface {
	PublishMessage(ctx context.Context, msg *model.JournalMessage) error
	PublishEvent(ctx context.Context, event *model.ConsultationEvent) error
}

type journalOpKind int

const (
	opCreateSession journalOpKind = iota
	opAppendMessage
	opEvent
	opFlush
)

func (k journalOpKind) String() string {
	switch k {
	case opCreateSession:
		return "create_session"
	case opAppendMessage:
		return "append_message"
	case opEvent:
		return "event"
	default:
		return "flush"
	}
}

type journalOp struct {
	kind      journalOpKind
	sessionID string
	userID    string
	message   model.Message
	event     *model.ConsultationEvent
	done      chan struct{}
}

// journal writes persistence operations for one pipeline in enqueue order on
// its own goroutine. Enqueue never blocks on I/O.
type journal struct {
	sessions store.SessionStore
	events   EventPublisher
	log      *logger.Logger

	mu      sync.Mutex
	queue   []journalOp
	closed  bool
	notify  chan struct{}
	stopped chan struct{}
}

func newJournal(sessions store.SessionStore, events EventPublisher, log *logger.Logger) *journal {
	j := &journal{
		sessions: sessions,
		events:   events,
		log:      log,
		notify:   make(chan struct{}, 1),
		stopped:  make(chan struct{}),
	}
	go j.run()
	return j
}

func (j *journal) enqueue(ops ...journalOp) {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		for _, op := range ops {
			j.drop(op)
		}
		return
	}
	j.queue = append(j.queue, ops...)
	j.mu.Unlock()

	select {
	case j.notify <- struct{}{}:
	default:
	}
}

// drop accounts for an operation that arrived after close.
func (j *journal) drop(op journalOp) {
	switch op.kind {
	case opFlush:
		close(op.done)
		return
	case opCreateSession:
		metrics.RecordPersistence("create_session", errJournalClosed)
	case opAppendMessage:
		metrics.RecordPersistence("append_message", errJournalClosed)
	case opEvent:
		metrics.JournalPublishFailures.WithLabelValues("event").Inc()
	}
	j.log.Warn("Dropped persistence after close",
		zap.String("session_id", op.sessionID),
		zap.String("operation", op.kind.String()),
		zap.Error(errJournalClosed),
	)
}

func (j *journal) createSession(sessionID, userID string) {
	j.enqueue(journalOp{kind: opCreateSession, sessionID: sessionID, userID: userID})
}

func (j *journal) appendMessages(sessionID string, msgs []model.Message) {
	ops := make([]journalOp, len(msgs))
	for i, m := range msgs {
		ops[i] = journalOp{kind: opAppendMessage, sessionID: sessionID, message: m}
	}
	j.enqueue(ops...)
}

func (j *journal) publishEvent(event *model.ConsultationEvent) {
	j.enqueue(journalOp{kind: opEvent, sessionID: event.SessionID, event: event})
}

// flush waits until every operation enqueued before the call has run.
func (j *journal) flush(ctx context.Context) error {
	done := make(chan struct{})
	j.enqueue(journalOp{kind: opFlush, done: done})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close drains the queue and stops the worker.
func (j *journal) close() {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		<-j.stopped
		return
	}
	j.closed = true
	j.mu.Unlock()

	select {
	case j.notify <- struct{}{}:
	default:
	}
	<-j.stopped
}

func (j *journal) run() {
	defer close(j.stopped)

	for range j.notify {
		for {
			j.mu.Lock()
			if len(j.queue) == 0 {
				closed := j.closed
				j.mu.Unlock()
				if closed {
					return
				}
				break
			}
			op := j.queue[0]
			j.queue[0] = journalOp{}
			j.queue = j.queue[1:]
			j.mu.Unlock()

			j.apply(op)
		}
	}
}

func (j *journal) apply(op journalOp) {
	if op.kind == opFlush {
		close(op.done)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
	defer cancel()

	switch op.kind {
	case opCreateSession:
		_, err := j.sessions.CreateSession(ctx, op.sessionID, op.userID, model.SessionSymptomAnalysis)
		metrics.RecordPersistence("create_session", err)
		if err != nil {
			j.log.Error("Failed to create session",
				zap.String("session_id", op.sessionID),
				zap.Error(err),
			)
			return
		}
		metrics.SessionsTotal.WithLabelValues(string(model.SessionSymptomAnalysis)).Inc()

	case opAppendMessage:
		_, err := j.sessions.AppendMessage(ctx, op.sessionID, op.message)
		metrics.RecordPersistence("append_message", err)
		if err != nil {
			j.log.Error("Failed to persist message",
				zap.String("session_id", op.sessionID),
				zap.String("role", string(op.message.Role)),
				zap.Error(err),
			)
		}

		if j.events != nil {
			if err := j.events.PublishMessage(ctx, &model.JournalMessage{
				SessionID: op.sessionID,
				Role:      op.message.Role,
				Content:   op.message.Content,
				Timestamp: op.message.Timestamp,
			}); err != nil {
				metrics.JournalPublishFailures.WithLabelValues("message").Inc()
				j.log.Warn("Failed to publish message", zap.String("session_id", op.sessionID), zap.Error(err))
			}
		}

	case opEvent:
		if j.events == nil {
			return
		}
		if err := j.events.PublishEvent(ctx, op.event); err != nil {
			metrics.JournalPublishFailures.WithLabelValues("event").Inc()
			j.log.Warn("Failed to publish event",
				zap.String("session_id", op.sessionID),
				zap.String("type", string(op.event.Type)),
				zap.Error(err),
			)
		}
	}
}
