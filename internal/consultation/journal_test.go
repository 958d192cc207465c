package consultation

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/niramoy/health-assistant/internal/gateway"
	"github.com/niramoy/health-assistant/internal/locale"
	"github.com/niramoy/health-assistant/internal/store"
	"github.com/niramoy/health-assistant/pkg/logger"
	"github.com/niramoy/health-assistant/pkg/metrics"
)

func TestClosedJournalLogsDroppedWrites(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	sessions := store.NewMemoryStore()

	gw := newFakeGateway()
	gw.on(gateway.PromptSymptomAnalysis, symptomReply("Hello Karim", fourQuestions...))

	m := NewManager(Deps{
		Gateway:  gw,
		Sessions: sessions,
		Logger:   &logger.Logger{Logger: zap.New(core)},
	}, 0)
	t.Cleanup(m.Close)

	p := m.Create("", locale.English)
	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	p.Close()

	dropped := metrics.PersistenceTotal.WithLabelValues("append_message", "error")
	before := testutil.ToFloat64(dropped)

	snap, err := p.SubmitDetails(context.Background(), karim)
	if err != nil {
		t.Fatalf("SubmitDetails() error = %v", err)
	}
	if len(snap.Messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(snap.Messages))
	}

	if got := testutil.ToFloat64(dropped) - before; got != 3 {
		t.Errorf("dropped appends counted = %v, want 3", got)
	}

	var appends int
	for _, e := range logs.FilterMessage("Dropped persistence after close").All() {
		if e.ContextMap()["operation"] == "append_message" {
			appends++
		}
	}
	if appends != 3 {
		t.Errorf("dropped append log lines = %d, want 3", appends)
	}

	sess, err := sessions.GetSession(context.Background(), snap.SessionID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if len(sess.Messages) != 0 {
		t.Errorf("stored messages = %d, want 0", len(sess.Messages))
	}

	if err := p.Flush(context.Background()); err != nil {
		t.Errorf("Flush() after close error = %v", err)
	}
}
