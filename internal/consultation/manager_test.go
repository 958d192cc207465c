package consultation

import (
	"errors"
	"testing"
	"time"

	"github.com/niramoy/health-assistant/internal/locale"
	"github.com/niramoy/health-assistant/internal/store"
)

func TestManagerOwnership(t *testing.T) {
	m := NewManager(Deps{Gateway: newFakeGateway(), Sessions: store.NewMemoryStore()}, 0)
	t.Cleanup(m.Close)

	guest := m.Create("", locale.Bengali)
	owned := m.Create("user-1", locale.English)

	if _, err := m.Get(guest.ID(), "anyone"); err != nil {
		t.Errorf("guest consultation should be reachable: %v", err)
	}
	if _, err := m.Get(owned.ID(), "user-1"); err != nil {
		t.Errorf("owner lookup error = %v", err)
	}
	if _, err := m.Get(owned.ID(), "user-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign lookup error = %v, want ErrNotFound", err)
	}
	if _, err := m.Get("missing", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing lookup error = %v, want ErrNotFound", err)
	}

	if got := guest.Snapshot().Language; got != locale.Bengali {
		t.Errorf("Language = %s", got)
	}
	if guest.Snapshot().Welcome == "" {
		t.Error("snapshot should carry a welcome message")
	}
	if guest.Snapshot().SessionID == owned.Snapshot().SessionID {
		t.Error("consultations must not share a session")
	}
}

func TestManagerEvictsIdle(t *testing.T) {
	clock := &stepClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	m := NewManager(Deps{
		Gateway:  newFakeGateway(),
		Sessions: store.NewMemoryStore(),
		Clock:    clock.Now,
	}, time.Hour)
	t.Cleanup(m.Close)

	p := m.Create("", locale.English)
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}

	if n := m.EvictIdle(clock.Now().Add(30 * time.Minute)); n != 0 {
		t.Errorf("evicted %d fresh consultations", n)
	}
	if n := m.EvictIdle(clock.Now().Add(2 * time.Hour)); n != 1 {
		t.Errorf("EvictIdle() = %d, want 1", n)
	}
	if _, err := m.Get(p.ID(), ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("evicted consultation still reachable: %v", err)
	}
}
