package consultation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/niramoy/health-assistant/internal/locale"
	"github.com/niramoy/health-assistant/pkg/logger"
	"github.com/niramoy/health-assistant/pkg/metrics"
)

// Manager is the registry of live consultations.
type Manager struct {
	deps    Deps
	idleTTL time.Duration
	log     *logger.Logger

	mu        sync.RWMutex
	pipelines map[string]*Pipeline
}

// NewManager creates a registry. Consultations idle longer than idleTTL are
// evicted by Run; zero disables eviction.
func NewManager(deps Deps, idleTTL time.Duration) *Manager {
	deps = deps.withDefaults()
	return &Manager{
		deps:      deps,
		idleTTL:   idleTTL,
		log:       deps.Logger.Component("consultations"),
		pipelines: make(map[string]*Pipeline),
	}
}

// Create starts a consultation in the details step on a fresh session.
func (m *Manager) Create(userID string, lang locale.Language) *Pipeline {
	id := uuid.Must(uuid.NewV7()).String()
	p := newPipeline(id, userID, lang, m.deps)

	m.mu.Lock()
	m.pipelines[id] = p
	n := len(m.pipelines)
	m.mu.Unlock()

	metrics.ActiveConsultations.Set(float64(n))
	m.log.Info("Consultation created",
		zap.String("consultation_id", id),
		zap.String("session_id", p.Snapshot().SessionID),
		zap.Bool("guest", userID == ""),
	)
	return p
}

// Get returns the consultation. A consultation started by a signed-in user is
// visible only to that user.
func (m *Manager) Get(id, userID string) (*Pipeline, error) {
	m.mu.RLock()
	p, ok := m.pipelines[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if p.userID != "" && p.userID != userID {
		return nil, ErrNotFound
	}
	return p, nil
}

// Len returns the number of live consultations.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pipelines)
}

// EvictIdle closes consultations idle since before now-idleTTL that have no
// transition in flight.
func (m *Manager) EvictIdle(now time.Time) int {
	if m.idleTTL <= 0 {
		return 0
	}

	var evicted []*Pipeline

	m.mu.Lock()
	for id, p := range m.pipelines {
		last, busy := p.idleSince()
		if busy || now.Sub(last) < m.idleTTL {
			continue
		}
		delete(m.pipelines, id)
		evicted = append(evicted, p)
	}
	n := len(m.pipelines)
	m.mu.Unlock()

	for _, p := range evicted {
		p.Close()
	}

	metrics.ActiveConsultations.Set(float64(n))
	if len(evicted) > 0 {
		m.log.Info("Evicted idle consultations", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// Run evicts idle consultations until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if m.idleTTL <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle(m.deps.Clock())
		}
	}
}

// Close drains and stops every consultation's journal.
func (m *Manager) Close() {
	m.mu.Lock()
	pipelines := m.pipelines
	m.pipelines = make(map[string]*Pipeline)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, p := range pipelines {
		wg.Add(1)
		go func(p *Pipeline) {
			defer wg.Done()
			p.Close()
		}(p)
	}
	wg.Wait()

	metrics.ActiveConsultations.Set(0)
}
