package session

import (
	"sync"

	"github.com/atendai/livechat-console/internal/realtime"
	"github.com/atendai/livechat-console/internal/store"
	"github.com/atendai/livechat-console/pkg/logger"
	"github.com/atendai/livechat-console/pkg/metrics"
)

// Manager hands out one session per operator. Sessions are created lazily on
// first use and live until Close; each reconciles independently against the
// shared store.
type Manager struct {
	store  store.Store
	source realtime.Source
	logger *logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(st store.Store, src realtime.Source, log *logger.Logger) *Manager {
	return &Manager{
		store:    st,
		source:   src,
		logger:   log,
		sessions: make(map[string]*Session),
	}
}

// Get returns the operator's session, creating it on first use.
func (m *Manager) Get(tenantID, operatorID string) *Session {
	key := tenantID + "/" + operatorID

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[key]; ok {
		return s
	}

	s := New(tenantID, operatorID, m.store, m.source, m.logger)
	m.sessions[key] = s
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	return s
}

// Release closes and removes the operator's session.
func (m *Manager) Release(tenantID, operatorID string) {
	key := tenantID + "/" + operatorID

	m.mu.Lock()
	s, ok := m.sessions[key]
	if ok {
		delete(m.sessions, key)
	}
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	if ok {
		s.Close()
	}
}

// Close shuts down every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	metrics.ActiveSessions.Set(0)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
