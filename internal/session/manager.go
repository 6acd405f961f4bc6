package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/talentgate/assess-backend/internal/model"
)

// Manager owns the live session engines, at most one per candidate. The
// per-session state is single-owner (the controller loop); the manager only
// guards the map itself.
type Manager struct {
	mu        sync.Mutex
	cfg       Config
	submitter Submitter
	log       zerolog.Logger
	sessions  map[uuid.UUID]*Controller
}

// NewManager creates an empty session manager.
func NewManager(cfg Config, submitter Submitter, log zerolog.Logger) *Manager {
	return &Manager{
		cfg:       cfg,
		submitter: submitter,
		log:       log.With().Str("component", "session_manager").Logger(),
		sessions:  make(map[uuid.UUID]*Controller),
	}
}

// Start creates and starts an engine for the candidate. If one is already
// live, it is returned with created=false so a reconnect re-attaches instead
// of spawning a second attempt.
func (m *Manager) Start(
	sessionID, candidateID uuid.UUID,
	identity model.CandidateIdentity,
	questions []model.Question,
) (*Controller, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[candidateID]; ok {
		select {
		case <-existing.Done():
			// Torn down; replace below.
		default:
			return existing, false, nil
		}
	}

	ctrl, err := NewController(sessionID, candidateID, identity, questions, m.cfg, m.submitter, m.log)
	if err != nil {
		return nil, false, err
	}

	ctrl.Start()
	m.sessions[candidateID] = ctrl
	return ctrl, true, nil
}

// Get returns the candidate's live engine, if any.
func (m *Manager) Get(candidateID uuid.UUID) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctrl, ok := m.sessions[candidateID]
	return ctrl, ok
}

// Stop tears down the candidate's engine and forgets it.
func (m *Manager) Stop(candidateID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ctrl, ok := m.sessions[candidateID]; ok {
		ctrl.Stop()
		delete(m.sessions, candidateID)
	}
}

// StopAll tears down every live engine. Used on shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ctrl := range m.sessions {
		ctrl.Stop()
		delete(m.sessions, id)
	}
}
