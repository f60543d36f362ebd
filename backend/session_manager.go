package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yeseung/omok-extension/game"
	"github.com/zeromicro/go-zero/core/logx"
)

const janitorInterval = time.Minute

type SessionManager struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	config       *ConfigStore
	points       PointsStore
	hub          *Hub
	newEvaluator func() *game.Evaluator
}

func NewSessionManager(config *ConfigStore, points PointsStore, hub *Hub) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		config:   config,
		points:   points,
		hub:      hub,
		newEvaluator: func() *game.Evaluator {
			return game.NewEvaluator(game.WithSide(aiSide))
		},
	}
}

// Create starts a new game. An empty playerID plays as a guest without points.
func (m *SessionManager) Create(playerID string) (*Session, error) {
	board, err := game.NewBoard(m.config.Get().BoardSize)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	id := uuid.NewString()
	session := NewSession(id, playerID, board, m.newEvaluator(), m.config, m.points)
	if m.hub != nil {
		session.SetPublisher(func(status StatusResponse) {
			m.hub.Publish(id, status)
		})
	}

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()
	logx.Infof("[session] created %s for %q", id, playerID)
	return session, nil
}

func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, nil
}

func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	session.Close()
	logx.Infof("[session] deleted %s", id)
	return nil
}

func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle since before now-ttl and returns how many went.
func (m *SessionManager) Sweep(now time.Time, ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	var expired []*Session
	m.mu.Lock()
	for id, session := range m.sessions {
		if now.Sub(session.LastActive()) > ttl {
			expired = append(expired, session)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, session := range expired {
		session.Close()
	}
	if len(expired) > 0 {
		logx.Infof("[session] expired %d idle sessions", len(expired))
	}
	return len(expired)
}

func (m *SessionManager) RunJanitor(done <-chan struct{}) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			m.Sweep(now, m.config.Get().SessionTTL())
		}
	}
}
