package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type managedSession struct {
	session  *Session
	lastSeen time.Time
}

// SessionManager keeps live sessions in memory and forgets the ones that
// stay idle longer than the configured timeout. Evicted sessions are
// rebuilt from the persisted cart and wishlist on their next request.
type SessionManager struct {
	deps SessionDeps
	idle time.Duration

	mu       sync.Mutex
	sessions map[string]*managedSession
	nowFunc  func() time.Time

	done chan struct{}
	once sync.Once
}

// NewSessionManager starts the eviction loop. idle must be positive.
func NewSessionManager(deps SessionDeps, idle time.Duration) *SessionManager {
	m := &SessionManager{
		deps:     deps,
		idle:     idle,
		sessions: make(map[string]*managedSession),
		nowFunc:  time.Now,
		done:     make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Get returns the session for id, restoring it from the store when it is
// not in memory.
func (m *SessionManager) Get(ctx context.Context, id string) *Session {
	m.mu.Lock()
	if ms, ok := m.sessions[id]; ok {
		ms.lastSeen = m.nowFunc()
		m.mu.Unlock()
		return ms.session
	}
	m.mu.Unlock()

	// Loaded outside the lock; a concurrent first request may race us, and
	// the loser's session is closed below.
	snap := m.deps.Store.Load(ctx, id)
	s := NewSession(ctx, id, snap, m.deps)

	m.mu.Lock()
	if ms, ok := m.sessions[id]; ok {
		ms.lastSeen = m.nowFunc()
		m.mu.Unlock()
		s.Close()
		return ms.session
	}
	m.sessions[id] = &managedSession{session: s, lastSeen: m.nowFunc()}
	activeSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	m.deps.Logger.DebugContext(ctx, "session restored",
		slog.Int("cart_lines", len(snap.Cart)),
		slog.Int("wishlist", len(snap.Wishlist)),
	)
	return s
}

// Len returns the number of sessions in memory.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(m.idle)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.done:
			return
		}
	}
}

func (m *SessionManager) evictIdle() int {
	m.mu.Lock()
	now := m.nowFunc()
	var stale []*Session
	for id, ms := range m.sessions {
		if now.Sub(ms.lastSeen) > m.idle {
			stale = append(stale, ms.session)
			delete(m.sessions, id)
		}
	}
	activeSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		m.deps.Logger.Debug("idle sessions evicted", slog.Int("count", len(stale)))
	}
	return len(stale)
}

// Stop ends the eviction loop and closes every session.
func (m *SessionManager) Stop() {
	m.once.Do(func() {
		close(m.done)

		m.mu.Lock()
		sessions := m.sessions
		m.sessions = make(map[string]*managedSession)
		activeSessions.Set(0)
		m.mu.Unlock()

		for _, ms := range sessions {
			ms.session.Close()
		}
	})
}
