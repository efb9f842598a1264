package service

import (
	"sync"
	"time"
)

// SessionManager hands out the single active OrderSession per student.
// There is no app-wide current user; each request resolves its own session
// from the authenticated student id.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*OrderSession

	adapter        PaymentAdapter
	store          OrderStore
	adapterTimeout time.Duration
}

// NewSessionManager creates an empty registry.
func NewSessionManager(adapter PaymentAdapter, store OrderStore, adapterTimeout time.Duration) *SessionManager {
	return &SessionManager{
		sessions:       make(map[string]*OrderSession),
		adapter:        adapter,
		store:          store,
		adapterTimeout: adapterTimeout,
	}
}

// Get returns the student's session, creating an idle one on first use.
func (m *SessionManager) Get(payerID string) *OrderSession {
	m.mu.RLock()
	s, ok := m.sessions[payerID]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[payerID]; ok {
		return s
	}
	s = NewOrderSession(payerID, m.adapter, m.store, m.adapterTimeout)
	m.sessions[payerID] = s
	return s
}
