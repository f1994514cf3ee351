package server

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// sessionSet tracks long-lived SSE and WebSocket connections so Stop can end them
type sessionSet struct {
	mu       sync.Mutex
	sessions map[string]context.CancelFunc
}

func newSessionSet() *sessionSet {
	return &sessionSet{sessions: make(map[string]context.CancelFunc)}
}

// Add registers a session and returns its id
func (ss *sessionSet) Add(cancel context.CancelFunc) string {
	id := uuid.NewString()
	ss.mu.Lock()
	ss.sessions[id] = cancel
	ss.mu.Unlock()
	return id
}

// Remove forgets a session
func (ss *sessionSet) Remove(id string) {
	ss.mu.Lock()
	delete(ss.sessions, id)
	ss.mu.Unlock()
}

// Len returns the number of open sessions
func (ss *sessionSet) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.sessions)
}

// CloseAll cancels every open session
func (ss *sessionSet) CloseAll() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	for id, cancel := range ss.sessions {
		cancel()
		delete(ss.sessions, id)
	}
}
