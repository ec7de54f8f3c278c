package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Enoch-015/Kali-E/internal/domain"
)

// Registry is the single source of truth for "is this room agent-occupied".
// At most one live (non-Closed, non-Failed) session exists per room.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.RoomName]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.RoomName]*Session)}
}

// Insert adds a session for its room. Returns false if a live session is
// already registered; the existing entry is never overwritten. A terminal
// leftover entry is displaced.
func (r *Registry) Insert(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[s.Room]; ok && existing.Status().Live() {
		return false
	}
	r.sessions[s.Room] = s
	log.Info().Str("module", "app.registry").Str("room", string(s.Room)).Msg("registered session")
	return true
}

// Get returns the live session for a room. Terminal sessions are treated
// as absent and dropped.
func (r *Registry) Get(room domain.RoomName) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[room]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !s.Status().Live() {
		r.mu.Lock()
		if cur, ok := r.sessions[room]; ok && cur == s {
			delete(r.sessions, room)
		}
		r.mu.Unlock()
		return nil, false
	}
	return s, true
}

// Remove deletes and returns the session for a room, if any.
func (r *Registry) Remove(room domain.RoomName) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[room]
	if !ok {
		return nil, false
	}
	delete(r.sessions, room)
	log.Info().Str("module", "app.registry").Str("room", string(room)).Msg("removed session")
	return s, true
}

// Rooms snapshots the rooms with a registered session.
func (r *Registry) Rooms() []domain.RoomName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.RoomName, 0, len(r.sessions))
	for room := range r.sessions {
		out = append(out, room)
	}
	return out
}

// Len reports the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
