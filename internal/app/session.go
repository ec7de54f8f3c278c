package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Enoch-015/Kali-E/internal/core"
	"github.com/Enoch-015/Kali-E/internal/domain"
)

// Session is the live handle for one agent attachment to a room.
// The Registry owns it; the orchestrator borrows it per operation.
type Session struct {
	Room      domain.RoomName
	CreatedAt time.Time

	mu       sync.Mutex
	status   domain.Status
	conn     core.RoomConnection
	pipeline core.Pipeline
}

func NewSession(room domain.RoomName) *Session {
	return &Session{
		Room:      room,
		CreatedAt: time.Now(),
		status:    domain.StatusCreated,
	}
}

func (s *Session) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// To moves the session to a new status, refusing illegal edges.
func (s *Session) To(to domain.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.status.CanTransition(to) {
		log.Warn().Str("module", "app.session").
			Str("room", string(s.Room)).
			Stringer("from", s.status).
			Stringer("to", to).
			Msg("refused status transition")
		return false
	}
	s.status = to
	return true
}

// Fail marks the session Failed from whatever non-terminal state it is in.
func (s *Session) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.status = domain.StatusFailed
}

// Bind attaches the room connection and pipeline to the handle.
func (s *Session) Bind(conn core.RoomConnection, pipeline core.Pipeline) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
	s.pipeline = pipeline
}

func (s *Session) Conn() core.RoomConnection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Session) Pipeline() core.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline
}
