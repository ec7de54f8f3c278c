package store

import (
	"time"

	"github.com/Enoch-015/Kali-E/internal/domain"
)

// Noop discards all recorder events. Used when no database is configured.
type Noop struct{}

func (Noop) SessionCreated(domain.RoomName, time.Time)       {}
func (Noop) SessionActive(domain.RoomName, time.Time)        {}
func (Noop) SessionEnded(domain.RoomName, string, time.Time) {}
func (Noop) TranscriptLine(domain.TranscriptLine)            {}
