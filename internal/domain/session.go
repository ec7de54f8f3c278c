package domain

import "time"

// Status is the lifecycle state of an agent session.
type Status int32

const (
	StatusCreated Status = iota
	StatusConnecting
	StatusActive
	StatusEnding
	StatusClosed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusConnecting:
		return "connecting"
	case StatusActive:
		return "active"
	case StatusEnding:
		return "ending"
	case StatusClosed:
		return "closed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusFailed
}

// Live reports whether the session still occupies its room. A room whose
// session is Closed or Failed may be recreated under a fresh handle.
func (s Status) Live() bool {
	return !s.Terminal()
}

// CanTransition encodes the legal lifecycle edges:
// Created → Connecting → Active → Ending → Closed, with Failed reachable
// from Connecting and Active.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusCreated:
		return to == StatusConnecting
	case StatusConnecting:
		return to == StatusActive || to == StatusFailed
	case StatusActive:
		return to == StatusEnding || to == StatusFailed
	case StatusEnding:
		return to == StatusClosed
	default:
		return false
	}
}

// Speaker labels for transcript lines.
const (
	SpeakerUser  = "user"
	SpeakerAgent = "agent"
)

// TranscriptLine is one utterance recorded against a session.
type TranscriptLine struct {
	Room    RoomName
	Speaker string
	Text    string
	At      time.Time
}
