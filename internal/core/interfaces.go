// Package core declares the interfaces the orchestration layer consumes.
// Implementations live in adapters; the core never imports them.
package core

import (
	"context"
	"time"

	"github.com/Enoch-015/Kali-E/internal/domain"
)

// RoomConnection is a live link to a media room.
// Owned by the session handle; the orchestrator must Disconnect it exactly once.
type RoomConnection interface {
	RoomName() domain.RoomName
	Disconnect(reason string)
}

// AudioSession is implemented by room connections that expose raw audio I/O.
// Payloads are G.711 u-law at 8 kHz in both directions.
type AudioSession interface {
	// OnAudioFrame registers the sink for audio published by remote
	// participants. At most one sink; registering replaces the previous one.
	OnAudioFrame(fn func(payload []byte))

	// WriteAudioFrame publishes agent speech into the room.
	WriteAudioFrame(payload []byte, duration time.Duration) error
}

// RoomTransport dials rooms. Connect must honor ctx cancellation and
// deadline; a connection completing after cancellation must be torn down
// by the transport, not leaked.
type RoomTransport interface {
	Connect(ctx context.Context, room domain.RoomName, token string) (RoomConnection, error)
}

// RoomDirectory lists rooms currently live on the media server.
// Optional collaborator: allocation proceeds without it.
type RoomDirectory interface {
	ListRoomNames(ctx context.Context) ([]domain.RoomName, error)
}

// PipelineParams configures one STT → LLM → TTS pipeline instance.
type PipelineParams struct {
	RealtimeModel   string
	Voice           string
	STTModel        string
	STTLanguage     string
	Instructions    string
	TTSInstructions string

	// OnTranscript receives finalized utterance transcripts from the
	// pipeline (both user speech and agent speech). May be nil.
	OnTranscript func(speaker, text string)
}

// Pipeline is the speech-to-text → language-model → text-to-speech chain
// attached to one room connection.
type Pipeline interface {
	// Attach wires the pipeline to the room's audio and starts processing.
	Attach(ctx context.Context, conn RoomConnection) error

	// Say speaks the given text verbatim. Returns once the utterance is
	// accepted, not once speech finishes.
	Say(ctx context.Context, text string) error

	// GenerateReply feeds user text into the model and requests a spoken
	// response. Returns once the generation request is accepted.
	GenerateReply(ctx context.Context, text string) error

	// Shutdown stops the pipeline, propagating reason to listeners.
	Shutdown(ctx context.Context, reason string) error
}

// PipelineFactory constructs pipelines. Configuration problems (missing
// provider key) surface here, before any room is touched.
type PipelineFactory interface {
	New(params PipelineParams) (Pipeline, error)
}

// Recorder receives session lifecycle and transcript notifications.
// Fire-and-forget: implementations must not block the caller and must
// swallow their own failures.
type Recorder interface {
	SessionCreated(room domain.RoomName, at time.Time)
	SessionActive(room domain.RoomName, at time.Time)
	SessionEnded(room domain.RoomName, reason string, at time.Time)
	TranscriptLine(line domain.TranscriptLine)
}
