// Package orch drives the agent session lifecycle end to end: credential
// issue, room connect, pipeline attach, messaging, teardown.
package orch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Enoch-015/Kali-E/internal/app"
	"github.com/Enoch-015/Kali-E/internal/auth"
	"github.com/Enoch-015/Kali-E/internal/core"
	"github.com/Enoch-015/Kali-E/internal/domain"
)

type Orchestrator struct {
	Registry  *app.Registry
	Issuer    *auth.Issuer
	Transport core.RoomTransport
	Pipelines core.PipelineFactory
	Recorder  core.Recorder

	Params   core.PipelineParams
	Greeting string

	ConnectTimeout  time.Duration
	ReplyTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// StartResult distinguishes a freshly bootstrapped session from reuse of
// an already-live one.
type StartResult struct {
	Session *app.Session
	Created bool
}

// Start attaches the agent to a room, connecting outbound. If the room is
// already agent-occupied the existing handle is returned and no second
// connect is attempted. On connect failure nothing is registered.
func (o *Orchestrator) Start(ctx context.Context, room domain.RoomName) (StartResult, error) {
	if s, ok := o.Registry.Get(room); ok {
		return StartResult{Session: s}, nil
	}

	token, err := o.Issuer.Issue(domain.AgentIdentity(room), room, auth.Capabilities{
		CanPublish:   true,
		CanSubscribe: true,
	})
	if err != nil {
		return StartResult{}, err
	}

	s := app.NewSession(room)
	o.Recorder.SessionCreated(room, s.CreatedAt)
	s.To(domain.StatusConnecting)

	cctx, cancel := context.WithTimeout(ctx, o.ConnectTimeout)
	defer cancel()
	conn, err := o.Transport.Connect(cctx, room, token)
	if err != nil {
		s.Fail()
		if errors.Is(err, context.DeadlineExceeded) {
			return StartResult{}, fmt.Errorf("room %q: %w", room, core.ErrConnectTimeout)
		}
		return StartResult{}, fmt.Errorf("room %q: %w: %w", room, core.ErrConnectFailed, err)
	}
	log.Info().Str("module", "orch").Str("room", string(room)).Msg("connected to room")

	return o.activate(ctx, s, conn)
}

// Adopt is the push-mode entrypoint: the transport already holds a
// connected room (join event) and hands it over instead of us dialing.
func (o *Orchestrator) Adopt(ctx context.Context, conn core.RoomConnection) (StartResult, error) {
	room := conn.RoomName()
	if s, ok := o.Registry.Get(room); ok {
		conn.Disconnect("agent already present")
		return StartResult{Session: s}, nil
	}

	s := app.NewSession(room)
	o.Recorder.SessionCreated(room, s.CreatedAt)
	s.To(domain.StatusConnecting)
	return o.activate(ctx, s, conn)
}

// activate builds and attaches the pipeline, registers the session, and
// speaks the greeting. Failure tears the connection down and leaves the
// registry untouched.
func (o *Orchestrator) activate(ctx context.Context, s *app.Session, conn core.RoomConnection) (StartResult, error) {
	room := s.Room

	params := o.Params
	params.OnTranscript = func(speaker, text string) {
		o.Recorder.TranscriptLine(domain.TranscriptLine{
			Room:    room,
			Speaker: speaker,
			Text:    text,
			At:      time.Now(),
		})
	}

	pipeline, err := o.Pipelines.New(params)
	if err != nil {
		s.Fail()
		conn.Disconnect("pipeline construction failed")
		return StartResult{}, fmt.Errorf("room %q: build pipeline: %w", room, err)
	}
	if err := pipeline.Attach(ctx, conn); err != nil {
		s.Fail()
		conn.Disconnect("pipeline attach failed")
		return StartResult{}, fmt.Errorf("room %q: attach pipeline: %w", room, err)
	}

	s.Bind(conn, pipeline)
	s.To(domain.StatusActive)

	if !o.Registry.Insert(s) {
		// Another live session beat us to the room. Unreachable when all
		// operations go through the per-room lanes, but never overwrite.
		log.Warn().Str("module", "orch").Str("room", string(room)).Msg("room occupied during activation, discarding session")
		_ = pipeline.Shutdown(ctx, "duplicate agent session")
		conn.Disconnect("duplicate agent session")
		if existing, ok := o.Registry.Get(room); ok {
			return StartResult{Session: existing}, nil
		}
		return StartResult{}, fmt.Errorf("room %q: %w", room, core.ErrSessionUnavailable)
	}
	o.Recorder.SessionActive(room, time.Now())

	if o.Greeting != "" {
		if err := pipeline.Say(ctx, o.Greeting); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("room", string(room)).Msg("greeting not accepted")
		} else {
			o.Recorder.TranscriptLine(domain.TranscriptLine{
				Room:    room,
				Speaker: domain.SpeakerAgent,
				Text:    o.Greeting,
				At:      time.Now(),
			})
		}
	}

	log.Info().Str("module", "orch").Str("room", string(room)).Msg("session active")
	return StartResult{Session: s, Created: true}, nil
}
