package orch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Enoch-015/Kali-E/internal/core"
	"github.com/Enoch-015/Kali-E/internal/domain"
)

// SendMessage forwards user text to the room's pipeline. An unoccupied
// room is bootstrapped first: a message may create the session it talks
// to. Returns once the reply generation is accepted.
func (o *Orchestrator) SendMessage(ctx context.Context, room domain.RoomName, text string) error {
	s, ok := o.Registry.Get(room)
	if !ok {
		res, err := o.Start(ctx, room)
		if err != nil {
			return fmt.Errorf("%w: %w", core.ErrSessionUnavailable, err)
		}
		s = res.Session
	}

	o.Recorder.TranscriptLine(domain.TranscriptLine{
		Room:    room,
		Speaker: domain.SpeakerUser,
		Text:    text,
		At:      time.Now(),
	})

	rctx, cancel := context.WithTimeout(ctx, o.ReplyTimeout)
	defer cancel()
	if err := s.Pipeline().GenerateReply(rctx, text); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("room %q: reply: %w", room, core.ErrTimeout)
		}
		return fmt.Errorf("room %q: reply: %w", room, err)
	}
	return nil
}

// End tears the room's session down. Returns false when there is nothing
// to end. Teardown failures are logged, not propagated: the registry
// entry is removed regardless, cleanup beats reporting fidelity.
func (o *Orchestrator) End(ctx context.Context, room domain.RoomName, reason string) bool {
	s, ok := o.Registry.Get(room)
	if !ok {
		return false
	}

	s.To(domain.StatusEnding)

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.ShutdownTimeout)
	defer cancel()
	if pipeline := s.Pipeline(); pipeline != nil {
		if err := pipeline.Shutdown(sctx, reason); err != nil {
			log.Error().Err(err).Str("module", "orch").Str("room", string(room)).Msg("pipeline shutdown failed")
		}
	}
	if conn := s.Conn(); conn != nil {
		conn.Disconnect(reason)
	}

	s.To(domain.StatusClosed)
	o.Registry.Remove(room)
	o.Recorder.SessionEnded(room, reason, time.Now())
	log.Info().Str("module", "orch").Str("room", string(room)).Str("reason", reason).Msg("session ended")
	return true
}
