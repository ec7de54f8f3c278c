package orch

import (
	"context"

	"github.com/Enoch-015/Kali-E/internal/app"
	"github.com/Enoch-015/Kali-E/internal/auth"
	"github.com/Enoch-015/Kali-E/internal/domain"
)

// JoinGrant is what a client needs to join a room.
type JoinGrant struct {
	Token    string `json:"token"`
	Identity string `json:"identity"`
	Room     string `json:"room"`
	URL      string `json:"url"`
}

// Service is the boundary the HTTP layer talks to. Every session
// operation is funneled through the per-room lanes, so callers never
// interleave work on one room.
type Service struct {
	Orch      *Orchestrator
	Lanes     *app.Lanes
	Issuer    *auth.Issuer
	Allocator *app.Allocator
	URL       string
}

// CreateCredentialForNewRoom issues a join token for a client. Empty
// identity gets an anonymous one; empty room gets a fresh allocation.
func (s *Service) CreateCredentialForNewRoom(ctx context.Context, identity domain.Identity, room domain.RoomName) (*JoinGrant, error) {
	if identity == "" {
		identity = domain.NewAnonIdentity()
	}
	if room == "" {
		room = s.Allocator.Allocate(ctx)
	}

	token, err := s.Issuer.Issue(identity, room, auth.Capabilities{
		CanPublish:   true,
		CanSubscribe: true,
	})
	if err != nil {
		return nil, err
	}
	return &JoinGrant{
		Token:    token,
		Identity: string(identity),
		Room:     string(room),
		URL:      s.URL,
	}, nil
}

// StartSession attaches the agent to room, serialized on the room's lane.
func (s *Service) StartSession(ctx context.Context, room domain.RoomName) (StartResult, error) {
	v, err := s.Lanes.Do(ctx, room, func(ctx context.Context) (any, error) {
		return s.Orch.Start(ctx, room)
	})
	if err != nil {
		return StartResult{}, err
	}
	return v.(StartResult), nil
}

// EndSession tears down the room's session. The bool reports whether a
// session existed at all.
func (s *Service) EndSession(ctx context.Context, room domain.RoomName, reason string) (bool, error) {
	v, err := s.Lanes.Do(ctx, room, func(ctx context.Context) (any, error) {
		return s.Orch.End(ctx, room, reason), nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// SendMessage forwards text into the room's pipeline, bootstrapping the
// session when needed.
func (s *Service) SendMessage(ctx context.Context, room domain.RoomName, text string) error {
	_, err := s.Lanes.Do(ctx, room, func(ctx context.Context) (any, error) {
		return nil, s.Orch.SendMessage(ctx, room, text)
	})
	return err
}
