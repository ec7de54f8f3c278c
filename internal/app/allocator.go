package app

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Enoch-015/Kali-E/internal/core"
	"github.com/Enoch-015/Kali-E/internal/domain"
)

const (
	roomPrefix       = "room-"
	roomSuffixLen    = 8
	defaultRetries   = 5
	defaultLookupTTL = 2 * time.Second
)

// Allocator produces room names. Uniqueness is probabilistic (random hex
// suffix); when a room directory is reachable it additionally regenerates
// on collision. Directory trouble never blocks allocation.
type Allocator struct {
	Directory core.RoomDirectory // optional

	// Retries bounds collision regeneration; 0 means defaultRetries.
	Retries int

	// LookupTimeout bounds the directory call; 0 means defaultLookupTTL.
	LookupTimeout time.Duration
}

func (a *Allocator) Allocate(ctx context.Context) domain.RoomName {
	name := randomRoomName()
	if a.Directory == nil {
		return name
	}

	timeout := a.LookupTimeout
	if timeout <= 0 {
		timeout = defaultLookupTTL
	}
	lctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	existing, err := a.Directory.ListRoomNames(lctx)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.allocator").Msg("room directory unavailable, skipping collision check")
		return name
	}

	taken := make(map[domain.RoomName]struct{}, len(existing))
	for _, n := range existing {
		taken[n] = struct{}{}
	}

	retries := a.Retries
	if retries <= 0 {
		retries = defaultRetries
	}
	for i := 0; i < retries; i++ {
		if _, clash := taken[name]; !clash {
			return name
		}
		name = randomRoomName()
	}

	// Retry budget exhausted: hand back the last candidate unchecked
	// rather than failing the caller.
	log.Warn().Str("module", "app.allocator").Str("room", string(name)).Msg("collision retries exhausted, returning unchecked name")
	return name
}

func randomRoomName() domain.RoomName {
	id := uuid.New()
	return domain.RoomName(roomPrefix + hex.EncodeToString(id[:])[:roomSuffixLen])
}
