package domain

import (
	"encoding/hex"

	"github.com/google/uuid"
)

func randomHex(n int) string {
	id := uuid.New()
	return hex.EncodeToString(id[:])[:n]
}

// NewUserIdentity mints an identity for a browser participant.
func NewUserIdentity() Identity {
	return Identity("user-" + randomHex(8))
}

// NewAnonIdentity mints a short identity for callers that did not
// supply a name on the token endpoint.
func NewAnonIdentity() Identity {
	return Identity("anon-" + randomHex(4))
}

// AgentIdentity is the identity the agent joins a given room under.
// One agent per room, so the room name makes it unique.
func AgentIdentity(room RoomName) Identity {
	return Identity("agent-" + string(room))
}
