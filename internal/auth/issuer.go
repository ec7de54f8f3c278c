// Package auth builds signed, time-bounded room-join credentials.
// Verification happens downstream on the room server, never here.
package auth

import (
	"time"

	lkauth "github.com/livekit/protocol/auth"

	"github.com/Enoch-015/Kali-E/internal/core"
	"github.com/Enoch-015/Kali-E/internal/domain"
)

// Capabilities are the optional scopes on top of the implied room-join grant.
type Capabilities struct {
	CanPublish   bool
	CanSubscribe bool
}

// Issuer signs access tokens with a process-wide key id + secret pair.
type Issuer struct {
	keyID  string
	secret string
	ttl    time.Duration
}

func NewIssuer(keyID, secret string, ttl time.Duration) *Issuer {
	return &Issuer{keyID: keyID, secret: secret, ttl: ttl}
}

// Issue returns a signed JWT granting identity access to room. Missing
// signing material is a fatal configuration error; no network is touched.
func (i *Issuer) Issue(identity domain.Identity, room domain.RoomName, caps Capabilities) (string, error) {
	if i.keyID == "" {
		return "", &core.ConfigError{Option: "LIVEKIT_API_KEY"}
	}
	if i.secret == "" {
		return "", &core.ConfigError{Option: "LIVEKIT_API_SECRET"}
	}

	grant := &lkauth.VideoGrant{
		RoomJoin: true,
		Room:     string(room),
	}
	if caps.CanPublish {
		grant.SetCanPublish(true)
	}
	if caps.CanSubscribe {
		grant.SetCanSubscribe(true)
	}

	token := lkauth.NewAccessToken(i.keyID, i.secret).
		SetIdentity(string(identity)).
		SetName(string(identity)).
		SetVideoGrant(grant).
		SetValidFor(i.ttl)
	return token.ToJWT()
}
