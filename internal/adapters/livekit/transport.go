// Package livekit adapts the LiveKit server SDK to the core interfaces:
// room transport, room directory, and webhook verification.
package livekit

import (
	"context"
	"fmt"
	"sync"
	"time"

	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/rs/zerolog/log"

	"github.com/Enoch-015/Kali-E/internal/core"
	"github.com/Enoch-015/Kali-E/internal/domain"
)

// Transport dials LiveKit rooms with pre-issued access tokens.
type Transport struct {
	URL string
}

func NewTransport(url string) *Transport {
	return &Transport{URL: url}
}

// Connect joins the room as the token's identity. Honors ctx deadline;
// a dial that completes after cancellation is disconnected, not leaked.
func (t *Transport) Connect(ctx context.Context, room domain.RoomName, token string) (core.RoomConnection, error) {
	if t.URL == "" {
		return nil, &core.ConfigError{Option: "LIVEKIT_URL"}
	}

	conn := &Conn{name: room}

	type dialResult struct {
		room *lksdk.Room
		err  error
	}
	ch := make(chan dialResult, 1)
	go func() {
		r, err := lksdk.ConnectToRoomWithToken(t.URL, token, conn.callback(), lksdk.WithAutoSubscribe(true))
		ch <- dialResult{room: r, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("dial %q: %w", room, res.err)
		}
		conn.bind(res.room)
		return conn, nil
	case <-ctx.Done():
		go func() {
			if res := <-ch; res.err == nil {
				res.room.Disconnect()
			}
		}()
		return nil, ctx.Err()
	}
}

// Conn implements core.RoomConnection and core.AudioSession over an SDK room.
type Conn struct {
	name domain.RoomName

	mu      sync.Mutex
	room    *lksdk.Room
	onAudio func(payload []byte)
	out     *lksdk.LocalSampleTrack
}

// Adopted wraps an already-connected SDK room for the push-mode entrypoint.
func Adopted(room *lksdk.Room) *Conn {
	c := &Conn{name: domain.RoomName(room.Name())}
	c.bind(room)
	return c
}

func (c *Conn) bind(room *lksdk.Room) {
	c.mu.Lock()
	c.room = room
	c.mu.Unlock()
}

func (c *Conn) RoomName() domain.RoomName {
	return c.name
}

func (c *Conn) Disconnect(reason string) {
	c.mu.Lock()
	room := c.room
	c.room = nil
	c.mu.Unlock()
	if room == nil {
		return
	}
	log.Info().Str("module", "adapters.livekit").Str("room", string(c.name)).Str("reason", reason).Msg("disconnecting")
	room.Disconnect()
}

// OnAudioFrame registers the sink for remote participant audio.
func (c *Conn) OnAudioFrame(fn func(payload []byte)) {
	c.mu.Lock()
	c.onAudio = fn
	c.mu.Unlock()
}

// WriteAudioFrame publishes one u-law frame on the agent's voice track,
// publishing the track lazily on first write.
func (c *Conn) WriteAudioFrame(payload []byte, duration time.Duration) error {
	track, err := c.outTrack()
	if err != nil {
		return err
	}
	return track.WriteSample(media.Sample{Data: payload, Duration: duration}, nil)
}

func (c *Conn) outTrack() (*lksdk.LocalSampleTrack, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.out != nil {
		return c.out, nil
	}
	if c.room == nil {
		return nil, fmt.Errorf("room %q: not connected", c.name)
	}

	track, err := lksdk.NewLocalSampleTrack(webrtc.RTPCodecCapability{
		MimeType:  webrtc.MimeTypePCMU,
		ClockRate: 8000,
		Channels:  1,
	})
	if err != nil {
		return nil, fmt.Errorf("create voice track: %w", err)
	}
	if _, err := c.room.LocalParticipant.PublishTrack(track, &lksdk.TrackPublicationOptions{
		Name: "agent-voice",
	}); err != nil {
		return nil, fmt.Errorf("publish voice track: %w", err)
	}
	c.out = track
	return track, nil
}

func (c *Conn) callback() *lksdk.RoomCallback {
	return &lksdk.RoomCallback{
		ParticipantCallback: lksdk.ParticipantCallback{
			OnTrackSubscribed: func(track *webrtc.TrackRemote, pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
				if track.Kind() != webrtc.RTPCodecTypeAudio {
					return
				}
				// Never feed the agent its own voice back.
				if rp.Identity() == string(domain.AgentIdentity(c.name)) {
					return
				}
				go c.pumpAudio(track, rp.Identity())
			},
		},
	}
}

// pumpAudio reads RTP from a remote audio track and hands payloads to the
// registered sink until the track ends.
func (c *Conn) pumpAudio(track *webrtc.TrackRemote, identity string) {
	log.Info().Str("module", "adapters.livekit").Str("room", string(c.name)).Str("identity", identity).Msg("audio track subscribed")
	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			log.Info().Err(err).Str("module", "adapters.livekit").Str("room", string(c.name)).Str("identity", identity).Msg("audio track ended")
			return
		}
		if len(pkt.Payload) == 0 {
			continue
		}
		c.mu.Lock()
		fn := c.onAudio
		c.mu.Unlock()
		if fn != nil {
			fn(pkt.Payload)
		}
	}
}
