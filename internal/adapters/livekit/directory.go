package livekit

import (
	"context"
	"strings"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"

	"github.com/Enoch-015/Kali-E/internal/domain"
)

// Directory lists live rooms through the LiveKit room service API.
type Directory struct {
	client *lksdk.RoomServiceClient
}

func NewDirectory(url, apiKey, apiSecret string) *Directory {
	return &Directory{client: lksdk.NewRoomServiceClient(httpURL(url), apiKey, apiSecret)}
}

func (d *Directory) ListRoomNames(ctx context.Context) ([]domain.RoomName, error) {
	resp, err := d.client.ListRooms(ctx, &livekit.ListRoomsRequest{})
	if err != nil {
		return nil, err
	}
	names := make([]domain.RoomName, 0, len(resp.Rooms))
	for _, room := range resp.Rooms {
		names = append(names, domain.RoomName(room.Name))
	}
	return names, nil
}

// httpURL rewrites a websocket signalling URL to the HTTP API endpoint.
func httpURL(url string) string {
	switch {
	case strings.HasPrefix(url, "ws://"):
		return "http://" + strings.TrimPrefix(url, "ws://")
	case strings.HasPrefix(url, "wss://"):
		return "https://" + strings.TrimPrefix(url, "wss://")
	default:
		return url
	}
}
