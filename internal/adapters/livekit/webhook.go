package livekit

import (
	"net/http"

	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/webhook"
)

// Webhook event names the service reacts to.
const (
	EventRoomStarted  = "room_started"
	EventRoomFinished = "room_finished"
)

// WebhookReceiver verifies and decodes LiveKit webhook posts. This is the
// push-mode join signal: the media server tells us a room came up.
type WebhookReceiver struct {
	provider auth.KeyProvider
}

func NewWebhookReceiver(apiKey, apiSecret string) *WebhookReceiver {
	return &WebhookReceiver{provider: auth.NewSimpleKeyProvider(apiKey, apiSecret)}
}

func (w *WebhookReceiver) Receive(r *http.Request) (*livekit.WebhookEvent, error) {
	return webhook.ReceiveWebhookEvent(r, w.provider)
}
