// Package http exposes the orchestration service over a gin API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Enoch-015/Kali-E/internal/adapters/livekit"
	"github.com/Enoch-015/Kali-E/internal/app/orch"
	"github.com/Enoch-015/Kali-E/internal/core"
	"github.com/Enoch-015/Kali-E/internal/domain"
)

type Handlers struct {
	Service  *orch.Service
	Webhooks *livekit.WebhookReceiver
}

type endRequest struct {
	Reason string `json:"reason"`
}

type messageRequest struct {
	Message string `json:"message"`
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Token hands a browser everything it needs to join: a signed credential,
// its identity, the room (freshly allocated unless given), and the URL.
func (h *Handlers) Token(c *gin.Context) {
	identity := domain.Identity(c.Query("name"))
	if identity == "" {
		identity = domain.Identity(c.GetString("identity"))
	}
	room := domain.RoomName(c.Query("room"))

	grant, err := h.Service.CreateCredentialForNewRoom(c.Request.Context(), identity, room)
	if err != nil {
		status := http.StatusInternalServerError
		if core.IsConfigError(err) {
			log.Error().Err(err).Str("module", "adapters.http").Msg("server misconfigured")
			c.JSON(status, gin.H{"error": "server misconfigured"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, grant)
}

func (h *Handlers) StartSession(c *gin.Context) {
	room := domain.RoomName(c.Param("room"))
	res, err := h.Service.StartSession(c.Request.Context(), room)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(room)).Msg("start session failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "started",
		"room":    string(room),
		"created": res.Created,
	})
}

func (h *Handlers) EndSession(c *gin.Context) {
	room := domain.RoomName(c.Param("room"))

	var req endRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "session ended"
	}

	ended, err := h.Service.EndSession(c.Request.Context(), room, req.Reason)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ended {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session for room"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}

func (h *Handlers) SendMessage(c *gin.Context) {
	room := domain.RoomName(c.Param("room"))

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no message provided"})
		return
	}

	if err := h.Service.SendMessage(c.Request.Context(), room, req.Message); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(room)).Msg("send message failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

// Webhook is the push-mode entrypoint: the media server announces room
// lifecycle events and we attach the agent to fresh rooms.
func (h *Handlers) Webhook(c *gin.Context) {
	event, err := h.Webhooks.Receive(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook"})
		return
	}
	if event.Room == nil || event.Room.Name == "" {
		c.Status(http.StatusOK)
		return
	}
	room := domain.RoomName(event.Room.Name)

	switch event.Event {
	case livekit.EventRoomStarted:
		if _, err := h.Service.StartSession(c.Request.Context(), room); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Str("room", string(room)).Msg("webhook start failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	case livekit.EventRoomFinished:
		if _, err := h.Service.EndSession(c.Request.Context(), room, "room finished"); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Str("room", string(room)).Msg("webhook end failed")
		}
	}
	c.Status(http.StatusOK)
}
