package http

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Enoch-015/Kali-E/internal/config"
	"github.com/Enoch-015/Kali-E/internal/domain"
)

// IdentityMiddleware pins a participant identity to the browser session so
// repeated token requests hand out the same identity.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		identity, _ := s.Get("identity").(string)
		if identity == "" {
			identity = string(domain.NewUserIdentity())
			s.Set("identity", identity)
			if err := s.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("could not persist session identity")
			}
		}
		c.Set("identity", identity)
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, h *Handlers) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("KaliSessions", store))
	r.Use(IdentityMiddleware())

	api := r.Group("/api")
	api.GET("/health", h.Health)
	api.GET("/token", h.Token)
	api.POST("/rooms/:room/start", h.StartSession)
	api.POST("/rooms/:room/end", h.EndSession)
	api.POST("/rooms/:room/message", h.SendMessage)
	api.POST("/webhooks/livekit", h.Webhook)

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
