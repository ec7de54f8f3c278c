package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Enoch-015/Kali-E/internal/adapters/agent"
	router "github.com/Enoch-015/Kali-E/internal/adapters/http"
	"github.com/Enoch-015/Kali-E/internal/adapters/livekit"
	"github.com/Enoch-015/Kali-E/internal/app"
	"github.com/Enoch-015/Kali-E/internal/app/orch"
	"github.com/Enoch-015/Kali-E/internal/auth"
	"github.com/Enoch-015/Kali-E/internal/config"
	"github.com/Enoch-015/Kali-E/internal/core"
	"github.com/Enoch-015/Kali-E/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var recorder core.Recorder = store.Noop{}
	if cfg.DatabaseURL != "" {
		pg, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open database")
		}
		defer pg.Close()
		recorder = pg
	} else {
		log.Warn().Msg("no DATABASE_URL set, sessions and transcripts will not be persisted")
	}

	issuer := auth.NewIssuer(cfg.APIKey, cfg.APISecret, cfg.TokenTTL)
	registry := app.NewRegistry()
	lanes := app.NewLanes()

	orchestrator := &orch.Orchestrator{
		Registry:  registry,
		Issuer:    issuer,
		Transport: livekit.NewTransport(cfg.LiveKitURL),
		Pipelines: agent.NewFactory(cfg.OpenAIKey),
		Recorder:  recorder,
		Params: core.PipelineParams{
			RealtimeModel:   cfg.RealtimeModel,
			Voice:           cfg.Voice,
			STTModel:        cfg.STTModel,
			STTLanguage:     cfg.STTLanguage,
			Instructions:    cfg.Instructions,
			TTSInstructions: cfg.TTSInstructions,
		},
		Greeting:        cfg.Greeting,
		ConnectTimeout:  cfg.ConnectTimeout,
		ReplyTimeout:    cfg.ReplyTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}

	service := &orch.Service{
		Orch:   orchestrator,
		Lanes:  lanes,
		Issuer: issuer,
		Allocator: &app.Allocator{
			Directory: livekit.NewDirectory(cfg.LiveKitURL, cfg.APIKey, cfg.APISecret),
		},
		URL: cfg.LiveKitURL,
	}

	handlers := &router.Handlers{
		Service:  service,
		Webhooks: livekit.NewWebhookReceiver(cfg.APIKey, cfg.APISecret),
	}

	r := router.SetupRouter(cfg, handlers)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Kali-E server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	// Detach the agent from every room before closing the listener.
	for _, room := range registry.Rooms() {
		if _, err := service.EndSession(shutdownCtx, room, "server shutting down"); err != nil {
			log.Error().Err(err).Str("room", string(room)).Msg("failed to end session on shutdown")
		}
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
