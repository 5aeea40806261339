package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexiqai/voice-companion/internal/audio"
	"github.com/lexiqai/voice-companion/internal/button"
	"github.com/lexiqai/voice-companion/internal/config"
	"github.com/lexiqai/voice-companion/internal/conversation"
	"github.com/lexiqai/voice-companion/internal/llm"
	"github.com/lexiqai/voice-companion/internal/observability"
	"github.com/lexiqai/voice-companion/internal/stt"
	"github.com/lexiqai/voice-companion/internal/tts"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("engine_url", cfg.EngineURL).
		Str("synth_url", cfg.SynthURL).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Voice Companion starting")

	engine := llm.NewHTTPEngine(cfg)
	defer engine.Close()

	synth := tts.NewHTTPClient(cfg)
	defer synth.Close()

	transcriber := stt.NewDeepgramClient(cfg)

	// Create HTTP server for the local observability surface
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness endpoint - probe the local services the loop depends on
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"engine":   engine.HealthCheck,
		"synth":    synth.HealthCheck,
		"deepgram": transcriber.HealthCheck,
		"audio": func(ctx context.Context) (bool, error) {
			if !audio.DevicesAvailable() {
				return false, fmt.Errorf("no capture device available")
			}
			return true, nil
		},
	}))

	// Live event stream for debugging the conversation cycle
	hub := observability.NewEventHub()
	mux.HandleFunc("/ws", hub.Handler())

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Msg("Observability server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Run the conversation loop until shutdown
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop := conversation.NewLoop(cfg, conversation.Deps{
			Engine:      engine,
			Synthesizer: synth,
			Transcriber: transcriber,
			Recorder:    audio.NewRecorder(cfg),
			Player:      audio.NewExecPlayer(cfg),
			Trigger:     button.New(cfg),
			Hub:         hub,
		})
		if err := loop.Run(loopCtx); err != nil {
			logger.Error().Err(err).Msg("Conversation loop exited with error")
		}
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down...")
	stopLoop()

	select {
	case <-loopDone:
	case <-time.After(10 * time.Second):
		logger.Warn().Msg("Conversation loop did not stop in time")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Voice Companion exited gracefully")
}
