package conversation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-companion/internal/audio"
	"github.com/lexiqai/voice-companion/internal/config"
	"github.com/lexiqai/voice-companion/internal/llm"
	"github.com/lexiqai/voice-companion/internal/observability"
	"github.com/lexiqai/voice-companion/internal/pipeline"
	"github.com/lexiqai/voice-companion/internal/stt"
	"github.com/lexiqai/voice-companion/internal/tts"
)

// Recorder captures microphone audio for one turn
type Recorder interface {
	Start() (*audio.Session, error)
	Stop(s *audio.Session) error
	Validate(s *audio.Session) (bool, error)
	Cleanup(s *audio.Session)
}

// Trigger is the push-to-talk control surface
type Trigger interface {
	WaitForPress(ctx context.Context) error
	WaitForRelease(ctx context.Context) error
	MonitorInterrupt(ctx context.Context, interrupt func())
}

// Loop drives the conversation cycle: wait for the button, record
// while held, transcribe, generate, and speak the reply. A press
// during the reply interrupts playback and starts the next turn
type Loop struct {
	cfg         *config.Config
	engine      llm.Engine
	synth       tts.Synthesizer
	transcriber stt.Transcriber
	recorder    Recorder
	player      pipeline.Player
	trigger     Trigger
	hub         *observability.EventHub
}

// Deps carries the loop's collaborators
type Deps struct {
	Engine      llm.Engine
	Synthesizer tts.Synthesizer
	Transcriber stt.Transcriber
	Recorder    Recorder
	Player      pipeline.Player
	Trigger     Trigger
	Hub         *observability.EventHub
}

func NewLoop(cfg *config.Config, deps Deps) *Loop {
	return &Loop{
		cfg:         cfg,
		engine:      deps.Engine,
		synth:       deps.Synthesizer,
		transcriber: deps.Transcriber,
		recorder:    deps.Recorder,
		player:      deps.Player,
		trigger:     deps.Trigger,
		hub:         deps.Hub,
	}
}

// Run cycles conversation turns until the context is cancelled.
// A failed turn is logged and the loop keeps going; only context
// cancellation stops it
func (l *Loop) Run(ctx context.Context) error {
	log := observability.GetLogger()
	log.Info().Msg("Conversation loop started, waiting for button")

	for {
		if err := l.trigger.WaitForPress(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			log.Error().Err(err).Msg("Button wait failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		if err := l.runTurn(ctx); err != nil {
			log.Error().Err(err).Msg("Turn failed")
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

// runTurn executes a single press-to-reply cycle
func (l *Loop) runTurn(ctx context.Context) error {
	turnID := observability.NewTurnID()
	log := observability.WithTurnID(turnID)
	metrics := observability.NewTurnMetrics(turnID)

	metrics.RecordTurnStart()
	defer metrics.RecordTurnEnd()

	l.broadcast("turn_started", turnID, "")
	log.Info().Msg("Turn started")

	transcript, err := l.captureUtterance(ctx, turnID, log, metrics)
	if err != nil {
		return err
	}
	if transcript == "" {
		log.Info().Msg("No speech captured, skipping turn")
		l.broadcast("turn_complete", turnID, "no speech")
		return nil
	}

	if err := l.speakReply(ctx, turnID, transcript, log, metrics); err != nil {
		return err
	}

	l.broadcast("turn_complete", turnID, "")
	log.Info().Msg("Turn complete")
	return nil
}

// captureUtterance records while the button is held and returns the
// transcript, or "" when the capture held no usable audio
func (l *Loop) captureUtterance(ctx context.Context, turnID string, log zerolog.Logger, metrics *observability.Metrics) (string, error) {
	l.broadcast("recording", turnID, "")

	session, err := l.recorder.Start()
	if err != nil {
		metrics.RecordRecordingAttempt("error")
		metrics.RecordError("recording_start", "conversation")
		return "", fmt.Errorf("failed to start recording: %w", err)
	}
	metrics.RecordRecordingAttempt("success")
	defer l.recorder.Cleanup(session)

	releaseErr := l.trigger.WaitForRelease(ctx)
	if err := l.recorder.Stop(session); err != nil {
		log.Warn().Err(err).Msg("Recording stop was not clean")
	}
	if releaseErr != nil {
		return "", releaseErr
	}

	ok, err := l.recorder.Validate(session)
	if err != nil {
		return "", fmt.Errorf("failed to validate recording: %w", err)
	}
	if !ok {
		l.broadcast("no_audio", turnID, "")
		return "", nil
	}
	if info, err := os.Stat(session.Path); err == nil {
		metrics.RecordRecordingBytes(info.Size())
	}

	metrics.RecordTranscriptionStart()
	result, err := l.transcriber.TranscribeFile(ctx, session.Path)
	metrics.RecordTranscriptionEnd(err == nil)
	if err != nil {
		metrics.RecordError("transcription", "conversation")
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	transcript := strings.TrimSpace(result.Text)
	if transcript != "" {
		log.Info().
			Str("transcript", transcript).
			Float64("confidence", result.Confidence).
			Msg("Transcribed utterance")
		l.broadcast("transcribed", turnID, transcript)
	}
	return transcript, nil
}

// speakReply streams a generated response through the playback
// pipeline, watching the button for an interrupt press
func (l *Loop) speakReply(ctx context.Context, turnID, transcript string, log zerolog.Logger, metrics *observability.Metrics) error {
	prompt := l.cfg.PromptPrefix + transcript + "\n" + l.cfg.PromptSuffix

	stream, err := l.engine.Generate(ctx, prompt)
	if err != nil {
		metrics.RecordGeneration(false, 0)
		metrics.RecordError("generation", "conversation")
		return fmt.Errorf("generation failed: %w", err)
	}
	defer stream.Close()

	p := pipeline.New(pipeline.Options{
		StopMarkers: l.cfg.StopMarkerList(),
		StopWindow:  l.cfg.StopWindow,
		Synthesizer: l.synth,
		Player:      l.player,
		Logger:      log,
		Metrics:     metrics,
	})

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	go l.trigger.MonitorInterrupt(monitorCtx, func() {
		metrics.RecordInterrupt()
		l.broadcast("interrupted", turnID, "")
		p.Controller().Interrupt()
	})
	go func() {
		// Daemon shutdown also unblocks an in-flight reply
		<-monitorCtx.Done()
		if ctx.Err() != nil {
			p.Controller().Interrupt()
		}
	}()

	l.broadcast("speaking", turnID, "")
	runErr := p.Run(stream)
	stopMonitor()

	stats := stream.Stats()
	metrics.RecordGeneration(runErr == nil, stats.TokensPredicted)

	if runErr != nil {
		metrics.RecordError("pipeline", "conversation")
		return fmt.Errorf("reply playback failed: %w", runErr)
	}

	log.Info().
		Int("tokens_predicted", stats.TokensPredicted).
		Int("tokens_evaluated", stats.TokensEvaluated).
		Bool("interrupted", p.Interrupted()).
		Msg("Reply finished")
	return nil
}

func (l *Loop) broadcast(eventType, turnID, detail string) {
	if l.hub == nil {
		return
	}
	l.hub.Broadcast(observability.NewEvent(eventType, turnID, detail))
}
