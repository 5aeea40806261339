package stt

import (
	"context"
	"fmt"
	"time"

	restv1api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/lexiqai/voice-companion/internal/config"
	"github.com/lexiqai/voice-companion/internal/observability"
	"github.com/lexiqai/voice-companion/internal/resilience"
)

// DeepgramClient implements Transcriber using Deepgram's prerecorded
// REST API. Captures are short push-to-talk clips, so file-at-a-time
// transcription is a better fit than a streaming session
type DeepgramClient struct {
	config         *config.Config
	client         *restv1api.Client
	circuitBreaker *resilience.CircuitBreaker
}

// NewDeepgramClient creates a new Deepgram prerecorded client
func NewDeepgramClient(cfg *config.Config) *DeepgramClient {
	circuitBreaker := resilience.NewCircuitBreaker(
		"deepgram",
		cfg.CircuitBreakerMaxFailures,
		time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
	)

	// The SDK writes the API key into the options before checking
	// them, so they must be non-nil
	restClient := listenClient.NewREST(cfg.DeepgramAPIKey, &interfaces.ClientOptions{})

	return &DeepgramClient{
		config:         cfg,
		client:         restv1api.New(restClient),
		circuitBreaker: circuitBreaker,
	}
}

// TranscribeFile transcribes one recorded capture
func (d *DeepgramClient) TranscribeFile(ctx context.Context, path string) (*TranscriptionResult, error) {
	log := observability.GetLogger()

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       d.config.DeepgramModel,
		Language:    d.config.DeepgramLanguage,
		Punctuate:   true,
		SmartFormat: true,
	}

	var result *TranscriptionResult
	err := d.circuitBreaker.Call(func() error {
		res, err := d.client.FromFile(ctx, path, options)
		if err != nil {
			return fmt.Errorf("deepgram request failed: %w", err)
		}

		if res == nil || len(res.Results.Channels) == 0 ||
			len(res.Results.Channels[0].Alternatives) == 0 {
			return fmt.Errorf("deepgram returned no transcription alternatives")
		}

		alt := res.Results.Channels[0].Alternatives[0]
		result = &TranscriptionResult{
			Text:       alt.Transcript,
			Confidence: alt.Confidence,
		}
		return nil
	})
	observability.UpdateCircuitBreakerState("deepgram", int(d.circuitBreaker.GetState()))

	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("file", path).
		Float64("confidence", result.Confidence).
		Int("text_len", len(result.Text)).
		Msg("Transcription complete")

	return result, nil
}

// HealthCheck reports whether the client is usable. The prerecorded
// API has no ping endpoint, so this only validates configuration and
// breaker state
func (d *DeepgramClient) HealthCheck(ctx context.Context) (bool, error) {
	if d.config.DeepgramAPIKey == "" {
		return false, fmt.Errorf("deepgram API key not configured")
	}
	if d.circuitBreaker.GetState() == resilience.StateOpen {
		return false, fmt.Errorf("deepgram circuit breaker is open")
	}
	return true, nil
}
