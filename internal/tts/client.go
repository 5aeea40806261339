package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lexiqai/voice-companion/internal/config"
	"github.com/lexiqai/voice-companion/internal/observability"
)

// HTTPClient implements Synthesizer against an HTTP synthesis service
type HTTPClient struct {
	apiURL     string
	httpClient *http.Client
	mu         sync.RWMutex
	isActive   bool
}

// synthesisRequest is the request payload for the synthesis service
type synthesisRequest struct {
	Text string `json:"text"`
}

// NewHTTPClient creates a new synthesis client
func NewHTTPClient(cfg *config.Config) *HTTPClient {
	return &HTTPClient{
		apiURL: cfg.SynthURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.SynthTimeout) * time.Second,
		},
	}
}

// Synthesize converts one sentence to encoded audio.
// The service returns the complete encoded file in the response body
func (c *HTTPClient) Synthesize(text string) ([]byte, error) {
	c.mu.Lock()
	if c.isActive {
		c.mu.Unlock()
		return nil, fmt.Errorf("synthesis client is already synthesizing")
	}
	c.isActive = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.isActive = false
		c.mu.Unlock()
	}()

	jsonData, err := json.Marshal(synthesisRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}

	if len(audioData) == 0 {
		return nil, fmt.Errorf("synthesis service returned empty audio")
	}

	log := observability.GetLogger()
	log.Debug().
		Int("text_len", len(text)).
		Int("audio_bytes", len(audioData)).
		Msg("Sentence synthesized")

	return audioData, nil
}

// HealthCheck probes the synthesis service. The service exposes no
// dedicated health route, so any HTTP response on its endpoint counts
// as alive; no synthesis is requested
func (c *HTTPClient) HealthCheck(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.apiURL, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return true, nil
}

// IsActive returns whether the client is currently synthesizing
func (c *HTTPClient) IsActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isActive
}

// Close closes the client and cleans up resources
func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
