package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lexiqai/voice-companion/internal/config"
	"github.com/lexiqai/voice-companion/internal/observability"
	"github.com/lexiqai/voice-companion/internal/resilience"
)

// HTTPEngine implements Engine against a llama.cpp-style completion
// server that streams tokens as server-sent events
type HTTPEngine struct {
	apiURL     string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker

	// Held from Generate until the returned stream is closed. The
	// engine process handles one generation at a time; overlapping
	// requests corrupt its context window
	mu sync.Mutex
}

// completionRequest is the request payload for the completion endpoint
type completionRequest struct {
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// completionChunk is one streamed event from the completion endpoint
type completionChunk struct {
	Content         string `json:"content"`
	Stop            bool   `json:"stop"`
	TokensPredicted int    `json:"tokens_predicted"`
	TokensEvaluated int    `json:"tokens_evaluated"`
}

// NewHTTPEngine creates a new engine client
func NewHTTPEngine(cfg *config.Config) *HTTPEngine {
	connectTimeout := time.Duration(cfg.EngineConnectTimeout) * time.Second

	return &HTTPEngine{
		apiURL: cfg.EngineURL,
		httpClient: &http.Client{
			// No overall timeout: the stream stays open for the
			// whole generation. Connect and header deadlines are
			// enforced on the transport
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: connectTimeout,
				}).DialContext,
				ResponseHeaderTimeout: connectTimeout,
			},
		},
		breaker: resilience.NewCircuitBreaker(
			"engine",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
	}
}

// Generate starts a generation stream for the given prompt
func (e *HTTPEngine) Generate(ctx context.Context, prompt string) (TokenStream, error) {
	e.mu.Lock()

	var resp *http.Response
	err := e.breaker.Call(func() error {
		jsonData, err := json.Marshal(completionRequest{
			Prompt: prompt,
			Stream: true,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", e.apiURL, bytes.NewBuffer(jsonData))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")

		resp, err = e.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to reach engine: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			status := resp.StatusCode
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			resp = nil
			return fmt.Errorf("engine returned status %d: %s", status, strings.TrimSpace(string(body)))
		}

		return nil
	})
	observability.UpdateCircuitBreakerState("engine", int(e.breaker.GetState()))

	if err != nil {
		e.mu.Unlock()
		return nil, err
	}

	return &httpTokenStream{
		body:    resp.Body,
		reader:  bufio.NewReader(resp.Body),
		started: time.Now(),
		release: e.mu.Unlock,
	}, nil
}

// HealthCheck probes the completion endpoint
func (e *HTTPEngine) HealthCheck(ctx context.Context) (bool, error) {
	healthURL := strings.TrimSuffix(e.apiURL, "/completion") + "/health"

	req, err := http.NewRequestWithContext(ctx, "GET", healthURL, nil)
	if err != nil {
		return false, err
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK, nil
}

// Close closes the engine client
func (e *HTTPEngine) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}

// httpTokenStream reads streamed completion chunks off one response body
type httpTokenStream struct {
	body    io.ReadCloser
	reader  *bufio.Reader
	started time.Time

	stats    GenerationStats
	finished bool
	err      error

	releaseOnce sync.Once
	release     func()
}

// Next returns the next token chunk, or io.EOF once the engine has
// signaled completion
func (s *httpTokenStream) Next() (string, error) {
	if s.finished {
		return "", s.err
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// Stream ended without an explicit stop chunk
				s.finish(io.EOF)
				return "", io.EOF
			}
			s.finish(fmt.Errorf("engine stream read failed: %w", err))
			return "", s.err
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			s.finish(io.EOF)
			return "", io.EOF
		}

		var chunk completionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			log := observability.GetLogger()
			log.Warn().
				Err(err).
				Str("payload", payload).
				Msg("Skipping malformed engine chunk")
			continue
		}

		if chunk.Stop {
			// The terminal chunk carries engine-side counters;
			// prefer them over our own chunk count when present
			if chunk.TokensPredicted > 0 {
				s.stats.TokensPredicted = chunk.TokensPredicted
			}
			s.stats.TokensEvaluated = chunk.TokensEvaluated
			s.finish(io.EOF)
			if chunk.Content != "" {
				// Terminal chunk carried a final token; the next
				// call observes io.EOF
				return chunk.Content, nil
			}
			return "", io.EOF
		}

		s.stats.TokensPredicted++
		return chunk.Content, nil
	}
}

// Stats returns generation statistics. Valid after Next has returned
// a terminal error
func (s *httpTokenStream) Stats() GenerationStats {
	return s.stats
}

// Close releases the engine for the next caller and discards any
// unread remainder of the stream
func (s *httpTokenStream) Close() error {
	if !s.finished {
		s.finished = true
		s.err = io.EOF
	}

	err := s.body.Close()
	s.releaseOnce.Do(s.release)
	return err
}

func (s *httpTokenStream) finish(err error) {
	s.finished = true
	s.err = err
	s.stats.Duration = time.Since(s.started)
	s.body.Close()
	s.releaseOnce.Do(s.release)
}
