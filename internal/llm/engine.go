package llm

import (
	"context"
	"time"
)

// GenerationStats summarizes a completed generation stream.
// Values are only meaningful after the stream has terminated
type GenerationStats struct {
	TokensPredicted int
	TokensEvaluated int
	Duration        time.Duration
}

// TokenStream yields generated token chunks one at a time.
// Next returns io.EOF when the stream is exhausted; any other error
// means generation failed partway through. Close must be called on
// every stream, including fully-drained ones, to release the engine
type TokenStream interface {
	Next() (string, error)
	Stats() GenerationStats
	Close() error
}

// Engine is a streaming text generation backend
type Engine interface {
	// Generate starts a generation stream for the given prompt.
	// The engine serves one stream at a time; concurrent callers
	// block until the active stream is closed
	Generate(ctx context.Context, prompt string) (TokenStream, error)

	Close() error
}
