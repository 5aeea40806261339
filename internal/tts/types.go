package tts

import "fmt"

// Synthesizer defines the interface for a text-to-speech backend
type Synthesizer interface {
	// Synthesize converts one sentence to encoded audio
	Synthesize(text string) ([]byte, error)

	// Close closes the client and cleans up resources
	Close() error
}

// APIError reports a non-success response from the synthesis service
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("synthesis API returned status %d: %s", e.StatusCode, e.Body)
}
