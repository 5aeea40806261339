package stt

import "context"

// TranscriptionResult is the text recovered from one recorded capture
type TranscriptionResult struct {
	Text       string
	Confidence float64
}

// Transcriber converts a recorded audio file to text
type Transcriber interface {
	TranscribeFile(ctx context.Context, path string) (*TranscriptionResult, error)
}
