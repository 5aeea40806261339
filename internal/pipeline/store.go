package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// Artifact is synthesized audio for one sentence, stored on disk
// until played
type Artifact struct {
	Path string
	Seq  int
}

// ArtifactStore owns the ephemeral directory holding synthesized
// audio for one pipeline run. Exactly one store exists per run and
// nothing else writes into its directory. Cleanup must run on every
// exit path
type ArtifactStore struct {
	dir string
}

// NewArtifactStore creates a fresh temp directory for artifacts
func NewArtifactStore() (*ArtifactStore, error) {
	dir, err := os.MkdirTemp("", "voice-companion-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &ArtifactStore{dir: dir}, nil
}

// Save persists one synthesized payload and returns its artifact
func (s *ArtifactStore) Save(seq int, data []byte) (*Artifact, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("sentence-%04d.wav", seq))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write artifact %d: %w", seq, err)
	}
	return &Artifact{Path: path, Seq: seq}, nil
}

// Remove deletes one played or discarded artifact
func (s *ArtifactStore) Remove(a *Artifact) error {
	return os.Remove(a.Path)
}

// Dir returns the store's directory
func (s *ArtifactStore) Dir() string {
	return s.dir
}

// Cleanup removes the directory and anything left inside it
func (s *ArtifactStore) Cleanup() error {
	return os.RemoveAll(s.dir)
}
