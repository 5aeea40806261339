package pipeline

import (
	"fmt"

	"github.com/lexiqai/voice-companion/internal/tts"
)

// Dispatcher converts sentences into stored audio artifacts. Calls
// are synchronous; one synthesis is in flight at a time, overlapping
// only with playback of earlier sentences
type Dispatcher struct {
	synth tts.Synthesizer
	store *ArtifactStore
}

// NewDispatcher creates a dispatcher writing into the given store
func NewDispatcher(synth tts.Synthesizer, store *ArtifactStore) *Dispatcher {
	return &Dispatcher{synth: synth, store: store}
}

// Dispatch synthesizes one sentence and persists the result. A nil
// artifact with nil error means the sentence had no speakable content
// after filtering. A synthesis error is returned for the caller to
// log and skip; it never aborts the pipeline
func (d *Dispatcher) Dispatch(sentence Sentence) (*Artifact, error) {
	text := tts.FilterText(sentence.Text)
	if text == "" {
		return nil, nil
	}

	audio, err := d.synth.Synthesize(text)
	if err != nil {
		return nil, fmt.Errorf("synthesis failed for sentence %d: %w", sentence.Seq, err)
	}

	artifact, err := d.store.Save(sentence.Seq, audio)
	if err != nil {
		return nil, fmt.Errorf("failed to store sentence %d: %w", sentence.Seq, err)
	}

	return artifact, nil
}
