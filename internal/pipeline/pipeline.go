package pipeline

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-companion/internal/observability"
	"github.com/lexiqai/voice-companion/internal/tts"
)

// Options configures one pipeline instance
type Options struct {
	StopMarkers []string
	StopWindow  int
	Synthesizer tts.Synthesizer
	Player      Player
	Logger      zerolog.Logger
	Metrics     *observability.Metrics
}

// Pipeline turns one generation stream into ordered spoken audio.
// Two goroutines cooperate: the producer (caller of Run) frames,
// segments, and dispatches sentences, while the player drains the
// queue. Synthesis of sentence N+1 overlaps playback of sentence N
type Pipeline struct {
	opts  Options
	ctrl  *Controller
	state atomic.Int32
}

// New creates a pipeline for a single run. The controller is live
// immediately, so an interrupt arriving before Run still takes effect
func New(opts Options) *Pipeline {
	if opts.Metrics == nil {
		opts.Metrics = observability.NewTurnMetrics("")
	}

	p := &Pipeline{
		opts: opts,
		ctrl: NewController(),
	}
	p.state.Store(int32(StateIdle))
	return p
}

// Controller returns the cancellation controller for this run
func (p *Pipeline) Controller() *Controller {
	return p.ctrl
}

// State returns the pipeline's current lifecycle state
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Interrupted reports whether this run was cancelled
func (p *Pipeline) Interrupted() bool {
	return p.ctrl.Interrupted()
}

// Run consumes the token source to completion. It returns an error
// only for generation failures; per-sentence synthesis errors and
// per-artifact playback errors are logged and skipped. Ephemeral
// storage is reclaimed on every exit path
func (p *Pipeline) Run(source TokenSource) (err error) {
	log := p.opts.Logger

	store, err := NewArtifactStore()
	if err != nil {
		p.setState(StateFailed)
		return err
	}
	defer func() {
		if cleanupErr := store.Cleanup(); cleanupErr != nil {
			log.Error().Err(cleanupErr).Str("dir", store.Dir()).Msg("Artifact cleanup failed")
			if err == nil {
				err = fmt.Errorf("artifact cleanup failed: %w", cleanupErr)
				p.setState(StateFailed)
			}
			return
		}
		// An interrupted run settles into Completed only after its
		// artifacts are gone
		if err == nil {
			p.setState(StateCompleted)
		}
	}()

	queue := NewPlaybackQueue()
	playerDone := make(chan struct{})
	go p.runPlayer(queue, store, playerDone)

	// Wake a player blocked on an empty queue as soon as the
	// interrupt fires; Push after close is dropped by the producer
	watcherStop := make(chan struct{})
	go func() {
		select {
		case <-p.ctrl.Done():
			queue.Close()
		case <-watcherStop:
		}
	}()

	framer := NewTokenFramer(source, p.opts.StopMarkers, p.opts.StopWindow, p.ctrl)
	segmenter := NewSentenceSegmenter()
	dispatcher := NewDispatcher(p.opts.Synthesizer, store)

	genErr := p.produce(framer, segmenter, dispatcher, queue)

	close(watcherStop)
	queue.Close()
	if p.ctrl.Interrupted() {
		p.discard(queue, store)
	}
	<-playerDone

	if genErr != nil {
		p.setState(StateFailed)
		return fmt.Errorf("generation failed: %w", genErr)
	}

	if p.ctrl.Interrupted() {
		p.setState(StateInterrupted)
	}
	return nil
}

// produce runs the sequential framing, segmentation, and dispatch
// loop. It returns a generation error, or nil on normal or
// interrupted termination
func (p *Pipeline) produce(framer *TokenFramer, segmenter *SentenceSegmenter, dispatcher *Dispatcher, queue *PlaybackQueue) error {
	for {
		if p.ctrl.Interrupted() {
			p.setState(StateInterrupted)
			return nil
		}

		chunk, err := framer.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		if p.State() == StateIdle {
			p.setState(StateStreaming)
		}

		if !p.dispatchAll(segmenter.Push(chunk), dispatcher, queue) {
			return nil
		}
	}

	if p.ctrl.Interrupted() {
		p.setState(StateInterrupted)
		return nil
	}

	p.setState(StateDraining)
	p.dispatchAll(segmenter.Flush(), dispatcher, queue)
	return nil
}

// dispatchAll synthesizes and queues each sentence in order. It
// returns false if an interrupt stopped the batch early
func (p *Pipeline) dispatchAll(sentences []Sentence, dispatcher *Dispatcher, queue *PlaybackQueue) bool {
	log := p.opts.Logger

	for _, sentence := range sentences {
		if p.ctrl.Interrupted() {
			p.setState(StateInterrupted)
			return false
		}

		p.opts.Metrics.RecordSynthesisStart()
		artifact, err := dispatcher.Dispatch(sentence)
		if err != nil {
			// Skip this sentence; the gap is accepted, not backfilled
			p.opts.Metrics.RecordSynthesisEnd(false)
			p.opts.Metrics.RecordError("synthesis", "dispatcher")
			log.Warn().
				Err(err).
				Int("seq", sentence.Seq).
				Msg("Skipping sentence, synthesis failed")
			continue
		}
		if artifact == nil {
			// No speakable content after filtering
			continue
		}
		p.opts.Metrics.RecordSynthesisEnd(true)

		if err := queue.Push(artifact); err != nil {
			log.Warn().Int("seq", artifact.Seq).Msg("Queue closed, dropping artifact")
			return false
		}
	}
	return true
}

// runPlayer drains the queue in FIFO order, playing each artifact to
// completion and deleting it afterward. Under interruption, queued
// artifacts are discarded unplayed; an artifact already playing is
// allowed to finish
func (p *Pipeline) runPlayer(queue *PlaybackQueue, store *ArtifactStore, done chan<- struct{}) {
	defer close(done)
	log := p.opts.Logger

	for {
		if p.ctrl.Interrupted() {
			p.discard(queue, store)
			return
		}

		artifact, ok := queue.Pop()
		if !ok {
			return
		}

		if p.ctrl.Interrupted() {
			store.Remove(artifact)
			p.discard(queue, store)
			return
		}

		start := time.Now()
		if err := p.opts.Player.Play(artifact.Path); err != nil {
			p.opts.Metrics.RecordError("playback", "player")
			log.Warn().
				Err(err).
				Int("seq", artifact.Seq).
				Msg("Playback failed, continuing with next artifact")
		}
		p.opts.Metrics.RecordPlayback(time.Since(start))

		if err := store.Remove(artifact); err != nil {
			log.Warn().Err(err).Int("seq", artifact.Seq).Msg("Failed to remove played artifact")
		}
	}
}

// discard removes everything still queued without playing it
func (p *Pipeline) discard(queue *PlaybackQueue, store *ArtifactStore) {
	discarded := queue.Drain()
	for _, artifact := range discarded {
		store.Remove(artifact)
	}
	if len(discarded) > 0 {
		p.opts.Logger.Debug().Int("count", len(discarded)).Msg("Discarded queued artifacts")
	}
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
}
