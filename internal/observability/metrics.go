package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Turn metrics
	activeTurns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_companion_active_turns",
		Help: "Number of conversation turns currently in flight",
	})

	totalTurns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_companion_turns_total",
		Help: "Total number of conversation turns processed",
	})

	turnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_companion_turn_duration_seconds",
		Help:    "Duration of conversation turns in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
	})

	interruptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_companion_interrupts_total",
		Help: "Total number of user-initiated interruptions",
	})

	// Generation metrics
	generationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_companion_generation_requests_total",
		Help: "Total number of generation stream requests",
	}, []string{"status"})

	generationTokens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_companion_generation_tokens_total",
		Help: "Total number of tokens received from the generation engine",
	})

	// Sentence metrics
	sentencesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_companion_sentences_total",
		Help: "Total number of sentences handled by the synthesis dispatcher",
	}, []string{"status"}) // status: "synthesized" or "skipped"

	synthesisLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_companion_synthesis_latency_seconds",
		Help:    "Sentence synthesis latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	})

	playbackLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_companion_playback_latency_seconds",
		Help:    "Artifact playback duration in seconds",
		Buckets: []float64{0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	})

	// Transcription metrics
	transcriptionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_companion_transcription_requests_total",
		Help: "Total number of transcription requests",
	}, []string{"status"})

	transcriptionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_companion_transcription_latency_seconds",
		Help:    "Transcription latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	// Recording metrics
	recordingAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_companion_recording_attempts_total",
		Help: "Total number of capture start attempts",
	}, []string{"status"}) // status: "success", "busy", "error"

	recordingBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_companion_recording_bytes_total",
		Help: "Total bytes captured from the microphone",
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_companion_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "voice_companion_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})
)

// Metrics tracks metrics for a single conversation turn
type Metrics struct {
	turnID             string
	startTime          time.Time
	synthesisStartTime time.Time
	transcriptionStart time.Time
	mu                 sync.Mutex
}

// NewTurnMetrics creates a new metrics tracker for a conversation turn
func NewTurnMetrics(turnID string) *Metrics {
	return &Metrics{
		turnID:    turnID,
		startTime: time.Now(),
	}
}

// RecordTurnStart records the start of a conversation turn
func (m *Metrics) RecordTurnStart() {
	activeTurns.Inc()
	totalTurns.Inc()
}

// RecordTurnEnd records the end of a conversation turn
func (m *Metrics) RecordTurnEnd() {
	activeTurns.Dec()
	duration := time.Since(m.startTime).Seconds()
	turnDuration.Observe(duration)
}

// RecordInterrupt records a user-initiated interruption
func (m *Metrics) RecordInterrupt() {
	interruptsTotal.Inc()
}

// RecordGeneration records the outcome of a generation stream
func (m *Metrics) RecordGeneration(success bool, tokens int) {
	status := "success"
	if !success {
		status = "error"
	}
	generationRequests.WithLabelValues(status).Inc()
	generationTokens.Add(float64(tokens))
}

// RecordSynthesisStart records the start of sentence synthesis
func (m *Metrics) RecordSynthesisStart() {
	m.mu.Lock()
	m.synthesisStartTime = time.Now()
	m.mu.Unlock()
}

// RecordSynthesisEnd records the end of sentence synthesis
func (m *Metrics) RecordSynthesisEnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.synthesisStartTime.IsZero() {
		latency := time.Since(m.synthesisStartTime).Seconds()
		synthesisLatency.Observe(latency)
	}

	status := "synthesized"
	if !success {
		status = "skipped"
	}
	sentencesTotal.WithLabelValues(status).Inc()
}

// RecordPlayback records the playback duration of one artifact
func (m *Metrics) RecordPlayback(duration time.Duration) {
	playbackLatency.Observe(duration.Seconds())
}

// RecordTranscriptionStart records the start of transcription
func (m *Metrics) RecordTranscriptionStart() {
	m.mu.Lock()
	m.transcriptionStart = time.Now()
	m.mu.Unlock()
}

// RecordTranscriptionEnd records the end of transcription
func (m *Metrics) RecordTranscriptionEnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.transcriptionStart.IsZero() {
		latency := time.Since(m.transcriptionStart).Seconds()
		transcriptionLatency.Observe(latency)
	}

	status := "success"
	if !success {
		status = "error"
	}
	transcriptionRequests.WithLabelValues(status).Inc()
}

// RecordRecordingAttempt records a capture start attempt
func (m *Metrics) RecordRecordingAttempt(status string) {
	recordingAttempts.WithLabelValues(status).Inc()
}

// RecordRecordingBytes records bytes captured from the microphone
func (m *Metrics) RecordRecordingBytes(bytes int64) {
	recordingBytes.Add(float64(bytes))
}

// RecordError records an error
func (m *Metrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}
