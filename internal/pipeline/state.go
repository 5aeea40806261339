package pipeline

// State tracks where a pipeline run is in its lifecycle
type State int32

const (
	StateIdle        State = iota // No tokens observed yet
	StateStreaming                // Tokens flowing, sentences being dispatched
	StateDraining                 // Token source ended, flushing remaining work
	StateInterrupted              // Cancellation observed, discarding remaining work
	StateCompleted                // All work finished and storage reclaimed
	StateFailed                   // Generation failed mid-stream
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateInterrupted:
		return "interrupted"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
